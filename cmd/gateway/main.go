package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Pravinkumar0908/business/config"
	"github.com/Pravinkumar0908/business/internal/cache"
	"github.com/Pravinkumar0908/business/internal/database"
	"github.com/Pravinkumar0908/business/internal/gateway"
	"github.com/Pravinkumar0908/business/internal/gateway/handlers"
	"github.com/Pravinkumar0908/business/internal/logger"
	cataloghandler "github.com/Pravinkumar0908/business/internal/services/catalog/handler"
	invhandler "github.com/Pravinkumar0908/business/internal/services/inventory/handler"
	ledgerhandler "github.com/Pravinkumar0908/business/internal/services/ledger/handler"
	ordershandler "github.com/Pravinkumar0908/business/internal/services/orders/handler"
	saleshandler "github.com/Pravinkumar0908/business/internal/services/sales/handler"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func main() {
	cfg := config.LoadConfig()

	zlog, err := logger.New(cfg.Server.Env, cfg.Log.Level)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewConnection(cfg.DB)
	if err != nil {
		zlog.Fatal("failed to connect to db", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		zlog.Fatal("failed to migrate database", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Redis is optional: without it caching and event fan-out are no-ops.
	redisClient, err := config.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		zlog.Warn("redis unavailable, running without cache", zap.Error(err))
	} else {
		defer redisClient.Close()
	}
	c := cache.New(redisClient, zlog.Named("cache"))

	inventory := invhandler.NewInventoryHandler(db, zlog.Named("inventory"))
	ledger := ledgerhandler.NewLedgerHandler(db, c, zlog.Named("ledger"), cfg.DB.QueryTimeout)

	router, err := gateway.NewRouter(gateway.Deps{
		DB:        db,
		Cache:     c,
		Log:       zlog,
		Orders:    ordershandler.NewOrderHandler(db, c, inventory, zlog.Named("orders")),
		Catalog:   cataloghandler.NewCatalogHandler(db, zlog.Named("catalog")),
		Ledger:    ledger,
		Inventory: inventory,
		Sales:     saleshandler.NewSalesHandler(db, inventory, ledger, zlog.Named("sales"), cfg.Stock.RestoreOnSaleVoid),
		JWTSecret: []byte(cfg.Auth.JWTSecret),
		RateLimit: cfg.RateLimit.Rate,
		Options: handlers.Options{
			Production:     cfg.Server.IsProduction(),
			RequestTimeout: cfg.DB.QueryTimeout,
		},
	})
	if err != nil {
		zlog.Fatal("failed to build router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", ":"+cfg.Server.GRPCPort)
	if err != nil {
		zlog.Fatal("failed to listen", zap.String("port", cfg.Server.GRPCPort), zap.Error(err))
	}

	go func() {
		zlog.Info("grpc health service listening", zap.String("port", cfg.Server.GRPCPort))
		if err := grpcServer.Serve(lis); err != nil {
			zlog.Error("grpc server stopped", zap.Error(err))
		}
	}()

	go func() {
		zlog.Info("http server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("http server failed", zap.Error(err))
		}
	}()

	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	<-ctx.Done()
	zlog.Info("shutting down")
	healthServer.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("http shutdown failed", zap.Error(err))
	}
	grpcServer.GracefulStop()
}
