// Command tokengen mints development bearer tokens and can register the
// tenant row the token names.
package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Pravinkumar0908/business/config"
	"github.com/Pravinkumar0908/business/internal/auth"
	"github.com/Pravinkumar0908/business/internal/database"
	"github.com/Pravinkumar0908/business/internal/database/models"
	"github.com/Pravinkumar0908/business/internal/utils"

	flag "github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	cfg := config.LoadConfig()

	var (
		tenantID = flag.String("tenant", "", "tenant id (generated with --register when empty)")
		userID   = flag.String("user", "dev-user", "user id carried in the token")
		role     = flag.String("role", string(auth.RoleOwner), "role: owner, manager, cashier, waiter or kitchen")
		ttl      = flag.Duration("ttl", cfg.Auth.TokenTTL, "token lifetime")
		secret   = flag.String("secret", cfg.Auth.JWTSecret, "HMAC signing secret")
		register = flag.Bool("register", false, "create the tenant row before minting")
		name     = flag.String("name", "", "tenant name for --register")
		pin      = flag.String("pin", "", "owner PIN for --register, stored as a bcrypt hash")
	)
	flag.Parse()

	if _, ok := auth.ParseRole(*role); !ok {
		log.Fatalf("unknown role %q", *role)
	}

	if *register {
		id, err := registerTenant(cfg.DB, *tenantID, *name, *pin)
		if err != nil {
			log.Fatalf("register tenant: %v", err)
		}
		*tenantID = id
		fmt.Fprintf(os.Stderr, "registered tenant %s\n", id)
	}
	if *tenantID == "" {
		log.Fatal("--tenant is required")
	}

	token, expires, err := utils.GenerateToken([]byte(*secret), *userID, *tenantID, *role, *ttl)
	if err != nil {
		log.Fatalf("generate token: %v", err)
	}
	fmt.Fprintf(os.Stderr, "expires %s\n", expires.Format(time.RFC3339))
	fmt.Println(token)
}

func registerTenant(cfg config.DBConfig, id, name, pin string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("--name is required with --register")
	}
	tenant := models.Tenant{ID: id, Name: name}
	if pin != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
		if err != nil {
			return "", fmt.Errorf("hash pin: %w", err)
		}
		tenant.OwnerPINHash = string(hash)
	}

	db, err := database.NewConnection(cfg)
	if err != nil {
		return "", err
	}
	if err := database.Migrate(db); err != nil {
		return "", err
	}
	if err := db.Create(&tenant).Error; err != nil {
		return "", err
	}
	return tenant.ID, nil
}
