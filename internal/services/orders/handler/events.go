package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/Pravinkumar0908/business/internal/database/models"

	"go.uber.org/zap"
)

const (
	EventOrderCreated     = "order.created"
	EventOrderUpdated     = "order.updated"
	EventOrderItemsAdded  = "order.items_added"
	EventOrderItemUpdated = "order.item_updated"
	EventOrderReady       = "order.ready"
	EventOrderCancelled   = "order.cancelled"

	orderEventsPrefix = "orders:events:"
)

// OrderEvent is what kitchen displays receive on the Redis channels.
type OrderEvent struct {
	EventType string             `json:"event_type"`
	TenantID  string             `json:"tenant_id"`
	OrderID   string             `json:"order_id"`
	Status    models.OrderStatus `json:"status"`
	ItemID    string             `json:"item_id,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
	Order     *models.Order      `json:"order,omitempty"`
}

func orderEvent(eventType string, order *models.Order) OrderEvent {
	return OrderEvent{
		EventType: eventType,
		TenantID:  order.TenantID,
		OrderID:   order.ID,
		Status:    order.Status,
		Timestamp: time.Now(),
		Order:     order,
	}
}

// publishOrderEvent fans the event out on its own channel and the "all"
// channel. It runs after commit; a failure is logged and swallowed.
func (s *OrderHandler) publishOrderEvent(ctx context.Context, event OrderEvent) {
	channels := []string{
		fmt.Sprintf("%s%s", orderEventsPrefix, event.EventType),
		orderEventsPrefix + "all",
	}
	if err := s.cache.Publish(ctx, event, channels...); err != nil {
		s.log.Warn("failed to publish order event",
			zap.String("event", event.EventType),
			zap.String("order_id", event.OrderID),
			zap.Error(err))
	}
}
