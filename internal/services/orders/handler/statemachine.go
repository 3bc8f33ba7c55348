package handler

import (
	"github.com/Pravinkumar0908/business/internal/apperr"
	"github.com/Pravinkumar0908/business/internal/database/models"
)

var orderTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderCreated: {
		models.OrderSentToKitchen, models.OrderReady, models.OrderCompleted, models.OrderCancelled,
	},
	models.OrderSentToKitchen: {
		models.OrderReady, models.OrderCompleted, models.OrderCancelled,
	},
	// Ready may go back to the kitchen after items are added.
	models.OrderReady: {
		models.OrderSentToKitchen, models.OrderCompleted, models.OrderCancelled,
	},
}

// itemRank orders the forward item states. Cancelled sits outside it.
var itemRank = map[models.ItemStatus]int{
	models.ItemPending:   0,
	models.ItemInKitchen: 1,
	models.ItemReady:     2,
	models.ItemServed:    3,
}

func validOrderStatus(s models.OrderStatus) bool {
	switch s {
	case models.OrderCreated, models.OrderSentToKitchen, models.OrderReady, models.OrderCompleted, models.OrderCancelled:
		return true
	}
	return false
}

func validItemStatus(s models.ItemStatus) bool {
	_, ok := itemRank[s]
	return ok || s == models.ItemCancelled
}

// CanTransitionOrder reports whether an order may move from one status to
// another. Staying in the same non-terminal status is allowed.
func CanTransitionOrder(from, to models.OrderStatus) bool {
	if from.IsTerminal() {
		return false
	}
	if from == to {
		return true
	}
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanTransitionItem reports whether an item may move from one status to
// another. Items only move forward; Served and Cancelled are final.
func CanTransitionItem(from, to models.ItemStatus) bool {
	if from == models.ItemServed || from == models.ItemCancelled {
		return from == to
	}
	if to == models.ItemCancelled || from == to {
		return true
	}
	fromRank, ok := itemRank[from]
	if !ok {
		return false
	}
	toRank, ok := itemRank[to]
	return ok && toRank > fromRank
}

func checkOrderTransition(from, to models.OrderStatus) error {
	if !validOrderStatus(to) {
		return apperr.Validation("unknown order status %q", to)
	}
	if !CanTransitionOrder(from, to) {
		return apperr.InvalidState("order cannot move from %s to %s", from, to)
	}
	return nil
}

func checkItemTransition(from, to models.ItemStatus) error {
	if !validItemStatus(to) {
		return apperr.Validation("unknown item status %q", to)
	}
	if !CanTransitionItem(from, to) {
		return apperr.InvalidState("item cannot move from %s to %s", from, to)
	}
	return nil
}

// allItemsSettled reports whether the kitchen is done with every item.
// An order with no items never settles.
func allItemsSettled(items []models.OrderItem) bool {
	if len(items) == 0 {
		return false
	}
	for _, item := range items {
		if !item.Status.IsTerminal() {
			return false
		}
	}
	return true
}
