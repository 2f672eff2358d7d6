package worker

import (
	"context"
	"log"

	"storefront/internal/broker"
	"storefront/internal/models"
)

// EventLedger records which events have been handled so redelivered Kafka
// messages are processed at most once.
type EventLedger interface {
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
}

// StockRefresher reconciles the stock cache against the database for a set
// of products.
type StockRefresher interface {
	RefreshStockCache(ctx context.Context, productIDs []int64) error
}

// CacheWorker consumes order events and refreshes the stock cache for every
// product whose stock the event mutated. The cache updates made inline by
// the request path are best effort; this worker is the reconciliation
// backstop.
type CacheWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	ledger       EventLedger
	refresher    StockRefresher
}

// NewCacheWorker creates a new cache reconciliation worker
func NewCacheWorker(consumer *broker.Consumer, ledger EventLedger, refresher StockRefresher) *CacheWorker {
	w := &CacheWorker{
		consumer:  consumer,
		ledger:    ledger,
		refresher: refresher,
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnOrderPlaced(w.handleOrderPlaced)
	eventHandler.OnOrderCancelled(w.handleOrderCancelled)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *CacheWorker) Start(ctx context.Context) error {
	log.Println("Starting cache worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *CacheWorker) Stop() error {
	log.Println("Stopping cache worker...")
	return w.consumer.Close()
}

func (w *CacheWorker) handleOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	return w.refreshOnce(ctx, event.EventID, event.EventType, productIDs(event.Items))
}

func (w *CacheWorker) handleOrderCancelled(ctx context.Context, event *models.OrderCancelledEvent) error {
	return w.refreshOnce(ctx, event.EventID, event.EventType, productIDs(event.RestockedItems))
}

func (w *CacheWorker) refreshOnce(ctx context.Context, eventID, eventType string, ids []int64) error {
	processed, err := w.ledger.IsEventProcessed(ctx, eventID)
	if err != nil {
		return err
	}
	if processed {
		log.Printf("Event already processed: %s", eventID)
		return nil
	}

	if len(ids) > 0 {
		if err := w.refresher.RefreshStockCache(ctx, ids); err != nil {
			return err
		}
	}

	return w.ledger.MarkEventProcessed(ctx, eventID, eventType)
}

func productIDs(items []models.OrderItemData) []int64 {
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	return ids
}
