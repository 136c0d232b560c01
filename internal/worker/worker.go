package worker

import (
	"context"
	"log"

	"coffeehouse-api/internal/broker"
	"coffeehouse-api/internal/models"
	"coffeehouse-api/internal/util"

	"go.uber.org/zap"
)

// NotificationWorker consumes order lifecycle events and dispatches customer
// notifications. Delivery is a log line for now; the consumer plumbing is the
// part that matters to the request path staying synchronous.
type NotificationWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	logger       *zap.Logger
}

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(consumer *broker.Consumer) *NotificationWorker {
	logger := util.GetLogger()
	eventHandler := broker.NewEventHandler()

	w := &NotificationWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
		logger:       logger,
	}

	eventHandler.OnOrderCreated(w.handleOrderCreated)
	eventHandler.OnOrderPaid(w.handleOrderPaid)
	eventHandler.OnOrderStatusChanged(w.handleOrderStatusChanged)

	return w
}

// Start starts the worker
func (w *NotificationWorker) Start(ctx context.Context) error {
	log.Println("Starting notification worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *NotificationWorker) Stop() error {
	log.Println("Stopping notification worker...")
	return w.consumer.Close()
}

func (w *NotificationWorker) handleOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error {
	w.logger.Info("Order confirmation notification",
		zap.String("order_id", event.OrderID),
		zap.String("user_id", event.UserID),
		zap.String("payment_method", event.PaymentMethod),
		zap.Float64("total_amount", event.TotalAmount))
	return nil
}

func (w *NotificationWorker) handleOrderPaid(ctx context.Context, event *models.OrderPaidEvent) error {
	w.logger.Info("Payment receipt notification",
		zap.String("order_id", event.OrderID),
		zap.String("payment_id", event.PaymentID),
		zap.Float64("amount", event.Amount))
	return nil
}

func (w *NotificationWorker) handleOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error {
	w.logger.Info("Order status notification",
		zap.String("order_id", event.OrderID),
		zap.String("old_status", event.OldStatus),
		zap.String("new_status", event.NewStatus))
	return nil
}
