package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"coffeehouse-api/internal/models"
	"coffeehouse-api/internal/util"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const paymentCurrency = "INR"

// OrderStore is the persistence surface the order service depends on
type OrderStore interface {
	InsertOrder(ctx context.Context, order *models.Order) error
	OrdersByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
	AllOrders(ctx context.Context) ([]models.Order, error)
	MarkOrderPaid(ctx context.Context, gatewayOrderID, paymentID string) (*models.Order, error)
	SetOrderStatus(ctx context.Context, id primitive.ObjectID, status string) (*models.Order, error)
	HasDeliveredOrder(ctx context.Context, userID, productID primitive.ObjectID) (bool, error)
}

// EventPublisher publishes order lifecycle events. Publishing is best effort:
// failures are logged and never fail the request.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error
	PublishOrderPaid(ctx context.Context, event *models.OrderPaidEvent) error
	PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error
}

// OrderService handles checkout, payment verification, and order listings
type OrderService struct {
	store         OrderStore
	gateway       PaymentGateway
	gatewaySecret string
	events        EventPublisher
	logger        *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(store OrderStore, gateway PaymentGateway, gatewaySecret string, events EventPublisher) *OrderService {
	return &OrderService{
		store:         store,
		gateway:       gateway,
		gatewaySecret: gatewaySecret,
		events:        events,
		logger:        util.GetLogger(),
	}
}

// ProductSnapshotRequest is the denormalized product copy sent at checkout
type ProductSnapshotRequest struct {
	ID    string  `json:"_id" binding:"required"`
	Name  string  `json:"name" binding:"required"`
	Price float64 `json:"price" binding:"gte=0"`
	Image string  `json:"image"`
}

// OrderItemRequest represents an item in a checkout payload
type OrderItemRequest struct {
	Product  ProductSnapshotRequest `json:"product" binding:"required"`
	Quantity int                    `json:"quantity" binding:"required,min=1"`
}

// CreateOrderRequest represents a checkout payload
type CreateOrderRequest struct {
	Items           []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
	TotalAmount     float64            `json:"totalAmount" binding:"required,gt=0"`
	ShippingAddress models.Address     `json:"shippingAddress"`
	PaymentMethod   string             `json:"paymentMethod" binding:"required,oneof=online cod"`
}

// CreateOrderResponse is the checkout response. Success is set on the cod
// path; the online path returns what the frontend needs to open the gateway
// payment UI.
type CreateOrderResponse struct {
	Success bool   `json:"success,omitempty"`
	OrderID string `json:"orderId,omitempty"`
	Amount  int64  `json:"amount,omitempty"`
	Key     string `json:"key,omitempty"`
}

// VerifyPaymentRequest carries the gateway's redirect/webhook payload
type VerifyPaymentRequest struct {
	GatewayOrderID string `json:"razorpay_order_id" binding:"required"`
	PaymentID      string `json:"razorpay_payment_id" binding:"required"`
	Signature      string `json:"razorpay_signature" binding:"required"`
}

// CreateOrder creates an order at checkout. Cash-on-delivery orders are
// persisted directly; online orders first obtain a gateway payment intent.
// If the local save fails after the gateway call succeeded, the remote intent
// is orphaned; there is no compensation, the customer retries checkout.
func (s *OrderService) CreateOrder(ctx context.Context, userID primitive.ObjectID, req *CreateOrderRequest) (*CreateOrderResponse, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	items, err := buildOrderItems(req.Items)
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues("invalid_items").Inc()
		return nil, err
	}

	order := &models.Order{
		UserID:          userID,
		Items:           items,
		TotalAmount:     req.TotalAmount,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		Status:          models.OrderStatusPending,
	}

	resp := &CreateOrderResponse{Success: true}

	if req.PaymentMethod == models.PaymentMethodOnline {
		amountPaise := int64(math.Round(req.TotalAmount * 100))
		receipt := "order_" + strconv.FormatInt(time.Now().UnixMilli(), 10)

		start := time.Now()
		gatewayOrderID, err := s.gateway.CreateOrder(ctx, amountPaise, paymentCurrency, receipt)
		util.GatewayOrderLatency.Observe(time.Since(start).Seconds())
		if err != nil {
			util.OrdersFailedTotal.WithLabelValues("gateway_error").Inc()
			return nil, fmt.Errorf("order creation failed: %w", err)
		}

		order.GatewayOrderID = gatewayOrderID
		resp = &CreateOrderResponse{
			OrderID: gatewayOrderID,
			Amount:  amountPaise,
			Key:     s.gateway.Key(),
		}
	}

	if err := s.store.InsertOrder(ctx, order); err != nil {
		util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("order creation failed: %w", err)
	}

	util.OrdersCreatedTotal.WithLabelValues(req.PaymentMethod).Inc()
	s.logger.Info("Order created",
		zap.String("order_id", order.ID.Hex()),
		zap.String("payment_method", req.PaymentMethod),
		zap.Float64("total_amount", req.TotalAmount))

	event := &models.OrderCreatedEvent{
		BaseEvent:     newBaseEvent(models.EventTypeOrderCreated),
		OrderID:       order.ID.Hex(),
		UserID:        userID.Hex(),
		TotalAmount:   order.TotalAmount,
		PaymentMethod: order.PaymentMethod,
		ItemCount:     len(order.Items),
	}
	if err := s.events.PublishOrderCreated(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderCreated event", zap.Error(err))
	}

	return resp, nil
}

// VerifyPayment checks the gateway callback signature and, on a match, flips
// the order to paid. On a mismatch the order is left untouched.
func (s *OrderService) VerifyPayment(ctx context.Context, req *VerifyPaymentRequest) error {
	ctx, span := util.StartSpan(ctx, "OrderService.VerifyPayment")
	defer span.End()

	if !VerifySignature(req.GatewayOrderID, req.PaymentID, req.Signature, s.gatewaySecret) {
		util.PaymentsRejectedTotal.Inc()
		s.logger.Warn("Payment signature rejected",
			zap.String("gateway_order_id", req.GatewayOrderID))
		return models.ErrInvalidSignature
	}

	order, err := s.store.MarkOrderPaid(ctx, req.GatewayOrderID, req.PaymentID)
	if err != nil {
		return fmt.Errorf("failed to mark order paid: %w", err)
	}

	util.PaymentsVerifiedTotal.Inc()
	s.logger.Info("Payment verified",
		zap.String("order_id", order.ID.Hex()),
		zap.String("payment_id", req.PaymentID))

	event := &models.OrderPaidEvent{
		BaseEvent:      newBaseEvent(models.EventTypeOrderPaid),
		OrderID:        order.ID.Hex(),
		GatewayOrderID: req.GatewayOrderID,
		PaymentID:      req.PaymentID,
		Amount:         order.TotalAmount,
	}
	if err := s.events.PublishOrderPaid(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderPaid event", zap.Error(err))
	}

	return nil
}

// ListOrdersForUser returns a user's orders, newest first
func (s *OrderService) ListOrdersForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	return s.store.OrdersByUser(ctx, userID)
}

// ListAllOrders returns every order with user identity joined, newest first
func (s *OrderService) ListAllOrders(ctx context.Context) ([]models.Order, error) {
	return s.store.AllOrders(ctx)
}

// UpdateOrderStatus force-sets an order's status from the back office.
// Any of the four statuses is accepted, including backward moves.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID, status string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.UpdateOrderStatus")
	defer span.End()

	if !models.ValidOrderStatus(status) {
		return nil, fmt.Errorf("%w: unknown order status %q", models.ErrValidation, status)
	}

	id, err := parseObjectID(orderID)
	if err != nil {
		return nil, err
	}

	order, err := s.store.SetOrderStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	oldStatus := order.Status
	order.Status = status

	event := &models.OrderStatusChangedEvent{
		BaseEvent: newBaseEvent(models.EventTypeOrderStatusChanged),
		OrderID:   order.ID.Hex(),
		OldStatus: oldStatus,
		NewStatus: status,
	}
	if err := s.events.PublishOrderStatusChanged(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderStatusChanged event", zap.Error(err))
	}

	return order, nil
}

func buildOrderItems(items []OrderItemRequest) ([]models.OrderItem, error) {
	out := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		productID, err := parseObjectID(item.Product.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, models.OrderItem{
			Product: models.ProductSnapshot{
				ID:    productID,
				Name:  item.Product.Name,
				Price: item.Product.Price,
				Image: item.Product.Image,
			},
			Quantity: item.Quantity,
		})
	}
	return out, nil
}

func newBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}

func parseObjectID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: invalid id %q", models.ErrValidation, hex)
	}
	return id, nil
}
