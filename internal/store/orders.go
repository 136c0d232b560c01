package store

import (
	"context"
	"errors"
	"time"

	"coffeehouse-api/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// InsertOrder persists a new order
func (s *Store) InsertOrder(ctx context.Context, order *models.Order) error {
	order.CreatedAt = time.Now().UTC()

	res, err := s.orders.InsertOne(ctx, order)
	if err != nil {
		return err
	}

	order.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// OrdersByUser retrieves a user's orders, newest first
func (s *Store) OrdersByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := s.orders.Find(ctx, bson.M{"user": userID}, opts)
	if err != nil {
		return nil, err
	}

	var orders []models.Order
	if err := cur.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// AllOrders retrieves every order with the owning user's identity joined in,
// newest first.
func (s *Store) AllOrders(ctx context.Context) ([]models.Order, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "users"},
			{Key: "localField", Value: "user"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "userInfo"},
		}}},
		bson.D{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$userInfo"},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
	}

	cur, err := s.orders.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}

	var orders []models.Order
	if err := cur.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// MarkOrderPaid flips the order identified by its gateway order id to paid
// and records the gateway payment id. Returns the updated order.
func (s *Store) MarkOrderPaid(ctx context.Context, gatewayOrderID, paymentID string) (*models.Order, error) {
	update := bson.M{"$set": bson.M{
		"status":    models.OrderStatusPaid,
		"paymentId": paymentID,
	}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var order models.Order
	err := s.orders.FindOneAndUpdate(ctx, bson.M{"orderId": gatewayOrderID}, update, opts).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// SetOrderStatus unconditionally overwrites an order's status and returns the
// order as it was before the update, so callers can report the old status.
// No transition validation: the back office may force any of the four values.
func (s *Store) SetOrderStatus(ctx context.Context, id primitive.ObjectID, status string) (*models.Order, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)
	var order models.Order
	err := s.orders.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"status": status}}, opts).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// HasDeliveredOrder reports whether the user has a delivered order containing
// the product. Drives the verified-purchase flag on reviews.
func (s *Store) HasDeliveredOrder(ctx context.Context, userID, productID primitive.ObjectID) (bool, error) {
	filter := bson.M{
		"user":              userID,
		"status":            models.OrderStatusDelivered,
		"items.product._id": productID,
	}

	n, err := s.orders.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CountOrders counts all orders
func (s *Store) CountOrders(ctx context.Context) (int64, error) {
	return s.orders.CountDocuments(ctx, bson.M{})
}
