package store

import (
	"context"
	"testing"

	"coffeehouse-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestOrderRoundTrip(t *testing.T) {
	// Integration test - requires a running Mongo instance.
	// In real scenarios, use testcontainers.
	t.Skip("Integration test - requires mongo")

	store, err := NewStore(context.Background(), "mongodb://localhost:27017", "coffeehouse_test")
	require.NoError(t, err)
	defer store.Close(context.Background())

	ctx := context.Background()
	userID := primitive.NewObjectID()

	order := &models.Order{
		UserID: userID,
		Items: []models.OrderItem{
			{Product: models.ProductSnapshot{ID: primitive.NewObjectID(), Name: "House Blend", Price: 250}, Quantity: 2},
		},
		TotalAmount:   500,
		PaymentMethod: models.PaymentMethodCOD,
		Status:        models.OrderStatusPending,
	}

	err = store.InsertOrder(ctx, order)
	assert.NoError(t, err)
	assert.False(t, order.ID.IsZero())

	orders, err := store.OrdersByUser(ctx, userID)
	assert.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, order.TotalAmount, orders[0].TotalAmount)
}

func TestReviewUniqueIndex(t *testing.T) {
	t.Skip("Integration test - requires mongo")

	store, err := NewStore(context.Background(), "mongodb://localhost:27017", "coffeehouse_test")
	require.NoError(t, err)
	defer store.Close(context.Background())

	ctx := context.Background()
	userID := primitive.NewObjectID()
	productID := primitive.NewObjectID()

	first := &models.Review{UserID: userID, ProductID: productID, Rating: 5, Comment: "great"}
	err = store.InsertReview(ctx, first)
	assert.NoError(t, err)

	// Second review for the same (user, product) pair must lose the race.
	second := &models.Review{UserID: userID, ProductID: productID, Rating: 1, Comment: "changed my mind"}
	err = store.InsertReview(ctx, second)
	assert.ErrorIs(t, err, models.ErrDuplicateReview)
}

func TestToggleHelpfulAtomicity(t *testing.T) {
	t.Skip("Integration test - requires mongo")

	store, err := NewStore(context.Background(), "mongodb://localhost:27017", "coffeehouse_test")
	require.NoError(t, err)
	defer store.Close(context.Background())

	ctx := context.Background()
	review := &models.Review{UserID: primitive.NewObjectID(), ProductID: primitive.NewObjectID(), Rating: 4, Comment: "solid"}
	require.NoError(t, store.InsertReview(ctx, review))

	voter := primitive.NewObjectID()

	count, err := store.ToggleHelpful(ctx, review.ID, voter)
	assert.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = store.ToggleHelpful(ctx, review.ID, voter)
	assert.NoError(t, err)
	assert.Equal(t, 0, count)
}
