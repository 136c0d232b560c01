package service

import (
	"context"
	"testing"

	"coffeehouse-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func beansRequest() *ProductRequest {
	return &ProductRequest{
		Name:        "Colombia Supremo 500g",
		Description: "Chocolate and caramel, medium body",
		Price:       1199,
		Image:       "https://cdn.example.com/colombia.jpg",
		Category:    models.CategoryBeans,
		Weight:      "500g",
		Origin:      "Colombia",
		RoastLevel:  models.RoastMedium,
		Stock:       40,
	}
}

func TestProductCRUD(t *testing.T) {
	store := newFakeProductStore()
	svc := NewProductService(store)

	created, err := svc.CreateProduct(context.Background(), beansRequest())
	require.NoError(t, err)
	require.False(t, created.ID.IsZero())

	got, err := svc.GetProduct(context.Background(), created.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "Colombia Supremo 500g", got.Name)

	req := beansRequest()
	req.Price = 999
	req.Stock = 12
	updated, err := svc.UpdateProduct(context.Background(), created.ID.Hex(), req)
	require.NoError(t, err)
	assert.InDelta(t, 999, updated.Price, 1e-9)
	assert.Equal(t, 12, updated.Stock)

	require.NoError(t, svc.DeleteProduct(context.Background(), created.ID.Hex()))

	_, err = svc.GetProduct(context.Background(), created.ID.Hex())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestListProductsCategoryFilter(t *testing.T) {
	store := newFakeProductStore()
	svc := NewProductService(store)

	_, err := svc.CreateProduct(context.Background(), beansRequest())
	require.NoError(t, err)

	grinder := beansRequest()
	grinder.Name = "Hand Grinder"
	grinder.Category = models.CategoryEquipment
	grinder.RoastLevel = ""
	_, err = svc.CreateProduct(context.Background(), grinder)
	require.NoError(t, err)

	all, err := svc.ListProducts(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	beans, err := svc.ListProducts(context.Background(), models.CategoryBeans)
	require.NoError(t, err)
	require.Len(t, beans, 1)
	assert.Equal(t, "Colombia Supremo 500g", beans[0].Name)

	_, err = svc.ListProducts(context.Background(), "furniture")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestUpdateProductPreservesRating(t *testing.T) {
	store := newFakeProductStore()
	svc := NewProductService(store)

	created, err := svc.CreateProduct(context.Background(), beansRequest())
	require.NoError(t, err)
	require.NoError(t, store.ApplyRatingDelta(context.Background(), created.ID, 9, 2))

	updated, err := svc.UpdateProduct(context.Background(), created.ID.Hex(), beansRequest())
	require.NoError(t, err)
	assert.InDelta(t, 4.5, updated.Rating, 1e-9)
	assert.EqualValues(t, 2, updated.RatingCount)
}

func TestProductBadID(t *testing.T) {
	svc := NewProductService(newFakeProductStore())

	_, err := svc.GetProduct(context.Background(), "not-hex")
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.GetProduct(context.Background(), primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, models.ErrNotFound)
}
