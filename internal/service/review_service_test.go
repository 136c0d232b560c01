package service

import (
	"context"
	"strings"
	"testing"

	"coffeehouse-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type reviewFixture struct {
	svc      *ReviewService
	reviews  *fakeReviewStore
	products *fakeProductStore
	orders   *fakeOrderStore
	users    *fakeUserStore

	product *models.Product
	userID  primitive.ObjectID
}

func newReviewFixture(t *testing.T) *reviewFixture {
	t.Helper()

	reviews := newFakeReviewStore()
	products := newFakeProductStore()
	orders := newFakeOrderStore()
	users := newFakeUserStore()

	product := &models.Product{
		Name:     "Ethiopia Yirgacheffe 250g",
		Price:    850,
		Category: models.CategoryBeans,
	}
	require.NoError(t, products.InsertProduct(context.Background(), product))

	user := &models.User{Name: "Asha", Email: "asha@example.com"}
	require.NoError(t, users.InsertUser(context.Background(), user))

	return &reviewFixture{
		svc:      NewReviewService(reviews, products, orders, users),
		reviews:  reviews,
		products: products,
		orders:   orders,
		users:    users,
		product:  product,
		userID:   user.ID,
	}
}

func TestCreateReviewUpdatesAverage(t *testing.T) {
	f := newReviewFixture(t)

	// Two prior reviews averaging 4.5.
	seeded := f.products.products[f.product.ID]
	seeded.RatingSum = 9
	seeded.RatingCount = 2
	seeded.Rating = 4.5

	review, err := f.svc.CreateReview(context.Background(), f.userID, f.product.ID.Hex(),
		&CreateReviewRequest{Rating: 3, Comment: "Decent but a little flat"})
	require.NoError(t, err)

	assert.Equal(t, 3, review.Rating)
	assert.Equal(t, "Asha", review.UserName)
	assert.Equal(t, "Ethiopia Yirgacheffe 250g", review.ProductName)

	// (4+5+3)/3 = 4.0
	assert.InDelta(t, 4.0, f.products.products[f.product.ID].Rating, 1e-9)
}

func TestCreateReviewDuplicateRejected(t *testing.T) {
	f := newReviewFixture(t)

	_, err := f.svc.CreateReview(context.Background(), f.userID, f.product.ID.Hex(),
		&CreateReviewRequest{Rating: 5, Comment: "Bright and floral"})
	require.NoError(t, err)

	_, err = f.svc.CreateReview(context.Background(), f.userID, f.product.ID.Hex(),
		&CreateReviewRequest{Rating: 1, Comment: "Changed my mind"})
	assert.ErrorIs(t, err, models.ErrDuplicateReview)

	all, err := f.svc.ListReviewsForProduct(context.Background(), f.product.ID.Hex())
	require.NoError(t, err)
	assert.Len(t, all, 1)

	// The losing attempt must not touch the rating.
	assert.InDelta(t, 5.0, f.products.products[f.product.ID].Rating, 1e-9)
}

func TestCreateReviewVerifiedFlag(t *testing.T) {
	f := newReviewFixture(t)

	review, err := f.svc.CreateReview(context.Background(), f.userID, f.product.ID.Hex(),
		&CreateReviewRequest{Rating: 4, Comment: "Good value"})
	require.NoError(t, err)
	assert.False(t, review.Verified)

	// A second reviewer with a delivered order containing the product.
	buyer := &models.User{Name: "Ravi", Email: "ravi@example.com"}
	require.NoError(t, f.users.InsertUser(context.Background(), buyer))
	f.orders.delivered[deliveredKey(buyer.ID, f.product.ID)] = true

	review, err = f.svc.CreateReview(context.Background(), buyer.ID, f.product.ID.Hex(),
		&CreateReviewRequest{Rating: 5, Comment: "Exactly as described"})
	require.NoError(t, err)
	assert.True(t, review.Verified)
}

func TestCreateReviewValidation(t *testing.T) {
	f := newReviewFixture(t)

	cases := []struct {
		name string
		req  *CreateReviewRequest
	}{
		{"rating too low", &CreateReviewRequest{Rating: 0, Comment: "x"}},
		{"rating too high", &CreateReviewRequest{Rating: 6, Comment: "x"}},
		{"empty comment", &CreateReviewRequest{Rating: 3, Comment: "   "}},
		{"comment too long", &CreateReviewRequest{Rating: 3, Comment: strings.Repeat("a", 1001)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.CreateReview(context.Background(), f.userID, f.product.ID.Hex(), tc.req)
			assert.ErrorIs(t, err, models.ErrValidation)
		})
	}
}

func TestCreateReviewCommentLengthInCharacters(t *testing.T) {
	f := newReviewFixture(t)

	// 400 characters, 1200 bytes. The limit counts characters, so this is
	// well within bounds even though it exceeds 1000 bytes.
	comment := strings.Repeat("ಕ", 400)
	require.Equal(t, 1200, len(comment))

	review, err := f.svc.CreateReview(context.Background(), f.userID, f.product.ID.Hex(),
		&CreateReviewRequest{Rating: 4, Comment: comment})
	require.NoError(t, err)
	assert.Equal(t, comment, review.Comment)

	// 1001 characters is over the limit regardless of encoding.
	other := &models.User{Name: "Ravi", Email: "ravi@example.com"}
	require.NoError(t, f.users.InsertUser(context.Background(), other))
	_, err = f.svc.CreateReview(context.Background(), other.ID, f.product.ID.Hex(),
		&CreateReviewRequest{Rating: 4, Comment: strings.Repeat("ಕ", 1001)})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestCreateReviewMissingProduct(t *testing.T) {
	f := newReviewFixture(t)

	_, err := f.svc.CreateReview(context.Background(), f.userID, primitive.NewObjectID().Hex(),
		&CreateReviewRequest{Rating: 4, Comment: "ghost product"})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestToggleHelpfulDoubleToggle(t *testing.T) {
	f := newReviewFixture(t)

	review, err := f.svc.CreateReview(context.Background(), f.userID, f.product.ID.Hex(),
		&CreateReviewRequest{Rating: 4, Comment: "Solid daily driver"})
	require.NoError(t, err)

	voter := primitive.NewObjectID()

	count, err := f.svc.ToggleHelpful(context.Background(), review.ID.Hex(), voter)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	stored, err := f.reviews.ReviewByID(context.Background(), review.ID)
	require.NoError(t, err)
	assert.Contains(t, stored.Helpful.Users, voter)

	count, err = f.svc.ToggleHelpful(context.Background(), review.ID.Hex(), voter)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	stored, err = f.reviews.ReviewByID(context.Background(), review.ID)
	require.NoError(t, err)
	assert.NotContains(t, stored.Helpful.Users, voter)
}

func TestToggleHelpfulMissingReview(t *testing.T) {
	f := newReviewFixture(t)

	_, err := f.svc.ToggleHelpful(context.Background(), primitive.NewObjectID().Hex(), f.userID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDeleteReviewAuthorization(t *testing.T) {
	f := newReviewFixture(t)

	review, err := f.svc.CreateReview(context.Background(), f.userID, f.product.ID.Hex(),
		&CreateReviewRequest{Rating: 4, Comment: "Solid daily driver"})
	require.NoError(t, err)

	stranger := primitive.NewObjectID()
	err = f.svc.DeleteReview(context.Background(), review.ID.Hex(), stranger, false)
	assert.ErrorIs(t, err, models.ErrForbidden)

	err = f.svc.DeleteReview(context.Background(), review.ID.Hex(), f.userID, false)
	assert.NoError(t, err)

	_, err = f.reviews.ReviewByID(context.Background(), review.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDeleteReviewAdjustsRating(t *testing.T) {
	f := newReviewFixture(t)

	// Ratings [4, 5] -> average 4.5 after both reviews.
	review, err := f.svc.CreateReview(context.Background(), f.userID, f.product.ID.Hex(),
		&CreateReviewRequest{Rating: 4, Comment: "Good"})
	require.NoError(t, err)

	other := &models.User{Name: "Ravi", Email: "ravi@example.com"}
	require.NoError(t, f.users.InsertUser(context.Background(), other))
	_, err = f.svc.CreateReview(context.Background(), other.ID, f.product.ID.Hex(),
		&CreateReviewRequest{Rating: 5, Comment: "Great"})
	require.NoError(t, err)
	assert.InDelta(t, 4.5, f.products.products[f.product.ID].Rating, 1e-9)

	// Admin deletes the 4-star review; the average becomes 5.0.
	require.NoError(t, f.svc.DeleteReview(context.Background(), review.ID.Hex(), primitive.NewObjectID(), true))
	assert.InDelta(t, 5.0, f.products.products[f.product.ID].Rating, 1e-9)
}
