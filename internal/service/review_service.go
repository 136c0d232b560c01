package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"coffeehouse-api/internal/models"
	"coffeehouse-api/internal/util"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Comment limit is counted in characters, not bytes.
const maxCommentLength = 1000

// ReviewStore is the persistence surface the review service depends on
type ReviewStore interface {
	InsertReview(ctx context.Context, review *models.Review) error
	ReviewByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error)
	ReviewsByProduct(ctx context.Context, productID primitive.ObjectID) ([]models.Review, error)
	AllReviews(ctx context.Context) ([]models.Review, error)
	DeleteReview(ctx context.Context, id primitive.ObjectID) error
	ToggleHelpful(ctx context.Context, reviewID, userID primitive.ObjectID) (int, error)
}

// ReviewService handles review creation, listing, helpful votes, and
// moderation, and keeps the product's denormalized rating in step
type ReviewService struct {
	reviews  ReviewStore
	products ProductStore
	orders   OrderStore
	users    UserStore
	logger   *zap.Logger
}

// NewReviewService creates a new review service
func NewReviewService(reviews ReviewStore, products ProductStore, orders OrderStore, users UserStore) *ReviewService {
	return &ReviewService{
		reviews:  reviews,
		products: products,
		orders:   orders,
		users:    users,
		logger:   util.GetLogger(),
	}
}

// CreateReviewRequest represents a review creation payload
type CreateReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"required,max=1000"`
}

// CreateReview creates a review for a product. The verified flag is set once,
// at creation time, from whether the reviewer has a delivered order containing
// the product. The product's rating is adjusted through a single atomic
// sum/count update rather than a read-all-then-write recomputation.
func (s *ReviewService) CreateReview(ctx context.Context, userID primitive.ObjectID, productID string, req *CreateReviewRequest) (*models.Review, error) {
	ctx, span := util.StartSpan(ctx, "ReviewService.CreateReview")
	defer span.End()

	if req.Rating < 1 || req.Rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", models.ErrValidation)
	}
	comment := strings.TrimSpace(req.Comment)
	if comment == "" || utf8.RuneCountInString(comment) > maxCommentLength {
		return nil, fmt.Errorf("%w: comment must be 1-%d characters", models.ErrValidation, maxCommentLength)
	}

	pid, err := parseObjectID(productID)
	if err != nil {
		return nil, err
	}

	product, err := s.products.ProductByID(ctx, pid)
	if err != nil {
		return nil, err
	}

	verified, err := s.orders.HasDeliveredOrder(ctx, userID, pid)
	if err != nil {
		return nil, fmt.Errorf("failed to check purchase history: %w", err)
	}

	review := &models.Review{
		UserID:    userID,
		ProductID: pid,
		Rating:    req.Rating,
		Comment:   comment,
		Verified:  verified,
	}

	if err := s.reviews.InsertReview(ctx, review); err != nil {
		if errors.Is(err, models.ErrDuplicateReview) {
			util.ReviewConflictsTotal.Inc()
		}
		return nil, err
	}

	if err := s.products.ApplyRatingDelta(ctx, pid, float64(req.Rating), 1); err != nil {
		return nil, fmt.Errorf("failed to update product rating: %w", err)
	}

	util.ReviewsCreatedTotal.Inc()
	s.logger.Info("Review created",
		zap.String("review_id", review.ID.Hex()),
		zap.String("product_id", pid.Hex()),
		zap.Int("rating", req.Rating),
		zap.Bool("verified", verified))

	review.ProductName = product.Name
	if user, err := s.users.UserByID(ctx, userID); err == nil {
		review.UserName = user.Name
	}

	return review, nil
}

// ListReviewsForProduct returns a product's reviews, newest first
func (s *ReviewService) ListReviewsForProduct(ctx context.Context, productID string) ([]models.Review, error) {
	pid, err := parseObjectID(productID)
	if err != nil {
		return nil, err
	}
	return s.reviews.ReviewsByProduct(ctx, pid)
}

// ListAllReviews returns every review for the back office, newest first
func (s *ReviewService) ListAllReviews(ctx context.Context) ([]models.Review, error) {
	return s.reviews.AllReviews(ctx)
}

// ToggleHelpful flips the caller's helpful vote on a review and returns the
// updated count. Toggling twice restores the original state.
func (s *ReviewService) ToggleHelpful(ctx context.Context, reviewID string, userID primitive.ObjectID) (int, error) {
	id, err := parseObjectID(reviewID)
	if err != nil {
		return 0, err
	}
	return s.reviews.ToggleHelpful(ctx, id, userID)
}

// DeleteReview removes a review. Only the author or an admin may delete.
// The product's rating is re-adjusted by backing the review's rating out of
// the running sum/count.
func (s *ReviewService) DeleteReview(ctx context.Context, reviewID string, requesterID primitive.ObjectID, requesterIsAdmin bool) error {
	ctx, span := util.StartSpan(ctx, "ReviewService.DeleteReview")
	defer span.End()

	id, err := parseObjectID(reviewID)
	if err != nil {
		return err
	}

	review, err := s.reviews.ReviewByID(ctx, id)
	if err != nil {
		return err
	}

	if review.UserID != requesterID && !requesterIsAdmin {
		return models.ErrForbidden
	}

	if err := s.reviews.DeleteReview(ctx, id); err != nil {
		return err
	}

	// The product may have been deleted since the review was written.
	err = s.products.ApplyRatingDelta(ctx, review.ProductID, -float64(review.Rating), -1)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to update product rating: %w", err)
	}

	s.logger.Info("Review deleted",
		zap.String("review_id", id.Hex()),
		zap.Bool("by_admin", requesterIsAdmin))
	return nil
}
