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

// InsertReview persists a new review. The unique (user, product) index makes
// the database the arbiter when two creations race: the loser gets
// ErrDuplicateReview.
func (s *Store) InsertReview(ctx context.Context, review *models.Review) error {
	now := time.Now().UTC()
	review.CreatedAt = now
	review.UpdatedAt = now
	if review.Helpful.Users == nil {
		review.Helpful.Users = []primitive.ObjectID{}
	}

	res, err := s.reviews.InsertOne(ctx, review)
	if mongo.IsDuplicateKeyError(err) {
		return models.ErrDuplicateReview
	}
	if err != nil {
		return err
	}

	review.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// ReviewByID retrieves a review by id
func (s *Store) ReviewByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error) {
	var review models.Review
	err := s.reviews.FindOne(ctx, bson.M{"_id": id}).Decode(&review)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// ReviewsByProduct retrieves a product's reviews with the reviewer's display
// name joined in, newest first.
func (s *Store) ReviewsByProduct(ctx context.Context, productID primitive.ObjectID) ([]models.Review, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{{Key: "product", Value: productID}}}},
		lookupStage("users", "user", "reviewer"),
		unwindStage("$reviewer"),
		bson.D{{Key: "$set", Value: bson.D{{Key: "userName", Value: "$reviewer.name"}}}},
		bson.D{{Key: "$unset", Value: "reviewer"}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
	}

	cur, err := s.reviews.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}

	var reviews []models.Review
	if err := cur.All(ctx, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// AllReviews retrieves every review with reviewer and product names joined in,
// newest first. Used by the back office.
func (s *Store) AllReviews(ctx context.Context) ([]models.Review, error) {
	pipeline := mongo.Pipeline{
		lookupStage("users", "user", "reviewer"),
		unwindStage("$reviewer"),
		lookupStage("products", "product", "reviewedProduct"),
		unwindStage("$reviewedProduct"),
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "userName", Value: "$reviewer.name"},
			{Key: "productName", Value: "$reviewedProduct.name"},
		}}},
		bson.D{{Key: "$unset", Value: bson.A{"reviewer", "reviewedProduct"}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
	}

	cur, err := s.reviews.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}

	var reviews []models.Review
	if err := cur.All(ctx, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// DeleteReview removes a review
func (s *Store) DeleteReview(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.reviews.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ToggleHelpful adds the user to the review's helpful-voter set, or removes
// them if already present, recomputing the count from the set size. The whole
// toggle is one pipeline update, so concurrent toggles by the same user cannot
// drift count and set apart. Returns the updated count.
func (s *Store) ToggleHelpful(ctx context.Context, reviewID, userID primitive.ObjectID) (int, error) {
	voters := bson.D{{Key: "$ifNull", Value: bson.A{"$helpful.users", bson.A{}}}}
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "helpful.users", Value: bson.D{{Key: "$cond", Value: bson.A{
				bson.D{{Key: "$in", Value: bson.A{userID, voters}}},
				bson.D{{Key: "$setDifference", Value: bson.A{voters, bson.A{userID}}}},
				bson.D{{Key: "$concatArrays", Value: bson.A{voters, bson.A{userID}}}},
			}}}},
		}}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "helpful.count", Value: bson.D{{Key: "$size", Value: "$helpful.users"}}},
		}}},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var review models.Review
	err := s.reviews.FindOneAndUpdate(ctx, bson.M{"_id": reviewID}, pipeline, opts).Decode(&review)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, models.ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return review.Helpful.Count, nil
}

func lookupStage(from, localField, as string) bson.D {
	return bson.D{{Key: "$lookup", Value: bson.D{
		{Key: "from", Value: from},
		{Key: "localField", Value: localField},
		{Key: "foreignField", Value: "_id"},
		{Key: "as", Value: as},
	}}}
}

func unwindStage(path string) bson.D {
	return bson.D{{Key: "$unwind", Value: bson.D{
		{Key: "path", Value: path},
		{Key: "preserveNullAndEmptyArrays", Value: true},
	}}}
}
