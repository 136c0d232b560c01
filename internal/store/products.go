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

// InsertProduct creates a catalog item
func (s *Store) InsertProduct(ctx context.Context, product *models.Product) error {
	product.CreatedAt = time.Now().UTC()

	res, err := s.products.InsertOne(ctx, product)
	if err != nil {
		return err
	}

	product.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// ProductByID retrieves a product by id
func (s *Store) ProductByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var product models.Product
	err := s.products.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// Products retrieves catalog items, newest first, optionally filtered by category
func (s *Store) Products(ctx context.Context, category string) ([]models.Product, error) {
	filter := bson.M{}
	if category != "" {
		filter["category"] = category
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := s.products.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	var products []models.Product
	if err := cur.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// UpdateProduct overwrites a product's catalog fields. The rating fields are
// never touched here; they belong to the review write path.
func (s *Store) UpdateProduct(ctx context.Context, id primitive.ObjectID, product *models.Product) (*models.Product, error) {
	update := bson.M{"$set": bson.M{
		"name":        product.Name,
		"description": product.Description,
		"price":       product.Price,
		"image":       product.Image,
		"category":    product.Category,
		"weight":      product.Weight,
		"origin":      product.Origin,
		"roastLevel":  product.RoastLevel,
		"details":     product.Details,
		"stock":       product.Stock,
	}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Product
	err := s.products.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteProduct removes a catalog item
func (s *Store) DeleteProduct(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.products.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// CountProducts counts catalog items
func (s *Store) CountProducts(ctx context.Context) (int64, error) {
	return s.products.CountDocuments(ctx, bson.M{})
}

// ApplyRatingDelta adjusts a product's running rating sum and count and
// recomputes the denormalized average, all in one atomic pipeline update.
// Concurrent review writes therefore never produce a torn average.
func (s *Store) ApplyRatingDelta(ctx context.Context, id primitive.ObjectID, ratingDelta float64, countDelta int64) error {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "ratingSum", Value: bson.D{{Key: "$add", Value: bson.A{
				bson.D{{Key: "$ifNull", Value: bson.A{"$ratingSum", 0}}},
				ratingDelta,
			}}}},
			{Key: "ratingCount", Value: bson.D{{Key: "$add", Value: bson.A{
				bson.D{{Key: "$ifNull", Value: bson.A{"$ratingCount", 0}}},
				countDelta,
			}}}},
		}}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "rating", Value: bson.D{{Key: "$cond", Value: bson.A{
				bson.D{{Key: "$gt", Value: bson.A{"$ratingCount", 0}}},
				bson.D{{Key: "$divide", Value: bson.A{"$ratingSum", "$ratingCount"}}},
				0,
			}}}},
		}}},
	}

	res, err := s.products.UpdateByID(ctx, id, pipeline)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}
