package service

import (
	"context"
	"fmt"

	"coffeehouse-api/internal/models"
	"coffeehouse-api/internal/util"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ProductStore is the persistence surface the product service depends on
type ProductStore interface {
	InsertProduct(ctx context.Context, product *models.Product) error
	ProductByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	Products(ctx context.Context, category string) ([]models.Product, error)
	UpdateProduct(ctx context.Context, id primitive.ObjectID, product *models.Product) (*models.Product, error)
	DeleteProduct(ctx context.Context, id primitive.ObjectID) error
	ApplyRatingDelta(ctx context.Context, id primitive.ObjectID, ratingDelta float64, countDelta int64) error
}

// ProductService handles the storefront catalog and its back-office CRUD
type ProductService struct {
	products ProductStore
	logger   *zap.Logger
}

// NewProductService creates a new product service
func NewProductService(products ProductStore) *ProductService {
	return &ProductService{
		products: products,
		logger:   util.GetLogger(),
	}
}

// ProductRequest is the back-office product create/update payload.
// Images arrive as URLs; upload handling lives outside this API.
type ProductRequest struct {
	Name        string                `json:"name" binding:"required"`
	Description string                `json:"description" binding:"required"`
	Price       float64               `json:"price" binding:"gte=0"`
	Image       string                `json:"image" binding:"required"`
	Category    string                `json:"category" binding:"required,oneof=beans equipment accessories"`
	Weight      string                `json:"weight"`
	Origin      string                `json:"origin"`
	RoastLevel  string                `json:"roastLevel" binding:"omitempty,oneof=light medium dark"`
	Details     models.ProductDetails `json:"details"`
	Stock       int                   `json:"stock" binding:"gte=0"`
}

// ListProducts returns catalog items, optionally filtered by category
func (s *ProductService) ListProducts(ctx context.Context, category string) ([]models.Product, error) {
	if category != "" && !models.ValidCategory(category) {
		return nil, fmt.Errorf("%w: unknown category %q", models.ErrValidation, category)
	}
	return s.products.Products(ctx, category)
}

// GetProduct returns one catalog item
func (s *ProductService) GetProduct(ctx context.Context, productID string) (*models.Product, error) {
	id, err := parseObjectID(productID)
	if err != nil {
		return nil, err
	}
	return s.products.ProductByID(ctx, id)
}

// CreateProduct adds a catalog item from the back office
func (s *ProductService) CreateProduct(ctx context.Context, req *ProductRequest) (*models.Product, error) {
	product := productFromRequest(req)
	if err := s.products.InsertProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info("Product created",
		zap.String("product_id", product.ID.Hex()),
		zap.String("category", product.Category))
	return product, nil
}

// UpdateProduct edits a catalog item from the back office. Rating fields are
// untouched; they belong to the review write path.
func (s *ProductService) UpdateProduct(ctx context.Context, productID string, req *ProductRequest) (*models.Product, error) {
	id, err := parseObjectID(productID)
	if err != nil {
		return nil, err
	}
	return s.products.UpdateProduct(ctx, id, productFromRequest(req))
}

// DeleteProduct removes a catalog item from the back office
func (s *ProductService) DeleteProduct(ctx context.Context, productID string) error {
	id, err := parseObjectID(productID)
	if err != nil {
		return err
	}

	if err := s.products.DeleteProduct(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Product deleted", zap.String("product_id", id.Hex()))
	return nil
}

func productFromRequest(req *ProductRequest) *models.Product {
	return &models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Image:       req.Image,
		Category:    req.Category,
		Weight:      req.Weight,
		Origin:      req.Origin,
		RoastLevel:  req.RoastLevel,
		Details:     req.Details,
		Stock:       req.Stock,
	}
}
