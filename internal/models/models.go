package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a customer or admin account
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password" json:"-"`
	IsAdmin      bool               `bson:"isAdmin" json:"isAdmin"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}

// Product categories
const (
	CategoryBeans       = "beans"
	CategoryEquipment   = "equipment"
	CategoryAccessories = "accessories"
)

// Roast levels for bean products
const (
	RoastLight  = "light"
	RoastMedium = "medium"
	RoastDark   = "dark"
)

// ValidCategory reports whether c is a known product category.
func ValidCategory(c string) bool {
	switch c {
	case CategoryBeans, CategoryEquipment, CategoryAccessories:
		return true
	}
	return false
}

// ProductDetails holds category-specific attributes
type ProductDetails struct {
	Flavor              []string `bson:"flavor,omitempty" json:"flavor,omitempty"`
	Process             string   `bson:"process,omitempty" json:"process,omitempty"`
	Altitude            string   `bson:"altitude,omitempty" json:"altitude,omitempty"`
	BrewingTips         []string `bson:"brewingTips,omitempty" json:"brewingTips,omitempty"`
	StorageInstructions string   `bson:"storageInstructions,omitempty" json:"storageInstructions,omitempty"`
}

// Product represents a catalog item. Rating is always RatingSum/RatingCount;
// all three fields are maintained in a single document update so concurrent
// review writes cannot observe a torn average.
type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	Price       float64            `bson:"price" json:"price"`
	Image       string             `bson:"image" json:"image"`
	Category    string             `bson:"category" json:"category"`
	Weight      string             `bson:"weight,omitempty" json:"weight,omitempty"`
	Origin      string             `bson:"origin,omitempty" json:"origin,omitempty"`
	RoastLevel  string             `bson:"roastLevel,omitempty" json:"roastLevel,omitempty"`
	Details     ProductDetails     `bson:"details,omitempty" json:"details"`
	Rating      float64            `bson:"rating" json:"rating"`
	RatingSum   float64            `bson:"ratingSum" json:"-"`
	RatingCount int64              `bson:"ratingCount" json:"-"`
	Stock       int                `bson:"stock" json:"stock"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

// Order statuses. The storefront flow only ever moves forward
// (pending -> paid -> shipped -> delivered); admins may force any value.
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
)

// Payment methods
const (
	PaymentMethodOnline = "online"
	PaymentMethodCOD    = "cod"
)

// ValidOrderStatus reports whether s is one of the four order statuses.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped, OrderStatusDelivered:
		return true
	}
	return false
}

// ProductSnapshot is the denormalized copy of product fields stored in an
// order line item, so historical orders survive later catalog edits.
type ProductSnapshot struct {
	ID    primitive.ObjectID `bson:"_id" json:"_id"`
	Name  string             `bson:"name" json:"name"`
	Price float64            `bson:"price" json:"price"`
	Image string             `bson:"image" json:"image"`
}

// OrderItem is a single line item in an order
type OrderItem struct {
	Product  ProductSnapshot `bson:"product" json:"product"`
	Quantity int             `bson:"quantity" json:"quantity"`
}

// Address is a shipping address
type Address struct {
	Street  string `bson:"street" json:"street"`
	City    string `bson:"city" json:"city"`
	State   string `bson:"state" json:"state"`
	ZipCode string `bson:"zipCode" json:"zipCode"`
	Country string `bson:"country" json:"country"`
}

// OrderUser is the user identity joined onto admin order listings
type OrderUser struct {
	ID    primitive.ObjectID `bson:"_id" json:"id"`
	Name  string             `bson:"name" json:"name"`
	Email string             `bson:"email" json:"email"`
}

// Order represents a purchase transaction
type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID `bson:"user" json:"userId"`
	Items           []OrderItem        `bson:"items" json:"items"`
	TotalAmount     float64            `bson:"totalAmount" json:"totalAmount"`
	ShippingAddress Address            `bson:"shippingAddress" json:"shippingAddress"`
	PaymentMethod   string             `bson:"paymentMethod" json:"paymentMethod"`
	Status          string             `bson:"status" json:"status"`
	GatewayOrderID  string             `bson:"orderId,omitempty" json:"orderId,omitempty"`
	PaymentID       string             `bson:"paymentId,omitempty" json:"paymentId,omitempty"`
	User            *OrderUser         `bson:"userInfo,omitempty" json:"user,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
}

// HelpfulVotes tracks per-user helpful votes on a review.
// Count always equals len(Users); both are mutated in one document update.
type HelpfulVotes struct {
	Count int                  `bson:"count" json:"count"`
	Users []primitive.ObjectID `bson:"users" json:"users"`
}

// Review is one user's opinion of one product. At most one review exists
// per (user, product) pair, enforced by a unique index.
type Review struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"user" json:"userId"`
	ProductID   primitive.ObjectID `bson:"product" json:"productId"`
	Rating      int                `bson:"rating" json:"rating"`
	Comment     string             `bson:"comment" json:"comment"`
	Verified    bool               `bson:"verified" json:"verified"`
	Helpful     HelpfulVotes       `bson:"helpful" json:"helpful"`
	UserName    string             `bson:"userName,omitempty" json:"userName,omitempty"`
	ProductName string             `bson:"productName,omitempty" json:"productName,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// MonthlyRevenuePeriod identifies a (year, month) revenue bucket
type MonthlyRevenuePeriod struct {
	Year  int `bson:"year" json:"year"`
	Month int `bson:"month" json:"month"`
}

// MonthlyRevenue is one month's paid-order revenue
type MonthlyRevenue struct {
	Period MonthlyRevenuePeriod `bson:"_id" json:"_id"`
	Total  float64              `bson:"total" json:"total"`
}

// DashboardStats aggregates the admin dashboard numbers
type DashboardStats struct {
	TotalUsers     int64            `json:"totalUsers"`
	TotalOrders    int64            `json:"totalOrders"`
	TotalProducts  int64            `json:"totalProducts"`
	Revenue        float64          `json:"revenue"`
	MonthlyRevenue []MonthlyRevenue `json:"monthlyRevenue"`
}
