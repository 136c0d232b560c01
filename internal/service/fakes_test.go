package service

import (
	"context"
	"time"

	"coffeehouse-api/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory fakes for the store interfaces. They mirror the behavior the
// Mongo store guarantees: uniqueness constraints, newest-first listings, and
// the atomic rating/helpful updates.

type fakeUserStore struct {
	users map[primitive.ObjectID]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[primitive.ObjectID]*models.User)}
}

func (f *fakeUserStore) InsertUser(_ context.Context, user *models.User) error {
	for _, u := range f.users {
		if u.Email == user.Email {
			return models.ErrEmailTaken
		}
	}
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserStore) UserByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeUserStore) UserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) AllUsers(_ context.Context) ([]models.User, error) {
	out := make([]models.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUserStore) DeleteUser(_ context.Context, id primitive.ObjectID) error {
	if _, ok := f.users[id]; !ok {
		return models.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

type fakeSessionStore struct {
	sessions map[string]string
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]string)}
}

func (f *fakeSessionStore) PutSession(_ context.Context, tokenID, userID string, _ time.Duration) error {
	f.sessions[tokenID] = userID
	return nil
}

func (f *fakeSessionStore) SessionExists(_ context.Context, tokenID string) (bool, error) {
	_, ok := f.sessions[tokenID]
	return ok, nil
}

func (f *fakeSessionStore) DeleteSession(_ context.Context, tokenID string) error {
	delete(f.sessions, tokenID)
	return nil
}

type fakeOrderStore struct {
	orders    []*models.Order
	delivered map[string]bool
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{delivered: make(map[string]bool)}
}

func deliveredKey(userID, productID primitive.ObjectID) string {
	return userID.Hex() + "/" + productID.Hex()
}

func (f *fakeOrderStore) InsertOrder(_ context.Context, order *models.Order) error {
	order.ID = primitive.NewObjectID()
	order.CreatedAt = time.Now()
	cp := *order
	f.orders = append(f.orders, &cp)
	return nil
}

func (f *fakeOrderStore) OrdersByUser(_ context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	var out []models.Order
	for i := len(f.orders) - 1; i >= 0; i-- {
		if f.orders[i].UserID == userID {
			out = append(out, *f.orders[i])
		}
	}
	return out, nil
}

func (f *fakeOrderStore) AllOrders(_ context.Context) ([]models.Order, error) {
	var out []models.Order
	for i := len(f.orders) - 1; i >= 0; i-- {
		out = append(out, *f.orders[i])
	}
	return out, nil
}

func (f *fakeOrderStore) MarkOrderPaid(_ context.Context, gatewayOrderID, paymentID string) (*models.Order, error) {
	for _, o := range f.orders {
		if o.GatewayOrderID == gatewayOrderID {
			o.Status = models.OrderStatusPaid
			o.PaymentID = paymentID
			cp := *o
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

// SetOrderStatus mirrors the store contract: returns the pre-update order.
func (f *fakeOrderStore) SetOrderStatus(_ context.Context, id primitive.ObjectID, status string) (*models.Order, error) {
	for _, o := range f.orders {
		if o.ID == id {
			before := *o
			o.Status = status
			return &before, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeOrderStore) HasDeliveredOrder(_ context.Context, userID, productID primitive.ObjectID) (bool, error) {
	return f.delivered[deliveredKey(userID, productID)], nil
}

func (f *fakeOrderStore) orderByID(id primitive.ObjectID) *models.Order {
	for _, o := range f.orders {
		if o.ID == id {
			return o
		}
	}
	return nil
}

type fakeProductStore struct {
	products map[primitive.ObjectID]*models.Product
}

func newFakeProductStore() *fakeProductStore {
	return &fakeProductStore{products: make(map[primitive.ObjectID]*models.Product)}
}

func (f *fakeProductStore) InsertProduct(_ context.Context, product *models.Product) error {
	product.ID = primitive.NewObjectID()
	product.CreatedAt = time.Now()
	cp := *product
	f.products[product.ID] = &cp
	return nil
}

func (f *fakeProductStore) ProductByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProductStore) Products(_ context.Context, category string) ([]models.Product, error) {
	var out []models.Product
	for _, p := range f.products {
		if category == "" || p.Category == category {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeProductStore) UpdateProduct(_ context.Context, id primitive.ObjectID, product *models.Product) (*models.Product, error) {
	existing, ok := f.products[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	existing.Name = product.Name
	existing.Description = product.Description
	existing.Price = product.Price
	existing.Image = product.Image
	existing.Category = product.Category
	existing.Weight = product.Weight
	existing.Origin = product.Origin
	existing.RoastLevel = product.RoastLevel
	existing.Details = product.Details
	existing.Stock = product.Stock
	cp := *existing
	return &cp, nil
}

func (f *fakeProductStore) DeleteProduct(_ context.Context, id primitive.ObjectID) error {
	if _, ok := f.products[id]; !ok {
		return models.ErrNotFound
	}
	delete(f.products, id)
	return nil
}

func (f *fakeProductStore) ApplyRatingDelta(_ context.Context, id primitive.ObjectID, ratingDelta float64, countDelta int64) error {
	p, ok := f.products[id]
	if !ok {
		return models.ErrNotFound
	}
	p.RatingSum += ratingDelta
	p.RatingCount += countDelta
	if p.RatingCount > 0 {
		p.Rating = p.RatingSum / float64(p.RatingCount)
	} else {
		p.Rating = 0
	}
	return nil
}

type fakeReviewStore struct {
	reviews map[primitive.ObjectID]*models.Review
	byPair  map[string]primitive.ObjectID
}

func newFakeReviewStore() *fakeReviewStore {
	return &fakeReviewStore{
		reviews: make(map[primitive.ObjectID]*models.Review),
		byPair:  make(map[string]primitive.ObjectID),
	}
}

func reviewPairKey(userID, productID primitive.ObjectID) string {
	return userID.Hex() + "/" + productID.Hex()
}

func (f *fakeReviewStore) InsertReview(_ context.Context, review *models.Review) error {
	key := reviewPairKey(review.UserID, review.ProductID)
	if _, ok := f.byPair[key]; ok {
		return models.ErrDuplicateReview
	}

	review.ID = primitive.NewObjectID()
	now := time.Now()
	review.CreatedAt = now
	review.UpdatedAt = now
	if review.Helpful.Users == nil {
		review.Helpful.Users = []primitive.ObjectID{}
	}

	cp := *review
	f.reviews[review.ID] = &cp
	f.byPair[key] = review.ID
	return nil
}

func (f *fakeReviewStore) ReviewByID(_ context.Context, id primitive.ObjectID) (*models.Review, error) {
	r, ok := f.reviews[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeReviewStore) ReviewsByProduct(_ context.Context, productID primitive.ObjectID) ([]models.Review, error) {
	var out []models.Review
	for _, r := range f.reviews {
		if r.ProductID == productID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeReviewStore) AllReviews(_ context.Context) ([]models.Review, error) {
	out := make([]models.Review, 0, len(f.reviews))
	for _, r := range f.reviews {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeReviewStore) DeleteReview(_ context.Context, id primitive.ObjectID) error {
	r, ok := f.reviews[id]
	if !ok {
		return models.ErrNotFound
	}
	delete(f.byPair, reviewPairKey(r.UserID, r.ProductID))
	delete(f.reviews, id)
	return nil
}

func (f *fakeReviewStore) ToggleHelpful(_ context.Context, reviewID, userID primitive.ObjectID) (int, error) {
	r, ok := f.reviews[reviewID]
	if !ok {
		return 0, models.ErrNotFound
	}

	for i, voter := range r.Helpful.Users {
		if voter == userID {
			r.Helpful.Users = append(r.Helpful.Users[:i], r.Helpful.Users[i+1:]...)
			r.Helpful.Count = len(r.Helpful.Users)
			return r.Helpful.Count, nil
		}
	}

	r.Helpful.Users = append(r.Helpful.Users, userID)
	r.Helpful.Count = len(r.Helpful.Users)
	return r.Helpful.Count, nil
}

type fakeStatsStore struct {
	customers int64
	orders    int64
	products  int64
	revenue   float64
	monthly   []models.MonthlyRevenue
}

func (f *fakeStatsStore) CountCustomers(_ context.Context) (int64, error) { return f.customers, nil }
func (f *fakeStatsStore) CountOrders(_ context.Context) (int64, error)   { return f.orders, nil }
func (f *fakeStatsStore) CountProducts(_ context.Context) (int64, error) { return f.products, nil }
func (f *fakeStatsStore) PaidRevenue(_ context.Context) (float64, error) { return f.revenue, nil }
func (f *fakeStatsStore) MonthlyRevenue(_ context.Context, limit int) ([]models.MonthlyRevenue, error) {
	if len(f.monthly) > limit {
		return f.monthly[:limit], nil
	}
	return f.monthly, nil
}

type fakeGateway struct {
	orderID      string
	err          error
	lastAmount   int64
	lastCurrency string
}

func (f *fakeGateway) CreateOrder(_ context.Context, amountPaise int64, currency, _ string) (string, error) {
	f.lastAmount = amountPaise
	f.lastCurrency = currency
	if f.err != nil {
		return "", f.err
	}
	return f.orderID, nil
}

func (f *fakeGateway) Key() string { return "rzp_test_key" }

type fakePublisher struct {
	created       []*models.OrderCreatedEvent
	paid          []*models.OrderPaidEvent
	statusChanged []*models.OrderStatusChangedEvent
}

func (f *fakePublisher) PublishOrderCreated(_ context.Context, e *models.OrderCreatedEvent) error {
	f.created = append(f.created, e)
	return nil
}

func (f *fakePublisher) PublishOrderPaid(_ context.Context, e *models.OrderPaidEvent) error {
	f.paid = append(f.paid, e)
	return nil
}

func (f *fakePublisher) PublishOrderStatusChanged(_ context.Context, e *models.OrderStatusChangedEvent) error {
	f.statusChanged = append(f.statusChanged, e)
	return nil
}
