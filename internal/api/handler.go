package api

import (
	"errors"
	"net/http"
	"time"

	"coffeehouse-api/internal/models"
	"coffeehouse-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Handler contains HTTP handlers
type Handler struct {
	auth          *service.AuthService
	products      *service.ProductService
	orders        *service.OrderService
	reviews       *service.ReviewService
	stats         *service.StatsService
	cookieMaxAge  int
	secureCookies bool
}

// NewHandler creates a new HTTP handler
func NewHandler(
	auth *service.AuthService,
	products *service.ProductService,
	orders *service.OrderService,
	reviews *service.ReviewService,
	stats *service.StatsService,
	cookieTTL time.Duration,
	secureCookies bool,
) *Handler {
	return &Handler{
		auth:          auth,
		products:      products,
		orders:        orders,
		reviews:       reviews,
		stats:         stats,
		cookieMaxAge:  int(cookieTTL.Seconds()),
		secureCookies: secureCookies,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", h.register)
		auth.POST("/login", h.login)
		auth.POST("/admin/login", h.adminLogin)

		authed := auth.Group("", h.authRequired())
		{
			authed.GET("/me", h.currentUser)
			authed.POST("/logout", h.logout)
			authed.GET("/admin/me", h.adminRequired(), h.currentUser)
			authed.POST("/admin/logout", h.adminRequired(), h.adminLogout)
		}
	}

	products := api.Group("/products")
	{
		products.GET("", h.listProducts)
		products.GET("/:id", h.getProduct)
	}

	orders := api.Group("/orders", h.authRequired())
	{
		orders.POST("/create", h.createOrder)
		orders.POST("/verify", h.verifyPayment)
		orders.GET("/my-orders", h.myOrders)
	}

	reviews := api.Group("/reviews")
	{
		reviews.GET("/product/:id", h.listProductReviews)
		reviews.POST("/:id", h.authRequired(), h.createReview)
		reviews.POST("/:id/helpful", h.authRequired(), h.toggleHelpful)
		reviews.DELETE("/:id", h.authRequired(), h.deleteReview)
	}

	admin := api.Group("/admin", h.authRequired(), h.adminRequired())
	{
		admin.GET("/stats", h.dashboardStats)

		admin.GET("/users", h.listUsers)
		admin.POST("/users", h.createUser)
		admin.DELETE("/users/:id", h.deleteUser)

		admin.GET("/products", h.adminListProducts)
		admin.POST("/products", h.createProduct)
		admin.PUT("/products/:id", h.updateProduct)
		admin.DELETE("/products/:id", h.deleteProduct)

		admin.GET("/orders", h.listAllOrders)
		admin.PUT("/orders/:id/status", h.updateOrderStatus)

		admin.GET("/reviews", h.listAllReviews)
		admin.DELETE("/reviews/:id", h.adminDeleteReview)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// --- auth ---

func (h *Handler) register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	user, token, err := h.auth.Register(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.setSessionCookie(c, userCookie, token)
	c.JSON(http.StatusCreated, userResponse(user, false))
}

func (h *Handler) login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	user, token, err := h.auth.Login(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.setSessionCookie(c, userCookie, token)
	c.JSON(http.StatusOK, userResponse(user, false))
}

func (h *Handler) adminLogin(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	user, token, err := h.auth.AdminLogin(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.setSessionCookie(c, adminCookie, token)
	c.JSON(http.StatusOK, userResponse(user, true))
}

func (h *Handler) currentUser(c *gin.Context) {
	userID := c.MustGet(ctxUserID).(primitive.ObjectID)

	user, err := h.auth.CurrentUser(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, userResponse(user, user.IsAdmin))
}

func (h *Handler) logout(c *gin.Context) {
	h.endSession(c, userCookie)
}

func (h *Handler) adminLogout(c *gin.Context) {
	h.endSession(c, adminCookie)
}

func (h *Handler) endSession(c *gin.Context, cookieName string) {
	tokenID := c.GetString(ctxTokenID)
	if err := h.auth.Logout(c.Request.Context(), tokenID); err != nil {
		h.respondError(c, err)
		return
	}

	h.clearSessionCookie(c, cookieName)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// --- products ---

func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.products.ListProducts(c.Request.Context(), c.Query("category"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) getProduct(c *gin.Context) {
	product, err := h.products.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) adminListProducts(c *gin.Context) {
	products, err := h.products.ListProducts(c.Request.Context(), "")
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) createProduct(c *gin.Context) {
	var req service.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	product, err := h.products.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *Handler) updateProduct(c *gin.Context) {
	var req service.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	product, err := h.products.UpdateProduct(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) deleteProduct(c *gin.Context) {
	if err := h.products.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

// --- orders ---

func (h *Handler) createOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	userID := c.MustGet(ctxUserID).(primitive.ObjectID)
	resp, err := h.orders.CreateOrder(c.Request.Context(), userID, &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) verifyPayment(c *gin.Context) {
	var req service.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.orders.VerifyPayment(c.Request.Context(), &req); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) myOrders(c *gin.Context) {
	userID := c.MustGet(ctxUserID).(primitive.ObjectID)

	orders, err := h.orders.ListOrdersForUser(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) listAllOrders(c *gin.Context) {
	orders, err := h.orders.ListAllOrders(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) updateOrderStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	order, err := h.orders.UpdateOrderStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// --- reviews ---

func (h *Handler) createReview(c *gin.Context) {
	var req service.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	userID := c.MustGet(ctxUserID).(primitive.ObjectID)
	review, err := h.reviews.CreateReview(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}

func (h *Handler) listProductReviews(c *gin.Context) {
	reviews, err := h.reviews.ListReviewsForProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reviews)
}

func (h *Handler) toggleHelpful(c *gin.Context) {
	userID := c.MustGet(ctxUserID).(primitive.ObjectID)

	count, err := h.reviews.ToggleHelpful(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"helpful": count})
}

func (h *Handler) deleteReview(c *gin.Context) {
	userID := c.MustGet(ctxUserID).(primitive.ObjectID)
	isAdmin := c.GetBool(ctxIsAdmin)

	if err := h.reviews.DeleteReview(c.Request.Context(), c.Param("id"), userID, isAdmin); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Review deleted successfully"})
}

func (h *Handler) listAllReviews(c *gin.Context) {
	reviews, err := h.reviews.ListAllReviews(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reviews)
}

func (h *Handler) adminDeleteReview(c *gin.Context) {
	userID := c.MustGet(ctxUserID).(primitive.ObjectID)

	if err := h.reviews.DeleteReview(c.Request.Context(), c.Param("id"), userID, true); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Review deleted successfully"})
}

// --- admin users & stats ---

func (h *Handler) dashboardStats(c *gin.Context) {
	stats, err := h.stats.DashboardStats(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.auth.ListUsers(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) createUser(c *gin.Context) {
	var req service.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	user, err := h.auth.CreateUser(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *Handler) deleteUser(c *gin.Context) {
	if err := h.auth.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// --- helpers ---

func (h *Handler) setSessionCookie(c *gin.Context, name, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, token, h.cookieMaxAge, "/", "", h.secureCookies, true)
}

func (h *Handler) clearSessionCookie(c *gin.Context, name string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, "", -1, "/", "", h.secureCookies, true)
}

func userResponse(user *models.User, asAdmin bool) gin.H {
	role := "user"
	if asAdmin {
		role = "admin"
	}
	return gin.H{
		"id":    user.ID.Hex(),
		"name":  user.Name,
		"email": user.Email,
		"role":  role,
	}
}

// respondError maps domain errors to HTTP status codes. Anything unrecognized
// becomes a generic 500 with no internal detail leaked.
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	case errors.Is(err, models.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized access"})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, models.ErrEmailTaken):
		c.JSON(http.StatusBadRequest, gin.H{"error": "User already exists"})
	case errors.Is(err, models.ErrDuplicateReview):
		c.JSON(http.StatusBadRequest, gin.H{"error": "You have already reviewed this product"})
	case errors.Is(err, models.ErrInvalidSignature):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
	}
}
