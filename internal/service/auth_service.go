package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coffeehouse-api/internal/models"
	"coffeehouse-api/internal/util"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserStore is the persistence surface the auth service depends on
type UserStore interface {
	InsertUser(ctx context.Context, user *models.User) error
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	AllUsers(ctx context.Context) ([]models.User, error)
	DeleteUser(ctx context.Context, id primitive.ObjectID) error
}

// SessionStore keeps the allowlist of live sessions
type SessionStore interface {
	PutSession(ctx context.Context, tokenID, userID string, ttl time.Duration) error
	SessionExists(ctx context.Context, tokenID string) (bool, error)
	DeleteSession(ctx context.Context, tokenID string) error
}

// AuthService handles registration, login, session validation, and the
// back-office user management operations
type AuthService struct {
	users    UserStore
	sessions SessionStore
	tokens   *TokenManager
	logger   *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(users UserStore, sessions SessionStore, tokens *TokenManager) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		logger:   util.GetLogger(),
	}
}

// RegisterRequest represents a registration payload
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// LoginRequest represents a login payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// CreateUserRequest is the back-office user creation payload
type CreateUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	IsAdmin  bool   `json:"isAdmin"`
}

// Register creates a new customer account and opens a session
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*models.User, string, error) {
	ctx, span := util.StartSpan(ctx, "AuthService.Register")
	defer span.End()

	user, err := s.createUser(ctx, req.Name, req.Email, req.Password, false)
	if err != nil {
		return nil, "", err
	}

	token, err := s.openSession(ctx, user, false)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("User registered", zap.String("email", user.Email))
	return user, token, nil
}

// Login authenticates a customer and opens a session
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*models.User, string, error) {
	ctx, span := util.StartSpan(ctx, "AuthService.Login")
	defer span.End()

	user, err := s.checkCredentials(ctx, req.Email, req.Password)
	if err != nil {
		util.LoginsTotal.WithLabelValues("failure").Inc()
		return nil, "", err
	}

	token, err := s.openSession(ctx, user, false)
	if err != nil {
		return nil, "", err
	}

	util.LoginsTotal.WithLabelValues("success").Inc()
	return user, token, nil
}

// AdminLogin authenticates an admin and opens an admin session.
// Valid credentials on a non-admin account are rejected.
func (s *AuthService) AdminLogin(ctx context.Context, req *LoginRequest) (*models.User, string, error) {
	ctx, span := util.StartSpan(ctx, "AuthService.AdminLogin")
	defer span.End()

	user, err := s.checkCredentials(ctx, req.Email, req.Password)
	if err != nil {
		util.LoginsTotal.WithLabelValues("failure").Inc()
		return nil, "", err
	}
	if !user.IsAdmin {
		util.LoginsTotal.WithLabelValues("failure").Inc()
		return nil, "", models.ErrForbidden
	}

	token, err := s.openSession(ctx, user, true)
	if err != nil {
		return nil, "", err
	}

	util.LoginsTotal.WithLabelValues("success").Inc()
	return user, token, nil
}

// Logout revokes the session behind a token id
func (s *AuthService) Logout(ctx context.Context, tokenID string) error {
	return s.sessions.DeleteSession(ctx, tokenID)
}

// Authenticate validates a raw token string and checks that its session is
// still live. Used by the auth middleware on every authenticated request.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*Claims, error) {
	claims, err := s.tokens.Parse(tokenString)
	if err != nil {
		return nil, err
	}

	live, err := s.sessions.SessionExists(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check session: %w", err)
	}
	if !live {
		return nil, models.ErrInvalidCredentials
	}
	return claims, nil
}

// CurrentUser resolves the account behind an authenticated user id
func (s *AuthService) CurrentUser(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	return s.users.UserByID(ctx, userID)
}

// ListUsers returns all accounts for the back office
func (s *AuthService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.users.AllUsers(ctx)
}

// CreateUser creates an account from the back office, optionally an admin
func (s *AuthService) CreateUser(ctx context.Context, req *CreateUserRequest) (*models.User, error) {
	return s.createUser(ctx, req.Name, req.Email, req.Password, req.IsAdmin)
}

// DeleteUser removes an account from the back office
func (s *AuthService) DeleteUser(ctx context.Context, userID string) error {
	id, err := parseObjectID(userID)
	if err != nil {
		return err
	}
	return s.users.DeleteUser(ctx, id)
}

func (s *AuthService) createUser(ctx context.Context, name, email, password string, isAdmin bool) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		IsAdmin:      isAdmin,
	}

	if err := s.users.InsertUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) checkCredentials(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.UserByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}
	return user, nil
}

func (s *AuthService) openSession(ctx context.Context, user *models.User, isAdmin bool) (string, error) {
	token, tokenID, err := s.tokens.Issue(user.ID.Hex(), isAdmin)
	if err != nil {
		return "", err
	}

	if err := s.sessions.PutSession(ctx, tokenID, user.ID.Hex(), s.tokens.TTL()); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}
	return token, nil
}
