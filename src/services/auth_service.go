package services

import (
	"context"
	"errors"
	"time"

	"github.com/go-chi/jwtauth"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/rafa763/cs50-finance/src/models"
	"github.com/rafa763/cs50-finance/src/repositories"
	"github.com/rafa763/cs50-finance/src/utils"
)

// Every new account starts with this cash balance.
var startingCash = decimal.NewFromInt(10000)

// TokenDenylist records revoked token IDs until their natural expiry.
type TokenDenylist interface {
	Deny(ctx context.Context, tokenID string, ttl time.Duration) error
	IsDenied(ctx context.Context, tokenID string) (bool, error)
}

type AuthServiceI interface {
	Register(ctx context.Context, username, password, confirmation string) (*models.User, error)
	Login(ctx context.Context, username, password string) (string, *models.User, error)
	Logout(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
}

type AuthService struct {
	userRepo  repositories.UserRepository
	tokenAuth *jwtauth.JWTAuth
	denylist  TokenDenylist
	tokenTTL  time.Duration
}

func NewAuthService(userRepo repositories.UserRepository, tokenAuth *jwtauth.JWTAuth, denylist TokenDenylist, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		tokenAuth: tokenAuth,
		denylist:  denylist,
		tokenTTL:  tokenTTL,
	}
}

func (s *AuthService) Register(ctx context.Context, username, password, confirmation string) (*models.User, error) {
	if username == "" {
		return nil, utils.BadRequest("must provide username")
	}
	if password == "" || confirmation == "" {
		return nil, utils.BadRequest("missing password")
	}
	if password != confirmation {
		return nil, utils.BadRequest("passwords don't match")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     username,
		PasswordHash: string(hash),
		Cash:         startingCash,
	}
	err = s.userRepo.Create(ctx, user)
	if errors.Is(err, repositories.ErrDuplicateUsername) {
		return nil, utils.BadRequest("username already exists")
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	if username == "" {
		return "", nil, utils.BadRequest("must provide username")
	}
	if password == "" {
		return "", nil, utils.BadRequest("must provide password")
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if errors.Is(err, repositories.ErrUserNotFound) {
		return "", nil, utils.Unauthorized("invalid username and/or password")
	}
	if err != nil {
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, utils.Unauthorized("invalid username and/or password")
	}

	claims := map[string]interface{}{
		"user_id": user.ID.String(),
		"jti":     uuid.NewString(),
	}
	jwtauth.SetIssuedNow(claims)
	jwtauth.SetExpiryIn(claims, s.tokenTTL)

	_, tokenString, err := s.tokenAuth.Encode(claims)
	if err != nil {
		return "", nil, err
	}
	return tokenString, user, nil
}

// Logout revokes the presented token for the remainder of its lifetime.
func (s *AuthService) Logout(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if s.denylist == nil || tokenID == "" {
		return nil
	}
	return s.denylist.Deny(ctx, tokenID, time.Until(expiresAt))
}

func (s *AuthService) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	if s.denylist == nil || tokenID == "" {
		return false, nil
	}
	return s.denylist.IsDenied(ctx, tokenID)
}
