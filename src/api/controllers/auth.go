package controllers

import (
	"context"
	"time"

	"github.com/rafa763/cs50-finance/src/schemas"
)

type AuthController interface {
	Register(ctx context.Context, req *schemas.RegisterRequest) (*schemas.UserResponse, error)
	Login(ctx context.Context, req *schemas.LoginRequest) (*schemas.TokenResponse, error)
	Logout(ctx context.Context, tokenID string, expiresAt time.Time) error
}

func (c *Controller) Register(ctx context.Context, req *schemas.RegisterRequest) (*schemas.UserResponse, error) {
	user, err := c.Auth.Register(ctx, req.Username, req.Password, req.Confirmation)
	if err != nil {
		return nil, err
	}
	return &schemas.UserResponse{
		ID:       user.ID,
		Username: user.Username,
		Cash:     user.Cash,
	}, nil
}

func (c *Controller) Login(ctx context.Context, req *schemas.LoginRequest) (*schemas.TokenResponse, error) {
	token, user, err := c.Auth.Login(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}
	return &schemas.TokenResponse{
		Token: token,
		User: schemas.UserResponse{
			ID:       user.ID,
			Username: user.Username,
			Cash:     user.Cash,
		},
	}, nil
}

func (c *Controller) Logout(ctx context.Context, tokenID string, expiresAt time.Time) error {
	return c.Auth.Logout(ctx, tokenID, expiresAt)
}
