package api

import (
	"context"

	"github.com/puranjayb/AWS-Potato/internal/logging"
	"github.com/puranjayb/AWS-Potato/internal/server/models"
	"github.com/puranjayb/AWS-Potato/internal/server/services"
)

type Accounts interface {
	Signup(ctx context.Context, username, email, password string) (*services.SignupResult, error)
	Signin(ctx context.Context, username, password string) (*services.SigninResult, error)
}

type credentials struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupResponse struct {
	Message  string                    `json:"message"`
	Username string                    `json:"username"`
	Project  *models.ProjectAssignment `json:"project,omitempty"`
}

type SigninResponse struct {
	Message string                    `json:"message"`
	Tokens  *models.AuthTokens        `json:"tokens"`
	Project *models.ProjectAssignment `json:"project,omitempty"`
}

// NewAuthHandler serves signup and signin. Both are public.
func NewAuthHandler(accounts Accounts, logger logging.Logger) *Dispatcher {
	d := NewDispatcher("auth", logger)

	d.HandlePublic("signup", func(ctx context.Context, r *Request) (any, error) {
		var in credentials
		if err := r.Decode(&in); err != nil {
			return nil, err
		}
		res, err := accounts.Signup(ctx, in.Username, in.Email, in.Password)
		if err != nil {
			return nil, err
		}
		return SignupResponse{Message: "User created successfully", Username: res.UserName, Project: res.Project}, nil
	})

	d.HandlePublic("signin", func(ctx context.Context, r *Request) (any, error) {
		var in credentials
		if err := r.Decode(&in); err != nil {
			return nil, err
		}
		res, err := accounts.Signin(ctx, in.Username, in.Password)
		if err != nil {
			return nil, err
		}
		return SigninResponse{Message: "Authentication successful", Tokens: res.Tokens, Project: res.Project}, nil
	})

	return d
}
