package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/puranjayb/AWS-Potato/internal/common"
	"github.com/puranjayb/AWS-Potato/internal/logging"
	"github.com/puranjayb/AWS-Potato/internal/server/identity"
	"github.com/puranjayb/AWS-Potato/internal/server/models"
	"github.com/puranjayb/AWS-Potato/internal/server/projectclient"
	"github.com/puranjayb/AWS-Potato/internal/server/repositories/repomanager"
)

// SignupResult is returned by Signup. Project is nil when registration
// failed after the account was created.
type SignupResult struct {
	UserName string
	Project  *models.ProjectAssignment
}

// SigninResult carries the provider tokens and, when registration
// succeeded, the user's project.
type SigninResult struct {
	Tokens  *models.AuthTokens
	Project *models.ProjectAssignment
}

// AccountService creates and authenticates users with the identity provider
// and makes sure each one has a project.
type AccountService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	idp         identity.Provider
	registrar   projectclient.Registrar
	logger      logging.Logger
}

func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, idp identity.Provider,
	registrar projectclient.Registrar, logger logging.Logger) *AccountService {
	return &AccountService{
		db:          db,
		repomanager: m,
		idp:         idp,
		registrar:   registrar,
		logger:      logger.With("module", "accounts"),
	}
}

// Signup creates the account, mirrors it into the users table and registers
// a project for it.
func (s *AccountService) Signup(ctx context.Context, username, email, password string) (*SignupResult, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: username, email and password are required", common.ErrorValidation)
	}

	if err := s.idp.CreateUser(ctx, username, email, password); err != nil {
		return nil, err
	}

	created, err := s.repomanager.Users(s.db).CreateIfAbsent(ctx, &models.User{UserName: username, Email: email})
	if err != nil {
		s.logger.Warn(ctx, "user row not written", "username", username, "error", err)
	} else if !created {
		s.logger.Debug(ctx, "user row already present", "username", username)
	}

	profile, err := s.idp.DescribeUser(ctx, username)
	if err != nil {
		return nil, err
	}

	return &SignupResult{
		UserName: username,
		Project:  s.register(ctx, models.Identity{LocalID: username, Email: email, Subject: profile.Subject}),
	}, nil
}

// Signin authenticates the user and refreshes their project binding.
func (s *AccountService) Signin(ctx context.Context, username, password string) (*SigninResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", common.ErrorValidation)
	}

	tokens, err := s.idp.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}

	profile, err := s.idp.DescribeUser(ctx, username)
	if err != nil {
		return nil, err
	}

	return &SigninResult{
		Tokens:  tokens,
		Project: s.register(ctx, models.Identity{LocalID: username, Email: profile.Email, Subject: profile.Subject}),
	}, nil
}

func (s *AccountService) register(ctx context.Context, ident models.Identity) *models.ProjectAssignment {
	a, err := s.registrar.EnsureProject(ctx, ident)
	if err != nil {
		s.logger.Error(ctx, "project registration failed", "user_id", ident.LocalID, "error", err)
		return nil
	}
	return a
}
