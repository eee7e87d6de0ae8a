// Package identity talks to the Cognito user pool with the admin APIs.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/puranjayb/AWS-Potato/internal/common"
	"github.com/puranjayb/AWS-Potato/internal/server/models"
)

// Provider is the identity provider surface used by the account service.
type Provider interface {
	// CreateUser registers username with a permanent password and a
	// verified email, without sending an invitation.
	CreateUser(ctx context.Context, username, email, password string) error
	Authenticate(ctx context.Context, username, password string) (*models.AuthTokens, error)
	DescribeUser(ctx context.Context, username string) (*models.AccountProfile, error)
}

type cognitoAPI interface {
	AdminCreateUser(ctx context.Context, in *cip.AdminCreateUserInput, optFns ...func(*cip.Options)) (*cip.AdminCreateUserOutput, error)
	AdminSetUserPassword(ctx context.Context, in *cip.AdminSetUserPasswordInput, optFns ...func(*cip.Options)) (*cip.AdminSetUserPasswordOutput, error)
	AdminInitiateAuth(ctx context.Context, in *cip.AdminInitiateAuthInput, optFns ...func(*cip.Options)) (*cip.AdminInitiateAuthOutput, error)
	AdminGetUser(ctx context.Context, in *cip.AdminGetUserInput, optFns ...func(*cip.Options)) (*cip.AdminGetUserOutput, error)
}

// CognitoProvider implements Provider for one user pool and app client.
type CognitoProvider struct {
	api        cognitoAPI
	userPoolID string
	clientID   string
}

func NewCognitoProvider(cfg aws.Config, userPoolID, clientID string) (*CognitoProvider, error) {
	if userPoolID == "" || clientID == "" {
		return nil, fmt.Errorf("identity: user pool and client id are required")
	}
	return &CognitoProvider{
		api:        cip.NewFromConfig(cfg),
		userPoolID: userPoolID,
		clientID:   clientID,
	}, nil
}

func (p *CognitoProvider) CreateUser(ctx context.Context, username, email, password string) error {
	_, err := p.api.AdminCreateUser(ctx, &cip.AdminCreateUserInput{
		UserPoolId: aws.String(p.userPoolID),
		Username:   aws.String(username),
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String(email)},
			{Name: aws.String("email_verified"), Value: aws.String("true")},
		},
		MessageAction: types.MessageActionTypeSuppress,
	})
	if err != nil {
		return fmt.Errorf("create user: %w", classify(err))
	}

	_, err = p.api.AdminSetUserPassword(ctx, &cip.AdminSetUserPasswordInput{
		UserPoolId: aws.String(p.userPoolID),
		Username:   aws.String(username),
		Password:   aws.String(password),
		Permanent:  true,
	})
	if err != nil {
		return fmt.Errorf("set password: %w", classify(err))
	}
	return nil
}

func (p *CognitoProvider) Authenticate(ctx context.Context, username, password string) (*models.AuthTokens, error) {
	out, err := p.api.AdminInitiateAuth(ctx, &cip.AdminInitiateAuthInput{
		UserPoolId: aws.String(p.userPoolID),
		ClientId:   aws.String(p.clientID),
		AuthFlow:   types.AuthFlowTypeAdminNoSrpAuth,
		AuthParameters: map[string]string{
			"USERNAME": username,
			"PASSWORD": password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("initiate auth: %w", classify(err))
	}

	res := out.AuthenticationResult
	if res == nil {
		// a challenge (e.g. NEW_PASSWORD_REQUIRED) instead of tokens
		return nil, fmt.Errorf("initiate auth: challenge %s: %w", out.ChallengeName, common.ErrInvalidCredentials)
	}

	return &models.AuthTokens{
		AccessToken:  aws.ToString(res.AccessToken),
		IDToken:      aws.ToString(res.IdToken),
		RefreshToken: aws.ToString(res.RefreshToken),
		TokenType:    aws.ToString(res.TokenType),
		ExpiresIn:    res.ExpiresIn,
	}, nil
}

func (p *CognitoProvider) DescribeUser(ctx context.Context, username string) (*models.AccountProfile, error) {
	out, err := p.api.AdminGetUser(ctx, &cip.AdminGetUserInput{
		UserPoolId: aws.String(p.userPoolID),
		Username:   aws.String(username),
	})
	if err != nil {
		return nil, fmt.Errorf("get user: %w", classify(err))
	}

	profile := &models.AccountProfile{UserName: aws.ToString(out.Username)}
	for _, attr := range out.UserAttributes {
		switch aws.ToString(attr.Name) {
		case "email":
			profile.Email = aws.ToString(attr.Value)
		case "sub":
			profile.Subject = aws.ToString(attr.Value)
		}
	}
	if profile.UserName == "" {
		profile.UserName = username
	}
	return profile, nil
}

// classify maps Cognito exceptions onto the shared sentinels and keeps the
// original error in the chain.
func classify(err error) error {
	var (
		exists    *types.UsernameExistsException
		notAuth   *types.NotAuthorizedException
		notFound  *types.UserNotFoundException
		badPass   *types.InvalidPasswordException
		badParam  *types.InvalidParameterException
		throttled *types.TooManyRequestsException
	)
	switch {
	case errors.As(err, &exists):
		return errors.Join(common.ErrUsernameExists, err)
	case errors.As(err, &notAuth), errors.As(err, &notFound):
		return errors.Join(common.ErrInvalidCredentials, err)
	case errors.As(err, &badPass), errors.As(err, &badParam):
		return errors.Join(common.ErrorValidation, err)
	case errors.As(err, &throttled):
		return errors.Join(common.ErrorUnavailable, err)
	default:
		return err
	}
}
