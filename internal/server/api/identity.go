package api

import (
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/puranjayb/AWS-Potato/internal/common"
	"github.com/puranjayb/AWS-Potato/internal/server/models"
)

// UserIDHeader is the trusted header consulted when no authorizer ran.
const UserIDHeader = "x-user-id"

// ResolveIdentity finds the caller in a proxy request. Sources are tried in
// a fixed order and the first one naming a user wins:
//
//  1. authorizer claims: cognito:username (or sub), email, sub
//  2. authorizer fields: principalId (or sub), email
//  3. the x-user-id header
//
// It returns common.ErrorMissingIdentity when none of them does.
func ResolveIdentity(req events.APIGatewayProxyRequest) (models.Identity, error) {
	if id, ok := AuthorizerIdentity(req); ok {
		return id, nil
	}

	if id := header(req, UserIDHeader); id != "" {
		return models.Identity{LocalID: id}, nil
	}

	return models.Identity{}, common.ErrorMissingIdentity
}

// AuthorizerIdentity returns the caller named by the gateway authorizer,
// ignoring headers. ok is false when no authorizer source names a user.
func AuthorizerIdentity(req events.APIGatewayProxyRequest) (models.Identity, bool) {
	authorizer := req.RequestContext.Authorizer

	if claims, ok := authorizer["claims"].(map[string]any); ok {
		id := models.Identity{
			LocalID: firstString(claims, "cognito:username", "sub"),
			Email:   firstString(claims, "email"),
			Subject: firstString(claims, "sub"),
		}
		if id.LocalID != "" {
			return id, true
		}
	}

	if id := firstString(authorizer, "principalId", "sub"); id != "" {
		return models.Identity{
			LocalID: id,
			Email:   firstString(authorizer, "email"),
			Subject: firstString(authorizer, "sub"),
		}, true
	}

	return models.Identity{}, false
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

// header looks name up case-insensitively in both header maps.
func header(req events.APIGatewayProxyRequest, name string) string {
	for k, v := range req.Headers {
		if strings.EqualFold(k, name) && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	for k, vs := range req.MultiValueHeaders {
		if strings.EqualFold(k, name) && len(vs) > 0 && strings.TrimSpace(vs[0]) != "" {
			return strings.TrimSpace(vs[0])
		}
	}
	return ""
}
