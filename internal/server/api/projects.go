package api

import (
	"context"
	"fmt"

	"github.com/puranjayb/AWS-Potato/internal/common"
	"github.com/puranjayb/AWS-Potato/internal/logging"
	"github.com/puranjayb/AWS-Potato/internal/server/models"
)

type Projects interface {
	EnsureProject(ctx context.Context, ident models.Identity) (*models.ProjectAssignment, error)
	ListProjects(ctx context.Context, userID string) ([]*models.ProjectSummary, error)
}

type createProjectBody struct {
	UserID     string `json:"user_id"`
	Email      string `json:"email"`
	CognitoSub string `json:"cognito_sub"`
}

// NewProjectsHandler serves create_project and get_projects.
//
// create_project is also invoked function-to-function during signup and
// signin. Such calls carry no authorizer context, so only then is the
// identity taken from the body. An authenticated caller always registers as
// itself and may not name a different user_id.
func NewProjectsHandler(projects Projects, logger logging.Logger) *Dispatcher {
	d := NewDispatcher("projects", logger)

	d.HandlePublic("create_project", func(ctx context.Context, r *Request) (any, error) {
		var in createProjectBody
		if err := r.Decode(&in); err != nil {
			return nil, err
		}

		if caller, ok := AuthorizerIdentity(r.Event); ok {
			if in.UserID != "" && in.UserID != caller.LocalID {
				return nil, fmt.Errorf("%w: user_id does not match the caller", common.ErrorUnauthorized)
			}
			return projects.EnsureProject(ctx, caller)
		}

		ident := models.Identity{LocalID: in.UserID, Email: in.Email, Subject: in.CognitoSub}
		if ident.LocalID == "" {
			caller, err := ResolveIdentity(r.Event)
			if err != nil {
				return nil, err
			}
			ident.LocalID = caller.LocalID
		}

		return projects.EnsureProject(ctx, ident)
	})

	d.Handle("get_projects", func(ctx context.Context, r *Request) (any, error) {
		items, err := projects.ListProjects(ctx, r.Identity.LocalID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"projects": items}, nil
	})

	return d
}
