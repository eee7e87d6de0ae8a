// Package projectclient registers projects from other functions by invoking
// the projects function synchronously.
package projectclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/puranjayb/AWS-Potato/internal/server/models"
)

// Registrar ensures a user has a project. The in-process project service
// satisfies it as well.
type Registrar interface {
	EnsureProject(ctx context.Context, ident models.Identity) (*models.ProjectAssignment, error)
}

type invokeAPI interface {
	Invoke(ctx context.Context, in *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

// CreateProjectRequest is the body the projects function expects for
// create_project.
type CreateProjectRequest struct {
	Action     string  `json:"action"`
	UserID     string  `json:"user_id"`
	Email      string  `json:"email"`
	CognitoSub *string `json:"cognito_sub"`
}

// LambdaRegistrar calls the projects function with a proxy-style event.
type LambdaRegistrar struct {
	api      invokeAPI
	function string
}

func NewLambdaRegistrar(cfg aws.Config, function string) *LambdaRegistrar {
	return &LambdaRegistrar{api: lambda.NewFromConfig(cfg), function: function}
}

func (r *LambdaRegistrar) EnsureProject(ctx context.Context, ident models.Identity) (*models.ProjectAssignment, error) {
	req := CreateProjectRequest{Action: "create_project", UserID: ident.LocalID, Email: ident.Email}
	if ident.Subject != "" {
		req.CognitoSub = &ident.Subject
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(map[string]string{"body": string(body)})
	if err != nil {
		return nil, err
	}

	out, err := r.api.Invoke(ctx, &lambda.InvokeInput{
		FunctionName:   aws.String(r.function),
		InvocationType: types.InvocationTypeRequestResponse,
		Payload:        payload,
	})
	if err != nil {
		return nil, fmt.Errorf("invoke %s: %w", r.function, err)
	}
	if out.FunctionError != nil {
		return nil, fmt.Errorf("invoke %s: %s: %s", r.function, aws.ToString(out.FunctionError), out.Payload)
	}

	var resp events.APIGatewayProxyResponse
	if err := json.Unmarshal(out.Payload, &resp); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", r.function, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned %d: %s", r.function, resp.StatusCode, resp.Body)
	}

	var assignment models.ProjectAssignment
	if err := json.Unmarshal([]byte(resp.Body), &assignment); err != nil {
		return nil, fmt.Errorf("decode project: %w", err)
	}
	if assignment.ProjectID == "" {
		return nil, fmt.Errorf("%s returned no project id", r.function)
	}
	return &assignment, nil
}
