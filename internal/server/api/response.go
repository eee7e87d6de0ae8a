package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/puranjayb/AWS-Potato/internal/common"
	"github.com/puranjayb/AWS-Potato/internal/server/models"
	"github.com/puranjayb/AWS-Potato/internal/server/services"
)

var corsHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Headers": "Content-Type,Authorization,X-Amz-Date,X-Api-Key,X-Amz-Security-Token",
	"Access-Control-Allow-Methods": "GET,POST,PUT,DELETE,OPTIONS",
	"Content-Type":                 "application/json",
}

// ErrorBody is the payload of every non-200 response.
type ErrorBody struct {
	Error        string `json:"error"`
	Message      string `json:"message"`
	ProcessingID string `json:"processing_id,omitempty"`
	Status       string `json:"status,omitempty"`
}

func headers() map[string]string {
	h := make(map[string]string, len(corsHeaders))
	for k, v := range corsHeaders {
		h[k] = v
	}
	return h
}

func respond(status int, body any) events.APIGatewayProxyResponse {
	b, err := json.Marshal(body)
	if err != nil {
		status = http.StatusInternalServerError
		b = []byte(`{"error":"Internal Server Error","message":"response encoding failed"}`)
	}
	return events.APIGatewayProxyResponse{StatusCode: status, Headers: headers(), Body: string(b)}
}

// classify maps an error to its status code and body.
func classify(err error) (int, ErrorBody) {
	var perr *services.ProcessingError
	switch {
	case errors.As(err, &perr):
		return http.StatusInternalServerError, ErrorBody{
			Error:        "PDF processing failed",
			Message:      perr.Err.Error(),
			ProcessingID: perr.ProcessingID,
			Status:       models.PDFStatusFailed,
		}
	case errors.Is(err, common.ErrUsernameExists):
		return http.StatusBadRequest, ErrorBody{Error: "Username already exists", Message: "Please choose a different username"}
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized, ErrorBody{Error: "Authentication failed", Message: "Invalid username or password"}
	case errors.Is(err, common.ErrorMissingIdentity), errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, ErrorBody{Error: "Unauthorized", Message: "User not authenticated - no user ID found"}
	case errors.Is(err, common.ErrorUnknownAction):
		return http.StatusBadRequest, ErrorBody{Error: "Invalid action", Message: err.Error()}
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest, ErrorBody{Error: "Missing required fields", Message: err.Error()}
	case errors.Is(err, common.ErrorNotReady):
		return http.StatusBadRequest, ErrorBody{Error: "Not ready", Message: err.Error()}
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, ErrorBody{Error: "Not found", Message: "Resource not found or access denied"}
	case errors.Is(err, common.ErrorPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, ErrorBody{Error: "File too large", Message: err.Error()}
	default:
		return http.StatusInternalServerError, ErrorBody{Error: "Internal Server Error", Message: err.Error()}
	}
}
