package devhttp

import (
	"io"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/puranjayb/AWS-Potato/internal/server/auth"
	"github.com/puranjayb/AWS-Potato/internal/server/models"
)

func (s *Server) proxy(fn Function) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, err := toProxyRequest(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Bad request", "message": err.Error()})
			return
		}

		resp, err := fn.Serve(c.Request.Context(), req)
		if err != nil {
			s.logger.Error(c.Request.Context(), "function failed", "path", req.Path, "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "Internal Server Error", "message": err.Error()})
			return
		}

		for k, v := range resp.Headers {
			c.Header(k, v)
		}
		c.Status(resp.StatusCode)
		_, _ = io.WriteString(c.Writer, resp.Body)
	}
}

func toProxyRequest(c *gin.Context) (events.APIGatewayProxyRequest, error) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return events.APIGatewayProxyRequest{}, err
	}

	headers := make(map[string]string, len(c.Request.Header))
	for k, v := range c.Request.Header {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}

	query := make(map[string]string)
	for k, v := range c.Request.URL.Query() {
		if len(v) > 0 {
			query[k] = v[0]
		}
	}

	req := events.APIGatewayProxyRequest{
		Resource:              c.FullPath(),
		Path:                  c.Request.URL.Path,
		HTTPMethod:            c.Request.Method,
		Headers:               headers,
		MultiValueHeaders:     c.Request.Header,
		QueryStringParameters: query,
		Body:                  string(body),
		RequestContext: events.APIGatewayProxyRequestContext{
			RequestID:  uuid.NewString(),
			Stage:      "dev",
			HTTPMethod: c.Request.Method,
			Path:       c.Request.URL.Path,
		},
	}

	if v, ok := c.Get(claimsKey); ok {
		claims := v.(*auth.Claims)
		req.RequestContext.Authorizer = map[string]any{"claims": claims.AuthorizerClaims()}
	}

	return req, nil
}

type tokenRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email"`
	Sub      string `json:"sub"`
}

type TokenResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresIn int64  `json:"expires_in"`
}

// issueToken mints a token standing in for a user pool ID token.
func (s *Server) issueToken(c *gin.Context) {
	var in tokenRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields", "message": err.Error()})
		return
	}

	ident := models.Identity{LocalID: in.Username, Email: in.Email, Subject: in.Sub}
	token, err := auth.GenerateToken(ident, s.jwtSecret, s.tokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, TokenResponse{Token: token, TokenType: "Bearer", ExpiresIn: int64(s.tokenTTL.Seconds())})
}
