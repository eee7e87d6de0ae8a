package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/puranjayb/AWS-Potato/internal/client/models"
	"github.com/puranjayb/AWS-Potato/internal/filex"
	"github.com/puranjayb/AWS-Potato/internal/netx"
)

const (
	pathAuth     = "/auth"
	pathProjects = "/projects"
	pathFiles    = "/file-upload"
	pathPDF      = "/pdf-processor"
)

// APIClient is a session against one API stage. It is not safe for
// concurrent use: Signin replaces the token.
type APIClient struct {
	baseURL string
	http    *http.Client
	token   string
}

func New(baseURL string, timeout time.Duration) *APIClient {
	return &APIClient{baseURL: baseURL, http: &http.Client{Timeout: timeout}}
}

// SetToken replaces the token sent in the Authorization header.
func (c *APIClient) SetToken(token string) { c.token = token }

func (c *APIClient) SignedIn() bool { return c.token != "" }

// call posts payload to path and decodes a 200 response into out.
func (c *APIClient) call(ctx context.Context, path string, payload map[string]any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(data, apiErr); err != nil || apiErr.Code == "" {
			apiErr.Code = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", payload["action"], err)
	}
	return nil
}

func (c *APIClient) authed() error {
	if c.token == "" {
		return ErrNotSignedIn
	}
	return nil
}

func (c *APIClient) Signup(ctx context.Context, username, email, password string) (*models.SignupResult, error) {
	var out models.SignupResult
	err := c.call(ctx, pathAuth, map[string]any{
		"action": "signup", "username": username, "email": email, "password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Signin authenticates and keeps the ID token for later calls; the user
// pool authorizer validates ID tokens.
func (c *APIClient) Signin(ctx context.Context, username, password string) (*models.SigninResult, error) {
	var out models.SigninResult
	err := c.call(ctx, pathAuth, map[string]any{
		"action": "signin", "username": username, "password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	c.token = out.Tokens.IDToken
	return &out, nil
}

func (c *APIClient) Projects(ctx context.Context) ([]models.Project, error) {
	if err := c.authed(); err != nil {
		return nil, err
	}
	var out struct {
		Projects []models.Project `json:"projects"`
	}
	if err := c.call(ctx, pathProjects, map[string]any{"action": "get_projects"}, &out); err != nil {
		return nil, err
	}
	return out.Projects, nil
}

// Upload sends the file at path through a presigned URL and confirms it.
func (c *APIClient) Upload(ctx context.Context, path, projectID string) (*models.File, error) {
	if err := c.authed(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	name := filepath.Base(path)
	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	req := map[string]any{"action": "generate_upload_url", "filename": name, "content_type": contentType}
	if projectID != "" {
		req["project_id"] = projectID
	}
	var slot models.UploadSlot
	if err := c.call(ctx, pathFiles, req, &slot); err != nil {
		return nil, err
	}

	if err := netx.PutPresigned(ctx, c.http, slot.UploadURL, contentType, data); err != nil {
		return nil, err
	}

	var confirmed struct {
		File models.File `json:"file_metadata"`
	}
	err = c.call(ctx, pathFiles, map[string]any{
		"action": "confirm_upload", "file_id": slot.FileID, "file_size": len(data),
	}, &confirmed)
	if err != nil {
		return nil, err
	}
	return &confirmed.File, nil
}

func (c *APIClient) ListFiles(ctx context.Context) ([]models.File, error) {
	if err := c.authed(); err != nil {
		return nil, err
	}
	var out struct {
		Files []models.File `json:"files"`
	}
	if err := c.call(ctx, pathFiles, map[string]any{"action": "list_files"}, &out); err != nil {
		return nil, err
	}
	return out.Files, nil
}

// Download fetches the object behind fileID into dir and returns the path
// written.
func (c *APIClient) Download(ctx context.Context, fileID, dir string) (string, error) {
	if err := c.authed(); err != nil {
		return "", err
	}
	var slot models.DownloadSlot
	if err := c.call(ctx, pathFiles, map[string]any{"action": "generate_download_url", "file_id": fileID}, &slot); err != nil {
		return "", err
	}

	data, err := netx.Fetch(ctx, c.http, slot.DownloadURL, 0)
	if err != nil {
		return "", err
	}
	return filex.SaveAs(dir, slot.Filename, data)
}

func (c *APIClient) Delete(ctx context.Context, fileID string) error {
	if err := c.authed(); err != nil {
		return err
	}
	return c.call(ctx, pathFiles, map[string]any{"action": "delete_file", "file_id": fileID}, nil)
}

// Process summarizes an uploaded file. The server reads it from the bucket.
func (c *APIClient) Process(ctx context.Context, fileID string) (*models.ProcessResult, error) {
	if err := c.authed(); err != nil {
		return nil, err
	}
	var out models.ProcessResult
	if err := c.call(ctx, pathPDF, map[string]any{"action": "process_pdf", "file_id": fileID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) Ask(ctx context.Context, processingID, question string) (*models.Answer, error) {
	if err := c.authed(); err != nil {
		return nil, err
	}
	var out models.Answer
	err := c.call(ctx, pathPDF, map[string]any{
		"action": "ask_question", "processing_id": processingID, "question": question,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) History(ctx context.Context, processingID string) (*models.History, error) {
	if err := c.authed(); err != nil {
		return nil, err
	}
	var out models.History
	if err := c.call(ctx, pathPDF, map[string]any{"action": "get_conversations", "processing_id": processingID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
