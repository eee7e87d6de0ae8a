// Package models holds the response shapes the CLI reads from the API.
package models

import "time"

type Project struct {
	ProjectID string     `json:"project_id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login"`
}

type ProjectAssignment struct {
	ProjectID string `json:"project_id"`
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
}

type Tokens struct {
	AccessToken  string `json:"AccessToken"`
	IDToken      string `json:"IdToken"`
	RefreshToken string `json:"RefreshToken"`
	TokenType    string `json:"TokenType"`
	ExpiresIn    int32  `json:"ExpiresIn"`
}

type SignupResult struct {
	Message  string             `json:"message"`
	Username string             `json:"username"`
	Project  *ProjectAssignment `json:"project"`
}

type SigninResult struct {
	Message string             `json:"message"`
	Tokens  Tokens             `json:"tokens"`
	Project *ProjectAssignment `json:"project"`
}

type File struct {
	FileID           string    `json:"file_id"`
	OriginalFilename string    `json:"original_filename"`
	S3Key            string    `json:"s3_key"`
	FileSize         int64     `json:"file_size"`
	ContentType      string    `json:"content_type"`
	ProjectID        *string   `json:"project_id"`
	UploadStatus     string    `json:"upload_status"`
	ProcessingStatus string    `json:"processing_status"`
	CreatedAt        time.Time `json:"created_at"`
}

type UploadSlot struct {
	UploadURL string `json:"upload_url"`
	FileID    string `json:"file_id"`
	S3Key     string `json:"s3_key"`
	ExpiresIn int64  `json:"expires_in"`
	Method    string `json:"method"`
}

type DownloadSlot struct {
	DownloadURL string `json:"download_url"`
	FileID      string `json:"file_id"`
	Filename    string `json:"filename"`
	ExpiresIn   int64  `json:"expires_in"`
}

type ProcessResult struct {
	Message      string `json:"message"`
	ProcessingID string `json:"processing_id"`
	Summary      string `json:"summary"`
	Status       string `json:"status"`
	PageCount    *int   `json:"page_count"`
}

type Answer struct {
	ProcessingID string    `json:"processing_id"`
	Question     string    `json:"question"`
	Answer       string    `json:"answer"`
	Timestamp    time.Time `json:"timestamp"`
}

type Conversation struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Timestamp time.Time `json:"timestamp"`
}

type History struct {
	ProcessingID       string         `json:"processing_id"`
	Conversations      []Conversation `json:"conversations"`
	TotalConversations int            `json:"total_conversations"`
}
