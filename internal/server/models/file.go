package models

import "time"

const (
	UploadStatusPending  = "pending"
	UploadStatusUploaded = "uploaded"

	ProcessingStatusPending = "pending"
)

// File is the metadata row for an object in the bucket. The object itself
// lives under StorageKey.
type File struct {
	FileID           string    `json:"file_id"`
	OriginalFilename string    `json:"original_filename"`
	StorageKey       string    `json:"s3_key"`
	FileSize         int64     `json:"file_size"`
	ContentType      string    `json:"content_type"`
	ProjectID        *string   `json:"project_id"`
	UserID           string    `json:"user_id"`
	UserEmail        *string   `json:"user_email"`
	UploadStatus     string    `json:"upload_status"`
	ProcessingStatus string    `json:"processing_status"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// UploadSlot is a presigned PUT handed to the client.
type UploadSlot struct {
	UploadURL string `json:"upload_url"`
	FileID    string `json:"file_id"`
	S3Key     string `json:"s3_key"`
	ExpiresIn int64  `json:"expires_in"`
	Method    string `json:"method"`
}

// DownloadSlot is a presigned GET handed to the client.
type DownloadSlot struct {
	DownloadURL string `json:"download_url"`
	FileID      string `json:"file_id"`
	Filename    string `json:"filename"`
	ExpiresIn   int64  `json:"expires_in"`
}
