package api

import (
	"context"
	"time"

	"github.com/puranjayb/AWS-Potato/internal/logging"
	"github.com/puranjayb/AWS-Potato/internal/server/models"
	"github.com/puranjayb/AWS-Potato/internal/server/services"
)

type Files interface {
	UploadInline(ctx context.Context, in services.InlineUpload) (*models.File, error)
	GetFile(ctx context.Context, fileID, userID string) (*models.File, error)
	ListFiles(ctx context.Context, userID, projectID string) ([]*models.File, error)
	IssueUploadSlot(ctx context.Context, req services.UploadRequest) (*models.UploadSlot, error)
	ConfirmUpload(ctx context.Context, fileID, userID string, size *int64) (*models.File, error)
	IssueDownloadSlot(ctx context.Context, fileID, userID string, expiry time.Duration) (*models.DownloadSlot, error)
	DeleteFile(ctx context.Context, fileID, userID string) error
}

type fileBody struct {
	FileID      string `json:"file_id"`
	Filename    string `json:"filename"`
	FileContent string `json:"file_content"`
	ContentType string `json:"content_type"`
	ProjectID   string `json:"project_id"`
	FileSize    *int64 `json:"file_size"`
	// Expiration is the URL lifetime in seconds.
	Expiration *int64 `json:"expiration"`
}

func (b fileBody) expiry() time.Duration {
	if b.Expiration == nil {
		return 0
	}
	return time.Duration(*b.Expiration) * time.Second
}

type UploadResponse struct {
	Message          string  `json:"message"`
	FileID           string  `json:"file_id"`
	OriginalFilename string  `json:"original_filename"`
	FileSize         int64   `json:"file_size"`
	S3Key            string  `json:"s3_key"`
	UserEmail        *string `json:"user_email"`
}

type UploadSlotResponse struct {
	*models.UploadSlot
	Instructions string `json:"instructions"`
}

type ConfirmResponse struct {
	Message      string       `json:"message"`
	FileMetadata *models.File `json:"file_metadata"`
}

// NewFilesHandler serves the file registry actions. All of them are scoped
// to the resolved caller.
func NewFilesHandler(files Files, logger logging.Logger) *Dispatcher {
	d := NewDispatcher("file-upload", logger)

	handle := func(action string, fn func(ctx context.Context, r *Request, in fileBody) (any, error)) {
		d.Handle(action, func(ctx context.Context, r *Request) (any, error) {
			var in fileBody
			if err := r.Decode(&in); err != nil {
				return nil, err
			}
			return fn(ctx, r, in)
		})
	}

	handle("upload", func(ctx context.Context, r *Request, in fileBody) (any, error) {
		f, err := files.UploadInline(ctx, services.InlineUpload{
			UserID:      r.Identity.LocalID,
			UserEmail:   r.Identity.Email,
			Filename:    in.Filename,
			Content:     in.FileContent,
			ContentType: in.ContentType,
			ProjectID:   in.ProjectID,
		})
		if err != nil {
			return nil, err
		}
		return UploadResponse{
			Message:          "File uploaded successfully",
			FileID:           f.FileID,
			OriginalFilename: f.OriginalFilename,
			FileSize:         f.FileSize,
			S3Key:            f.StorageKey,
			UserEmail:        f.UserEmail,
		}, nil
	})

	handle("get_file", func(ctx context.Context, r *Request, in fileBody) (any, error) {
		return files.GetFile(ctx, in.FileID, r.Identity.LocalID)
	})

	handle("list_files", func(ctx context.Context, r *Request, in fileBody) (any, error) {
		items, err := files.ListFiles(ctx, r.Identity.LocalID, in.ProjectID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"files": items}, nil
	})

	handle("generate_upload_url", func(ctx context.Context, r *Request, in fileBody) (any, error) {
		slot, err := files.IssueUploadSlot(ctx, services.UploadRequest{
			UserID:      r.Identity.LocalID,
			UserEmail:   r.Identity.Email,
			Filename:    in.Filename,
			ContentType: in.ContentType,
			ProjectID:   in.ProjectID,
			Expiry:      in.expiry(),
		})
		if err != nil {
			return nil, err
		}
		return UploadSlotResponse{
			UploadSlot:   slot,
			Instructions: "Upload the file to upload_url using PUT method with Content-Type header",
		}, nil
	})

	handle("confirm_upload", func(ctx context.Context, r *Request, in fileBody) (any, error) {
		f, err := files.ConfirmUpload(ctx, in.FileID, r.Identity.LocalID, in.FileSize)
		if err != nil {
			return nil, err
		}
		return ConfirmResponse{Message: "File upload confirmed successfully", FileMetadata: f}, nil
	})

	handle("generate_download_url", func(ctx context.Context, r *Request, in fileBody) (any, error) {
		return files.IssueDownloadSlot(ctx, in.FileID, r.Identity.LocalID, in.expiry())
	})

	handle("delete_file", func(ctx context.Context, r *Request, in fileBody) (any, error) {
		if err := files.DeleteFile(ctx, in.FileID, r.Identity.LocalID); err != nil {
			return nil, err
		}
		return map[string]string{"message": "File deleted successfully", "file_id": in.FileID}, nil
	})

	return d
}
