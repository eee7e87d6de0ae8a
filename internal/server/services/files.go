package services

import (
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/puranjayb/AWS-Potato/internal/common"
	"github.com/puranjayb/AWS-Potato/internal/logging"
	"github.com/puranjayb/AWS-Potato/internal/server/config"
	"github.com/puranjayb/AWS-Potato/internal/server/models"
	"github.com/puranjayb/AWS-Potato/internal/server/repositories/repomanager"
	"github.com/puranjayb/AWS-Potato/internal/server/storage"
	"github.com/puranjayb/AWS-Potato/internal/timex"
)

const defaultContentType = "application/octet-stream"

var filenameReplacer = strings.NewReplacer(" ", "_", "/", "_", "\\", "_")

// SanitizeFilename keeps a filename to a single key segment.
func SanitizeFilename(name string) string {
	return filenameReplacer.Replace(name)
}

// StorageKey builds {user_id}/{yyyy/mm/dd}/{file_id}_{filename} using the UTC
// date of at. Stored objects depend on this layout.
func StorageKey(userID, fileID, filename string, at time.Time) string {
	return fmt.Sprintf("%s/%s/%s_%s", userID, at.UTC().Format("2006/01/02"), fileID, SanitizeFilename(filename))
}

// UploadRequest describes a file the caller is about to upload.
type UploadRequest struct {
	UserID      string
	UserEmail   string
	Filename    string
	ContentType string
	ProjectID   string
	// Expiry overrides the default URL lifetime when positive.
	Expiry time.Duration
}

// InlineUpload carries a base64 (optionally data: URL) encoded file.
type InlineUpload struct {
	UserID      string
	UserEmail   string
	Filename    string
	Content     string
	ContentType string
	ProjectID   string
}

// FileService keeps file metadata in PostgreSQL and hands out presigned URLs
// for the objects themselves.
type FileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       storage.ObjectStore
	logger      logging.Logger
	expiry      time.Duration

	now   func() time.Time
	newID func() string
}

func NewFileService(db *sql.DB, m repomanager.RepositoryManager, store storage.ObjectStore, cfg *config.Config, logger logging.Logger) *FileService {
	return &FileService{
		db:          db,
		repomanager: m,
		store:       store,
		logger:      logger.With("module", "files"),
		expiry:      cfg.URLExpiry,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       func() string { return uuid.NewString() },
	}
}

func (s *FileService) urlExpiry(requested time.Duration) time.Duration {
	d := s.expiry
	if requested > 0 {
		d = requested
	}
	if d <= 0 {
		d = config.DefaultURLExpiry
	}
	return timex.Clamp(d, time.Second, config.MaxURLExpiry)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (s *FileService) newFile(userID, email, filename, contentType, projectID string) *models.File {
	now := s.now()
	id := s.newID()
	if contentType == "" {
		contentType = defaultContentType
	}
	return &models.File{
		FileID:           id,
		OriginalFilename: filename,
		StorageKey:       StorageKey(userID, id, filename, now),
		ContentType:      contentType,
		ProjectID:        optional(projectID),
		UserID:           userID,
		UserEmail:        optional(email),
		UploadStatus:     models.UploadStatusPending,
		ProcessingStatus: models.ProcessingStatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// IssueUploadSlot records a pending file and returns a presigned PUT for it.
func (s *FileService) IssueUploadSlot(ctx context.Context, req UploadRequest) (*models.UploadSlot, error) {
	if req.UserID == "" {
		return nil, common.ErrorMissingIdentity
	}
	if strings.TrimSpace(req.Filename) == "" {
		return nil, fmt.Errorf("%w: filename is required", common.ErrorValidation)
	}

	f := s.newFile(req.UserID, req.UserEmail, req.Filename, req.ContentType, req.ProjectID)
	expiry := s.urlExpiry(req.Expiry)

	url, err := s.store.PresignPut(ctx, f.StorageKey, f.ContentType, expiry)
	if err != nil {
		return nil, err
	}

	if err := s.repomanager.Files(s.db).Create(ctx, f); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "upload slot issued", "file_id", f.FileID, "user_id", f.UserID)
	return &models.UploadSlot{
		UploadURL: url,
		FileID:    f.FileID,
		S3Key:     f.StorageKey,
		ExpiresIn: int64(expiry / time.Second),
		Method:    "PUT",
	}, nil
}

// ConfirmUpload marks the caller's file as uploaded. size is optional.
func (s *FileService) ConfirmUpload(ctx context.Context, fileID, userID string, size *int64) (*models.File, error) {
	if err := requireFile(fileID, userID); err != nil {
		return nil, err
	}
	if size != nil && *size < 0 {
		return nil, fmt.Errorf("%w: file_size must not be negative", common.ErrorValidation)
	}

	f, err := s.repomanager.Files(s.db).MarkUploaded(ctx, fileID, userID, size, s.now())
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "upload confirmed", "file_id", fileID, "user_id", userID, "size", f.FileSize)
	return f, nil
}

func (s *FileService) GetFile(ctx context.Context, fileID, userID string) (*models.File, error) {
	if err := requireFile(fileID, userID); err != nil {
		return nil, err
	}
	return s.repomanager.Files(s.db).GetByID(ctx, fileID, userID)
}

// ListFiles returns the caller's files newest first, optionally narrowed to
// one project.
func (s *FileService) ListFiles(ctx context.Context, userID, projectID string) ([]*models.File, error) {
	if userID == "" {
		return nil, common.ErrorMissingIdentity
	}
	return s.repomanager.Files(s.db).ListByUser(ctx, userID, projectID)
}

// IssueDownloadSlot returns a presigned GET for an uploaded file.
func (s *FileService) IssueDownloadSlot(ctx context.Context, fileID, userID string, requested time.Duration) (*models.DownloadSlot, error) {
	f, err := s.GetFile(ctx, fileID, userID)
	if err != nil {
		return nil, err
	}
	if f.UploadStatus != models.UploadStatusUploaded {
		return nil, fmt.Errorf("%w: file %s is %s", common.ErrorNotReady, fileID, f.UploadStatus)
	}

	expiry := s.urlExpiry(requested)
	url, err := s.store.PresignGet(ctx, f.StorageKey, expiry)
	if err != nil {
		return nil, err
	}
	return &models.DownloadSlot{
		DownloadURL: url,
		FileID:      f.FileID,
		Filename:    f.OriginalFilename,
		ExpiresIn:   int64(expiry / time.Second),
	}, nil
}

// DeleteFile removes the caller's metadata row and then its object. The
// object is never touched unless a row owned by the caller was deleted.
func (s *FileService) DeleteFile(ctx context.Context, fileID, userID string) error {
	if err := requireFile(fileID, userID); err != nil {
		return err
	}

	key, err := s.repomanager.Files(s.db).Delete(ctx, fileID, userID)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, key); err != nil {
		s.logger.Error(ctx, "object delete failed, metadata already removed",
			"file_id", fileID, "key", key, "error", err)
		return nil
	}
	s.logger.Info(ctx, "file deleted", "file_id", fileID, "user_id", userID)
	return nil
}

func decodeInline(content string) ([]byte, error) {
	if strings.HasPrefix(content, "data:") {
		if i := strings.Index(content, ","); i >= 0 {
			content = content[i+1:]
		}
	}
	content = strings.TrimSpace(content)

	if base64.StdEncoding.DecodedLen(len(content)) > config.MaxInlineUploadBytes+2 {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", common.ErrorPayloadTooLarge, config.MaxInlineUploadBytes)
	}

	data, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		return nil, fmt.Errorf("%w: file_content is not valid base64", common.ErrorValidation)
	}
	if len(data) > config.MaxInlineUploadBytes {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", common.ErrorPayloadTooLarge, config.MaxInlineUploadBytes)
	}
	return data, nil
}

// UploadInline stores a small base64 payload directly and records it as
// uploaded.
func (s *FileService) UploadInline(ctx context.Context, in InlineUpload) (*models.File, error) {
	if in.UserID == "" {
		return nil, common.ErrorMissingIdentity
	}
	if strings.TrimSpace(in.Filename) == "" || in.Content == "" {
		return nil, fmt.Errorf("%w: file_content and filename are required", common.ErrorValidation)
	}

	data, err := decodeInline(in.Content)
	if err != nil {
		return nil, err
	}

	f := s.newFile(in.UserID, in.UserEmail, in.Filename, in.ContentType, in.ProjectID)
	f.FileSize = int64(len(data))
	f.UploadStatus = models.UploadStatusUploaded

	if err := s.store.Put(ctx, f.StorageKey, f.ContentType, data); err != nil {
		return nil, err
	}

	if err := s.repomanager.Files(s.db).Create(ctx, f); err != nil {
		if derr := s.store.Delete(ctx, f.StorageKey); derr != nil {
			s.logger.Warn(ctx, "orphaned object", "key", f.StorageKey, "error", derr)
		}
		return nil, err
	}

	s.logger.Info(ctx, "file uploaded", "file_id", f.FileID, "user_id", f.UserID, "size", f.FileSize)
	return f, nil
}

func requireFile(fileID, userID string) error {
	if userID == "" {
		return common.ErrorMissingIdentity
	}
	if strings.TrimSpace(fileID) == "" {
		return fmt.Errorf("%w: file_id is required", common.ErrorValidation)
	}
	return nil
}
