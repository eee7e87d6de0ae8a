package services

import (
	"context"
	"encoding/base64"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/puranjayb/AWS-Potato/internal/common"
	"github.com/puranjayb/AWS-Potato/internal/logging"
	"github.com/puranjayb/AWS-Potato/internal/server/config"
	"github.com/puranjayb/AWS-Potato/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFileSvc(m *fakeManager, store *fakeStore) *FileService {
	cfg := &config.Config{URLExpiry: config.DefaultURLExpiry}
	s := NewFileService(nil, m, store, cfg, logging.Nop())
	s.now = fixedClock(t0)
	return s
}

func TestStorageKey(t *testing.T) {
	east := time.FixedZone("east", 5*3600)
	at := time.Date(2024, 3, 6, 2, 0, 0, 0, east) // 2024-03-05 21:00 UTC

	got := StorageKey("u1", "f-1", "my report/v2.pdf", at)
	assert.Equal(t, "u1/2024/03/05/f-1_my_report_v2.pdf", got)
}

func TestIssueUploadSlot_ReportScenario(t *testing.T) {
	m := newFakeManager()
	store := newFakeStore("https://bucket.test")
	s := newFileSvc(m, store)

	slot, err := s.IssueUploadSlot(context.Background(), UploadRequest{
		UserID:      "u1",
		Filename:    "report.pdf",
		ContentType: "application/pdf",
	})
	require.NoError(t, err)

	keyRE := regexp.MustCompile(`^u1/2024/03/05/[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}_report\.pdf$`)
	assert.Regexp(t, keyRE, slot.S3Key)
	assert.True(t, strings.HasPrefix(slot.S3Key, "u1/2024/03/05/"+slot.FileID+"_"))
	assert.Equal(t, "PUT", slot.Method)
	assert.Equal(t, int64(3600), slot.ExpiresIn)
	assert.Contains(t, slot.UploadURL, slot.S3Key)
	assert.Equal(t, []string{"PUT " + slot.S3Key + " application/pdf"}, store.presign)

	row := m.files.rows[slot.FileID]
	require.NotNil(t, row)
	assert.Equal(t, models.UploadStatusPending, row.UploadStatus)
	assert.Zero(t, row.FileSize)
	assert.Equal(t, "report.pdf", row.OriginalFilename)
	assert.Nil(t, row.ProjectID)
}

func TestIssueUploadSlot_Defaults(t *testing.T) {
	m := newFakeManager()
	s := newFileSvc(m, newFakeStore("https://bucket.test"))

	slot, err := s.IssueUploadSlot(context.Background(), UploadRequest{
		UserID:    "u1",
		UserEmail: "u1@x.io",
		Filename:  "a.bin",
		ProjectID: "p-1",
		Expiry:    30 * 24 * time.Hour,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(config.MaxURLExpiry/time.Second), slot.ExpiresIn)

	row := m.files.rows[slot.FileID]
	assert.Equal(t, "application/octet-stream", row.ContentType)
	require.NotNil(t, row.ProjectID)
	assert.Equal(t, "p-1", *row.ProjectID)
	require.NotNil(t, row.UserEmail)
}

func TestIssueUploadSlot_Validation(t *testing.T) {
	m := newFakeManager()
	s := newFileSvc(m, newFakeStore(""))

	_, err := s.IssueUploadSlot(context.Background(), UploadRequest{Filename: "a.pdf"})
	require.ErrorIs(t, err, common.ErrorMissingIdentity)

	_, err = s.IssueUploadSlot(context.Background(), UploadRequest{UserID: "u1", Filename: "  "})
	require.ErrorIs(t, err, common.ErrorValidation)
	assert.Empty(t, m.files.rows)
}

func TestIssueUploadSlot_PresignFailureWritesNothing(t *testing.T) {
	m := newFakeManager()
	store := newFakeStore("")
	store.presignErr = errors.New("no credentials")
	s := newFileSvc(m, store)

	_, err := s.IssueUploadSlot(context.Background(), UploadRequest{UserID: "u1", Filename: "a.pdf"})
	require.Error(t, err)
	assert.Empty(t, m.files.rows)
}

func TestUploadLifecycle(t *testing.T) {
	m := newFakeManager()
	s := newFileSvc(m, newFakeStore("https://bucket.test"))
	ctx := context.Background()

	slot, err := s.IssueUploadSlot(ctx, UploadRequest{UserID: "u1", Filename: "report.pdf"})
	require.NoError(t, err)

	_, err = s.IssueDownloadSlot(ctx, slot.FileID, "u1", 0)
	require.ErrorIs(t, err, common.ErrorNotReady)

	size := int64(42)
	f, err := s.ConfirmUpload(ctx, slot.FileID, "u1", &size)
	require.NoError(t, err)
	assert.Equal(t, models.UploadStatusUploaded, f.UploadStatus)
	assert.Equal(t, int64(42), f.FileSize)

	dl, err := s.IssueDownloadSlot(ctx, slot.FileID, "u1", 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", dl.Filename)
	assert.Equal(t, int64(600), dl.ExpiresIn)
	assert.Contains(t, dl.DownloadURL, slot.S3Key)
}

func TestConfirmUpload_NotOwned(t *testing.T) {
	m := newFakeManager()
	s := newFileSvc(m, newFakeStore(""))
	ctx := context.Background()

	slot, err := s.IssueUploadSlot(ctx, UploadRequest{UserID: "u1", Filename: "a.pdf"})
	require.NoError(t, err)

	_, err = s.ConfirmUpload(ctx, slot.FileID, "u2", nil)
	require.ErrorIs(t, err, common.ErrorNotFound)
	assert.Equal(t, models.UploadStatusPending, m.files.rows[slot.FileID].UploadStatus)

	neg := int64(-1)
	_, err = s.ConfirmUpload(ctx, slot.FileID, "u1", &neg)
	require.ErrorIs(t, err, common.ErrorValidation)
}

func TestOwnershipIsolation(t *testing.T) {
	m := newFakeManager()
	store := newFakeStore("")
	s := newFileSvc(m, store)
	ctx := context.Background()

	slot, err := s.IssueUploadSlot(ctx, UploadRequest{UserID: "A", Filename: "a.pdf"})
	require.NoError(t, err)

	_, err = s.GetFile(ctx, slot.FileID, "B")
	require.ErrorIs(t, err, common.ErrorNotFound)

	_, err = s.IssueDownloadSlot(ctx, slot.FileID, "B", 0)
	require.ErrorIs(t, err, common.ErrorNotFound)

	err = s.DeleteFile(ctx, slot.FileID, "B")
	require.ErrorIs(t, err, common.ErrorNotFound)
	assert.Empty(t, store.deletes, "object untouched when no row was deleted")

	list, err := s.ListFiles(ctx, "B", "")
	require.NoError(t, err)
	assert.Empty(t, list)

	f, err := s.GetFile(ctx, slot.FileID, "A")
	require.NoError(t, err)
	assert.Equal(t, slot.FileID, f.FileID)
}

func TestDeleteFile(t *testing.T) {
	m := newFakeManager()
	store := newFakeStore("")
	s := newFileSvc(m, store)
	ctx := context.Background()

	slot, err := s.IssueUploadSlot(ctx, UploadRequest{UserID: "u1", Filename: "a.pdf"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteFile(ctx, slot.FileID, "u1"))
	assert.Equal(t, []string{slot.S3Key}, store.deletes)
	assert.Empty(t, m.files.rows)

	err = s.DeleteFile(ctx, slot.FileID, "u1")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestDeleteFile_ObjectErrorIsLogged(t *testing.T) {
	m := newFakeManager()
	store := newFakeStore("")
	store.deleteErr = errors.New("access denied")
	s := newFileSvc(m, store)
	ctx := context.Background()

	slot, err := s.IssueUploadSlot(ctx, UploadRequest{UserID: "u1", Filename: "a.pdf"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteFile(ctx, slot.FileID, "u1"))
	assert.Empty(t, m.files.rows)
}

func TestListFiles_ProjectFilterAndOrder(t *testing.T) {
	m := newFakeManager()
	s := newFileSvc(m, newFakeStore(""))
	ctx := context.Background()

	s.now = fixedClock(t0)
	older, err := s.IssueUploadSlot(ctx, UploadRequest{UserID: "u1", Filename: "old.pdf", ProjectID: "p-1"})
	require.NoError(t, err)
	s.now = fixedClock(t0.Add(time.Minute))
	newer, err := s.IssueUploadSlot(ctx, UploadRequest{UserID: "u1", Filename: "new.pdf", ProjectID: "p-1"})
	require.NoError(t, err)
	_, err = s.IssueUploadSlot(ctx, UploadRequest{UserID: "u1", Filename: "other.pdf", ProjectID: "p-2"})
	require.NoError(t, err)

	all, err := s.ListFiles(ctx, "u1", "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	p1, err := s.ListFiles(ctx, "u1", "p-1")
	require.NoError(t, err)
	require.Len(t, p1, 2)
	assert.Equal(t, newer.FileID, p1[0].FileID)
	assert.Equal(t, older.FileID, p1[1].FileID)
}

func TestUploadInline(t *testing.T) {
	m := newFakeManager()
	store := newFakeStore("")
	s := newFileSvc(m, store)

	content := "data:application/pdf;base64," + base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 hello"))
	f, err := s.UploadInline(context.Background(), InlineUpload{
		UserID:      "u1",
		Filename:    "hello world.pdf",
		Content:     content,
		ContentType: "application/pdf",
	})
	require.NoError(t, err)

	assert.Equal(t, models.UploadStatusUploaded, f.UploadStatus)
	assert.Equal(t, int64(len("%PDF-1.4 hello")), f.FileSize)
	assert.True(t, strings.HasSuffix(f.StorageKey, "_hello_world.pdf"))
	assert.Equal(t, []byte("%PDF-1.4 hello"), store.puts[f.StorageKey])
	assert.Contains(t, m.files.rows, f.FileID)
}

func TestUploadInline_Rejections(t *testing.T) {
	tooBig := base64.StdEncoding.EncodeToString(make([]byte, config.MaxInlineUploadBytes+1))
	exact := base64.StdEncoding.EncodeToString(make([]byte, config.MaxInlineUploadBytes))

	tests := []struct {
		name    string
		in      InlineUpload
		wantErr error
	}{
		{"no identity", InlineUpload{Filename: "a", Content: "aGk="}, common.ErrorMissingIdentity},
		{"no filename", InlineUpload{UserID: "u1", Content: "aGk="}, common.ErrorValidation},
		{"no content", InlineUpload{UserID: "u1", Filename: "a"}, common.ErrorValidation},
		{"bad base64", InlineUpload{UserID: "u1", Filename: "a", Content: "not base64!"}, common.ErrorValidation},
		{"too large", InlineUpload{UserID: "u1", Filename: "a", Content: tooBig}, common.ErrorPayloadTooLarge},
		{"at limit", InlineUpload{UserID: "u1", Filename: "a", Content: exact}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newFakeManager()
			store := newFakeStore("")
			s := newFileSvc(m, store)

			_, err := s.UploadInline(context.Background(), tt.in)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, store.puts)
			assert.Empty(t, m.files.rows)
		})
	}
}

func TestUploadInline_RowFailureRemovesObject(t *testing.T) {
	m := newFakeManager()
	m.files.createErr = errors.New("db down")
	store := newFakeStore("")
	s := newFileSvc(m, store)

	_, err := s.UploadInline(context.Background(), InlineUpload{UserID: "u1", Filename: "a.txt", Content: "aGk="})
	require.Error(t, err)
	require.Len(t, store.deletes, 1)
	assert.Contains(t, store.puts, store.deletes[0])
}
