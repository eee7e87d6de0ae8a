package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/puranjayb/AWS-Potato/internal/common"
	"github.com/puranjayb/AWS-Potato/internal/logging"
	"github.com/puranjayb/AWS-Potato/internal/netx"
	"github.com/puranjayb/AWS-Potato/internal/server/ai"
	"github.com/puranjayb/AWS-Potato/internal/server/config"
	"github.com/puranjayb/AWS-Potato/internal/server/models"
	"github.com/puranjayb/AWS-Potato/internal/server/repositories/repomanager"
	"github.com/puranjayb/AWS-Potato/internal/server/storage"
)

// SummaryPreviewLimit is how many characters of a summary StartProcessing
// returns. The full text is stored.
const SummaryPreviewLimit = 500

// ProcessingError is returned by StartProcessing when the document could not
// be read or summarized. The session has been saved as failed.
type ProcessingError struct {
	ProcessingID string
	Err          error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("processing %s failed: %v", e.ProcessingID, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// ProcessResult is the outcome of a successful StartProcessing.
type ProcessResult struct {
	ProcessingID string
	Summary      string
	Status       string
	PageCount    *int
}

// Answer is one answered question.
type Answer struct {
	ProcessingID string    `json:"processing_id"`
	Question     string    `json:"question"`
	Answer       string    `json:"answer"`
	Timestamp    time.Time `json:"timestamp"`
}

// PDFService summarizes documents with the generative model and answers
// follow-up questions about them.
type PDFService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       storage.ObjectStore
	gen         ai.Generator
	client      *http.Client
	logger      logging.Logger

	maxBytes int64
	expiry   time.Duration
	origins  []sourceOrigin

	now   func() time.Time
	newID func() string
}

func NewPDFService(db *sql.DB, m repomanager.RepositoryManager, store storage.ObjectStore, gen ai.Generator,
	cfg *config.Config, logger logging.Logger) *PDFService {
	return &PDFService{
		db:          db,
		repomanager: m,
		store:       store,
		gen:         gen,
		client:      &http.Client{Timeout: 2 * time.Minute},
		logger:      logger.With("module", "pdf"),
		maxBytes:    cfg.MaxPDFBytes,
		expiry:      cfg.URLExpiry,
		origins:     bucketOrigins(cfg),
		now:         func() time.Time { return time.Now().UTC() },
		newID:       func() string { return uuid.NewString() },
	}
}

// StartProcessing reads the document named by source and stores its summary
// under a new processing id. source may be an http(s) URL, a storage key
// owned by userID, or empty to use the stored key of fileID. The model is
// called once; a failure is recorded and returned as *ProcessingError.
func (s *PDFService) StartProcessing(ctx context.Context, fileID, source, userID string) (*ProcessResult, error) {
	if userID == "" {
		return nil, common.ErrorMissingIdentity
	}
	if strings.TrimSpace(fileID) == "" {
		return nil, fmt.Errorf("%w: file_id is required", common.ErrorValidation)
	}

	url, key, err := s.resolveSource(ctx, fileID, strings.TrimSpace(source), userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	sess := &models.PDFSession{
		ProcessingID: s.newID(),
		FileID:       fileID,
		UserID:       userID,
		SourceURL:    url,
		SourceKey:    key,
		Status:       models.PDFStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	log := s.logger.With("processing_id", sess.ProcessingID, "file_id", fileID)

	summary, pages, perr := s.summarize(ctx, log, url)
	sess.PageCount = pages
	sess.UpdatedAt = s.now()
	repo := s.repomanager.PDFSessions(s.db)

	if perr != nil {
		sess.Status = models.PDFStatusFailed
		if err := repo.Save(ctx, sess); err != nil {
			log.Error(ctx, "failed to record failed session", "error", err)
		}
		s.markFile(ctx, log, fileID, userID, models.PDFStatusFailed)
		log.Warn(ctx, "processing failed", "error", perr)
		return nil, &ProcessingError{ProcessingID: sess.ProcessingID, Err: perr}
	}

	sess.Status = models.PDFStatusCompleted
	sess.Summary = &summary
	if err := repo.Save(ctx, sess); err != nil {
		return nil, err
	}
	s.markFile(ctx, log, fileID, userID, models.PDFStatusCompleted)

	log.Info(ctx, "document processed", "summary_len", len(summary))
	return &ProcessResult{
		ProcessingID: sess.ProcessingID,
		Summary:      common.Truncate(summary, SummaryPreviewLimit),
		Status:       sess.Status,
		PageCount:    pages,
	}, nil
}

func (s *PDFService) resolveSource(ctx context.Context, fileID, source, userID string) (string, *string, error) {
	var key string
	switch {
	case strings.HasPrefix(source, "http"):
		if !s.fetchable(source) {
			return "", nil, fmt.Errorf("%w: source URL must point at the file bucket", common.ErrorValidation)
		}
		return source, nil, nil
	case source != "":
		if !strings.HasPrefix(source, userID+"/") {
			return "", nil, fmt.Errorf("%w: object %s", common.ErrorNotFound, source)
		}
		key = source
	default:
		f, err := s.repomanager.Files(s.db).GetByID(ctx, fileID, userID)
		if err != nil {
			return "", nil, err
		}
		if f.UploadStatus != models.UploadStatusUploaded {
			return "", nil, fmt.Errorf("%w: file %s is %s", common.ErrorNotReady, fileID, f.UploadStatus)
		}
		key = f.StorageKey
	}

	url, err := s.store.PresignGet(ctx, key, s.expiry)
	if err != nil {
		return "", nil, err
	}
	return url, &key, nil
}

func (s *PDFService) summarize(ctx context.Context, log logging.Logger, url string) (string, *int, error) {
	pdf, err := s.fetch(ctx, url)
	if err != nil {
		return "", nil, err
	}

	pages := pageCount(ctx, log, pdf)

	summary, err := s.gen.Summarize(ctx, pdf)
	if err != nil {
		return "", pages, err
	}
	return summary, pages, nil
}

func (s *PDFService) fetch(ctx context.Context, url string) ([]byte, error) {
	pdf, err := netx.Fetch(ctx, s.client, url, s.maxBytes)
	if errors.Is(err, netx.ErrTooLarge) {
		return nil, fmt.Errorf("%w: document exceeds %d bytes", common.ErrorPayloadTooLarge, s.maxBytes)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch document: %w", err)
	}
	return pdf, nil
}

// pageCount is best-effort; the model still gets documents pdfcpu cannot read.
func pageCount(ctx context.Context, log logging.Logger, pdf []byte) *int {
	if !ai.LooksLikePDF(pdf) {
		log.Warn(ctx, "document does not look like a PDF", "size", len(pdf))
		return nil
	}
	n, err := ai.PageCount(pdf)
	if err != nil {
		log.Debug(ctx, "page count unavailable", "error", err)
		return nil
	}
	return &n
}

func (s *PDFService) markFile(ctx context.Context, log logging.Logger, fileID, userID, status string) {
	err := s.repomanager.Files(s.db).SetProcessingStatus(ctx, fileID, userID, status, s.now())
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		log.Warn(ctx, "file processing status not updated", "error", err)
	}
}

func (s *PDFService) session(ctx context.Context, processingID, userID string) (*models.PDFSession, error) {
	if userID == "" {
		return nil, common.ErrorMissingIdentity
	}
	if strings.TrimSpace(processingID) == "" {
		return nil, fmt.Errorf("%w: processing_id is required", common.ErrorValidation)
	}
	return s.repomanager.PDFSessions(s.db).Get(ctx, processingID, userID)
}

// Ask answers question about a completed session and appends the exchange
// to its history.
func (s *PDFService) Ask(ctx context.Context, processingID, question, userID string) (*Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("%w: question is required", common.ErrorValidation)
	}

	sess, err := s.session(ctx, processingID, userID)
	if err != nil {
		return nil, err
	}
	if sess.Status != models.PDFStatusCompleted {
		return nil, fmt.Errorf("%w: processing status: %s", common.ErrorNotReady, sess.Status)
	}

	url := sess.SourceURL
	if sess.SourceKey != nil {
		if url, err = s.store.PresignGet(ctx, *sess.SourceKey, s.expiry); err != nil {
			return nil, err
		}
	}

	pdf, err := s.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	text, err := s.gen.Answer(ctx, pdf, question)
	if err != nil {
		return nil, fmt.Errorf("answer question: %w", err)
	}

	c := &models.Conversation{
		ProcessingID: processingID,
		Question:     question,
		Answer:       text,
		Timestamp:    s.now(),
	}
	if err := s.repomanager.PDFSessions(s.db).AddConversation(ctx, c); err != nil {
		return nil, err
	}

	return &Answer{ProcessingID: processingID, Question: question, Answer: text, Timestamp: c.Timestamp}, nil
}

// History returns the session's exchanges oldest first.
func (s *PDFService) History(ctx context.Context, processingID, userID string) ([]*models.Conversation, error) {
	if _, err := s.session(ctx, processingID, userID); err != nil {
		return nil, err
	}
	return s.repomanager.PDFSessions(s.db).ListConversations(ctx, processingID)
}

// sourceOrigin is a location StartProcessing may download from.
type sourceOrigin struct {
	scheme     string
	host       string
	pathPrefix string
}

// bucketOrigins lists where presigned URLs for the configured bucket point:
// the custom endpoint when one is set, otherwise the virtual-hosted and
// path-style S3 hosts.
func bucketOrigins(cfg *config.Config) []sourceOrigin {
	var origins []sourceOrigin
	if cfg.S3BaseEndpoint != "" {
		if u, err := url.Parse(cfg.S3BaseEndpoint); err == nil && u.Host != "" {
			origins = append(origins, sourceOrigin{scheme: u.Scheme, host: strings.ToLower(u.Host)})
		}
	}
	if cfg.S3Bucket == "" {
		return origins
	}

	bucket := strings.ToLower(cfg.S3Bucket)
	origins = append(origins,
		sourceOrigin{scheme: "https", host: bucket + ".s3.amazonaws.com"},
		sourceOrigin{scheme: "https", host: "s3.amazonaws.com", pathPrefix: "/" + cfg.S3Bucket + "/"},
	)
	if cfg.S3Region != "" {
		region := strings.ToLower(cfg.S3Region)
		origins = append(origins,
			sourceOrigin{scheme: "https", host: bucket + ".s3." + region + ".amazonaws.com"},
			sourceOrigin{scheme: "https", host: "s3." + region + ".amazonaws.com", pathPrefix: "/" + cfg.S3Bucket + "/"},
		)
	}
	return origins
}

func (s *PDFService) fetchable(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.User != nil {
		return false
	}
	host := strings.ToLower(u.Host)
	for _, o := range s.origins {
		if u.Scheme == o.scheme && host == o.host && strings.HasPrefix(u.Path, o.pathPrefix) {
			return true
		}
	}
	return false
}
