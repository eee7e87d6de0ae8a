package models

import "time"

const (
	PDFStatusPending   = "pending"
	PDFStatusCompleted = "completed"
	PDFStatusFailed    = "failed"
)

// PDFSession records one summarization run over a document. Questions are
// only accepted once Status is completed.
type PDFSession struct {
	ProcessingID string
	FileID       string
	UserID       string
	SourceURL    string
	// SourceKey is set when the document came from our bucket, so a fresh
	// URL can be minted for later questions.
	SourceKey *string
	Summary   *string
	PageCount *int
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Conversation is one question/answer exchange within a session.
type Conversation struct {
	ID           int64     `json:"-"`
	ProcessingID string    `json:"-"`
	Question     string    `json:"question"`
	Answer       string    `json:"answer"`
	Timestamp    time.Time `json:"timestamp"`
}
