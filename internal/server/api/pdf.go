package api

import (
	"context"

	"github.com/puranjayb/AWS-Potato/internal/logging"
	"github.com/puranjayb/AWS-Potato/internal/server/models"
	"github.com/puranjayb/AWS-Potato/internal/server/services"
)

type PDFs interface {
	StartProcessing(ctx context.Context, fileID, source, userID string) (*services.ProcessResult, error)
	Ask(ctx context.Context, processingID, question, userID string) (*services.Answer, error)
	History(ctx context.Context, processingID, userID string) ([]*models.Conversation, error)
}

type pdfBody struct {
	FileID       string `json:"file_id"`
	SignedURL    string `json:"signed_url"`
	ProcessingID string `json:"processing_id"`
	Question     string `json:"question"`
}

type ProcessResponse struct {
	Message      string `json:"message"`
	ProcessingID string `json:"processing_id"`
	Summary      string `json:"summary"`
	Status       string `json:"status"`
	PageCount    *int   `json:"page_count,omitempty"`
}

type ConversationsResponse struct {
	ProcessingID       string                 `json:"processing_id"`
	Conversations      []*models.Conversation `json:"conversations"`
	TotalConversations int                    `json:"total_conversations"`
}

// NewPDFHandler serves process_pdf, ask_question and get_conversations.
func NewPDFHandler(pdfs PDFs, logger logging.Logger) *Dispatcher {
	d := NewDispatcher("pdf-processor", logger)

	d.Handle("process_pdf", func(ctx context.Context, r *Request) (any, error) {
		var in pdfBody
		if err := r.Decode(&in); err != nil {
			return nil, err
		}
		res, err := pdfs.StartProcessing(ctx, in.FileID, in.SignedURL, r.Identity.LocalID)
		if err != nil {
			return nil, err
		}
		return ProcessResponse{
			Message:      "PDF processed successfully",
			ProcessingID: res.ProcessingID,
			Summary:      res.Summary,
			Status:       res.Status,
			PageCount:    res.PageCount,
		}, nil
	})

	d.Handle("ask_question", func(ctx context.Context, r *Request) (any, error) {
		var in pdfBody
		if err := r.Decode(&in); err != nil {
			return nil, err
		}
		return pdfs.Ask(ctx, in.ProcessingID, in.Question, r.Identity.LocalID)
	})

	d.Handle("get_conversations", func(ctx context.Context, r *Request) (any, error) {
		var in pdfBody
		if err := r.Decode(&in); err != nil {
			return nil, err
		}
		items, err := pdfs.History(ctx, in.ProcessingID, r.Identity.LocalID)
		if err != nil {
			return nil, err
		}
		return ConversationsResponse{ProcessingID: in.ProcessingID, Conversations: items, TotalConversations: len(items)}, nil
	})

	return d
}
