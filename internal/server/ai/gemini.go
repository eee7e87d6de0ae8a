// Package ai holds the generative-model client that reads PDF documents and
// the small PDF inspection helpers used alongside it.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
)

const systemPrompt = "You are a careful document analyst. Answer only from the PDF you are given."

const summarizePrompt = `Please analyze this PDF document and extract its text content.
Provide a brief summary of what the document contains.
Focus on the main topics, key information, and structure of the document.`

const answerPrompt = `Please analyze this PDF document and answer the following question accurately and comprehensively.

Question: %s

Provide a detailed answer based only on the information available in the PDF.
If the answer cannot be found in the PDF, say so clearly.`

// ErrEmptyResponse means the model returned no text.
var ErrEmptyResponse = errors.New("model returned no text")

// Generator reads a PDF and produces text about it.
type Generator interface {
	Summarize(ctx context.Context, pdf []byte) (string, error)
	Answer(ctx context.Context, pdf []byte, question string) (string, error)
}

type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// GeminiClient is a Generator backed by a Gemini model on Vertex AI.
type GeminiClient struct {
	model  contentGenerator
	client *genai.Client
}

// NewGeminiClient connects to Vertex AI with application default
// credentials.
func NewGeminiClient(ctx context.Context, projectID, region, modelName string) (*GeminiClient, error) {
	if projectID == "" || region == "" || modelName == "" {
		return nil, fmt.Errorf("NewGeminiClient: projectID, region and model cannot be empty")
	}

	client, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}
	model.SetTemperature(0.2)

	return &GeminiClient{model: model, client: client}, nil
}

func (c *GeminiClient) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *GeminiClient) Summarize(ctx context.Context, pdf []byte) (string, error) {
	return c.generate(ctx, pdf, summarizePrompt)
}

func (c *GeminiClient) Answer(ctx context.Context, pdf []byte, question string) (string, error) {
	return c.generate(ctx, pdf, fmt.Sprintf(answerPrompt, question))
}

func (c *GeminiClient) generate(ctx context.Context, pdf []byte, prompt string) (string, error) {
	doc := genai.Blob{MIMEType: "application/pdf", Data: pdf}

	resp, err := c.model.GenerateContent(ctx, doc, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	return extractText(resp)
}

// extractText joins the text parts of the first candidate.
func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}

	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}
