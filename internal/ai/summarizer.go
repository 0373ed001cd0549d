package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/xelth-com/sowflow/internal/workflow"
)

// Summarizer turns a field-level diff into a one-paragraph change summary
// for notifications, using the Gemini API.
type Summarizer struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewSummarizer creates a Gemini-backed summarizer.
func NewSummarizer(ctx context.Context, apiKey, modelName string) (*Summarizer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is empty")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	model := client.GenerativeModel(modelName)

	return &Summarizer{client: client, model: model}, nil
}

// Close closes the client connection
func (s *Summarizer) Close() {
	if s.client != nil {
		s.client.Close()
	}
}

// SummarizeDiff implements workflow.DiffSummarizer.
func (s *Summarizer) SummarizeDiff(ctx context.Context, records []workflow.ChangeRecord) (string, error) {
	raw, err := json.Marshal(records)
	if err != nil {
		return "", err
	}

	prompt := fmt.Sprintf(
		"Summarize the following Statement-of-Work changes in one short plain-text "+
			"sentence for a notification. Do not use markdown. Changes as JSON:\n%s",
		string(raw),
	)

	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generation error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from gemini")
	}

	var fullText string
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			fullText += string(txt)
		}
	}
	return strings.TrimSpace(fullText), nil
}
