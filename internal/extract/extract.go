// Package extract wraps the AI question-extraction service: it accepts a
// document and returns candidate questions. The service is an opaque remote
// capability behind an OpenAI-compatible API; nothing here inspects the
// document beyond shipping it to the model.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/classhub/backend/internal/model"
)

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api   *openai.Client
	model string
}

// New creates a new extraction client.
func New(baseURL, apiKey, modelName string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
	}
}

// Ping verifies the endpoint is reachable by listing models.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.api.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("extraction endpoint check: %w", err)
	}
	return nil
}

type extractionResponse struct {
	Questions []model.QuestionDraft `json:"questions"`
}

// Extract sends a document to the model and returns sanitized question
// drafts. Drafts the model returns malformed are repaired or dropped, never
// passed through raw.
func (c *Client) Extract(ctx context.Context, document string) ([]model.QuestionDraft, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: buildExtractionPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: document},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("extraction API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("extraction returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("extraction response", "raw", raw)

	var parsed extractionResponse
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("parse extraction response: %w (raw: %s)", err, raw)
	}

	var drafts []model.QuestionDraft
	for _, d := range parsed.Questions {
		if clean, ok := sanitizeDraft(d); ok {
			drafts = append(drafts, clean)
		}
	}
	return drafts, nil
}

// sanitizeDraft repairs a model-produced draft or rejects it. Multiple-choice
// drafts whose correct answer is not among the options become free-text
// rather than silently ungradeable questions.
func sanitizeDraft(d model.QuestionDraft) (model.QuestionDraft, bool) {
	d.Text = strings.TrimSpace(d.Text)
	if d.Text == "" {
		return d, false
	}
	if d.Points < 1 {
		d.Points = 1
	}

	switch d.Type {
	case model.QuestionMultipleChoice:
		if len(d.Options) == 0 || !slices.Contains(d.Options, d.CorrectAnswer) {
			d.Type = model.QuestionFreeText
			d.Options = nil
			d.CorrectAnswer = ""
		}
	case model.QuestionFreeText:
		d.Options = nil
		d.CorrectAnswer = ""
	default:
		if len(d.Options) > 0 && slices.Contains(d.Options, d.CorrectAnswer) {
			d.Type = model.QuestionMultipleChoice
		} else {
			d.Type = model.QuestionFreeText
			d.Options = nil
			d.CorrectAnswer = ""
		}
	}
	return d, true
}

func buildExtractionPrompt() string {
	var sb strings.Builder
	sb.WriteString("You extract exam questions from teaching documents.\n\n")
	sb.WriteString("Read the user's document and produce candidate questions a teacher could add to an exam.\n")
	sb.WriteString("INSTRUCTIONS:\n")
	sb.WriteString("- Prefer multiple-choice questions when the document supports them; use free_text otherwise.\n")
	sb.WriteString("- For multiple-choice, correct_answer MUST be exactly equal to one of the options.\n")
	sb.WriteString("- points is a small positive integer reflecting difficulty (1-10).\n")
	sb.WriteString("- Include a short explanation shown to students after grading when the document provides one.\n")
	sb.WriteString("\nRespond ONLY with a JSON object:\n")
	sb.WriteString(`{"questions": [{"text": "...", "type": "multiple_choice" or "free_text", "options": ["..."], "correct_answer": "...", "points": <int>, "explanation": "..."}]}`)
	sb.WriteString("\n")
	return sb.String()
}
