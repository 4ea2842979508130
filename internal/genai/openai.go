package genai

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIWriter generates section content through the OpenAI chat completions
// API.
type OpenAIWriter struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int

	Stats *LLMStats
}

// NewOpenAIWriter creates a content generator backed by the given model.
func NewOpenAIWriter(apiKey, model string) *OpenAIWriter {
	return &OpenAIWriter{
		client:      openai.NewClient(apiKey),
		model:       model,
		temperature: 0.3,
		maxTokens:   4096,
		Stats:       NewLLMStats(time.Hour),
	}
}

// Model returns the configured model name.
func (w *OpenAIWriter) Model() string { return w.model }

// GenerateSection writes one section's raw marked-up text.
func (w *OpenAIWriter) GenerateSection(ctx context.Context, req GenerateRequest) (string, error) {
	start := time.Now()
	resp, err := w.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       w.model,
		Temperature: w.temperature,
		MaxTokens:   w.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: WriterSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildSectionPrompt(req)},
		},
	})
	if err != nil {
		return "", classifyError("content generation", err)
	}
	if w.Stats != nil {
		w.Stats.Record(time.Since(start).Milliseconds())
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("content generation: empty response")
	}
	return stripMarkdownFence(resp.Choices[0].Message.Content), nil
}

// classifyError maps transport and API failures onto the retry taxonomy:
// rate limits, server errors, and timeouts are retryable; everything else
// surfaces as-is.
func classifyError(op string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500 {
			return &RetryableError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &RetryableError{Message: "call timed out"}
	}
	return fmt.Errorf("%s: %w", op, err)
}

var fenceRe = regexp.MustCompile("(?s)^```(?:markdown)?\\s*(.*?)\\s*```$")

// stripMarkdownFence unwraps a response the model wrapped in a code fence.
func stripMarkdownFence(s string) string {
	s = strings.TrimSpace(s)
	if m := fenceRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}
