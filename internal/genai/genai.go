package genai

import (
	"context"
	"fmt"

	"github.com/dgallion1/reportgen/internal/report"
)

// GenerateRequest carries everything a content backend needs to write one
// section.
type GenerateRequest struct {
	SectionTitle  string
	MainTopic     string
	Research      []report.ResearchItem
	IncludeImages bool
	// Reinforce marks the single corrective re-prompt issued when content
	// that was required to carry an image reference came back without one.
	Reinforce bool
}

// ContentGenerator produces raw marked-up text for a section.
type ContentGenerator interface {
	GenerateSection(ctx context.Context, req GenerateRequest) (string, error)
}

// ImageGenerator turns an image description into a local asset path.
// A too-short description is a validation rejection, not a fault: the
// generator returns ("", nil) and the caller renders a placeholder.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, description, caption string) (string, error)
}

// RetryableError indicates a transient backend failure worth retrying.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
