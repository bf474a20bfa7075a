package llm

import (
	"context"

	"github.com/jakubkieblesz1/Amazon-Lazy-Meal-Planner/internal/shared"
)

// ContentResponse contains the generated text and metadata like token usage.
type ContentResponse struct {
	Content string
	Usage   shared.TokenUsage
}

// TextGenerator is an interface for generating structured text from a prompt.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (ContentResponse, error)
}

// VisionAnalyzer is an interface for analyzing an image with a prompt.
type VisionAnalyzer interface {
	AnalyzeImage(ctx context.Context, mimeType string, image []byte, prompt string) (ContentResponse, error)
}

// Closer is an interface for closing resources.
type Closer interface {
	Close() error
}
