// Package vision turns a photo of ingredients into a structured pantry list
// using a vision-capable generative model.
package vision

import (
	"context"
	_ "embed"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jakubkieblesz1/Amazon-Lazy-Meal-Planner/internal/llm"
	"github.com/jakubkieblesz1/Amazon-Lazy-Meal-Planner/internal/pantry"
	"github.com/jakubkieblesz1/Amazon-Lazy-Meal-Planner/internal/shared"
	"github.com/jakubkieblesz1/Amazon-Lazy-Meal-Planner/pkg/apperrors"
)

//go:embed extract_prompt.md
var extractPrompt string

// Service extracts ingredients with expiry estimates from food images.
type Service struct {
	analyzer llm.VisionAnalyzer
}

func NewService(analyzer llm.VisionAnalyzer) *Service {
	return &Service{analyzer: analyzer}
}

// ExtractIngredients decodes a base64-encoded image (with or without a data
// URL prefix), sends it to the vision model and parses the structured foods
// list. It does not persist anything; the caller owns the pantry write.
func (s *Service) ExtractIngredients(ctx context.Context, base64Image string) ([]pantry.Ingredient, shared.CallMeta, error) {
	start := time.Now()
	meta := shared.CallMeta{Operation: "vision_extract"}

	mimeType, payload, err := decodeImage(base64Image)
	if err != nil {
		return nil, meta, apperrors.Wrap(apperrors.CodeValidation, "Invalid image encoding", err)
	}

	resp, err := s.analyzer.AnalyzeImage(ctx, mimeType, payload, extractPrompt)
	meta.Usage = resp.Usage
	meta.Latency = time.Since(start)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, meta, apperrors.Wrap(apperrors.CodeUpstreamTimeout, "Image analysis timed out", err)
		}
		return nil, meta, apperrors.Wrap(apperrors.CodeUpstreamFailure, "Image analysis failed", err)
	}

	var parsed struct {
		Foods []pantry.Ingredient `json:"foods"`
	}
	if err := json.Unmarshal([]byte(resp.Content), &parsed); err != nil {
		return nil, meta, apperrors.Wrap(apperrors.CodeMalformedResponse, "Image analysis returned malformed data", err)
	}
	if parsed.Foods == nil {
		return nil, meta, apperrors.New(apperrors.CodeMalformedResponse, "Image analysis returned malformed data")
	}

	meta.Latency = time.Since(start)
	return parsed.Foods, meta, nil
}

// decodeImage accepts both raw base64 and data URLs such as
// "data:image/jpeg;base64,...". The MIME type comes from the data URL when
// present, otherwise it is sniffed from the decoded bytes.
func decodeImage(raw string) (string, []byte, error) {
	if raw == "" {
		return "", nil, errors.New("empty image payload")
	}

	mimeType := ""
	data := raw
	if strings.HasPrefix(raw, "data:") {
		idx := strings.Index(raw, ";base64,")
		if idx < 0 {
			return "", nil, errors.New("unsupported data URL format")
		}
		mimeType = raw[len("data:"):idx]
		data = raw[idx+len(";base64,"):]
	}

	payload, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", nil, err
	}
	if mimeType == "" {
		mimeType = http.DetectContentType(payload)
	}
	return mimeType, payload, nil
}
