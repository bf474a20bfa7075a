package vision

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/jakubkieblesz1/Amazon-Lazy-Meal-Planner/internal/llm"
	"github.com/jakubkieblesz1/Amazon-Lazy-Meal-Planner/pkg/apperrors"
)

type fakeAnalyzer struct {
	response string
	err      error

	gotMime   string
	gotImage  []byte
	gotPrompt string
	calls     int
}

func (f *fakeAnalyzer) AnalyzeImage(ctx context.Context, mimeType string, image []byte, prompt string) (llm.ContentResponse, error) {
	f.calls++
	f.gotMime = mimeType
	f.gotImage = image
	f.gotPrompt = prompt
	if f.err != nil {
		return llm.ContentResponse{}, f.err
	}
	return llm.ContentResponse{Content: f.response}, nil
}

// minimal valid PNG header so content sniffing resolves to image/png
var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func TestExtractIngredients(t *testing.T) {
	analyzer := &fakeAnalyzer{
		response: `{"foods":[{"name":"Tomato","estimated_expiry":"2 days"},{"name":"Milk","estimated_expiry":"5 days"}]}`,
	}
	svc := NewService(analyzer)

	encoded := base64.StdEncoding.EncodeToString(pngBytes)
	foods, _, err := svc.ExtractIngredients(context.Background(), encoded)
	if err != nil {
		t.Fatalf("ExtractIngredients failed: %v", err)
	}

	if len(foods) != 2 {
		t.Fatalf("Expected 2 ingredients, got %d", len(foods))
	}
	if foods[0].Name != "Tomato" || foods[0].EstimatedExpiry != "2 days" {
		t.Errorf("Unexpected first ingredient: %+v", foods[0])
	}
	if !strings.Contains(analyzer.gotPrompt, "food safety expert") {
		t.Error("Expected the extraction prompt to be passed to the model")
	}
	if string(analyzer.gotImage) != string(pngBytes) {
		t.Error("Expected the decoded image bytes to reach the model")
	}
}

func TestExtractIngredientsDataURL(t *testing.T) {
	analyzer := &fakeAnalyzer{response: `{"foods":[]}`}
	svc := NewService(analyzer)

	encoded := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte("jpegdata"))
	foods, _, err := svc.ExtractIngredients(context.Background(), encoded)
	if err != nil {
		t.Fatalf("ExtractIngredients failed: %v", err)
	}
	if len(foods) != 0 {
		t.Errorf("Expected empty foods list, got %d entries", len(foods))
	}
	if analyzer.gotMime != "image/jpeg" {
		t.Errorf("Expected MIME type from data URL, got %q", analyzer.gotMime)
	}
}

func TestExtractIngredientsSniffsMIME(t *testing.T) {
	analyzer := &fakeAnalyzer{response: `{"foods":[]}`}
	svc := NewService(analyzer)

	encoded := base64.StdEncoding.EncodeToString(pngBytes)
	if _, _, err := svc.ExtractIngredients(context.Background(), encoded); err != nil {
		t.Fatalf("ExtractIngredients failed: %v", err)
	}
	if analyzer.gotMime != "image/png" {
		t.Errorf("Expected sniffed image/png, got %q", analyzer.gotMime)
	}
}

func TestExtractIngredientsInvalidBase64(t *testing.T) {
	analyzer := &fakeAnalyzer{}
	svc := NewService(analyzer)

	_, _, err := svc.ExtractIngredients(context.Background(), "not base64!!!")
	if !apperrors.Is(err, apperrors.CodeValidation) {
		t.Errorf("Expected validation error, got %v", err)
	}
	if analyzer.calls != 0 {
		t.Error("Expected no model call for an undecodable image")
	}
}

func TestExtractIngredientsEmptyImage(t *testing.T) {
	svc := NewService(&fakeAnalyzer{})
	if _, _, err := svc.ExtractIngredients(context.Background(), ""); !apperrors.Is(err, apperrors.CodeValidation) {
		t.Errorf("Expected validation error for empty image, got %v", err)
	}
}

func TestExtractIngredientsMalformedResponse(t *testing.T) {
	cases := map[string]string{
		"NotJSON":    "sure, here are your ingredients",
		"MissingKey": `{"ingredients":[]}`,
		"WrongShape": `{"foods":"tomato"}`,
	}

	for name, response := range cases {
		t.Run(name, func(t *testing.T) {
			svc := NewService(&fakeAnalyzer{response: response})
			encoded := base64.StdEncoding.EncodeToString(pngBytes)
			_, _, err := svc.ExtractIngredients(context.Background(), encoded)
			if !apperrors.Is(err, apperrors.CodeMalformedResponse) {
				t.Errorf("Expected malformed response error, got %v", err)
			}
		})
	}
}

func TestExtractIngredientsUpstreamFailure(t *testing.T) {
	svc := NewService(&fakeAnalyzer{err: context.DeadlineExceeded})
	encoded := base64.StdEncoding.EncodeToString(pngBytes)
	_, _, err := svc.ExtractIngredients(context.Background(), encoded)
	if !apperrors.Is(err, apperrors.CodeUpstreamTimeout) {
		t.Errorf("Expected upstream timeout error, got %v", err)
	}
}
