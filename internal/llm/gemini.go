package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/jakubkieblesz1/Amazon-Lazy-Meal-Planner/internal/config"
	"github.com/jakubkieblesz1/Amazon-Lazy-Meal-Planner/internal/shared"
)

// foodsSchema constrains vision output to a list of named ingredients with
// expiry estimates.
var foodsSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"foods": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"name":             {Type: genai.TypeString},
					"estimated_expiry": {Type: genai.TypeString},
				},
				Required: []string{"name", "estimated_expiry"},
			},
		},
	},
	Required: []string{"foods"},
}

// menuSchema constrains generation output to a weekly menu with exactly one
// recipe per day plus a grocery list.
var menuSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"recipes": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"day_of_the_week": {Type: genai.TypeString},
					"title":           {Type: genai.TypeString},
					"description":     {Type: genai.TypeString},
					"difficulty":      {Type: genai.TypeString},
					"time_to_prepare": {Type: genai.TypeString},
					"servings":        {Type: genai.TypeInteger},
					"ingredients": {
						Type:  genai.TypeArray,
						Items: &genai.Schema{Type: genai.TypeString},
					},
					"instructions": {
						Type:  genai.TypeArray,
						Items: &genai.Schema{Type: genai.TypeString},
					},
				},
				Required: []string{
					"day_of_the_week", "title", "description", "difficulty",
					"time_to_prepare", "servings", "ingredients", "instructions",
				},
			},
		},
		"grocery_list": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"name":     {Type: genai.TypeString},
					"quantity": {Type: genai.TypeString},
					"category": {Type: genai.TypeString},
				},
				Required: []string{"name", "quantity", "category"},
			},
		},
	},
	Required: []string{"recipes", "grocery_list"},
}

// GeminiClient is a client for the Google Gemini API. It serves both text
// generation (weekly menus) and vision analysis (pantry photos), each with a
// JSON response schema.
type GeminiClient struct {
	client          *genai.Client
	textModel       *genai.GenerativeModel
	visionModel     *genai.GenerativeModel
	textModelName   string
	visionModelName string
	timeout         time.Duration
}

// NewGeminiClient creates a new Gemini API client.
func NewGeminiClient(ctx context.Context, cfg *config.Config) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.Gemini.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	textModel := client.GenerativeModel(cfg.Gemini.Model)
	textModel.SetTemperature(0.7)
	textModel.ResponseMIMEType = "application/json"
	textModel.ResponseSchema = menuSchema

	visionModel := client.GenerativeModel(cfg.Gemini.VisionModel)
	visionModel.SetTemperature(0.1)
	visionModel.ResponseMIMEType = "application/json"
	visionModel.ResponseSchema = foodsSchema

	return &GeminiClient{
		client:          client,
		textModel:       textModel,
		visionModel:     visionModel,
		textModelName:   cfg.Gemini.Model,
		visionModelName: cfg.Gemini.VisionModel,
		timeout:         cfg.Gemini.Timeout,
	}, nil
}

// GenerateContent sends a prompt to the text model and returns the generated
// JSON document.
func (c *GeminiClient) GenerateContent(ctx context.Context, prompt string) (ContentResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.textModel.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return ContentResponse{}, fmt.Errorf("failed to generate content: %w", err)
	}

	return extractResponse(resp, c.textModelName)
}

// AnalyzeImage sends an image plus an instruction prompt to the vision model.
func (c *GeminiClient) AnalyzeImage(ctx context.Context, mimeType string, image []byte, prompt string) (ContentResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.visionModel.GenerateContent(ctx,
		genai.Text(prompt),
		genai.Blob{MIMEType: mimeType, Data: image},
	)
	if err != nil {
		return ContentResponse{}, fmt.Errorf("failed to analyze image: %w", err)
	}

	return extractResponse(resp, c.visionModelName)
}

func extractResponse(resp *genai.GenerateContentResponse, model string) (ContentResponse, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return ContentResponse{}, fmt.Errorf("no content generated")
	}

	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return ContentResponse{}, fmt.Errorf("generated content is not text")
	}

	usage := shared.TokenUsage{Model: model}
	if resp.UsageMetadata != nil {
		usage.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		usage.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		usage.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}

	return ContentResponse{Content: string(text), Usage: usage}, nil
}

// Close closes the underlying Gemini client.
func (c *GeminiClient) Close() error {
	return c.client.Close()
}
