// Package planner orchestrates weekly menu generation: it gathers the
// user's pantry, feedback, preference form and activity signal, composes a
// single generation request and validates the model's structured response.
package planner

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"text/template"
	"time"

	"github.com/rs/zerolog"

	"github.com/jakubkieblesz1/Amazon-Lazy-Meal-Planner/internal/fitbit"
	"github.com/jakubkieblesz1/Amazon-Lazy-Meal-Planner/internal/llm"
	"github.com/jakubkieblesz1/Amazon-Lazy-Meal-Planner/internal/pantry"
	"github.com/jakubkieblesz1/Amazon-Lazy-Meal-Planner/internal/preferences"
	"github.com/jakubkieblesz1/Amazon-Lazy-Meal-Planner/internal/shared"
	"github.com/jakubkieblesz1/Amazon-Lazy-Meal-Planner/pkg/apperrors"
)

//go:embed generate_prompt.md
var generatePrompt string

var promptTmpl = template.Must(template.New("generate").Parse(generatePrompt))

// PreferenceStore provides the stored preference form and Fitbit credential.
type PreferenceStore interface {
	GetProfile(ctx context.Context, userID string) (*preferences.Profile, error)
	GetAccessToken(ctx context.Context, userID string) (string, error)
}

// PantryStore provides the stored ingredients and feedback history.
type PantryStore interface {
	GetIngredients(ctx context.Context, userID string) ([]pantry.Ingredient, error)
	GetFeedback(ctx context.Context, userID string) ([]pantry.Feedback, error)
}

// StepProvider fetches a user's average daily steps for the sample window.
type StepProvider interface {
	AverageSteps(ctx context.Context, accessToken, fitbitUserID string) (int, error)
}

// Recorder persists model call metadata. Recording failures never fail a
// generation.
type Recorder interface {
	Record(ctx context.Context, meta shared.CallMeta) error
}

// Notifier delivers a generated menu to an external channel.
type Notifier interface {
	MenuGenerated(ctx context.Context, menu *WeeklyMenu) error
}

// Planner generates weekly menus. Each call is an independent transaction:
// all signals are re-read from the stores, nothing is cached across calls.
type Planner struct {
	prefs    PreferenceStore
	pantry   PantryStore
	steps    StepProvider
	textGen  llm.TextGenerator
	recorder Recorder
	notifier Notifier
	logger   zerolog.Logger
}

// NewPlanner creates a Planner. recorder and notifier may be nil.
func NewPlanner(
	prefs PreferenceStore,
	pantryStore PantryStore,
	steps StepProvider,
	textGen llm.TextGenerator,
	recorder Recorder,
	notifier Notifier,
	logger zerolog.Logger,
) *Planner {
	return &Planner{
		prefs:    prefs,
		pantry:   pantryStore,
		steps:    steps,
		textGen:  textGen,
		recorder: recorder,
		notifier: notifier,
		logger:   logger,
	}
}

type activityClause struct {
	Level    fitbit.ActivityLevel
	AvgSteps int
	Guidance string
}

type promptData struct {
	Preferences string
	Form        string
	Ingredients []string
	Feedback    string
	Activity    *activityClause
}

// GenerateWeeklyMenu runs the full generation pipeline for one user. The
// pantry must be non-empty; feedback, preference form and activity signal
// are optional. The model is called exactly once, with no retries.
func (p *Planner) GenerateWeeklyMenu(ctx context.Context, userID, freeTextPreferences string) (*WeeklyMenu, error) {
	if freeTextPreferences == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "Preferences are required!")
	}

	ingredients, err := p.pantry.GetIngredients(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "Failed to load stored ingredients", err)
	}
	if len(ingredients) == 0 {
		return nil, apperrors.New(apperrors.CodeNoIngredients, "No stored ingredients found. Please analyze an image first!")
	}

	feedback, err := p.pantry.GetFeedback(ctx, userID)
	if err != nil {
		p.logger.Warn().Err(err).Str("user_id", userID).Msg("failed to load feedback, proceeding without it")
		feedback = nil
	}

	profile, err := p.prefs.GetProfile(ctx, userID)
	if err != nil {
		p.logger.Warn().Err(err).Str("user_id", userID).Msg("failed to load preference form, proceeding without it")
		profile = nil
	}
	if profile == nil {
		profile = &preferences.Profile{}
	}

	activity := p.resolveActivity(ctx, userID)

	prompt, err := buildPrompt(freeTextPreferences, profile, ingredients, feedback, activity)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "Failed to build generation request", err)
	}

	start := time.Now()
	resp, err := p.textGen.GenerateContent(ctx, prompt)
	p.record(ctx, shared.CallMeta{
		Operation: "menu_generation",
		Usage:     resp.Usage,
		Latency:   time.Since(start),
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.Wrap(apperrors.CodeUpstreamTimeout, "Recipe generation timed out", err)
		}
		return nil, apperrors.Wrap(apperrors.CodeUpstreamFailure, "Recipe generation failed", err)
	}

	var menu WeeklyMenu
	if err := json.Unmarshal([]byte(resp.Content), &menu); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeMalformedResponse, "Recipe generation returned malformed data", err)
	}
	if err := menu.Validate(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeMalformedResponse, "Recipe generation returned malformed data", err)
	}
	menu.GroceryList = DedupeGroceries(menu.GroceryList)

	if p.notifier != nil && profile.WantsNotification("telegram") {
		if err := p.notifier.MenuGenerated(ctx, &menu); err != nil {
			p.logger.Warn().Err(err).Str("user_id", userID).Msg("failed to send menu notification")
		}
	}

	return &menu, nil
}

// resolveActivity is strictly best effort: a missing credential, an
// unparseable callback URL or an upstream error all collapse to "no
// activity clause". Errors never propagate to the caller.
func (p *Planner) resolveActivity(ctx context.Context, userID string) *activityClause {
	raw, err := p.prefs.GetAccessToken(ctx, userID)
	if err != nil || raw == "" {
		return nil
	}

	cred, err := fitbit.ParseCredential(raw)
	if err != nil {
		p.logger.Debug().Err(err).Str("user_id", userID).Msg("stored fitbit credential is unusable")
		return nil
	}

	avgSteps, err := p.steps.AverageSteps(ctx, cred.AccessToken, cred.UserID)
	if err != nil {
		p.logger.Debug().Err(err).Str("user_id", userID).Msg("fitbit steps lookup failed")
		return nil
	}

	tier := fitbit.Classify(avgSteps)
	return &activityClause{Level: tier.Level, AvgSteps: avgSteps, Guidance: tier.Guidance}
}

func (p *Planner) record(ctx context.Context, meta shared.CallMeta) {
	if p.recorder == nil {
		return
	}
	if err := p.recorder.Record(ctx, meta); err != nil {
		p.logger.Warn().Err(err).Str("operation", meta.Operation).Msg("failed to record model call metrics")
	}
}

func buildPrompt(
	freeTextPreferences string,
	profile *preferences.Profile,
	ingredients []pantry.Ingredient,
	feedback []pantry.Feedback,
	activity *activityClause,
) (string, error) {
	form, err := json.Marshal(profile)
	if err != nil {
		return "", fmt.Errorf("failed to marshal preference form: %w", err)
	}

	lines := make([]string, len(ingredients))
	for i, ing := range ingredients {
		lines[i] = fmt.Sprintf("%s (expires in %s)", ing.Name, ing.EstimatedExpiry)
	}

	feedbackJSON := ""
	if len(feedback) > 0 {
		raw, err := json.Marshal(feedback)
		if err != nil {
			return "", fmt.Errorf("failed to marshal feedback history: %w", err)
		}
		feedbackJSON = string(raw)
	}

	var buf bytes.Buffer
	err = promptTmpl.Execute(&buf, promptData{
		Preferences: freeTextPreferences,
		Form:        string(form),
		Ingredients: lines,
		Feedback:    feedbackJSON,
		Activity:    activity,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render generation prompt: %w", err)
	}
	return buf.String(), nil
}
