package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jakubkieblesz1/Amazon-Lazy-Meal-Planner/internal/metrics"
	"github.com/jakubkieblesz1/Amazon-Lazy-Meal-Planner/internal/pantry"
	"github.com/jakubkieblesz1/Amazon-Lazy-Meal-Planner/internal/planner"
	"github.com/jakubkieblesz1/Amazon-Lazy-Meal-Planner/internal/preferences"
	"github.com/jakubkieblesz1/Amazon-Lazy-Meal-Planner/internal/shared"
	"github.com/jakubkieblesz1/Amazon-Lazy-Meal-Planner/pkg/apperrors"
)

// AuthService manages accounts and session tokens.
type AuthService interface {
	Register(ctx context.Context, username, password, name string) (string, error)
	Login(ctx context.Context, username, password string) (string, error)
	Logout(ctx context.Context, token string) error
	Resolve(ctx context.Context, token string) (string, error)
}

// MenuGenerator produces a weekly menu for a user.
type MenuGenerator interface {
	GenerateWeeklyMenu(ctx context.Context, userID, preferences string) (*planner.WeeklyMenu, error)
}

// IngredientExtractor turns an image into a pantry ingredient list.
type IngredientExtractor interface {
	ExtractIngredients(ctx context.Context, base64Image string) ([]pantry.Ingredient, shared.CallMeta, error)
}

// PantryWriter persists extraction results and feedback.
type PantryWriter interface {
	SetIngredients(ctx context.Context, userID string, items []pantry.Ingredient) error
	AppendFeedback(ctx context.Context, userID string, f pantry.Feedback) error
}

// ProfileWriter persists the preference form and per-food swipe reactions.
type ProfileWriter interface {
	Save(ctx context.Context, userID string, p preferences.Profile) error
	SaveSwipe(ctx context.Context, userID, foodID string, liked bool) error
}

// UsageReader reports recent model usage for the health endpoint.
type UsageReader interface {
	GetDailyUsage(ctx context.Context, days int) ([]metrics.DailyUsage, error)
}

// Recorder persists model call metadata.
type Recorder interface {
	Record(ctx context.Context, meta shared.CallMeta) error
}

// Handler holds the dependencies for all API endpoints.
type Handler struct {
	auth      AuthService
	planner   MenuGenerator
	extractor IngredientExtractor
	pantry    PantryWriter
	profiles  ProfileWriter
	usage     UsageReader
	recorder  Recorder
	dataDir   string
	logger    zerolog.Logger
}

// NewHandler wires the endpoint dependencies. usage and recorder may be nil.
func NewHandler(
	auth AuthService,
	menuGen MenuGenerator,
	extractor IngredientExtractor,
	pantryWriter PantryWriter,
	profiles ProfileWriter,
	usage UsageReader,
	recorder Recorder,
	dataDir string,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		auth:      auth,
		planner:   menuGen,
		extractor: extractor,
		pantry:    pantryWriter,
		profiles:  profiles,
		usage:     usage,
		recorder:  recorder,
		dataDir:   dataDir,
		logger:    logger,
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode response")
	}
}

// writeError maps an error to its status code with an {"error": ...} body.
// The wrapped cause is logged but never sent to the client.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperrors.From(err)
	if appErr.StatusCode() >= http.StatusInternalServerError {
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	h.writeJSON(w, appErr.StatusCode(), map[string]string{"error": appErr.Message})
}

// GenerateRecipe handles POST /generate-recipe.
func (h *Handler) GenerateRecipe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Preferences string `json:"preferences"`
		SessionID   string `json:"sessionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Preferences == "" || req.SessionID == "" {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Preferences and session ID are required!"})
		return
	}

	userID, err := h.auth.Resolve(r.Context(), req.SessionID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	menu, err := h.planner.GenerateWeeklyMenu(r.Context(), userID, req.Preferences)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"recipe": menu})
}

// AnalysePicture handles POST /analyse-picture. On success the extracted
// ingredients replace the user's stored pantry wholesale.
func (h *Handler) AnalysePicture(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Image     string `json:"image"`
		SessionID string `json:"sessionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Image == "" || req.SessionID == "" {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Image and session ID are required!"})
		return
	}

	userID, err := h.auth.Resolve(r.Context(), req.SessionID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	foods, meta, err := h.extractor.ExtractIngredients(r.Context(), req.Image)
	h.record(r.Context(), meta)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.pantry.SetIngredients(r.Context(), userID, foods); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"analysis": foods})
}

// SubmitFeedback handles POST /submit-feedback.
func (h *Handler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID   string `json:"sessionId"`
		RecipeTitle string `json:"recipeTitle"`
		Feedback    string `json:"feedback"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == "" || req.RecipeTitle == "" || req.Feedback == "" {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Session ID, recipe title, and feedback are required!"})
		return
	}

	userID, err := h.auth.Resolve(r.Context(), req.SessionID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	err = h.pantry.AppendFeedback(r.Context(), userID, pantry.Feedback{
		RecipeTitle: req.RecipeTitle,
		Feedback:    req.Feedback,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Feedback submitted successfully!"})
}

// AddUserPreferences handles POST /add_user_preferences. The session check
// answers 401 here, unlike the 400 of the recipe endpoints.
func (h *Handler) AddUserPreferences(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID           string          `json:"sessionId"`
		Diet                string          `json:"diet"`
		Budget              string          `json:"budget"`
		Cuisines            []string        `json:"cuisines"`
		Allergens           []string        `json:"allergens"`
		KitchenEquipment    []string        `json:"kitchen_equipment"`
		NumberOfPeople      json.RawMessage `json:"number_of_people"`
		NotificationOptions []string        `json:"notification_options"`
		FitbitAccessToken   string          `json:"fitbit_access_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid input data"})
		return
	}
	if req.SessionID == "" {
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Must provide session id"})
		return
	}

	userID, err := h.auth.Resolve(r.Context(), req.SessionID)
	if err != nil {
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid session id"})
		return
	}

	// Clients send the household size as either a number or a digit string.
	size, ok := parseHouseholdSize(req.NumberOfPeople)
	if !ok {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid number_of_people, must be an integer"})
		return
	}

	profile := preferences.Profile{
		Diet:                req.Diet,
		Budget:              req.Budget,
		Cuisines:            req.Cuisines,
		Allergens:           req.Allergens,
		KitchenEquipment:    req.KitchenEquipment,
		HouseholdSize:       size,
		NotificationOptions: req.NotificationOptions,
		FitbitAccessToken:   req.FitbitAccessToken,
	}
	if err := profile.Validate(); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid input data"})
		return
	}

	if err := h.profiles.Save(r.Context(), userID, profile); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]string{"output": "User preferences logged"})
}

// AddFoodPreference handles POST /add_food_preferences, one swipe reaction
// per food card. Session errors answer 400 here, not the form endpoint's 401.
func (h *Handler) AddFoodPreference(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"sessionId"`
		FoodID    string `json:"food_id"`
		IsLiked   *bool  `json:"is_liked"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid input data"})
		return
	}
	if req.SessionID == "" {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Must provide session id"})
		return
	}

	userID, err := h.auth.Resolve(r.Context(), req.SessionID)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid session id"})
		return
	}

	if req.FoodID == "" || req.IsLiked == nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid input data"})
		return
	}

	if err := h.profiles.SaveSwipe(r.Context(), userID, req.FoodID, *req.IsLiked); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]string{"output": "Food preference logged"})
}

// Register handles POST /register. A fresh session is issued on success.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Username and password are required"})
		return
	}

	token, err := h.auth.Register(r.Context(), req.Username, req.Password, req.Name)
	if err != nil {
		h.writeAuthError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Register successful", "session_id": token})
}

// Login handles POST /login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Username and password are required"})
		return
	}

	token, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeAuthError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Login successful", "session_id": token})
}

// Logout handles POST /logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == "" {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"message": "No session ID provided"})
		return
	}

	if err := h.auth.Logout(r.Context(), req.SessionID); err != nil {
		h.writeAuthError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

// writeAuthError is writeError with the auth endpoints' {"message": ...}
// body shape.
func (h *Handler) writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperrors.From(err)
	if appErr.StatusCode() >= http.StatusInternalServerError {
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	h.writeJSON(w, appErr.StatusCode(), map[string]string{"message": appErr.Message})
}

// Health handles GET /health with process stats and recent model usage.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status": "ok",
		"system": metrics.GetSysHealth(h.dataDir),
	}
	if h.usage != nil {
		usage, err := h.usage.GetDailyUsage(r.Context(), 7)
		if err != nil {
			h.logger.Warn().Err(err).Msg("failed to read daily usage")
		} else {
			resp["daily_usage"] = usage
		}
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func parseHouseholdSize(raw json.RawMessage) (int, bool) {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func (h *Handler) record(ctx context.Context, meta shared.CallMeta) {
	if h.recorder == nil {
		return
	}
	if err := h.recorder.Record(ctx, meta); err != nil {
		h.logger.Warn().Err(err).Str("operation", meta.Operation).Msg("failed to record model call metrics")
	}
}
