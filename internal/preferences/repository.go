package preferences

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Repository is a database-backed store for preference profiles.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// GetProfile returns the user's saved profile, or nil when none exists.
// Absence is not an error; the caller decides whether it is fatal.
func (r *Repository) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	var (
		p        Profile
		cuisines string
		allergen string
		kitchen  string
		notify   string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT diet, budget, cuisines, allergens, kitchen_equipment, household_size,
		        notification_options, fitbit_access_token
		 FROM preference_profiles WHERE user_id = ?`, userID,
	).Scan(&p.Diet, &p.Budget, &cuisines, &allergen, &kitchen, &p.HouseholdSize, &notify, &p.FitbitAccessToken)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile for user %s: %w", userID, err)
	}

	fields := []struct {
		raw string
		dst *[]string
	}{
		{cuisines, &p.Cuisines},
		{allergen, &p.Allergens},
		{kitchen, &p.KitchenEquipment},
		{notify, &p.NotificationOptions},
	}
	for _, f := range fields {
		if err := json.Unmarshal([]byte(f.raw), f.dst); err != nil {
			return nil, fmt.Errorf("failed to unmarshal profile field: %w", err)
		}
	}

	return &p, nil
}

// GetAccessToken returns the user's stored Fitbit credential, or "" when the
// user has no profile or never connected Fitbit.
func (r *Repository) GetAccessToken(ctx context.Context, userID string) (string, error) {
	var token string
	err := r.db.QueryRowContext(ctx,
		`SELECT fitbit_access_token FROM preference_profiles WHERE user_id = ?`, userID,
	).Scan(&token)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get access token for user %s: %w", userID, err)
	}
	return token, nil
}

// Save validates and upserts the full profile. Partial profiles are rejected
// here, not at read time.
func (r *Repository) Save(ctx context.Context, userID string, p Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}

	cuisines, _ := json.Marshal(p.Cuisines)
	allergens, _ := json.Marshal(p.Allergens)
	kitchen, _ := json.Marshal(p.KitchenEquipment)
	notify, _ := json.Marshal(p.NotificationOptions)

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO preference_profiles
		 (user_id, diet, budget, cuisines, allergens, kitchen_equipment, household_size,
		  notification_options, fitbit_access_token, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		   diet = excluded.diet,
		   budget = excluded.budget,
		   cuisines = excluded.cuisines,
		   allergens = excluded.allergens,
		   kitchen_equipment = excluded.kitchen_equipment,
		   household_size = excluded.household_size,
		   notification_options = excluded.notification_options,
		   fitbit_access_token = excluded.fitbit_access_token,
		   updated_at = excluded.updated_at`,
		userID, p.Diet, p.Budget, string(cuisines), string(allergens), string(kitchen),
		p.HouseholdSize, string(notify), p.FitbitAccessToken, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save profile for user %s: %w", userID, err)
	}
	return nil
}

// SaveSwipe records a like or dislike for a food card, replacing any
// earlier reaction to the same food.
func (r *Repository) SaveSwipe(ctx context.Context, userID, foodID string, liked bool) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO food_preferences (user_id, food_id, is_liked, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id, food_id) DO UPDATE SET
		   is_liked = excluded.is_liked,
		   updated_at = excluded.updated_at`,
		userID, foodID, liked, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save food preference for user %s: %w", userID, err)
	}
	return nil
}

// GetSwipes returns the user's food reactions keyed by food id.
func (r *Repository) GetSwipes(ctx context.Context, userID string) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT food_id, is_liked FROM food_preferences WHERE user_id = ?`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get food preferences for user %s: %w", userID, err)
	}
	defer rows.Close()

	swipes := make(map[string]bool)
	for rows.Next() {
		var (
			foodID string
			liked  bool
		)
		if err := rows.Scan(&foodID, &liked); err != nil {
			return nil, fmt.Errorf("failed to scan food preference: %w", err)
		}
		swipes[foodID] = liked
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read food preferences: %w", err)
	}
	return swipes, nil
}
