package pantry

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Repository is a database-backed store for pantry state and feedback.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// GetIngredients returns the user's current pantry, or nil when no pantry
// has been stored yet.
func (r *Repository) GetIngredients(ctx context.Context, userID string) ([]Ingredient, error) {
	var raw string
	err := r.db.QueryRowContext(ctx,
		`SELECT items FROM pantries WHERE user_id = ?`, userID,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pantry for user %s: %w", userID, err)
	}

	var items []Ingredient
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pantry JSON: %w", err)
	}
	return items, nil
}

// SetIngredients replaces the user's entire pantry. The previous state is
// overwritten, not merged: the latest photo defines the current pantry.
func (r *Repository) SetIngredients(ctx context.Context, userID string, items []Ingredient) error {
	if items == nil {
		items = []Ingredient{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal pantry: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO pantries (user_id, items, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET items = excluded.items, updated_at = excluded.updated_at`,
		userID, string(raw), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to store pantry for user %s: %w", userID, err)
	}
	return nil
}

// GetFeedback returns all feedback entries for the user in submission order.
func (r *Repository) GetFeedback(ctx context.Context, userID string) ([]Feedback, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT recipe_title, feedback FROM feedback WHERE user_id = ? ORDER BY id`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback for user %s: %w", userID, err)
	}
	defer rows.Close()

	var entries []Feedback
	for rows.Next() {
		var f Feedback
		if err := rows.Scan(&f.RecipeTitle, &f.Feedback); err != nil {
			return nil, fmt.Errorf("failed to scan feedback row: %w", err)
		}
		entries = append(entries, f)
	}
	return entries, rows.Err()
}

// AppendFeedback adds one feedback entry. A single INSERT keeps the append
// atomic under concurrent submissions for the same user.
func (r *Repository) AppendFeedback(ctx context.Context, userID string, f Feedback) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO feedback (user_id, recipe_title, feedback, created_at) VALUES (?, ?, ?, ?)`,
		userID, f.RecipeTitle, f.Feedback, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to append feedback for user %s: %w", userID, err)
	}
	return nil
}
