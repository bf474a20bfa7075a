package pantry

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jakubkieblesz1/Amazon-Lazy-Meal-Planner/internal/database"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewRepository(db.SQL)
}

func TestGetIngredientsEmpty(t *testing.T) {
	repo := newTestRepo(t)

	items, err := repo.GetIngredients(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("GetIngredients failed: %v", err)
	}
	if items != nil {
		t.Errorf("Expected nil pantry for unknown user, got %v", items)
	}
}

func TestSetIngredientsRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	stored := []Ingredient{
		{Name: "Tomato", EstimatedExpiry: "2 days"},
		{Name: "Milk", EstimatedExpiry: "5 days"},
	}
	if err := repo.SetIngredients(ctx, "alice", stored); err != nil {
		t.Fatalf("SetIngredients failed: %v", err)
	}

	got, err := repo.GetIngredients(ctx, "alice")
	if err != nil {
		t.Fatalf("GetIngredients failed: %v", err)
	}
	if len(got) != len(stored) {
		t.Fatalf("Expected %d items, got %d", len(stored), len(got))
	}
	for i := range stored {
		if got[i] != stored[i] {
			t.Errorf("Item %d: expected %+v, got %+v", i, stored[i], got[i])
		}
	}
}

func TestSetIngredientsOverwrites(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_ = repo.SetIngredients(ctx, "alice", []Ingredient{{Name: "Tomato", EstimatedExpiry: "2 days"}})
	if err := repo.SetIngredients(ctx, "alice", []Ingredient{{Name: "Cheese", EstimatedExpiry: "10 days"}}); err != nil {
		t.Fatalf("SetIngredients failed: %v", err)
	}

	got, err := repo.GetIngredients(ctx, "alice")
	if err != nil {
		t.Fatalf("GetIngredients failed: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Cheese" {
		t.Errorf("Expected pantry to be replaced wholesale, got %v", got)
	}
}

func TestAppendFeedbackPreservesOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	entries := []Feedback{
		{RecipeTitle: "Pasta", Feedback: "liked"},
		{RecipeTitle: "Salad", Feedback: "too bland"},
		{RecipeTitle: "Curry", Feedback: "disliked"},
	}
	for _, f := range entries {
		if err := repo.AppendFeedback(ctx, "bob", f); err != nil {
			t.Fatalf("AppendFeedback failed: %v", err)
		}
	}

	got, err := repo.GetFeedback(ctx, "bob")
	if err != nil {
		t.Fatalf("GetFeedback failed: %v", err)
	}
	if len(got) != len(entries) {
		t.Fatalf("Expected %d feedback entries, got %d", len(entries), len(got))
	}
	for i := range entries {
		if got[i] != entries[i] {
			t.Errorf("Entry %d: expected %+v, got %+v", i, entries[i], got[i])
		}
	}
}

func TestAppendFeedbackConcurrent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = repo.AppendFeedback(ctx, "carol", Feedback{RecipeTitle: "Soup", Feedback: "liked"})
		}()
	}
	wg.Wait()

	got, err := repo.GetFeedback(ctx, "carol")
	if err != nil {
		t.Fatalf("GetFeedback failed: %v", err)
	}
	if len(got) != n {
		t.Errorf("Expected %d entries after concurrent appends, got %d", n, len(got))
	}
}

func TestFeedbackIsolatedPerUser(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_ = repo.AppendFeedback(ctx, "alice", Feedback{RecipeTitle: "Pasta", Feedback: "liked"})
	_ = repo.AppendFeedback(ctx, "bob", Feedback{RecipeTitle: "Salad", Feedback: "disliked"})

	got, err := repo.GetFeedback(ctx, "alice")
	if err != nil {
		t.Fatalf("GetFeedback failed: %v", err)
	}
	if len(got) != 1 || got[0].RecipeTitle != "Pasta" {
		t.Errorf("Expected only alice's feedback, got %v", got)
	}
}
