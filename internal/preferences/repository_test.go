package preferences

import (
	"context"
	"path/filepath"
	"reflect"
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

func fullProfile() Profile {
	return Profile{
		Diet:                "vegan",
		Budget:              "low",
		Cuisines:            []string{"italian", "thai"},
		Allergens:           []string{"peanuts"},
		KitchenEquipment:    []string{"oven", "blender"},
		HouseholdSize:       2,
		NotificationOptions: []string{"email"},
		FitbitAccessToken:   "",
	}
}

func TestGetProfileAbsent(t *testing.T) {
	repo := newTestRepo(t)

	p, err := repo.GetProfile(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if p != nil {
		t.Errorf("Expected nil profile for unknown user, got %+v", p)
	}
}

func TestSaveAndGetProfile(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	want := fullProfile()
	if err := repo.Save(ctx, "alice", want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := repo.GetProfile(ctx, "alice")
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected a profile, got nil")
	}
	if !reflect.DeepEqual(*got, want) {
		t.Errorf("Profile mismatch:\n got %+v\nwant %+v", *got, want)
	}
}

func TestSaveRejectsPartialProfile(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	cases := map[string]func(*Profile){
		"MissingDiet":      func(p *Profile) { p.Diet = "" },
		"MissingBudget":    func(p *Profile) { p.Budget = "" },
		"EmptyCuisines":    func(p *Profile) { p.Cuisines = nil },
		"EmptyAllergens":   func(p *Profile) { p.Allergens = nil },
		"EmptyEquipment":   func(p *Profile) { p.KitchenEquipment = nil },
		"ZeroHousehold":    func(p *Profile) { p.HouseholdSize = 0 },
		"NegHousehold":     func(p *Profile) { p.HouseholdSize = -1 },
		"NoNotifications":  func(p *Profile) { p.NotificationOptions = nil },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := fullProfile()
			mutate(&p)
			if err := repo.Save(ctx, "bob", p); err == nil {
				t.Error("Expected validation error for partial profile, got nil")
			}
		})
	}

	// Nothing partial should have been written.
	got, err := repo.GetProfile(ctx, "bob")
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected no stored profile after rejected writes, got %+v", got)
	}
}

func TestSaveAllowsMissingFitbitToken(t *testing.T) {
	repo := newTestRepo(t)

	p := fullProfile()
	p.FitbitAccessToken = ""
	if err := repo.Save(context.Background(), "carol", p); err != nil {
		t.Errorf("Expected profile without Fitbit token to be valid, got %v", err)
	}
}

func TestSaveOverwritesProfile(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := fullProfile()
	_ = repo.Save(ctx, "alice", first)

	second := fullProfile()
	second.Diet = "keto"
	second.FitbitAccessToken = "https://example.com/cb#access_token=abc&user_id=XYZ"
	if err := repo.Save(ctx, "alice", second); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := repo.GetProfile(ctx, "alice")
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if got.Diet != "keto" {
		t.Errorf("Expected updated diet 'keto', got '%s'", got.Diet)
	}

	token, err := repo.GetAccessToken(ctx, "alice")
	if err != nil {
		t.Fatalf("GetAccessToken failed: %v", err)
	}
	if token != second.FitbitAccessToken {
		t.Errorf("Expected stored token, got '%s'", token)
	}
}

func TestGetAccessTokenAbsent(t *testing.T) {
	repo := newTestRepo(t)

	token, err := repo.GetAccessToken(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("GetAccessToken failed: %v", err)
	}
	if token != "" {
		t.Errorf("Expected empty token for unknown user, got '%s'", token)
	}
}

func TestGetSwipesEmpty(t *testing.T) {
	repo := newTestRepo(t)

	swipes, err := repo.GetSwipes(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("GetSwipes failed: %v", err)
	}
	if len(swipes) != 0 {
		t.Errorf("Expected no swipes for unknown user, got %v", swipes)
	}
}

func TestSaveSwipeReplacesReaction(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.SaveSwipe(ctx, "alice", "sushi-42", true); err != nil {
		t.Fatalf("SaveSwipe failed: %v", err)
	}
	if err := repo.SaveSwipe(ctx, "alice", "tacos-7", false); err != nil {
		t.Fatalf("SaveSwipe failed: %v", err)
	}
	// Swiping the same food again keeps only the latest reaction.
	if err := repo.SaveSwipe(ctx, "alice", "sushi-42", false); err != nil {
		t.Fatalf("SaveSwipe failed: %v", err)
	}

	swipes, err := repo.GetSwipes(ctx, "alice")
	if err != nil {
		t.Fatalf("GetSwipes failed: %v", err)
	}
	want := map[string]bool{"sushi-42": false, "tacos-7": false}
	if !reflect.DeepEqual(swipes, want) {
		t.Errorf("Expected swipes %v, got %v", want, swipes)
	}
}

func TestSwipesIsolatedPerUser(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_ = repo.SaveSwipe(ctx, "alice", "sushi-42", true)
	_ = repo.SaveSwipe(ctx, "bob", "sushi-42", false)

	swipes, err := repo.GetSwipes(ctx, "alice")
	if err != nil {
		t.Fatalf("GetSwipes failed: %v", err)
	}
	if len(swipes) != 1 || !swipes["sushi-42"] {
		t.Errorf("Expected only alice's like, got %v", swipes)
	}
}

func TestWantsNotification(t *testing.T) {
	p := fullProfile()
	p.NotificationOptions = []string{"email", "telegram"}

	if !p.WantsNotification("telegram") {
		t.Error("Expected telegram notifications to be enabled")
	}
	if p.WantsNotification("sms") {
		t.Error("Did not expect sms notifications")
	}
}
