// Package pantry stores each user's current ingredients and their
// accumulated recipe feedback.
package pantry

// Ingredient is a single pantry item as extracted from a photo.
type Ingredient struct {
	Name            string `json:"name"`
	EstimatedExpiry string `json:"estimated_expiry"`
}

// Feedback is one user comment on a previously generated recipe.
type Feedback struct {
	RecipeTitle string `json:"recipeTitle"`
	Feedback    string `json:"feedback"`
}
