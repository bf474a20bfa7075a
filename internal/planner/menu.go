package planner

import (
	"fmt"
	"strconv"
	"strings"
)

// Recipe is a single meal in the weekly menu.
type Recipe struct {
	DayOfTheWeek  string   `json:"day_of_the_week"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Difficulty    string   `json:"difficulty"`
	TimeToPrepare string   `json:"time_to_prepare"`
	Servings      int      `json:"servings"`
	Ingredients   []string `json:"ingredients"`
	Instructions  []string `json:"instructions"`
}

// GroceryItem is one entry on the shopping list for ingredients the user
// does not already have.
type GroceryItem struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Category string `json:"category"`
}

// WeeklyMenu is the full generation result: seven recipes plus the grocery
// list of missing ingredients.
type WeeklyMenu struct {
	Recipes     []Recipe      `json:"recipes"`
	GroceryList []GroceryItem `json:"grocery_list"`
}

// Validate checks the menu shape: exactly seven recipes, one per distinct
// day, with every field populated. Mismatches are never coerced.
func (m *WeeklyMenu) Validate() error {
	if len(m.Recipes) != 7 {
		return fmt.Errorf("expected 7 recipes, got %d", len(m.Recipes))
	}

	days := make(map[string]bool, 7)
	for i, r := range m.Recipes {
		switch {
		case r.DayOfTheWeek == "":
			return fmt.Errorf("recipe %d: missing day of the week", i)
		case r.Title == "":
			return fmt.Errorf("recipe %d: missing title", i)
		case r.Description == "":
			return fmt.Errorf("recipe %d: missing description", i)
		case r.Difficulty == "":
			return fmt.Errorf("recipe %d: missing difficulty", i)
		case r.TimeToPrepare == "":
			return fmt.Errorf("recipe %d: missing time to prepare", i)
		case r.Servings <= 0:
			return fmt.Errorf("recipe %d: invalid servings %d", i, r.Servings)
		case len(r.Ingredients) == 0:
			return fmt.Errorf("recipe %d: missing ingredients", i)
		case len(r.Instructions) == 0:
			return fmt.Errorf("recipe %d: missing instructions", i)
		}
		if days[r.DayOfTheWeek] {
			return fmt.Errorf("duplicate day %q", r.DayOfTheWeek)
		}
		days[r.DayOfTheWeek] = true
	}
	return nil
}

// DedupeGroceries merges grocery entries by exact name match, preserving
// first-seen order. Quantities with a matching unit are summed numerically;
// anything else is concatenated so no information is dropped. Units are
// never normalized.
func DedupeGroceries(items []GroceryItem) []GroceryItem {
	if len(items) < 2 {
		return items
	}

	merged := make([]GroceryItem, 0, len(items))
	index := make(map[string]int, len(items))
	for _, item := range items {
		pos, seen := index[item.Name]
		if !seen {
			index[item.Name] = len(merged)
			merged = append(merged, item)
			continue
		}
		merged[pos].Quantity = sumQuantities(merged[pos].Quantity, item.Quantity)
		if merged[pos].Category == "" {
			merged[pos].Category = item.Category
		}
	}
	return merged
}

// sumQuantities adds "500g" + "250g" into "750g". When the units differ or
// a quantity has no leading number, both values are kept joined by " + ".
func sumQuantities(a, b string) string {
	aNum, aUnit, aOK := splitQuantity(a)
	bNum, bUnit, bOK := splitQuantity(b)
	if aOK && bOK && aUnit == bUnit {
		return strconv.FormatFloat(aNum+bNum, 'f', -1, 64) + aUnit
	}
	return a + " + " + b
}

func splitQuantity(q string) (float64, string, bool) {
	q = strings.TrimSpace(q)
	end := 0
	for end < len(q) && (q[end] >= '0' && q[end] <= '9' || q[end] == '.') {
		end++
	}
	if end == 0 {
		return 0, "", false
	}
	num, err := strconv.ParseFloat(q[:end], 64)
	if err != nil {
		return 0, "", false
	}
	return num, q[end:], true
}
