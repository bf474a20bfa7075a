// Package fitbit reads a user's recent step counts and reduces them to a
// coarse activity tier used to steer meal generation.
package fitbit

import (
	"fmt"
	"net/url"
)

// ActivityLevel is a coarse bucket derived from average daily steps.
type ActivityLevel string

const (
	LevelVeryActive ActivityLevel = "very active"
	LevelActive     ActivityLevel = "active"
	LevelSedentary  ActivityLevel = "sedentary"
)

// Tier pairs an activity level with its nutrition guidance.
type Tier struct {
	Level    ActivityLevel
	Guidance string
}

// Classify maps an average daily step count to a tier. Thresholds are
// inclusive lower bounds.
func Classify(avgSteps int) Tier {
	switch {
	case avgSteps >= 10000:
		return Tier{Level: LevelVeryActive, Guidance: "High-energy meals with complex carbs"}
	case avgSteps >= 7000:
		return Tier{Level: LevelActive, Guidance: "Balanced protein-rich meals"}
	default:
		return Tier{Level: LevelSedentary, Guidance: "Light, nutrient-dense meals"}
	}
}

// Credential is the parsed form of the stored Fitbit OAuth callback URL.
type Credential struct {
	AccessToken string
	UserID      string
}

// ParseCredential extracts the access token and external user id from the
// callback URL saved with the preference form.
func ParseCredential(raw string) (Credential, error) {
	if raw == "" {
		return Credential{}, fmt.Errorf("no credential stored")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Credential{}, fmt.Errorf("failed to parse credential: %w", err)
	}

	// The callback carries the grant in the query, and some clients put it
	// in the fragment instead.
	params := u.Query()
	if params.Get("access_token") == "" && u.Fragment != "" {
		if fragParams, err := url.ParseQuery(u.Fragment); err == nil {
			params = fragParams
		}
	}

	cred := Credential{
		AccessToken: params.Get("access_token"),
		UserID:      params.Get("user_id"),
	}
	if cred.AccessToken == "" || cred.UserID == "" {
		return Credential{}, fmt.Errorf("credential is missing access_token or user_id")
	}
	return cred, nil
}
