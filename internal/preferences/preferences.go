// Package preferences stores each user's dietary profile from the
// preference form, plus the optional Fitbit credential.
package preferences

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Profile is a user's saved preference form. All fields except the Fitbit
// credential are required together; partial profiles are rejected at write
// time.
type Profile struct {
	Diet                string   `json:"diet" validate:"required"`
	Budget              string   `json:"budget" validate:"required"`
	Cuisines            []string `json:"cuisines" validate:"required,min=1"`
	Allergens           []string `json:"allergens" validate:"required,min=1"`
	KitchenEquipment    []string `json:"kitchen_equipment" validate:"required,min=1"`
	HouseholdSize       int      `json:"number_of_people" validate:"required,gt=0"`
	NotificationOptions []string `json:"notification_options" validate:"required,min=1"`
	FitbitAccessToken   string   `json:"fitbit_access_token,omitempty"`
}

// Validate checks that the profile is complete.
func (p *Profile) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid preference profile: %w", err)
	}
	return nil
}

// WantsNotification reports whether the profile opted into the given
// notification channel.
func (p *Profile) WantsNotification(channel string) bool {
	for _, opt := range p.NotificationOptions {
		if opt == channel {
			return true
		}
	}
	return false
}
