// internal/models/house_rules.go
package models

import "fmt"

const (
	// DefaultHandSize is the number of cards each hand is topped up to.
	DefaultHandSize = 6
	maxHandSize     = 10
)

// HouseRules holds the per-room options chosen at creation.
type HouseRules struct {
	HandSize         int  `json:"handSize"`         // replenishment target; 0 means DefaultHandSize
	AbilitiesEnabled bool `json:"abilitiesEnabled"` // allow use_ability actions
	MaxTablePairs    int  `json:"maxTablePairs"`    // cap on attacking cards per turn; 0 is unlimited
}

// DefaultHouseRules returns the rules a room gets when none are supplied.
func DefaultHouseRules() HouseRules {
	return HouseRules{HandSize: DefaultHandSize, AbilitiesEnabled: true}
}

// TargetHandSize returns the effective hand size.
func (h HouseRules) TargetHandSize() int {
	if h.HandSize <= 0 {
		return DefaultHandSize
	}
	return h.HandSize
}

// Update overlays the keys present in newRules. Missing or null keys keep their old value.
func (h *HouseRules) Update(newRules map[string]interface{}) error {
	assignBool := func(field *bool, key string) error {
		val, exists := newRules[key]
		if !exists || val == nil {
			return nil
		}
		b, ok := val.(bool)
		if !ok {
			return fmt.Errorf("invalid type for %s", key)
		}
		*field = b
		return nil
	}

	assignInt := func(field *int, key string, minVal, maxVal int) error {
		val, exists := newRules[key]
		if !exists || val == nil {
			return nil
		}
		var n int
		switch v := val.(type) {
		case float64: // encoding/json numbers
			n = int(v)
		case int:
			n = v
		default:
			return fmt.Errorf("invalid type for %s", key)
		}
		if n < minVal || n > maxVal {
			return fmt.Errorf("%s must be between %d and %d", key, minVal, maxVal)
		}
		*field = n
		return nil
	}

	if err := assignInt(&h.HandSize, "handSize", 1, maxHandSize); err != nil {
		return err
	}
	if err := assignBool(&h.AbilitiesEnabled, "abilitiesEnabled"); err != nil {
		return err
	}
	if err := assignInt(&h.MaxTablePairs, "maxTablePairs", 0, 32); err != nil {
		return err
	}
	return nil
}

// ParseRules applies rules on top of current and returns the result. current is not modified.
func ParseRules(rules map[string]interface{}, current HouseRules) (HouseRules, error) {
	parsed := current
	err := parsed.Update(rules)
	return parsed, err
}
