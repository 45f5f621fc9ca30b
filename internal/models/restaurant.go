// internal/models/restaurant.go
package models

import "encoding/json"

// RestaurantRecord is one catalog row kept as raw JSON. Its schema belongs to the
// catalog table; the service only passes it through to prompts and clients.
type RestaurantRecord = json.RawMessage

// Catalog is the full restaurant list for one turn.
type Catalog []RestaurantRecord

// Len reports the number of records.
func (c Catalog) Len() int {
	return len(c)
}

// MarshalIndented renders the catalog as indented JSON for prompt embedding.
func (c Catalog) MarshalIndented() (string, error) {
	if len(c) == 0 {
		return "[]", nil
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
