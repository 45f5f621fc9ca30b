// internal/models/preference.go
package models

// Unspecified is the sentinel written in place of an absent preference field.
const Unspecified = "指定なし"

// Preference holds the optional dining preferences chosen at session start.
// An all-empty Preference means "no preference".
type Preference struct {
	Budget    string `json:"budget,omitempty"`
	Location  string `json:"location,omitempty"`
	Cuisine   string `json:"cuisine,omitempty"`
	Situation string `json:"situation,omitempty"`
}
