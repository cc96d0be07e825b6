package models

import "time"

// Resource is a directory entry: a benefit program, service, or assistance
// listing.
type Resource struct {
	ID            string    `json:"id" db:"id"`
	Title         string    `json:"title" db:"title"`
	Description   string    `json:"description" db:"description"`
	Category      string    `json:"category" db:"category"` // housing | health | education | employment | general
	URL           string    `json:"url,omitempty" db:"url"`
	State         string    `json:"state,omitempty" db:"state"` // two-letter code; empty = nationwide
	TribeSpecific bool      `json:"tribe_specific" db:"tribe_specific"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}
