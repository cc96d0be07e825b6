package models

import "time"

// Scholarship is a funding listing with an application deadline.
type Scholarship struct {
	ID        string     `json:"id" db:"id"`
	Title     string     `json:"title" db:"title"`
	Sponsor   string     `json:"sponsor" db:"sponsor"`
	AmountUSD int        `json:"amount_usd" db:"amount_usd"` // 0 = varies
	URL       string     `json:"url,omitempty" db:"url"`
	Deadline  *time.Time `json:"deadline,omitempty" db:"deadline"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}
