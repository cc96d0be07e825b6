package models

import "time"

// User is an application account. Identity lives with the external provider;
// this row maps the provider subject to a role and affiliations.
type User struct {
	ID          string     `json:"id" db:"id"`
	AuthSubject string     `json:"-" db:"auth_subject"` // identity-provider subject id
	Email       string     `json:"email" db:"email"`
	Role        string     `json:"role" db:"role"` // user | admin
	TribeID     *string    `json:"tribe_id,omitempty" db:"tribe_id"`
	State       *string    `json:"state,omitempty" db:"state"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	DeletedAt   *time.Time `json:"-" db:"deleted_at"` // soft delete
}

// IsDeleted returns true if the user is soft-deleted. Deleted users never
// authenticate.
func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}
