package domain

import "time"

// User is a staff account allowed to administer the member roster.
type User struct {
	ID              int64
	Name            string
	Email           string
	PasswordHash    string
	EmailVerifiedAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Verified reports whether the account confirmed its email address.
func (u *User) Verified() bool {
	return u != nil && u.EmailVerifiedAt != nil
}
