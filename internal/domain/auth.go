package domain

import "time"

// Session is a server-side login session for a staff user.
type Session struct {
	ID        string
	UserID    int64
	IssuedAt  time.Time
	ExpiresAt time.Time
}
