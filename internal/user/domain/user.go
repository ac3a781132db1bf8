package domain

import "time"

// User is keyed by username; the record is never mutated after creation.
type User struct {
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}
