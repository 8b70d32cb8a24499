package models

import "time"

// User is the persisted account record. PasswordHash holds a bcrypt hash and
// never the plaintext password.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
