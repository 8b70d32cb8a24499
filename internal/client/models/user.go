// Package models defines client-side data models used by the GophAuth CLI.
package models

import "time"

// User is the session user as the client knows it. It never holds a
// password or hash.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
