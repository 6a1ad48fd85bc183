// Package models defines the persistent records managed by the server.
package models

import "time"

// User is one registered identity. PasswordHash holds a bcrypt digest;
// the plaintext password never reaches storage or logs.
type User struct {
	ID            string
	Name          string
	Email         string
	PasswordHash  []byte
	EmailVerified bool
	CreatedAt     time.Time
}
