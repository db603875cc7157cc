package models

import "time"

// User is a registered account. PasswordHash and Salt are replaced together
// on password change, never edited separately.
type User struct {
	ID           string
	UserName     string
	PasswordHash string
	Salt         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
