package domain

import "time"

type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	CreatedAt    *time.Time `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at"`
}

type UserInput struct {
	Username     string
	Email        string
	PasswordHash string
}

// UserPatch holds the user fields to change; nil means keep.
type UserPatch struct {
	Username     *string
	Email        *string
	PasswordHash *string
}
