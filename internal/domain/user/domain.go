package user

import (
	"errors"
	"time"
)

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	RegisteredAt time.Time `json:"registeredAt"`
}

// RegisteredEvent is published through the outbox after sign-up.
type RegisteredEvent struct {
	UserID       string    `json:"userId"`
	Username     string    `json:"username"`
	RegisteredAt time.Time `json:"registeredAt"`
}

var (
	ErrNotFound      = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already taken")
)
