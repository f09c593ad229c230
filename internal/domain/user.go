package domain

import (
	"errors"
	"time"
)

var (
	// ErrUserNotFound indicates that the user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailAlreadyExists indicates that the email is taken.
	ErrEmailAlreadyExists = errors.New("email already exists")
	// ErrWrongPassword indicates that the password does not match.
	ErrWrongPassword = errors.New("wrong password")
)

// User is a registered wallet user.
type User struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

// CreateUserParams is the input data for user registration.
type CreateUserParams struct {
	Name           string
	Email          string
	HashedPassword string
}

// UserWithoutPassword is the user representation exposed to clients.
type UserWithoutPassword struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
