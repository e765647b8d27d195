package models

import "time"

// User represents a row in the PostgreSQL users table.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  string    `json:"-"` // bcrypt hash, never serialize
	CreatedAt time.Time `json:"created_at"`
}

// RegisterForm is the form body for POST /register.
type RegisterForm struct {
	Username string
	Email    string
	Password string
}

// LoginForm is the form body for POST /login.
type LoginForm struct {
	Email    string
	Password string
}
