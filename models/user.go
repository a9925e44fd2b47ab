package models

import "time"

// User is an account holder. A user owns between one and five viewing
// profiles; watchlist data always hangs off a profile, never a user.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // bcrypt hash, never serialized
	ProfilePic   string    `json:"profilePic,omitempty"`
	IsAdmin      bool      `json:"isAdmin"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// MonthCount is one bucket of the admin registration statistics.
type MonthCount struct {
	Month string `json:"month"` // YYYY-MM
	Count int    `json:"count"`
}

// UserStats summarizes account registrations for the admin dashboard.
type UserStats struct {
	TotalUsers int          `json:"totalUsers"`
	PerMonth   []MonthCount `json:"perMonth"` // last twelve months
}
