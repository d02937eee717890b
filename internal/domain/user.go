package domain

import "time"

type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Phone        string
	Address      string
	IsAdmin      bool
	CreatedAt    time.Time
}

type Feedback struct {
	ID        int64
	UserID    int64
	Comment   string
	CreatedAt time.Time
}
