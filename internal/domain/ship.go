package domain

import "time"

// Ship is a vessel account. A ship stays valid for as long as its row exists.
type Ship struct {
	ID           int64
	Name         string
	SmallName    *string
	Type         *string
	Status       *string
	Captain      string
	Username     string
	PasswordHash string
	Crew         *int
	Position     *string
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
