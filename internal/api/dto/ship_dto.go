package dto

import "time"

// CreateShipRequest payload.
type CreateShipRequest struct {
	Name      string  `json:"name"`
	SmallName *string `json:"small_name"`
	Type      *string `json:"type"`
	Status    *string `json:"status"`
	Captain   string  `json:"captain"`
	Username  string  `json:"username"`
	Password  string  `json:"password"`
	Crew      *int    `json:"crew"`
	Position  *string `json:"position"`
}

// UpdateShipRequest payload; absent fields are left unchanged.
type UpdateShipRequest struct {
	Name      *string `json:"name"`
	SmallName *string `json:"small_name"`
	Type      *string `json:"type"`
	Status    *string `json:"status"`
	Captain   *string `json:"captain"`
	Username  *string `json:"username"`
	Password  *string `json:"password"`
	Crew      *int    `json:"crew"`
	Position  *string `json:"position"`
}

// ShipResponse is the public view of a ship. The password hash is never exposed.
type ShipResponse struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	SmallName *string    `json:"small_name"`
	Type      *string    `json:"type"`
	Status    *string    `json:"status"`
	Captain   string     `json:"captain"`
	Username  string     `json:"username"`
	Crew      *int       `json:"crew"`
	Position  *string    `json:"position"`
	LastLogin *time.Time `json:"last_login"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
