package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	RoleAdmin = "Admin"
	RoleUser  = "User"
)

type User struct {
	bun.BaseModel `bun:"table:users"`

	ID        string    `bun:"id,pk" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	Email     string    `bun:"email,unique,notnull" json:"email"`
	Role      string    `bun:"role,notnull" json:"role"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"createdAt"`
}

type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (u *User) Summary() *UserSummary {
	return &UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}

// Favorite links a user to an event they starred. (user_id, event_id) is unique.
type Favorite struct {
	bun.BaseModel `bun:"table:user_favorites"`

	UserID    string    `bun:"user_id,pk" json:"userId"`
	EventID   string    `bun:"event_id,pk" json:"eventId"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"createdAt"`
}

type FavoriteRequest struct {
	EventID string `json:"eventId" validate:"required,uuid"`
}

type FavoritesResponse struct {
	Message   string   `json:"message,omitempty"`
	Favorites []string `json:"favorites"`
}

type FavoriteEventsResponse struct {
	Favorites []Event `json:"favorites"`
}
