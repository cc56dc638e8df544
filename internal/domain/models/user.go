package models

import (
	"strconv"
	"time"

	"bookingcrm/internal/listing"
)

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"` // never sent to the dashboard
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	AssignedTL   string    `json:"assigned_tl,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// IDString is the id as the dashboard selectors carry it.
func (u User) IDString() string {
	return strconv.FormatInt(u.ID, 10)
}

func (u User) ToRecord() listing.Record {
	fields := map[string]any{
		"name":      u.Name,
		"email":     u.Email,
		"phone":     u.Phone,
		"role":      u.Role,
		"is_active": u.IsActive,
	}
	if u.AssignedTL != "" {
		fields["assigned_tl"] = u.AssignedTL
	}
	return listing.Record{ID: u.IDString(), Fields: fields}
}

// UserOption is one entry of a role selector.
type UserOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}
