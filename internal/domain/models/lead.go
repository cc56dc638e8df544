package models

import (
	"strconv"
	"time"

	"bookingcrm/internal/listing"
)

type Lead struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Source    string    `json:"source"`
	AgentID   string    `json:"agent_id"`
	StatusID  string    `json:"status_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (l Lead) ToRecord() listing.Record {
	fields := map[string]any{
		"name":   l.Name,
		"phone":  l.Phone,
		"email":  l.Email,
		"source": l.Source,
	}
	// unassigned leads carry no agent/status so that filters on them fail
	if l.AgentID != "" {
		fields["agent_id"] = l.AgentID
	}
	if l.StatusID != "" {
		fields["status_id"] = l.StatusID
	}
	if !l.CreatedAt.IsZero() {
		fields["created_at"] = l.CreatedAt
	}
	return listing.Record{ID: strconv.FormatInt(l.ID, 10), Fields: fields}
}
