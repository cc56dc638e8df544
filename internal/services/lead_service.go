package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"bookingcrm/internal/domain"
	"bookingcrm/internal/domain/models"
	"bookingcrm/internal/listing"
	"bookingcrm/internal/utils"
)

var LeadSearchFields = []string{"name", "phone", "email"}

type LeadStore interface {
	List(ctx context.Context) ([]models.Lead, error)
	Create(ctx context.Context, l models.Lead) (int64, error)
	BulkUpdate(ctx context.Context, ids []int64, agentID, statusID string) (int64, error)
	BulkDelete(ctx context.Context, ids []int64) (int64, error)
}

// LeadService lists leads and applies the bulk actions of the leads table.
// It satisfies listing.BulkEditor.
type LeadService struct {
	Leads     LeadStore
	Reference listing.ReferenceSource
	Now       func() time.Time
}

type LeadInput struct {
	Name     string `json:"name" validate:"required,max=191"`
	Phone    string `json:"phone" validate:"required,max=32"`
	Email    string `json:"email" validate:"omitempty,email,max=191"`
	Source   string `json:"source" validate:"max=64"`
	AgentID  string `json:"agent_id" validate:"max=32"`
	StatusID string `json:"status_id" validate:"max=32"`
}

func (s LeadService) List(ctx context.Context, q listing.Query) (Page[models.Lead], error) {
	all, err := s.Leads.List(ctx)
	if err != nil {
		return Page[models.Lead]{}, domain.InternalError{Msg: "load leads", Err: err}
	}
	return runList(all, models.Lead.ToRecord, q, LeadSearchFields)
}

// Filtered returns every lead matching the filters and search text, unpaged.
func (s LeadService) Filtered(ctx context.Context, criteria listing.Criteria, search string) ([]models.Lead, error) {
	if err := criteria.Validate(); err != nil {
		return nil, err
	}
	all, err := s.Leads.List(ctx)
	if err != nil {
		return nil, domain.InternalError{Msg: "load leads", Err: err}
	}
	out := make([]models.Lead, 0, len(all))
	for _, l := range all {
		if listing.Matches(l.ToRecord(), criteria, search, LeadSearchFields) {
			out = append(out, l)
		}
	}
	return out, nil
}

// Create adds a lead. Agent and status are optional but must name known entries.
func (s LeadService) Create(ctx context.Context, in LeadInput) (models.Lead, error) {
	in.Name = utils.NormalizeSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.TrimSpace(in.Email)
	in.Source = strings.TrimSpace(in.Source)
	in.AgentID = strings.TrimSpace(in.AgentID)
	in.StatusID = strings.TrimSpace(in.StatusID)
	if err := validateInput(in); err != nil {
		return models.Lead{}, err
	}
	if err := listing.CheckReference(ctx, s.Reference, listing.BulkUpdate{AgentID: in.AgentID, StatusID: in.StatusID}); err != nil {
		return models.Lead{}, err
	}

	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	l := models.Lead{
		Name:      in.Name,
		Phone:     in.Phone,
		Email:     in.Email,
		Source:    in.Source,
		AgentID:   in.AgentID,
		StatusID:  in.StatusID,
		CreatedAt: now,
	}
	id, err := s.Leads.Create(ctx, l)
	if err != nil {
		return models.Lead{}, domain.InternalError{Msg: "create lead", Err: err}
	}
	l.ID = id
	utils.LogEvent(ctx, "leads", "create", fmt.Sprintf("lead_id=%d source=%q", id, l.Source))
	return l, nil
}

func (s LeadService) Fetcher() listing.Fetcher {
	return listing.FetcherFunc(func(ctx context.Context, q listing.Query) listing.Result {
		page, err := s.List(ctx, q)
		if err != nil {
			return listing.Failure{Message: err.Error()}
		}
		return pageResult(page, models.Lead.ToRecord)
	})
}

// Reassign validates a bulk update against the reference lists and applies it.
func (s LeadService) Reassign(ctx context.Context, ids []string, u listing.BulkUpdate) (int64, error) {
	if err := listing.ValidateBulkUpdate(ctx, s.Reference, ids, u); err != nil {
		return 0, err
	}
	return s.update(ctx, ids, u)
}

// Remove deletes the selected leads.
func (s LeadService) Remove(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, domain.ValidationError{Field: "ids", Msg: "select at least one row"}
	}
	parsed, err := parseIDs(ids)
	if err != nil {
		return 0, err
	}
	n, err := s.Leads.BulkDelete(ctx, parsed)
	if err != nil {
		return 0, domain.InternalError{Msg: "delete leads", Err: err}
	}
	utils.LogEvent(ctx, "leads", "bulk_delete", fmt.Sprintf("requested=%d deleted=%d", len(ids), n))
	return n, nil
}

func (s LeadService) BulkUpdate(ctx context.Context, ids []string, u listing.BulkUpdate) error {
	_, err := s.update(ctx, ids, u)
	return err
}

func (s LeadService) BulkDelete(ctx context.Context, ids []string) error {
	_, err := s.Remove(ctx, ids)
	return err
}

func (s LeadService) update(ctx context.Context, ids []string, u listing.BulkUpdate) (int64, error) {
	parsed, err := parseIDs(ids)
	if err != nil {
		return 0, err
	}
	n, err := s.Leads.BulkUpdate(ctx, parsed, u.AgentID, u.StatusID)
	if err != nil {
		return 0, domain.InternalError{Msg: "update leads", Err: err}
	}
	utils.LogEvent(ctx, "leads", "bulk_update",
		fmt.Sprintf("requested=%d updated=%d agent=%q status=%q", len(ids), n, u.AgentID, u.StatusID))
	return n, nil
}

func parseIDs(ids []string) ([]int64, error) {
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, raw := range ids {
		id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil || id <= 0 {
			return nil, domain.ValidationError{Field: "ids", Msg: fmt.Sprintf("invalid id %q", raw)}
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}
