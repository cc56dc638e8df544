package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	intdb "bookingcrm/internal/db"
	"bookingcrm/internal/domain/models"
)

type LeadRepository struct {
	DB *sql.DB
}

func (r LeadRepository) List(ctx context.Context) ([]models.Lead, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, name, phone, email, source, agent_id, status_id, created_at
		FROM leads
		ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	out := []models.Lead{}
	for rows.Next() {
		var l models.Lead
		var agent, status sql.NullString
		if err := rows.Scan(&l.ID, &l.Name, &l.Phone, &l.Email, &l.Source, &agent, &status, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		l.AgentID = intdb.StringOrEmpty(agent)
		l.StatusID = intdb.StringOrEmpty(status)
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leads: %w", err)
	}
	return out, nil
}

func (r LeadRepository) Create(ctx context.Context, l models.Lead) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO leads (name, phone, email, source, agent_id, status_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		l.Name, l.Phone, l.Email, l.Source, intdb.NullIfEmpty(l.AgentID), intdb.NullIfEmpty(l.StatusID), l.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert lead: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert lead id: %w", err)
	}
	return id, nil
}

// BulkUpdate sets agent and/or status on the given leads. Empty values are left untouched.
func (r LeadRepository) BulkUpdate(ctx context.Context, ids []int64, agentID, statusID string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	sets := []string{}
	args := []any{}
	if agentID != "" {
		sets = append(sets, "agent_id=?")
		args = append(args, agentID)
	}
	if statusID != "" {
		sets = append(sets, "status_id=?")
		args = append(args, statusID)
	}
	if len(sets) == 0 {
		return 0, nil
	}
	args = append(args, intdb.InArgs(ids)...)

	query := fmt.Sprintf(`UPDATE leads SET %s WHERE id IN (%s)`, strings.Join(sets, ", "), intdb.Placeholders(len(ids)))
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("bulk update leads: %w", err)
	}
	return res.RowsAffected()
}

func (r LeadRepository) BulkDelete(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := fmt.Sprintf(`DELETE FROM leads WHERE id IN (%s)`, intdb.Placeholders(len(ids)))
	res, err := r.DB.ExecContext(ctx, query, intdb.InArgs(ids)...)
	if err != nil {
		return 0, fmt.Errorf("bulk delete leads: %w", err)
	}
	return res.RowsAffected()
}
