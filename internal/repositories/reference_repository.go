package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"bookingcrm/internal/domain"
	"bookingcrm/internal/listing"
)

// ReferenceRepository serves the agent and lead status pick lists.
type ReferenceRepository struct {
	DB *sql.DB
}

// Agents lists active, non-admin users.
func (r ReferenceRepository) Agents(ctx context.Context) ([]listing.ReferenceItem, error) {
	return r.items(ctx, `
		SELECT CAST(id AS CHAR), name
		FROM users
		WHERE deleted_at IS NULL AND is_active = 1 AND role <> ?
		ORDER BY name`, domain.RoleAdmin)
}

func (r ReferenceRepository) Statuses(ctx context.Context) ([]listing.ReferenceItem, error) {
	return r.items(ctx, `SELECT id, name FROM lead_statuses ORDER BY name`)
}

func (r ReferenceRepository) items(ctx context.Context, query string, args ...any) ([]listing.ReferenceItem, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("reference query: %w", err)
	}
	defer rows.Close()

	out := []listing.ReferenceItem{}
	for rows.Next() {
		var it listing.ReferenceItem
		if err := rows.Scan(&it.ID, &it.Name); err != nil {
			return nil, fmt.Errorf("scan reference: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
