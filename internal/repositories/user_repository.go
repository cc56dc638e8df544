package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	intdb "bookingcrm/internal/db"
	"bookingcrm/internal/domain"
	"bookingcrm/internal/domain/models"

	"github.com/go-sql-driver/mysql"
)

const userColumns = `id, name, email, phone, password_hash, role, is_active, assigned_tl, created_at`

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

type UserRepository struct {
	DB *sql.DB
}

func scanUser(row rowScanner) (models.User, error) {
	var u models.User
	var tl sql.NullString
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &u.Role, &u.IsActive, &tl, &u.CreatedAt); err != nil {
		return models.User{}, err
	}
	u.AssignedTL = intdb.StringOrEmpty(tl)
	return u, nil
}

// List returns every user that has not been deleted.
func (r UserRepository) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+userColumns+` FROM users WHERE deleted_at IS NULL ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return out, nil
}

func (r UserRepository) Get(ctx context.Context, id int64) (models.User, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id=? AND deleted_at IS NULL LIMIT 1`, id)
	return r.one(row, fmt.Sprintf("get user %d", id))
}

func (r UserRepository) GetByEmail(ctx context.Context, email string) (models.User, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email=? AND deleted_at IS NULL LIMIT 1`, email)
	return r.one(row, "get user by email")
}

func (r UserRepository) one(row *sql.Row, op string) (models.User, error) {
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, domain.NotFoundError{Resource: "user", Err: err}
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

func (r UserRepository) Create(ctx context.Context, u models.User) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO users (name, email, phone, password_hash, role, is_active, assigned_tl)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.Name, u.Email, u.Phone, u.PasswordHash, u.Role, u.IsActive, intdb.NullIfEmpty(u.AssignedTL))
	if err != nil {
		return 0, wrapUserWriteErr("insert user", err)
	}
	return res.LastInsertId()
}

// Update writes every column except the password hash, which is only changed when set.
func (r UserRepository) Update(ctx context.Context, u models.User) error {
	query := `UPDATE users SET name=?, email=?, phone=?, role=?, is_active=?, assigned_tl=?`
	args := []any{u.Name, u.Email, u.Phone, u.Role, u.IsActive, intdb.NullIfEmpty(u.AssignedTL)}
	if u.PasswordHash != "" {
		query += `, password_hash=?`
		args = append(args, u.PasswordHash)
	}
	query += ` WHERE id=? AND deleted_at IS NULL`
	args = append(args, u.ID)

	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return wrapUserWriteErr(fmt.Sprintf("update user %d", u.ID), err)
	}
	return requireAffected(res, "user")
}

func (r UserRepository) SoftDelete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE users SET deleted_at=NOW(), is_active=0 WHERE id=? AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	return requireAffected(res, "user")
}

func wrapUserWriteErr(op string, err error) error {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		return domain.ConflictError{Resource: "user", Msg: "email already registered", Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}
