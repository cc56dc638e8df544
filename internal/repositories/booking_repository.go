package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	intdb "bookingcrm/internal/db"
	"bookingcrm/internal/domain"
	"bookingcrm/internal/domain/models"
)

const bookingColumns = `id, customer_name, contact_number, email, project_name, unit, size,
	booking_date, status, reference_role,
	ref_employee, ref_tlcp, ref_agm, ref_gm, ref_avp, ref_vp, ref_as, ref_vertical,
	bsp, gst, other_charges, tsp, payment_received, next_payment, payment_to_dev,
	COALESCE(remark, ''), created_at`

type BookingRepository struct {
	DB *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (models.Booking, error) {
	var b models.Booking
	var refs [8]sql.NullString
	err := row.Scan(
		&b.ID, &b.CustomerName, &b.ContactNumber, &b.Email, &b.ProjectName, &b.Unit, &b.Size,
		&b.BookingDate, &b.Status, &b.Reference.Role,
		&refs[0], &refs[1], &refs[2], &refs[3], &refs[4], &refs[5], &refs[6], &refs[7],
		&b.BSP, &b.GST, &b.OtherCharges, &b.TSP, &b.PaymentReceived, &b.NextPayment, &b.PaymentToDev,
		&b.Remark, &b.CreatedAt,
	)
	if err != nil {
		return models.Booking{}, err
	}
	for i, field := range models.ReferenceFields {
		b.Reference.Set(field, intdb.StringOrEmpty(refs[i]))
	}
	return b, nil
}

func bookingArgs(b models.Booking) []any {
	args := []any{
		b.CustomerName, b.ContactNumber, b.Email, b.ProjectName, b.Unit, b.Size,
		b.BookingDate, b.Status, b.Reference.Role,
	}
	for _, field := range models.ReferenceFields {
		args = append(args, intdb.NullIfEmpty(b.Reference.Get(field)))
	}
	return append(args,
		b.BSP, b.GST, b.OtherCharges, b.TSP, b.PaymentReceived, b.NextPayment, b.PaymentToDev,
		intdb.NullIfEmpty(b.Remark),
	)
}

// List returns every booking, newest booking date first.
func (r BookingRepository) List(ctx context.Context) ([]models.Booking, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+bookingColumns+` FROM bookings ORDER BY booking_date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	out := []models.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings: %w", err)
	}
	return out, nil
}

func (r BookingRepository) Get(ctx context.Context, id int64) (models.Booking, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=? LIMIT 1`, id)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Booking{}, domain.NotFoundError{Resource: "booking", Err: err}
		}
		return models.Booking{}, fmt.Errorf("get booking %d: %w", id, err)
	}
	return b, nil
}

func (r BookingRepository) Create(ctx context.Context, b models.Booking) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO bookings (
			customer_name, contact_number, email, project_name, unit, size,
			booking_date, status, reference_role,
			ref_employee, ref_tlcp, ref_agm, ref_gm, ref_avp, ref_vp, ref_as, ref_vertical,
			bsp, gst, other_charges, tsp, payment_received, next_payment, payment_to_dev,
			remark
		) VALUES (`+intdb.Placeholders(25)+`)`, bookingArgs(b)...)
	if err != nil {
		return 0, fmt.Errorf("insert booking: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert booking id: %w", err)
	}
	return id, nil
}

func (r BookingRepository) Update(ctx context.Context, b models.Booking) error {
	args := append(bookingArgs(b), b.ID)
	res, err := r.DB.ExecContext(ctx, `
		UPDATE bookings SET
			customer_name=?, contact_number=?, email=?, project_name=?, unit=?, size=?,
			booking_date=?, status=?, reference_role=?,
			ref_employee=?, ref_tlcp=?, ref_agm=?, ref_gm=?, ref_avp=?, ref_vp=?, ref_as=?, ref_vertical=?,
			bsp=?, gst=?, other_charges=?, tsp=?, payment_received=?, next_payment=?, payment_to_dev=?,
			remark=?
		WHERE id=?`, args...)
	if err != nil {
		return fmt.Errorf("update booking %d: %w", b.ID, err)
	}
	return requireAffected(res, "booking")
}

func (r BookingRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM bookings WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete booking %d: %w", id, err)
	}
	return requireAffected(res, "booking")
}

// requireAffected turns a zero-row write into NotFoundError.
func requireAffected(res sql.Result, resource string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", resource, err)
	}
	if n == 0 {
		return domain.NotFoundError{Resource: resource}
	}
	return nil
}
