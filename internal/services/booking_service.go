package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"bookingcrm/internal/domain"
	"bookingcrm/internal/domain/models"
	"bookingcrm/internal/listing"
	"bookingcrm/internal/utils"

	"github.com/shopspring/decimal"
)

// BookingSearchFields are matched by the free-text search box.
var BookingSearchFields = []string{"name", "contact_number"}

type BookingStore interface {
	List(ctx context.Context) ([]models.Booking, error)
	Get(ctx context.Context, id int64) (models.Booking, error)
	Create(ctx context.Context, b models.Booking) (int64, error)
	Update(ctx context.Context, b models.Booking) error
	Delete(ctx context.Context, id int64) error
}

type UserLister interface {
	List(ctx context.Context) ([]models.User, error)
}

type BookingService struct {
	Bookings  BookingStore
	Users     UserLister
	Hierarchy *listing.Hierarchy
}

type BookingInput struct {
	CustomerName    string           `json:"name" validate:"required,max=191"`
	ContactNumber   string           `json:"contact_number" validate:"required,max=32"`
	Email           string           `json:"email" validate:"omitempty,email"`
	ProjectName     string           `json:"project_name" validate:"max=191"`
	Unit            string           `json:"unit" validate:"max=64"`
	Size            string           `json:"size" validate:"max=64"`
	BookingDate     string           `json:"booking_date" validate:"required,datetime=2006-01-02"`
	Status          string           `json:"status" validate:"omitempty,oneof=Pending Complete Cancelled"`
	Reference       models.Reference `json:"reference"`
	BSP             decimal.Decimal  `json:"bsp"`
	GST             decimal.Decimal  `json:"gst"`
	OtherCharges    decimal.Decimal  `json:"other_charges"`
	TSP             decimal.Decimal  `json:"tsp"`
	PaymentReceived decimal.Decimal  `json:"payment_received"`
	NextPayment     decimal.Decimal  `json:"next_payment"`
	PaymentToDev    decimal.Decimal  `json:"payment_to_dev"`
	Remark          string           `json:"remark"`
}

// ReferenceForm is the state of the booking form's reference selectors.
type ReferenceForm struct {
	Selected    string                         `json:"selected"`
	Slots       []listing.SlotState            `json:"slots"`
	UsersByRole map[string][]models.UserOption `json:"users_by_role"`
}

func (s BookingService) hierarchy() *listing.Hierarchy {
	if s.Hierarchy != nil {
		return s.Hierarchy
	}
	return listing.DefaultHierarchy
}

// List returns one page of bookings matching q.
func (s BookingService) List(ctx context.Context, q listing.Query) (Page[models.Booking], error) {
	all, err := s.Bookings.List(ctx)
	if err != nil {
		return Page[models.Booking]{}, domain.InternalError{Msg: "load bookings", Err: err}
	}
	return runList(all, models.Booking.ToRecord, q, BookingSearchFields)
}

// Filtered returns every booking matching the filters and search text, unpaged.
func (s BookingService) Filtered(ctx context.Context, criteria listing.Criteria, search string) ([]models.Booking, error) {
	if err := criteria.Validate(); err != nil {
		return nil, err
	}
	all, err := s.Bookings.List(ctx)
	if err != nil {
		return nil, domain.InternalError{Msg: "load bookings", Err: err}
	}
	out := make([]models.Booking, 0, len(all))
	for _, b := range all {
		if listing.Matches(b.ToRecord(), criteria, search, BookingSearchFields) {
			out = append(out, b)
		}
	}
	return out, nil
}

// Fetcher serves the list controller straight from the store.
func (s BookingService) Fetcher() listing.Fetcher {
	return listing.FetcherFunc(func(ctx context.Context, q listing.Query) listing.Result {
		page, err := s.List(ctx, q)
		if err != nil {
			return listing.Failure{Message: err.Error()}
		}
		return pageResult(page, models.Booking.ToRecord)
	})
}

func (s BookingService) Get(ctx context.Context, id int64) (models.Booking, error) {
	if id <= 0 {
		return models.Booking{}, domain.ValidationError{Field: "id", Msg: "must be positive"}
	}
	return s.Bookings.Get(ctx, id)
}

func (s BookingService) Create(ctx context.Context, in BookingInput) (models.Booking, error) {
	b, err := s.fromInput(ctx, in)
	if err != nil {
		return models.Booking{}, err
	}
	id, err := s.Bookings.Create(ctx, b)
	if err != nil {
		return models.Booking{}, domain.InternalError{Msg: "create booking", Err: err}
	}
	b.ID = id
	utils.LogEvent(ctx, "bookings", "create", fmt.Sprintf("booking_id=%d status=%s", id, b.Status))
	return b, nil
}

func (s BookingService) Update(ctx context.Context, id int64, in BookingInput) (models.Booking, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return models.Booking{}, err
	}
	b, err := s.fromInput(ctx, in)
	if err != nil {
		return models.Booking{}, err
	}
	b.ID = existing.ID
	b.CreatedAt = existing.CreatedAt
	if err := s.Bookings.Update(ctx, b); err != nil {
		if domain.IsNotFound(err) {
			return models.Booking{}, err
		}
		return models.Booking{}, domain.InternalError{Msg: "update booking", Err: err}
	}
	utils.LogEvent(ctx, "bookings", "update", fmt.Sprintf("booking_id=%d status=%s", id, b.Status))
	return b, nil
}

func (s BookingService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return domain.ValidationError{Field: "id", Msg: "must be positive"}
	}
	if err := s.Bookings.Delete(ctx, id); err != nil {
		return err
	}
	utils.LogEvent(ctx, "bookings", "delete", fmt.Sprintf("booking_id=%d", id))
	return nil
}

// ReferenceForm selects role (when set) and reports which selectors are locked,
// along with the active users that can fill each one.
func (s BookingService) ReferenceForm(ctx context.Context, role, value string) (ReferenceForm, error) {
	resolver := listing.NewResolver(s.hierarchy())
	if role = strings.TrimSpace(role); role != "" {
		if _, err := resolver.SelectRole(role, strings.TrimSpace(value)); err != nil {
			return ReferenceForm{}, err
		}
	}
	users, err := s.Users.List(ctx)
	if err != nil {
		return ReferenceForm{}, domain.InternalError{Msg: "load users", Err: err}
	}

	byRole := map[string][]models.UserOption{}
	for _, slot := range s.hierarchy().Slots() {
		byRole[slot.Role] = []models.UserOption{}
	}
	for _, u := range users {
		if !u.IsActive {
			continue
		}
		if _, ok := byRole[u.Role]; !ok {
			continue
		}
		byRole[u.Role] = append(byRole[u.Role], models.UserOption{Value: u.IDString(), Label: u.Name})
	}
	for _, opts := range byRole {
		sort.Slice(opts, func(i, j int) bool { return opts[i].Label < opts[j].Label })
	}
	return ReferenceForm{Selected: resolver.Selected(), Slots: resolver.Slots(), UsersByRole: byRole}, nil
}

func (s BookingService) fromInput(ctx context.Context, in BookingInput) (models.Booking, error) {
	in.CustomerName = utils.NormalizeSpace(in.CustomerName)
	in.ContactNumber = strings.TrimSpace(in.ContactNumber)
	in.Email = strings.TrimSpace(in.Email)
	if err := validateInput(in); err != nil {
		return models.Booking{}, err
	}
	date, err := utils.ParseDate(in.BookingDate)
	if err != nil {
		return models.Booking{}, domain.ValidationError{Field: "booking_date", Msg: "must be YYYY-MM-DD", Err: err}
	}
	money := map[string]decimal.Decimal{
		"bsp": in.BSP, "gst": in.GST, "other_charges": in.OtherCharges, "tsp": in.TSP,
		"payment_received": in.PaymentReceived, "next_payment": in.NextPayment, "payment_to_dev": in.PaymentToDev,
	}
	for field, v := range money {
		if v.IsNegative() {
			return models.Booking{}, domain.ValidationError{Field: field, Msg: "must not be negative"}
		}
	}
	if err := s.checkReference(ctx, in.Reference); err != nil {
		return models.Booking{}, err
	}

	status := in.Status
	if status == "" {
		status = domain.StatusPending
	}
	return models.Booking{
		CustomerName:    in.CustomerName,
		ContactNumber:   in.ContactNumber,
		Email:           in.Email,
		ProjectName:     strings.TrimSpace(in.ProjectName),
		Unit:            strings.TrimSpace(in.Unit),
		Size:            strings.TrimSpace(in.Size),
		BookingDate:     date,
		Status:          status,
		Reference:       in.Reference,
		BSP:             in.BSP,
		GST:             in.GST,
		OtherCharges:    in.OtherCharges,
		TSP:             in.TSP,
		PaymentReceived: in.PaymentReceived,
		NextPayment:     in.NextPayment,
		PaymentToDev:    in.PaymentToDev,
		Remark:          strings.TrimSpace(in.Remark),
	}, nil
}

// checkReference applies the reporting chain to a booking reference: the
// selected role's slot must be filled, slots junior to it must be empty, and
// every filled slot must name an active user holding that slot's role.
func (s BookingService) checkReference(ctx context.Context, ref models.Reference) error {
	h := s.hierarchy()
	if ref.Role == "" {
		for _, slot := range h.Slots() {
			if ref.Get(slot.Field) != "" {
				return domain.ValidationError{Field: "reference.role", Msg: "select a role before assigning people"}
			}
		}
		return nil
	}

	selected, err := h.Slot(ref.Role)
	if err != nil {
		return err
	}
	if ref.Get(selected.Field) == "" {
		return domain.ValidationError{Field: "reference." + selected.Field, Msg: "is required for role " + ref.Role}
	}
	disabled, err := h.DisabledBy(ref.Role)
	if err != nil {
		return err
	}
	for _, role := range disabled {
		slot, _ := h.Slot(role)
		if ref.Get(slot.Field) != "" {
			return domain.ValidationError{Field: "reference." + slot.Field, Msg: "is locked when " + ref.Role + " is selected"}
		}
	}

	users, err := s.Users.List(ctx)
	if err != nil {
		return domain.InternalError{Msg: "load users", Err: err}
	}
	byID := make(map[string]models.User, len(users))
	for _, u := range users {
		byID[u.IDString()] = u
	}
	for _, slot := range h.Slots() {
		id := ref.Get(slot.Field)
		if id == "" {
			continue
		}
		u, ok := byID[id]
		if !ok || !u.IsActive || u.Role != slot.Role {
			return domain.ValidationError{Field: "reference." + slot.Field, Msg: "must be an active " + slot.Role}
		}
	}
	return nil
}
