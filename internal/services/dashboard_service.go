package services

import (
	"context"
	"sort"
	"time"

	"bookingcrm/internal/domain"
	"bookingcrm/internal/domain/models"
	"bookingcrm/internal/listing"
	"bookingcrm/internal/utils"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type BookingLister interface {
	List(ctx context.Context) ([]models.Booking, error)
}

type DashboardService struct {
	Bookings  BookingLister
	Users     UserLister
	Hierarchy *listing.Hierarchy
	Now       func() time.Time
}

type DashboardSummary struct {
	TotalBookings       int               `json:"total_bookings"`
	BookingsThisYear    int               `json:"bookings_this_year"`
	BookingsThisMonth   int               `json:"bookings_this_month"`
	CancelledBookings   int               `json:"cancelled_bookings"`
	PendingAmount       decimal.Decimal   `json:"pending_amount"`
	CurrentMonthPending decimal.Decimal   `json:"current_month_pending"`
	TotalRevenue        decimal.Decimal   `json:"total_revenue"`
	NetRevenue          decimal.Decimal   `json:"net_revenue"`
	Performance         []RolePerformance `json:"performance"`
}

// RolePerformance is the booking value credited to each holder of one role.
type RolePerformance struct {
	Role    string              `json:"role"`
	Members []MemberPerformance `json:"members"`
}

type MemberPerformance struct {
	UserID    string          `json:"user_id"`
	Name      string          `json:"name"`
	Bookings  int             `json:"bookings"`
	ThisMonth decimal.Decimal `json:"this_month"`
	ThisYear  decimal.Decimal `json:"this_year"`
}

func (s DashboardService) Summary(ctx context.Context) (DashboardSummary, error) {
	var (
		bookings []models.Booking
		users    []models.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		bookings, err = s.Bookings.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		users, err = s.Users.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return DashboardSummary{}, domain.InternalError{Msg: "load dashboard", Err: err}
	}

	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	h := s.Hierarchy
	if h == nil {
		h = listing.DefaultHierarchy
	}
	return summarize(bookings, users, h, now), nil
}

func summarize(bookings []models.Booking, users []models.User, h *listing.Hierarchy, now time.Time) DashboardSummary {
	out := DashboardSummary{
		TotalBookings:       len(bookings),
		PendingAmount:       decimal.Zero,
		CurrentMonthPending: decimal.Zero,
		TotalRevenue:        decimal.Zero,
		NetRevenue:          decimal.Zero,
	}
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.IDString()] = u.Name
	}

	members := map[string]map[string]*MemberPerformance{}
	for _, b := range bookings {
		thisMonth := utils.SameMonth(b.BookingDate, now)
		thisYear := utils.SameYear(b.BookingDate, now)
		if thisYear {
			out.BookingsThisYear++
		}
		if thisMonth {
			out.BookingsThisMonth++
		}
		switch b.Status {
		case domain.StatusCancelled:
			out.CancelledBookings++
			continue
		case domain.StatusPending:
			out.PendingAmount = out.PendingAmount.Add(b.Outstanding())
			if thisMonth {
				out.CurrentMonthPending = out.CurrentMonthPending.Add(b.Outstanding())
			}
		}
		out.TotalRevenue = out.TotalRevenue.Add(b.TotalRevenue())
		out.NetRevenue = out.NetRevenue.Add(b.NetRevenue())

		value := b.TotalRevenue()
		for _, slot := range h.Slots() {
			id := b.Reference.Get(slot.Field)
			if id == "" {
				continue
			}
			if members[slot.Role] == nil {
				members[slot.Role] = map[string]*MemberPerformance{}
			}
			m := members[slot.Role][id]
			if m == nil {
				m = &MemberPerformance{UserID: id, Name: names[id], ThisMonth: decimal.Zero, ThisYear: decimal.Zero}
				members[slot.Role][id] = m
			}
			m.Bookings++
			if thisYear {
				m.ThisYear = m.ThisYear.Add(value)
			}
			if thisMonth {
				m.ThisMonth = m.ThisMonth.Add(value)
			}
		}
	}

	for _, slot := range h.Slots() {
		rp := RolePerformance{Role: slot.Role, Members: []MemberPerformance{}}
		for _, m := range members[slot.Role] {
			rp.Members = append(rp.Members, *m)
		}
		sort.Slice(rp.Members, func(i, j int) bool {
			if c := rp.Members[i].ThisYear.Cmp(rp.Members[j].ThisYear); c != 0 {
				return c > 0
			}
			return rp.Members[i].UserID < rp.Members[j].UserID
		})
		out.Performance = append(out.Performance, rp)
	}
	return out
}
