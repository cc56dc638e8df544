package handlers

import (
	"context"
	"sync"
	"time"

	"bookingcrm/internal/domain"
	"bookingcrm/internal/domain/models"
	"bookingcrm/internal/listing"
	"bookingcrm/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

type memBookings struct {
	mu   sync.Mutex
	rows []models.Booking
}

func (m *memBookings) List(context.Context) ([]models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Booking(nil), m.rows...), nil
}

func (m *memBookings) Get(_ context.Context, id int64) (models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.rows {
		if b.ID == id {
			return b, nil
		}
	}
	return models.Booking{}, domain.NotFoundError{Resource: "booking"}
}

func (m *memBookings) Create(_ context.Context, b models.Booking) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = int64(len(m.rows) + 1)
	m.rows = append(m.rows, b)
	return b.ID, nil
}

func (m *memBookings) Update(_ context.Context, b models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == b.ID {
			m.rows[i] = b
			return nil
		}
	}
	return domain.NotFoundError{Resource: "booking"}
}

func (m *memBookings) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return domain.NotFoundError{Resource: "booking"}
}

type memUsers struct {
	mu   sync.Mutex
	rows []models.User
}

func (m *memUsers) List(context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.User(nil), m.rows...), nil
}

func (m *memUsers) Get(_ context.Context, id int64) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.rows {
		if u.ID == id {
			return u, nil
		}
	}
	return models.User{}, domain.NotFoundError{Resource: "user"}
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.rows {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, domain.NotFoundError{Resource: "user"}
}

func (m *memUsers) Create(_ context.Context, u models.User) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID = int64(len(m.rows) + 1)
	m.rows = append(m.rows, u)
	return u.ID, nil
}

func (m *memUsers) Update(_ context.Context, u models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == u.ID {
			m.rows[i] = u
			return nil
		}
	}
	return domain.NotFoundError{Resource: "user"}
}

func (m *memUsers) SoftDelete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return domain.NotFoundError{Resource: "user"}
}

type memLeads struct {
	rows    []models.Lead
	updated []int64
	deleted []int64
}

func (m *memLeads) List(context.Context) ([]models.Lead, error) { return m.rows, nil }

func (m *memLeads) Create(_ context.Context, l models.Lead) (int64, error) {
	l.ID = int64(len(m.rows) + 1)
	m.rows = append(m.rows, l)
	return l.ID, nil
}

func (m *memLeads) BulkUpdate(_ context.Context, ids []int64, _, _ string) (int64, error) {
	m.updated = ids
	return int64(len(ids)), nil
}

func (m *memLeads) BulkDelete(_ context.Context, ids []int64) (int64, error) {
	m.deleted = ids
	return int64(len(ids)), nil
}

type staticReference struct{}

func (staticReference) Agents(context.Context) ([]listing.ReferenceItem, error) {
	return []listing.ReferenceItem{{ID: "1", Name: "Tara"}}, nil
}

func (staticReference) Statuses(context.Context) ([]listing.ReferenceItem, error) {
	return []listing.ReferenceItem{{ID: "new", Name: "New"}, {ID: "converted", Name: "Converted"}}, nil
}

var fixedNow = time.Date(2025, 3, 15, 10, 0, 0, 0, time.Local)

type fixture struct {
	api      *API
	bookings *memBookings
	users    *memUsers
	leads    *memLeads
}

func newFixture() fixture {
	gin.SetMode(gin.TestMode)
	hash, _ := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)

	users := &memUsers{rows: []models.User{
		{ID: 1, Name: "Tara", Email: "tara@x.test", Role: "Team Leader", IsActive: true, PasswordHash: string(hash)},
		{ID: 2, Name: "Eli", Email: "eli@x.test", Role: "Employee", IsActive: true, AssignedTL: "1"},
	}}
	bookings := &memBookings{}
	for i, name := range []string{"Anurag", "Bhavna", "Chetan"} {
		status := domain.StatusPending
		if i == 2 {
			status = domain.StatusCancelled
		}
		bookings.rows = append(bookings.rows, models.Booking{
			ID:            int64(i + 1),
			CustomerName:  name,
			ContactNumber: "99999" + string(rune('0'+i)),
			Status:        status,
			BookingDate:   time.Date(2025, 3, i+1, 0, 0, 0, 0, time.Local),
			BSP:           decimal.NewFromInt(100000),
		})
	}
	leads := &memLeads{rows: []models.Lead{
		{ID: 1, Name: "Lead A", Phone: "111", Source: "web", AgentID: "1", StatusID: "new"},
		{ID: 2, Name: "Lead B", Phone: "222", Source: "walk-in"},
	}}

	api := &API{
		Bookings:  services.BookingService{Bookings: bookings, Users: users},
		Leads:     services.LeadService{Leads: leads, Reference: staticReference{}, Now: func() time.Time { return fixedNow }},
		Users:     services.UserService{Users: users, BcryptCost: bcrypt.MinCost},
		Auth:      services.AuthService{Users: users, Secret: []byte("test-secret"), TTL: time.Hour, Now: func() time.Time { return fixedNow }},
		Dashboard: services.DashboardService{Bookings: bookings, Users: users, Now: func() time.Time { return fixedNow }},
		Export:    services.ExportService{Now: func() time.Time { return fixedNow }},
		Reference: staticReference{},
		Limits:    PageLimits{Default: 10, Max: 100},
	}
	return fixture{api: api, bookings: bookings, users: users, leads: leads}
}

func (f fixture) engine() *gin.Engine {
	r := gin.New()
	a := f.api
	r.GET("/health", a.Health)
	r.GET("/routes", a.Routes)
	r.GET("/db-check", a.DBCheck)
	r.POST("/login", a.Login)
	r.GET("/bookings", a.ListBookings)
	r.GET("/bookings/export", a.ExportBookings)
	r.GET("/bookings/reference", a.BookingReference)
	r.GET("/bookings/:id", a.GetBooking)
	r.POST("/bookings", a.CreateBooking)
	r.PUT("/bookings/:id", a.UpdateBooking)
	r.DELETE("/bookings/:id", a.DeleteBooking)
	r.GET("/dashboard", a.BookingDashboard)
	r.GET("/leads", a.ListLeads)
	r.POST("/leads", a.CreateLead)
	r.GET("/leads/export", a.ExportLeads)
	r.POST("/leads/bulk-update", a.BulkUpdateLeads)
	r.POST("/leads/bulk-delete", a.BulkDeleteLeads)
	r.GET("/agents", a.Agents)
	r.GET("/statuses", a.Statuses)
	r.GET("/users", a.ListUsers)
	r.POST("/users", a.CreateUser)
	r.PUT("/users/:id", a.UpdateUser)
	r.DELETE("/users/:id", a.DeleteUser)
	return r
}
