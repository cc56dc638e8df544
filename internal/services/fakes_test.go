package services

import (
	"context"
	"errors"
	"sync"

	"bookingcrm/internal/domain"
	"bookingcrm/internal/domain/models"
	"bookingcrm/internal/listing"
)

type fakeBookings struct {
	mu      sync.Mutex
	rows    []models.Booking
	nextID  int64
	listErr error
}

func (f *fakeBookings) List(context.Context) ([]models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]models.Booking(nil), f.rows...), nil
}

func (f *fakeBookings) Get(_ context.Context, id int64) (models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.rows {
		if b.ID == id {
			return b, nil
		}
	}
	return models.Booking{}, domain.NotFoundError{Resource: "booking"}
}

func (f *fakeBookings) Create(_ context.Context, b models.Booking) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	b.ID = f.nextID
	f.rows = append(f.rows, b)
	return b.ID, nil
}

func (f *fakeBookings) Update(_ context.Context, b models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == b.ID {
			f.rows[i] = b
			return nil
		}
	}
	return domain.NotFoundError{Resource: "booking"}
}

func (f *fakeBookings) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return domain.NotFoundError{Resource: "booking"}
}

type fakeUsers struct {
	mu     sync.Mutex
	rows   []models.User
	nextID int64
}

func (f *fakeUsers) List(context.Context) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.User(nil), f.rows...), nil
}

func (f *fakeUsers) Get(_ context.Context, id int64) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.rows {
		if u.ID == id {
			return u, nil
		}
	}
	return models.User{}, domain.NotFoundError{Resource: "user"}
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.rows {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, domain.NotFoundError{Resource: "user"}
}

func (f *fakeUsers) Create(_ context.Context, u models.User) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.rows {
		if existing.Email == u.Email {
			return 0, domain.ConflictError{Resource: "user", Msg: "email already registered"}
		}
	}
	f.nextID++
	u.ID = f.nextID
	f.rows = append(f.rows, u)
	return u.ID, nil
}

func (f *fakeUsers) Update(_ context.Context, u models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == u.ID {
			if u.PasswordHash == "" {
				u.PasswordHash = f.rows[i].PasswordHash
			}
			f.rows[i] = u
			return nil
		}
	}
	return domain.NotFoundError{Resource: "user"}
}

func (f *fakeUsers) SoftDelete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return domain.NotFoundError{Resource: "user"}
}

// teamUsers is a small reporting chain: 1 TL, 2 employee, 3 AGM, 4 inactive TL.
func teamUsers() *fakeUsers {
	return &fakeUsers{nextID: 4, rows: []models.User{
		{ID: 1, Name: "Tara", Email: "tara@x.test", Role: "Team Leader", IsActive: true},
		{ID: 2, Name: "Eli", Email: "eli@x.test", Role: "Employee", IsActive: true, AssignedTL: "1"},
		{ID: 3, Name: "Gita", Email: "gita@x.test", Role: "AGM", IsActive: true},
		{ID: 4, Name: "Omar", Email: "omar@x.test", Role: "Team Leader", IsActive: false},
	}}
}

type fakeLeads struct {
	rows      []models.Lead
	createErr error
	updated   []int64
	agent     string
	status    string
	deleted   []int64
	updateErr error
}

func (f *fakeLeads) List(context.Context) ([]models.Lead, error) {
	return f.rows, nil
}

func (f *fakeLeads) Create(_ context.Context, l models.Lead) (int64, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	l.ID = int64(len(f.rows) + 1)
	f.rows = append(f.rows, l)
	return l.ID, nil
}

func (f *fakeLeads) BulkUpdate(_ context.Context, ids []int64, agentID, statusID string) (int64, error) {
	if f.updateErr != nil {
		return 0, f.updateErr
	}
	f.updated, f.agent, f.status = ids, agentID, statusID
	return int64(len(ids)), nil
}

func (f *fakeLeads) BulkDelete(_ context.Context, ids []int64) (int64, error) {
	f.deleted = ids
	return int64(len(ids)), nil
}

type staticReference struct {
	agents, statuses []listing.ReferenceItem
	err              error
}

func (r staticReference) Agents(context.Context) ([]listing.ReferenceItem, error) {
	return r.agents, r.err
}

func (r staticReference) Statuses(context.Context) ([]listing.ReferenceItem, error) {
	return r.statuses, r.err
}

var errBoom = errors.New("boom")
