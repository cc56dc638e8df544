package services

import (
	"context"
	"fmt"
	"strings"

	"bookingcrm/internal/domain"
	"bookingcrm/internal/domain/models"
	"bookingcrm/internal/listing"
	"bookingcrm/internal/utils"

	"golang.org/x/crypto/bcrypt"
)

var UserSearchFields = []string{"name", "email", "phone"}

type UserStore interface {
	List(ctx context.Context) ([]models.User, error)
	Get(ctx context.Context, id int64) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	Create(ctx context.Context, u models.User) (int64, error)
	Update(ctx context.Context, u models.User) error
	SoftDelete(ctx context.Context, id int64) error
}

type UserService struct {
	Users      UserStore
	Hierarchy  *listing.Hierarchy
	BcryptCost int
}

type UserInput struct {
	Name       string `json:"name" validate:"required,max=191"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone" validate:"max=32"`
	Password   string `json:"password" validate:"omitempty,min=6"`
	Role       string `json:"role" validate:"required"`
	IsActive   *bool  `json:"is_active"`
	AssignedTL string `json:"assigned_tl"`
}

func (s UserService) hierarchy() *listing.Hierarchy {
	if s.Hierarchy != nil {
		return s.Hierarchy
	}
	return listing.DefaultHierarchy
}

func (s UserService) List(ctx context.Context, q listing.Query) (Page[models.User], error) {
	all, err := s.Users.List(ctx)
	if err != nil {
		return Page[models.User]{}, domain.InternalError{Msg: "load users", Err: err}
	}
	return runList(all, models.User.ToRecord, q, UserSearchFields)
}

func (s UserService) Create(ctx context.Context, in UserInput) (models.User, error) {
	if strings.TrimSpace(in.Password) == "" {
		return models.User{}, domain.ValidationError{Field: "password", Msg: "is required"}
	}
	u, err := s.fromInput(ctx, 0, in)
	if err != nil {
		return models.User{}, err
	}
	id, err := s.Users.Create(ctx, u)
	if err != nil {
		if domain.IsConflict(err) {
			return models.User{}, err
		}
		return models.User{}, domain.InternalError{Msg: "create user", Err: err}
	}
	u.ID = id
	utils.LogEvent(ctx, "users", "create", fmt.Sprintf("user_id=%d role=%s", id, u.Role))
	return u, nil
}

// Update replaces the user's profile. The password changes only when provided.
func (s UserService) Update(ctx context.Context, id int64, in UserInput) (models.User, error) {
	existing, err := s.Users.Get(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	u, err := s.fromInput(ctx, id, in)
	if err != nil {
		return models.User{}, err
	}
	u.ID = existing.ID
	u.CreatedAt = existing.CreatedAt
	if in.IsActive == nil {
		u.IsActive = existing.IsActive
	}
	if err := s.Users.Update(ctx, u); err != nil {
		if domain.IsConflict(err) || domain.IsNotFound(err) {
			return models.User{}, err
		}
		return models.User{}, domain.InternalError{Msg: "update user", Err: err}
	}
	utils.LogEvent(ctx, "users", "update", fmt.Sprintf("user_id=%d role=%s", id, u.Role))
	return u, nil
}

func (s UserService) Delete(ctx context.Context, id int64) error {
	if err := s.Users.SoftDelete(ctx, id); err != nil {
		return err
	}
	utils.LogEvent(ctx, "users", "delete", fmt.Sprintf("user_id=%d", id))
	return nil
}

func (s UserService) fromInput(ctx context.Context, id int64, in UserInput) (models.User, error) {
	in.Name = utils.NormalizeSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Role = strings.TrimSpace(in.Role)
	in.AssignedTL = strings.TrimSpace(in.AssignedTL)
	if err := validateInput(in); err != nil {
		return models.User{}, err
	}
	if in.Role != domain.RoleAdmin && !s.hierarchy().Has(in.Role) {
		return models.User{}, listing.UnknownRoleError{Role: in.Role}
	}
	if err := s.checkTeamLead(ctx, id, in); err != nil {
		return models.User{}, err
	}

	u := models.User{
		Name:       in.Name,
		Email:      in.Email,
		Phone:      strings.TrimSpace(in.Phone),
		Role:       in.Role,
		IsActive:   true,
		AssignedTL: in.AssignedTL,
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost())
		if err != nil {
			return models.User{}, domain.InternalError{Msg: "hash password", Err: err}
		}
		u.PasswordHash = string(hash)
	}
	return u, nil
}

// checkTeamLead requires the junior-most role to name an active user of the
// role it reports to. Other roles may not carry an assigned lead.
func (s UserService) checkTeamLead(ctx context.Context, id int64, in UserInput) error {
	h := s.hierarchy()
	slots := h.Slots()
	junior := slots[0].Role
	if in.Role != junior {
		if in.AssignedTL != "" {
			return domain.ValidationError{Field: "assigned_tl", Msg: "only " + junior + " users have a team leader"}
		}
		return nil
	}
	lead, err := h.ReportsTo(junior)
	if err != nil {
		return err
	}
	if in.AssignedTL == "" {
		return domain.ValidationError{Field: "assigned_tl", Msg: "is required for " + junior}
	}
	if id > 0 && in.AssignedTL == fmt.Sprint(id) {
		return domain.ValidationError{Field: "assigned_tl", Msg: "cannot be the user itself"}
	}
	users, err := s.Users.List(ctx)
	if err != nil {
		return domain.InternalError{Msg: "load users", Err: err}
	}
	for _, u := range users {
		if u.IDString() == in.AssignedTL {
			if u.Role == lead && u.IsActive {
				return nil
			}
			break
		}
	}
	return domain.ValidationError{Field: "assigned_tl", Msg: "must be an active " + lead}
}

func (s UserService) cost() int {
	if s.BcryptCost > 0 {
		return s.BcryptCost
	}
	return bcrypt.DefaultCost
}
