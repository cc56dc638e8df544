package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bookingcrm/internal/domain"
	"bookingcrm/internal/domain/models"
	"bookingcrm/internal/utils"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var errBadCredentials = domain.UnauthorizedError{Msg: "invalid email or password"}

type UserByEmail interface {
	GetByEmail(ctx context.Context, email string) (models.User, error)
}

type AuthService struct {
	Users  UserByEmail
	Secret []byte
	TTL    time.Duration
	Now    func() time.Time
}

// Claims are carried by every access token.
type Claims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      models.User `json:"user"`
}

func (s AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return LoginResult{}, domain.ValidationError{Msg: "email and password are required"}
	}
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if domain.IsNotFound(err) {
			return LoginResult{}, errBadCredentials
		}
		return LoginResult{}, domain.InternalError{Msg: "load user", Err: err}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return LoginResult{}, errBadCredentials
	}
	if !u.IsActive {
		return LoginResult{}, domain.UnauthorizedError{Msg: "account is inactive"}
	}

	token, exp, err := s.Issue(u)
	if err != nil {
		return LoginResult{}, err
	}
	utils.LogEvent(ctx, "auth", "login", fmt.Sprintf("user_id=%d role=%s", u.ID, u.Role))
	u.PasswordHash = ""
	return LoginResult{Token: token, ExpiresAt: exp, User: u}, nil
}

// Issue signs an HS256 token for u.
func (s AuthService) Issue(u models.User) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.TTL)
	claims := Claims{
		UserID: u.ID,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.IDString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	if err != nil {
		return "", time.Time{}, domain.InternalError{Msg: "sign token", Err: err}
	}
	return signed, exp, nil
}

// Parse verifies a bearer token and returns who it was issued to.
func (s AuthService) Parse(token string) (domain.RequestContext, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.RequestContext{}, domain.UnauthorizedError{Msg: "token expired"}
		}
		return domain.RequestContext{}, domain.UnauthorizedError{Msg: "invalid token"}
	}
	if claims.UserID <= 0 || claims.Role == "" {
		return domain.RequestContext{}, domain.UnauthorizedError{Msg: "invalid token"}
	}
	return domain.RequestContext{UserID: domain.ID(claims.UserID), Role: claims.Role}, nil
}
