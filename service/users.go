package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/padraicbc/gridpredict/apperr"
	"github.com/padraicbc/gridpredict/models"
	"github.com/padraicbc/gridpredict/store"
)

// UserService registers accounts and resolves the calling user.
type UserService struct {
	store store.Store
	log   *zap.Logger
}

func NewUserService(st store.Store, log *zap.Logger) *UserService {
	return &UserService{store: st, log: log}
}

// Registration is the sign-up payload.
type Registration struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,alphanum,min=3,max=50"`
	Password string `json:"password" validate:"required,min=8"`
}

// HashPassword validates and bcrypt-hashes a plain-text password.
func HashPassword(password string) (string, error) {
	if err := validate.Var(password, "required,min=8"); err != nil {
		return "", invalid(err, "password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Register creates an active, unprivileged account.
func (s *UserService) Register(ctx context.Context, r Registration) (*models.User, error) {
	r.Email = strings.TrimSpace(r.Email)
	r.Username = strings.TrimSpace(r.Username)
	if err := validate.Struct(r); err != nil {
		return nil, invalid(err, "registration")
	}

	if _, err := s.store.UserByEmail(ctx, r.Email); err == nil {
		return nil, apperr.Conflict("email already registered")
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	if _, err := s.store.UserByUsername(ctx, r.Username); err == nil {
		return nil, apperr.Conflict("username already registered")
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	hash, err := HashPassword(r.Password)
	if err != nil {
		return nil, err
	}
	u := &models.User{Email: r.Email, Username: r.Username, Password: hash, IsActive: true}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	s.log.Info("user registered", zap.Int64("user_id", u.ID), zap.String("username", u.Username))
	return u, nil
}

// Me returns the active user id refers to.
func (s *UserService) Me(ctx context.Context, id int64) (*models.User, error) {
	u, err := s.store.UserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, apperr.Forbidden("inactive user")
	}
	return u, nil
}
