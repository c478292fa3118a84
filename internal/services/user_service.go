package services

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/imovlocal/backend/internal/domain/user"
	"github.com/imovlocal/backend/internal/pkg/errors"
	"github.com/imovlocal/backend/internal/pkg/logger"
	"github.com/imovlocal/backend/internal/pkg/validator"
)

// adminInput mirrors user.AdminInput with validation tags
type adminInput struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,min=2"`
	Password string `json:"password" validate:"required,min=8"`
	UserType string `json:"user_type" validate:"required,oneof=admin admin_senior"`
}

// UserService implements user.Service
type UserService struct {
	repo       user.Repository
	validator  *validator.Validator
	bcryptCost int
	logger     *logger.Logger
}

// NewUserService creates a new user service
func NewUserService(repo user.Repository, bcryptCost int, log *logger.Logger) *UserService {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserService{
		repo:       repo,
		validator:  validator.New(),
		bcryptCost: bcryptCost,
		logger:     log,
	}
}

// GetByID retrieves a user by ID
func (s *UserService) GetByID(ctx context.Context, id string) (*user.User, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateAdmin seeds an active admin account
func (s *UserService) CreateAdmin(ctx context.Context, input user.AdminInput) (*user.User, error) {
	if input.UserType == "" {
		input.UserType = user.TypeAdmin
	}
	in := adminInput{
		Email:    strings.ToLower(strings.TrimSpace(input.Email)),
		Name:     strings.TrimSpace(input.Name),
		Password: input.Password,
		UserType: string(input.UserType),
	}
	if err := s.validator.Check(in); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, errors.Internal("Failed to hash password", err)
	}

	u := &user.User{
		Email:        in.Email,
		Name:         in.Name,
		Phone:        strings.TrimSpace(input.Phone),
		UserType:     user.Type(in.UserType),
		Status:       user.StatusActive,
		PlanType:     user.PlanLifetime,
		PasswordHash: string(hash),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		s.logger.ErrorWithErr(err, "Failed to create admin")
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id":   u.ID,
		"email":     u.Email,
		"user_type": u.UserType,
	}).Info("Admin created")

	return u, nil
}

// EnsureAdmin creates the admin unless an account with that email exists.
// It reports whether an account was created.
func (s *UserService) EnsureAdmin(ctx context.Context, input user.AdminInput) (bool, error) {
	existing, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	if err == nil {
		if !existing.UserType.IsAdmin() {
			s.logger.WithFields(map[string]interface{}{
				"email":     existing.Email,
				"user_type": existing.UserType,
			}).Warn("Seed admin email belongs to a non-admin account")
		}
		return false, nil
	}
	if !errors.IsNotFound(err) {
		return false, err
	}

	if _, err := s.CreateAdmin(ctx, input); err != nil {
		return false, err
	}
	return true, nil
}
