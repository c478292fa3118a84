package user

import "context"

// Service defines the interface for user business logic
type Service interface {
	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id string) (*User, error)

	// CreateAdmin seeds an active admin account with a hashed password
	CreateAdmin(ctx context.Context, input AdminInput) (*User, error)
}

// AdminInput carries the fields needed to seed an admin
type AdminInput struct {
	Email    string
	Name     string
	Phone    string
	Password string
	UserType Type
}
