package user

import "time"

// User is the account entity. The opportunity board and the payment flow
// read it and mutate only the status, plan and quota fields.
type User struct {
	ID                 string     `json:"id"`
	Email              string     `json:"email"`
	Name               string     `json:"name"`
	Phone              string     `json:"phone"`
	Creci              string     `json:"creci,omitempty"`
	UserType           Type       `json:"user_type"`
	Status             Status     `json:"status"`
	PlanType           PlanType   `json:"plan_type"`
	PlanExpiresAt      *time.Time `json:"plan_expires_at,omitempty"`
	MaxListings        int        `json:"max_listings"`
	MaxPhotos          int        `json:"max_photos"`
	ExpirationNotified bool       `json:"expiration_notified"`
	PasswordHash       string     `json:"-"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Type is the account category
type Type string

const (
	TypeParticular  Type = "particular"
	TypeCorretor    Type = "corretor"
	TypeImobiliaria Type = "imobiliaria"
	TypeAdmin       Type = "admin"
	TypeAdminSenior Type = "admin_senior"
)

// Status is the account lifecycle status
type Status string

const (
	StatusPending Status = "pending"
	StatusActive  Status = "active"
	StatusPaused  Status = "paused"
	StatusDeleted Status = "deleted"
)

// PlanType is the subscription tier currently held
type PlanType string

const (
	PlanFree       PlanType = "free"
	PlanTrimestral PlanType = "trimestral"
	PlanAnual      PlanType = "anual"
	PlanLifetime   PlanType = "lifetime"
)

// AdminTypes lists the account types with admin capabilities
var AdminTypes = []Type{TypeAdmin, TypeAdminSenior}

// CustomerTypes lists every non-admin account type, in display order
var CustomerTypes = []Type{TypeParticular, TypeCorretor, TypeImobiliaria}

// IsValid reports whether t is a known account type
func (t Type) IsValid() bool {
	switch t {
	case TypeParticular, TypeCorretor, TypeImobiliaria, TypeAdmin, TypeAdminSenior:
		return true
	}
	return false
}

// IsAdmin reports whether t carries admin capabilities
func (t Type) IsAdmin() bool {
	return t == TypeAdmin || t == TypeAdminSenior
}

// IsProfessional reports whether t is a broker or an agency, the only
// types allowed on the opportunity board.
func (t Type) IsProfessional() bool {
	return t == TypeCorretor || t == TypeImobiliaria
}

func (u *User) IsAdmin() bool        { return u.UserType.IsAdmin() }
func (u *User) IsProfessional() bool { return u.UserType.IsProfessional() }

// PlanActivation is the set of user fields written when a payment is approved.
type PlanActivation struct {
	PlanType    PlanType
	ExpiresAt   time.Time
	MaxListings int
	MaxPhotos   int
}
