package plan

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/imovlocal/backend/internal/domain/user"
)

// Plan is a purchasable subscription tier
type Plan struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	UserType     user.Type       `json:"user_type"`
	Price        decimal.Decimal `json:"price"`
	DurationDays int             `json:"duration_days"`
	MaxListings  int             `json:"max_listings"`
	MaxPhotos    int             `json:"max_photos"`
	Features     []string        `json:"features"`
}

// Quotas granted to accounts without a paid plan
const (
	FreeMaxListings = 1
	FreeMaxPhotos   = 5
)

var catalog = []Plan{
	{
		ID:           "particular_trimestral",
		Name:         "Plano Particular Trimestral",
		Description:  "Acesso completo por 3 meses para usuários particulares",
		UserType:     user.TypeParticular,
		Price:        decimal.RequireFromString("47.90"),
		DurationDays: 90,
		MaxListings:  10,
		MaxPhotos:    15,
		Features:     []string{"Até 10 anúncios ativos", "Até 15 fotos por anúncio", "Suporte por e-mail"},
	},
	{
		ID:           "corretor_trimestral",
		Name:         "Plano Corretor Trimestral",
		Description:  "Acesso completo por 3 meses para corretores",
		UserType:     user.TypeCorretor,
		Price:        decimal.RequireFromString("197.90"),
		DurationDays: 90,
		MaxListings:  100,
		MaxPhotos:    20,
		Features:     []string{"Até 100 anúncios ativos", "Até 20 fotos por anúncio", "Mural de Oportunidades", "Suporte prioritário"},
	},
	{
		ID:           "imobiliaria_anual",
		Name:         "Plano Imobiliária Anual",
		Description:  "Acesso completo por 1 ano para imobiliárias",
		UserType:     user.TypeImobiliaria,
		Price:        decimal.RequireFromString("497.90"),
		DurationDays: 365,
		MaxListings:  500,
		MaxPhotos:    30,
		Features:     []string{"Até 500 anúncios ativos", "Até 30 fotos por anúncio", "Mural de Oportunidades", "Gerente de conta dedicado"},
	},
}

// All returns a copy of the catalog in display order
func All() []Plan {
	out := make([]Plan, len(catalog))
	copy(out, catalog)
	return out
}

// Get looks a plan up by ID
func Get(id string) (Plan, bool) {
	for _, p := range catalog {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}

// Duration is the length of the subscription granted on approval
func (p Plan) Duration() time.Duration {
	return time.Duration(p.DurationDays) * 24 * time.Hour
}

// PlanType is the tier recorded on the user when this plan is activated
func (p Plan) PlanType() user.PlanType {
	if strings.HasSuffix(p.ID, "_anual") {
		return user.PlanAnual
	}
	return user.PlanTrimestral
}

// AvailableTo reports whether a user of type t may buy the plan
func (p Plan) AvailableTo(t user.Type) bool {
	return t.IsAdmin() || p.UserType == t
}

// Limits describes a user's listing quota
type Limits struct {
	PlanType      user.PlanType `json:"plan_type"`
	ListingCount  int64         `json:"listing_count"`
	MaxListings   int           `json:"max_listings"`
	MaxPhotos     int           `json:"max_photos"`
	Remaining     int64         `json:"remaining"`
	CanCreate     bool          `json:"can_create"`
	Unlimited     bool          `json:"unlimited"`
	PlanExpiresAt *time.Time    `json:"plan_expires_at,omitempty"`
}
