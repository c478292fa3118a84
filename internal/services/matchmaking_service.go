package services

import (
	"context"
	"fmt"

	"github.com/imovlocal/backend/internal/domain/demand"
	"github.com/imovlocal/backend/internal/domain/notification"
	"github.com/imovlocal/backend/internal/domain/property"
	"github.com/imovlocal/backend/internal/pkg/logger"
	"github.com/imovlocal/backend/internal/pkg/metrics"
)

// DefaultMatchLimit caps how many listings are scanned per demand
const DefaultMatchLimit = 100

// Notifier is the slice of the notification service used by the state machines
type Notifier interface {
	Create(ctx context.Context, userID string, t notification.Type, title, message string, data map[string]interface{}) (*notification.Notification, error)
}

// MatchmakingService implements demand.Matcher
type MatchmakingService struct {
	properties property.Repository
	notifier   Notifier
	limit      int
	logger     *logger.Logger
}

// NewMatchmakingService creates a new matchmaking service
func NewMatchmakingService(properties property.Repository, notifier Notifier, limit int, log *logger.Logger) *MatchmakingService {
	if limit <= 0 {
		limit = DefaultMatchLimit
	}
	return &MatchmakingService{
		properties: properties,
		notifier:   notifier,
		limit:      limit,
		logger:     log.WithComponent("matchmaking"),
	}
}

// MatchDemand notifies each distinct owner of a compatible listing once,
// skipping the demand creator. It never fails; errors are logged and
// counted, and the number of notifications sent is returned.
func (s *MatchmakingService) MatchDemand(ctx context.Context, d *demand.Demand) (sent int) {
	log := s.logger.With("demand_id", d.ID)

	defer func() {
		if r := recover(); r != nil {
			metrics.RecordMatchFailure()
			log.Errorf("Matchmaking panicked: %v", r)
		}
	}()

	matches, err := s.properties.FindMatching(ctx, d.MatchCriteria(), s.limit)
	if err != nil {
		metrics.RecordMatchFailure()
		log.ErrorWithErr(err, "Failed to find matching properties")
		return 0
	}

	seen := make(map[string]bool, len(matches))
	for _, p := range matches {
		if p.OwnerID == d.CreatorID || seen[p.OwnerID] {
			continue
		}
		seen[p.OwnerID] = true

		_, err := s.notifier.Create(ctx, p.OwnerID, notification.TypeOpportunity,
			"Nova Oportunidade de Parceria!",
			fmt.Sprintf("Um corretor procura %s em %s. Seu imóvel \"%s\" é compatível. Comissão oferecida: %.1f%%.",
				d.PropertyType, p.Neighborhood, p.Title, d.Commission),
			map[string]interface{}{
				"demand_id":   d.ID,
				"property_id": p.ID,
				"commission":  d.Commission,
			},
		)
		if err != nil {
			metrics.RecordMatchFailure()
			log.With("owner_id", p.OwnerID).ErrorWithErr(err, "Failed to send opportunity notification")
			continue
		}
		sent++
	}

	metrics.RecordMatchNotifications(sent)
	log.WithFields(map[string]interface{}{
		"candidates":    len(matches),
		"notifications": sent,
	}).Info("Matchmaking completed")
	return sent
}
