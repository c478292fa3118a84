package worker

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/imovlocal/backend/internal/domain/notification"
	"github.com/imovlocal/backend/internal/domain/user"
	"github.com/imovlocal/backend/internal/pkg/logger"
	"github.com/imovlocal/backend/internal/pkg/metrics"
)

const (
	// DefaultSpec runs the sweep every day at 06:00
	DefaultSpec           = "0 0 6 * * *"
	DefaultReminderWindow = 5 * 24 * time.Hour
	sweepBatchSize        = 500
)

// Notifier creates in-app notifications
type Notifier interface {
	Create(ctx context.Context, userID string, t notification.Type, title, message string, data map[string]interface{}) (*notification.Notification, error)
}

// SweepResult reports what one run of the scheduler did
type SweepResult struct {
	Expired           int           `json:"expired"`
	ExpiringSoon      int           `json:"expiring_soon"`
	NotificationsSent int           `json:"notifications_sent"`
	Errors            int           `json:"errors"`
	StartedAt         time.Time     `json:"started_at"`
	Duration          time.Duration `json:"duration"`
}

// SchedulerOptions configures PlanExpirationScheduler
type SchedulerOptions struct {
	Spec           string
	InitialDelay   time.Duration
	ReminderWindow time.Duration
	Location       *time.Location
}

// PlanExpirationScheduler demotes users whose plan expired and reminds
// users whose plan is about to expire. It keeps no state between runs
// besides the expiration_notified flag stored on each user.
type PlanExpirationScheduler struct {
	users    user.Repository
	notifier Notifier
	opts     SchedulerOptions
	logger   *logger.Logger
	now      func() time.Time

	runMu sync.Mutex

	mu      sync.Mutex
	wg      sync.WaitGroup
	cron    *cron.Cron
	cancel  context.CancelFunc
	running bool
}

// NewPlanExpirationScheduler creates the scheduler; call Start to arm it
func NewPlanExpirationScheduler(users user.Repository, notifier Notifier, opts SchedulerOptions, log *logger.Logger) *PlanExpirationScheduler {
	if opts.Spec == "" {
		opts.Spec = DefaultSpec
	}
	if opts.ReminderWindow <= 0 {
		opts.ReminderWindow = DefaultReminderWindow
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &PlanExpirationScheduler{
		users:    users,
		notifier: notifier,
		opts:     opts,
		logger:   log.WithComponent("plan_expiration"),
		now:      time.Now,
	}
}

// Start registers the recurring sweep and, when InitialDelay is positive,
// one extra run shortly after startup
func (s *PlanExpirationScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	c := cron.New(cron.WithSeconds(), cron.WithLocation(s.opts.Location))
	if _, err := c.AddFunc(s.opts.Spec, func() { s.run(ctx, "cron") }); err != nil {
		cancel()
		return fmt.Errorf("invalid scheduler spec %q: %w", s.opts.Spec, err)
	}
	c.Start()

	if s.opts.InitialDelay > 0 {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			timer := time.NewTimer(s.opts.InitialDelay)
			defer timer.Stop()
			select {
			case <-timer.C:
				s.run(ctx, "startup")
			case <-ctx.Done():
			}
		}()
	}

	s.cron = c
	s.cancel = cancel
	s.running = true

	s.logger.WithFields(map[string]interface{}{
		"spec":          s.opts.Spec,
		"initial_delay": s.opts.InitialDelay.String(),
		"timezone":      s.opts.Location.String(),
	}).Info("Plan expiration scheduler started")
	return nil
}

// Stop cancels pending runs and waits for a running sweep to finish
func (s *PlanExpirationScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.cancel()
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.running = false

	s.logger.Info("Plan expiration scheduler stopped")
}

// IsRunning reports whether Start has been called without Stop
func (s *PlanExpirationScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *PlanExpirationScheduler) run(ctx context.Context, trigger string) {
	if ctx.Err() != nil {
		return
	}
	res := s.RunOnce(ctx)
	s.logger.WithFields(map[string]interface{}{
		"trigger":            trigger,
		"expired":            res.Expired,
		"expiring_soon":      res.ExpiringSoon,
		"notifications_sent": res.NotificationsSent,
		"errors":             res.Errors,
		"duration_ms":        res.Duration.Milliseconds(),
	}).Info("Plan expiration sweep finished")
}

// RunOnce performs both sweeps. Runs never overlap; a failing user is
// logged and skipped.
func (s *PlanExpirationScheduler) RunOnce(ctx context.Context) *SweepResult {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	start := time.Now()
	now := s.now().UTC()
	res := &SweepResult{StartedAt: now}

	s.sweepExpired(ctx, now, res)
	s.sweepExpiringSoon(ctx, now, res)

	res.Duration = time.Since(start)
	metrics.RecordSweep(res.Expired, res.ExpiringSoon, res.Errors > 0, res.Duration)
	return res
}

func (s *PlanExpirationScheduler) sweepExpired(ctx context.Context, now time.Time, res *SweepResult) {
	for {
		users, err := s.users.ListExpired(ctx, now, sweepBatchSize)
		if err != nil {
			res.Errors++
			s.logger.ErrorWithErr(err, "Failed to list expired plans")
			return
		}

		progressed := 0
		for _, u := range users {
			if ctx.Err() != nil {
				return
			}
			if s.expireUser(ctx, u, now, res) {
				progressed++
			}
		}
		if len(users) < sweepBatchSize || progressed == 0 {
			return
		}
	}
}

// expireUser demotes one user and reports whether the row changed
func (s *PlanExpirationScheduler) expireUser(ctx context.Context, u *user.User, now time.Time, res *SweepResult) bool {
	log := s.logger.With("user_id", u.ID)

	changed, err := s.users.DemoteExpired(ctx, u.ID, now)
	if err != nil {
		res.Errors++
		log.ErrorWithErr(err, "Failed to demote expired user")
		return false
	}
	if !changed {
		return false
	}
	res.Expired++

	_, err = s.notifier.Create(ctx, u.ID, notification.TypeSystem,
		"Seu plano expirou",
		"Seu plano expirou e seus anúncios foram ocultados. Renove sua assinatura para voltar a anunciar.",
		map[string]interface{}{"action": "renew_plan"},
	)
	if err != nil {
		res.Errors++
		log.ErrorWithErr(err, "Failed to send expiration notification")
		return true
	}
	res.NotificationsSent++
	return true
}

func (s *PlanExpirationScheduler) sweepExpiringSoon(ctx context.Context, now time.Time, res *SweepResult) {
	until := now.Add(s.opts.ReminderWindow)
	for {
		users, err := s.users.ListExpiringSoon(ctx, now, until, sweepBatchSize)
		if err != nil {
			res.Errors++
			s.logger.ErrorWithErr(err, "Failed to list expiring plans")
			return
		}

		progressed := 0
		for _, u := range users {
			if ctx.Err() != nil {
				return
			}
			if s.remindUser(ctx, u, now, until, res) {
				progressed++
			}
		}
		if len(users) < sweepBatchSize || progressed == 0 {
			return
		}
	}
}

// remindUser flags the user before notifying so a reminder is sent at
// most once per expiry cycle
func (s *PlanExpirationScheduler) remindUser(ctx context.Context, u *user.User, now, until time.Time, res *SweepResult) bool {
	log := s.logger.With("user_id", u.ID)

	flagged, err := s.users.MarkExpirationNotified(ctx, u.ID, now, until)
	if err != nil {
		res.Errors++
		log.ErrorWithErr(err, "Failed to flag expiration reminder")
		return false
	}
	if !flagged {
		return false
	}
	res.ExpiringSoon++

	expiresAt := u.PlanExpiresAt.UTC()
	days := daysLeft(now, expiresAt)
	_, err = s.notifier.Create(ctx, u.ID, notification.TypeSystem,
		"Seu plano expira em breve",
		fmt.Sprintf("Seu plano expira em %d dia(s), em %s. Renove para manter seus anúncios ativos.",
			days, expiresAt.In(s.opts.Location).Format("02/01/2006")),
		map[string]interface{}{
			"action":     "renew_plan",
			"expires_at": expiresAt.Format(time.RFC3339),
			"days_left":  days,
		},
	)
	if err != nil {
		res.Errors++
		log.ErrorWithErr(err, "Failed to send expiration reminder")
		return true
	}
	res.NotificationsSent++
	return true
}

// daysLeft rounds up so a plan expiring later today reads as 1 day
func daysLeft(now, expiresAt time.Time) int {
	d := expiresAt.Sub(now).Hours() / 24
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d))
}
