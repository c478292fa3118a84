// @title ImovLocal API
// @version 1.0
// @description Opportunity board, notifications and PIX plan payments.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	_ "github.com/imovlocal/backend/docs"
	"github.com/imovlocal/backend/internal/api/dto"
	"github.com/imovlocal/backend/internal/api/handlers"
	"github.com/imovlocal/backend/internal/api/router"
	"github.com/imovlocal/backend/internal/config"
	"github.com/imovlocal/backend/internal/domain/demand"
	"github.com/imovlocal/backend/internal/domain/user"
	"github.com/imovlocal/backend/internal/pkg/logger"
	"github.com/imovlocal/backend/internal/pkg/validator"
	"github.com/imovlocal/backend/internal/repository/postgres"
	"github.com/imovlocal/backend/internal/services"
	"github.com/imovlocal/backend/internal/storage"
	"github.com/imovlocal/backend/internal/worker"
	"github.com/imovlocal/backend/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputPath: cfg.Logging.OutputPath,
	})

	if err := run(cfg, log); err != nil {
		log.ErrorWithErr(err, "Server exited with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	applied, err := postgres.RunMigrations(ctx, db, migrations.GetFS())
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	log.WithFields(map[string]interface{}{
		"driver":  db.Driver(),
		"applied": len(applied),
	}).Info("Database ready")

	receipts, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("open receipt storage: %w", err)
	}
	if c, ok := receipts.(io.Closer); ok {
		defer c.Close()
	}

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	propertyRepo := postgres.NewPropertyRepository(db)
	demandRepo := postgres.NewDemandRepository(db)
	proposalRepo := postgres.NewProposalRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db)

	// Services
	notificationService := services.NewNotificationService(notificationRepo, userRepo, log)
	matchmakingService := services.NewMatchmakingService(propertyRepo, notificationService, cfg.Opportunity.MatchLimit, log)
	demandService := services.NewDemandService(demandRepo, proposalRepo, propertyRepo, matchmakingService, notificationService,
		demand.Policy{
			NotifyOnReject:         cfg.Opportunity.NotifyOnReject,
			RejectSiblingsOnAccept: cfg.Opportunity.RejectSiblingsOnAccept,
		}, log)
	planService := services.NewPlanService(userRepo, propertyRepo)
	userService := services.NewUserService(userRepo, cfg.Auth.BCryptCost, log)

	if cfg.Admin.Email != "" && cfg.Admin.Password != "" {
		created, err := userService.EnsureAdmin(ctx, user.AdminInput{
			Email:    cfg.Admin.Email,
			Name:     cfg.Admin.Name,
			Password: cfg.Admin.Password,
		})
		if err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
		if created {
			log.With("email", cfg.Admin.Email).Info("Seed admin created")
		}
	}
	paymentService := services.NewPaymentService(paymentRepo, userRepo, receipts, notificationService,
		services.PaymentOptions{
			RequestTTL:      cfg.Payment.RequestTTL,
			MaxReceiptBytes: cfg.Payment.MaxReceiptBytes,
		}, log)

	loc, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		log.WithError(err).Warnf("Unknown scheduler timezone %q, using UTC", cfg.Scheduler.Timezone)
		loc = time.UTC
	}
	scheduler := worker.NewPlanExpirationScheduler(userRepo, notificationService, worker.SchedulerOptions{
		Spec:           cfg.Scheduler.Spec,
		InitialDelay:   cfg.Scheduler.InitialDelay,
		ReminderWindow: cfg.Scheduler.ReminderWindow,
		Location:       loc,
	}, log)
	if cfg.Scheduler.Enabled {
		if err := scheduler.Start(ctx); err != nil {
			return fmt.Errorf("start plan expiration scheduler: %w", err)
		}
		defer scheduler.Stop()
	}

	// Handlers
	val := validator.New()
	h := &router.Handlers{
		Health:       handlers.NewHealthHandler(db, scheduler, cfg.Storage.Backend, log),
		Demand:       handlers.NewDemandHandler(demandService, log, val),
		Notification: handlers.NewNotificationHandler(notificationService, log, val),
		Plan:         handlers.NewPlanHandler(planService, log),
		Payment: handlers.NewPaymentHandler(paymentService, dto.PixInfoDTO{
			Key:             cfg.Payment.PixKey,
			KeyType:         cfg.Payment.PixKeyType,
			BeneficiaryName: cfg.Payment.PixBeneficiary,
		}, cfg.Payment.MaxReceiptBytes, log, val),
		Scheduler: handlers.NewSchedulerHandler(scheduler, log),
	}
	if local, ok := receipts.(*storage.LocalStore); ok {
		h.Receipts = http.FileServer(http.Dir(local.Dir()))
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.New(cfg, log, userRepo, h),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(map[string]interface{}{
			"addr":        srv.Addr,
			"environment": cfg.Server.Environment,
			"storage":     cfg.Storage.Backend,
		}).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
