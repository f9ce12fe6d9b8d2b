package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/souqline/souqline-backend/api/controllers"
	"github.com/souqline/souqline-backend/api/routes"
	"github.com/souqline/souqline-backend/internal/addresses"
	"github.com/souqline/souqline-backend/internal/businessapps"
	"github.com/souqline/souqline-backend/internal/businesses"
	"github.com/souqline/souqline-backend/internal/managerapps"
	"github.com/souqline/souqline-backend/internal/notifications"
	"github.com/souqline/souqline-backend/internal/onboarding"
	"github.com/souqline/souqline-backend/internal/profiles"
	"github.com/souqline/souqline-backend/internal/roster"
	"github.com/souqline/souqline-backend/internal/users"
	"github.com/souqline/souqline-backend/pkg/config"
	"github.com/souqline/souqline-backend/pkg/db"
	"github.com/souqline/souqline-backend/pkg/logger"
	"github.com/souqline/souqline-backend/pkg/mailer"
	"github.com/souqline/souqline-backend/pkg/metrics"
	"github.com/souqline/souqline-backend/pkg/migrate"
	"github.com/souqline/souqline-backend/pkg/outbox"
	"github.com/souqline/souqline-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	mailClient, err := mailer.NewClient(context.Background(), cfg.Mailer, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap mailer", err)
		os.Exit(1)
	}

	workflowMetrics := metrics.NewWorkflowMetrics(prometheus.DefaultRegisterer)

	applicationRepo := businessapps.NewRepository(dbClient.DB())
	managerAppRepo := managerapps.NewRepository(dbClient.DB())
	userRepo := users.NewRepository(dbClient.DB())
	addressRepo := addresses.NewRepository(dbClient.DB())
	businessRepo := businesses.NewRepository(dbClient.DB())
	profileRepo := profiles.NewRepository(dbClient.DB())
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	provisioner, err := profiles.NewProvisioner(profileRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create profile provisioner", err)
		os.Exit(1)
	}

	cascade, err := onboarding.NewCascade(onboarding.CascadeParams{
		Logger:          logg,
		DB:              dbClient,
		Applications:    applicationRepo,
		Users:           userRepo,
		Businesses:      businessRepo,
		Managers:        managerAppRepo,
		Provisioner:     provisioner,
		Outbox:          outboxService,
		Metrics:         workflowMetrics,
		LicenseValidity: cfg.Onboarding.LicenseValidity,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create approval cascade", err)
		os.Exit(1)
	}

	notifier, err := notifications.NewService(logg, mailClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	businessAppService, err := businessapps.NewService(businessapps.ServiceParams{
		Logger:       logg,
		DB:           dbClient,
		Applications: applicationRepo,
		Users:        userRepo,
		Addresses:    addressRepo,
		Outbox:       outboxService,
		Notifier:     notifier,
		Cascade:      cascade,
		Metrics:      workflowMetrics,
		Password:     cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create business application service", err)
		os.Exit(1)
	}

	managerAppService, err := managerapps.NewService(managerapps.ServiceParams{
		Logger:       logg,
		DB:           dbClient,
		Applications: managerAppRepo,
		Businesses:   businessRepo,
		BusinessApps: applicationRepo,
		Users:        userRepo,
		Addresses:    addressRepo,
		Provisioner:  provisioner,
		Outbox:       outboxService,
		Metrics:      workflowMetrics,
		Password:     cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create manager application service", err)
		os.Exit(1)
	}

	rosterService, err := roster.NewService(roster.ServiceParams{
		Logger:       logg,
		Users:        userRepo,
		Businesses:   businessRepo,
		BusinessApps: applicationRepo,
		ManagerApps:  managerAppRepo,
		Profiles:     profileRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create roster service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config: cfg,
			Logger: logg,
			Redis:  redisClient,
			ReadyChecks: map[string]controllers.Pinger{
				"database": dbClient,
				"redis":    redisClient,
			},
			BusinessApplications: businessAppService,
			ManagerApplications:  managerAppService,
			Roster:               rosterService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
