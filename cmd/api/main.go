package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ecosort/ecosort-backend/api/controllers"
	"github.com/ecosort/ecosort-backend/api/routes"
	"github.com/ecosort/ecosort-backend/internal/auth"
	"github.com/ecosort/ecosort-backend/internal/ledger"
	"github.com/ecosort/ecosort-backend/internal/media"
	"github.com/ecosort/ecosort-backend/internal/notifications"
	"github.com/ecosort/ecosort-backend/internal/redemptions"
	"github.com/ecosort/ecosort-backend/internal/reports"
	"github.com/ecosort/ecosort-backend/internal/rewards"
	"github.com/ecosort/ecosort-backend/internal/submissions"
	"github.com/ecosort/ecosort-backend/internal/users"
	"github.com/ecosort/ecosort-backend/internal/wastetypes"
	"github.com/ecosort/ecosort-backend/pkg/auth/session"
	"github.com/ecosort/ecosort-backend/pkg/config"
	"github.com/ecosort/ecosort-backend/pkg/db"
	"github.com/ecosort/ecosort-backend/pkg/logger"
	"github.com/ecosort/ecosort-backend/pkg/metrics"
	"github.com/ecosort/ecosort-backend/pkg/migrate"
	"github.com/ecosort/ecosort-backend/pkg/outbox"
	"github.com/ecosort/ecosort-backend/pkg/redis"
	"github.com/ecosort/ecosort-backend/pkg/storage/gcs"
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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(dbClient.DB()),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	usersService, err := users.NewService(users.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	wasteTypesService, err := wastetypes.NewService(wastetypes.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create waste types service", err)
		os.Exit(1)
	}

	ledgerService, err := ledger.NewService(ledger.NewRepository(dbClient.DB()), dbClient, outboxService)
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(notifications.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	submissionsService, err := submissions.NewService(
		submissions.NewRepository(dbClient.DB()),
		dbClient,
		ledgerService,
		wasteTypesService,
		notificationsService,
		outboxService,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create submissions service", err)
		os.Exit(1)
	}

	rewardsService, err := rewards.NewService(rewards.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create rewards service", err)
		os.Exit(1)
	}

	redemptionsService, err := redemptions.NewService(
		redemptions.NewRepository(dbClient.DB()),
		dbClient,
		rewardsService,
		ledgerService,
		notificationsService,
		outboxService,
		cfg.Redemptions.CodeLength,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create redemptions service", err)
		os.Exit(1)
	}

	reportsService, err := reports.NewService(reports.NewRepository(dbClient.DB()), dbClient, outboxService)
	if err != nil {
		logg.Error(context.Background(), "failed to create reports service", err)
		os.Exit(1)
	}

	// Media presign is optional. Without a bucket the route still exists
	// and answers with a service-unavailable error.
	var mediaService media.Service
	var gcsPinger controllers.Pinger
	if cfg.GCS.BucketName != "" {
		gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create gcs client", err)
			os.Exit(1)
		}
		mediaService, err = media.NewService(gcsClient, gcsClient.DefaultBucket(), cfg.GCS.UploadURLExpiry, cfg.GCS.DownloadURLExpiry)
		if err != nil {
			logg.Error(context.Background(), "failed to create media service", err)
			os.Exit(1)
		}
		gcsPinger = gcsClient
	} else {
		logg.Warn(context.Background(), "gcs bucket not configured, media presign disabled")
	}

	promRegistry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(promRegistry)

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
		Handler: routes.NewRouter(routes.Deps{
			Config:         cfg,
			Logger:         logg,
			Sessions:       sessionManager,
			Redis:          redisClient,
			DBPinger:       dbClient,
			RedisPinger:    redisClient,
			GCSPinger:      gcsPinger,
			HTTPMetrics:    httpMetrics,
			MetricsHandler: promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}),
			Auth:           authService,
			Users:          usersService,
			WasteTypes:     wasteTypesService,
			Submissions:    submissionsService,
			Rewards:        rewardsService,
			Redemptions:    redemptionsService,
			Ledger:         ledgerService,
			Notifications:  notificationsService,
			Reports:        reportsService,
			Media:          mediaService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
