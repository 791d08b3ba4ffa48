package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/tendant/chi-demo/app"

	"github.com/clavionx/ecs-auth/pkg/api"
	"github.com/clavionx/ecs-auth/pkg/authflow"
	"github.com/clavionx/ecs-auth/pkg/config"
	"github.com/clavionx/ecs-auth/pkg/device"
	"github.com/clavionx/ecs-auth/pkg/login"
	"github.com/clavionx/ecs-auth/pkg/notification"
	"github.com/clavionx/ecs-auth/pkg/session"
	"github.com/clavionx/ecs-auth/pkg/session/sessionmetrics"
	"github.com/clavionx/ecs-auth/pkg/tracking"
	"github.com/clavionx/ecs-auth/pkg/twofa"
)

// serverConfig holds the process-level knobs. Subsystem configs live in
// pkg/config and are loaded by their own FromEnv constructors.
type serverConfig struct {
	// Store selects the backend: "inmem", "postgres", or
	// "postgres+redis" (Postgres for durable rows, Redis for the
	// session registry).
	Store    string `env:"ECS_STORE" env-default:"inmem"`
	LogLevel string `env:"ECS_LOG_LEVEL" env-default:"debug"`
}

// repositories groups the storage layer so backends can be swapped as a set.
type repositories struct {
	users    login.UserRepository
	codes    twofa.TwoFaRepository
	devices  device.TrustedDeviceRepository
	sessions session.SessionRepository
}

func buildRepositories(ctx context.Context, backend string) (repositories, error) {
	switch backend {
	case "inmem":
		slog.Warn("Using in-memory storage, all state is lost on restart")
		return repositories{
			users:    login.NewInMemUserRepository(),
			codes:    twofa.NewInMemTwoFaRepository(),
			devices:  device.NewInMemTrustedDeviceRepository(),
			sessions: session.NewInMemSessionRepository(),
		}, nil

	case "postgres", "postgres+redis":
		dbConfig := config.NewDatabaseConfigFromEnv()
		pool, err := pgxpool.New(ctx, dbConfig.ToDatabaseURL())
		if err != nil {
			return repositories{}, err
		}

		repos := repositories{
			users:    login.NewPostgresUserRepository(pool),
			codes:    twofa.NewPostgresTwoFaRepository(pool),
			devices:  device.NewPostgresTrustedDeviceRepository(pool),
			sessions: session.NewPostgresSessionRepository(pool),
		}

		if backend == "postgres+redis" {
			redisConfig := config.NewRedisConfigFromEnv()
			client := redis.NewClient(redisConfig.ToOptions())
			if err := client.Ping(ctx).Err(); err != nil {
				return repositories{}, err
			}
			repos.sessions = session.NewRedisSessionRepository(client)
		}

		slog.Info("Storage configured", "backend", backend,
			"db", dbConfig.Database, "host", dbConfig.Host)
		return repos, nil

	default:
		slog.Error("Unknown ECS_STORE backend", "backend", backend)
		os.Exit(-1)
		return repositories{}, nil
	}
}

func buildNotificationManager() (*notification.NotificationManager, error) {
	opts := []notification.NotificationManagerOption{
		notification.WithDefaultTemplates(),
		notification.WithSMTP(config.NewEmailConfigFromEnv().ToSMTPConfig()),
	}

	twilioConfig := config.NewTwilioConfigFromEnv().ToNotificationTwilioConfig()
	if twilioConfig.IsConfigured() {
		opts = append(opts, notification.WithTwilio(twilioConfig))
	} else {
		slog.Info("Twilio not configured, SMS delivery disabled")
	}

	return notification.NewNotificationManagerWithOptions(opts...)
}

func logLevel(name string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelDebug
	}
	return level
}

func main() {
	if err := godotenv.Load(); err == nil {
		slog.Info("Loaded configuration from .env file")
	}

	serverCfg := serverConfig{}
	cleanenv.ReadEnv(&serverCfg)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(serverCfg.LogLevel),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, err := buildRepositories(ctx, serverCfg.Store)
	if err != nil {
		slog.Error("Failed to set up storage", "error", err)
		os.Exit(-1)
	}

	notificationManager, err := buildNotificationManager()
	if err != nil {
		slog.Error("Failed to set up notifications", "error", err)
		os.Exit(-1)
	}

	loginConfig := config.NewLoginConfigFromEnv()
	passwordConfig := config.NewPasswordConfigFromEnv()
	twofaConfig := config.NewTwoFactorConfigFromEnv()
	deviceConfig := config.NewDeviceConfigFromEnv()
	sessionConfig := config.NewSessionConfigFromEnv()
	trackingConfig := config.NewTrackingConfigFromEnv()

	loginService := login.NewLoginService(repos.users,
		login.WithLockoutPolicy(loginConfig.MaxFailedAttempts, loginConfig.LockoutDuration),
		login.WithPasswordPolicy(passwordConfig.ToPasswordPolicy()))
	twofaService := twofa.NewTwoFaService(repos.codes, notificationManager,
		twofa.WithCodePeriod(twofaConfig.CodePeriod),
		twofa.WithFailurePolicy(twofaConfig.MaxFailedCodes, twofaConfig.LockWindow))
	deviceService := device.NewDeviceService(repos.devices,
		device.WithTrustDuration(deviceConfig.TrustDuration))

	sessionOpts := []session.SessionServiceOption{
		session.WithMaxSessionsPerUser(sessionConfig.MaxSessionsPerUser),
		session.WithInactivityTimeout(sessionConfig.InactivityTimeout),
		session.WithRetentionPeriod(sessionConfig.RetentionPeriod),
	}
	if sessionConfig.SingleSession {
		sessionOpts = append(sessionOpts, session.WithSingleSession())
	}
	sessionService := session.NewSessionService(repos.sessions, sessionOpts...)

	flowService := authflow.NewAuthFlowService(loginService, twofaService, deviceService)
	tracker := tracking.NewTracker(sessionService, loginService, sessionConfig.CookieName, trackingConfig)

	sessionmetrics.Init()

	cleaner := session.NewCleaner(sessionService,
		session.WithCleanupInterval(sessionConfig.CleanupInterval),
		session.WithExtraTask("expired_devices", deviceService.PurgeExpired),
		session.WithExtraTask("consumed_codes", twofaService.PurgeConsumed),
	)
	go cleaner.Start(ctx)

	server := app.DefaultApp()
	app.RegisterHealthzRoutes(server.R)

	router := api.NewRouter(api.RouterDeps{
		Auth:     api.NewAuthHandler(flowService, sessionService, sessionConfig.CookieName, sessionConfig.CookieSecure),
		Sessions: api.NewSessionHandler(sessionService),
		Devices:  api.NewDeviceHandler(deviceService),
		Tracker:  tracker,
	})
	server.R.Mount("/", router)

	server.Run()
}
