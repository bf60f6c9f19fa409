package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"

	"github.com/cypherlabdev/maestro-tips/internal/ai"
	"github.com/cypherlabdev/maestro-tips/internal/auth"
	"github.com/cypherlabdev/maestro-tips/internal/cache"
	"github.com/cypherlabdev/maestro-tips/internal/config"
	httpHandler "github.com/cypherlabdev/maestro-tips/internal/handler/http"
	"github.com/cypherlabdev/maestro-tips/internal/messaging"
	"github.com/cypherlabdev/maestro-tips/internal/metrics"
	"github.com/cypherlabdev/maestro-tips/internal/models"
	"github.com/cypherlabdev/maestro-tips/internal/notify"
	"github.com/cypherlabdev/maestro-tips/internal/realtime"
	"github.com/cypherlabdev/maestro-tips/internal/scheduler"
	"github.com/cypherlabdev/maestro-tips/internal/service"
	"github.com/cypherlabdev/maestro-tips/internal/store/firestorestore"
	"github.com/cypherlabdev/maestro-tips/internal/store/memory"
	"github.com/cypherlabdev/maestro-tips/internal/store/redisstore"
	"github.com/cypherlabdev/maestro-tips/internal/store/sqlstore"
)

func main() {
	configPath := flag.String("config", os.Getenv("MAESTRO_CONFIG"), "path to a YAML config file")
	issueToken := flag.String("issue-token", "", "print a signed JWT for ROLE:USER_ID[:NAME] and exit")
	flag.Parse()

	if err := config.LoadDotEnv(); err != nil {
		log.Fatal().Err(err).Msg("failed to load .env")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	logger := setupLogger(cfg.Logging)

	if *issueToken != "" {
		if err := printToken(cfg.Auth, *issueToken); err != nil {
			logger.Fatal().Err(err).Msg("failed to issue token")
		}
		return
	}

	logger.Info().Str("backend", cfg.Backend.Type).Msg("starting maestro-tips")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Persistence
	backend, err := openBackend(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open backend")
	}
	defer backend.Close()

	if err := backend.Ping(ctx); err != nil {
		logger.Warn().Err(err).Str("backend", backend.Name()).Msg("backend not reachable yet")
	} else {
		logger.Info().Str("backend", backend.Name()).Msg("backend connected")
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	// Live feed and event bus
	hub := realtime.NewHub(cfg.Server.CORSOrigins, logger)
	go hub.Run(ctx)

	var publisher service.EventPublisher = hub
	if cfg.Kafka.Enabled {
		kafkaPublisher := messaging.NewKafkaPublisher(messaging.KafkaPublisherConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
		}, logger)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher

		consumer := messaging.NewKafkaConsumer(messaging.KafkaConsumerConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
			GroupID: cfg.Kafka.GroupID,
		}, hub, logger)

		go func() {
			if err := consumer.Start(ctx); err != nil {
				logger.Error().Err(err).Msg("Kafka consumer failed")
			}
		}()
		logger.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("tip events routed through Kafka")
	}

	notifier := buildNotifier(cfg.Notify, logger)

	// Services
	timeout := cfg.Backend.Timeout
	tips := service.NewTipService(backend, publisher, notifier, m, timeout, logger)
	stats := service.NewStatsService(tips)
	news := service.NewNewsService(backend, m, timeout, logger)
	messages := service.NewMessageService(backend, notifier, m, timeout, logger)

	var advisor service.Advisor
	var suggestions service.SuggestionCache
	if cfg.AI.Enabled {
		client, err := ai.New(ai.Config{
			APIKey:  cfg.AI.APIKey,
			Model:   cfg.AI.Model,
			BaseURL: cfg.AI.BaseURL,
			Timeout: cfg.AI.Timeout,
		}, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create AI client")
		}
		advisor = client

		redisCache := cache.NewRedisCache(cache.RedisCacheConfig{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
			TTL:       cfg.Redis.SuggestionTTL,
		}, logger)
		defer redisCache.Close()

		if err := redisCache.Ping(ctx); err != nil {
			logger.Warn().Err(err).Msg("suggestion cache unavailable, suggestions will not be retained")
		} else {
			suggestions = redisCache
		}
	}
	advisorService := service.NewAdvisorService(advisor, tips, suggestions, m, cfg.AI.Timeout, logger)

	if cfg.Scheduler.Enabled {
		checker := scheduler.NewResultChecker(tips, advisorService, scheduler.Config{
			Spec:        cfg.Scheduler.ResultCheckSpec,
			SettleDelay: cfg.Scheduler.SettleDelay,
			MaxPerRun:   cfg.Scheduler.MaxPerRun,
		}, logger)
		if err := checker.Start(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to start result checker")
		}
		defer checker.Stop()
	}

	// Identity
	verifier, err := buildVerifier(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure authentication")
	}

	// HTTP
	if !logger.Debug().Enabled() {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := httpHandler.NewHandler(httpHandler.Deps{
		Tips:     tips,
		Stats:    stats,
		News:     news,
		Messages: messages,
		Advisor:  advisorService,
		Backend:  backend,
		Verifier: verifier,
		LiveFeed: hub,
		Metrics:  m,
		Gatherer: prometheus.DefaultGatherer,
	}, logger)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler.Router(ctx, cfg.Server.CORSOrigins),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("HTTP server failed")
			cancel()
		}
	}()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	logger.Info().Msg("shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	cancel()

	logger.Info().Msg("shutdown complete")
}

// setupLogger configures the logger based on config
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	return log.Logger.With().Str("service", "maestro-tips").Logger()
}

// openBackend connects the configured persistence backend
func openBackend(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (service.Backend, error) {
	switch cfg.Backend.Type {
	case config.BackendSQL:
		return sqlstore.Open(sqlstore.Config{
			URL:             cfg.Database.URL,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			AutoMigrate:     cfg.Database.AutoMigrate,
			LogLevel:        cfg.Database.LogLevel,
		}, logger)

	case config.BackendFirestore:
		return firestorestore.Open(ctx, firestorestore.Config{
			ProjectID:       cfg.Firestore.ProjectID,
			CredentialsJSON: cfg.Firestore.CredentialsJSON,
		}, logger)

	case config.BackendRedis:
		return redisstore.New(redisstore.Config{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		}, logger), nil

	default:
		logger.Warn().Msg("using in-memory backend, data is lost on restart")
		return memory.New(), nil
	}
}

// buildVerifier selects the identity provider
func buildVerifier(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (auth.Verifier, error) {
	if cfg.Auth.Provider == config.AuthFirebase {
		var opts []option.ClientOption
		if cfg.Firestore.CredentialsJSON != "" {
			opts = append(opts, option.WithCredentialsJSON([]byte(cfg.Firestore.CredentialsJSON)))
		}
		app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.Firestore.ProjectID}, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
		}
		return auth.NewFirebaseVerifier(ctx, app)
	}

	if cfg.Auth.JWTSecret == "" {
		logger.Warn().Msg("auth.jwt_secret not set, every request is anonymous")
		return nil, nil
	}
	return auth.NewJWTVerifier(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
}

// buildNotifier combines every configured notifier. It returns nil when
// none is configured.
func buildNotifier(cfg config.NotifyConfig, logger zerolog.Logger) service.Notifier {
	var multi notify.Multi

	if cfg.DiscordWebhookID != "" {
		discord, err := notify.NewDiscordNotifier(notify.DiscordConfig{
			WebhookID:    cfg.DiscordWebhookID,
			WebhookToken: cfg.DiscordWebhookToken,
			Username:     cfg.DiscordUsername,
		}, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("discord announcements disabled")
		} else {
			multi = append(multi, discord)
		}
	}

	if cfg.ResendAPIKey != "" {
		email, err := notify.NewEmailNotifier(notify.EmailConfig{
			APIKey:     cfg.ResendAPIKey,
			From:       cfg.EmailFrom,
			AdminEmail: cfg.AdminEmail,
		}, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("inbox emails disabled")
		} else {
			multi = append(multi, email)
		}
	}

	if len(multi) == 0 {
		return nil
	}
	return multi
}

// printToken issues a JWT for local administration, e.g. ADMIN:maestro:Maestro
func printToken(cfg config.AuthConfig, spec string) error {
	parts := strings.SplitN(spec, ":", 3)
	if len(parts) < 2 || parts[1] == "" {
		return fmt.Errorf("expected ROLE:USER_ID[:NAME], got %q", spec)
	}

	actor := models.Actor{Role: models.Role(strings.ToUpper(parts[0])), UserID: parts[1]}
	if len(parts) == 3 {
		actor.Name = parts[2]
	}

	verifier, err := auth.NewJWTVerifier(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return err
	}
	token, err := verifier.GenerateToken(actor)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
