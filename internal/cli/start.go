package cli

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"assessment-service/internal/app"
	"assessment-service/internal/auth"
	"assessment-service/internal/config"
	"assessment-service/internal/event"
	"assessment-service/internal/observability"
	"assessment-service/internal/platform/logger"
	"assessment-service/internal/render"
	transport "assessment-service/internal/transport/http"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, log, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	defer log.Sync()

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	shutdownTracing := observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:     cfg.Telemetry.Enabled,
		ServiceName: cfg.Telemetry.ServiceName,
		Environment: cfg.Telemetry.Environment,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Insecure:    cfg.Telemetry.Insecure,
		SampleRatio: cfg.Telemetry.SampleRatio,
	})
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn("tracer shutdown failed", "error", err)
		}
	}()

	b, err := openBackend(ctx, cfg, log, true)
	if err != nil {
		return err
	}
	defer b.Close()

	if cfg.Storage.Driver == "" || cfg.Storage.Driver == "memory" {
		n, err := seedQuestions(ctx, b.stores.Questions)
		if err != nil {
			return err
		}
		log.Info("seeded in-memory question bank", "questions", n)
	}

	tokens, err := auth.NewTokenManager(jwtSecret(cfg, log), config.TTLDuration(cfg.Auth.TokenTTL, auth.DefaultTokenTTL))
	if err != nil {
		return err
	}

	var events app.EventPublisher
	if cfg.RabbitMQ.URI != "" {
		publisher, err := event.NewPublisher(cfg.RabbitMQ.URI, cfg.RabbitMQ.Exchange, log)
		if err != nil {
			// Events are best-effort; the API still serves without a broker.
			log.Warn("rabbitmq unavailable, events disabled", "error", err)
		} else {
			defer publisher.Close()
			events = publisher
		}
	}

	metrics := observability.NewMetrics()
	feed := app.NewFeed()
	issuer := app.NewCertificateIssuer(cfg.Quiz.CertificatePrefix, b.stores.Submissions)
	renderer := render.NewRenderer(render.Brand{
		Name:      cfg.Certificate.Brand,
		Tagline:   cfg.Certificate.Tagline,
		Team:      cfg.Certificate.Team,
		VerifyURL: cfg.Certificate.VerifyURL,
	})

	quiz := app.NewQuizService(b.stores, issuer, events, feed, metrics, log, app.QuizOptions{
		QuestionLimit:  cfg.Quiz.QuestionLimit,
		AttemptTTL:     config.TTLDuration(cfg.Quiz.AttemptTTL, app.DefaultAttemptTTL),
		RequireAttempt: cfg.Quiz.RequireAttempt,
	})
	admin := app.NewAdminService(b.stores, tokens, issuer, log)
	certificates := app.NewCertificateService(b.stores.Submissions, b.stores.Users, renderer, metrics, issuer.Prefix())

	if cfg.Log.Mode == "prod" || cfg.Log.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := transport.NewRouter(transport.Deps{
		Quiz:         quiz,
		Admin:        admin,
		Certificates: certificates,
		Feed:         feed,
		Tokens:       tokens,
		Metrics:      metrics,
		Log:          log,
		CORSOrigins:  cfg.Server.CORSOrigins,
		ServiceName:  cfg.Telemetry.ServiceName,
		ExportPrefix: issuer.Prefix(),
	})

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  config.TTLDuration(cfg.Server.ReadTimeout, 15*time.Second),
		WriteTimeout: config.TTLDuration(cfg.Server.WriteTimeout, 15*time.Second),
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting assessment service", "port", finalPort, "driver", cfg.Storage.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	case err := <-serveErr:
		log.Error("server failed", "error", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// jwtSecret returns the configured signing secret, or a random one that
// invalidates sessions on restart.
func jwtSecret(cfg config.Config, log *logger.Logger) string {
	if cfg.Auth.JWTSecret != "" {
		return cfg.Auth.JWTSecret
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	log.Warn("JWT_SECRET not set, using an ephemeral secret")
	return hex.EncodeToString(buf)
}
