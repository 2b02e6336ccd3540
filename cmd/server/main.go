// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/codr1/fieldbook/internal/booking"
	"github.com/codr1/fieldbook/internal/booking/sqlstore"
	"github.com/codr1/fieldbook/internal/config"
	"github.com/codr1/fieldbook/internal/db"
	"github.com/codr1/fieldbook/internal/email"
	"github.com/codr1/fieldbook/internal/metrics"
	"github.com/codr1/fieldbook/internal/notify"
	"github.com/codr1/fieldbook/internal/scheduler"
)

const (
	defaultConfigPath = "config/app.yaml"
	shutdownTimeout   = 30 * time.Second
)

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func setupLogger(environment string, debug bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	zerolog.DefaultContextLogger = &log.Logger
}

// notifiers holds the configured notification channels and what must be
// drained or closed on shutdown.
type notifiers struct {
	notify.Notifier
	email     *notify.EmailNotifier
	publisher *notify.Publisher
}

func (n *notifiers) close() {
	if n.email != nil {
		n.email.Wait()
	}
	if n.publisher != nil {
		if err := n.publisher.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close AMQP publisher")
		}
	}
}

func buildNotifiers(cfg *config.Config, database *db.DB) (*notifiers, error) {
	out := &notifiers{}
	var chain notify.Multi
	for _, channel := range cfg.Notifications.ChannelList() {
		switch channel {
		case "log":
			chain = append(chain, notify.LogNotifier{})
		case "ses":
			ses := cfg.Notifications.SES
			client, err := email.NewSESClient(ses.AccessKeyID, ses.SecretAccessKey, ses.Region, ses.Sender)
			if err != nil {
				out.close()
				return nil, fmt.Errorf("ses client: %w", err)
			}
			out.email = notify.NewEmailNotifier(database.Queries, client, cfg.App.BaseURL)
			chain = append(chain, out.email)
		case "amqp":
			publisher, err := notify.NewPublisher(cfg.Notifications.AMQP.URL, cfg.Notifications.AMQP.Exchange)
			if err != nil {
				out.close()
				return nil, fmt.Errorf("amqp publisher: %w", err)
			}
			out.publisher = publisher
			chain = append(chain, notify.NewAMQPNotifier(publisher))
		}
		log.Info().Str("channel", channel).Msg("Notification channel enabled")
	}
	out.Notifier = chain
	return out, nil
}

func main() {
	cfg, err := config.Load(getEnv("CONFIG_PATH", defaultConfigPath))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogger(cfg.App.Environment, cfg.Features.EnableDebug)

	database, err := db.NewFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer database.Close()

	timezone, err := time.LoadLocation(cfg.Booking.Timezone)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load booking timezone")
	}

	engine := booking.New(sqlstore.New(database), &booking.Config{
		MaxOccurrences:   cfg.Booking.MaxOccurrences,
		AcceptanceWindow: cfg.Booking.AcceptanceWindow(),
		MaxWaitlistSize:  cfg.Booking.MaxWaitlistSize,
	})

	channels, err := buildNotifiers(cfg, database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up notifications")
	}
	defer channels.close()

	var appMetrics *metrics.Metrics
	if cfg.Features.EnableMetrics {
		appMetrics = metrics.New()
	}

	if err := scheduler.Init(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize scheduler")
	}
	svc, err := scheduler.ServiceInstance()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load scheduler")
	}
	jobs := &scheduler.WaitlistJobs{
		Engine:   engine,
		Notifier: channels,
		Metrics:  appMetrics,
		Location: timezone,
	}
	if err := scheduler.RegisterWaitlistJobs(svc, cfg.Jobs, jobs); err != nil {
		log.Fatal().Err(err).Msg("Failed to register waitlist jobs")
	}

	server := newServer(cfg, serverDeps{
		database: database,
		engine:   engine,
		notifier: channels,
		metrics:  appMetrics,
	})

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}

	// Run server
	g.Go(func() error {
		log.Info().Int("port", cfg.App.Port).Msg("Starting server")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Wait for interrupt signal
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		log.Info().Msg("Shutting down server")
		if err := scheduler.Stop(); err != nil {
			log.Warn().Err(err).Msg("Failed to stop scheduler")
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server terminated with error")
		channels.close()
		os.Exit(1)
	}
}
