// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"github.com/textloop/campaign-dispatch/internal/config"
	"github.com/textloop/campaign-dispatch/internal/controller"
	"github.com/textloop/campaign-dispatch/internal/db"
	"github.com/textloop/campaign-dispatch/internal/queue"
	"github.com/textloop/campaign-dispatch/internal/repository"
	"github.com/textloop/campaign-dispatch/internal/service"
)

func main() {
	log := newLogger()

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, relying on OS environment variables")
	}
	cfg := config.Load()
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		log = log.Level(level)
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer conn.Close()

	amqpConn, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to rabbitmq")
	}
	defer amqpConn.Close()

	ch, err := amqpConn.Channel()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open rabbitmq channel")
	}
	defer ch.Close()

	dispatchQueue, err := queue.NewAMQPQueue(ch)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to declare dispatch queues")
	}

	// The quota store lives in redis so worker processes on other
	// machines see the same counter; the server itself only needs the
	// scheduler, but wiring fails fast here if redis is down.
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

	campaignRepo := &repository.CampaignRepository{DB: conn}
	contactRepo := &repository.ContactRepository{DB: conn}

	scheduler := &service.BatchScheduler{
		Campaigns: campaignRepo,
		Contacts:  contactRepo,
		Queue:     dispatchQueue,
		Log:       log.With().Str("component", "scheduler").Logger(),
	}

	campaignController := &controller.CampaignController{
		Scheduler: scheduler,
		Campaigns: campaignRepo,
		Log:       log.With().Str("component", "controller").Logger(),
	}

	r := chi.NewRouter()
	r.Post("/campaigns/{id}/trigger", campaignController.TriggerCampaign)
	r.Get("/campaigns/{id}", campaignController.GetCampaign)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if err := conn.Ping(); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			http.Error(w, "redis unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("server listening")
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func newLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
}
