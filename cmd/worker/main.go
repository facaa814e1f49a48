package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"github.com/textloop/campaign-dispatch/internal/config"
	"github.com/textloop/campaign-dispatch/internal/db"
	"github.com/textloop/campaign-dispatch/internal/model"
	"github.com/textloop/campaign-dispatch/internal/quota"
	"github.com/textloop/campaign-dispatch/internal/queue"
	"github.com/textloop/campaign-dispatch/internal/repository"
	"github.com/textloop/campaign-dispatch/internal/service"
	"github.com/textloop/campaign-dispatch/internal/template"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

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

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

	campaignRepo := &repository.CampaignRepository{DB: conn}
	contactRepo := &repository.ContactRepository{DB: conn}
	conversationRepo := &repository.ConversationRepository{DB: conn}

	worker := &service.Worker{
		Dispatcher: &service.Dispatcher{
			Campaigns:     campaignRepo,
			Contacts:      contactRepo,
			Conversations: conversationRepo,
			Quota:         quota.NewRedisStore(redisClient),
			Renderer:      template.NewRenderer(log.With().Str("component", "renderer").Logger()),
			Log:           log.With().Str("component", "dispatcher").Logger(),
		},
		Queue: dispatchQueue,
		Log:   log.With().Str("component", "worker").Logger(),
	}

	deliveries, err := dispatchQueue.Consume()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to register consumer")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Msg("worker running, waiting for dispatch tasks")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("worker shutting down")
			return
		case d, ok := <-deliveries:
			if !ok {
				log.Error().Msg("delivery channel closed")
				return
			}

			var task model.DispatchTask
			if err := json.Unmarshal(d.Body, &task); err != nil {
				// A malformed body can never succeed; drop it rather
				// than loop on a poison message.
				log.Error().Err(err).Msg("invalid task payload, dropping")
				d.Ack(false)
				continue
			}

			// Process never returns an error: every outcome, including
			// failure, finishes the task. Reschedules go back through
			// Enqueue as new tasks.
			worker.Process(ctx, task)
			d.Ack(false)
		}
	}
}
