package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/textloop/campaign-dispatch/internal/model"
	"github.com/textloop/campaign-dispatch/internal/queue"
)

// Worker sits between the queue runtime and the dispatcher: it logs
// each outcome and turns a Rescheduled verdict into a fresh task. It
// never reports failure upward, so the queue's own retry policy cannot
// stack on top of the engine's reschedule logic.
type Worker struct {
	Dispatcher *Dispatcher
	Queue      queue.Queue
	Log        zerolog.Logger
}

func (w *Worker) Process(ctx context.Context, task model.DispatchTask) {
	log := w.Log.With().
		Str("task_id", task.ID).
		Int("campaign_id", task.CampaignID).
		Int("contact_id", task.ContactID).
		Logger()

	outcome := w.Dispatcher.Dispatch(ctx, task)
	switch outcome.Kind {
	case OutcomeSent:
		log.Info().Msg("message dispatched")
	case OutcomeSkipped:
		log.Info().Msg("contact no longer bound to inbox, skipping")
	case OutcomeRescheduled:
		requeued := task
		requeued.ID = uuid.NewString()
		requeued.NotBefore = outcome.NextAttempt
		if err := w.Queue.Enqueue(ctx, requeued, outcome.NextAttempt); err != nil {
			log.Error().Err(err).Time("next_attempt", outcome.NextAttempt).
				Msg("failed to requeue throttled dispatch")
			return
		}
		log.Info().Time("next_attempt", outcome.NextAttempt).
			Msg("daily limit reached, rescheduled for next window")
	case OutcomeFailed:
		log.Error().Err(outcome.Err).Msg("dispatch failed")
	}
}
