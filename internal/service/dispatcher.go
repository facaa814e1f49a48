package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/textloop/campaign-dispatch/internal/model"
	"github.com/textloop/campaign-dispatch/internal/quota"
	"github.com/textloop/campaign-dispatch/internal/repository"
	"github.com/textloop/campaign-dispatch/internal/template"
)

// OutcomeKind tags what happened to a dispatch task.
type OutcomeKind int

const (
	// OutcomeSent means the message was rendered and appended.
	OutcomeSent OutcomeKind = iota
	// OutcomeSkipped means the contact lost its inbox binding since
	// scheduling; the task is done, nothing was sent, nothing failed.
	OutcomeSkipped
	// OutcomeRescheduled means today's quota is exhausted; the caller
	// must requeue the same logical send for NextAttempt.
	OutcomeRescheduled
	// OutcomeFailed means an unexpected error; the caller logs it and
	// finishes the task rather than letting the queue retry a poison
	// message forever.
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSent:
		return "sent"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeRescheduled:
		return "rescheduled"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// Outcome is the dispatcher's verdict on one task. Logging and requeue
// decisions belong to the caller at the queue boundary, keyed off Kind.
type Outcome struct {
	Kind        OutcomeKind
	NextAttempt time.Time // set when Kind == OutcomeRescheduled
	Err         error     // set when Kind == OutcomeFailed
}

// Dispatcher performs the throttled send for a single task: re-validate
// the binding, find or create the conversation, spend one quota unit,
// then render and append. The quota check runs at execution time, not
// scheduling time, because the gap between the two can span days.
type Dispatcher struct {
	Campaigns     repository.CampaignRepositoryInterface
	Contacts      repository.ContactRepositoryInterface
	Conversations repository.ConversationRepositoryInterface
	Quota         quota.Store
	Renderer      *template.Renderer
	Log           zerolog.Logger

	// Now is swappable in tests; defaults to time.Now.
	Now func() time.Time
}

func (d *Dispatcher) Dispatch(ctx context.Context, task model.DispatchTask) Outcome {
	campaign, err := d.Campaigns.GetByID(task.CampaignID)
	if err != nil {
		return failed(err)
	}
	if campaign == nil {
		return failed(fmt.Errorf("campaign %d not found", task.CampaignID))
	}

	contact, err := d.Contacts.GetByID(task.ContactID)
	if err != nil {
		return failed(err)
	}
	if contact == nil {
		return failed(fmt.Errorf("contact %d not found", task.ContactID))
	}

	binding, err := d.Contacts.GetContactInbox(task.ContactID, task.InboxID)
	if err != nil {
		return failed(err)
	}
	if binding == nil {
		// Eligibility changed since scheduling; a benign skip.
		return Outcome{Kind: OutcomeSkipped}
	}

	conversation, err := d.Conversations.FindOrCreateOpen(&model.Conversation{
		AccountID:      campaign.AccountID,
		InboxID:        campaign.InboxID,
		ContactID:      contact.ID,
		ContactInboxID: binding.ID,
		Status:         model.ConversationOpen,
		CampaignID:     &campaign.ID,
	})
	if err != nil {
		return failed(err)
	}

	if limit := campaign.TriggerRules.DailyLimit; limit > 0 {
		now := d.now()
		key := quota.Key(campaign.AccountID, now)

		count, err := d.Quota.IncrAndGet(ctx, key)
		if err != nil {
			return failed(err)
		}
		if count == 1 {
			if err := d.Quota.Expire(ctx, key, quota.TTL); err != nil {
				// The counter still works without the expiry; redis
				// will just carry a stale key a little longer.
				d.Log.Warn().Err(err).Str("key", key).Msg("failed to set quota expiry")
			}
		}

		if count > int64(limit) {
			// The increment that tripped this branch stays on the
			// counter: attempts are throttled, not sends. Rolling it
			// back would change the observable rate limiting.
			windowStart := campaign.TriggerRules.WindowStart
			if windowStart == "" {
				windowStart = rescheduleWindowStart
			}
			next := atWindowStart(now.AddDate(0, 0, 1), windowStart)
			return Outcome{Kind: OutcomeRescheduled, NextAttempt: next}
		}
	}

	mctx := template.Context{Contact: contact}
	mctx.Inbox, err = d.Campaigns.GetInbox(campaign.InboxID)
	if err != nil {
		return failed(err)
	}
	mctx.Account, err = d.Campaigns.GetAccount(campaign.AccountID)
	if err != nil {
		return failed(err)
	}
	if campaign.SenderID != 0 {
		mctx.Agent, err = d.Campaigns.GetSender(campaign.SenderID)
		if err != nil {
			return failed(err)
		}
	}

	content := d.Renderer.Render(campaign.Message, mctx)

	err = d.Conversations.AppendOutgoingMessage(&model.Message{
		ConversationID: conversation.ID,
		AccountID:      campaign.AccountID,
		InboxID:        campaign.InboxID,
		MessageType:    model.MessageTypeOutgoing,
		Content:        content,
		CampaignID:     &campaign.ID,
	})
	if err != nil {
		return failed(err)
	}

	return Outcome{Kind: OutcomeSent}
}

func (d *Dispatcher) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func failed(err error) Outcome {
	return Outcome{Kind: OutcomeFailed, Err: err}
}
