package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appErrors "github.com/textloop/campaign-dispatch/internal/errors"
	"github.com/textloop/campaign-dispatch/internal/model"
	"github.com/textloop/campaign-dispatch/internal/queue"
	"github.com/textloop/campaign-dispatch/internal/repository"
)

// defaultDailyCap stands in for "unlimited" when no daily limit is
// configured, so the day-offset math stays uniform.
const defaultDailyCap = 10_000

// BatchScheduler turns a campaign launch into one queued DispatchTask
// per eligible recipient, spread across days by the daily limit.
type BatchScheduler struct {
	Campaigns repository.CampaignRepositoryInterface
	Contacts  repository.ContactRepositoryInterface
	Queue     queue.Queue
	Log       zerolog.Logger

	// Now is swappable in tests; defaults to time.Now.
	Now func() time.Time
}

// SchedulePlan summarizes a scheduling run.
type SchedulePlan struct {
	CampaignID int `json:"campaign_id"`
	Scheduled  int `json:"scheduled"`
	Skipped    int `json:"skipped"`
	Days       int `json:"days"`
}

// Schedule validates the campaign, atomically marks it completed, and
// enqueues the audience. The completed mark happens before any enqueue
// so a concurrent launch of the same campaign cannot double-send.
func (s *BatchScheduler) Schedule(ctx context.Context, campaignID int) (*SchedulePlan, error) {
	campaign, err := s.Campaigns.GetByID(campaignID)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, appErrors.NewCampaignNotFound(campaignID)
	}

	inbox, err := s.Campaigns.GetInbox(campaign.InboxID)
	if err != nil {
		return nil, err
	}
	if inbox == nil || inbox.ChannelType != model.ChannelTwilioSMS {
		return nil, appErrors.NewInvalidCampaign(campaignID, "inbox does not support SMS")
	}
	if campaign.CampaignType != model.CampaignTypeOneOff {
		return nil, appErrors.NewInvalidCampaign(campaignID, "not a one-off campaign")
	}
	if campaign.Status == model.StatusCompleted {
		return nil, appErrors.NewAlreadyProcessed(campaignID)
	}
	if campaign.Status != model.StatusActive {
		return nil, appErrors.NewInvalidCampaign(campaignID, "campaign is not active")
	}

	won, err := s.Campaigns.MarkCompleted(campaignID)
	if err != nil {
		return nil, err
	}
	if !won {
		// Another scheduler run got here first.
		return nil, appErrors.NewAlreadyProcessed(campaignID)
	}

	contacts, err := s.Contacts.ListByAudience(campaign.AccountID, campaign.Audience)
	if err != nil {
		return nil, err
	}

	limit := campaign.TriggerRules.DailyLimit
	if limit <= 0 {
		limit = defaultDailyCap
	}
	windowStart := campaign.TriggerRules.WindowStart
	if windowStart == "" {
		windowStart = scheduleWindowStart
	}

	base := s.now()
	if campaign.ScheduledAt != nil {
		base = *campaign.ScheduledAt
	}

	plan := &SchedulePlan{CampaignID: campaignID}
	eligible := 0
	for _, contact := range contacts {
		if contact.PhoneNumber == "" {
			plan.Skipped++
			s.Log.Debug().Int("campaign_id", campaignID).Int("contact_id", contact.ID).
				Msg("skipping contact without phone number")
			continue
		}

		binding, err := s.Contacts.GetContactInbox(contact.ID, campaign.InboxID)
		if err != nil {
			plan.Skipped++
			s.Log.Error().Err(err).Int("campaign_id", campaignID).Int("contact_id", contact.ID).
				Msg("failed to resolve contact inbox, skipping contact")
			continue
		}
		if binding == nil {
			plan.Skipped++
			s.Log.Debug().Int("campaign_id", campaignID).Int("contact_id", contact.ID).
				Msg("skipping contact without inbox binding")
			continue
		}

		// Eligible recipient i lands on day i / limit, at the window's
		// opening time. A target in the past is enqueued as-is; the
		// queue runs it immediately, which is right for today's batch
		// when the window already opened.
		dayOffset := eligible / limit
		eligible++

		notBefore := atWindowStart(base.AddDate(0, 0, dayOffset), windowStart)
		task := model.DispatchTask{
			ID:         uuid.NewString(),
			CampaignID: campaignID,
			ContactID:  contact.ID,
			InboxID:    campaign.InboxID,
			NotBefore:  notBefore,
		}

		if err := s.Queue.Enqueue(ctx, task, notBefore); err != nil {
			// One bad recipient must not abort the rest of the batch.
			s.Log.Error().Err(err).Int("campaign_id", campaignID).Int("contact_id", contact.ID).
				Msg("failed to enqueue dispatch task")
			continue
		}

		plan.Scheduled++
		if dayOffset+1 > plan.Days {
			plan.Days = dayOffset + 1
		}
	}

	s.Log.Info().Int("campaign_id", campaignID).Int("scheduled", plan.Scheduled).
		Int("skipped", plan.Skipped).Int("days", plan.Days).
		Msg("campaign batch scheduled")
	return plan, nil
}

func (s *BatchScheduler) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
