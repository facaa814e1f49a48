// internal/controller/campaign_controller.go
package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	appErrors "github.com/textloop/campaign-dispatch/internal/errors"
	"github.com/textloop/campaign-dispatch/internal/repository"
	"github.com/textloop/campaign-dispatch/internal/service"
)

// CampaignScheduler is what the controller needs from the batch
// scheduler; the narrow interface keeps the handler testable.
type CampaignScheduler interface {
	Schedule(ctx context.Context, campaignID int) (*service.SchedulePlan, error)
}

type CampaignController struct {
	Scheduler CampaignScheduler
	Campaigns repository.CampaignRepositoryInterface
	Log       zerolog.Logger
}

// TriggerCampaign launches the one-off campaign: partitions the
// audience into daily batches and enqueues a dispatch task per
// recipient.
func (c *CampaignController) TriggerCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}

	plan, err := c.Scheduler.Schedule(r.Context(), id)
	if err != nil {
		var notFound *appErrors.ErrCampaignNotFound
		var invalid *appErrors.ErrInvalidCampaign
		var processed *appErrors.ErrAlreadyProcessed
		switch {
		case errors.As(err, &notFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.As(err, &invalid):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		case errors.As(err, &processed):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			c.Log.Error().Err(err).Int("campaign_id", id).Msg("failed to schedule campaign")
			http.Error(w, "failed to schedule campaign", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(plan)
}

// GetCampaign returns the campaign with its dispatch stats.
func (c *CampaignController) GetCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}

	campaign, err := c.Campaigns.GetByID(id)
	if err != nil {
		c.Log.Error().Err(err).Int("campaign_id", id).Msg("failed to fetch campaign")
		http.Error(w, "failed to fetch campaign", http.StatusInternalServerError)
		return
	}
	if campaign == nil {
		http.Error(w, "campaign not found", http.StatusNotFound)
		return
	}

	stats, err := c.Campaigns.GetDispatchStats(id)
	if err != nil {
		c.Log.Error().Err(err).Int("campaign_id", id).Msg("failed to fetch campaign stats")
		http.Error(w, "failed to fetch campaign stats", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"campaign": campaign,
		"stats":    stats,
	})
}
