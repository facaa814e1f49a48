// internal/model/campaign.go
package model

import "time"

const (
	StatusDraft     = "draft"
	StatusActive    = "active"
	StatusCompleted = "completed"

	CampaignTypeOneOff  = "one_off"
	CampaignTypeOngoing = "ongoing"

	ChannelTwilioSMS = "twilio_sms"
)

// AudienceEntry is one selector in a campaign's audience list. Only
// Label entries are resolved today; other types are ignored.
type AudienceEntry struct {
	Type string `json:"type"`
	ID   int    `json:"id"`
}

// TriggerRules carries the throttling policy. A DailyLimit of zero
// means unlimited. Window times are "HH:MM" strings.
type TriggerRules struct {
	DailyLimit  int    `json:"daily_limit"`
	WindowStart string `json:"window_start"`
	WindowEnd   string `json:"window_end"`
}

type Campaign struct {
	ID           int             `db:"id" json:"id"`
	AccountID    int             `db:"account_id" json:"account_id"`
	InboxID      int             `db:"inbox_id" json:"inbox_id"`
	SenderID     int             `db:"sender_id" json:"sender_id"`
	Name         string          `db:"name" json:"name"`
	CampaignType string          `db:"campaign_type" json:"campaign_type"`
	Status       string          `db:"status" json:"status"`
	Message      string          `db:"message" json:"message"`
	Audience     []AudienceEntry `db:"audience" json:"audience"`
	TriggerRules TriggerRules    `db:"trigger_rules" json:"trigger_rules"`
	ScheduledAt  *time.Time      `db:"scheduled_at" json:"scheduled_at,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    *time.Time      `db:"updated_at" json:"updated_at,omitempty"`
}

type Inbox struct {
	ID          int    `db:"id" json:"id"`
	AccountID   int    `db:"account_id" json:"account_id"`
	Name        string `db:"name" json:"name"`
	ChannelType string `db:"channel_type" json:"channel_type"`
}
