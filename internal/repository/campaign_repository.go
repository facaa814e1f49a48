package repository

import (
	"database/sql"
	"encoding/json"

	"github.com/textloop/campaign-dispatch/internal/model"
)

type CampaignRepositoryInterface interface {
	GetByID(id int) (*model.Campaign, error)
	GetInbox(id int) (*model.Inbox, error)
	GetAccount(id int) (*model.Account, error)
	GetSender(id int) (*model.User, error)

	// MarkCompleted flips an active campaign to completed in a single
	// statement and reports whether this call won the transition.
	MarkCompleted(id int) (bool, error)

	GetDispatchStats(campaignID int) (map[string]int, error)
}

type CampaignRepository struct {
	DB *sql.DB
}

func (r *CampaignRepository) GetByID(id int) (*model.Campaign, error) {
	query := `
        SELECT id, account_id, inbox_id, sender_id, name, campaign_type, status,
               message, audience, trigger_rules, scheduled_at, created_at, updated_at
        FROM campaigns WHERE id=$1
    `
	var c model.Campaign
	var audienceRaw, rulesRaw []byte
	err := r.DB.QueryRow(query, id).Scan(
		&c.ID, &c.AccountID, &c.InboxID, &c.SenderID, &c.Name, &c.CampaignType,
		&c.Status, &c.Message, &audienceRaw, &rulesRaw, &c.ScheduledAt,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if len(audienceRaw) > 0 {
		if err := json.Unmarshal(audienceRaw, &c.Audience); err != nil {
			return nil, err
		}
	}
	if len(rulesRaw) > 0 {
		if err := json.Unmarshal(rulesRaw, &c.TriggerRules); err != nil {
			return nil, err
		}
	}
	return &c, nil
}

func (r *CampaignRepository) GetInbox(id int) (*model.Inbox, error) {
	query := `SELECT id, account_id, name, channel_type FROM inboxes WHERE id=$1`
	var ib model.Inbox
	err := r.DB.QueryRow(query, id).Scan(&ib.ID, &ib.AccountID, &ib.Name, &ib.ChannelType)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &ib, nil
}

func (r *CampaignRepository) GetAccount(id int) (*model.Account, error) {
	query := `SELECT id, name FROM accounts WHERE id=$1`
	var a model.Account
	err := r.DB.QueryRow(query, id).Scan(&a.ID, &a.Name)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *CampaignRepository) GetSender(id int) (*model.User, error) {
	query := `SELECT id, name, email FROM users WHERE id=$1`
	var u model.User
	err := r.DB.QueryRow(query, id).Scan(&u.ID, &u.Name, &u.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// MarkCompleted is the compare-and-set that guards against two
// concurrent scheduling runs double-enqueueing the same audience. The
// WHERE clause only matches the active state, so exactly one caller
// sees a row update.
func (r *CampaignRepository) MarkCompleted(id int) (bool, error) {
	query := `UPDATE campaigns SET status=$1, updated_at=NOW() WHERE id=$2 AND status=$3`
	res, err := r.DB.Exec(query, model.StatusCompleted, id, model.StatusActive)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *CampaignRepository) GetDispatchStats(campaignID int) (map[string]int, error) {
	stats := map[string]int{"conversations": 0, "messages_sent": 0}

	var conversations int
	err := r.DB.QueryRow(
		`SELECT COUNT(*) FROM conversations WHERE campaign_id=$1`, campaignID,
	).Scan(&conversations)
	if err != nil {
		return nil, err
	}
	stats["conversations"] = conversations

	var messages int
	err = r.DB.QueryRow(
		`SELECT COUNT(*) FROM messages WHERE campaign_id=$1`, campaignID,
	).Scan(&messages)
	if err != nil {
		return nil, err
	}
	stats["messages_sent"] = messages

	return stats, nil
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
