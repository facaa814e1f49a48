package repository

import (
	"database/sql"
	"time"

	"github.com/textloop/campaign-dispatch/internal/model"
)

type ConversationRepositoryInterface interface {
	FindOrCreateOpen(conv *model.Conversation) (*model.Conversation, error)
	AppendOutgoingMessage(msg *model.Message) error
}

type ConversationRepository struct {
	DB *sql.DB
}

// FindOrCreateOpen returns the open conversation for the contact-inbox,
// creating it when none exists. The upsert leans on the partial unique
// index (contact_inbox_id WHERE status='open'), so two workers racing
// on the same binding both land on the same row instead of creating a
// duplicate.
func (r *ConversationRepository) FindOrCreateOpen(conv *model.Conversation) (*model.Conversation, error) {
	query := `
        INSERT INTO conversations
            (account_id, inbox_id, contact_id, contact_inbox_id, status, campaign_id, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, NOW())
        ON CONFLICT (contact_inbox_id) WHERE status = 'open'
        DO UPDATE SET updated_at = NOW()
        RETURNING id, status, campaign_id, created_at
    `
	out := *conv
	err := r.DB.QueryRow(
		query,
		conv.AccountID, conv.InboxID, conv.ContactID, conv.ContactInboxID,
		model.ConversationOpen, conv.CampaignID,
	).Scan(&out.ID, &out.Status, &out.CampaignID, &out.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ConversationRepository) AppendOutgoingMessage(msg *model.Message) error {
	msg.CreatedAt = time.Now()
	query := `
        INSERT INTO messages
            (conversation_id, account_id, inbox_id, message_type, content, campaign_id, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id
    `
	return r.DB.QueryRow(
		query,
		msg.ConversationID, msg.AccountID, msg.InboxID, msg.MessageType,
		msg.Content, msg.CampaignID, msg.CreatedAt,
	).Scan(&msg.ID)
}

var _ ConversationRepositoryInterface = (*ConversationRepository)(nil)
