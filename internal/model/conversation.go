// internal/model/conversation.go
package model

import "time"

const (
	ConversationOpen     = "open"
	ConversationResolved = "resolved"

	MessageTypeOutgoing = "outgoing"
)

type Conversation struct {
	ID             int        `db:"id" json:"id"`
	AccountID      int        `db:"account_id" json:"account_id"`
	InboxID        int        `db:"inbox_id" json:"inbox_id"`
	ContactID      int        `db:"contact_id" json:"contact_id"`
	ContactInboxID int        `db:"contact_inbox_id" json:"contact_inbox_id"`
	Status         string     `db:"status" json:"status"`
	CampaignID     *int       `db:"campaign_id" json:"campaign_id,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

type Message struct {
	ID             int       `db:"id" json:"id"`
	ConversationID int       `db:"conversation_id" json:"conversation_id"`
	AccountID      int       `db:"account_id" json:"account_id"`
	InboxID        int       `db:"inbox_id" json:"inbox_id"`
	MessageType    string    `db:"message_type" json:"message_type"`
	Content        string    `db:"content" json:"content"`
	CampaignID     *int      `db:"campaign_id" json:"campaign_id,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
