package repository

import (
	"database/sql"

	"github.com/lib/pq"

	"github.com/textloop/campaign-dispatch/internal/model"
)

// ContactRepositoryInterface defines the audience-side lookups used by
// the scheduler and the dispatch worker.
type ContactRepositoryInterface interface {
	GetByID(id int) (*model.Contact, error)
	ListByAudience(accountID int, audience []model.AudienceEntry) ([]model.Contact, error)
	GetContactInbox(contactID, inboxID int) (*model.ContactInbox, error)
}

type ContactRepository struct {
	DB *sql.DB
}

func (r *ContactRepository) GetByID(id int) (*model.Contact, error) {
	query := `
        SELECT id, account_id, name, email, phone_number
        FROM contacts
        WHERE id = $1
    `
	var c model.Contact
	err := r.DB.QueryRow(query, id).Scan(&c.ID, &c.AccountID, &c.Name, &c.Email, &c.PhoneNumber)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// ListByAudience resolves the campaign's label selectors to the set of
// tagged contacts. Ordering by contact id keeps the snapshot stable so
// a rerun partitions recipients into the same per-day batches.
func (r *ContactRepository) ListByAudience(accountID int, audience []model.AudienceEntry) ([]model.Contact, error) {
	labelIDs := []int64{}
	for _, entry := range audience {
		if entry.Type == "Label" {
			labelIDs = append(labelIDs, int64(entry.ID))
		}
	}
	if len(labelIDs) == 0 {
		return []model.Contact{}, nil
	}

	query := `
        SELECT DISTINCT c.id, c.account_id, c.name, c.email, c.phone_number
        FROM contacts c
        JOIN contact_labels cl ON cl.contact_id = c.id
        WHERE c.account_id = $1 AND cl.label_id = ANY($2)
        ORDER BY c.id
    `
	rows, err := r.DB.Query(query, accountID, pq.Array(labelIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := []model.Contact{}
	for rows.Next() {
		var c model.Contact
		if err := rows.Scan(&c.ID, &c.AccountID, &c.Name, &c.Email, &c.PhoneNumber); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

func (r *ContactRepository) GetContactInbox(contactID, inboxID int) (*model.ContactInbox, error) {
	query := `
        SELECT id, contact_id, inbox_id, source_id
        FROM contact_inboxes
        WHERE contact_id = $1 AND inbox_id = $2
    `
	var ci model.ContactInbox
	err := r.DB.QueryRow(query, contactID, inboxID).Scan(&ci.ID, &ci.ContactID, &ci.InboxID, &ci.SourceID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &ci, nil
}

var _ ContactRepositoryInterface = (*ContactRepository)(nil)
