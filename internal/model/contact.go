// internal/model/contact.go
package model

type Contact struct {
	ID          int    `db:"id" json:"id"`
	AccountID   int    `db:"account_id" json:"account_id"`
	Name        string `db:"name" json:"name"`
	Email       string `db:"email" json:"email"`
	PhoneNumber string `db:"phone_number" json:"phone_number"`
}

// ContactInbox binds a contact to an inbox. A contact without a binding
// for the campaign's inbox cannot be messaged through it.
type ContactInbox struct {
	ID        int    `db:"id" json:"id"`
	ContactID int    `db:"contact_id" json:"contact_id"`
	InboxID   int    `db:"inbox_id" json:"inbox_id"`
	SourceID  string `db:"source_id" json:"source_id"`
}
