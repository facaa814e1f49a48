// internal/model/task.go
package model

import "time"

// DispatchTask is the unit of work placed on the queue by the batch
// scheduler, one per eligible recipient. It is immutable once enqueued;
// a throttled attempt is requeued as a fresh task with a new ID and a
// later NotBefore.
type DispatchTask struct {
	ID         string    `json:"id"`
	CampaignID int       `json:"campaign_id"`
	ContactID  int       `json:"contact_id"`
	InboxID    int       `json:"inbox_id"`
	NotBefore  time.Time `json:"not_before"`
}
