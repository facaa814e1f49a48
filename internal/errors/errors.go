// internal/errors/errors.go
package appErrors

import "fmt"

// ErrCampaignNotFound is a sentinel error
type ErrCampaignNotFound struct {
	CampaignID int
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign with ID %d not found", e.CampaignID)
}

// Helper constructor
func NewCampaignNotFound(id int) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

// ErrInvalidCampaign means the campaign cannot be scheduled at all:
// wrong channel type, not a one-off, or not in an active state.
type ErrInvalidCampaign struct {
	CampaignID int
	Reason     string
}

func (e *ErrInvalidCampaign) Error() string {
	return fmt.Sprintf("invalid campaign %d: %s", e.CampaignID, e.Reason)
}

func NewInvalidCampaign(id int, reason string) error {
	return &ErrInvalidCampaign{CampaignID: id, Reason: reason}
}

// ErrAlreadyProcessed means another scheduling run already marked the
// campaign completed; nothing was enqueued by this call.
type ErrAlreadyProcessed struct {
	CampaignID int
}

func (e *ErrAlreadyProcessed) Error() string {
	return fmt.Sprintf("campaign %d has already been processed", e.CampaignID)
}

func NewAlreadyProcessed(id int) error {
	return &ErrAlreadyProcessed{CampaignID: id}
}
