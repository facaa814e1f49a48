package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/textloop/campaign-dispatch/internal/errors"
	"github.com/textloop/campaign-dispatch/internal/model"
	"github.com/textloop/campaign-dispatch/internal/service"
)

// Mock campaign repository
type mockCampaignRepo struct {
	campaign   *model.Campaign
	inbox      *model.Inbox
	markCalls  int
	markResult bool
}

func (m *mockCampaignRepo) GetByID(id int) (*model.Campaign, error) { return m.campaign, nil }
func (m *mockCampaignRepo) GetInbox(id int) (*model.Inbox, error)   { return m.inbox, nil }
func (m *mockCampaignRepo) GetAccount(id int) (*model.Account, error) {
	return &model.Account{ID: id, Name: "Acme"}, nil
}
func (m *mockCampaignRepo) GetSender(id int) (*model.User, error) {
	return &model.User{ID: id, Name: "Grace"}, nil
}
func (m *mockCampaignRepo) MarkCompleted(id int) (bool, error) {
	m.markCalls++
	return m.markResult, nil
}
func (m *mockCampaignRepo) GetDispatchStats(campaignID int) (map[string]int, error) {
	return map[string]int{}, nil
}

// Mock contact repository
type mockContactRepo struct {
	contacts []model.Contact
	// contact ids with an inbox binding
	bound map[int]bool
}

func (m *mockContactRepo) GetByID(id int) (*model.Contact, error) {
	for _, c := range m.contacts {
		if c.ID == id {
			out := c
			return &out, nil
		}
	}
	return nil, nil
}

func (m *mockContactRepo) ListByAudience(accountID int, audience []model.AudienceEntry) ([]model.Contact, error) {
	if len(audience) == 0 {
		return []model.Contact{}, nil
	}
	return m.contacts, nil
}

func (m *mockContactRepo) GetContactInbox(contactID, inboxID int) (*model.ContactInbox, error) {
	if !m.bound[contactID] {
		return nil, nil
	}
	return &model.ContactInbox{ID: contactID * 100, ContactID: contactID, InboxID: inboxID}, nil
}

// Recording queue
type queuedTask struct {
	task      model.DispatchTask
	notBefore time.Time
}

type recordingQueue struct {
	entries      []queuedTask
	failContacts map[int]bool
}

func (q *recordingQueue) Enqueue(_ context.Context, task model.DispatchTask, notBefore time.Time) error {
	if q.failContacts[task.ContactID] {
		return fmt.Errorf("broker unavailable")
	}
	q.entries = append(q.entries, queuedTask{task: task, notBefore: notBefore})
	return nil
}

func makeContacts(n int) []model.Contact {
	contacts := make([]model.Contact, n)
	for i := range contacts {
		contacts[i] = model.Contact{
			ID:          i + 1,
			AccountID:   1,
			Name:        fmt.Sprintf("Contact %d", i+1),
			PhoneNumber: fmt.Sprintf("+25470000%04d", i+1),
		}
	}
	return contacts
}

func boundAll(contacts []model.Contact) map[int]bool {
	bound := map[int]bool{}
	for _, c := range contacts {
		bound[c.ID] = true
	}
	return bound
}

func newScheduler(campaigns *mockCampaignRepo, contacts *mockContactRepo, q *recordingQueue) *service.BatchScheduler {
	return &service.BatchScheduler{
		Campaigns: campaigns,
		Contacts:  contacts,
		Queue:     q,
		Log:       zerolog.Nop(),
		Now:       func() time.Time { return time.Date(2026, 9, 14, 8, 0, 0, 0, time.UTC) },
	}
}

func activeCampaign(limit int, windowStart string, scheduledAt *time.Time) *model.Campaign {
	return &model.Campaign{
		ID:           1,
		AccountID:    1,
		InboxID:      10,
		Name:         "Promo",
		CampaignType: model.CampaignTypeOneOff,
		Status:       model.StatusActive,
		Message:      "Hi {{ contact.name }}",
		Audience:     []model.AudienceEntry{{Type: "Label", ID: 5}},
		TriggerRules: model.TriggerRules{DailyLimit: limit, WindowStart: windowStart},
		ScheduledAt:  scheduledAt,
	}
}

func smsInbox() *model.Inbox {
	return &model.Inbox{ID: 10, AccountID: 1, Name: "SMS", ChannelType: model.ChannelTwilioSMS}
}

func TestScheduleSplitsAudienceAcrossDays(t *testing.T) {
	scheduledAt := time.Date(2026, 9, 14, 8, 0, 0, 0, time.UTC)
	contacts := makeContacts(3)

	campaigns := &mockCampaignRepo{
		campaign:   activeCampaign(2, "09:00", &scheduledAt),
		inbox:      smsInbox(),
		markResult: true,
	}
	q := &recordingQueue{}
	s := newScheduler(campaigns, &mockContactRepo{contacts: contacts, bound: boundAll(contacts)}, q)

	plan, err := s.Schedule(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, 3, plan.Scheduled)
	assert.Equal(t, 0, plan.Skipped)
	assert.Equal(t, 2, plan.Days)
	require.Len(t, q.entries, 3)

	day0 := time.Date(2026, 9, 14, 9, 0, 0, 0, time.UTC)
	day1 := time.Date(2026, 9, 15, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, day0, q.entries[0].notBefore)
	assert.Equal(t, day0, q.entries[1].notBefore)
	assert.Equal(t, day1, q.entries[2].notBefore)

	// Task payloads carry the scheduling decision.
	assert.Equal(t, day1, q.entries[2].task.NotBefore)
	assert.Equal(t, 3, q.entries[2].task.ContactID)
	assert.Equal(t, 10, q.entries[2].task.InboxID)
	assert.NotEmpty(t, q.entries[2].task.ID)
}

func TestScheduleDayOffsetPartition(t *testing.T) {
	scheduledAt := time.Date(2026, 9, 14, 8, 0, 0, 0, time.UTC)
	contacts := makeContacts(10)

	campaigns := &mockCampaignRepo{
		campaign:   activeCampaign(3, "10:30", &scheduledAt),
		inbox:      smsInbox(),
		markResult: true,
	}
	q := &recordingQueue{}
	s := newScheduler(campaigns, &mockContactRepo{contacts: contacts, bound: boundAll(contacts)}, q)

	plan, err := s.Schedule(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, q.entries, 10)
	assert.Equal(t, 4, plan.Days)

	// Recipient i lands on day i/3: indices [kL, (k+1)L) share day k.
	for i, entry := range q.entries {
		want := time.Date(2026, 9, 14+i/3, 10, 30, 0, 0, time.UTC)
		assert.Equal(t, want, entry.notBefore, "recipient %d", i)
	}
}

func TestScheduleUnlimitedPutsEveryoneOnDayZero(t *testing.T) {
	scheduledAt := time.Date(2026, 9, 14, 8, 0, 0, 0, time.UTC)
	contacts := makeContacts(25)

	campaigns := &mockCampaignRepo{
		campaign:   activeCampaign(0, "", &scheduledAt),
		inbox:      smsInbox(),
		markResult: true,
	}
	q := &recordingQueue{}
	s := newScheduler(campaigns, &mockContactRepo{contacts: contacts, bound: boundAll(contacts)}, q)

	plan, err := s.Schedule(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 25, plan.Scheduled)
	assert.Equal(t, 1, plan.Days)

	// No limit and no window: everyone shares the base day's midnight,
	// which is in the past and therefore runs immediately.
	want := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	for _, entry := range q.entries {
		assert.Equal(t, want, entry.notBefore)
	}
}

func TestScheduleSkipsIneligibleWithoutConsumingSlots(t *testing.T) {
	scheduledAt := time.Date(2026, 9, 14, 8, 0, 0, 0, time.UTC)
	contacts := makeContacts(4)
	contacts[0].PhoneNumber = "" // no phone
	bound := boundAll(contacts)
	bound[contacts[2].ID] = false // no binding

	campaigns := &mockCampaignRepo{
		campaign:   activeCampaign(2, "09:00", &scheduledAt),
		inbox:      smsInbox(),
		markResult: true,
	}
	q := &recordingQueue{}
	s := newScheduler(campaigns, &mockContactRepo{contacts: contacts, bound: bound}, q)

	plan, err := s.Schedule(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, plan.Scheduled)
	assert.Equal(t, 2, plan.Skipped)

	// The two eligible recipients are indices 0 and 1 of the eligible
	// sequence, so both fit in day zero despite being contacts 2 and 4.
	require.Len(t, q.entries, 2)
	day0 := time.Date(2026, 9, 14, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, day0, q.entries[0].notBefore)
	assert.Equal(t, day0, q.entries[1].notBefore)
	assert.Equal(t, 1, plan.Days)
}

func TestScheduleCompletedCampaignIsRejected(t *testing.T) {
	campaign := activeCampaign(2, "09:00", nil)
	campaign.Status = model.StatusCompleted
	campaigns := &mockCampaignRepo{campaign: campaign, inbox: smsInbox(), markResult: true}
	q := &recordingQueue{}
	s := newScheduler(campaigns, &mockContactRepo{}, q)

	_, err := s.Schedule(context.Background(), 1)
	var processed *appErrors.ErrAlreadyProcessed
	require.ErrorAs(t, err, &processed)
	assert.Empty(t, q.entries)
	assert.Equal(t, 0, campaigns.markCalls)
}

func TestScheduleLostRaceIsAlreadyProcessed(t *testing.T) {
	campaigns := &mockCampaignRepo{
		campaign:   activeCampaign(2, "09:00", nil),
		inbox:      smsInbox(),
		markResult: false, // another run won the compare-and-set
	}
	q := &recordingQueue{}
	contacts := makeContacts(3)
	s := newScheduler(campaigns, &mockContactRepo{contacts: contacts, bound: boundAll(contacts)}, q)

	_, err := s.Schedule(context.Background(), 1)
	var processed *appErrors.ErrAlreadyProcessed
	require.ErrorAs(t, err, &processed)
	assert.Empty(t, q.entries)
	assert.Equal(t, 1, campaigns.markCalls)
}

func TestScheduleWrongChannelIsInvalid(t *testing.T) {
	inbox := smsInbox()
	inbox.ChannelType = "email"
	campaigns := &mockCampaignRepo{campaign: activeCampaign(2, "09:00", nil), inbox: inbox, markResult: true}
	q := &recordingQueue{}
	s := newScheduler(campaigns, &mockContactRepo{}, q)

	_, err := s.Schedule(context.Background(), 1)
	var invalid *appErrors.ErrInvalidCampaign
	require.ErrorAs(t, err, &invalid)
	assert.Empty(t, q.entries)
	assert.Equal(t, 0, campaigns.markCalls, "no side effects on invalid campaign")
}

func TestScheduleOngoingCampaignIsInvalid(t *testing.T) {
	campaign := activeCampaign(2, "09:00", nil)
	campaign.CampaignType = model.CampaignTypeOngoing
	campaigns := &mockCampaignRepo{campaign: campaign, inbox: smsInbox(), markResult: true}
	q := &recordingQueue{}
	s := newScheduler(campaigns, &mockContactRepo{}, q)

	_, err := s.Schedule(context.Background(), 1)
	var invalid *appErrors.ErrInvalidCampaign
	require.ErrorAs(t, err, &invalid)
	assert.Empty(t, q.entries)
}

func TestScheduleMissingCampaignIsNotFound(t *testing.T) {
	campaigns := &mockCampaignRepo{campaign: nil, inbox: smsInbox()}
	s := newScheduler(campaigns, &mockContactRepo{}, &recordingQueue{})

	_, err := s.Schedule(context.Background(), 99)
	var notFound *appErrors.ErrCampaignNotFound
	require.ErrorAs(t, err, &notFound)
}

func TestScheduleEnqueueFailureDoesNotAbortBatch(t *testing.T) {
	scheduledAt := time.Date(2026, 9, 14, 8, 0, 0, 0, time.UTC)
	contacts := makeContacts(3)

	campaigns := &mockCampaignRepo{
		campaign:   activeCampaign(10, "09:00", &scheduledAt),
		inbox:      smsInbox(),
		markResult: true,
	}
	q := &recordingQueue{failContacts: map[int]bool{2: true}}
	s := newScheduler(campaigns, &mockContactRepo{contacts: contacts, bound: boundAll(contacts)}, q)

	plan, err := s.Schedule(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, plan.Scheduled)
	require.Len(t, q.entries, 2)
	assert.Equal(t, 1, q.entries[0].task.ContactID)
	assert.Equal(t, 3, q.entries[1].task.ContactID)
}

func TestScheduleEmptyAudience(t *testing.T) {
	campaign := activeCampaign(2, "09:00", nil)
	campaign.Audience = nil
	campaigns := &mockCampaignRepo{campaign: campaign, inbox: smsInbox(), markResult: true}
	q := &recordingQueue{}
	s := newScheduler(campaigns, &mockContactRepo{}, q)

	plan, err := s.Schedule(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 0, plan.Scheduled)
	assert.Empty(t, q.entries)
}
