package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCheckInvariants(t *testing.T) {
	user := "U1"
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		ticket Ticket
		want   error
	}{
		{name: "opened", ticket: Ticket{Status: TicketStatusOpened}},
		{name: "opened with closedAt", ticket: Ticket{Status: TicketStatusOpened, ClosedAt: &now}, want: ErrClosedAtMismatch},
		{name: "in progress assigned", ticket: Ticket{Status: TicketStatusInProgress, AssignedToID: &user}},
		{name: "in progress unassigned", ticket: Ticket{Status: TicketStatusInProgress}, want: ErrInProgressUnassigned},
		{name: "resolved", ticket: Ticket{Status: TicketStatusResolved, ClosedAt: &now}},
		{name: "closed without closedAt", ticket: Ticket{Status: TicketStatusClosed}, want: ErrClosedAtMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.ticket.CheckInvariants())
		})
	}
}

func TestEmptyAssigneeIsUnassigned(t *testing.T) {
	empty := ""
	ticket := Ticket{Status: TicketStatusInProgress, AssignedToID: &empty}
	assert.False(t, ticket.IsAssigned())
	assert.ErrorIs(t, ticket.CheckInvariants(), ErrInProgressUnassigned)
}

func TestStatusAndPriority(t *testing.T) {
	assert.True(t, TicketStatusInProgress.Valid())
	assert.False(t, TicketStatus("done").Valid())
	assert.True(t, TicketStatusClosed.Finished())
	assert.False(t, TicketStatusInProgress.Finished())

	assert.Greater(t, TicketPriorityHigh.Rank(), TicketPriorityMedium.Rank())
	assert.Greater(t, TicketPriorityMedium.Rank(), TicketPriorityLow.Rank())
	assert.False(t, TicketPriority("urgent").Valid())
}

func TestPageHasMore(t *testing.T) {
	assert.True(t, Page[int]{Items: []int{1, 2}, Page: 1, Limit: 2, Total: 3}.HasMore())
	assert.False(t, Page[int]{Items: []int{3}, Page: 2, Limit: 2, Total: 3}.HasMore())
	assert.True(t, Page[int]{Items: []int{1, 2}, Page: 1, Limit: 2}.HasMore())
	assert.False(t, Page[int]{Items: []int{1}, Page: 1, Limit: 2}.HasMore())
	assert.False(t, Page[int]{}.HasMore())
}

func TestPreferencesDefaultToOptedIn(t *testing.T) {
	prefs := NotificationPreferences{NotifyTicketAssigned: {Email: false, InApp: true}}
	assert.Equal(t, ChannelToggles{Email: false, InApp: true}, prefs.Get(NotifyTicketAssigned))
	assert.Equal(t, ChannelToggles{Email: true, InApp: true}, prefs.Get(NotifyBroadcast))
	assert.Equal(t, ChannelToggles{Email: true, InApp: true}, NotificationPreferences(nil).Get(NotifyTicketCreated))
}

func TestQueueHasUserAndSessionRole(t *testing.T) {
	q := Queue{UserIDs: []string{"U1", "U2"}}
	assert.True(t, q.HasUser("U2"))
	assert.False(t, q.HasUser("U3"))

	assert.True(t, (&Session{Role: UserRoleAdmin}).IsAdmin())
	assert.False(t, (&Session{Role: UserRoleAgent}).IsAdmin())
	var none *Session
	assert.False(t, none.IsAdmin())
}
