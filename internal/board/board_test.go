package board

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-console/internal/domain"
	"github.com/spec-kit/helpdesk-console/internal/workflow"
)

var base = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func tk(id string, status domain.TicketStatus, priority domain.TicketPriority, age time.Duration) domain.Ticket {
	return domain.Ticket{ID: id, QueueID: "Q1", Status: status, Priority: priority, CreatedAt: base.Add(-age)}
}

func ids(col *Column) []string {
	var out []string
	for _, t := range col.Tickets {
		out = append(out, t.ID)
	}
	return out
}

func TestBuildColumns(t *testing.T) {
	tickets := []domain.Ticket{
		tk("T1", domain.TicketStatusOpened, domain.TicketPriorityLow, 3*time.Hour),
		tk("T2", domain.TicketStatusOpened, domain.TicketPriorityHigh, time.Hour),
		tk("T3", domain.TicketStatusOpened, domain.TicketPriorityHigh, 2*time.Hour),
		tk("T4", domain.TicketStatusInProgress, domain.TicketPriorityMedium, time.Hour),
		tk("T5", domain.TicketStatusResolved, domain.TicketPriorityMedium, time.Hour),
		tk("T6", domain.TicketStatusClosed, domain.TicketPriorityHigh, time.Hour),
		{ID: "T7", QueueID: "Q2", Status: domain.TicketStatusOpened},
	}
	b := Build("Q1", tickets)

	require.Len(t, b.Columns, 3)
	assert.Equal(t, []string{"T3", "T2", "T1"}, ids(b.Column(ColumnOpened)))
	assert.Equal(t, []string{"T4"}, ids(b.Column(ColumnInProgress)))
	assert.Equal(t, []string{"T5"}, ids(b.Column(ColumnResolved)))
	assert.Equal(t, "In Progress", b.Column(ColumnInProgress).Title)

	col, ok := b.Locate("T4")
	assert.True(t, ok)
	assert.Equal(t, ColumnInProgress, col)
	_, ok = b.Locate("T6")
	assert.False(t, ok, "closed tickets are not on the board")
}

func TestEmptyBoardHasEmptyColumns(t *testing.T) {
	b := Build("Q1", nil)
	for _, col := range b.Columns {
		assert.NotNil(t, col.Tickets)
		assert.Empty(t, col.Tickets)
	}
}

func TestParseColumn(t *testing.T) {
	id, err := ParseColumn("in-progress")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, id.Status())

	_, err = ParseColumn("closed")
	assert.Error(t, err)
}

func TestMoveEventValidate(t *testing.T) {
	assert.NoError(t, MoveEvent{TicketID: "T1", Source: ColumnOpened, Destination: ColumnResolved}.Validate())
	assert.Error(t, MoveEvent{Source: ColumnOpened, Destination: ColumnResolved}.Validate())
	assert.Error(t, MoveEvent{TicketID: "T1", Source: "backlog", Destination: ColumnResolved}.Validate())
	assert.True(t, MoveEvent{TicketID: "T1", Source: ColumnOpened, Destination: ColumnOpened}.Noop())
}

func TestRequestClearsAssignmentWhenDroppedOnOpened(t *testing.T) {
	req := Request(MoveEvent{TicketID: "T1", Source: ColumnInProgress, Destination: ColumnOpened}, Answers{}, base)
	assert.Equal(t, workflow.Request{Target: domain.TicketStatusOpened, ClearAssignment: true, Now: base}, req)

	req = Request(MoveEvent{TicketID: "T1", Source: ColumnOpened, Destination: ColumnInProgress}, Answers{AssigneeID: "U1"}, base)
	assert.Equal(t, domain.TicketStatusInProgress, req.Target)
	assert.Equal(t, "U1", req.AssigneeID)
	assert.False(t, req.ClearAssignment)
}

func TestDragToInProgressWithoutAssigneeNeedsPrompt(t *testing.T) {
	ticket := tk("T1", domain.TicketStatusOpened, domain.TicketPriorityHigh, 0)
	_, err := workflow.Build(ticket, Request(MoveEvent{TicketID: "T1", Source: ColumnOpened, Destination: ColumnInProgress}, Answers{}, base))
	assert.ErrorIs(t, err, workflow.ErrAssigneeRequired)
}
