package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-console/internal/domain"
)

// Monday.
var week = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func day(n int, hour int) time.Time { return week.AddDate(0, 0, n).Add(time.Duration(hour) * time.Hour) }

func closed(n int) *time.Time {
	t := day(n, 17)
	return &t
}

func TestWeekOf(t *testing.T) {
	assert.Equal(t, week, WeekOf(time.Date(2026, 3, 5, 15, 4, 0, 0, time.UTC)))
	assert.Equal(t, week, WeekOf(time.Date(2026, 3, 8, 23, 0, 0, 0, time.UTC)), "sunday belongs to the week before")
	assert.Equal(t, week, WeekOf(week))
}

func TestBuildSpans(t *testing.T) {
	tickets := []domain.Ticket{
		{ID: "A", Priority: domain.TicketPriorityHigh, CreatedAt: day(1, 9), ClosedAt: closed(3), Status: domain.TicketStatusResolved},
		{ID: "B", Priority: domain.TicketPriorityLow, CreatedAt: day(-3, 9), Status: domain.TicketStatusOpened},
		{ID: "C", Priority: domain.TicketPriorityMedium, CreatedAt: day(-10, 9), ClosedAt: closed(-8), Status: domain.TicketStatusClosed},
		{ID: "D", Priority: domain.TicketPriorityMedium, CreatedAt: day(8, 9), Status: domain.TicketStatusOpened},
	}
	g := Build(week.Add(13*time.Hour), tickets)

	assert.Equal(t, week, g.WeekStart)
	require.Len(t, g.Days, Days)
	require.Len(t, g.Placements, 2, "tickets outside the week are dropped")

	a := g.Placements[0]
	assert.Equal(t, "A", a.Ticket.ID)
	assert.Equal(t, 1, a.StartCol)
	assert.Equal(t, 3, a.EndCol)
	assert.False(t, a.Continues)
	assert.False(t, a.Started)

	b := g.Placements[1]
	assert.Equal(t, "B", b.Ticket.ID)
	assert.Equal(t, 0, b.StartCol)
	assert.Equal(t, 6, b.EndCol)
	assert.True(t, b.Continues)
	assert.True(t, b.Started)
}

func TestBuildPacksRowsGreedily(t *testing.T) {
	tickets := []domain.Ticket{
		{ID: "H1", Priority: domain.TicketPriorityHigh, CreatedAt: day(0, 9), ClosedAt: closed(1)},
		{ID: "H2", Priority: domain.TicketPriorityHigh, CreatedAt: day(1, 10), ClosedAt: closed(2)},
		{ID: "M1", Priority: domain.TicketPriorityMedium, CreatedAt: day(3, 9), ClosedAt: closed(4)},
		{ID: "L1", Priority: domain.TicketPriorityLow, CreatedAt: day(2, 9), ClosedAt: closed(2)},
		{ID: "L2", Priority: domain.TicketPriorityLow, CreatedAt: day(5, 9)},
	}
	g := Build(week, tickets)

	rows := map[string]int{}
	for _, p := range g.Placements {
		rows[p.Ticket.ID] = p.Row
	}
	assert.Equal(t, map[string]int{"H1": 0, "H2": 1, "M1": 0, "L1": 0, "L2": 0}, rows)
	assert.Equal(t, 2, g.Rows)
	assertNoOverlap(t, g)
}

func TestBuildNoOverlapWithManyTickets(t *testing.T) {
	var tickets []domain.Ticket
	priorities := domain.TicketPriorities
	for i := 0; i < 40; i++ {
		tk := domain.Ticket{
			ID:        string(rune('a' + i%26)) + string(rune('0'+i/26)),
			Priority:  priorities[i%3],
			CreatedAt: day(i%9-2, i%24),
		}
		if i%4 != 0 {
			tk.ClosedAt = closed(i%9 - 2 + i%3)
		}
		tickets = append(tickets, tk)
	}
	assertNoOverlap(t, Build(week, tickets))
}

func assertNoOverlap(t *testing.T, g Grid) {
	t.Helper()
	byRow := map[int][]Placement{}
	for _, p := range g.Placements {
		assert.LessOrEqual(t, p.StartCol, p.EndCol)
		assert.GreaterOrEqual(t, p.StartCol, 0)
		assert.Less(t, p.EndCol, Days)
		for _, other := range byRow[p.Row] {
			assert.False(t, Overlaps(p, other), "%s overlaps %s in row %d", p.Ticket.ID, other.Ticket.ID, p.Row)
		}
		byRow[p.Row] = append(byRow[p.Row], p)
	}
}
