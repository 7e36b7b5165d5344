// Package timeline lays tickets out on a seven-day grid. Each ticket is a
// bar from its creation day to its closing day; bars are packed into as
// few rows as possible without overlapping.
package timeline

import (
	"time"

	"github.com/spec-kit/helpdesk-console/internal/board"
	"github.com/spec-kit/helpdesk-console/internal/domain"
)

// Days is the width of the grid.
const Days = 7

// Placement is one ticket's bar. StartCol and EndCol are inclusive day
// indexes into the grid.
type Placement struct {
	Ticket   domain.Ticket `json:"ticket"`
	Row      int           `json:"row"`
	StartCol int           `json:"startCol"`
	EndCol   int           `json:"endCol"`
	// Continues is set when the bar runs past the end of the window.
	Continues bool `json:"continues"`
	// Started is set when the ticket was created before the window.
	Started bool `json:"started"`
}

// Grid is the laid-out week.
type Grid struct {
	WeekStart  time.Time   `json:"weekStart"`
	Days       []time.Time `json:"days"`
	Rows       int         `json:"rows"`
	Placements []Placement `json:"placements"`
}

// WeekOf returns midnight of the Monday starting t's week, in t's
// location.
func WeekOf(t time.Time) time.Time {
	day := startOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// Build lays out tickets for the week beginning at weekStart. Tickets
// whose span does not touch the week are left out.
func Build(weekStart time.Time, tickets []domain.Ticket) Grid {
	start := startOfDay(weekStart)
	grid := Grid{WeekStart: start, Days: make([]time.Time, Days), Placements: []Placement{}}
	for i := range grid.Days {
		grid.Days[i] = start.AddDate(0, 0, i)
	}

	ordered := append([]domain.Ticket(nil), tickets...)
	board.SortTickets(ordered)

	var rows [][]Placement
	for _, t := range ordered {
		p, ok := span(start, t)
		if !ok {
			continue
		}
		p.Row = firstFreeRow(rows, p)
		if p.Row == len(rows) {
			rows = append(rows, nil)
		}
		rows[p.Row] = append(rows[p.Row], p)
		grid.Placements = append(grid.Placements, p)
	}
	grid.Rows = len(rows)
	return grid
}

func span(weekStart time.Time, t domain.Ticket) (Placement, bool) {
	loc := weekStart.Location()
	startCol := dayIndex(weekStart, t.CreatedAt.In(loc))
	endCol := Days - 1
	continues := true
	if t.ClosedAt != nil {
		endCol = dayIndex(weekStart, t.ClosedAt.In(loc))
		continues = endCol >= Days
	}
	if startCol >= Days || endCol < 0 {
		return Placement{}, false
	}
	p := Placement{Ticket: t, StartCol: startCol, EndCol: endCol, Continues: continues, Started: startCol < 0}
	if p.StartCol < 0 {
		p.StartCol = 0
	}
	if p.EndCol >= Days {
		p.EndCol = Days - 1
	}
	if p.EndCol < p.StartCol {
		p.EndCol = p.StartCol
	}
	return p, true
}

func firstFreeRow(rows [][]Placement, p Placement) int {
	for i, row := range rows {
		free := true
		for _, other := range row {
			if Overlaps(other, p) {
				free = false
				break
			}
		}
		if free {
			return i
		}
	}
	return len(rows)
}

// Overlaps reports whether two bars share a day.
func Overlaps(a, b Placement) bool {
	return a.StartCol <= b.EndCol && b.StartCol <= a.EndCol
}

func dayIndex(weekStart, t time.Time) int {
	days := startOfDay(t).Sub(weekStart).Hours() / 24
	if days < 0 {
		return int(days - 0.5)
	}
	return int(days + 0.5)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
