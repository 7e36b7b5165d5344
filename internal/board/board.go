// Package board arranges a queue's tickets into Kanban columns and turns
// column moves into workflow requests.
package board

import (
	"fmt"
	"sort"
	"time"

	"github.com/spec-kit/helpdesk-console/internal/domain"
	"github.com/spec-kit/helpdesk-console/internal/workflow"
)

// ColumnID identifies a board column. It equals the status it shows.
type ColumnID string

const (
	ColumnOpened     ColumnID = ColumnID(domain.TicketStatusOpened)
	ColumnInProgress ColumnID = ColumnID(domain.TicketStatusInProgress)
	ColumnResolved   ColumnID = ColumnID(domain.TicketStatusResolved)
)

// ColumnIDs lists columns left to right.
var ColumnIDs = []ColumnID{ColumnOpened, ColumnInProgress, ColumnResolved}

var titles = map[ColumnID]string{
	ColumnOpened:     "Opened",
	ColumnInProgress: "In Progress",
	ColumnResolved:   "Resolved",
}

// ParseColumn validates a column id.
func ParseColumn(raw string) (ColumnID, error) {
	id := ColumnID(raw)
	if _, ok := titles[id]; !ok {
		return "", fmt.Errorf("unknown board column %q", raw)
	}
	return id, nil
}

// Status returns the ticket status the column shows.
func (c ColumnID) Status() domain.TicketStatus { return domain.TicketStatus(c) }

// Title is the column heading.
func (c ColumnID) Title() string { return titles[c] }

// Column is one lane of the board.
type Column struct {
	ID      ColumnID        `json:"id"`
	Title   string          `json:"title"`
	Tickets []domain.Ticket `json:"tickets"`
}

// Board is a queue's tickets split by status. Closed tickets are not shown.
type Board struct {
	QueueID string   `json:"queueId"`
	Columns []Column `json:"columns"`
}

// Build places tickets into columns, highest priority first and oldest
// first within a priority.
func Build(queueID string, tickets []domain.Ticket) Board {
	b := Board{QueueID: queueID, Columns: make([]Column, len(ColumnIDs))}
	index := map[ColumnID]int{}
	for i, id := range ColumnIDs {
		b.Columns[i] = Column{ID: id, Title: id.Title(), Tickets: []domain.Ticket{}}
		index[id] = i
	}
	for _, t := range tickets {
		if queueID != "" && t.QueueID != queueID {
			continue
		}
		if i, ok := index[ColumnID(t.Status)]; ok {
			b.Columns[i].Tickets = append(b.Columns[i].Tickets, t)
		}
	}
	for i := range b.Columns {
		SortTickets(b.Columns[i].Tickets)
	}
	return b
}

// SortTickets orders by priority rank, then creation time, then id.
func SortTickets(tickets []domain.Ticket) {
	sort.SliceStable(tickets, func(i, j int) bool {
		a, b := tickets[i], tickets[j]
		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() > b.Priority.Rank()
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

// Column returns the column with id, or nil.
func (b Board) Column(id ColumnID) *Column {
	for i := range b.Columns {
		if b.Columns[i].ID == id {
			return &b.Columns[i]
		}
	}
	return nil
}

// Locate returns the column currently holding the ticket.
func (b Board) Locate(ticketID string) (ColumnID, bool) {
	for _, col := range b.Columns {
		for _, t := range col.Tickets {
			if t.ID == ticketID {
				return col.ID, true
			}
		}
	}
	return "", false
}

// MoveEvent is a card moved from one column to another, independent of
// the gesture or command that produced it.
type MoveEvent struct {
	TicketID    string   `json:"ticketId"`
	Source      ColumnID `json:"source"`
	Destination ColumnID `json:"destination"`
}

// Validate checks the event names known columns and a ticket.
func (e MoveEvent) Validate() error {
	if e.TicketID == "" {
		return fmt.Errorf("move is missing a ticket id")
	}
	if _, err := ParseColumn(string(e.Source)); err != nil {
		return err
	}
	_, err := ParseColumn(string(e.Destination))
	return err
}

// Noop reports whether the card was dropped back on its own column.
func (e MoveEvent) Noop() bool { return e.Source == e.Destination }

// Answers carries what the user entered in a move prompt.
type Answers struct {
	AssigneeID   string `json:"assigneeId,omitempty"`
	ClosingNotes string `json:"closingNotes,omitempty"`
}

// Request maps a move onto a workflow request. Dropping a card on the
// opened column also clears its assignee.
func Request(e MoveEvent, answers Answers, now time.Time) workflow.Request {
	return workflow.Request{
		Target:          e.Destination.Status(),
		AssigneeID:      answers.AssigneeID,
		ClosingNotes:    answers.ClosingNotes,
		ClearAssignment: e.Destination == ColumnOpened,
		Now:             now,
	}
}
