package domain

import "time"

// HistoryItemType captures what a history entry records.
type HistoryItemType string

const (
	HistoryCreated         HistoryItemType = "CREATED"
	HistoryComment         HistoryItemType = "COMMENT"
	HistoryAssigned        HistoryItemType = "ASSIGNED"
	HistoryUnassigned      HistoryItemType = "UNASSIGNED"
	HistoryStatusChanged   HistoryItemType = "STATUS_CHANGED"
	HistoryPriorityChanged HistoryItemType = "PRIORITY_CHANGED"
	HistoryUpdated         HistoryItemType = "UPDATED"
	HistoryDocumentAdded   HistoryItemType = "DOCUMENT_ADDED"
	HistoryDocumentRemoved HistoryItemType = "DOCUMENT_REMOVED"
)

// HistoryItem is an immutable audit trail entry attached to a ticket.
type HistoryItem struct {
	ID         string          `json:"id"`
	TicketID   string          `json:"ticketId"`
	Type       HistoryItemType `json:"type"`
	Content    string          `json:"content,omitempty"`
	UserID     *string         `json:"userId,omitempty"`
	DocumentID *string         `json:"documentId,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// Document is a file attached to a ticket.
type Document struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticketId"`
	FileName  string    `json:"fileName"`
	MimeType  string    `json:"mimeType"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}
