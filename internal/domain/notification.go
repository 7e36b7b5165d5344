package domain

import "time"

// NotificationEventType keys the per-user preference matrix.
type NotificationEventType string

const (
	NotifyTicketCreated       NotificationEventType = "ticket_created"
	NotifyTicketAssigned      NotificationEventType = "ticket_assigned"
	NotifyTicketStatusChanged NotificationEventType = "ticket_status_changed"
	NotifyTicketCommented     NotificationEventType = "ticket_commented"
	NotifyBroadcast           NotificationEventType = "broadcast"
)

// NotificationEventTypes lists every preference row.
var NotificationEventTypes = []NotificationEventType{
	NotifyTicketCreated,
	NotifyTicketAssigned,
	NotifyTicketStatusChanged,
	NotifyTicketCommented,
	NotifyBroadcast,
}

// Notification is an in-app message delivered to a user.
type Notification struct {
	ID        string                `json:"id"`
	Type      NotificationEventType `json:"type"`
	Title     string                `json:"title"`
	Message   string                `json:"message"`
	TicketID  *string               `json:"ticketId,omitempty"`
	Read      bool                  `json:"read"`
	CreatedAt time.Time             `json:"createdAt"`
}

// ChannelToggles holds independent delivery switches for one event type.
type ChannelToggles struct {
	Email bool `json:"email"`
	InApp bool `json:"inApp"`
}

// NotificationPreferences is the opt-in matrix keyed by event type.
type NotificationPreferences map[NotificationEventType]ChannelToggles

// Get returns the toggles for an event type; missing rows are opted in.
func (p NotificationPreferences) Get(event NotificationEventType) ChannelToggles {
	if toggles, ok := p[event]; ok {
		return toggles
	}
	return ChannelToggles{Email: true, InApp: true}
}
