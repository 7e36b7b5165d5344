package query

import "net/url"

// Namespaces shared by every user. Per-user entries append the session
// user id so one user's view is never served to another.
const (
	TicketListPrefix = "tickets:list:"
	QueuesPrefix     = "queues:"
	CategoriesPrefix = "categories:"
	UserListPrefix   = "users:list:"
	AnalyticsPrefix  = "analytics:"
	// AllNotificationsPrefix covers every user's notification lists.
	AllNotificationsPrefix = "notifications:"
)

func TicketListKey(userID string, params url.Values) string {
	return TicketListPrefix + userID + ":" + params.Encode()
}

func TicketDetailPrefix(ticketID string) string { return "tickets:detail:" + ticketID + ":" }

func TicketDetailKey(ticketID, userID string) string { return TicketDetailPrefix(ticketID) + userID }

func TicketHistoryPrefix(ticketID string) string { return "tickets:history:" + ticketID + ":" }

func TicketHistoryKey(ticketID, userID string) string { return TicketHistoryPrefix(ticketID) + userID }

func TicketDocumentsPrefix(ticketID string) string { return "tickets:documents:" + ticketID + ":" }

func TicketDocumentsKey(ticketID, userID string) string {
	return TicketDocumentsPrefix(ticketID) + userID
}

func QueueListKey(userID string) string { return QueuesPrefix + "list:" + userID }

func QueueUsersPrefix(queueID string) string { return QueuesPrefix + "users:" + queueID + ":" }

func QueueUsersKey(queueID, userID string) string { return QueueUsersPrefix(queueID) + userID }

func CategoryListPrefix(queueID string) string { return CategoriesPrefix + queueID + ":" }

func CategoryListKey(queueID, userID string) string { return CategoryListPrefix(queueID) + userID }

func UserListKey(userID string, params url.Values) string {
	return UserListPrefix + userID + ":" + params.Encode()
}

func PreferencesPrefix(targetUserID string) string { return "users:prefs:" + targetUserID + ":" }

func PreferencesKey(targetUserID, userID string) string {
	return PreferencesPrefix(targetUserID) + userID
}

func NotificationsPrefix(userID string) string { return AllNotificationsPrefix + userID + ":" }

func NotificationsKey(userID string, params url.Values) string {
	return NotificationsPrefix(userID) + params.Encode()
}

func AnalyticsKey(userID string, params url.Values) string {
	return AnalyticsPrefix + userID + ":" + params.Encode()
}

// TicketMutation lists the prefixes any write to a ticket invalidates.
func TicketMutation(ticketID string) []string {
	prefixes := []string{TicketListPrefix, AnalyticsPrefix}
	if ticketID != "" {
		prefixes = append(prefixes,
			TicketDetailPrefix(ticketID),
			TicketHistoryPrefix(ticketID),
			TicketDocumentsPrefix(ticketID))
	}
	return prefixes
}
