package domain

// Queue is an organizational bucket for tickets.
type Queue struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	UserIDs     []string `json:"userIds"`
}

// HasUser reports whether userID is an eligible handler for the queue.
func (q *Queue) HasUser(userID string) bool {
	for _, id := range q.UserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Category is a sub-classification scoped to exactly one queue.
type Category struct {
	ID      string `json:"id"`
	QueueID string `json:"queueId"`
	Name    string `json:"name"`
}
