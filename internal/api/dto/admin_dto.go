package dto

// QueueUsersRequest payload for POST /queues/:id/users.
type QueueUsersRequest struct {
	UserIDs []string `json:"userIds"`
}
