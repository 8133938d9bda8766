package models

// Account event types published to Kafka.
const (
	EventUserRegistered         = "user.registered"
	EventUserLoggedIn           = "user.logged_in"
	EventUserLoggedOut          = "user.logged_out"
	EventSessionRefreshed       = "session.refreshed"
	EventSessionRefreshRejected = "session.refresh_rejected"
	EventPasswordChanged        = "user.password_changed"
	EventAccountUpdated         = "user.account_updated"
	EventAvatarUpdated          = "user.avatar_updated"
	EventCoverImageUpdated      = "user.cover_image_updated"
)

// AccountEvent represents an account lifecycle event, including user, timestamp, and event type.
type AccountEvent struct {
	EventID   string `json:"event_id"`  // EventID is a unique identifier for the event.
	Timestamp int64  `json:"timestamp"` // Timestamp is the Unix timestamp (in seconds) when the event occurred.
	UserID    string `json:"user_id"`   // UserID is the identifier of the user the event is about.
	Type      string `json:"type"`      // Type is one of the Event* constants.
}
