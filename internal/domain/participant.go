package domain

import "time"

// ThreadParticipant records a user's membership in a thread, keyed by
// (thread, user). Membership exists while the user has at least one undeleted
// message in the thread; watercooler threads record it without notifications.
type ThreadParticipant struct {
	ThreadID             string
	UserID               string
	NotificationsEnabled bool
	LastSeenAt           *time.Time
	CreatedAt            time.Time
}
