package domain

// Permissions are a user's role flags within a community or channel.
type Permissions struct {
	UserID      string
	Reputation  int
	IsOwner     bool
	IsModerator bool
}

// CanModerate reports whether the permission record grants moderation rights.
func (p *Permissions) CanModerate() bool {
	return p != nil && (p.IsOwner || p.IsModerator)
}
