package model

import "time"

// PendingLink is an in-flight verification for one Discord user.
type PendingLink struct {
	ChatUserID     string
	Identifier     string
	Code           string
	CreatedAt      time.Time
	ExternalUserID int
}

func (p *PendingLink) Age(now time.Time) time.Duration {
	return now.Sub(p.CreatedAt)
}

func (p *PendingLink) Expired(now time.Time, expiry time.Duration) bool {
	return p.Age(now) > expiry
}
