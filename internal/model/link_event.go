package model

import "time"

type LinkAction string

const (
	LinkActionLink   LinkAction = "link"
	LinkActionUnlink LinkAction = "unlink"
)

type LinkEvent struct {
	ID             int64      `db:"id" json:"id"`
	ChatUserID     string     `db:"chat_user_id" json:"chatUserId"`
	ExternalUserID int        `db:"external_user_id" json:"externalUserId"`
	Identifier     string     `db:"identifier" json:"identifier"`
	Action         LinkAction `db:"action" json:"action"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
}

type CreateLinkEventParams struct {
	ChatUserID     string
	ExternalUserID int
	Identifier     string
	Action         LinkAction
}
