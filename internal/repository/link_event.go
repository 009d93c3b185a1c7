package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/hermes-bot/hermes/internal/model"
)

// LinkEventRepository is the durable audit trail of completed links and
// unlinks. Pending verifications are never written here.
type LinkEventRepository interface {
	Create(ctx context.Context, params model.CreateLinkEventParams) (*model.LinkEvent, error)
	FindByChatUserID(ctx context.Context, chatUserID string, limit int) ([]model.LinkEvent, error)
}

type linkEventRepo struct {
	db *sqlx.DB
}

func NewLinkEventRepository(db *sqlx.DB) LinkEventRepository {
	return &linkEventRepo{db: db}
}

func (r *linkEventRepo) Create(ctx context.Context, params model.CreateLinkEventParams) (*model.LinkEvent, error) {
	var ev model.LinkEvent
	err := r.db.GetContext(ctx, &ev, `
		INSERT INTO link_events (chat_user_id, external_user_id, identifier, action)
		VALUES ($1, $2, $3, $4)
		RETURNING *
	`, params.ChatUserID, params.ExternalUserID, params.Identifier, params.Action)
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

func (r *linkEventRepo) FindByChatUserID(ctx context.Context, chatUserID string, limit int) ([]model.LinkEvent, error) {
	var events []model.LinkEvent
	err := r.db.SelectContext(ctx, &events, `
		SELECT * FROM link_events
		WHERE chat_user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, chatUserID, limit)
	return events, err
}
