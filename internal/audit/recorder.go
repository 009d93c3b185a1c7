package audit

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/hermes-bot/hermes/internal/errors"
	"github.com/hermes-bot/hermes/internal/model"
	"github.com/hermes-bot/hermes/internal/repository"
)

// Recorder keeps the history of completed links and unlinks.
type Recorder interface {
	Record(ctx context.Context, params model.CreateLinkEventParams)
	LastLinkedAt(ctx context.Context, chatUserID string) (*time.Time, error)
}

// LogRecorder writes audit events to the structured log only.
type LogRecorder struct{}

func NewLogRecorder() *LogRecorder {
	return &LogRecorder{}
}

func (r *LogRecorder) Record(ctx context.Context, params model.CreateLinkEventParams) {
	Log(ctx, eventFor(params))
}

func (r *LogRecorder) LastLinkedAt(ctx context.Context, chatUserID string) (*time.Time, error) {
	return nil, nil
}

// DBRecorder logs and also persists each event. A failed insert is logged
// and otherwise ignored: the Overseerr update has already happened.
type DBRecorder struct {
	repo repository.LinkEventRepository
}

func NewDBRecorder(repo repository.LinkEventRepository) *DBRecorder {
	return &DBRecorder{repo: repo}
}

func (r *DBRecorder) Record(ctx context.Context, params model.CreateLinkEventParams) {
	Log(ctx, eventFor(params))

	if _, err := r.repo.Create(ctx, params); err != nil {
		log.Error().Err(apperrors.Database(err)).
			Str("chatUserId", params.ChatUserID).
			Str("action", string(params.Action)).
			Msg("failed to persist link event")
	}
}

// LastLinkedAt returns when the user's most recent event was a link, or nil
// if the latest event is an unlink or there is no history.
func (r *DBRecorder) LastLinkedAt(ctx context.Context, chatUserID string) (*time.Time, error) {
	events, err := r.repo.FindByChatUserID(ctx, chatUserID, 1)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if len(events) == 0 || events[0].Action != model.LinkActionLink {
		return nil, nil
	}
	return &events[0].CreatedAt, nil
}

func eventFor(params model.CreateLinkEventParams) Event {
	eventType := EventLinkCompleted
	if params.Action == model.LinkActionUnlink {
		eventType = EventUnlink
	}
	return Event{
		Type:           eventType,
		ChatUserID:     params.ChatUserID,
		ExternalUserID: params.ExternalUserID,
		Identifier:     params.Identifier,
	}
}
