package audit

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type EventType string

const (
	EventLinkStarted     EventType = "link_started"
	EventLinkCompleted   EventType = "link_completed"
	EventLinkFailed      EventType = "link_failed"
	EventUnlink          EventType = "unlink"
	EventRateLimitExceed EventType = "rate_limit_exceeded"
	EventGuildRejected   EventType = "guild_command_rejected"
)

type Event struct {
	Type           EventType
	ChatUserID     string
	ExternalUserID int
	Identifier     string
	Details        map[string]interface{}
}

func Log(ctx context.Context, event Event) {
	logger := log.With().
		Str("audit", "link").
		Str("event_type", string(event.Type)).
		Time("timestamp", time.Now()).
		Logger()

	if event.ChatUserID != "" {
		logger = logger.With().Str("chat_user_id", event.ChatUserID).Logger()
	}
	if event.ExternalUserID != 0 {
		logger = logger.With().Int("external_user_id", event.ExternalUserID).Logger()
	}
	if event.Identifier != "" {
		logger = logger.With().Str("identifier", event.Identifier).Logger()
	}

	logEvent := logger.Info()
	for k, v := range event.Details {
		logEvent = addField(logEvent, k, v)
	}
	logEvent.Msg("link audit event")
}

func addField(e *zerolog.Event, key string, value interface{}) *zerolog.Event {
	switch v := value.(type) {
	case string:
		return e.Str(key, v)
	case int:
		return e.Int(key, v)
	case int64:
		return e.Int64(key, v)
	case bool:
		return e.Bool(key, v)
	default:
		return e.Interface(key, v)
	}
}
