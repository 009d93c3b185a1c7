package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hermes-bot/hermes/internal/audit"
	apperrors "github.com/hermes-bot/hermes/internal/errors"
	"github.com/hermes-bot/hermes/internal/metrics"
	"github.com/hermes-bot/hermes/internal/model"
	"github.com/hermes-bot/hermes/internal/repository"
	"github.com/hermes-bot/hermes/internal/util"
)

const (
	opStartLink    = "start_link"
	opCompleteLink = "complete_link"
	opUnlink       = "unlink"
	opStatus       = "status"
)

type LinkService struct {
	pending  repository.PendingLinkRepository
	accounts *AccountDirectory
	recorder audit.Recorder
	metrics  *metrics.Metrics
	expiry   time.Duration

	now          func() time.Time
	generateCode func() string
}

func NewLinkService(
	pending repository.PendingLinkRepository,
	accounts *AccountDirectory,
	recorder audit.Recorder,
	m *metrics.Metrics,
	expiry time.Duration,
) *LinkService {
	return &LinkService{
		pending:      pending,
		accounts:     accounts,
		recorder:     recorder,
		metrics:      m,
		expiry:       expiry,
		now:          time.Now,
		generateCode: GenerateCode,
	}
}

func (s *LinkService) Expiry() time.Duration {
	return s.expiry
}

// SweepExpired drops every pending link older than the expiry and returns
// how many were removed.
func (s *LinkService) SweepExpired() int {
	removed := s.pending.SweepExpired(s.now(), s.expiry)
	if removed > 0 {
		log.Info().Int("count", removed).Msg("removed expired verification codes")
		s.metrics.SweptLinks.Add(float64(removed))
	}
	s.metrics.PendingLinks.Set(float64(s.pending.Count()))
	return removed
}

func (s *LinkService) PendingCount() int {
	return s.pending.Count()
}

func (s *LinkService) StartLink(ctx context.Context, chatUserID, identifier string) Outcome {
	return s.observe(opStartLink, s.startLink(ctx, chatUserID, identifier))
}

func (s *LinkService) startLink(ctx context.Context, chatUserID, identifier string) Outcome {
	s.SweepExpired()

	if existing, ok := s.activePending(chatUserID); ok {
		return s.alreadyPending(existing)
	}

	account, err := s.accounts.FindAccount(ctx, identifier)
	if err != nil {
		return s.unavailable(err, opStartLink, chatUserID, identifier)
	}
	if account == nil {
		return Outcome{Kind: OutcomeAccountNotFound, Identifier: identifier}
	}

	linked, err := s.accounts.LinkedChatID(ctx, account)
	if err != nil {
		return s.unavailable(err, opStartLink, chatUserID, identifier)
	}
	if linked != "" {
		if linked == chatUserID {
			return Outcome{Kind: OutcomeAlreadySelfLinked, Identifier: identifier}
		}
		return Outcome{Kind: OutcomeLinkedToOther, Identifier: identifier}
	}

	link := model.PendingLink{
		Identifier:     identifier,
		Code:           s.generateCode(),
		CreatedAt:      s.now(),
		ExternalUserID: account.ID,
	}
	if err := s.pending.Put(chatUserID, link); err != nil {
		// a concurrent !link from the same user won the race
		if existing, ok := s.activePending(chatUserID); ok && apperrors.HasCode(err, apperrors.ErrCodeAlreadyPending) {
			return s.alreadyPending(existing)
		}
		log.Error().Err(err).Str("chatUserId", chatUserID).Msg("failed to store pending link")
		return Outcome{Kind: OutcomeServiceUnavailable, Identifier: identifier}
	}
	s.metrics.PendingLinks.Set(float64(s.pending.Count()))

	audit.Log(ctx, audit.Event{
		Type:           audit.EventLinkStarted,
		ChatUserID:     chatUserID,
		ExternalUserID: account.ID,
		Identifier:     identifier,
		Details:        map[string]interface{}{"code": util.MaskCode(link.Code)},
	})

	return Outcome{
		Kind:       OutcomeStarted,
		Identifier: identifier,
		Code:       link.Code,
		ExpiresIn:  s.expiry,
	}
}

func (s *LinkService) CompleteLink(ctx context.Context, chatUserID string) Outcome {
	return s.observe(opCompleteLink, s.completeLink(ctx, chatUserID))
}

func (s *LinkService) completeLink(ctx context.Context, chatUserID string) Outcome {
	s.SweepExpired()

	link, ok := s.activePending(chatUserID)
	if !ok {
		return Outcome{Kind: OutcomeNoPending}
	}

	// Re-resolve by identifier so the live display name is checked.
	account, err := s.accounts.FindAccount(ctx, link.Identifier)
	if err != nil {
		return s.unavailable(err, opCompleteLink, chatUserID, link.Identifier)
	}
	if account == nil {
		s.pending.Remove(chatUserID)
		s.metrics.PendingLinks.Set(float64(s.pending.Count()))
		return Outcome{Kind: OutcomeAccountVanished, Identifier: link.Identifier}
	}

	if !strings.Contains(account.DisplayName, link.Code) {
		return Outcome{Kind: OutcomeCodeNotFound, Code: link.Code, DisplayName: account.DisplayName}
	}

	discordID := chatUserID
	if err := s.accounts.UpdateNotifications(ctx, link.ExternalUserID, &discordID, true); err != nil {
		audit.Log(ctx, audit.Event{
			Type:           audit.EventLinkFailed,
			ChatUserID:     chatUserID,
			ExternalUserID: link.ExternalUserID,
			Identifier:     link.Identifier,
			Details:        map[string]interface{}{"error": err.Error()},
		})
		return Outcome{Kind: OutcomeUpdateFailed, Identifier: link.Identifier}
	}

	s.pending.Remove(chatUserID)
	s.metrics.PendingLinks.Set(float64(s.pending.Count()))
	s.recorder.Record(ctx, model.CreateLinkEventParams{
		ChatUserID:     chatUserID,
		ExternalUserID: link.ExternalUserID,
		Identifier:     link.Identifier,
		Action:         model.LinkActionLink,
	})

	return Outcome{Kind: OutcomeLinked, Identifier: link.Identifier, Code: link.Code}
}

// Unlink clears the Discord link from an Overseerr account. With an empty
// identifier the account is found by reverse lookup on chatUserID.
func (s *LinkService) Unlink(ctx context.Context, chatUserID, identifier string) Outcome {
	return s.observe(opUnlink, s.unlink(ctx, chatUserID, strings.TrimSpace(identifier)))
}

func (s *LinkService) unlink(ctx context.Context, chatUserID, identifier string) Outcome {
	var (
		account *model.ExternalAccount
		label   string
		err     error
	)

	if identifier == "" {
		account, err = s.accounts.FindAccountByChatID(ctx, chatUserID)
		if err != nil {
			return s.unavailable(err, opUnlink, chatUserID, "")
		}
		if account == nil {
			return Outcome{Kind: OutcomeNotLinked}
		}
		label = account.Label()
	} else {
		account, err = s.accounts.FindAccount(ctx, identifier)
		if err != nil {
			return s.unavailable(err, opUnlink, chatUserID, identifier)
		}
		if account == nil {
			return Outcome{Kind: OutcomeAccountNotFound, Identifier: identifier}
		}

		linked, err := s.accounts.LinkedChatID(ctx, account)
		if err != nil {
			return s.unavailable(err, opUnlink, chatUserID, identifier)
		}
		if linked != chatUserID {
			return Outcome{Kind: OutcomeNotYourAccount, Identifier: identifier}
		}
		label = identifier
	}

	if err := s.accounts.UpdateNotifications(ctx, account.ID, nil, false); err != nil {
		log.Error().Err(err).Str("chatUserId", chatUserID).Int("userId", account.ID).Msg("failed to unlink account")
		return Outcome{Kind: OutcomeUpdateFailed, Identifier: label}
	}

	s.recorder.Record(ctx, model.CreateLinkEventParams{
		ChatUserID:     chatUserID,
		ExternalUserID: account.ID,
		Identifier:     label,
		Action:         model.LinkActionUnlink,
	})

	return Outcome{Kind: OutcomeUnlinked, Identifier: label}
}

func (s *LinkService) Status(ctx context.Context, chatUserID string) Outcome {
	return s.observe(opStatus, s.status(ctx, chatUserID))
}

func (s *LinkService) status(ctx context.Context, chatUserID string) Outcome {
	s.SweepExpired()

	if link, ok := s.activePending(chatUserID); ok {
		return Outcome{
			Kind:       OutcomePending,
			Identifier: link.Identifier,
			Code:       link.Code,
			ExpiresIn:  s.remaining(link),
		}
	}

	account, err := s.accounts.FindAccountByChatID(ctx, chatUserID)
	if err != nil {
		return s.unavailable(err, opStatus, chatUserID, "")
	}
	if account == nil {
		return Outcome{Kind: OutcomeNotLinked}
	}

	outcome := Outcome{Kind: OutcomeLinked, Identifier: account.Label()}
	linkedAt, err := s.recorder.LastLinkedAt(ctx, chatUserID)
	if err != nil {
		log.Warn().Err(err).Str("chatUserId", chatUserID).Msg("failed to read link history")
	}
	outcome.LinkedAt = linkedAt
	return outcome
}

// activePending returns the user's pending link unless it has already
// expired; an expired link is removed on the spot.
func (s *LinkService) activePending(chatUserID string) (*model.PendingLink, bool) {
	link, ok := s.pending.Get(chatUserID)
	if !ok {
		return nil, false
	}
	if link.Expired(s.now(), s.expiry) {
		s.pending.Remove(chatUserID)
		return nil, false
	}
	return link, true
}

func (s *LinkService) alreadyPending(link *model.PendingLink) Outcome {
	return Outcome{
		Kind:       OutcomeAlreadyPending,
		Identifier: link.Identifier,
		Code:       link.Code,
		ExpiresIn:  s.remaining(link),
	}
}

func (s *LinkService) remaining(link *model.PendingLink) time.Duration {
	left := s.expiry - link.Age(s.now())
	if left < 0 {
		return 0
	}
	return left
}

func (s *LinkService) unavailable(err error, op, chatUserID, identifier string) Outcome {
	log.Error().
		Err(err).
		Str("op", op).
		Str("chatUserId", chatUserID).
		Str("errorCode", string(apperrors.GetCode(err))).
		Msg("overseerr lookup failed")
	return Outcome{Kind: OutcomeServiceUnavailable, Identifier: identifier}
}

func (s *LinkService) observe(op string, outcome Outcome) Outcome {
	s.metrics.Outcomes.WithLabelValues(op, string(outcome.Kind)).Inc()
	return outcome
}
