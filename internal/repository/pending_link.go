package repository

import (
	"sync"
	"time"

	apperrors "github.com/hermes-bot/hermes/internal/errors"
	"github.com/hermes-bot/hermes/internal/model"
)

// PendingLinkRepository holds in-flight verifications keyed by chat user id.
// Contents live only as long as the process.
type PendingLinkRepository interface {
	Put(chatUserID string, link model.PendingLink) error
	Get(chatUserID string) (*model.PendingLink, bool)
	Remove(chatUserID string)
	SweepExpired(now time.Time, expiry time.Duration) int
	Count() int
}

type pendingLinkRepo struct {
	mu    sync.Mutex
	links map[string]model.PendingLink
}

func NewPendingLinkRepository() PendingLinkRepository {
	return &pendingLinkRepo{links: make(map[string]model.PendingLink)}
}

func (r *pendingLinkRepo) Put(chatUserID string, link model.PendingLink) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.links[chatUserID]; exists {
		return apperrors.AlreadyPending(chatUserID)
	}
	link.ChatUserID = chatUserID
	r.links[chatUserID] = link
	return nil
}

// Get returns a copy so callers cannot mutate stored state.
func (r *pendingLinkRepo) Get(chatUserID string) (*model.PendingLink, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	link, ok := r.links[chatUserID]
	if !ok {
		return nil, false
	}
	return &link, true
}

func (r *pendingLinkRepo) Remove(chatUserID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.links, chatUserID)
}

func (r *pendingLinkRepo) SweepExpired(now time.Time, expiry time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, link := range r.links {
		if link.Expired(now, expiry) {
			delete(r.links, id)
			removed++
		}
	}
	return removed
}

func (r *pendingLinkRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.links)
}
