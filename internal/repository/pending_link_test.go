package repository

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/hermes-bot/hermes/internal/errors"
	"github.com/hermes-bot/hermes/internal/model"
)

func TestPendingLinkRepository_Put(t *testing.T) {
	t.Run("stores a link keyed by chat user", func(t *testing.T) {
		repo := NewPendingLinkRepository()

		err := repo.Put("42", model.PendingLink{Identifier: "plexy", Code: "AB12-CD34", CreatedAt: time.Now()})
		require.NoError(t, err)

		link, ok := repo.Get("42")
		require.True(t, ok)
		assert.Equal(t, "42", link.ChatUserID)
		assert.Equal(t, "plexy", link.Identifier)
		assert.Equal(t, "AB12-CD34", link.Code)
		assert.Equal(t, 1, repo.Count())
	})

	t.Run("rejects a second link for the same user", func(t *testing.T) {
		repo := NewPendingLinkRepository()

		require.NoError(t, repo.Put("42", model.PendingLink{Code: "AAAA-1111", CreatedAt: time.Now()}))
		err := repo.Put("42", model.PendingLink{Code: "BBBB-2222", CreatedAt: time.Now()})

		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeAlreadyPending))
		link, _ := repo.Get("42")
		assert.Equal(t, "AAAA-1111", link.Code)
		assert.Equal(t, 1, repo.Count())
	})

	t.Run("returned link is a copy", func(t *testing.T) {
		repo := NewPendingLinkRepository()
		require.NoError(t, repo.Put("42", model.PendingLink{Code: "AAAA-1111"}))

		link, _ := repo.Get("42")
		link.Code = "ZZZZ-9999"

		stored, _ := repo.Get("42")
		assert.Equal(t, "AAAA-1111", stored.Code)
	})
}

func TestPendingLinkRepository_Remove(t *testing.T) {
	repo := NewPendingLinkRepository()
	require.NoError(t, repo.Put("42", model.PendingLink{}))

	repo.Remove("42")
	_, ok := repo.Get("42")
	assert.False(t, ok)

	assert.NotPanics(t, func() { repo.Remove("42") })
	assert.NotPanics(t, func() { repo.Remove("never-existed") })
	assert.Equal(t, 0, repo.Count())
}

func TestPendingLinkRepository_SweepExpired(t *testing.T) {
	t.Run("removes only links older than expiry", func(t *testing.T) {
		repo := NewPendingLinkRepository()
		now := time.Now()

		require.NoError(t, repo.Put("fresh", model.PendingLink{CreatedAt: now.Add(-5 * time.Second)}))
		require.NoError(t, repo.Put("stale", model.PendingLink{CreatedAt: now.Add(-20 * time.Minute)}))
		require.NoError(t, repo.Put("recent", model.PendingLink{CreatedAt: now.Add(-1 * time.Minute)}))

		removed := repo.SweepExpired(now, 15*time.Minute)

		assert.Equal(t, 1, removed)
		_, ok := repo.Get("stale")
		assert.False(t, ok)
		_, ok = repo.Get("fresh")
		assert.True(t, ok)
		_, ok = repo.Get("recent")
		assert.True(t, ok)
	})

	t.Run("link exactly at expiry is kept", func(t *testing.T) {
		repo := NewPendingLinkRepository()
		now := time.Now()
		require.NoError(t, repo.Put("edge", model.PendingLink{CreatedAt: now.Add(-15 * time.Minute)}))

		assert.Equal(t, 0, repo.SweepExpired(now, 15*time.Minute))
	})

	t.Run("empty repository sweeps nothing", func(t *testing.T) {
		repo := NewPendingLinkRepository()
		assert.Equal(t, 0, repo.SweepExpired(time.Now(), time.Minute))
	})
}

func TestPendingLinkRepository_Concurrent(t *testing.T) {
	repo := NewPendingLinkRepository()
	now := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(3)
		id := fmt.Sprintf("user-%d", i)
		go func() {
			defer wg.Done()
			_ = repo.Put(id, model.PendingLink{CreatedAt: now})
		}()
		go func() {
			defer wg.Done()
			repo.Get(id)
		}()
		go func() {
			defer wg.Done()
			repo.SweepExpired(now, time.Hour)
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, repo.Count())
}
