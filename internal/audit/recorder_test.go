package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/hermes-bot/hermes/internal/errors"
	"github.com/hermes-bot/hermes/internal/model"
)

type mockLinkEventRepo struct {
	mock.Mock
}

func (m *mockLinkEventRepo) Create(ctx context.Context, params model.CreateLinkEventParams) (*model.LinkEvent, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LinkEvent), args.Error(1)
}

func (m *mockLinkEventRepo) FindByChatUserID(ctx context.Context, chatUserID string, limit int) ([]model.LinkEvent, error) {
	args := m.Called(ctx, chatUserID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.LinkEvent), args.Error(1)
}

func TestLogRecorder(t *testing.T) {
	r := NewLogRecorder()
	ctx := context.Background()

	assert.NotPanics(t, func() {
		r.Record(ctx, model.CreateLinkEventParams{ChatUserID: "42", Action: model.LinkActionLink})
	})

	at, err := r.LastLinkedAt(ctx, "42")
	assert.NoError(t, err)
	assert.Nil(t, at)
}

func TestDBRecorder_Record(t *testing.T) {
	ctx := context.Background()
	params := model.CreateLinkEventParams{
		ChatUserID: "42", ExternalUserID: 7, Identifier: "plexy", Action: model.LinkActionLink,
	}

	t.Run("persists the event", func(t *testing.T) {
		repo := new(mockLinkEventRepo)
		repo.On("Create", ctx, params).Return(&model.LinkEvent{ID: 1}, nil)

		NewDBRecorder(repo).Record(ctx, params)

		repo.AssertExpectations(t)
	})

	t.Run("swallows insert failures", func(t *testing.T) {
		repo := new(mockLinkEventRepo)
		repo.On("Create", ctx, params).Return(nil, errors.New("db down"))

		assert.NotPanics(t, func() { NewDBRecorder(repo).Record(ctx, params) })
		repo.AssertExpectations(t)
	})
}

func TestDBRecorder_LastLinkedAt(t *testing.T) {
	ctx := context.Background()
	linkedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("returns time of latest link", func(t *testing.T) {
		repo := new(mockLinkEventRepo)
		repo.On("FindByChatUserID", ctx, "42", 1).Return([]model.LinkEvent{
			{Action: model.LinkActionLink, CreatedAt: linkedAt},
		}, nil)

		at, err := NewDBRecorder(repo).LastLinkedAt(ctx, "42")
		require.NoError(t, err)
		require.NotNil(t, at)
		assert.Equal(t, linkedAt, *at)
	})

	t.Run("returns nil when latest event is an unlink", func(t *testing.T) {
		repo := new(mockLinkEventRepo)
		repo.On("FindByChatUserID", ctx, "42", 1).Return([]model.LinkEvent{
			{Action: model.LinkActionUnlink, CreatedAt: linkedAt},
		}, nil)

		at, err := NewDBRecorder(repo).LastLinkedAt(ctx, "42")
		require.NoError(t, err)
		assert.Nil(t, at)
	})

	t.Run("returns nil without history", func(t *testing.T) {
		repo := new(mockLinkEventRepo)
		repo.On("FindByChatUserID", ctx, "42", 1).Return([]model.LinkEvent{}, nil)

		at, err := NewDBRecorder(repo).LastLinkedAt(ctx, "42")
		require.NoError(t, err)
		assert.Nil(t, at)
	})

	t.Run("wraps repository errors", func(t *testing.T) {
		repo := new(mockLinkEventRepo)
		repo.On("FindByChatUserID", ctx, "42", 1).Return(nil, errors.New("db down"))

		_, err := NewDBRecorder(repo).LastLinkedAt(ctx, "42")
		assert.ErrorContains(t, err, "db down")
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeDatabase))
	})
}
