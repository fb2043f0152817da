package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"product-chatbot-server/internal/model"
	"product-chatbot-server/internal/repository"
)

type supportFixture struct {
	svc     *SupportService
	handoff *HandoffService
	msgRepo *repository.MessageRepository
}

func newSupportFixture(t *testing.T) *supportFixture {
	db := newTestDB(t)
	sessionRepo := repository.NewSessionRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	handoff := NewHandoffService(repository.NewFlagRepository(db), nil)

	require.NoError(t, db.Create(&model.ChatSession{SessionID: "support-s1"}).Error)

	return &supportFixture{
		svc:     NewSupportService(sessionRepo, messageRepo, handoff),
		handoff: handoff,
		msgRepo: messageRepo,
	}
}

func TestSupportSend(t *testing.T) {
	f := newSupportFixture(t)
	ctx := context.Background()

	t.Run("unknown session", func(t *testing.T) {
		_, err := f.svc.Send(ctx, "no-such-session", "hello")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("session without handoff", func(t *testing.T) {
		_, err := f.svc.Send(ctx, "support-s1", "hello")
		assert.ErrorIs(t, err, ErrHandoffNotActive)
	})

	t.Run("active handoff stores assistant message", func(t *testing.T) {
		_, err := f.handoff.Activate(ctx, "support-s1", "user_request", "help")
		require.NoError(t, err)

		msg, err := f.svc.Send(ctx, "support-s1", "An agent is with you now.")
		require.NoError(t, err)
		assert.Equal(t, model.MessageRoleAssistant, msg.Role)

		history, err := f.msgRepo.GetBySessionID(ctx, "support-s1")
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, "An agent is with you now.", history[0].Message)
	})
}

func TestSupportClose(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown session", func(t *testing.T) {
		f := newSupportFixture(t)
		_, err := f.svc.Close(ctx, "no-such-session")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("session without handoff", func(t *testing.T) {
		f := newSupportFixture(t)
		_, err := f.svc.Close(ctx, "support-s1")
		assert.ErrorIs(t, err, ErrHandoffNotActive)
	})

	t.Run("tracking session is rejected", func(t *testing.T) {
		f := newSupportFixture(t)
		_, err := f.handoff.IncrementStreak(ctx, "support-s1", "zxq999")
		require.NoError(t, err)

		// 只在跟踪计数的会话不算接管中，不能关闭
		_, err = f.svc.Close(ctx, "support-s1")
		assert.ErrorIs(t, err, ErrHandoffNotActive)

		kept, err := f.handoff.Get(ctx, "support-s1")
		require.NoError(t, err)
		require.NotNil(t, kept)
		assert.Equal(t, model.FlagStatusTracking, kept.Status)
	})

	t.Run("active session closes", func(t *testing.T) {
		f := newSupportFixture(t)
		_, err := f.handoff.Activate(ctx, "support-s1", "user_request", "help")
		require.NoError(t, err)

		flag, err := f.svc.Close(ctx, "support-s1")
		require.NoError(t, err)
		assert.Equal(t, model.FlagStatusClosed, flag.Status)
		assert.Equal(t, 0, flag.NoMatchStreak)
	})
}
