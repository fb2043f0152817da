package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"product-chatbot-server/internal/model"
	"product-chatbot-server/internal/repository"
)

func newHandoffService(t *testing.T) (*HandoffService, *repository.FlagRepository) {
	db := newTestDB(t)
	flagRepo := repository.NewFlagRepository(db)
	return NewHandoffService(flagRepo, nil), flagRepo
}

func TestHandoffIncrementStreak(t *testing.T) {
	svc, _ := newHandoffService(t)
	ctx := context.Background()
	sessionID := "session-streak"

	// 第一次递增会创建 tracking 状态的标记
	flag, err := svc.IncrementStreak(ctx, sessionID, "zxq999 details")
	require.NoError(t, err)
	assert.Equal(t, model.FlagStatusTracking, flag.Status)
	assert.Equal(t, 1, flag.NoMatchStreak)
	assert.Equal(t, "zxq999 details", flag.LastUserMessage)

	flag, err = svc.IncrementStreak(ctx, sessionID, "zxq998 details")
	require.NoError(t, err)
	assert.Equal(t, 2, flag.NoMatchStreak)
	assert.Equal(t, "zxq998 details", flag.LastUserMessage)
}

func TestHandoffResetStreak(t *testing.T) {
	svc, flagRepo := newHandoffService(t)
	ctx := context.Background()
	sessionID := "session-reset"

	t.Run("missing flag is a no-op", func(t *testing.T) {
		require.NoError(t, svc.ResetStreak(ctx, sessionID))
		flag, err := flagRepo.GetBySessionID(ctx, sessionID)
		require.NoError(t, err)
		assert.Nil(t, flag)
	})

	t.Run("nonzero streak is cleared", func(t *testing.T) {
		_, err := svc.IncrementStreak(ctx, sessionID, "zxq999")
		require.NoError(t, err)
		_, err = svc.IncrementStreak(ctx, sessionID, "zxq998")
		require.NoError(t, err)

		require.NoError(t, svc.ResetStreak(ctx, sessionID))

		flag, err := flagRepo.GetBySessionID(ctx, sessionID)
		require.NoError(t, err)
		require.NotNil(t, flag)
		assert.Equal(t, 0, flag.NoMatchStreak)
	})
}

func TestHandoffActivate(t *testing.T) {
	svc, _ := newHandoffService(t)
	ctx := context.Background()
	sessionID := "session-activate"

	flag, err := svc.Activate(ctx, sessionID, "user_request", "talk to customer service")
	require.NoError(t, err)
	assert.Equal(t, model.FlagStatusActive, flag.Status)
	assert.Equal(t, "user_request", flag.Reason)
	assert.Equal(t, "talk to customer service", flag.LastUserMessage)
	require.NotNil(t, flag.ActivatedAt)
	firstActivated := *flag.ActivatedAt

	// 重复激活不改变状态和激活时间，只刷新原因
	again, err := svc.Activate(ctx, sessionID, "ai_handoff", "still stuck")
	require.NoError(t, err)
	assert.Equal(t, model.FlagStatusActive, again.Status)
	assert.Equal(t, "ai_handoff", again.Reason)
	require.NotNil(t, again.ActivatedAt)
	assert.Equal(t, firstActivated.Unix(), again.ActivatedAt.Unix())

	active, err := svc.IsActive(ctx, sessionID)
	require.NoError(t, err)
	assert.True(t, active)
}

func TestHandoffClose(t *testing.T) {
	svc, _ := newHandoffService(t)
	ctx := context.Background()
	sessionID := "session-close"

	t.Run("missing flag returns nil", func(t *testing.T) {
		flag, err := svc.Close(ctx, sessionID)
		require.NoError(t, err)
		assert.Nil(t, flag)
	})

	t.Run("active flag transitions to closed", func(t *testing.T) {
		_, err := svc.Activate(ctx, sessionID, "user_request", "help")
		require.NoError(t, err)

		flag, err := svc.Close(ctx, sessionID)
		require.NoError(t, err)
		require.NotNil(t, flag)
		assert.Equal(t, model.FlagStatusClosed, flag.Status)
		assert.Equal(t, 0, flag.NoMatchStreak)

		active, err := svc.IsActive(ctx, sessionID)
		require.NoError(t, err)
		assert.False(t, active)
	})

	t.Run("tracking flag is not closable", func(t *testing.T) {
		trackingID := "session-close-tracking"
		_, err := svc.IncrementStreak(ctx, trackingID, "zxq999")
		require.NoError(t, err)

		// tracking 不允许直接跳到 closed
		flag, err := svc.Close(ctx, trackingID)
		require.NoError(t, err)
		assert.Nil(t, flag)

		kept, err := svc.Get(ctx, trackingID)
		require.NoError(t, err)
		require.NotNil(t, kept)
		assert.Equal(t, model.FlagStatusTracking, kept.Status)
		assert.Equal(t, 1, kept.NoMatchStreak)
	})

	t.Run("closed session can be activated again on the same row", func(t *testing.T) {
		flag, err := svc.Activate(ctx, sessionID, "no_match_streak", "zxq123")
		require.NoError(t, err)
		assert.Equal(t, model.FlagStatusActive, flag.Status)
	})
}

func TestHandoffOneFlagPerSession(t *testing.T) {
	db := newTestDB(t)
	svc := NewHandoffService(repository.NewFlagRepository(db), nil)
	ctx := context.Background()
	sessionID := "session-single"

	// 整个生命周期走一遍，全程只应存在一条标记
	_, err := svc.IncrementStreak(ctx, sessionID, "zxq999")
	require.NoError(t, err)
	_, err = svc.Activate(ctx, sessionID, "user_request", "hi")
	require.NoError(t, err)
	_, err = svc.Close(ctx, sessionID)
	require.NoError(t, err)
	_, err = svc.IncrementStreak(ctx, sessionID, "zxq998")
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&model.HumanFlag{}).Where("session_id = ?", sessionID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	flag, err := svc.Get(ctx, sessionID)
	require.NoError(t, err)
	require.NotNil(t, flag)
	assert.Equal(t, 1, flag.NoMatchStreak)
	assert.Equal(t, model.FlagStatusClosed, flag.Status)
}
