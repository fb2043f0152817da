package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"product-chatbot-server/internal/model"
	"product-chatbot-server/internal/repository"
)

func newMaintenanceService(t *testing.T) (*MaintenanceService, *gorm.DB) {
	db := newTestDB(t)
	flagRepo := repository.NewFlagRepository(db)
	svc := NewMaintenanceService(
		repository.NewSessionRepository(db),
		repository.NewMessageRepository(db),
		flagRepo,
		repository.NewInteractionRepository(db),
		NewHandoffService(flagRepo, nil),
	)
	return svc, db
}

// createSessionAt 按指定创建时间插入会话
func createSessionAt(t *testing.T, db *gorm.DB, sessionID string, createdAt time.Time) {
	t.Helper()
	session := &model.ChatSession{SessionID: sessionID, CreatedAt: createdAt}
	require.NoError(t, db.Create(session).Error)
}

func TestTrimMessages(t *testing.T) {
	svc, db := newMaintenanceService(t)
	ctx := context.Background()
	sessionID := "session-msgs"
	createSessionAt(t, db, sessionID, time.Now())

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 53; i++ {
		msg := &model.ChatMessage{
			SessionID: sessionID,
			Role:      model.MessageRoleUser,
			Message:   fmt.Sprintf("message %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, db.Create(msg).Error)
	}

	deleted, err := svc.TrimMessages(ctx, sessionID, 50)
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)

	var remaining []model.ChatMessage
	require.NoError(t, db.Where("session_id = ?", sessionID).Order("created_at ASC, id ASC").Find(&remaining).Error)
	require.Len(t, remaining, 50)
	// 删掉的是最旧的三条
	assert.Equal(t, "message 3", remaining[0].Message)
	assert.Equal(t, "message 52", remaining[49].Message)

	// 再跑一遍应该什么都不删
	deleted, err = svc.TrimMessages(ctx, sessionID, 50)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestTrimSessions(t *testing.T) {
	svc, db := newMaintenanceService(t)
	ctx := context.Background()

	base := time.Now().Add(-24 * time.Hour)
	for i := 0; i < 23; i++ {
		sessionID := fmt.Sprintf("session-%02d", i)
		createSessionAt(t, db, sessionID, base.Add(time.Duration(i)*time.Minute))

		// 每个会话挂一条消息、一条标记和一条购买记录
		require.NoError(t, db.Create(&model.ChatMessage{
			SessionID: sessionID, Role: model.MessageRoleUser, Message: "hello",
		}).Error)
		require.NoError(t, db.Create(&model.HumanFlag{
			SessionID: sessionID, Status: model.FlagStatusTracking,
		}).Error)
		require.NoError(t, db.Create(&model.ProductInteraction{
			SessionID: sessionID, ProductID: 1, ProductName: "Galaxy A54",
		}).Error)
	}

	// session-00 是最旧的，但被 keepID 保护
	evicted, err := svc.TrimSessions(ctx, 20, "session-00")
	require.NoError(t, err)
	assert.Equal(t, 2, evicted)

	var sessions []model.ChatSession
	require.NoError(t, db.Order("created_at ASC").Find(&sessions).Error)
	require.Len(t, sessions, 21)
	assert.Equal(t, "session-00", sessions[0].SessionID)
	assert.Equal(t, "session-03", sessions[1].SessionID)

	// 被淘汰会话的附属数据一并清掉
	for _, gone := range []string{"session-01", "session-02"} {
		var count int64
		require.NoError(t, db.Model(&model.ChatMessage{}).Where("session_id = ?", gone).Count(&count).Error)
		assert.Zero(t, count, "messages of %s", gone)
		require.NoError(t, db.Model(&model.HumanFlag{}).Where("session_id = ?", gone).Count(&count).Error)
		assert.Zero(t, count, "flags of %s", gone)
		require.NoError(t, db.Model(&model.ProductInteraction{}).Where("session_id = ?", gone).Count(&count).Error)
		assert.Zero(t, count, "interactions of %s", gone)
	}

	// 保留会话的附属数据原样
	var count int64
	require.NoError(t, db.Model(&model.ChatMessage{}).Where("session_id = ?", "session-00").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestTrimSessionsUnderLimit(t *testing.T) {
	svc, db := newMaintenanceService(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		createSessionAt(t, db, fmt.Sprintf("s-%d", i), time.Now())
	}

	evicted, err := svc.TrimSessions(ctx, 20, "")
	require.NoError(t, err)
	assert.Zero(t, evicted)
}
