// Package repository 提供数据访问层的实现
package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"product-chatbot-server/internal/model"
)

// SessionRepository 会话数据访问层
// 负责会话相关的所有数据库操作
type SessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository 创建 SessionRepository 实例
func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create 创建新会话
// 参数:
//   - ctx: 上下文
//   - session: 会话对象，SessionID 必须已填好，CreatedAt 自动填充
//
// 返回:
//   - error: 数据库错误
func (r *SessionRepository) Create(ctx context.Context, session *model.ChatSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

// GetByID 根据会话令牌获取会话
// 返回:
//   - *model.ChatSession: 会话对象，未找到返回 nil
//   - error: 数据库错误
func (r *SessionRepository) GetByID(ctx context.Context, sessionID string) (*model.ChatSession, error) {
	var session model.ChatSession
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

// ListByCreatedDesc 获取所有会话，创建时间倒序（最新的在前）
// 留存策略用它确定淘汰窗口
func (r *SessionRepository) ListByCreatedDesc(ctx context.Context) ([]model.ChatSession, error) {
	var sessions []model.ChatSession
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&sessions).Error
	return sessions, err
}

// Count 统计会话总数
func (r *SessionRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ChatSession{}).Count(&count).Error
	return count, err
}

// DeleteByIDs 批量删除会话
// 调用方负责先清理标记和消息（见 MaintenanceService），这里只删会话行
func (r *SessionRepository) DeleteByIDs(ctx context.Context, sessionIDs []string) error {
	if len(sessionIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("session_id IN ?", sessionIDs).
		Delete(&model.ChatSession{}).Error
}
