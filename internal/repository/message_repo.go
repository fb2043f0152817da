// Package repository 提供数据访问层的实现
package repository

import (
	"context"

	"gorm.io/gorm"
	"product-chatbot-server/internal/model"
)

// MessageRepository 消息数据访问层
// 负责聊天消息相关的所有数据库操作
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository 创建 MessageRepository 实例
func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create 创建新消息
func (r *MessageRepository) Create(ctx context.Context, message *model.ChatMessage) error {
	return r.db.WithContext(ctx).Create(message).Error
}

// GetBySessionID 获取会话的所有消息
// 按创建时间正序，时间相同按 ID 正序（插入顺序）
func (r *MessageRepository) GetBySessionID(ctx context.Context, sessionID string) ([]model.ChatMessage, error) {
	var messages []model.ChatMessage
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	return messages, err
}

// GetLatestBySessionID 获取会话最新的 N 条消息（按时间正序返回）
// 用于构造发给模型的对话上下文
func (r *MessageRepository) GetLatestBySessionID(ctx context.Context, sessionID string, limit int) ([]model.ChatMessage, error) {
	var messages []model.ChatMessage

	// 子查询先倒序取最新 N 条，外层再正序排列
	subQuery := r.db.WithContext(ctx).
		Model(&model.ChatMessage{}).
		Where("session_id = ?", sessionID).
		Order("created_at DESC, id DESC").
		Limit(limit)

	err := r.db.WithContext(ctx).
		Table("(?) as t", subQuery).
		Order("created_at ASC, id ASC").
		Find(&messages).Error

	return messages, err
}

// CountBySessionID 统计会话的消息数量
func (r *MessageRepository) CountBySessionID(ctx context.Context, sessionID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ChatMessage{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error
	return count, err
}

// StaleIDs 返回超出保留窗口的消息 ID
// 按创建时间倒序跳过最新的 keep 条，剩下的就是要删的
// 参数:
//   - ctx: 上下文
//   - sessionID: 会话令牌
//   - keep: 保留的消息数量
//
// 返回:
//   - []int64: 待删除的消息 ID 列表
//   - error: 数据库错误
func (r *MessageRepository) StaleIDs(ctx context.Context, sessionID string, keep int) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&model.ChatMessage{}).
		Where("session_id = ?", sessionID).
		Order("created_at DESC, id DESC").
		Offset(keep).
		Limit(-1).
		Pluck("id", &ids).Error
	return ids, err
}

// DeleteByIDs 按 ID 批量删除消息
func (r *MessageRepository) DeleteByIDs(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&model.ChatMessage{}).Error
}

// DeleteBySessionIDs 删除多个会话的全部消息
// 会话淘汰时调用
func (r *MessageRepository) DeleteBySessionIDs(ctx context.Context, sessionIDs []string) error {
	if len(sessionIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("session_id IN ?", sessionIDs).
		Delete(&model.ChatMessage{}).Error
}
