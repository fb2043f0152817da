// Package repository 提供数据访问层的实现
package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"product-chatbot-server/internal/model"
)

// FlagRepository 人工接管标记数据访问层
type FlagRepository struct {
	db *gorm.DB
}

// NewFlagRepository 创建 FlagRepository 实例
func NewFlagRepository(db *gorm.DB) *FlagRepository {
	return &FlagRepository{db: db}
}

// GetBySessionID 获取会话的接管标记
// 返回:
//   - *model.HumanFlag: 标记对象，从未创建过返回 nil
//   - error: 数据库错误
func (r *FlagRepository) GetBySessionID(ctx context.Context, sessionID string) (*model.HumanFlag, error) {
	var flag model.HumanFlag
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		First(&flag).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &flag, nil
}

// Create 创建接管标记
// session_id 上的唯一索引保证并发下也不会出现第二条
func (r *FlagRepository) Create(ctx context.Context, flag *model.HumanFlag) error {
	return r.db.WithContext(ctx).Create(flag).Error
}

// Save 保存标记的全部字段
func (r *FlagRepository) Save(ctx context.Context, flag *model.HumanFlag) error {
	return r.db.WithContext(ctx).Save(flag).Error
}

// ListActive 获取所有激活状态的标记，最近更新的在前
// 支持侧的待处理队列
func (r *FlagRepository) ListActive(ctx context.Context) ([]model.HumanFlag, error) {
	var flags []model.HumanFlag
	err := r.db.WithContext(ctx).
		Where("status = ?", model.FlagStatusActive).
		Order("updated_at DESC").
		Find(&flags).Error
	return flags, err
}

// DeleteBySessionIDs 删除多个会话的标记
// 会话淘汰时必须先删标记，避免唯一引用悬空
func (r *FlagRepository) DeleteBySessionIDs(ctx context.Context, sessionIDs []string) error {
	if len(sessionIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("session_id IN ?", sessionIDs).
		Delete(&model.HumanFlag{}).Error
}
