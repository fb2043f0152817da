// Package repository 提供数据访问层的实现
package repository

import (
	"context"

	"gorm.io/gorm"
	"product-chatbot-server/internal/model"
)

// InteractionRepository 购买意向记录数据访问层
type InteractionRepository struct {
	db *gorm.DB
}

// NewInteractionRepository 创建 InteractionRepository 实例
func NewInteractionRepository(db *gorm.DB) *InteractionRepository {
	return &InteractionRepository{db: db}
}

// Create 追加一条购买意向记录
func (r *InteractionRepository) Create(ctx context.Context, interaction *model.ProductInteraction) error {
	return r.db.WithContext(ctx).Create(interaction).Error
}

// GetBySessionID 获取会话的购买意向记录，按时间正序
func (r *InteractionRepository) GetBySessionID(ctx context.Context, sessionID string) ([]model.ProductInteraction, error) {
	var interactions []model.ProductInteraction
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC, id ASC").
		Find(&interactions).Error
	return interactions, err
}

// DeleteBySessionIDs 删除多个会话的购买意向记录
func (r *InteractionRepository) DeleteBySessionIDs(ctx context.Context, sessionIDs []string) error {
	if len(sessionIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("session_id IN ?", sessionIDs).
		Delete(&model.ProductInteraction{}).Error
}
