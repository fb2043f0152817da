// Package repository 提供数据访问层的实现
package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"product-chatbot-server/internal/model"
)

// AgentRepository 客服账号数据访问层
type AgentRepository struct {
	db *gorm.DB
}

// NewAgentRepository 创建 AgentRepository 实例
func NewAgentRepository(db *gorm.DB) *AgentRepository {
	return &AgentRepository{db: db}
}

// GetByUsername 根据登录名获取客服账号
// 返回:
//   - *model.Agent: 账号对象，未找到返回 nil
//   - error: 数据库错误
func (r *AgentRepository) GetByUsername(ctx context.Context, username string) (*model.Agent, error) {
	var agent model.Agent
	err := r.db.WithContext(ctx).
		Where("username = ?", username).
		First(&agent).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &agent, nil
}

// Create 创建客服账号
func (r *AgentRepository) Create(ctx context.Context, agent *model.Agent) error {
	return r.db.WithContext(ctx).Create(agent).Error
}

// Count 统计客服账号数量，用于首次启动时的引导创建
func (r *AgentRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Agent{}).Count(&count).Error
	return count, err
}
