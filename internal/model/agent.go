// Package model 定义了与数据库表对应的数据结构
package model

import (
	"time"
)

// Agent 客服账号模型
// 对应数据库表 agents
// 客服通过 /support/login 登录后才能访问支持侧接口
type Agent struct {
	// ID 自增主键
	ID int64 `gorm:"primaryKey" json:"id"`

	// Username 登录名，全局唯一
	Username string `gorm:"size:50;uniqueIndex;not null" json:"username"`

	// PasswordHash bcrypt 哈希，序列化时忽略
	PasswordHash string `gorm:"size:255;not null" json:"-"`

	// DisplayName 展示名称
	DisplayName string `gorm:"size:100" json:"display_name,omitempty"`

	// CreatedAt 创建时间
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// UpdatedAt 最后更新时间
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定表名
func (Agent) TableName() string {
	return "agents"
}
