// Package model 定义了与数据库表对应的数据结构
package model

import (
	"time"
)

// FlagStatus 人工接管标记状态常量
// 状态只能单向流转: tracking -> active -> closed
// closed 之后复用同一行开始新一轮跟踪，不会新建记录
const (
	FlagStatusTracking = "tracking" // 跟踪中（初始状态，按需创建）
	FlagStatusActive   = "active"   // 人工客服已接管
	FlagStatusClosed   = "closed"   // 本次接管已结束
)

// HumanFlag 人工接管标记
// 对应数据库表 human_flags
// 每个会话最多一条记录，由 session_id 上的唯一索引保证
type HumanFlag struct {
	// ID 自增主键
	ID int64 `gorm:"primaryKey" json:"id"`

	// SessionID 所属会话令牌，唯一索引
	// 数据库层面兜底"每会话至多一条"的不变量
	SessionID string `gorm:"size:64;uniqueIndex;not null" json:"session_id"`

	// Status 标记状态: tracking / active / closed
	Status string `gorm:"size:20;default:tracking;not null;index" json:"status"`

	// NoMatchStreak 连续未匹配计数
	// 统计连续多少轮助手没有找到可信的商品匹配
	NoMatchStreak int `gorm:"default:0;not null" json:"no_match_streak"`

	// Reason 触发接管的原因描述
	Reason string `gorm:"size:255" json:"reason,omitempty"`

	// LastUserMessage 触发时的用户消息
	LastUserMessage string `gorm:"type:text" json:"last_user_message,omitempty"`

	// CreatedAt 创建时间
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`

	// UpdatedAt 最后更新时间
	UpdatedAt time.Time `gorm:"autoUpdateTime;index" json:"updated_at"`

	// ActivatedAt 接管激活时间，未激活为 NULL
	ActivatedAt *time.Time `json:"activated_at,omitempty"`
}

// TableName 指定表名
func (HumanFlag) TableName() string {
	return "human_flags"
}

// IsActive 判断当前是否处于人工接管状态
func (f *HumanFlag) IsActive() bool {
	return f != nil && f.Status == FlagStatusActive
}
