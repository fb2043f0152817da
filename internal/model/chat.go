// Package model 定义了与数据库表对应的数据结构
package model

import (
	"time"
)

// MessageRole 消息角色常量
const (
	MessageRoleUser      = "user"      // 用户消息
	MessageRoleAssistant = "assistant" // 助手响应（含人工客服代发）
)

// ChatSession 会话模型
// 对应数据库表 chat_sessions
// 表示网页客户端与助手的一次多轮对话
// 主键是不透明的 UUID 令牌，由服务端生成后交给客户端保存
type ChatSession struct {
	// SessionID 会话令牌（标准连字符格式的 UUID 字符串）
	SessionID string `gorm:"primaryKey;size:64" json:"session_id"`

	// CreatedAt 会话创建时间
	// 留存策略按此字段倒序保留最新的 N 个会话
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`

	// Messages 会话中的所有消息（一对多关系）
	Messages []ChatMessage `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`

	// Interactions 会话中记录的购买意向（一对多关系）
	Interactions []ProductInteraction `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"interactions,omitempty"`
}

// TableName 指定表名
func (ChatSession) TableName() string {
	return "chat_sessions"
}

// ChatMessage 消息模型
// 对应数据库表 chat_messages
// 写入后不可变；排序按创建时间，时间相同时按自增 ID（即插入顺序）
type ChatMessage struct {
	// ID 消息唯一标识，自增主键
	ID int64 `gorm:"primaryKey" json:"id"`

	// SessionID 所属会话令牌，外键关联 chat_sessions.session_id
	SessionID string `gorm:"size:64;index;not null" json:"session_id"`

	// Role 消息角色: user / assistant
	Role string `gorm:"size:20;not null" json:"role"`

	// Message 消息正文
	Message string `gorm:"type:text;not null" json:"message"`

	// CreatedAt 消息创建时间
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// TableName 指定表名
func (ChatMessage) TableName() string {
	return "chat_messages"
}
