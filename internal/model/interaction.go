// Package model 定义了与数据库表对应的数据结构
package model

import (
	"time"
)

// ProductInteraction 购买意向记录
// 对应数据库表 user_product_history
// 当用户消息表达出购买意向且能解析出具体商品时追加一条，只增不改
type ProductInteraction struct {
	// ID 自增主键
	ID int64 `gorm:"primaryKey" json:"id"`

	// SessionID 所属会话令牌
	SessionID string `gorm:"size:64;index;not null" json:"session_id"`

	// ProductID 关联的商品 ID
	ProductID int64 `gorm:"index;not null" json:"product_id"`

	// ProductName 记录时刻的商品名称快照
	// 冗余存储，商品后续改名或删除不影响历史记录
	ProductName string `gorm:"size:255;not null" json:"product_name"`

	// CreatedAt 记录时间
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// TableName 指定表名
func (ProductInteraction) TableName() string {
	return "user_product_history"
}
