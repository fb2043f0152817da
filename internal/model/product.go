// Package model 定义了与数据库表对应的数据结构
package model

import (
	"time"
)

// Product 商品模型
// 对应数据库表 products
// 存储商品目录中的单个商品及其规格参数
type Product struct {
	// ID 商品唯一标识，自增主键
	// 注意：仅作为内部检索键使用，拼接 AI 提示词时必须剔除
	ID int64 `gorm:"primaryKey" json:"id"`

	// Name 商品名称
	Name string `gorm:"size:255;not null" json:"name"`

	// Category 商品类别，如 "mobile" / "laptop" / "tablet"
	Category string `gorm:"size:100;index" json:"category,omitempty"`

	// Brand 品牌名称
	Brand string `gorm:"size:100;index" json:"brand,omitempty"`

	// 规格参数（固定集合，与商品目录结构对应）
	Screen    string `gorm:"size:100" json:"screen,omitempty"`
	Processor string `gorm:"size:100" json:"processor,omitempty"`
	RAM       string `gorm:"size:50" json:"ram,omitempty"`
	Storage   string `gorm:"size:100" json:"storage,omitempty"`
	Camera    string `gorm:"size:100" json:"camera,omitempty"`

	// Price 价格（卢比），必须为正数
	Price float64 `gorm:"not null" json:"price"`

	// CreatedAt 创建时间，由 GORM 自动填充
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}
