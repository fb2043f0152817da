// Package repository 提供数据访问层的实现
package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"product-chatbot-server/internal/model"
)

// ProductRepository 商品数据访问层
// 负责商品相关的所有数据库操作
type ProductRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建 ProductRepository 实例
func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create 创建新商品
func (r *ProductRepository) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// GetByID 根据 ID 获取商品
// 参数:
//   - ctx: 上下文
//   - id: 商品ID
//
// 返回:
//   - *model.Product: 商品对象，未找到返回 nil
//   - error: 数据库错误
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).First(&product, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// List 获取商品列表（按插入顺序）
func (r *ProductRepository) List(ctx context.Context, limit int) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).Limit(limit).Find(&products).Error
	return products, err
}

// Update 更新商品信息
func (r *ProductRepository) Update(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

// Delete 删除商品
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.Product{}, id).Error
}

// likeCondition 构建一组 token 对 name/brand/category 的 OR 模糊匹配
// LOWER + LIKE 在 MySQL 和 SQLite 上行为一致（大小写不敏感的子串匹配）
func likeCondition(db *gorm.DB, tokens []string) *gorm.DB {
	cond := db
	for i, tok := range tokens {
		like := "%" + tok + "%"
		clause := db.Session(&gorm.Session{NewDB: true}).
			Where("LOWER(name) LIKE ?", like).
			Or("LOWER(brand) LIKE ?", like).
			Or("LOWER(category) LIKE ?", like)
		if i == 0 {
			cond = cond.Where(clause)
		} else {
			cond = cond.Or(clause)
		}
	}
	return cond
}

// KeywordSearch 关键词搜索
// 每个 token 对 name/brand/category 做大小写不敏感的子串匹配，token 之间 OR
// 参数:
//   - ctx: 上下文
//   - tokens: 已小写、去停用词的 token（见 intent.Tokenize）
//   - limit: 最大返回数量
//
// 返回:
//   - []model.Product: 命中的商品，按存储自然顺序
//   - error: 数据库错误
func (r *ProductRepository) KeywordSearch(ctx context.Context, tokens []string, limit int) ([]model.Product, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	var products []model.Product
	q := r.db.WithContext(ctx).Model(&model.Product{})
	err := likeCondition(q, tokens).Limit(limit).Find(&products).Error
	return products, err
}

// FirstByKeywords 关键词搜索的单结果版本
// 按商品 ID 升序取第一个命中，用于购买意向的商品解析
func (r *ProductRepository) FirstByKeywords(ctx context.Context, tokens []string) (*model.Product, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	var product model.Product
	q := r.db.WithContext(ctx).Model(&model.Product{})
	err := likeCondition(q, tokens).Order("id ASC").First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// SearchByCategory 按类别筛选，价格升序
// maxPrice > 0 时追加价格上限
func (r *ProductRepository) SearchByCategory(ctx context.Context, category string, maxPrice float64, limit int) ([]model.Product, error) {
	var products []model.Product
	q := r.db.WithContext(ctx).
		Where("LOWER(category) LIKE ?", "%"+category+"%")
	if maxPrice > 0 {
		q = q.Where("price <= ?", maxPrice)
	}
	err := q.Order("price ASC").Limit(limit).Find(&products).Error
	return products, err
}

// SearchByBudgetDesc 只按价格上限筛选，价格降序
// 降序是有意的：预算附近的机器规格最好，先展示给用户
func (r *ProductRepository) SearchByBudgetDesc(ctx context.Context, maxPrice float64, limit int) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Where("price <= ?", maxPrice).
		Order("price DESC").
		Limit(limit).
		Find(&products).Error
	return products, err
}

// ListByPriceAsc 无条件按价格升序取前 limit 个
// 兜底策略，保证助手总有商品可聊
func (r *ProductRepository) ListByPriceAsc(ctx context.Context, limit int) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Order("price ASC").
		Limit(limit).
		Find(&products).Error
	return products, err
}
