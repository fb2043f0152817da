package service

import (
	"context"
	"strings"

	"product-chatbot-server/internal/model"
	"product-chatbot-server/internal/repository"
)

// ProductService 商品管理服务
// 后台维护商品目录的增删改查
type ProductService struct {
	productRepo *repository.ProductRepository
}

// NewProductService 创建 ProductService 实例
func NewProductService(productRepo *repository.ProductRepository) *ProductService {
	return &ProductService{productRepo: productRepo}
}

// validateProduct 校验商品数据
// 名称去空白后至少 3 个字符，价格必须为正
func validateProduct(product *model.Product) error {
	product.Name = strings.TrimSpace(product.Name)
	if len(product.Name) < 3 {
		return ErrInvalidProduct
	}
	if product.Price <= 0 {
		return ErrInvalidProduct
	}
	return nil
}

// Create 创建商品
func (s *ProductService) Create(ctx context.Context, product *model.Product) error {
	if err := validateProduct(product); err != nil {
		return err
	}
	return s.productRepo.Create(ctx, product)
}

// GetByID 获取商品详情
func (s *ProductService) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// List 获取商品列表
func (s *ProductService) List(ctx context.Context, limit int) ([]model.Product, error) {
	if limit <= 0 || limit > 500 {
		limit = 500
	}
	return s.productRepo.List(ctx, limit)
}

// Update 更新商品
// 商品不存在返回 ErrProductNotFound
func (s *ProductService) Update(ctx context.Context, id int64, updated *model.Product) (*model.Product, error) {
	existing, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrProductNotFound
	}

	updated.ID = id
	updated.CreatedAt = existing.CreatedAt
	if err := validateProduct(updated); err != nil {
		return nil, err
	}
	if err := s.productRepo.Update(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete 删除商品
func (s *ProductService) Delete(ctx context.Context, id int64) error {
	existing, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrProductNotFound
	}
	return s.productRepo.Delete(ctx, id)
}
