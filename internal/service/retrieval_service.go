// Package service 实现业务逻辑层
// 服务层位于 handler 和 repository 之间，负责业务规则和流程编排
package service

import (
	"context"

	"product-chatbot-server/internal/intent"
	"product-chatbot-server/internal/model"
	"product-chatbot-server/internal/repository"
)

// ProductPayload 喂给生成模型和返回给前端的商品视图
// 不含数据库 ID，模型只需要可朗读的字段
type ProductPayload struct {
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	Brand     string  `json:"brand"`
	Screen    string  `json:"screen"`
	Processor string  `json:"processor"`
	RAM       string  `json:"ram"`
	Storage   string  `json:"storage"`
	Camera    string  `json:"camera"`
	Price     float64 `json:"price"`
}

// RetrievalResult 一次商品检索的结果
type RetrievalResult struct {
	Products  []ProductPayload // 检索到的商品，可能为空
	Used      bool             // 本轮是否执行了检索
	Reason    string           // 命中的策略说明，用于日志排查
	Budget    int              // 本轮生效的预算（含历史推断）
	Category  string           // 本轮生效的类别（含历史推断）
	MatchedID int64            // 显式 id 引用命中的商品 ID，0 表示没有
}

// RetrievalService 商品检索服务
// 根据意图和购物上下文选择检索策略，保证推荐类请求总能拿到商品
type RetrievalService struct {
	productRepo *repository.ProductRepository
	limit       int // 单次检索的商品数量上限
}

// NewRetrievalService 创建 RetrievalService 实例
func NewRetrievalService(productRepo *repository.ProductRepository, limit int) *RetrievalService {
	if limit <= 0 {
		limit = 200
	}
	return &RetrievalService{
		productRepo: productRepo,
		limit:       limit,
	}
}

// toPayloads 把数据库商品转成不含 ID 的视图
func toPayloads(products []model.Product) []ProductPayload {
	payloads := make([]ProductPayload, 0, len(products))
	for _, p := range products {
		payloads = append(payloads, ProductPayload{
			Name:      p.Name,
			Category:  p.Category,
			Brand:     p.Brand,
			Screen:    p.Screen,
			Processor: p.Processor,
			RAM:       p.RAM,
			Storage:   p.Storage,
			Camera:    p.Camera,
			Price:     p.Price,
		})
	}
	return payloads
}

// ShouldRetrieve 判断本轮是否需要商品检索
// 具体商品查询和推荐请求总是检索；追问类消息只在能从历史推断出
// 上下文、或者消息本身像选购追问时检索；人工客服和闲聊不检索
func ShouldRetrieve(it intent.Intent, message string, inferred intent.Context) bool {
	switch it {
	case intent.IntentExactProduct, intent.IntentRecommendation:
		return true
	case intent.IntentClarification:
		if inferred.Budget != 0 || inferred.Category != "" {
			return true
		}
		return intent.LooksLikeFollowup(message)
	default:
		return false
	}
}

// Retrieve 执行商品检索
// 策略按固定顺序回落，一个策略拿到结果就停止:
//  1. 类别 + 预算上限，按价格升序
//  2. 只按预算，价格降序，预算附近的机器优先
//  3. 只按类别，价格升序
//  4. 全量按价格升序兜底，不带任何过滤条件
//
// 第 4 步无条件执行，保证只要商品表非空助手手里总有商品可聊；
// 关键词搜索只在全量兜底也空手时最后一搏
// 参数:
//   - ctx: 上下文
//   - message: 当前用户消息
//   - history: 最近的对话历史，用于推断缺失的预算/类别
//
// 返回:
//   - *RetrievalResult: 检索结果，Products 可能为空但不为 nil 语义
//   - error: 数据库错误
func (s *RetrievalService) Retrieve(ctx context.Context, message string, history []intent.Turn) (*RetrievalResult, error) {
	budget := intent.ParseBudget(message)
	category := intent.ExtractCategory(message)

	// 当前消息缺失的信号从历史补齐
	if budget == 0 || category == "" {
		inferred := intent.InferContext(history)
		if budget == 0 {
			budget = inferred.Budget
		}
		if category == "" {
			category = inferred.Category
		}
	}

	result := &RetrievalResult{
		Used:     true,
		Budget:   budget,
		Category: category,
	}

	if category != "" && budget > 0 {
		products, err := s.productRepo.SearchByCategory(ctx, category, float64(budget), s.limit)
		if err != nil {
			return nil, err
		}
		if len(products) > 0 {
			result.Reason = "reco: category_budget"
			result.Products = toPayloads(products)
			return result, nil
		}
	}

	if budget > 0 {
		products, err := s.productRepo.SearchByBudgetDesc(ctx, float64(budget), s.limit)
		if err != nil {
			return nil, err
		}
		if len(products) > 0 {
			result.Reason = "reco: budget_only"
			result.Products = toPayloads(products)
			return result, nil
		}
	}

	if category != "" {
		products, err := s.productRepo.SearchByCategory(ctx, category, 0, s.limit)
		if err != nil {
			return nil, err
		}
		if len(products) > 0 {
			result.Reason = "reco: category_only"
			result.Products = toPayloads(products)
			return result, nil
		}
	}

	products, err := s.productRepo.ListByPriceAsc(ctx, s.limit)
	if err != nil {
		return nil, err
	}
	if len(products) > 0 {
		result.Reason = "reco: any"
		result.Products = toPayloads(products)
		return result, nil
	}

	// 商品表为空，按关键词兜底
	tokens := intent.Tokenize(message)
	products, err = s.productRepo.KeywordSearch(ctx, tokens, s.limit)
	if err != nil {
		return nil, err
	}
	result.Reason = "reco: fallback_keyword"
	result.Products = toPayloads(products)
	return result, nil
}

// RetrieveExact 按具体商品查询检索
// 优先解析显式 #id 引用；没有 id 或 id 不存在时退回关键词搜索
func (s *RetrievalService) RetrieveExact(ctx context.Context, message string) (*RetrievalResult, error) {
	result := &RetrievalResult{Used: true}

	if id := intent.ExtractProductID(message); id != 0 {
		product, err := s.productRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if product != nil {
			result.Reason = "exact: id"
			result.MatchedID = product.ID
			result.Products = toPayloads([]model.Product{*product})
			return result, nil
		}
		result.Reason = "exact: id_not_found"
	}

	tokens := intent.Tokenize(message)
	products, err := s.productRepo.KeywordSearch(ctx, tokens, s.limit)
	if err != nil {
		return nil, err
	}
	if result.Reason == "" {
		result.Reason = "exact: keyword_search"
	}
	result.Products = toPayloads(products)
	return result, nil
}
