package service

import (
	"context"
	"log"
	"strings"

	"product-chatbot-server/internal/intent"
	"product-chatbot-server/internal/model"
	"product-chatbot-server/internal/repository"
)

// purchaseTriggers 购买意向触发词
// 英语 + 罗马化尼泊尔语，命中任意一个即认为用户表达了购买意向
var purchaseTriggers = []string{
	"buy", "purchase", "order", "book", "checkout",
	"kinchu", "kinna", "order gar", "book gar",
	"lina", "chahinchha", "chahincha",
}

// PurchaseService 购买意向记录服务
// 从用户消息里识别购买意向并落一条商品交互记录，
// 这是一条尽力而为的旁路，任何失败都不影响对话主流程
type PurchaseService struct {
	productRepo     *repository.ProductRepository
	interactionRepo *repository.InteractionRepository
}

// NewPurchaseService 创建 PurchaseService 实例
func NewPurchaseService(productRepo *repository.ProductRepository, interactionRepo *repository.InteractionRepository) *PurchaseService {
	return &PurchaseService{
		productRepo:     productRepo,
		interactionRepo: interactionRepo,
	}
}

// HasPurchaseIntent 判断消息是否表达了购买意向
func HasPurchaseIntent(text string) bool {
	t := intent.Normalize(text)
	for _, w := range purchaseTriggers {
		if strings.Contains(t, w) {
			return true
		}
	}
	return false
}

// MaybeRecordPurchase 识别并记录购买意向
// 消息没有购买触发词时直接返回；有触发词时先尝试显式 #id，
// 再退回关键词匹配取 ID 最小的商品；都匹配不到只写日志。
// 记录失败同样只写日志，从不向上抛错
func (s *PurchaseService) MaybeRecordPurchase(ctx context.Context, sessionID, message string) {
	if !HasPurchaseIntent(message) {
		return
	}

	product, err := s.resolveProduct(ctx, message)
	if err != nil {
		log.Printf("[purchase] product lookup failed for session %s: %v", sessionID, err)
		return
	}
	if product == nil {
		log.Printf("[purchase] intent detected but no product matched: session=%s message=%q", sessionID, message)
		return
	}

	interaction := &model.ProductInteraction{
		SessionID:   sessionID,
		ProductID:   product.ID,
		ProductName: product.Name,
	}
	if err := s.interactionRepo.Create(ctx, interaction); err != nil {
		log.Printf("[purchase] failed to record interaction for session %s: %v", sessionID, err)
		return
	}

	log.Printf("[purchase] recorded: session=%s product_id=%d name=%q", sessionID, product.ID, product.Name)
}

// resolveProduct 从消息解析目标商品
// 显式 #id 优先；id 不存在或缺失时退回关键词搜索
func (s *PurchaseService) resolveProduct(ctx context.Context, message string) (*model.Product, error) {
	if id := intent.ExtractProductID(message); id != 0 {
		product, err := s.productRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if product != nil {
			return product, nil
		}
	}

	tokens := intent.Tokenize(message)
	return s.productRepo.FirstByKeywords(ctx, tokens)
}

// History 获取会话的购买意向记录，按时间升序
func (s *PurchaseService) History(ctx context.Context, sessionID string) ([]model.ProductInteraction, error) {
	return s.interactionRepo.GetBySessionID(ctx, sessionID)
}
