package service

import (
	"context"
	"errors"
	"log"
	"strings"

	"product-chatbot-server/internal/config"
	"product-chatbot-server/internal/intent"
	"product-chatbot-server/internal/model"
	"product-chatbot-server/internal/repository"
	"product-chatbot-server/pkg/util"
)

// 定义错误类型
var (
	ErrSessionNotFound  = errors.New("session not found")    // 会话不存在
	ErrInvalidSessionID = errors.New("invalid session id")   // 会话令牌格式非法
	ErrEmptyMessage     = errors.New("message is empty")     // 消息为空
	ErrProductNotFound  = errors.New("product not found")    // 商品不存在
	ErrInvalidProduct   = errors.New("invalid product data") // 商品数据非法
)

// ChatResponse 一轮对话的返回结果
type ChatResponse struct {
	SessionID       string           `json:"session_id"`
	UserMessage     string           `json:"user_message"`
	BotMessage      string           `json:"bot_message"`
	Intent          string           `json:"intent"`
	Products        []ProductPayload `json:"products,omitempty"`
	RetrievalUsed   bool             `json:"retrieval_used"`
	ProductID       int64            `json:"product_id,omitempty"`
	HumanFlagActive bool             `json:"human_flag_active"`
	HumanFlagStatus string           `json:"human_flag_status,omitempty"`
	NoMatchStreak   int              `json:"no_match_streak"`
}

// HistoryResponse 会话历史的返回结果
type HistoryResponse struct {
	SessionID string              `json:"session_id"`
	Messages  []model.ChatMessage `json:"messages"`
}

// ChatService 对话编排服务
// 串起一轮对话的完整流程: 校验 -> 落用户消息 -> 接管检查 -> 意图识别
// -> 商品检索 -> 生成回复 -> 接管信号处理 -> 落助手消息 -> 购买意向
// -> 留存维护
type ChatService struct {
	cfg         *config.Config
	sessionRepo *repository.SessionRepository
	messageRepo *repository.MessageRepository
	retrieval   *RetrievalService
	handoff     *HandoffService
	purchase    *PurchaseService
	maintenance *MaintenanceService
	alert       *AlertService
	generator   Generator
}

// NewChatService 创建 ChatService 实例
func NewChatService(
	cfg *config.Config,
	sessionRepo *repository.SessionRepository,
	messageRepo *repository.MessageRepository,
	retrieval *RetrievalService,
	handoff *HandoffService,
	purchase *PurchaseService,
	maintenance *MaintenanceService,
	alert *AlertService,
	generator Generator,
) *ChatService {
	return &ChatService{
		cfg:         cfg,
		sessionRepo: sessionRepo,
		messageRepo: messageRepo,
		retrieval:   retrieval,
		handoff:     handoff,
		purchase:    purchase,
		maintenance: maintenance,
		alert:       alert,
		generator:   generator,
	}
}

// CreateSession 创建新会话
// 生成不透明的 UUID 令牌落库，并在创建口径下裁剪会话存量
// （创建时的上限比对话后的上限宽松，避免频繁建会话触发大量淘汰）
func (s *ChatService) CreateSession(ctx context.Context) (*model.ChatSession, error) {
	session := &model.ChatSession{
		SessionID: util.NewSessionToken(),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	if s.maintenance != nil {
		if _, err := s.maintenance.TrimSessions(ctx, s.cfg.Chat.CreateMaxSessions, session.SessionID); err != nil {
			log.Printf("[chat] trim sessions after create failed: %v", err)
		}
	}

	return session, nil
}

// GetHistory 获取会话的全部消息，按时间升序
func (s *ChatService) GetHistory(ctx context.Context, sessionID string) (*HistoryResponse, error) {
	if !util.IsValidSessionToken(sessionID) {
		return nil, ErrInvalidSessionID
	}

	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	messages, err := s.messageRepo.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []model.ChatMessage{}
	}

	return &HistoryResponse{SessionID: sessionID, Messages: messages}, nil
}

// toTurns 把消息记录转成意图层的轮次
func toTurns(messages []model.ChatMessage) []intent.Turn {
	turns := make([]intent.Turn, 0, len(messages))
	for _, m := range messages {
		turns = append(turns, intent.Turn{Role: m.Role, Content: m.Message})
	}
	return turns
}

// Chat 处理一轮对话
// 用户消息在生成前就已落库，因此即使生成失败，下一轮的历史里
// 仍能看到这条消息
// 参数:
//   - ctx: 上下文
//   - sessionID: 会话令牌
//   - message: 用户消息
//
// 返回:
//   - *ChatResponse: 对话结果
//   - error: ErrInvalidSessionID / ErrEmptyMessage / ErrSessionNotFound / ErrGeneration / 数据库错误
func (s *ChatService) Chat(ctx context.Context, sessionID, message string) (*ChatResponse, error) {
	if !util.IsValidSessionToken(sessionID) {
		return nil, ErrInvalidSessionID
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	// 用户消息先落库
	userMsg := &model.ChatMessage{
		SessionID: sessionID,
		Role:      model.MessageRoleUser,
		Message:   message,
	}
	if err := s.messageRepo.Create(ctx, userMsg); err != nil {
		return nil, err
	}

	// 人工接管中的会话不走生成，直接返回固定文案
	active, err := s.handoff.IsActive(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if active {
		flag, err := s.handoff.Get(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		return s.finishTurn(ctx, sessionID, message, HandoffMessage, string(intent.IntentCustomerService), flag, nil)
	}

	// 取最近的历史作为意图推断和生成的上下文
	// 当前这条用户消息已落库，历史里会包含它，构造轮次时剔除最后一条
	recentMsgs, err := s.messageRepo.GetLatestBySessionID(ctx, sessionID, s.cfg.Chat.HistoryWindow+1)
	if err != nil {
		return nil, err
	}
	if n := len(recentMsgs); n > 0 && recentMsgs[n-1].Role == model.MessageRoleUser && recentMsgs[n-1].Message == message {
		recentMsgs = recentMsgs[:n-1]
	}
	history := toTurns(recentMsgs)

	detected := intent.Detect(message, history)

	// 用户明确要求人工客服: 立即激活接管并告警
	if detected == intent.IntentCustomerService {
		flag, err := s.handoff.Activate(ctx, sessionID, "user_request", message)
		if err != nil {
			return nil, err
		}
		s.alert.NotifyActivation(flag)
		return s.finishTurn(ctx, sessionID, message, HandoffMessage, string(detected), flag, nil)
	}

	// 商品检索
	var result *RetrievalResult
	inferred := intent.InferContext(history)
	if ShouldRetrieve(detected, message, inferred) {
		if detected == intent.IntentExactProduct {
			result, err = s.retrieval.RetrieveExact(ctx, message)
		} else {
			result, err = s.retrieval.Retrieve(ctx, message, history)
		}
		if err != nil {
			return nil, err
		}
		log.Printf("[chat] retrieval: session=%s intent=%s reason=%q hits=%d",
			sessionID, detected, result.Reason, len(result.Products))
	} else {
		result = &RetrievalResult{Used: false, Reason: "skip: not product-related"}
	}

	// 生成回复
	reply, err := s.generator.Generate(ctx, message, history, result.Products)
	if err != nil {
		return nil, err
	}

	// 模型自主请求转人工: 替换整条回复并激活接管
	var flag *model.HumanFlag
	if strings.Contains(reply, HumanInterventionSentinel) {
		flag, err = s.handoff.Activate(ctx, sessionID, "ai_handoff", message)
		if err != nil {
			return nil, err
		}
		s.alert.NotifyActivation(flag)
		reply = HandoffMessage
	} else {
		flag, err = s.updateStreak(ctx, sessionID, message, detected, result)
		if err != nil {
			return nil, err
		}
	}

	return s.finishTurn(ctx, sessionID, message, reply, string(detected), flag, result)
}

// updateStreak 根据检索结果维护连续未匹配计数
// 具体商品查询空手而归时加一，检索拿到商品时清零；
// 计数达到阈值时激活接管并告警
func (s *ChatService) updateStreak(ctx context.Context, sessionID, message string, detected intent.Intent, result *RetrievalResult) (*model.HumanFlag, error) {
	if !result.Used {
		return s.handoff.Get(ctx, sessionID)
	}

	if len(result.Products) > 0 {
		if err := s.handoff.ResetStreak(ctx, sessionID); err != nil {
			return nil, err
		}
		return s.handoff.Get(ctx, sessionID)
	}

	if detected != intent.IntentExactProduct {
		return s.handoff.Get(ctx, sessionID)
	}

	flag, err := s.handoff.IncrementStreak(ctx, sessionID, message)
	if err != nil {
		return nil, err
	}

	if flag.NoMatchStreak >= s.cfg.Chat.HandoffStreak && flag.Status != model.FlagStatusActive {
		flag, err = s.handoff.Activate(ctx, sessionID, "no_match_streak", message)
		if err != nil {
			return nil, err
		}
		s.alert.NotifyActivation(flag)
	}

	return flag, nil
}

// finishTurn 收尾一轮对话
// 落助手消息，记录购买意向，执行留存维护，拼装响应
// result 为 nil 表示本轮没走检索（接管旁路）
func (s *ChatService) finishTurn(ctx context.Context, sessionID, userMessage, botMessage, detected string, flag *model.HumanFlag, result *RetrievalResult) (*ChatResponse, error) {
	botMsg := &model.ChatMessage{
		SessionID: sessionID,
		Role:      model.MessageRoleAssistant,
		Message:   botMessage,
	}
	if err := s.messageRepo.Create(ctx, botMsg); err != nil {
		return nil, err
	}

	if s.purchase != nil {
		s.purchase.MaybeRecordPurchase(ctx, sessionID, userMessage)
	}

	if s.maintenance != nil {
		s.maintenance.RunAfterChat(ctx, sessionID, s.cfg.Chat.MaxMessages, s.cfg.Chat.MaxSessions)
	}

	resp := &ChatResponse{
		SessionID:   sessionID,
		UserMessage: userMessage,
		BotMessage:  botMessage,
		Intent:      detected,
	}
	if result != nil {
		resp.Products = result.Products
		resp.RetrievalUsed = result.Used
		resp.ProductID = result.MatchedID
	}
	if flag != nil {
		resp.HumanFlagActive = flag.IsActive()
		resp.HumanFlagStatus = flag.Status
		resp.NoMatchStreak = flag.NoMatchStreak
	}
	return resp, nil
}
