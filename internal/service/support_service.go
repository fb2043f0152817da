package service

import (
	"context"
	"errors"
	"strings"

	"product-chatbot-server/internal/model"
	"product-chatbot-server/internal/repository"
)

// ErrHandoffNotActive 会话当前不在人工接管状态
var ErrHandoffNotActive = errors.New("session is not in human handoff")

// QueueItem 待处理队列里的一项
// 标记信息加上会话的最后几条消息，客服扫一眼就能进入状况
type QueueItem struct {
	Flag     model.HumanFlag     `json:"flag"`
	Messages []model.ChatMessage `json:"messages"`
}

// SupportService 客服支持侧服务
// 提供待处理队列、人工代发消息和结束接管三个操作
type SupportService struct {
	sessionRepo *repository.SessionRepository
	messageRepo *repository.MessageRepository
	handoff     *HandoffService
}

// NewSupportService 创建 SupportService 实例
func NewSupportService(
	sessionRepo *repository.SessionRepository,
	messageRepo *repository.MessageRepository,
	handoff *HandoffService,
) *SupportService {
	return &SupportService{
		sessionRepo: sessionRepo,
		messageRepo: messageRepo,
		handoff:     handoff,
	}
}

// previewMessages 队列里每个会话附带的最近消息条数
const previewMessages = 6

// Queue 获取待处理的接管会话队列
// 每项附带会话最近的几条消息作为上下文预览
func (s *SupportService) Queue(ctx context.Context) ([]QueueItem, error) {
	flags, err := s.handoff.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]QueueItem, 0, len(flags))
	for _, flag := range flags {
		messages, err := s.messageRepo.GetLatestBySessionID(ctx, flag.SessionID, previewMessages)
		if err != nil {
			return nil, err
		}
		items = append(items, QueueItem{Flag: flag, Messages: messages})
	}
	return items, nil
}

// Send 客服向接管中的会话发送消息
// 消息以助手角色落库，用户下次拉历史时就能看到
// 只有接管中的会话才允许代发
func (s *SupportService) Send(ctx context.Context, sessionID, message string) (*model.ChatMessage, error) {
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

	flag, err := s.handoff.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !flag.IsActive() {
		return nil, ErrHandoffNotActive
	}

	msg := &model.ChatMessage{
		SessionID: sessionID,
		Role:      model.MessageRoleAssistant,
		Message:   message,
	}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// Close 结束会话的人工接管
// 标记转为 closed，之后的消息重新由助手生成回复
func (s *SupportService) Close(ctx context.Context, sessionID string) (*model.HumanFlag, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	flag, err := s.handoff.Close(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if flag == nil {
		return nil, ErrHandoffNotActive
	}
	return flag, nil
}
