package service

import (
	"context"
	"log"

	"product-chatbot-server/internal/repository"
)

// MaintenanceService 数据留存维护服务
// 对话落库后裁剪超额数据，控制消息和会话的存量上限。
// 维护失败只写日志，从不影响对话主流程
type MaintenanceService struct {
	sessionRepo     *repository.SessionRepository
	messageRepo     *repository.MessageRepository
	flagRepo        *repository.FlagRepository
	interactionRepo *repository.InteractionRepository
	handoff         *HandoffService
}

// NewMaintenanceService 创建 MaintenanceService 实例
func NewMaintenanceService(
	sessionRepo *repository.SessionRepository,
	messageRepo *repository.MessageRepository,
	flagRepo *repository.FlagRepository,
	interactionRepo *repository.InteractionRepository,
	handoff *HandoffService,
) *MaintenanceService {
	return &MaintenanceService{
		sessionRepo:     sessionRepo,
		messageRepo:     messageRepo,
		flagRepo:        flagRepo,
		interactionRepo: interactionRepo,
		handoff:         handoff,
	}
}

// TrimMessages 裁剪会话内超出上限的旧消息
// 保留最新的 maxMessages 条，更早的按 ID 批量删除
// 返回删除的消息数量
func (s *MaintenanceService) TrimMessages(ctx context.Context, sessionID string, maxMessages int) (int, error) {
	if maxMessages <= 0 {
		return 0, nil
	}

	staleIDs, err := s.messageRepo.StaleIDs(ctx, sessionID, maxMessages)
	if err != nil {
		return 0, err
	}
	if len(staleIDs) == 0 {
		return 0, nil
	}

	if err := s.messageRepo.DeleteByIDs(ctx, staleIDs); err != nil {
		return 0, err
	}
	return len(staleIDs), nil
}

// TrimSessions 裁剪超出上限的旧会话
// 按创建时间保留最新的 maxSessions 个，keepID 指定的会话（当前正在
// 服务的那个）永不淘汰。被淘汰会话的标记、消息、交互记录一并删除，
// 删除顺序固定: 标记 -> 消息 -> 交互 -> 会话
// 返回淘汰的会话数量
func (s *MaintenanceService) TrimSessions(ctx context.Context, maxSessions int, keepID string) (int, error) {
	if maxSessions <= 0 {
		return 0, nil
	}

	sessions, err := s.sessionRepo.ListByCreatedDesc(ctx)
	if err != nil {
		return 0, err
	}
	if len(sessions) <= maxSessions {
		return 0, nil
	}

	// 最新的 maxSessions 个留下，其余进入淘汰候选
	var evictIDs []string
	for _, sess := range sessions[maxSessions:] {
		if sess.SessionID == keepID {
			continue
		}
		evictIDs = append(evictIDs, sess.SessionID)
	}
	if len(evictIDs) == 0 {
		return 0, nil
	}

	if err := s.flagRepo.DeleteBySessionIDs(ctx, evictIDs); err != nil {
		return 0, err
	}
	if err := s.messageRepo.DeleteBySessionIDs(ctx, evictIDs); err != nil {
		return 0, err
	}
	if err := s.interactionRepo.DeleteBySessionIDs(ctx, evictIDs); err != nil {
		return 0, err
	}
	if err := s.sessionRepo.DeleteByIDs(ctx, evictIDs); err != nil {
		return 0, err
	}

	if s.handoff != nil {
		s.handoff.ForgetSessions(ctx, evictIDs)
	}

	log.Printf("[maintenance] evicted %d sessions", len(evictIDs))
	return len(evictIDs), nil
}

// RunAfterChat 对话落库后的例行维护
// 先裁当前会话的消息，再裁全局会话存量；任何一步失败只写日志
func (s *MaintenanceService) RunAfterChat(ctx context.Context, sessionID string, maxMessages, maxSessions int) {
	if _, err := s.TrimMessages(ctx, sessionID, maxMessages); err != nil {
		log.Printf("[maintenance] trim messages failed for session %s: %v", sessionID, err)
	}
	if _, err := s.TrimSessions(ctx, maxSessions, sessionID); err != nil {
		log.Printf("[maintenance] trim sessions failed: %v", err)
	}
}
