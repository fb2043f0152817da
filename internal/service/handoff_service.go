package service

import (
	"context"
	"log"
	"sync"
	"time"

	"product-chatbot-server/internal/cache"
	"product-chatbot-server/internal/model"
	"product-chatbot-server/internal/repository"
)

// HandoffService 人工接管状态机
// 管理 tracking -> active -> closed 的状态流转和连续未匹配计数
// 同一会话的标记操作通过按会话分键的互斥锁串行化，
// 配合 session_id 唯一索引保证每会话至多一条标记
type HandoffService struct {
	flagRepo *repository.FlagRepository
	cache    *cache.RedisCache // 可选，nil 时只走数据库

	mu    sync.Mutex
	locks map[string]*sync.Mutex // 按会话分键的锁
}

// NewHandoffService 创建 HandoffService 实例
// cache 传 nil 表示不启用 Redis 快速判断
func NewHandoffService(flagRepo *repository.FlagRepository, redisCache *cache.RedisCache) *HandoffService {
	return &HandoffService{
		flagRepo: flagRepo,
		cache:    redisCache,
		locks:    make(map[string]*sync.Mutex),
	}
}

// sessionLock 获取会话对应的互斥锁，没有则创建
func (s *HandoffService) sessionLock(sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[sessionID] = l
	}
	return l
}

// Get 获取会话的接管标记，从未创建过返回 nil
func (s *HandoffService) Get(ctx context.Context, sessionID string) (*model.HumanFlag, error) {
	return s.flagRepo.GetBySessionID(ctx, sessionID)
}

// IsActive 判断会话是否处于人工接管状态
// 先查缓存，未命中或缓存不可用时回落数据库
func (s *HandoffService) IsActive(ctx context.Context, sessionID string) (bool, error) {
	if s.cache != nil {
		active, err := s.cache.IsHandoffActive(ctx, sessionID)
		if err == nil && active {
			return true, nil
		}
		if err != nil {
			log.Printf("[handoff] redis check failed, falling back to db: %v", err)
		}
	}

	flag, err := s.flagRepo.GetBySessionID(ctx, sessionID)
	if err != nil {
		return false, err
	}
	return flag.IsActive(), nil
}

// getOrCreate 获取会话标记，不存在则创建 tracking 状态的新标记
// 调用方必须持有会话锁
func (s *HandoffService) getOrCreate(ctx context.Context, sessionID string) (*model.HumanFlag, error) {
	flag, err := s.flagRepo.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if flag != nil {
		return flag, nil
	}

	flag = &model.HumanFlag{
		SessionID: sessionID,
		Status:    model.FlagStatusTracking,
	}
	if err := s.flagRepo.Create(ctx, flag); err != nil {
		return nil, err
	}
	return flag, nil
}

// IncrementStreak 连续未匹配计数加一
// 标记不存在时先创建；记录触发这次未匹配的用户消息，返回递增后的标记
func (s *HandoffService) IncrementStreak(ctx context.Context, sessionID, lastMessage string) (*model.HumanFlag, error) {
	l := s.sessionLock(sessionID)
	l.Lock()
	defer l.Unlock()

	flag, err := s.getOrCreate(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	flag.NoMatchStreak++
	flag.LastUserMessage = lastMessage
	if err := s.flagRepo.Save(ctx, flag); err != nil {
		return nil, err
	}
	return flag, nil
}

// ResetStreak 连续未匹配计数清零
// 标记不存在或计数已为零时不做任何写入
func (s *HandoffService) ResetStreak(ctx context.Context, sessionID string) error {
	l := s.sessionLock(sessionID)
	l.Lock()
	defer l.Unlock()

	flag, err := s.flagRepo.GetBySessionID(ctx, sessionID)
	if err != nil {
		return err
	}
	if flag == nil || flag.NoMatchStreak == 0 {
		return nil
	}

	flag.NoMatchStreak = 0
	return s.flagRepo.Save(ctx, flag)
}

// Activate 激活人工接管
// 标记不存在时先创建；已激活时重复调用只刷新原因和最后消息，
// 状态保持 active 不变
// 参数:
//   - reason: 触发原因，如 "ai_handoff" / "no_match_streak" / "user_request"
//   - lastMessage: 触发时的用户消息
func (s *HandoffService) Activate(ctx context.Context, sessionID, reason, lastMessage string) (*model.HumanFlag, error) {
	l := s.sessionLock(sessionID)
	l.Lock()
	defer l.Unlock()

	flag, err := s.getOrCreate(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if flag.Status != model.FlagStatusActive {
		now := time.Now()
		flag.Status = model.FlagStatusActive
		flag.ActivatedAt = &now
	}
	flag.Reason = reason
	flag.LastUserMessage = lastMessage

	if err := s.flagRepo.Save(ctx, flag); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.MarkHandoffActive(ctx, sessionID); err != nil {
			log.Printf("[handoff] failed to mark active in redis: %v", err)
		}
	}

	return flag, nil
}

// Close 结束本次人工接管
// 只允许 active -> closed 的流转，tracking 状态的标记原样保留；
// 关闭时清零计数，下一轮对话从头开始跟踪
// 标记不存在或未激活时返回 nil
func (s *HandoffService) Close(ctx context.Context, sessionID string) (*model.HumanFlag, error) {
	l := s.sessionLock(sessionID)
	l.Lock()
	defer l.Unlock()

	flag, err := s.flagRepo.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !flag.IsActive() {
		return nil, nil
	}

	flag.Status = model.FlagStatusClosed
	flag.NoMatchStreak = 0
	if err := s.flagRepo.Save(ctx, flag); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.ClearHandoffActive(ctx, sessionID); err != nil {
			log.Printf("[handoff] failed to clear active in redis: %v", err)
		}
	}

	return flag, nil
}

// ListActive 获取所有待处理的接管会话，最近更新的在前
func (s *HandoffService) ListActive(ctx context.Context) ([]model.HumanFlag, error) {
	return s.flagRepo.ListActive(ctx)
}

// ForgetSessions 会话被淘汰后清理对应的锁和缓存
func (s *HandoffService) ForgetSessions(ctx context.Context, sessionIDs []string) {
	s.mu.Lock()
	for _, id := range sessionIDs {
		delete(s.locks, id)
	}
	s.mu.Unlock()

	if s.cache != nil {
		for _, id := range sessionIDs {
			if err := s.cache.ClearHandoffActive(ctx, id); err != nil {
				log.Printf("[handoff] failed to clear evicted session in redis: %v", err)
			}
		}
	}
}
