package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"product-chatbot-server/internal/intent"
	"product-chatbot-server/internal/model"
	"product-chatbot-server/internal/repository"
)

// fakeGenerator 测试用的回复生成器
// 按脚本顺序返回预设回复，记录每次收到的输入
type fakeGenerator struct {
	replies  []string
	err      error
	calls    int
	lastMsg  string
	lastHist []intent.Turn
	lastProd []ProductPayload
}

func (f *fakeGenerator) Generate(ctx context.Context, message string, history []intent.Turn, products []ProductPayload) (string, error) {
	f.calls++
	f.lastMsg = message
	f.lastHist = history
	f.lastProd = products
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "ok reply", nil
	}
	reply := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return reply, nil
}

type chatFixture struct {
	svc     *ChatService
	handoff *HandoffService
	gen     *fakeGenerator
	db      *gorm.DB
}

func newChatFixture(t *testing.T) *chatFixture {
	db := newTestDB(t)
	seedProducts(t, db)

	cfg := newTestConfig()
	productRepo := repository.NewProductRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	flagRepo := repository.NewFlagRepository(db)
	interactionRepo := repository.NewInteractionRepository(db)

	handoff := NewHandoffService(flagRepo, nil)
	gen := &fakeGenerator{}

	svc := NewChatService(cfg, sessionRepo, messageRepo,
		NewRetrievalService(productRepo, cfg.AI.ProductsLimit),
		handoff,
		NewPurchaseService(productRepo, interactionRepo),
		NewMaintenanceService(sessionRepo, messageRepo, flagRepo, interactionRepo, handoff),
		NewAlertService("", nil),
		gen,
	)

	return &chatFixture{svc: svc, handoff: handoff, gen: gen, db: db}
}

func (f *chatFixture) createSession(t *testing.T) string {
	t.Helper()
	session, err := f.svc.CreateSession(context.Background())
	require.NoError(t, err)
	return session.SessionID
}

func (f *chatFixture) messages(t *testing.T, sessionID string) []model.ChatMessage {
	t.Helper()
	var msgs []model.ChatMessage
	require.NoError(t, f.db.Where("session_id = ?", sessionID).
		Order("created_at ASC, id ASC").Find(&msgs).Error)
	return msgs
}

func TestChatValidation(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	sessionID := f.createSession(t)

	t.Run("malformed session token", func(t *testing.T) {
		_, err := f.svc.Chat(ctx, "not-a-uuid", "hello")
		assert.ErrorIs(t, err, ErrInvalidSessionID)
	})

	t.Run("unknown session", func(t *testing.T) {
		_, err := f.svc.Chat(ctx, "123e4567-e89b-12d3-a456-426614174000", "hello")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("empty message", func(t *testing.T) {
		_, err := f.svc.Chat(ctx, sessionID, "   ")
		assert.ErrorIs(t, err, ErrEmptyMessage)
	})
}

func TestChatBasicTurn(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	sessionID := f.createSession(t)
	f.gen.replies = []string{"Redmi Note 12 ramro chha, Rs 28000 matra!"}

	resp, err := f.svc.Chat(ctx, sessionID, "best mobile under 30k")
	require.NoError(t, err)
	assert.Equal(t, string(intent.IntentRecommendation), resp.Intent)
	assert.True(t, resp.RetrievalUsed)
	assert.NotEmpty(t, resp.Products)
	assert.Equal(t, "Redmi Note 12 ramro chha, Rs 28000 matra!", resp.BotMessage)
	assert.False(t, resp.HumanFlagActive)

	// 一轮对话落两条消息
	msgs := f.messages(t, sessionID)
	require.Len(t, msgs, 2)
	assert.Equal(t, model.MessageRoleUser, msgs[0].Role)
	assert.Equal(t, "best mobile under 30k", msgs[0].Message)
	assert.Equal(t, model.MessageRoleAssistant, msgs[1].Role)
}

func TestChatExactIDEchoesProductID(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	sessionID := f.createSession(t)

	resp, err := f.svc.Chat(ctx, sessionID, "#3 details")
	require.NoError(t, err)
	assert.Equal(t, string(intent.IntentExactProduct), resp.Intent)
	assert.Equal(t, int64(3), resp.ProductID)
	require.Len(t, resp.Products, 1)
	assert.Equal(t, "iPhone 14", resp.Products[0].Name)
}

func TestChatSmallTalkSkipsRetrieval(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	sessionID := f.createSession(t)

	resp, err := f.svc.Chat(ctx, sessionID, "hi")
	require.NoError(t, err)
	assert.Equal(t, string(intent.IntentChat), resp.Intent)
	assert.False(t, resp.RetrievalUsed)
	assert.Empty(t, resp.Products)
	// 生成仍然发生，只是没喂商品
	assert.Equal(t, 1, f.gen.calls)
	assert.Empty(t, f.gen.lastProd)
}

func TestChatUserRequestsHuman(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	sessionID := f.createSession(t)

	resp, err := f.svc.Chat(ctx, sessionID, "talk to customer service please")
	require.NoError(t, err)
	assert.Equal(t, HandoffMessage, resp.BotMessage)
	assert.True(t, resp.HumanFlagActive)
	assert.Equal(t, model.FlagStatusActive, resp.HumanFlagStatus)
	// 不走生成
	assert.Zero(t, f.gen.calls)

	flag, err := f.handoff.Get(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, "user_request", flag.Reason)
}

func TestChatActiveFlagBypassesGeneration(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	sessionID := f.createSession(t)

	_, err := f.handoff.Activate(ctx, sessionID, "user_request", "earlier message")
	require.NoError(t, err)

	resp, err := f.svc.Chat(ctx, sessionID, "a54 price")
	require.NoError(t, err)
	assert.Equal(t, HandoffMessage, resp.BotMessage)
	assert.True(t, resp.HumanFlagActive)
	assert.False(t, resp.RetrievalUsed)
	assert.Zero(t, f.gen.calls)

	// 用户消息仍然落库，客服能看到
	msgs := f.messages(t, sessionID)
	require.Len(t, msgs, 2)
	assert.Equal(t, "a54 price", msgs[0].Message)
}

func TestChatSentinelTriggersHandoff(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	sessionID := f.createSession(t)
	f.gen.replies = []string{"I cannot help with this. " + HumanInterventionSentinel}

	resp, err := f.svc.Chat(ctx, sessionID, "my order arrived broken and I am very angry")
	require.NoError(t, err)
	// 标记永远不会出现在发给用户的文本里
	assert.Equal(t, HandoffMessage, resp.BotMessage)
	assert.NotContains(t, resp.BotMessage, HumanInterventionSentinel)
	assert.True(t, resp.HumanFlagActive)

	flag, err := f.handoff.Get(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, "ai_handoff", flag.Reason)

	// 落库的助手消息也是替换后的文案
	msgs := f.messages(t, sessionID)
	require.Len(t, msgs, 2)
	assert.Equal(t, HandoffMessage, msgs[1].Message)
}

func TestChatNoMatchStreakEscalates(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	sessionID := f.createSession(t)

	// 连续三轮查不存在的型号，第三轮触发接管
	for i := 1; i <= 3; i++ {
		resp, err := f.svc.Chat(ctx, sessionID, fmt.Sprintf("qqq%dzzz details", i))
		require.NoError(t, err)
		if i < 3 {
			assert.False(t, resp.HumanFlagActive, "round %d", i)
			assert.Equal(t, i, resp.NoMatchStreak, "round %d", i)
		} else {
			assert.True(t, resp.HumanFlagActive)
		}
	}

	flag, err := f.handoff.Get(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, "no_match_streak", flag.Reason)
	assert.Equal(t, model.FlagStatusActive, flag.Status)
}

func TestChatSuccessfulMatchResetsStreak(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	sessionID := f.createSession(t)

	// 两轮未匹配
	for i := 1; i <= 2; i++ {
		_, err := f.svc.Chat(ctx, sessionID, fmt.Sprintf("qqq%dzzz details", i))
		require.NoError(t, err)
	}

	// 命中后计数清零
	resp, err := f.svc.Chat(ctx, sessionID, "galaxy a54")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Products)
	assert.Zero(t, resp.NoMatchStreak)
	assert.False(t, resp.HumanFlagActive)
}

func TestChatGenerationFailureKeepsUserMessage(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	sessionID := f.createSession(t)
	f.gen.err = fmt.Errorf("%w: upstream 500", ErrGeneration)

	_, err := f.svc.Chat(ctx, sessionID, "best mobile under 30k")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrGeneration))

	// 用户消息在生成前已落库
	msgs := f.messages(t, sessionID)
	require.Len(t, msgs, 1)
	assert.Equal(t, model.MessageRoleUser, msgs[0].Role)
}

func TestChatRecordsPurchaseIntent(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	sessionID := f.createSession(t)

	_, err := f.svc.Chat(ctx, sessionID, "I want to buy #2")
	require.NoError(t, err)

	var rec model.ProductInteraction
	require.NoError(t, f.db.Where("session_id = ?", sessionID).First(&rec).Error)
	assert.Equal(t, int64(2), rec.ProductID)
	assert.Equal(t, "Redmi Note 12", rec.ProductName)
}

func TestChatHistoryWindowExcludesCurrentMessage(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	sessionID := f.createSession(t)

	_, err := f.svc.Chat(ctx, sessionID, "laptop chahiyo")
	require.NoError(t, err)

	_, err = f.svc.Chat(ctx, sessionID, "under 100k")
	require.NoError(t, err)

	// 第二轮生成时的历史里有第一轮的两条，但没有当前这条
	require.NotEmpty(t, f.gen.lastHist)
	for _, turn := range f.gen.lastHist {
		assert.NotEqual(t, "under 100k", turn.Content)
	}
	assert.Equal(t, "laptop chahiyo", f.gen.lastHist[0].Content)
}

func TestGetHistory(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	sessionID := f.createSession(t)

	t.Run("unknown session", func(t *testing.T) {
		_, err := f.svc.GetHistory(ctx, "123e4567-e89b-12d3-a456-426614174000")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("invalid token", func(t *testing.T) {
		_, err := f.svc.GetHistory(ctx, "nope")
		assert.ErrorIs(t, err, ErrInvalidSessionID)
	})

	t.Run("messages in order", func(t *testing.T) {
		_, err := f.svc.Chat(ctx, sessionID, "hello there friend")
		require.NoError(t, err)

		history, err := f.svc.GetHistory(ctx, sessionID)
		require.NoError(t, err)
		require.Len(t, history.Messages, 2)
		assert.Equal(t, model.MessageRoleUser, history.Messages[0].Role)
		assert.Equal(t, model.MessageRoleAssistant, history.Messages[1].Role)
	})
}
