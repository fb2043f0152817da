package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"product-chatbot-server/internal/config"
	"product-chatbot-server/internal/intent"
)

// ErrGeneration 上游模型生成失败
var ErrGeneration = errors.New("failed to generate ai response")

// HumanInterventionSentinel 模型自主请求转人工时在回复里携带的标记
// 检测到后整条回复会被替换，标记本身永远不会出现在发给用户的文本里
const HumanInterventionSentinel = "[HUMAN_INTERVENTION_REQUIRED]"

// HandoffMessage 会话被人工接管后返回给用户的固定文案
const HandoffMessage = "Customer service is handling this chat now."

// productsTextLimit 商品清单注入提示词的最大字符数
const productsTextLimit = 3000

// systemInstruction 模型的角色设定和硬性规则
const systemInstruction = `You are a friendly sales assistant for an electronics store in Nepal.
Rules you must always follow:
- Only talk about products from the PRODUCT LIST below. Never invent products, prices, or specs.
- Keep replies short, at most 2 sentences.
- Reply in the language the customer uses. Casual Roman Nepali is fine.
- Prices are in Nepali Rupees (Rs).
- If the customer is angry, confused beyond your help, or asks for something you
  cannot do, append the exact token [HUMAN_INTERVENTION_REQUIRED] to your reply.`

// Generator 回复生成器接口
// ChatService 依赖这个接口而不是具体实现，测试时可以换成假实现
type Generator interface {
	// Generate 根据用户消息、对话历史和候选商品生成回复
	Generate(ctx context.Context, message string, history []intent.Turn, products []ProductPayload) (string, error)
}

// GeminiGenerator 基于 Gemini 的回复生成实现
type GeminiGenerator struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGeminiGenerator 创建 GeminiGenerator 实例
// 参数:
//   - ctx: 上下文
//   - cfg: AI 配置（API Key、模型名、超时）
//
// 返回:
//   - *GeminiGenerator: 生成器实例
//   - error: 客户端初始化错误
func NewGeminiGenerator(ctx context.Context, cfg config.AIConfig) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &GeminiGenerator{
		client:  client,
		model:   cfg.GeminiModel,
		timeout: timeout,
	}, nil
}

// formatProducts 把商品列表渲染成提示词片段
// 超出字符上限时截断，保证提示词体积可控
func formatProducts(products []ProductPayload) string {
	if len(products) == 0 {
		return "PRODUCT LIST: (no matching products found)"
	}

	var b strings.Builder
	b.WriteString("PRODUCT LIST:\n")
	for _, p := range products {
		line := fmt.Sprintf("- %s (%s) | Brand: %s | Screen: %s | Processor: %s | RAM: %s | Storage: %s | Camera: %s | Price: Rs %.0f\n",
			p.Name, p.Category, p.Brand, p.Screen, p.Processor, p.RAM, p.Storage, p.Camera, p.Price)
		if b.Len()+len(line) > productsTextLimit {
			b.WriteString("(list truncated)\n")
			break
		}
		b.WriteString(line)
	}
	return b.String()
}

// formatHistory 把对话历史渲染成提示词片段
func formatHistory(history []intent.Turn) string {
	if len(history) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("PREVIOUS CONVERSATION:\n")
	for _, turn := range history {
		b.WriteString(strings.ToUpper(turn.Role))
		b.WriteString(": ")
		b.WriteString(turn.Content)
		b.WriteString("\n")
	}
	return b.String()
}

// Generate 调用 Gemini 生成回复
// 返回的文本已去除首尾空白；空回复和调用失败都映射为 ErrGeneration
func (g *GeminiGenerator) Generate(ctx context.Context, message string, history []intent.Turn, products []ProductPayload) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var prompt strings.Builder
	prompt.WriteString(systemInstruction)
	prompt.WriteString("\n\n")
	prompt.WriteString(formatProducts(products))
	prompt.WriteString("\n\n")
	if h := formatHistory(history); h != "" {
		prompt.WriteString(h)
		prompt.WriteString("\n")
	}
	prompt.WriteString("CUSTOMER: ")
	prompt.WriteString(message)

	temp := float32(0.7)
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt.String()), &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: 256,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: empty response", ErrGeneration)
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			text.WriteString(part.Text)
		}
	}

	reply := strings.TrimSpace(text.String())
	if reply == "" {
		return "", fmt.Errorf("%w: empty response", ErrGeneration)
	}
	return reply, nil
}
