package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Intent
	}{
		// 人工客服请求
		{"explicit customer service", "talk to customer service", IntentCustomerService},
		{"agent keyword", "connect me to an agent", IntentCustomerService},
		{"human keyword", "I want a human please", IntentCustomerService},

		// 具体商品查询
		{"model with price question", "a54 price", IntentExactProduct},
		{"bare model token", "s23 ultra", IntentExactProduct},
		{"explicit id reference", "#12 details", IntentExactProduct},
		{"compact model token", "iphone14 cost", IntentExactProduct},

		// 推荐请求
		{"budget with category", "best laptop under 80k", IntentRecommendation},
		{"budget only", "under 50k", IntentRecommendation},
		{"model token with reco trigger", "a54 recommend budget", IntentRecommendation},
		{"nepali reco", "kun mobile ramro cha", IntentRecommendation},
		{"currency budget", "rs 45000 vitra mobile", IntentRecommendation},
		{"plain recommend", "recommend something", IntentRecommendation},

		// 澄清追问
		{"usecase only", "for gaming", IntentClarification},
		{"photo usecase", "photo khichna ko lagi", IntentClarification},

		// 闲聊
		{"greeting", "hi", IntentChat},
		{"greeting namaste", "namaste", IntentChat},
		{"small talk", "how are you doing today my friend", IntentChat},
		{"empty", "", IntentChat},
		{"whitespace", "   ", IntentChat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.in, nil))
		})
	}
}

// 相同输入必须给出相同结果
func TestDetectDeterministic(t *testing.T) {
	inputs := []string{"a54 price", "best laptop under 80k", "hi", "for gaming"}
	for _, in := range inputs {
		first := Detect(in, nil)
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, Detect(in, nil), "input %q", in)
		}
	}
}

func TestInferContext(t *testing.T) {
	t.Run("picks latest budget and category from user turns", func(t *testing.T) {
		history := []Turn{
			{Role: "user", Content: "best mobile under 30k"},
			{Role: "assistant", Content: "Here are some laptops under 999k"},
			{Role: "user", Content: "actually laptop under 80k"},
		}
		ctx := InferContext(history)
		assert.Equal(t, 80000, ctx.Budget)
		assert.Equal(t, "laptop", ctx.Category)
	})

	t.Run("assistant turns are ignored", func(t *testing.T) {
		history := []Turn{
			{Role: "assistant", Content: "laptop under 80k?"},
		}
		ctx := InferContext(history)
		assert.Equal(t, 0, ctx.Budget)
		assert.Equal(t, "", ctx.Category)
	})

	t.Run("budget and category come from different turns", func(t *testing.T) {
		history := []Turn{
			{Role: "user", Content: "I need a tablet"},
			{Role: "user", Content: "budget is 25k"},
		}
		ctx := InferContext(history)
		assert.Equal(t, 25000, ctx.Budget)
		assert.Equal(t, "tablet", ctx.Category)
	})

	t.Run("only recent turns are scanned", func(t *testing.T) {
		history := []Turn{{Role: "user", Content: "laptop under 80k"}}
		for i := 0; i < historyWindow; i++ {
			history = append(history, Turn{Role: "user", Content: "ok"})
		}
		ctx := InferContext(history)
		assert.Equal(t, 0, ctx.Budget)
		assert.Equal(t, "", ctx.Category)
	})

	t.Run("empty history", func(t *testing.T) {
		ctx := InferContext(nil)
		assert.Equal(t, 0, ctx.Budget)
		assert.Equal(t, "", ctx.Category)
	})
}
