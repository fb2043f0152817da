package intent

import (
	"strings"
)

// Intent 用户消息的意图分类结果
type Intent string

// 五类意图
const (
	IntentCustomerService Intent = "customer_service" // 要求人工客服
	IntentExactProduct    Intent = "exact_product"    // 查询具体商品
	IntentRecommendation  Intent = "recommendation"   // 求推荐
	IntentClarification   Intent = "clarification"    // 补充需求的追问
	IntentChat            Intent = "chat"             // 闲聊
)

// Turn 一条对话记录（角色 + 内容），用于从历史中推断上下文
type Turn struct {
	Role    string
	Content string
}

// Context 从消息或历史中抽取到的购物上下文
// Budget 为 0、Category 为空串表示对应信号缺失
type Context struct {
	Budget   int
	Category string
}

// historyWindow 上下文推断回看的最大轮数
const historyWindow = 12

// 英语 + 罗马化尼泊尔语关键词表

var csTriggers = []string{
	"customer service", "support", "agent", "human", "representative",
	"talk to customer service", "connect me to customer service",
	"talk to agent", "need support",
}

var recoTriggers = []string{
	"recommend", "suggest", "best", "option",
	"budget", "under", "within",
	"vitra", "bhitra", "vitrama", "bhitrama",
	"ramro", "kun", "kasto", "chahiyo", "chahinchha", "chahincha",
	"price", "cost",
}

// exactSuppressors 压制型号解读的触发词
// 不含 "price"/"cost"：问某个型号多少钱仍然是具体商品查询
var exactSuppressors = []string{
	"recommend", "suggest", "best", "option",
	"budget", "under", "within",
	"vitra", "bhitra", "vitrama", "bhitrama",
	"ramro", "kun", "kasto", "chahiyo", "chahinchha", "chahincha",
}

var usecaseWords = []string{
	"photo", "camera", "battery", "gaming", "study", "office",
	"video", "editing", "performance",
	"photography", "vlog", "content",
	"game", "pubg", "free fire",
}

// followupHints 规格类追问的提示词
// 出现这些词说明用户在延续选购话题，即使消息里没有类别和预算
var followupHints = []string{
	"gaming", "camera", "photo", "battery", "performance", "ram", "storage",
	"processor", "display", "screen", "fast", "smooth",
}

var greetings = map[string]struct{}{
	"hi": {}, "hello": {}, "hey": {}, "yo": {}, "hlo": {}, "hlw": {}, "namaste": {},
	"good morning": {}, "good afternoon": {}, "good evening": {},
}

func containsAny(t string, words []string) bool {
	for _, w := range words {
		if strings.Contains(t, w) {
			return true
		}
	}
	return false
}

// RequestsCustomerService 判断消息是否明确要求人工客服
func RequestsCustomerService(text string) bool {
	return containsAny(Normalize(text), csTriggers)
}

// HasRecoTrigger 判断消息是否包含推荐类触发词
func HasRecoTrigger(text string) bool {
	return containsAny(Normalize(text), recoTriggers)
}

// HasUsecaseWord 判断消息是否包含使用场景词（拍照、游戏、续航等）
func HasUsecaseWord(text string) bool {
	return containsAny(Normalize(text), usecaseWords)
}

// LooksLikeExactProduct 判断消息是否像在查询具体商品
// 命中显式 #id 引用一定算；否则要求含型号 token 且不带推荐触发词
// （推荐触发词优先级更高，会压制型号 token 的解读）
func LooksLikeExactProduct(text string) bool {
	if ExtractProductID(text) != 0 {
		return true
	}
	if containsAny(Normalize(text), exactSuppressors) {
		return false
	}
	return HasModelishToken(text)
}

// LooksLikeFollowup 判断消息是否像选购话题的简短追问
// 命中追问提示词，或者消息很短（<=3 个词且 <=25 字符）都算
func LooksLikeFollowup(text string) bool {
	t := Normalize(text)
	if t == "" {
		return false
	}
	if containsAny(t, followupHints) {
		return true
	}
	return len(strings.Fields(t)) <= 3 && len(t) <= 25
}

// Detect 识别一条用户消息的意图
// 判定按固定顺序短路，先命中者生效；纯函数，相同输入必得相同结果
// history 参数保留给未来基于上下文的判定，目前的规则只看当前消息
func Detect(text string, history []Turn) Intent {
	t := Normalize(text)
	if t == "" {
		return IntentChat
	}

	if RequestsCustomerService(t) {
		return IntentCustomerService
	}

	if _, ok := greetings[t]; ok {
		return IntentChat
	}

	if LooksLikeExactProduct(text) {
		return IntentExactProduct
	}

	if ParseBudget(text) != 0 {
		return IntentRecommendation
	}

	if ExtractCategory(text) != "" && HasRecoTrigger(t) {
		return IntentRecommendation
	}

	if HasRecoTrigger(t) {
		return IntentRecommendation
	}

	// 只有场景词、既没类别也没预算 => 需要追问澄清
	if HasUsecaseWord(t) && ExtractCategory(text) == "" && ParseBudget(text) == 0 {
		return IntentClarification
	}

	return IntentChat
}

// InferContext 从最近的历史轮次中推断预算和类别
// 只看用户消息，倒序扫描最近 historyWindow 轮；
// 预算和类别独立取各自最近出现的值，两者都有了就提前结束
func InferContext(history []Turn) Context {
	var ctx Context

	start := len(history) - historyWindow
	if start < 0 {
		start = 0
	}
	recent := history[start:]

	for i := len(recent) - 1; i >= 0; i-- {
		if recent[i].Role != "user" {
			continue
		}
		content := recent[i].Content
		if ctx.Budget == 0 {
			ctx.Budget = ParseBudget(content)
		}
		if ctx.Category == "" {
			ctx.Category = ExtractCategory(content)
		}
		if ctx.Budget != 0 && ctx.Category != "" {
			break
		}
	}

	return ctx
}
