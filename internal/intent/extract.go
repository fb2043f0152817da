// Package intent 提供聊天消息的文本归一化、特征抽取和意图识别
// 全部是纯函数，不做任何 I/O；畸形输入一律降级为"没有信号"而不是报错
package intent

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// 预编译的正则
// Go 的 RE2 不支持前瞻断言，字母+数字的判断放到代码里做
var (
	// 显式商品 ID 引用: "#12" / "id: 12" / "id 12" / "product 12"
	idPattern = regexp.MustCompile(`(?i)(?:^|\s)(?:#|id\s*[:#]?\s*|product\s+)(\d+)\b`)

	// 字母数字混合的型号候选 token，如 a54、s23、iphone14
	modelishPattern = regexp.MustCompile(`[A-Za-z0-9\-]{3,}`)

	// 预算简写: 50k / 60 k（2~3 位数字）
	budgetShorthandPattern = regexp.MustCompile(`\b(\d{2,3})\s*k\b`)

	// 货币前缀: rs 50000 / rs.45000 / npr 50000 / रु50000
	// रु 不是 ASCII 单词字符，\b 对它不生效，改用行首或空白锚定
	budgetPrefixPattern = regexp.MustCompile(`(?:^|\s)(?:rs\.?|npr|रु)\s*(\d{4,7})\b`)

	// 货币后缀: 50000 rs / 45000 npr
	budgetSuffixPattern = regexp.MustCompile(`\b(\d{4,7})\s*(?:rs\b\.?|npr\b|रु)`)

	// 关键词搜索用的字母数字 token
	tokenPattern = regexp.MustCompile(`[A-Za-z0-9]+`)
)

// categoryWords 类别同义词表，按固定顺序匹配
var categoryOrder = []string{"mobile", "laptop", "tablet"}

var categoryWords = map[string][]string{
	"mobile": {"mobile", "phone", "smartphone", "mob", "cell"},
	"laptop": {"laptop", "notebook"},
	"tablet": {"tablet"},
}

// stopwords 关键词搜索时丢弃的词
// 混合了英语虚词、尼泊尔语口头语和预算相关词
var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "this": {}, "that": {},
	"please": {}, "plz": {},
	"i": {}, "me": {}, "my": {}, "you": {}, "your": {}, "is": {}, "are": {},
	"a": {}, "an": {}, "to": {}, "in": {}, "on": {}, "of": {},
	"ramro": {}, "best": {}, "recommend": {}, "suggest": {},
	"vitra": {}, "bhitra": {}, "under": {}, "within": {}, "budget": {},
	"rs": {}, "npr": {}, "price": {},
}

// Normalize 归一化文本：转小写、去首尾空白、压缩内部空白
// 幂等: Normalize(Normalize(t)) == Normalize(t)
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// ParseBudget 从文本中解析预算金额，返回 0 表示没有识别到
// 识别 "50k" 简写和带货币标记的 4~7 位金额（前缀或后缀均可）
// 刻意不识别裸数字，避免把型号（如 "iphone 14"）误读成预算
func ParseBudget(text string) int {
	t := Normalize(text)

	if m := budgetShorthandPattern.FindStringSubmatch(t); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			return n * 1000
		}
	}

	if m := budgetPrefixPattern.FindStringSubmatch(t); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n
		}
	}

	if m := budgetSuffixPattern.FindStringSubmatch(t); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n
		}
	}

	return 0
}

// ExtractCategory 返回文本中命中的第一个类别，没有则返回空串
func ExtractCategory(text string) string {
	t := Normalize(text)
	for _, cat := range categoryOrder {
		for _, w := range categoryWords[cat] {
			if strings.Contains(t, w) {
				return cat
			}
		}
	}
	return ""
}

// HasModelishToken 判断文本是否包含疑似型号的 token
// 规则：长度 >=3 的字母数字 token，同时含有字母和数字
func HasModelishToken(text string) bool {
	for _, tok := range modelishPattern.FindAllString(text, -1) {
		var hasLetter, hasDigit bool
		for _, r := range tok {
			switch {
			case r >= '0' && r <= '9':
				hasDigit = true
			case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
				hasLetter = true
			}
		}
		if hasLetter && hasDigit {
			return true
		}
	}
	return false
}

// ExtractProductID 从文本中解析显式的商品 ID 引用，返回 0 表示没有
func ExtractProductID(text string) int64 {
	m := idPattern.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// Tokenize 把文本切分成关键词搜索用的 token
// 只保留长度 >=3 且不在停用词表中的字母数字 token，
// 去重后按长度降序最多保留 6 个（长 token 通常信息量更大）
func Tokenize(text string) []string {
	seen := make(map[string]struct{})
	var tokens []string
	for _, tok := range tokenPattern.FindAllString(text, -1) {
		tok = strings.ToLower(tok)
		if len(tok) < 3 {
			continue
		}
		if _, skip := stopwords[tok]; skip {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		tokens = append(tokens, tok)
	}

	sort.SliceStable(tokens, func(i, j int) bool {
		return len(tokens[i]) > len(tokens[j])
	})
	if len(tokens) > 6 {
		tokens = tokens[:6]
	}
	return tokens
}
