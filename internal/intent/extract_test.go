package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase", "Hello World", "hello world"},
		{"trim and collapse whitespace", "  foo   bar \t baz  ", "foo bar baz"},
		{"empty", "", ""},
		{"whitespace only", "   \t\n ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in)
			assert.Equal(t, tt.want, got)
			// 幂等
			assert.Equal(t, got, Normalize(got))
		})
	}
}

func TestParseBudget(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{"k shorthand", "laptop under 50k", 50000},
		{"k shorthand with space", "60 k budget", 60000},
		{"three digit shorthand", "under 100k", 100000},
		{"rs prefix", "Rs 50000", 50000},
		{"rs prefix with dot", "rs.45000 vitra", 45000},
		{"npr prefix", "npr 80000", 80000},
		{"rs suffix", "50000 rs", 50000},
		{"npr suffix", "45000 npr", 45000},
		{"devanagari prefix", "रु 50000", 50000},
		{"bare number is not a budget", "iphone 14", 0},
		{"bare large number is not a budget", "galaxy 50000", 0},
		{"no budget", "recommend a good phone", 0},
		{"empty", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseBudget(tt.in))
		})
	}
}

func TestExtractCategory(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"mobile", "best mobile under 30k", "mobile"},
		{"phone synonym", "I need a new phone", "mobile"},
		{"smartphone synonym", "smartphone chahiyo", "mobile"},
		{"laptop", "gaming laptop", "laptop"},
		{"notebook synonym", "light notebook for study", "laptop"},
		{"tablet", "tablet for kids", "tablet"},
		{"mobile wins over laptop", "phone or laptop", "mobile"},
		{"none", "something nice", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractCategory(tt.in))
		})
	}
}

func TestHasModelishToken(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"letters and digits", "a54", true},
		{"model in sentence", "do you have s23 ultra", true},
		{"iphone14", "iphone14 price", true},
		{"digits only", "50000", false},
		{"letters only", "samsung galaxy", false},
		{"short token", "a5", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasModelishToken(tt.in))
		})
	}
}

func TestExtractProductID(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int64
	}{
		{"hash", "I want #12", 12},
		{"id colon", "id: 7", 7},
		{"id plain", "id 42", 42},
		{"product word", "product 3 please", 3},
		{"no id", "recommend a phone", 0},
		{"model is not an id", "a54 price", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractProductID(tt.in))
		})
	}
}

func TestTokenize(t *testing.T) {
	t.Run("drops stopwords and short tokens", func(t *testing.T) {
		tokens := Tokenize("the best phone for me")
		assert.Equal(t, []string{"phone"}, tokens)
	})

	t.Run("dedups and sorts by length desc", func(t *testing.T) {
		tokens := Tokenize("galaxy a54 galaxy samsung")
		assert.Equal(t, []string{"samsung", "galaxy", "a54"}, tokens)
	})

	t.Run("caps at six tokens", func(t *testing.T) {
		tokens := Tokenize("alpha bravo charlie delta echo foxtrot golf hotel")
		assert.Len(t, tokens, 6)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, Tokenize(""))
	})
}
