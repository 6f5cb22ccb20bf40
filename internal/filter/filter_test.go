package filter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	assert.Equal(t,
		[]string{"(", "speed", "lte", "2", ")"},
		Tokenize("(speed lte 2)"),
	)
	assert.Equal(t,
		[]string{"distance", "gte", "1500"},
		Tokenize("   distance \t gte \n 1500  "),
	)
	assert.Empty(t, Tokenize(""))
}

func TestMinimalWhitespaceIdempotent(t *testing.T) {
	inputs := []string{
		"(speed lte 2)",
		"  week   eq 202042",
		"((distance gt 100))",
		"garbage(((",
	}
	for _, in := range inputs {
		once := minimalWhitespace(in)
		assert.Equal(t, once, minimalWhitespace(once), "input %q", in)
	}
}

func TestEvaluateComparisons(t *testing.T) {
	tests := []struct {
		filter string
		tokens map[string]string
		want   bool
	}{
		{"2 ne 3", nil, true},
		{"2 eq 3", nil, false},
		{"2 eq 2.0", nil, true},
		{"speed lte 2", map[string]string{"speed": "1.0"}, true},
		{"speed lte 2", map[string]string{"speed": "2.5"}, false},
		{"week eq 202042", map[string]string{"week": "202042"}, true},
		{"distance gt 1000", map[string]string{"distance": "1500"}, true},
		{"distance lt 1000", map[string]string{"distance": "1500"}, false},
		{"duration gte 60", map[string]string{"duration": "60"}, true},
		{"(speed lte 2)", map[string]string{"speed": "1.0"}, true},
		{"((speed lte 2))", map[string]string{"speed": "1.0"}, true},
		{"role eq 'jogger'", map[string]string{"role": "'jogger'"}, true},
		{"role ne 'staff'", map[string]string{"role": "'jogger'"}, true},
		{"username lt 'bob'", map[string]string{"username": "'alice'"}, true},
		{"weather eq 'CLEAR'", map[string]string{"weather": "'CLOUDY'"}, false},
	}

	for _, tc := range tests {
		tokens := NewTokens()
		for k, v := range tc.tokens {
			tokens[k] = v
		}
		assert.Equal(t, tc.want, Evaluate(tc.filter, tokens), "filter %q", tc.filter)
	}
}

func TestEvaluateMalformedNeverRaises(t *testing.T) {
	malformed := []string{
		"",
		"garbage(((",
		"speed lte",
		"lte 2",
		"speed lte 2 extra",
		"speed lte 2 gt 3",        // no chained comparisons
		"speed lte 2 and week eq", // no boolean connectives
		"( speed lte 2",
		"speed lte 2 )",
		"()",
		"unknownfield eq 2", // unknown token passes through, fails as literal
		"'open eq 2",
	}

	for _, f := range malformed {
		tokens := NewTokens()
		tokens["speed"] = "1.0"
		tokens["week"] = "202042"
		assert.False(t, Evaluate(f, tokens), "filter %q", f)
	}
}

func TestEvaluateMixedTypes(t *testing.T) {
	tokens := NewTokens()
	tokens["user"] = "'68b1c2d3e4f5a6b7c8d9e0f1'"

	// equality across types is defined, ordering is not
	assert.False(t, Evaluate("user eq 2", tokens))
	assert.True(t, Evaluate("user ne 2", tokens))
	assert.False(t, Evaluate("user lt 2", tokens))
}

func TestEvaluateSubstitutionIsCaseSensitive(t *testing.T) {
	tokens := NewTokens()
	tokens["speed"] = "1.0"

	// "Speed" is not in the map, passes through, and is not a literal
	assert.False(t, Evaluate("Speed lte 2", tokens))
}

func TestNewTokensIsACopy(t *testing.T) {
	tokens := NewTokens()
	tokens["eq"] = "mutated"

	fresh := NewTokens()
	assert.Equal(t, "==", fresh["eq"])
	assert.Equal(t, "==", Operators["eq"])
}

func TestTokenizeHandlesLongInput(t *testing.T) {
	// a pile of parens tokenizes fine, it just never parses
	raw := strings.Repeat("(", 500) + "speed lte 2" + strings.Repeat(")", 499)
	assert.Len(t, Tokenize(raw), 500+3+499)
	assert.False(t, Evaluate(raw, NewTokens()))
}
