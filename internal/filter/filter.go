// Package filter implements the custom filter expression language used by
// the session list, user list and report endpoints.
//
// A filter is a single comparison, optionally parenthesized:
//
//	distance gte 1500
//	( role eq 'jogger' )
//
// Named operator keywords and field names are substituted from a token map
// built per record by the caller; any token not in the map passes through
// unchanged and is treated as a literal (a number, or a single-quoted
// string). Evaluation never fails: malformed input yields false.
package filter

import (
	"fmt"
	"strconv"
	"strings"
)

// Operators maps the filter keywords to their comparison operators.
// Token maps handed to Evaluate start from a copy of this map.
var Operators = map[string]string{
	"eq":  "==",
	"ne":  "!=",
	"lt":  "<",
	"lte": "<=",
	"gt":  ">",
	"gte": ">=",
	"(":   "(",
	")":   ")",
}

// NewTokens returns a fresh token map pre-populated with the operator
// keywords. Callers add their per-record field tokens on top.
func NewTokens() map[string]string {
	tokens := make(map[string]string, len(Operators)+10)
	for k, v := range Operators {
		tokens[k] = v
	}
	return tokens
}

// minimalWhitespace buffers parens with single spaces and collapses runs
// of whitespace, so the string splits cleanly into tokens. Idempotent.
func minimalWhitespace(raw string) string {
	raw = strings.ReplaceAll(raw, "(", " ( ")
	raw = strings.ReplaceAll(raw, ")", " ) ")
	return strings.Join(strings.Fields(raw), " ")
}

// Tokenize splits a raw filter string into its tokens.
func Tokenize(raw string) []string {
	return strings.Fields(minimalWhitespace(raw))
}

// Evaluate substitutes the token map into the filter string and evaluates
// the result as a boolean expression. Any tokenization, parse or
// evaluation failure yields false; Evaluate never panics and never
// returns an error to the caller.
func Evaluate(filterString string, tokens map[string]string) bool {
	raw := Tokenize(filterString)

	substituted := make([]string, len(raw))
	for i, tok := range raw {
		if replacement, ok := tokens[tok]; ok {
			substituted[i] = replacement
		} else {
			substituted[i] = tok // unrecognised tokens are literal values
		}
	}

	p := parser{tokens: substituted}
	expr, err := p.parseExpr()
	if err != nil {
		return false
	}
	if p.pos != len(p.tokens) {
		return false // trailing tokens: not a well-formed expression
	}

	result, err := expr.eval()
	if err != nil {
		return false
	}
	return result
}

// --- AST ---

type expr interface {
	eval() (bool, error)
}

// comparison is `left op right` over two literal operands.
type comparison struct {
	left  string
	op    string
	right string
}

// group is a parenthesized expression.
type group struct {
	inner expr
}

func (g group) eval() (bool, error) {
	return g.inner.eval()
}

// --- Parser ---

// parser is a recursive-descent parser over the fixed grammar
//
//	expr       := '(' expr ')' | comparison
//	comparison := literal op literal
//
// There are deliberately no boolean connectives; chaining comparisons is
// a parse error.
type parser struct {
	tokens []string
	pos    int
}

func (p *parser) peek() (string, bool) {
	if p.pos >= len(p.tokens) {
		return "", false
	}
	return p.tokens[p.pos], true
}

func (p *parser) next() (string, bool) {
	tok, ok := p.peek()
	if ok {
		p.pos++
	}
	return tok, ok
}

func (p *parser) parseExpr() (expr, error) {
	tok, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("empty expression")
	}

	if tok == "(" {
		p.pos++
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		closing, ok := p.next()
		if !ok || closing != ")" {
			return nil, fmt.Errorf("missing closing paren")
		}
		return group{inner: inner}, nil
	}

	return p.parseComparison()
}

func (p *parser) parseComparison() (expr, error) {
	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}

	op, ok := p.next()
	if !ok || !isComparisonOp(op) {
		return nil, fmt.Errorf("expected comparison operator, got %q", op)
	}

	right, err := p.parseOperand()
	if err != nil {
		return nil, err
	}

	return comparison{left: left, op: op, right: right}, nil
}

func (p *parser) parseOperand() (string, error) {
	tok, ok := p.next()
	if !ok {
		return "", fmt.Errorf("expected operand")
	}
	if tok == "(" || tok == ")" || isComparisonOp(tok) {
		return "", fmt.Errorf("expected operand, got %q", tok)
	}
	return tok, nil
}

func isComparisonOp(tok string) bool {
	switch tok {
	case "==", "!=", "<", "<=", ">", ">=":
		return true
	}
	return false
}

// --- Evaluation ---

// operand is a typed literal: a number, or a single-quoted string.
type operand struct {
	num      float64
	str      string
	isNumber bool
}

func parseLiteral(tok string) (operand, error) {
	if len(tok) >= 2 && strings.HasPrefix(tok, "'") && strings.HasSuffix(tok, "'") {
		return operand{str: tok[1 : len(tok)-1]}, nil
	}
	num, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return operand{}, fmt.Errorf("invalid literal %q", tok)
	}
	return operand{num: num, isNumber: true}, nil
}

func (c comparison) eval() (bool, error) {
	left, err := parseLiteral(c.left)
	if err != nil {
		return false, err
	}
	right, err := parseLiteral(c.right)
	if err != nil {
		return false, err
	}

	// Mixed number/string operands are never equal and cannot be ordered.
	if left.isNumber != right.isNumber {
		switch c.op {
		case "==":
			return false, nil
		case "!=":
			return true, nil
		}
		return false, fmt.Errorf("cannot order %q against %q", c.left, c.right)
	}

	if left.isNumber {
		return compareNumbers(left.num, c.op, right.num)
	}
	return compareStrings(left.str, c.op, right.str)
}

func compareNumbers(left float64, op string, right float64) (bool, error) {
	switch op {
	case "==":
		return left == right, nil
	case "!=":
		return left != right, nil
	case "<":
		return left < right, nil
	case "<=":
		return left <= right, nil
	case ">":
		return left > right, nil
	case ">=":
		return left >= right, nil
	}
	return false, fmt.Errorf("unknown operator %q", op)
}

func compareStrings(left, op, right string) (bool, error) {
	switch op {
	case "==":
		return left == right, nil
	case "!=":
		return left != right, nil
	case "<":
		return left < right, nil
	case "<=":
		return left <= right, nil
	case ">":
		return left > right, nil
	case ">=":
		return left >= right, nil
	}
	return false, fmt.Errorf("unknown operator %q", op)
}
