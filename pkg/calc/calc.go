// Package calc evaluates the arithmetic expressions attached to calculated
// template fields.
//
// Supported syntax:
//   - numeric literals: `12`, `0.5`
//   - field references using dotted ids: `project.area`
//   - binary operators `+ - * /` with the usual precedence
//   - unary minus and parentheses
package calc

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrDivisionByZero is returned when a divisor evaluates to zero.
	ErrDivisionByZero = errors.New("calc: division by zero")
	// ErrMissingValue is returned when a referenced field has no numeric value.
	ErrMissingValue = errors.New("calc: missing value")
)

// Lookup resolves a field id to its numeric value.
type Lookup func(fieldID string) (float64, bool)

// Expression is a parsed, reusable arithmetic expression.
type Expression struct {
	source string
	root   node
	refs   []string
}

// Parse compiles src. Empty input is an error.
func Parse(src string) (*Expression, error) {
	trimmed := strings.TrimSpace(src)
	if trimmed == "" {
		return nil, errors.New("calc: expression is empty")
	}
	tokens, err := tokenize(trimmed)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.tokens) {
		return nil, fmt.Errorf("calc: unexpected token %q", p.tokens[p.pos].raw)
	}
	expr := &Expression{source: trimmed, root: root}
	expr.refs = collectRefs(root, nil, map[string]struct{}{})
	return expr, nil
}

// String returns the source text.
func (e *Expression) String() string { return e.source }

// References lists the field ids used by the expression in order of first
// appearance.
func (e *Expression) References() []string {
	return append([]string(nil), e.refs...)
}

// Eval computes the expression using lookup for field references.
func (e *Expression) Eval(lookup Lookup) (float64, error) {
	if e == nil || e.root == nil {
		return 0, errors.New("calc: expression is nil")
	}
	if lookup == nil {
		lookup = func(string) (float64, bool) { return 0, false }
	}
	return e.root.eval(lookup)
}

type tokenKind int

const (
	tokenNumber tokenKind = iota
	tokenIdentifier
	tokenPlus
	tokenMinus
	tokenStar
	tokenSlash
	tokenLParen
	tokenRParen
)

type token struct {
	kind tokenKind
	raw  string
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	for i := 0; i < len(input); {
		ch := input[i]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			i++
		case ch == '+':
			tokens = append(tokens, token{kind: tokenPlus, raw: "+"})
			i++
		case ch == '-':
			tokens = append(tokens, token{kind: tokenMinus, raw: "-"})
			i++
		case ch == '*':
			tokens = append(tokens, token{kind: tokenStar, raw: "*"})
			i++
		case ch == '/':
			tokens = append(tokens, token{kind: tokenSlash, raw: "/"})
			i++
		case ch == '(':
			tokens = append(tokens, token{kind: tokenLParen, raw: "("})
			i++
		case ch == ')':
			tokens = append(tokens, token{kind: tokenRParen, raw: ")"})
			i++
		case isDigit(ch) || ch == '.':
			start := i
			for i < len(input) && (isDigit(input[i]) || input[i] == '.') {
				i++
			}
			tokens = append(tokens, token{kind: tokenNumber, raw: input[start:i]})
		case isIdentStart(ch):
			start := i
			for i < len(input) && (isIdentPart(input[i]) || input[i] == '.') {
				i++
			}
			raw := input[start:i]
			if strings.HasSuffix(raw, ".") || strings.Contains(raw, "..") {
				return nil, fmt.Errorf("calc: invalid identifier %q", raw)
			}
			tokens = append(tokens, token{kind: tokenIdentifier, raw: raw})
		default:
			return nil, fmt.Errorf("calc: unexpected character %q", ch)
		}
	}
	return tokens, nil
}

func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool { return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isIdentPart(c byte) bool  { return isIdentStart(c) || isDigit(c) }

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.tokens) {
		return token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *parser) parseExpr() (node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := p.peek()
		if !ok || (tok.kind != tokenPlus && tok.kind != tokenMinus) {
			return left, nil
		}
		p.pos++
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: tok.kind, left: left, right: right}
	}
}

func (p *parser) parseTerm() (node, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := p.peek()
		if !ok || (tok.kind != tokenStar && tok.kind != tokenSlash) {
			return left, nil
		}
		p.pos++
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: tok.kind, left: left, right: right}
	}
}

func (p *parser) parseFactor() (node, error) {
	tok, ok := p.peek()
	if !ok {
		return nil, errors.New("calc: unexpected end of expression")
	}
	p.pos++
	switch tok.kind {
	case tokenNumber:
		value, err := strconv.ParseFloat(tok.raw, 64)
		if err != nil {
			return nil, fmt.Errorf("calc: invalid number %q", tok.raw)
		}
		return numberNode(value), nil
	case tokenIdentifier:
		return refNode(tok.raw), nil
	case tokenMinus:
		operand, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return negateNode{operand: operand}, nil
	case tokenLParen:
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		closing, ok := p.peek()
		if !ok || closing.kind != tokenRParen {
			return nil, errors.New("calc: missing closing parenthesis")
		}
		p.pos++
		return inner, nil
	default:
		return nil, fmt.Errorf("calc: unexpected token %q", tok.raw)
	}
}

type node interface {
	eval(Lookup) (float64, error)
}

type numberNode float64

func (n numberNode) eval(Lookup) (float64, error) { return float64(n), nil }

type refNode string

func (n refNode) eval(lookup Lookup) (float64, error) {
	value, ok := lookup(string(n))
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingValue, string(n))
	}
	return value, nil
}

type negateNode struct {
	operand node
}

func (n negateNode) eval(lookup Lookup) (float64, error) {
	value, err := n.operand.eval(lookup)
	if err != nil {
		return 0, err
	}
	return -value, nil
}

type binaryNode struct {
	op          tokenKind
	left, right node
}

func (n binaryNode) eval(lookup Lookup) (float64, error) {
	left, err := n.left.eval(lookup)
	if err != nil {
		return 0, err
	}
	right, err := n.right.eval(lookup)
	if err != nil {
		return 0, err
	}
	switch n.op {
	case tokenPlus:
		return left + right, nil
	case tokenMinus:
		return left - right, nil
	case tokenStar:
		return left * right, nil
	case tokenSlash:
		if right == 0 {
			return 0, ErrDivisionByZero
		}
		return left / right, nil
	default:
		return 0, fmt.Errorf("calc: unknown operator %d", n.op)
	}
}

func collectRefs(n node, out []string, seen map[string]struct{}) []string {
	switch v := n.(type) {
	case refNode:
		if _, ok := seen[string(v)]; !ok {
			seen[string(v)] = struct{}{}
			out = append(out, string(v))
		}
	case negateNode:
		out = collectRefs(v.operand, out, seen)
	case binaryNode:
		out = collectRefs(v.left, out, seen)
		out = collectRefs(v.right, out, seen)
	}
	return out
}
