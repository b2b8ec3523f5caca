package expr

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func tokenize(src string) ([]token, error) {
	var toks []token
	rs := []rune(src)
	i := 0
	for i < len(rs) {
		c := rs[i]
		switch {
		case unicode.IsSpace(c):
			i++
		case c == '(':
			toks = append(toks, token{tokLParen, "(", i})
			i++
		case c == ')':
			toks = append(toks, token{tokRParen, ")", i})
			i++
		case c == '\'' || c == '"':
			start := i
			i++
			for i < len(rs) && rs[i] != c {
				i++
			}
			if i >= len(rs) {
				return nil, fmt.Errorf("%w: unterminated string at %d", ErrSyntax, start)
			}
			toks = append(toks, token{tokString, string(rs[start+1 : i]), start})
			i++
		case strings.ContainsRune("=!<>&|", c):
			start := i
			two := ""
			if i+1 < len(rs) {
				two = string(rs[i : i+2])
			}
			switch two {
			case "==", "!=", "<=", ">=", "&&", "||":
				toks = append(toks, token{tokOp, two, start})
				i += 2
				continue
			}
			switch c {
			case '<', '>', '!':
				toks = append(toks, token{tokOp, string(c), start})
				i++
			default:
				return nil, fmt.Errorf("%w: unexpected %q at %d", ErrSyntax, c, start)
			}
		case unicode.IsDigit(c) || ((c == '-' || c == '+' || c == '.') && i+1 < len(rs) && (unicode.IsDigit(rs[i+1]) || rs[i+1] == '.')):
			start := i
			i++
			for i < len(rs) && (unicode.IsDigit(rs[i]) || rs[i] == '.' || rs[i] == 'e' || rs[i] == 'E' ||
				((rs[i] == '-' || rs[i] == '+') && (rs[i-1] == 'e' || rs[i-1] == 'E'))) {
				i++
			}
			toks = append(toks, token{tokNumber, string(rs[start:i]), start})
		case unicode.IsLetter(c) || c == '_':
			start := i
			for i < len(rs) && (unicode.IsLetter(rs[i]) || unicode.IsDigit(rs[i]) || rs[i] == '_' || rs[i] == '.') {
				i++
			}
			toks = append(toks, token{tokIdent, string(rs[start:i]), start})
		default:
			return nil, fmt.Errorf("%w: unexpected %q at %d", ErrSyntax, c, i)
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(rs)})
	return toks, nil
}

type parser struct {
	toks      []token
	pos       int
	customOps map[string]BinaryOp
	idents    map[string]struct{}
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) parse() (node, error) {
	if p.peek().kind == tokEOF {
		return nil, fmt.Errorf("%w: empty expression", ErrSyntax)
	}
	n, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, fmt.Errorf("%w: unexpected %q at %d", ErrSyntax, t.text, t.pos)
	}
	return n, nil
}

func (p *parser) isKeyword(t token, words ...string) bool {
	if t.kind != tokIdent && t.kind != tokOp {
		return false
	}
	for _, w := range words {
		if t.text == w {
			return true
		}
	}
	return false
}

func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isKeyword(p.peek(), "or", "||") {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = orNode{left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.isKeyword(p.peek(), "and", "&&") {
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = andNode{left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (node, error) {
	if p.isKeyword(p.peek(), "not", "!") {
		p.next()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return notNode{inner: inner}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (node, error) {
	if p.peek().kind == tokLParen {
		p.next()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if t := p.next(); t.kind != tokRParen {
			return nil, fmt.Errorf("%w: expected ')' at %d", ErrSyntax, t.pos)
		}
		return inner, nil
	}

	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}

	op, ok := p.comparison(p.peek())
	if !ok {
		return truthNode{operand: left}, nil
	}
	p.next()

	right, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	return compareNode{left: left, right: right, op: op}, nil
}

func (p *parser) comparison(t token) (BinaryOp, bool) {
	switch t.kind {
	case tokOp:
		switch t.text {
		case "==":
			return compareEquals, true
		case "!=":
			return compareNotEquals, true
		case "<":
			return compareLT, true
		case ">":
			return compareGT, true
		case "<=":
			return compareLTE, true
		case ">=":
			return compareGTE, true
		}
	case tokIdent:
		if t.text == "contains" {
			return compareContains, true
		}
		if fn, ok := p.customOps[t.text]; ok {
			return fn, true
		}
	}
	return nil, false
}

func (p *parser) parseOperand() (operand, error) {
	t := p.next()
	switch t.kind {
	case tokString:
		return operand{literal: t.text}, nil
	case tokNumber:
		v, ok := parseNumber(t.text)
		if !ok {
			return operand{}, fmt.Errorf("%w: invalid number %q at %d", ErrSyntax, t.text, t.pos)
		}
		return operand{literal: v}, nil
	case tokIdent:
		switch strings.ToLower(t.text) {
		case "true":
			return operand{literal: true}, nil
		case "false":
			return operand{literal: false}, nil
		case "null", "nil":
			return operand{literal: nil}, nil
		case "and", "or", "not", "contains":
			return operand{}, fmt.Errorf("%w: unexpected keyword %q at %d", ErrSyntax, t.text, t.pos)
		}
		p.idents[t.text] = struct{}{}
		return operand{ident: t.text}, nil
	case tokEOF:
		return operand{}, fmt.Errorf("%w: unexpected end of expression", ErrSyntax)
	default:
		return operand{}, fmt.Errorf("%w: unexpected %q at %d", ErrSyntax, t.text, t.pos)
	}
}
