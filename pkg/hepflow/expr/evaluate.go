package expr

import (
	"errors"
	"fmt"
	"sort"
)

// Sentinel errors.
var (
	// ErrSyntax indicates an expression could not be parsed.
	ErrSyntax = errors.New("expression syntax error")

	// ErrUnknownVariable indicates an identifier could not be resolved.
	ErrUnknownVariable = errors.New("unknown variable")
)

// BinaryOp is a function that compares two values and returns a boolean result.
type BinaryOp func(left, right any) bool

// Vars resolves identifiers at evaluation time.
type Vars interface {
	Lookup(name string) (any, bool)
}

// MapVars is a Vars backed by a map.
type MapVars map[string]any

// Lookup implements Vars.
func (m MapVars) Lookup(name string) (any, bool) {
	v, ok := m[name]
	return v, ok
}

// Evaluator compiles expressions with optional custom operators.
type Evaluator struct {
	customOps map[string]BinaryOp
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithCustomOperator registers a custom binary operator.
// The name must be a bare word and must not shadow a keyword.
func WithCustomOperator(name string, fn BinaryOp) Option {
	return func(e *Evaluator) {
		if e.customOps == nil {
			e.customOps = make(map[string]BinaryOp)
		}
		e.customOps[name] = fn
	}
}

// New creates a new Evaluator with the given options.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Program is a compiled expression. It is immutable and safe for concurrent use.
type Program struct {
	source string
	root   node
	idents []string
}

// Compile parses an expression into a Program.
func (e *Evaluator) Compile(src string) (*Program, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, customOps: e.customOps, idents: make(map[string]struct{})}
	root, err := p.parse()
	if err != nil {
		return nil, err
	}

	idents := make([]string, 0, len(p.idents))
	for name := range p.idents {
		idents = append(idents, name)
	}
	sort.Strings(idents)

	return &Program{source: src, root: root, idents: idents}, nil
}

// Compile parses an expression with the default evaluator.
func Compile(src string) (*Program, error) {
	return New().Compile(src)
}

// MustCompile is like Compile but panics on error.
func MustCompile(src string) *Program {
	p, err := Compile(src)
	if err != nil {
		panic(fmt.Sprintf("expr: %v", err))
	}
	return p
}

// Eval evaluates the program against vars.
func (p *Program) Eval(vars Vars) (bool, error) {
	if vars == nil {
		vars = MapVars(nil)
	}
	return p.root.eval(vars)
}

// String returns the source text.
func (p *Program) String() string {
	return p.source
}

// Variables returns the identifiers referenced by the program, sorted.
func (p *Program) Variables() []string {
	out := make([]string, len(p.idents))
	copy(out, p.idents)
	return out
}

// Eval is a convenience function that compiles and evaluates an expression
// using the default evaluator.
func Eval(src string, vars map[string]any) (bool, error) {
	p, err := Compile(src)
	if err != nil {
		return false, err
	}
	return p.Eval(MapVars(vars))
}

// node is a compiled boolean expression.
type node interface {
	eval(vars Vars) (bool, error)
}

type orNode struct{ left, right node }

func (n orNode) eval(vars Vars) (bool, error) {
	l, err := n.left.eval(vars)
	if err != nil || l {
		return l, err
	}
	return n.right.eval(vars)
}

type andNode struct{ left, right node }

func (n andNode) eval(vars Vars) (bool, error) {
	l, err := n.left.eval(vars)
	if err != nil || !l {
		return false, err
	}
	return n.right.eval(vars)
}

type notNode struct{ inner node }

func (n notNode) eval(vars Vars) (bool, error) {
	v, err := n.inner.eval(vars)
	if err != nil {
		return false, err
	}
	return !v, nil
}

type compareNode struct {
	left, right operand
	op          BinaryOp
}

func (n compareNode) eval(vars Vars) (bool, error) {
	l, err := n.left.value(vars)
	if err != nil {
		return false, err
	}
	r, err := n.right.value(vars)
	if err != nil {
		return false, err
	}
	return n.op(l, r), nil
}

type truthNode struct{ operand operand }

func (n truthNode) eval(vars Vars) (bool, error) {
	v, err := n.operand.value(vars)
	if err != nil {
		return false, err
	}
	return IsTruthy(v), nil
}

// operand is a literal or an identifier.
type operand struct {
	literal any
	ident   string
}

func (o operand) value(vars Vars) (any, error) {
	if o.ident == "" {
		return o.literal, nil
	}
	v, ok := vars.Lookup(o.ident)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVariable, o.ident)
	}
	return v, nil
}
