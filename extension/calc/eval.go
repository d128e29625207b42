// eval.go evaluates the arithmetic typed into the palette.
//
// Separated from calc.go so the grammar can be tested without a host.
// The grammar is small on purpose: numbers, the four operators, modulo,
// exponentiation, parentheses, a handful of functions and two constants.
//
//	expr    = term { ("+" | "-") term }
//	term    = unary { ("*" | "/" | "%" | "×" | "÷") unary }
//	unary   = ("-" | "+") unary | power
//	power   = primary [ ("^" | "**") unary ]
//	primary = number | name [ "(" expr ")" ] | "(" expr ")"

package calc

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Evaluation errors.
var (
	ErrSyntax      = errors.New("syntax error")
	ErrDivByZero   = errors.New("division by zero")
	ErrNotFinite   = errors.New("result is not a finite number")
	ErrUnknownName = errors.New("unknown name")
)

var functions = map[string]func(float64) float64{
	"sqrt":  math.Sqrt,
	"abs":   math.Abs,
	"round": math.Round,
	"floor": math.Floor,
	"ceil":  math.Ceil,
	"ln":    math.Log,
	"log":   math.Log10,
	"sin":   math.Sin,
	"cos":   math.Cos,
	"tan":   math.Tan,
}

var constants = map[string]float64{
	"pi": math.Pi,
	"e":  math.E,
}

// Expression is a parsed calculation.
type Expression struct {
	Source string
	Value  float64
	// Ops counts operators and function calls. A bare number has none.
	Ops int
}

// IsCalculation reports whether the expression did any arithmetic, as
// opposed to being a lone number or constant.
func (e Expression) IsCalculation() bool {
	return e.Ops > 0
}

// Eval parses and evaluates s.
func Eval(s string) (Expression, error) {
	p := &parser{src: []rune(strings.TrimSpace(s))}
	if len(p.src) == 0 {
		return Expression{}, fmt.Errorf("%w: empty expression", ErrSyntax)
	}
	v, err := p.expr()
	if err != nil {
		return Expression{}, err
	}
	p.space()
	if p.pos < len(p.src) {
		return Expression{}, fmt.Errorf("%w: unexpected %q at %d", ErrSyntax, p.src[p.pos], p.pos+1)
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return Expression{}, ErrNotFinite
	}
	return Expression{Source: string(p.src), Value: v, Ops: p.ops}, nil
}

type parser struct {
	src []rune
	pos int
	ops int
}

func (p *parser) space() {
	for p.pos < len(p.src) && unicode.IsSpace(p.src[p.pos]) {
		p.pos++
	}
}

func (p *parser) peek() rune {
	p.space()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) accept(r rune) bool {
	if p.peek() == r {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expr() (float64, error) {
	v, err := p.term()
	if err != nil {
		return 0, err
	}
	for {
		switch {
		case p.accept('+'):
			r, err := p.term()
			if err != nil {
				return 0, err
			}
			v += r
		case p.accept('-'):
			r, err := p.term()
			if err != nil {
				return 0, err
			}
			v -= r
		default:
			return v, nil
		}
		p.ops++
	}
}

func (p *parser) term() (float64, error) {
	v, err := p.unary()
	if err != nil {
		return 0, err
	}
	for {
		var op rune
		switch c := p.peek(); c {
		case '*':
			// "**" is exponentiation and belongs to power.
			if p.pos+1 < len(p.src) && p.src[p.pos+1] == '*' {
				return v, nil
			}
			op = '*'
		case '×':
			op = '*'
		case '/', '÷':
			op = '/'
		case '%':
			op = '%'
		default:
			return v, nil
		}
		p.pos++
		r, err := p.unary()
		if err != nil {
			return 0, err
		}
		switch op {
		case '*':
			v *= r
		case '/':
			if r == 0 {
				return 0, ErrDivByZero
			}
			v /= r
		case '%':
			if r == 0 {
				return 0, ErrDivByZero
			}
			v = math.Mod(v, r)
		}
		p.ops++
	}
}

func (p *parser) unary() (float64, error) {
	switch {
	case p.accept('-'):
		v, err := p.unary()
		return -v, err
	case p.accept('+'):
		return p.unary()
	}
	return p.power()
}

func (p *parser) power() (float64, error) {
	v, err := p.primary()
	if err != nil {
		return 0, err
	}
	switch {
	case p.accept('^'):
	case p.peek() == '*' && p.pos+1 < len(p.src) && p.src[p.pos+1] == '*':
		p.pos += 2
	default:
		return v, nil
	}
	// Right associative: 2^3^2 is 2^9.
	exp, err := p.unary()
	if err != nil {
		return 0, err
	}
	p.ops++
	return math.Pow(v, exp), nil
}

func (p *parser) primary() (float64, error) {
	c := p.peek()
	switch {
	case c == '(':
		p.pos++
		v, err := p.expr()
		if err != nil {
			return 0, err
		}
		if !p.accept(')') {
			return 0, fmt.Errorf("%w: missing )", ErrSyntax)
		}
		return v, nil
	case unicode.IsDigit(c) || c == '.':
		return p.number()
	case unicode.IsLetter(c):
		return p.name()
	case c == 0:
		return 0, fmt.Errorf("%w: unexpected end", ErrSyntax)
	}
	return 0, fmt.Errorf("%w: unexpected %q at %d", ErrSyntax, c, p.pos+1)
}

func (p *parser) number() (float64, error) {
	start := p.pos
	for p.pos < len(p.src) && (unicode.IsDigit(p.src[p.pos]) || p.src[p.pos] == '.' || p.src[p.pos] == '_') {
		p.pos++
	}
	// Exponent, as in 1.5e3.
	if p.pos+1 < len(p.src) && (p.src[p.pos] == 'e' || p.src[p.pos] == 'E') && unicode.IsDigit(p.src[p.pos+1]) {
		p.pos++
		for p.pos < len(p.src) && unicode.IsDigit(p.src[p.pos]) {
			p.pos++
		}
	}
	lit := string(p.src[start:p.pos])
	v, err := strconv.ParseFloat(strings.ReplaceAll(lit, "_", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad number %q", ErrSyntax, lit)
	}
	return v, nil
}

func (p *parser) name() (float64, error) {
	start := p.pos
	for p.pos < len(p.src) && unicode.IsLetter(p.src[p.pos]) {
		p.pos++
	}
	name := strings.ToLower(string(p.src[start:p.pos]))
	if v, ok := constants[name]; ok {
		return v, nil
	}
	fn, ok := functions[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownName, name)
	}
	if !p.accept('(') {
		return 0, fmt.Errorf("%w: %s needs (", ErrSyntax, name)
	}
	v, err := p.expr()
	if err != nil {
		return 0, err
	}
	if !p.accept(')') {
		return 0, fmt.Errorf("%w: missing )", ErrSyntax)
	}
	p.ops++
	return fn(v), nil
}
