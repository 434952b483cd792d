package engine

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/SimonWaldherr/tinyrel/internal/dberr"
	"github.com/SimonWaldherr/tinyrel/internal/storage"
)

type operator int

const (
	opEq operator = iota
	opNe
	opGt
	opLt
	opGe
	opLe
	opAnd
	opOr
	opAdd
	opSub
	opMul
	opDiv
)

var operatorText = map[operator]string{
	opEq: "=", opNe: "!=", opGt: ">", opLt: "<", opGe: ">=", opLe: "<=",
	opAnd: "AND", opOr: "OR",
	opAdd: "+", opSub: "-", opMul: "*", opDiv: "/",
}

func (o operator) String() string { return operatorText[o] }

// precedence: higher binds tighter.
func (o operator) precedence() int {
	switch o {
	case opOr:
		return 0
	case opAnd:
		return 1
	case opAdd, opSub:
		return 3
	case opMul, opDiv:
		return 4
	default:
		return 2
	}
}

type elementKind int

const (
	elemOpen elementKind = iota
	elemClose
	elemOp
	elemIdent
	elemConst
)

// element is one token of a WHERE clause.
type element struct {
	kind elementKind
	op   operator
	name string
	val  storage.Value
}

func (e element) String() string {
	switch e.kind {
	case elemOpen:
		return "("
	case elemClose:
		return ")"
	case elemOp:
		return e.op.String()
	case elemIdent:
		return e.name
	default:
		if e.val.Type() == storage.StringType {
			return strconv.Quote(e.val.String())
		}
		return e.val.String()
	}
}

// WhereClause is a parsed filter expression in postfix order, bound to the
// schema it was parsed against. It never contains brackets.
type WhereClause struct {
	postfix []element
}

// String renders the postfix sequence separated by spaces.
func (w *WhereClause) String() string {
	parts := make([]string, len(w.postfix))
	for i, e := range w.postfix {
		parts[i] = e.String()
	}
	return strings.Join(parts, " ")
}

// ParseWhere parses text into a WhereClause. Identifiers must name columns of
// schema exactly.
func ParseWhere(text string, schema *storage.Schema) (*WhereClause, error) {
	tokens := SplitQuoted(padOperators(text, schema), ' ')
	if len(tokens) == 0 {
		return nil, dberr.WhereFormat("empty clause")
	}
	elems := make([]element, 0, len(tokens))
	for _, tok := range tokens {
		e, err := classify(tok, schema)
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
	}
	postfix, err := toPostfix(elems)
	if err != nil {
		return nil, err
	}
	if err := checkArity(postfix); err != nil {
		return nil, err
	}
	return &WhereClause{postfix: postfix}, nil
}

// symbolOps is ordered longest first so ">=" wins over ">".
var symbolOps = []string{">=", "<=", "!=", "=", ">", "<", "+", "-", "*", "/", "(", ")"}

var wordOps = []string{"AND", "OR"}

// padOperators surrounds every operator outside double quotes with spaces and
// turns other whitespace outside quotes into plain spaces. AND and OR are
// padded wherever they occur unless the word holding them is a column name.
func padOperators(text string, schema *storage.Schema) string {
	var sb strings.Builder
	sb.Grow(len(text) * 2)
	inQuotes := false
	for i := 0; i < len(text); {
		c := text[i]
		if c == '"' {
			inQuotes = !inQuotes
			sb.WriteByte(c)
			i++
			continue
		}
		if inQuotes {
			sb.WriteByte(c)
			i++
			continue
		}
		if c == '\t' || c == '\n' || c == '\r' {
			sb.WriteByte(' ')
			i++
			continue
		}
		if op, ok := matchOperator(text, i, schema); ok {
			sb.WriteByte(' ')
			sb.WriteString(op)
			sb.WriteByte(' ')
			i += len(op)
			continue
		}
		sb.WriteByte(c)
		i++
	}
	return sb.String()
}

func matchOperator(text string, i int, schema *storage.Schema) (string, bool) {
	for _, op := range symbolOps {
		if strings.HasPrefix(text[i:], op) {
			return op, true
		}
	}
	for _, op := range wordOps {
		if strings.HasPrefix(text[i:], op) && !schema.Has(wordAround(text, i, i+len(op))) {
			return op, true
		}
	}
	return "", false
}

// wordAround widens text[start:end] to the run of word bytes containing it.
func wordAround(text string, start, end int) string {
	for wordByteAt(text, start-1) {
		start--
	}
	for wordByteAt(text, end) {
		end++
	}
	return text[start:end]
}

func wordByteAt(text string, i int) bool {
	if i < 0 || i >= len(text) {
		return false
	}
	c := rune(text[i])
	return c == '_' || c >= 0x80 || unicode.IsLetter(c) || unicode.IsDigit(c)
}

func classify(tok string, schema *storage.Schema) (element, error) {
	switch tok {
	case "(":
		return element{kind: elemOpen}, nil
	case ")":
		return element{kind: elemClose}, nil
	}
	for op, text := range operatorText {
		if tok == text {
			return element{kind: elemOp, op: op}, nil
		}
	}
	if schema.Has(tok) {
		return element{kind: elemIdent, name: tok}, nil
	}
	if f, ok := storage.ParseFloat(tok); ok {
		return element{kind: elemConst, val: storage.FloatValue(f)}, nil
	}
	if b, ok := storage.ParseBool(tok); ok {
		return element{kind: elemConst, val: storage.BoolValue(b)}, nil
	}
	if len(tok) >= 2 && tok[0] == '"' && tok[len(tok)-1] == '"' {
		return element{kind: elemConst, val: storage.StringValue(tok[1 : len(tok)-1])}, nil
	}
	return element{}, dberr.WhereFormat("Unknown token in WHERE clause: %s", tok)
}

// toPostfix reorders infix elements into postfix with the shunting-yard
// algorithm. Brackets are consumed.
func toPostfix(elems []element) ([]element, error) {
	var (
		out   = make([]element, 0, len(elems))
		stack []element
	)
	for _, e := range elems {
		switch e.kind {
		case elemIdent, elemConst:
			out = append(out, e)
		case elemOpen:
			stack = append(stack, e)
		case elemClose:
			matched := false
			for len(stack) > 0 {
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if top.kind == elemOpen {
					matched = true
					break
				}
				out = append(out, top)
			}
			if !matched {
				return nil, dberr.WhereFormat("opening bracket missing")
			}
		case elemOp:
			for len(stack) > 0 {
				top := stack[len(stack)-1]
				if top.kind != elemOp || top.op.precedence() < e.op.precedence() {
					break
				}
				out = append(out, top)
				stack = stack[:len(stack)-1]
			}
			stack = append(stack, e)
		}
	}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if top.kind == elemOpen {
			return nil, dberr.WhereFormat("closing bracket missing")
		}
		out = append(out, top)
	}
	return out, nil
}

// checkArity rejects postfix sequences that would not reduce to exactly one
// value: every operator needs two operands on the stack.
func checkArity(postfix []element) error {
	depth := 0
	for _, e := range postfix {
		if e.kind != elemOp {
			depth++
			continue
		}
		if depth < 2 {
			return dberr.WhereFormat("operator %s is missing an operand", e.op)
		}
		depth--
	}
	if depth != 1 {
		return dberr.WhereFormat("operands are not joined by operators")
	}
	return nil
}
