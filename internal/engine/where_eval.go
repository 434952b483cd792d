package engine

import (
	"github.com/SimonWaldherr/tinyrel/internal/dberr"
	"github.com/SimonWaldherr/tinyrel/internal/storage"
)

// Evaluate runs the clause against one record with an explicit value stack.
func (w *WhereClause) Evaluate(rec storage.Record) (bool, error) {
	stack := make([]storage.Value, 0, len(w.postfix))
	for _, e := range w.postfix {
		switch e.kind {
		case elemConst:
			stack = append(stack, e.val)
		case elemIdent:
			v, ok := rec.Get(e.name)
			if !ok {
				return false, dberr.Newf(dberr.WronglyParsedClause, "Column %s not found in record", e.name)
			}
			stack = append(stack, v)
		case elemOp:
			if len(stack) < 2 {
				return false, dberr.New(dberr.WronglyParsedClause, "Not enough elements on stack for operation")
			}
			right := stack[len(stack)-1]
			left := stack[len(stack)-2]
			stack = stack[:len(stack)-2]
			res, err := apply(e.op, left, right)
			if err != nil {
				return false, err
			}
			stack = append(stack, res)
		default:
			return false, dberr.New(dberr.WronglyParsedClause, "Brackets shouldn't be in postfix sequence")
		}
	}
	if len(stack) != 1 {
		return false, dberr.New(dberr.WronglyParsedClause, "More than one element left on stack after evaluation")
	}
	b, ok := stack[0].Bool()
	if !ok {
		return false, dberr.New(dberr.WronglyParsedClause, "Final element is not a boolean constant")
	}
	return b, nil
}

// Match lets a WhereClause act as a storage.Filter.
func (w *WhereClause) Match(rec storage.Record) (bool, error) {
	return w.Evaluate(rec)
}

func apply(op operator, l, r storage.Value) (storage.Value, error) {
	switch op {
	case opAnd, opOr:
		return applyLogical(op, l, r)
	case opAdd, opSub, opMul, opDiv:
		return applyMath(op, l, r)
	default:
		return applyComparison(op, l, r)
	}
}

func applyComparison(op operator, l, r storage.Value) (storage.Value, error) {
	var (
		res bool
		err error
	)
	switch op {
	case opEq:
		res = l.Equal(r)
	case opNe:
		res = !l.Equal(r)
	case opGt:
		res, err = l.Greater(r)
	case opLt:
		res, err = r.Greater(l)
	case opGe:
		res, err = l.Greater(r)
		res = res || l.Equal(r)
	case opLe:
		res, err = r.Greater(l)
		res = res || l.Equal(r)
	}
	if err != nil {
		return storage.Value{}, err
	}
	return storage.BoolValue(res), nil
}

func applyLogical(op operator, l, r storage.Value) (storage.Value, error) {
	a, okA := l.Bool()
	b, okB := r.Bool()
	if !okA || !okB {
		return storage.Value{}, dberr.ErrInvalidLogicalOperation
	}
	if op == opAnd {
		return storage.BoolValue(a && b), nil
	}
	return storage.BoolValue(a || b), nil
}

func applyMath(op operator, l, r storage.Value) (storage.Value, error) {
	if !l.IsNumeric() || !r.IsNumeric() {
		return storage.Value{}, dberr.ErrInvalidMathOperation
	}
	a, aInt := l.Int()
	b, bInt := r.Int()
	if aInt && bInt {
		switch op {
		case opAdd:
			return storage.IntValue(a + b), nil
		case opSub:
			return storage.IntValue(a - b), nil
		case opMul:
			return storage.IntValue(a * b), nil
		default:
			if b == 0 {
				return storage.Value{}, dberr.ErrDivisionByZero
			}
			return storage.IntValue(a / b), nil
		}
	}
	x, _ := l.AsFloat()
	y, _ := r.AsFloat()
	switch op {
	case opAdd:
		return storage.FloatValue(x + y), nil
	case opSub:
		return storage.FloatValue(x - y), nil
	case opMul:
		return storage.FloatValue(x * y), nil
	default:
		if y == 0 {
			return storage.Value{}, dberr.ErrDivisionByZero
		}
		return storage.FloatValue(x / y), nil
	}
}
