package core

import (
	"context"
)

// DefaultInterpreters will be used in ExprSource.Compile if the given
// interpreters are nil.
var DefaultInterpreters = make(map[string]Interpreter)

// Expr is a guard or the right-hand side of an assignment.
//
// Eval must be a pure function of the given Valuation.  Errors from
// Eval (bad types, undeclared variables, interpreter trouble) are
// passed along to whoever called Transition.
type Expr interface {
	Eval(*Valuation) (Value, error)
}

// Interpreter compiles source code into an Expr.
type Interpreter interface {
	// Compile can do whatever it likes as long as the resulting
	// Expr is pure.
	Compile(ctx context.Context, src interface{}) (Expr, error)
}

// FuncExpr is an Expr implemented in Go.
type FuncExpr func(*Valuation) (Value, error)

func (f FuncExpr) Eval(vs *Valuation) (Value, error) {
	return f(vs)
}

type constExpr struct {
	v Value
}

func (e *constExpr) Eval(*Valuation) (Value, error) {
	return e.v, nil
}

// Const returns an Expr that always evaluates to v.
func Const(v Value) Expr {
	return &constExpr{v}
}

// True is the guard that always holds.
var True = Const(Bool(true))

type refExpr string

func (e refExpr) Eval(vs *Valuation) (Value, error) {
	v, have := vs.Get(string(e))
	if !have {
		return nil, &UndeclaredVariable{Name: string(e)}
	}
	return v, nil
}

// Ref returns an Expr that evaluates to the value of the named
// variable.
func Ref(name string) Expr {
	return refExpr(name)
}

// Truth evaluates a guard.  A nil guard holds.
func Truth(guard Expr, vs *Valuation) (bool, error) {
	if guard == nil {
		return true, nil
	}
	v, err := guard.Eval(vs)
	if err != nil {
		return false, err
	}
	b, is := v.(Bool)
	if !is {
		return false, &TypeError{Value: v, Want: "bool"}
	}
	return bool(b), nil
}

// ExprSource can be compiled to an Expr.
type ExprSource struct {
	Interpreter string      `json:"interpreter,omitempty" yaml:",omitempty"`
	Source      interface{} `json:"source"`
}

// Compile attempts to compile the ExprSource into an Expr using the
// given interpreters, which defaults to DefaultInterpreters.
func (s *ExprSource) Compile(ctx context.Context, interpreters map[string]Interpreter) (Expr, error) {
	if interpreters == nil {
		interpreters = DefaultInterpreters
	}

	interpreter, have := interpreters[s.Interpreter]
	if !have {
		return nil, InterpreterNotFound
	}

	return interpreter.Compile(ctx, s.Source)
}
