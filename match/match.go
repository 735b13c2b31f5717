/* Copyright 2018-2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package match implements a small pattern matcher over core.Values.
//
// A pattern is a Value in which strings starting with "?" are
// variables.  A Struct pattern matches a Struct that has (at least)
// the pattern's fields, and a Tuple pattern matches a Tuple of the
// same length element by element.  Everything else must be equal.
//
// Guard turns a pattern into a core.Expr that checks a variable's
// value, so patterns can guard edges.
package match

import (
	"strings"

	"github.com/Comcast/tandem/core"
)

// Bindings is a map from variables (strings starting with a '?') to
// their values.
type Bindings map[string]core.Value

// Copy makes a shallow copy.  Values are immutable, so that's
// enough.
func (bs Bindings) Copy() Bindings {
	acc := make(Bindings, len(bs))
	for k, v := range bs {
		acc[k] = v
	}
	return acc
}

type Matcher struct {
	// Inequalities turns on binding inequalities.
	//
	// Given input bindings that include a variable like "?<n", a
	// pattern can use that variable.  A number X matches it only
	// if X < Y, where Y is the binding.  The output then includes
	// a binding for "?n".  The other operators are ">", "<=",
	// ">=", and "!=".
	Inequalities bool
}

var DefaultMatcher = &Matcher{
	Inequalities: true,
}

// IsVariable reports whether s is a variable.
func (m *Matcher) IsVariable(s string) bool {
	return strings.HasPrefix(s, "?")
}

// IsAnonymousVariable reports whether s is the variable that matches
// anything and binds nothing.
func (m *Matcher) IsAnonymousVariable(s string) bool {
	return s == "?"
}

// Match attempts to match the fact against the pattern, extending a
// copy of the given Bindings.  The given Bindings are not modified.
func (m *Matcher) Match(pattern, fact core.Value, bs Bindings) (Bindings, bool, error) {
	acc := bs.Copy()
	ok, err := m.match(pattern, fact, acc)
	if err != nil || !ok {
		return nil, false, err
	}
	return acc, true, nil
}

func (m *Matcher) match(pattern, fact core.Value, bs Bindings) (bool, error) {
	switch vv := pattern.(type) {
	case core.Str:
		s := string(vv)
		if !m.IsVariable(s) {
			return pattern.Equal(fact), nil
		}
		if m.IsAnonymousVariable(s) {
			return true, nil
		}
		if m.Inequalities {
			if op, name, is := inequality(s); is {
				return m.inequal(op, name, s, fact, bs)
			}
		}
		if have, bound := bs[s]; bound {
			return have.Equal(fact), nil
		}
		bs[s] = fact
		return true, nil

	case core.Struct:
		f, is := fact.(core.Struct)
		if !is {
			return false, nil
		}
		for k, p := range vv {
			v, have := f[k]
			if !have {
				return false, nil
			}
			ok, err := m.match(p, v, bs)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil

	case core.Tuple:
		f, is := fact.(core.Tuple)
		if !is || len(f) != len(vv) {
			return false, nil
		}
		for i, p := range vv {
			ok, err := m.match(p, f[i], bs)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil

	case nil:
		return false, &core.TypeError{Value: pattern, Want: "pattern"}

	default:
		return pattern.Equal(fact), nil
	}
}

var operators = []string{"<=", ">=", "!=", "<", ">"}

// inequality parses a variable like "?<=n".
func inequality(s string) (op, name string, is bool) {
	rest := s[1:]
	for _, op := range operators {
		if strings.HasPrefix(rest, op) && len(op) < len(rest) {
			return op, "?" + rest[len(op):], true
		}
	}
	return "", "", false
}

func number(v core.Value) (float64, bool) {
	switch vv := v.(type) {
	case core.Int:
		return float64(vv), true
	case core.Float:
		return float64(vv), true
	}
	return 0, false
}

func (m *Matcher) inequal(op, name, variable string, fact core.Value, bs Bindings) (bool, error) {
	limit, have := bs[variable]
	if !have {
		return false, &core.UndeclaredVariable{Name: variable}
	}
	y, is := number(limit)
	if !is {
		return false, &core.TypeError{Value: limit, Want: "number"}
	}
	x, is := number(fact)
	if !is {
		return false, nil
	}
	var ok bool
	switch op {
	case "<":
		ok = x < y
	case ">":
		ok = x > y
	case "<=":
		ok = x <= y
	case ">=":
		ok = x >= y
	case "!=":
		ok = x != y
	}
	if !ok {
		return false, nil
	}
	if have, bound := bs[name]; bound {
		return have.Equal(fact), nil
	}
	bs[name] = fact
	return true, nil
}

// Match uses DefaultMatcher.
func Match(pattern, fact core.Value, bs Bindings) (Bindings, bool, error) {
	return DefaultMatcher.Match(pattern, fact, bs)
}

// Guard returns an Expr that holds when the value of the given
// variable matches the pattern.
func Guard(pattern core.Value, variable string) core.Expr {
	return core.FuncExpr(func(vs *core.Valuation) (core.Value, error) {
		v, have := vs.Get(variable)
		if !have {
			return nil, &core.UndeclaredVariable{Name: variable}
		}
		_, ok, err := Match(pattern, v, nil)
		if err != nil {
			return nil, err
		}
		return core.Bool(ok), nil
	})
}
