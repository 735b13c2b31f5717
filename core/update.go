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

package core

import (
	"sort"
	"strings"
)

// Assignment sets Target to the value of Expr.
type Assignment struct {
	Target string
	Expr   Expr
}

// Assign makes an Assignment.
func Assign(target string, e Expr) Assignment {
	return Assignment{Target: target, Expr: e}
}

// Update is a set of Assignments that happen simultaneously.
//
// The zero Update changes nothing.
type Update struct {
	as []Assignment // sorted by Target
}

// NewUpdate makes an Update.  Two Assignments to the same Target is a
// *StructuralError.
func NewUpdate(as ...Assignment) (Update, error) {
	acc := make([]Assignment, len(as))
	copy(acc, as)
	sort.SliceStable(acc, func(i, j int) bool {
		return acc[i].Target < acc[j].Target
	})
	for i := 1; i < len(acc); i++ {
		if acc[i].Target == acc[i-1].Target {
			return Update{}, &StructuralError{
				Problem: `variable "` + acc[i].Target + `" assigned twice in one update`,
			}
		}
	}
	for _, a := range acc {
		if a.Expr == nil {
			return Update{}, &StructuralError{
				Problem: `no expression for "` + a.Target + `"`,
			}
		}
	}
	return Update{as: acc}, nil
}

// MustUpdate is NewUpdate that panics.
func MustUpdate(as ...Assignment) Update {
	u, err := NewUpdate(as...)
	if err != nil {
		panic(err)
	}
	return u
}

// Len returns the number of Assignments.
func (u Update) Len() int {
	return len(u.as)
}

// Targets returns the assigned variables in order.
func (u Update) Targets() []string {
	acc := make([]string, len(u.as))
	for i, a := range u.as {
		acc[i] = a.Target
	}
	return acc
}

// Assignments returns a copy of the Assignments.
func (u Update) Assignments() []Assignment {
	acc := make([]Assignment, len(u.as))
	copy(acc, u.as)
	return acc
}

// Apply evaluates every right-hand side against vs and only then
// assigns the results, so {x := y, y := x} swaps.
//
// Every target must already be in vs, and a variable keeps the kind
// of its current value.
func (u Update) Apply(vs *Valuation) (*Valuation, error) {
	if len(u.as) == 0 {
		return vs, nil
	}
	changes := make(map[string]Value, len(u.as))
	for _, a := range u.as {
		old, have := vs.Get(a.Target)
		if !have {
			return nil, &UndeclaredVariable{Name: a.Target}
		}
		v, err := a.Expr.Eval(vs)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, &TypeError{Value: v, Want: "value"}
		}
		if want := KindOf(old); !want.Accepts(KindOf(v)) {
			return nil, &TypeError{Value: v, Want: want.String()}
		}
		changes[a.Target] = v
	}
	return vs.WithAll(changes), nil
}

func (u Update) String() string {
	parts := make([]string, len(u.as))
	for i, a := range u.as {
		parts[i] = a.Target + " := ..."
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
