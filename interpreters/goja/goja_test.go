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

package goja

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Comcast/tandem/core"
)

func eval(t *testing.T, i *Interpreter, src interface{}, vs *core.Valuation) (core.Value, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	e, err := i.Compile(ctx, src)
	if err != nil {
		t.Fatal(err)
	}
	return e.Eval(vs)
}

func vars(m map[string]interface{}) *core.Valuation {
	vs, err := core.ValuationOf(m)
	if err != nil {
		panic(err)
	}
	return vs
}

func TestExprSimple(t *testing.T) {
	v, err := eval(t, NewInterpreter(), "x + 1", vars(map[string]interface{}{"x": 41}))
	if err != nil {
		t.Fatal(err)
	}
	if !v.Equal(core.Int(42)) {
		t.Fatalf("got %s (%T)", v, v)
	}
}

func TestExprKinds(t *testing.T) {
	vs := vars(map[string]interface{}{
		"n":    3,
		"s":    "queso",
		"like": map[string]interface{}{"food": "tacos"},
		"xs":   []interface{}{1, 2},
	})
	tests := []struct {
		src  string
		want core.Value
	}{
		{"n / 2", core.Float(1.5)},
		{"n * 2", core.Int(6)},
		{"n < 4", core.Bool(true)},
		{"s.toUpperCase()", core.Str("QUESO")},
		{"like.food", core.Str("tacos")},
		{"xs.length", core.Int(2)},
		{"[n, s]", core.Tuple{core.Int(3), core.Str("queso")}},
		{"({a: n})", core.Struct{"a": core.Int(3)}},
		{"_.vars.n", core.Int(3)},
		{"_.esc('a b')", core.Str("a+b")},
	}
	i := NewInterpreter()
	for _, tc := range tests {
		t.Run(tc.src, func(t *testing.T) {
			v, err := eval(t, i, tc.src, vs)
			if err != nil {
				t.Fatal(err)
			}
			if !v.Equal(tc.want) {
				t.Fatalf("got %s (%T); wanted %s", v, v, tc.want)
			}
		})
	}
}

func TestExprBody(t *testing.T) {
	src := map[string]interface{}{
		"code": "var acc = 0; for (var i = 0; i < n; i++) { acc += i; } return acc;",
	}
	v, err := eval(t, NewInterpreter(), src, vars(map[string]interface{}{"n": 4}))
	if err != nil {
		t.Fatal(err)
	}
	if !v.Equal(core.Int(6)) {
		t.Fatalf("got %s", v)
	}
}

func TestExprMatch(t *testing.T) {
	vs := vars(map[string]interface{}{
		"msg": map[string]interface{}{"order": "tacos"},
	})
	v, err := eval(t, NewInterpreter(), `_.match({order:"?x"}, msg)["?x"]`, vs)
	if err != nil {
		t.Fatal(err)
	}
	if !v.Equal(core.Str("tacos")) {
		t.Fatalf("got %s", v)
	}

	v, err = eval(t, NewInterpreter(), `_.match({order:"chips"}, msg) === null`, vs)
	if err != nil {
		t.Fatal(err)
	}
	if !v.Equal(core.Bool(true)) {
		t.Fatalf("got %s", v)
	}
}

func TestExprUndeclared(t *testing.T) {
	_, err := eval(t, NewInterpreter(), "likes + tacos", core.EmptyValuation)
	var uv *core.UndeclaredVariable
	if !errors.As(err, &uv) {
		t.Fatalf("wanted an UndeclaredVariable, got %v", err)
	}
	if uv.Name != "likes" {
		t.Fatalf("name %s", uv.Name)
	}
}

func TestExprUndefined(t *testing.T) {
	_, err := eval(t, NewInterpreter(), "undefined", core.EmptyValuation)
	var te *core.TypeError
	if !errors.As(err, &te) {
		t.Fatalf("wanted a TypeError, got %v", err)
	}
}

func TestExprTimeout(t *testing.T) {
	i := NewInterpreter()
	i.Testing = true
	i.Timeout = 50 * time.Millisecond

	src := map[string]interface{}{
		"code": "for (;;) { sleep(10); }",
	}
	_, err := eval(t, i, src, core.EmptyValuation)
	if err != Interrupted {
		t.Fatalf("surprised by %v", err)
	}
}

func TestExprIsPure(t *testing.T) {
	src := map[string]interface{}{
		"code": "xs[0] = 99; return xs[0];",
	}
	vs := vars(map[string]interface{}{"xs": []interface{}{1, 2}})
	for n := 0; n < 2; n++ {
		v, err := eval(t, NewInterpreter(), src, vs)
		if err != nil {
			t.Fatal(err)
		}
		if !v.Equal(core.Int(99)) {
			t.Fatalf("got %s on try %d", v, n)
		}
	}
	if xs, _ := vs.Get("xs"); !xs.Equal(core.MustValue([]interface{}{1, 2})) {
		t.Fatalf("xs changed to %s", xs)
	}
}

func TestExprIsDeterministic(t *testing.T) {
	for _, src := range []string{"Math.random()", "Date.now()", "new Date().getFullYear()"} {
		t.Run(src, func(t *testing.T) {
			var first core.Value
			for n := 0; n < 3; n++ {
				v, err := eval(t, NewInterpreter(), src, core.EmptyValuation)
				if err != nil {
					t.Fatal(err)
				}
				if first == nil {
					first = v
				} else if !v.Equal(first) {
					t.Fatalf("got %s and then %s", first, v)
				}
			}
		})
	}

	v, err := eval(t, NewInterpreter(), "Date.now()", core.EmptyValuation)
	if err != nil {
		t.Fatal(err)
	}
	if !v.Equal(core.Int(0)) {
		t.Fatalf("Date.now() is %s", v)
	}
}

func TestCompileErrors(t *testing.T) {
	i := NewInterpreter()
	ctx := context.Background()
	for _, src := range []interface{}{
		"this won't compile (",
		42,
		map[string]interface{}{"requires": "file://nope.js"},
		map[string]interface{}{"code": 1},
		map[string]interface{}{"code": "return 1;", "requires": 1},
	} {
		if _, err := i.Compile(ctx, src); err == nil {
			t.Fatalf("compiled %#v", src)
		}
	}
}

func TestRequires(t *testing.T) {
	i := NewInterpreter()
	i.LibraryProvider = MakeMapLibraryProvider(map[string]string{
		"double": "function double(x) { return 2*x; }",
	})
	src := map[interface{}]interface{}{
		"requires": []interface{}{"double"},
		"code":     "return double(n);",
	}
	v, err := eval(t, i, src, vars(map[string]interface{}{"n": 21}))
	if err != nil {
		t.Fatal(err)
	}
	if !v.Equal(core.Int(42)) {
		t.Fatalf("got %s", v)
	}

	src["requires"] = "triple"
	if _, err := i.Compile(context.Background(), src); err == nil {
		t.Fatalf("found a library that doesn't exist")
	}
}

func TestFileLibraryProvider(t *testing.T) {
	provide := MakeFileLibraryProvider(".")
	ctx := context.Background()
	for _, name := range []string{"nope", "file://../../go.mod", "gopher://x"} {
		if _, err := provide(ctx, nil, name); err == nil {
			t.Fatalf("provided %s", name)
		}
	}
}

func TestSpecWithGoja(t *testing.T) {
	spec := &core.Spec{
		Name: "doubler",
		Vars: map[string]interface{}{"n": 1},
		Locations: map[string]*core.LocationSpec{
			"start": {
				Edges: []*core.EdgeSpec{
					{
						Action: "double",
						StepSpec: core.StepSpec{
							Guard:  "n < 8",
							Update: map[string]interface{}{"n": "n * 2"},
						},
						Target: "start",
					},
				},
			},
		},
	}
	p, err := spec.Compile(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	is := []core.Interaction{core.A("double"), core.A("double"), core.A("double"), core.A("double")}
	walked, err := core.Walk(context.Background(), p, p.Initial(), is, nil)
	if err != nil {
		t.Fatal(err)
	}
	if walked.StoppedBecause != core.Disabled || walked.To().String() != "start/{n:8}" {
		t.Fatalf("%s at %s", walked.StoppedBecause, walked.To())
	}
}
