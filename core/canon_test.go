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
	"errors"
	"math"
	"sync"
	"testing"
)

func TestValueEqualHash(t *testing.T) {
	tests := []struct {
		description string
		a, b        Value
		equal       bool
	}{
		{"ints", Int(3), Int(3), true},
		{"different ints", Int(3), Int(4), false},
		{"int is not float", Int(1), Float(1), false},
		{"NaN", Float(math.NaN()), Float(math.NaN()), true},
		{"strings", Str("a"), Str("a"), true},
		{"string is not bool", Str("true"), Bool(true), false},
		{"tuples", Tuple{Int(1), Str("a")}, Tuple{Int(1), Str("a")}, true},
		{"tuple order", Tuple{Int(1), Int(2)}, Tuple{Int(2), Int(1)}, false},
		{"tuple length", Tuple{Int(1)}, Tuple{Int(1), Int(1)}, false},
		{"struct order", Struct{"a": Int(1), "b": Int(2)}, Struct{"b": Int(2), "a": Int(1)}, true},
		{"struct fields", Struct{"a": Int(1)}, Struct{"b": Int(1)}, false},
		{"nested", Tuple{Struct{"a": Tuple{}}}, Tuple{Struct{"a": Tuple{}}}, true},
	}
	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			if got := tc.a.Equal(tc.b); got != tc.equal {
				t.Fatalf("%s.Equal(%s) = %v", tc.a, tc.b, got)
			}
			if got := tc.b.Equal(tc.a); got != tc.equal {
				t.Fatalf("not symmetric")
			}
			if !tc.a.Equal(tc.a) {
				t.Fatalf("not reflexive")
			}
			if tc.equal && tc.a.Hash() != tc.b.Hash() {
				t.Fatalf("equal values with different hashes")
			}
		})
	}
}

func TestValueOf(t *testing.T) {
	type point struct {
		X int `json:"x"`
		Y int `json:"y"`
	}

	tests := []struct {
		description string
		x           interface{}
		want        Value
		err         bool
	}{
		{"int", 3, Int(3), false},
		{"integral float", 2.0, Int(2), false},
		{"float", 2.5, Float(2.5), false},
		{"string", "hi", Str("hi"), false},
		{"bool", true, Bool(true), false},
		{"slice", []interface{}{1, "a"}, Tuple{Int(1), Str("a")}, false},
		{"typed slice", []string{"a", "b"}, Tuple{Str("a"), Str("b")}, false},
		{"map", map[string]interface{}{"a": 1}, Struct{"a": Int(1)}, false},
		{"yaml map", map[interface{}]interface{}{"a": 1}, Struct{"a": Int(1)}, false},
		{"yaml map with bad key", map[interface{}]interface{}{1: 1}, nil, true},
		{"struct", point{1, 2}, Struct{"x": Int(1), "y": Int(2)}, false},
		{"nil", nil, nil, true},
		{"func", func() {}, nil, true},
		{"huge", uint64(math.MaxUint64), nil, true},
	}
	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			v, err := ValueOf(tc.x)
			if tc.err {
				var te *TypeError
				if !errors.As(err, &te) {
					t.Fatalf("wanted a TypeError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !v.Equal(tc.want) {
				t.Fatalf("got %s; wanted %s", v, tc.want)
			}
		})
	}
}

func TestExportRoundTrip(t *testing.T) {
	v := Struct{
		"n":  Int(1),
		"f":  Float(1.5),
		"ok": Bool(false),
		"t":  Tuple{Str("a"), Int(2)},
	}
	w, err := ValueOf(Export(v))
	if err != nil {
		t.Fatal(err)
	}
	if !v.Equal(w) {
		t.Fatalf("%s became %s", v, w)
	}
}

func TestCombine(t *testing.T) {
	a, b := HashString("a"), HashString("b")
	if CombineOrdered(0, a, b) == CombineOrdered(0, b, a) {
		t.Fatalf("ordered combination ignored order")
	}
	if CombineUnordered(0, a, b) != CombineUnordered(0, b, a) {
		t.Fatalf("unordered combination depends on order")
	}
	if CombineOrdered(1, a) == CombineOrdered(2, a) {
		t.Fatalf("seed ignored")
	}
}

func TestSet(t *testing.T) {
	var s Set
	if !s.Add(Int(1)) {
		t.Fatalf("didn't add")
	}
	if s.Add(Int(1)) {
		t.Fatalf("added twice")
	}
	s.Add(Str("1"))
	s.Add(Struct{"a": Int(1)})
	if !s.Has(Struct{"a": Int(1)}) {
		t.Fatalf("lost the struct")
	}
	if s.Has(Float(1)) {
		t.Fatalf("found a float")
	}
	if n := s.Len(); n != 3 {
		t.Fatalf("Len %d", n)
	}
	if first := s.Items()[0]; !first.Equal(Int(1)) {
		t.Fatalf("order lost: %v", first)
	}
}

func TestInterner(t *testing.T) {
	in := NewInterner()

	var wg sync.WaitGroup
	got := make([]Canonical, 8)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = in.Intern(Tuple{Int(1), Str("x")})
		}(i)
	}
	wg.Wait()

	if n := in.Len(); n != 1 {
		t.Fatalf("Len %d", n)
	}
	for _, x := range got {
		// Same representative, so the same backing array.
		if &x.(Tuple)[0] != &got[0].(Tuple)[0] {
			t.Fatalf("different representatives")
		}
	}

	s := NewTupleState(EmptyValuation)
	if in.InternState(NewTupleState(EmptyValuation)) != in.InternState(s) {
		t.Fatalf("states not interned")
	}
}

func TestTypeRegistry(t *testing.T) {
	r := NewTypeRegistry()

	a := r.TypeOf(Struct{"x": Int(1), "p": Tuple{Str("a"), Bool(true)}})
	b := r.TypeOf(Struct{"p": Tuple{Str("b"), Bool(false)}, "x": Int(2)})
	if a != b {
		t.Fatalf("%s and %s weren't shared", a, b)
	}
	if a.Kind != KindStruct || len(a.Fields) != 2 || a.Fields[0] != "p" {
		t.Fatalf("bad struct type %#v", a)
	}
	if want := "{p:(string,bool),x:int}"; a.String() != want {
		t.Fatalf("got %s; wanted %s", a, want)
	}
	if r.TypeOf(Int(1)) != r.Basic(KindInt) {
		t.Fatalf("basic types not shared")
	}
	if r.TypeOf(Tuple{Int(1)}) == r.TypeOf(Tuple{Float(1.5)}) {
		t.Fatalf("different tuples shared a type")
	}
}

func TestKindAccepts(t *testing.T) {
	if !KindInt.Accepts(KindFloat) || !KindFloat.Accepts(KindInt) {
		t.Fatalf("numbers should mix")
	}
	if KindInt.Accepts(KindStr) {
		t.Fatalf("int accepted a string")
	}
}
