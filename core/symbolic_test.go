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
	"context"
	"errors"
	"strconv"
	"testing"
)

func owned(err error) bool {
	var oe *OwnershipError
	return errors.As(err, &oe)
}

func disabled(err error) bool {
	var di *DisabledInteraction
	return errors.As(err, &di)
}

// chain makes a process whose locations "0", "1", ... are connected
// in a line by edges labeled with the given actions.
func chain(t *testing.T, name string, actions ...string) *SymbolicProcess {
	g := NewGraph(name)
	locs := make([]Location, len(actions)+1)
	for i := range locs {
		locs[i] = mustLocation(t, g, strconv.Itoa(i))
	}
	for i, a := range actions {
		if err := locs[i].AddEdge(NewEdge(A(a), nil, Update{}, locs[i+1])); err != nil {
			t.Fatal(err)
		}
	}
	g.SealAll()
	p, err := NewSymbolicProcess(name, g, locs[0], nil)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func mustTransition(t *testing.T, p Process, s State, i Interaction) State {
	next, err := p.Transition(s, i)
	if err != nil {
		t.Fatal(err)
	}
	return next
}

func TestTransitionIsPure(t *testing.T) {
	ctx := context.Background()
	p, err := CounterSpec("a", "x").Compile(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	q, err := CounterSpec("a", "x").Compile(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}

	s0 := p.Initial()
	s1 := mustTransition(t, p, s0, A("tick"))
	again := mustTransition(t, p, s0, A("tick"))
	if !s1.Equal(again) || s1.Hash() != again.Hash() {
		t.Fatalf("%s != %s", s1, again)
	}
	if s0.String() != "loc/{x:0}" {
		t.Fatalf("Transition changed its input: %s", s0)
	}

	// Another instance of the same definition agrees.
	if !q.Initial().Equal(s0) {
		t.Fatalf("initial states differ")
	}
	if other := mustTransition(t, q, s0, A("tick")); !other.Equal(s1) {
		t.Fatalf("%s != %s", other, s1)
	}
}

func TestDisabledInteraction(t *testing.T) {
	g := NewGraph("g")
	a := mustLocation(t, g, "a")
	b := mustLocation(t, g, "b")
	if err := a.AddEdge(NewEdge(A("go"), equals("x", 1), Update{}, b)); err != nil {
		t.Fatal(err)
	}
	g.SealAll()
	p, err := NewSymbolicProcess("p", g, a, vals(map[string]interface{}{"x": 0}))
	if err != nil {
		t.Fatal(err)
	}

	is, err := p.Enabled(p.Initial())
	if err != nil {
		t.Fatal(err)
	}
	if len(is) != 0 {
		t.Fatalf("enabled: %v", is)
	}
	if _, err = p.Transition(p.Initial(), A("go")); !disabled(err) {
		t.Fatalf("guard ignored: %v", err)
	}
	if _, err = p.Transition(p.Initial(), A("nope")); !disabled(err) {
		t.Fatalf("unknown action: %v", err)
	}
	if _, err = p.Successors(p.Initial(), A("go")); !disabled(err) {
		t.Fatalf("Successors: %v", err)
	}
}

func TestNondeterminism(t *testing.T) {
	g := NewGraph("g")
	a := mustLocation(t, g, "a")
	b := mustLocation(t, g, "b")
	c := mustLocation(t, g, "c")
	for _, dest := range []Location{b, c} {
		if err := a.AddEdge(NewEdge(A("go"), nil, Update{}, dest)); err != nil {
			t.Fatal(err)
		}
	}
	g.SealAll()
	p, err := NewSymbolicProcess("p", g, a, nil)
	if err != nil {
		t.Fatal(err)
	}

	next := mustTransition(t, p, p.Initial(), A("go"))
	if loc := next.(*SymbolicState).Location(); loc != b {
		t.Fatalf("took %s", loc)
	}

	ss, err := p.Successors(p.Initial(), A("go"))
	if err != nil {
		t.Fatal(err)
	}
	if len(ss) != 2 || ss[1].(*SymbolicState).Location() != c {
		t.Fatalf("successors %v", ss)
	}

	ms, err := p.Moves(p.Initial())
	if err != nil {
		t.Fatal(err)
	}
	if len(ms) != 2 {
		t.Fatalf("moves %v", ms)
	}

	is, err := p.Enabled(p.Initial())
	if err != nil {
		t.Fatal(err)
	}
	if len(is) != 1 {
		t.Fatalf("duplicate interactions: %v", is)
	}
}

func TestAtomicIsOpaque(t *testing.T) {
	g := NewGraph("g")
	a := mustLocation(t, g, "a")
	b := mustLocation(t, g, "b")
	steps := []Step{
		{Update: set("x", 1)},
		{Guard: equals("x", 1), Update: set("x", 2)},
		{Guard: equals("x", 2), Update: set("x", 3)},
	}
	if err := a.AddEdge(NewAtomicEdge(A("all"), steps, b)); err != nil {
		t.Fatal(err)
	}
	g.SealAll()
	p, err := NewSymbolicProcess("p", g, a, vals(map[string]interface{}{"x": 0}))
	if err != nil {
		t.Fatal(err)
	}

	ss, err := p.Successors(p.Initial(), A("all"))
	if err != nil {
		t.Fatal(err)
	}
	if len(ss) != 1 {
		t.Fatalf("intermediate states leaked: %v", ss)
	}
	if s := ss[0].String(); s != "b/{x:3}" {
		t.Fatalf("got %s", s)
	}
}

// family makes a parent with variable x and a child with variable y
// (and maybe its own x).  The child's "inc" edge increments x and y.
// The parent's "reset" edge sets x to 0 when x is 2.
func family(t *testing.T, childVars map[string]interface{}) *SymbolicProcess {
	cg := NewGraph("c")
	c := mustLocation(t, cg, "c")
	inc := MustUpdate(Assign("x", increment("x")), Assign("y", increment("y")))
	if err := c.AddEdge(NewEdge(A("inc"), nil, inc, c)); err != nil {
		t.Fatal(err)
	}
	cg.SealAll()
	child, err := NewSymbolicProcess("child", cg, c, vals(childVars))
	if err != nil {
		t.Fatal(err)
	}

	pg := NewGraph("p")
	l := mustLocation(t, pg, "p")
	if err := l.AddEdge(NewEdge(A("reset"), equals("x", 2), set("x", 0), l)); err != nil {
		t.Fatal(err)
	}
	pg.SealAll()
	parent, err := NewSymbolicProcess("parent", pg, l, vals(map[string]interface{}{"x": 0}), child)
	if err != nil {
		t.Fatal(err)
	}
	return parent
}

func TestChildScoping(t *testing.T) {
	p := family(t, map[string]interface{}{"y": 0})

	s := p.Initial()
	if s.String() != "p/{x:0}(c/{y:0})" {
		t.Fatalf("initial %s", s)
	}

	s = mustTransition(t, p, s, A("inc"))
	if s.String() != "p/{x:1}(c/{y:1})" {
		t.Fatalf("after inc %s", s)
	}
	s = mustTransition(t, p, s, A("inc"))

	is, err := p.Enabled(s)
	if err != nil {
		t.Fatal(err)
	}
	if len(is) != 2 || !is[0].Equal(A("reset")) || !is[1].Equal(A("inc")) {
		t.Fatalf("enabled %v", is)
	}

	s = mustTransition(t, p, s, A("reset"))
	if s.String() != "p/{x:0}(c/{y:2})" {
		t.Fatalf("after reset %s", s)
	}
}

func TestDescribe(t *testing.T) {
	p := family(t, map[string]interface{}{"y": 0})
	s := mustTransition(t, p, p.Initial(), A("inc"))

	loc, err := p.Location(s)
	if err != nil {
		t.Fatal(err)
	}
	if loc.Name() != "p" {
		t.Fatalf("location %s", loc.Name())
	}
	d, err := p.Describe(s)
	if err != nil {
		t.Fatal(err)
	}
	if d != "parent:p(child:c)" {
		t.Fatalf("described as %s", d)
	}

	if _, err = p.Describe(EmptyValuation); err == nil {
		t.Fatal("described a Valuation")
	}
}

func TestChildShadowing(t *testing.T) {
	p := family(t, map[string]interface{}{"x": 100, "y": 0})
	s := mustTransition(t, p, p.Initial(), A("inc"))
	if s.String() != "p/{x:0}(c/{x:101,y:1})" {
		t.Fatalf("got %s", s)
	}
}

func TestUndeclaredInChild(t *testing.T) {
	p := family(t, map[string]interface{}{})
	_, err := p.Transition(p.Initial(), A("inc"))
	var uv *UndeclaredVariable
	if !errors.As(err, &uv) {
		t.Fatalf("wanted an UndeclaredVariable, got %v", err)
	}
	if uv.Name != "y" || uv.Process != "child" {
		t.Fatalf("got %#v", uv)
	}
}

func TestOwnership(t *testing.T) {
	child := chain(t, "child", "go")

	g := NewGraph("parent")
	l := mustLocation(t, g, "here")
	g.SealAll()
	parent, err := NewSymbolicProcess("parent", g, l, nil, child)
	if err != nil {
		t.Fatal(err)
	}
	if parent.NumChildren() != 1 {
		t.Fatalf("children: %d", parent.NumChildren())
	}

	if _, err = child.Enabled(child.Initial()); !owned(err) {
		t.Fatalf("drove an owned child: %v", err)
	}
	if _, err = NewSymbolicProcess("other", g, l, nil, child); !owned(err) {
		t.Fatalf("child adopted twice: %v", err)
	}

	orphan := chain(t, "orphan", "go")
	if _, err = NewSymbolicProcess("greedy", g, l, nil, orphan, orphan); !owned(err) {
		t.Fatalf("same child twice: %v", err)
	}

	unsealed := NewGraph("unsealed")
	u := mustLocation(t, unsealed, "u")
	if _, err = NewSymbolicProcess("u", unsealed, u, nil); !owned(err) {
		t.Fatalf("unsealed graph: %v", err)
	}
	if _, err = NewSymbolicProcess("x", g, u, nil); !owned(err) {
		t.Fatalf("foreign initial location: %v", err)
	}
	if _, err = NewSymbolicProcess("nil", nil, l, nil); !owned(err) {
		t.Fatalf("no graph: %v", err)
	}
}

func TestUnknownState(t *testing.T) {
	p := chain(t, "p", "go")
	var us *UnknownState
	if _, err := p.Enabled(NewTupleState()); !errors.As(err, &us) {
		t.Fatalf("accepted a tuple: %v", err)
	}
	if _, err := p.Enabled(family(t, map[string]interface{}{"y": 0}).Initial()); !errors.As(err, &us) {
		t.Fatalf("accepted a state with children: %v", err)
	}
}
