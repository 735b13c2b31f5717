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
	"strings"
	"testing"
)

func counters(t *testing.T) *Interleaving {
	ctx := context.Background()
	a, err := CounterSpec("a", "x").Compile(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := CounterSpec("b", "y").Compile(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	return Interleave(a, b)
}

func TestInterleaving(t *testing.T) {
	p := counters(t)
	s := p.Initial()

	is, err := p.Enabled(s)
	if err != nil {
		t.Fatal(err)
	}
	if len(is) != 1 || !is[0].Equal(A("tick")) {
		t.Fatalf("enabled %v", is)
	}

	next := mustTransition(t, p, s, A("tick"))
	if next.String() != "(loc/{x:1}, loc/{y:0})" {
		t.Fatalf("lowest index didn't move: %s", next)
	}

	ss, err := p.Successors(s, A("tick"))
	if err != nil {
		t.Fatal(err)
	}
	if len(ss) != 2 {
		t.Fatalf("successors %v", ss)
	}
	// Exactly one component changes per step.
	for _, x := range ss {
		changed := 0
		for i := 0; i < 2; i++ {
			if !x.(*TupleState).At(i).Equal(s.(*TupleState).At(i)) {
				changed++
			}
		}
		if changed != 1 {
			t.Fatalf("%d components changed in %s", changed, x)
		}
	}
}

func TestInterleavingDistinctActions(t *testing.T) {
	p := Interleave(chain(t, "p", "a"), chain(t, "q", "b"))
	s := mustTransition(t, p, p.Initial(), A("b"))
	if s.String() != "(0/{}, 1/{})" {
		t.Fatalf("got %s", s)
	}
	s = mustTransition(t, p, s, A("a"))
	if s.String() != "(1/{}, 1/{})" {
		t.Fatalf("got %s", s)
	}
	if _, err := p.Transition(s, A("a")); !disabled(err) {
		t.Fatalf("a again: %v", err)
	}
}

func TestInterleavingUnknownState(t *testing.T) {
	p := counters(t)
	var us *UnknownState
	if _, err := p.Enabled(NewTupleState(p.Initial())); !errors.As(err, &us) {
		t.Fatalf("wrong arity: %v", err)
	}
	if _, err := p.Transition(EmptyValuation, A("tick")); !errors.As(err, &us) {
		t.Fatalf("not a tuple: %v", err)
	}
}

func TestSynchronization(t *testing.T) {
	p := chain(t, "p", "sync")
	q := chain(t, "q", "own", "sync")
	c := Synchronize([]Interaction{A("sync")}, p, q)

	s := c.Initial()
	is, err := c.Enabled(s)
	if err != nil {
		t.Fatal(err)
	}
	if len(is) != 1 || !is[0].Equal(A("own")) {
		t.Fatalf("enabled %v", is)
	}
	if _, err = c.Transition(s, A("sync")); !disabled(err) {
		t.Fatalf("moved without a partner: %v", err)
	}

	s = mustTransition(t, c, s, A("own"))
	if is, err = c.Enabled(s); err != nil {
		t.Fatal(err)
	}
	if len(is) != 1 || !is[0].Equal(A("sync")) {
		t.Fatalf("enabled %v", is)
	}

	s = mustTransition(t, c, s, A("sync"))
	if s.String() != "(1/{}, 2/{})" {
		t.Fatalf("didn't move together: %s", s)
	}

	ss, err := c.Successors(c.Initial(), A("own"))
	if err != nil {
		t.Fatal(err)
	}
	if len(ss) != 1 {
		t.Fatalf("successors %v", ss)
	}
}

func TestInterleavingEitherOrder(t *testing.T) {
	p := counters(t)
	want := "(loc/{x:1}, loc/{y:1})"

	firsts, err := p.Successors(p.Initial(), A("tick"))
	if err != nil {
		t.Fatal(err)
	}
	if len(firsts) != 2 {
		t.Fatalf("successors %v", firsts)
	}
	for _, s := range firsts {
		seconds, err := p.Successors(s, A("tick"))
		if err != nil {
			t.Fatal(err)
		}
		found := false
		for _, x := range seconds {
			if x.String() == want {
				found = true
			}
		}
		if !found {
			t.Fatalf("%s doesn't lead to %s: %v", s, want, seconds)
		}
	}
}

func TestNilInteraction(t *testing.T) {
	p, err := TurnstileSpec().Compile(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	c := Interleave(p)
	tests := []struct {
		name string
		f    func() error
	}{
		{"symbolic", func() error { _, err := p.Transition(p.Initial(), nil); return err }},
		{"symbolic successors", func() error { _, err := p.Successors(p.Initial(), nil); return err }},
		{"interleaving", func() error { _, err := c.Transition(c.Initial(), nil); return err }},
		{"interleaving successors", func() error { _, err := c.Successors(c.Initial(), nil); return err }},
		{"synchronization", func() error {
			s := Synchronize([]Interaction{A("coin")}, p)
			_, err := s.Transition(s.Initial(), nil)
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.f()
			if !disabled(err) {
				t.Fatalf("nil interaction moved: %v", err)
			}
			if msg := err.Error(); !strings.Contains(msg, `"nil"`) {
				t.Fatal(msg)
			}
		})
	}

	walked, err := Walk(context.Background(), p, p.Initial(), []Interaction{nil}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if walked.StoppedBecause != Disabled || len(walked.Strides) != 0 {
		t.Fatalf("walked %#v", walked)
	}
}

func TestSynchronizationEmpty(t *testing.T) {
	c := Synchronize([]Interaction{A("go")})
	s := c.Initial()
	is, err := c.Enabled(s)
	if err != nil {
		t.Fatal(err)
	}
	if len(is) != 0 {
		t.Fatalf("enabled %v", is)
	}
	if _, err = c.Transition(s, A("go")); !disabled(err) {
		t.Fatalf("empty composition moved: %v", err)
	}
	if _, err = c.Successors(s, A("go")); !disabled(err) {
		t.Fatalf("empty composition has successors: %v", err)
	}
}
