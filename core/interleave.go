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

import "strings"

// TupleState is the State of a composition: one State per component,
// in order.
type TupleState struct {
	elems []State
	hash  uint64
}

// NewTupleState makes a TupleState.  The slice isn't retained.
func NewTupleState(ss ...State) *TupleState {
	elems := make([]State, len(ss))
	copy(elems, ss)
	return newTupleState(elems)
}

func newTupleState(elems []State) *TupleState {
	hs := make([]uint64, len(elems))
	for i, s := range elems {
		hs[i] = s.Hash()
	}
	return &TupleState{
		elems: elems,
		hash:  CombineOrdered(seedTupleState, hs...),
	}
}

// Len returns the number of components.
func (t *TupleState) Len() int {
	return len(t.elems)
}

// At returns the i'th component's State.
func (t *TupleState) At(i int) State {
	return t.elems[i]
}

// States returns a copy of the components' States.
func (t *TupleState) States() []State {
	acc := make([]State, len(t.elems))
	copy(acc, t.elems)
	return acc
}

// replace returns a TupleState with the i'th State replaced.  The
// other components are shared, not copied, since States are
// immutable.
func (t *TupleState) replace(i int, s State) *TupleState {
	elems := make([]State, len(t.elems))
	copy(elems, t.elems)
	elems[i] = s
	return newTupleState(elems)
}

func (t *TupleState) Equal(o Canonical) bool {
	u, is := o.(*TupleState)
	if !is || t == nil || u == nil {
		return is && t == u
	}
	if t.hash != u.hash || len(t.elems) != len(u.elems) {
		return false
	}
	for i, s := range t.elems {
		if !s.Equal(u.elems[i]) {
			return false
		}
	}
	return true
}

func (t *TupleState) Hash() uint64 {
	return t.hash
}

func (t *TupleState) String() string {
	if t == nil {
		return "nil"
	}
	parts := make([]string, len(t.elems))
	for i, s := range t.elems {
		parts[i] = s.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Interleaving composes independent Processes.  Each step of the
// composition is exactly one step of exactly one component; the
// other components don't change.
//
// When more than one component has an Interaction enabled,
// Transition moves the component with the lowest index.  Successors
// reports the alternatives.
type Interleaving struct {
	ps []Process
}

// Interleave composes the given Processes.
func Interleave(ps ...Process) *Interleaving {
	acc := make([]Process, len(ps))
	copy(acc, ps)
	return &Interleaving{ps: acc}
}

// Len returns the number of components.
func (c *Interleaving) Len() int {
	return len(c.ps)
}

func (c *Interleaving) tuple(s State) (*TupleState, error) {
	t, is := s.(*TupleState)
	if !is || t == nil || t.Len() != len(c.ps) {
		return nil, &UnknownState{Process: "interleaving", State: s}
	}
	return t, nil
}

// Initial returns the tuple of the components' initial States.
func (c *Interleaving) Initial() State {
	elems := make([]State, len(c.ps))
	for i, p := range c.ps {
		elems[i] = p.Initial()
	}
	return newTupleState(elems)
}

// Enabled returns the union of the components' enabled Interactions.
func (c *Interleaving) Enabled(s State) ([]Interaction, error) {
	t, err := c.tuple(s)
	if err != nil {
		return nil, err
	}
	var acc []Interaction
	for i, p := range c.ps {
		is, err := p.Enabled(t.At(i))
		if err != nil {
			return nil, err
		}
		acc = append(acc, is...)
	}
	return dedupInteractions(acc), nil
}

// Transition moves the first component that has i enabled.
func (c *Interleaving) Transition(s State, i Interaction) (State, error) {
	t, err := c.tuple(s)
	if err != nil {
		return nil, err
	}
	if i == nil {
		return nil, &DisabledInteraction{State: s}
	}
	for j, p := range c.ps {
		enabled, err := IsEnabled(p, t.At(j), i)
		if err != nil {
			return nil, err
		}
		if !enabled {
			continue
		}
		next, err := p.Transition(t.At(j), i)
		if err != nil {
			return nil, err
		}
		return t.replace(j, next), nil
	}
	return nil, &DisabledInteraction{State: s, Interaction: i}
}

// Successors returns the States reached by moving any one component
// that has i enabled.
func (c *Interleaving) Successors(s State, i Interaction) ([]State, error) {
	t, err := c.tuple(s)
	if err != nil {
		return nil, err
	}
	if i == nil {
		return nil, &DisabledInteraction{State: s}
	}
	var acc []State
	for j, p := range c.ps {
		enabled, err := IsEnabled(p, t.At(j), i)
		if err != nil {
			return nil, err
		}
		if !enabled {
			continue
		}
		nexts, err := Successors(p, t.At(j), i)
		if err != nil {
			return nil, err
		}
		for _, next := range nexts {
			acc = append(acc, t.replace(j, next))
		}
	}
	if len(acc) == 0 {
		return nil, &DisabledInteraction{State: s, Interaction: i}
	}
	return dedupStates(acc), nil
}
