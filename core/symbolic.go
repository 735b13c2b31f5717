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

// SymbolicState is the State of a SymbolicProcess: a Location, the
// process's own Valuation, and the States of its children.  The
// shape of a SymbolicState mirrors the tree of processes.
type SymbolicState struct {
	loc      Location
	vars     *Valuation
	children []*SymbolicState
	hash     uint64
}

func newSymbolicState(loc Location, vars *Valuation, children []*SymbolicState) *SymbolicState {
	if vars == nil {
		vars = EmptyValuation
	}
	hs := make([]uint64, 0, 2+len(children))
	hs = append(hs, uint64(loc.id), vars.Hash())
	for _, c := range children {
		hs = append(hs, c.Hash())
	}
	return &SymbolicState{
		loc:      loc,
		vars:     vars,
		children: children,
		hash:     CombineOrdered(seedSymbolic, hs...),
	}
}

// Location returns the current Location.
func (s *SymbolicState) Location() Location {
	return s.loc
}

// Vars returns the process's own Valuation.
func (s *SymbolicState) Vars() *Valuation {
	return s.vars
}

// Children returns the children's States.
func (s *SymbolicState) Children() []*SymbolicState {
	acc := make([]*SymbolicState, len(s.children))
	copy(acc, s.children)
	return acc
}

// Equal compares location indexes rather than Graphs so that States
// from two instances of the same definition compare equal.
func (s *SymbolicState) Equal(o Canonical) bool {
	t, is := o.(*SymbolicState)
	if !is || s == nil || t == nil {
		return is && s == t
	}
	if s == t {
		return true
	}
	if s.hash != t.hash || s.loc.id != t.loc.id || len(s.children) != len(t.children) {
		return false
	}
	if !s.vars.Equal(t.vars) {
		return false
	}
	for i, c := range s.children {
		if !c.Equal(t.children[i]) {
			return false
		}
	}
	return true
}

func (s *SymbolicState) Hash() uint64 {
	return s.hash
}

// String renders the state like "start/{x:0}" followed by any
// children's States in parentheses.
func (s *SymbolicState) String() string {
	if s == nil {
		return "nil"
	}
	acc := s.loc.String() + "/" + s.vars.String()
	if 0 < len(s.children) {
		parts := make([]string, len(s.children))
		for i, c := range s.children {
			parts[i] = c.String()
		}
		acc += "(" + strings.Join(parts, ", ") + ")"
	}
	return acc
}

// SymbolicProcess is a Process whose behavior is a sealed Graph over
// local variables, plus child SymbolicProcesses that it owns.
//
// Scoping: a process evaluates guards and updates against its
// ancestors' variables overlaid with its own.  An assignment goes to
// the innermost process that declares the variable, so a child can
// read and write its ancestors' variables.  That sharing is the only
// way that a parent and its children synchronize.
//
// Nondeterminism: several edges can be enabled for the same
// Interaction.  Transition takes the first candidate in declaration
// order: the process's own edges (in the order they were added) and
// then each child (in order, recursively).  Successors returns every
// candidate's result.
type SymbolicProcess struct {
	name     string
	graph    *Graph
	initial  Location
	vars     *Valuation
	children []*SymbolicProcess
	owner    *SymbolicProcess
}

// NewSymbolicProcess makes a SymbolicProcess, which adopts the given
// children.
//
// The Graph must be fully sealed and must contain the initial
// Location.  A child can't have another parent.  Violations are
// reported as *OwnershipErrors.
func NewSymbolicProcess(name string, g *Graph, initial Location, vars *Valuation, children ...*SymbolicProcess) (*SymbolicProcess, error) {
	owned := func(problem string) error {
		return &OwnershipError{Process: name, Problem: problem}
	}
	if g == nil {
		return nil, owned("no graph")
	}
	if !g.Sealed() {
		return nil, owned(`graph "` + g.name + `" isn't sealed`)
	}
	if initial.g != g {
		return nil, owned("initial location belongs to another graph")
	}
	for i, c := range children {
		if c == nil {
			return nil, owned("child " + itoa(i) + " is nil")
		}
		if c.owner != nil {
			return nil, owned(`child "` + c.name + `" already belongs to "` + c.owner.name + `"`)
		}
		for _, d := range children[:i] {
			if c == d {
				return nil, owned(`child "` + c.name + `" adopted twice`)
			}
		}
	}
	if vars == nil {
		vars = EmptyValuation
	}

	p := &SymbolicProcess{
		name:     name,
		graph:    g,
		initial:  initial,
		vars:     vars,
		children: make([]*SymbolicProcess, len(children)),
	}
	copy(p.children, children)
	for _, c := range children {
		c.owner = p
	}
	g.frozen = true

	return p, nil
}

// Name returns the process's name.
func (p *SymbolicProcess) Name() string {
	return p.name
}

// Graph returns the process's (sealed) Graph.
func (p *SymbolicProcess) Graph() *Graph {
	return p.graph
}

// NumChildren returns the number of children.
func (p *SymbolicProcess) NumChildren() int {
	return len(p.children)
}

// Initial returns (initial location, initial valuation, each child's
// initial State).
func (p *SymbolicProcess) Initial() State {
	return p.initialState()
}

func (p *SymbolicProcess) initialState() *SymbolicState {
	cs := make([]*SymbolicState, len(p.children))
	for i, c := range p.children {
		cs[i] = c.initialState()
	}
	return newSymbolicState(p.initial, p.vars, cs)
}

// move is a candidate transition.  outer is the enclosing scope after
// the move.
type move struct {
	action Interaction
	to     *SymbolicState
	outer  *Valuation
}

// check verifies that s has the shape of a State of this process.
func (p *SymbolicProcess) check(s *SymbolicState) error {
	if s == nil || s.loc.id < 0 || p.graph.Len() <= s.loc.id || len(s.children) != len(p.children) {
		return &UnknownState{Process: p.name, State: s}
	}
	for i, c := range p.children {
		if err := c.check(s.children[i]); err != nil {
			return err
		}
	}
	return nil
}

// moves finds the candidate moves from s in declaration order.  If i
// isn't nil, only moves labeled i are considered.  If first is true,
// moves stops after the first candidate.
func (p *SymbolicProcess) moves(s *SymbolicState, outer *Valuation, i Interaction, first bool) ([]move, error) {
	var (
		acc   []move
		scope = outer.Overlay(s.vars)
		loc   = Location{g: p.graph, id: s.loc.id}
	)

	for _, e := range p.graph.edges(s.loc.id) {
		if i != nil && !e.action.Equal(i) {
			continue
		}
		after, ok, err := e.Fire(scope)
		if err != nil {
			if uv, is := err.(*UndeclaredVariable); is && uv.Process == "" {
				uv.Process = p.name
			}
			return nil, err
		}
		if !ok {
			continue
		}
		inner, out := after.Split(s.vars, outer)
		acc = append(acc, move{
			action: e.action,
			to:     newSymbolicState(e.dest, inner, s.children),
			outer:  out,
		})
		if first {
			return acc, nil
		}
	}

	for ci, c := range p.children {
		cms, err := c.moves(s.children[ci], scope, i, first)
		if err != nil {
			return nil, err
		}
		for _, cm := range cms {
			inner, out := cm.outer.Split(s.vars, outer)
			cs := make([]*SymbolicState, len(s.children))
			copy(cs, s.children)
			cs[ci] = cm.to
			acc = append(acc, move{
				action: cm.action,
				to:     newSymbolicState(loc, inner, cs),
				outer:  out,
			})
			if first {
				return acc, nil
			}
		}
	}

	return acc, nil
}

// top checks that the process may be driven directly and that s is
// one of its States.
func (p *SymbolicProcess) top(s State) (*SymbolicState, error) {
	if p.owner != nil {
		return nil, &OwnershipError{
			Process: p.name,
			Problem: `owned by "` + p.owner.name + `"; drive the parent instead`,
		}
	}
	ss, is := s.(*SymbolicState)
	if !is {
		return nil, &UnknownState{Process: p.name, State: s}
	}
	if err := p.check(ss); err != nil {
		return nil, err
	}
	return ss, nil
}

// Enabled returns the actions of enabled edges, the process's own
// first and then its children's.
func (p *SymbolicProcess) Enabled(s State) ([]Interaction, error) {
	ss, err := p.top(s)
	if err != nil {
		return nil, err
	}
	ms, err := p.moves(ss, EmptyValuation, nil, false)
	if err != nil {
		return nil, err
	}
	acc := make([]Interaction, len(ms))
	for i, m := range ms {
		acc[i] = m.action
	}
	return dedupInteractions(acc), nil
}

// Transition takes the first enabled candidate for i.  Edges of this
// process never change the children's States.  A nil Interaction is
// never enabled.
func (p *SymbolicProcess) Transition(s State, i Interaction) (State, error) {
	ss, err := p.top(s)
	if err != nil {
		return nil, err
	}
	if i == nil {
		return nil, &DisabledInteraction{State: s}
	}
	ms, err := p.moves(ss, EmptyValuation, i, true)
	if err != nil {
		return nil, err
	}
	if len(ms) == 0 {
		return nil, &DisabledInteraction{State: s, Interaction: i}
	}
	return ms[0].to, nil
}

// Successors returns every State that i could lead to.
func (p *SymbolicProcess) Successors(s State, i Interaction) ([]State, error) {
	ss, err := p.top(s)
	if err != nil {
		return nil, err
	}
	if i == nil {
		return nil, &DisabledInteraction{State: s}
	}
	ms, err := p.moves(ss, EmptyValuation, i, false)
	if err != nil {
		return nil, err
	}
	if len(ms) == 0 {
		return nil, &DisabledInteraction{State: s, Interaction: i}
	}
	acc := make([]State, len(ms))
	for j, m := range ms {
		acc[j] = m.to
	}
	return dedupStates(acc), nil
}

// Move is an Interaction and a State it leads to.
type Move struct {
	Interaction Interaction
	To          State
}

// Moves returns every (Interaction, State) pair available from s.
func (p *SymbolicProcess) Moves(s State) ([]Move, error) {
	ss, err := p.top(s)
	if err != nil {
		return nil, err
	}
	ms, err := p.moves(ss, EmptyValuation, nil, false)
	if err != nil {
		return nil, err
	}
	acc := make([]Move, len(ms))
	for i, m := range ms {
		acc[i] = Move{Interaction: m.action, To: m.to}
	}
	return acc, nil
}

// Location returns the process's current Location in s.
func (p *SymbolicProcess) Location(s State) (Location, error) {
	ss, err := p.top(s)
	if err != nil {
		return Location{}, err
	}
	return Location{g: p.graph, id: ss.loc.id}, nil
}

// Describe renders the Location names in s down the tree of
// processes, like "parent:p(child:c)".
func (p *SymbolicProcess) Describe(s State) (string, error) {
	ss, err := p.top(s)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	p.describe(&b, ss)
	return b.String(), nil
}

func (p *SymbolicProcess) describe(b *strings.Builder, s *SymbolicState) {
	b.WriteString(p.name)
	b.WriteByte(':')
	b.WriteString(Location{g: p.graph, id: s.loc.id}.Name())
	if len(p.children) == 0 {
		return
	}
	b.WriteByte('(')
	for i, c := range p.children {
		if 0 < i {
			b.WriteString(", ")
		}
		c.describe(b, s.children[i])
	}
	b.WriteByte(')')
}
