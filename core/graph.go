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

// Graph is a control-flow graph: Locations connected by Edges.
//
// Locations live in the Graph (an arena) and are referred to by
// handle, so the cycles in the graph don't turn into cycles of
// owning references.
//
// Construction has two phases.  While a Location is unsealed, edges
// can be added to it.  After Seal, its edges never change.  Once
// every Location is sealed, the Graph can be handed to a
// SymbolicProcess, after which it's read-only and can be shared by
// any number of goroutines.  Construction itself is not safe for
// concurrent use.
type Graph struct {
	name   string
	locs   []*location
	index  map[string]int
	frozen bool
}

type location struct {
	name   string
	edges  []*Edge
	sealed bool
}

// Location is a handle for a node in a Graph.
//
// The zero Location belongs to no Graph.
type Location struct {
	g  *Graph
	id int
}

// NewGraph makes an empty Graph.
func NewGraph(name string) *Graph {
	return &Graph{
		name:  name,
		index: make(map[string]int),
	}
}

// Name returns the Graph's name.
func (g *Graph) Name() string {
	return g.name
}

// Len returns the number of Locations.
func (g *Graph) Len() int {
	return len(g.locs)
}

func (g *Graph) structural(loc, problem string) error {
	return &StructuralError{
		Graph:    g.name,
		Location: loc,
		Problem:  problem,
	}
}

// NewLocation adds an unsealed Location with no edges.
//
// Location names must be unique within a Graph.  A Graph that a
// SymbolicProcess has adopted can't get new Locations.
func (g *Graph) NewLocation(name string) (Location, error) {
	if g.frozen {
		return Location{}, g.structural(name, "graph is in use")
	}
	if _, have := g.index[name]; have {
		return Location{}, g.structural(name, "duplicate location")
	}
	id := len(g.locs)
	g.locs = append(g.locs, &location{name: name})
	g.index[name] = id
	return Location{g: g, id: id}, nil
}

// Lookup finds a Location by name.
func (g *Graph) Lookup(name string) (Location, bool) {
	id, have := g.index[name]
	if !have {
		return Location{}, false
	}
	return Location{g: g, id: id}, true
}

// At returns the Location with the given index.
func (g *Graph) At(i int) (Location, bool) {
	if i < 0 || len(g.locs) <= i {
		return Location{}, false
	}
	return Location{g: g, id: i}, true
}

// Locations returns every Location in index order.
func (g *Graph) Locations() []Location {
	acc := make([]Location, len(g.locs))
	for i := range g.locs {
		acc[i] = Location{g: g, id: i}
	}
	return acc
}

// AddEdge appends an edge to from's outgoing edges.
//
// Fails with a *StructuralError if from is sealed or if from or the
// edge's destination belongs to another Graph.
func (g *Graph) AddEdge(from Location, e *Edge) error {
	if from.g != g {
		return g.structural(from.Name(), "source location belongs to another graph")
	}
	if e == nil {
		return g.structural(from.Name(), "nil edge")
	}
	if e.dest.g != g {
		return g.structural(from.Name(), "destination belongs to another graph")
	}
	l := g.locs[from.id]
	if l.sealed {
		return g.structural(l.name, "location is sealed")
	}
	l.edges = append(l.edges, e)
	return nil
}

// Seal makes the Location's edges permanent.  Sealing twice is fine.
func (g *Graph) Seal(l Location) error {
	if l.g != g {
		return g.structural(l.Name(), "location belongs to another graph")
	}
	g.locs[l.id].sealed = true
	return nil
}

// SealAll seals every Location.
func (g *Graph) SealAll() {
	for _, l := range g.locs {
		l.sealed = true
	}
}

// Sealed reports whether every Location is sealed.
func (g *Graph) Sealed() bool {
	for _, l := range g.locs {
		if !l.sealed {
			return false
		}
	}
	return true
}

// edges returns the outgoing edges of the Location with index i.
func (g *Graph) edges(i int) []*Edge {
	return g.locs[i].edges
}

// Graph returns the Graph that owns the Location.
func (l Location) Graph() *Graph {
	return l.g
}

// Index returns the Location's position in its Graph.
func (l Location) Index() int {
	return l.id
}

// Valid reports whether the Location belongs to a Graph.
func (l Location) Valid() bool {
	return l.g != nil
}

// Name returns the Location's name.
func (l Location) Name() string {
	if l.g == nil {
		return ""
	}
	return l.g.locs[l.id].name
}

// AddEdge is shorthand for l.Graph().AddEdge(l, e).
func (l Location) AddEdge(e *Edge) error {
	if l.g == nil {
		return &StructuralError{Problem: "location belongs to no graph"}
	}
	return l.g.AddEdge(l, e)
}

// Seal is shorthand for l.Graph().Seal(l).
func (l Location) Seal() error {
	if l.g == nil {
		return &StructuralError{Problem: "location belongs to no graph"}
	}
	return l.g.Seal(l)
}

// Sealed reports whether the Location is sealed.
func (l Location) Sealed() bool {
	return l.g != nil && l.g.locs[l.id].sealed
}

// Edges returns a copy of the Location's outgoing edges.
func (l Location) Edges() []*Edge {
	if l.g == nil {
		return nil
	}
	es := l.g.locs[l.id].edges
	acc := make([]*Edge, len(es))
	copy(acc, es)
	return acc
}

// Terminal reports whether the Location has no outgoing edges.
func (l Location) Terminal() bool {
	return l.g == nil || len(l.g.locs[l.id].edges) == 0
}

func (l Location) String() string {
	if l.g == nil {
		return "#" + itoa(l.id)
	}
	return l.Name()
}

// Step is one guarded update.  An ordinary Edge has one Step.
type Step struct {
	Guard  Expr
	Update Update
}

// Edge is an immutable, labeled transition to a destination Location.
type Edge struct {
	action Interaction
	steps  []Step
	dest   Location
	atomic bool
}

// NewEdge makes an Edge.  A nil action means Forward, and a nil guard
// always holds.
func NewEdge(action Interaction, guard Expr, update Update, dest Location) *Edge {
	if action == nil {
		action = Forward
	}
	return &Edge{
		action: action,
		steps:  []Step{{Guard: guard, Update: update}},
		dest:   dest,
	}
}

// NewAtomicEdge makes an Edge that runs a sequence of Steps as one
// indivisible transition.
//
// Each Step's guard sees the Valuation left by the previous Step.
// The edge is enabled only if every guard holds along the way, and
// only the Valuation after the last Step is ever observed.
func NewAtomicEdge(action Interaction, steps []Step, dest Location) *Edge {
	e := NewEdge(action, nil, Update{}, dest)
	if 0 < len(steps) {
		e.steps = make([]Step, len(steps))
		copy(e.steps, steps)
	}
	e.atomic = true
	return e
}

// Action returns the Edge's label.
func (e *Edge) Action() Interaction {
	return e.action
}

// Guard returns the guard of the first Step.
func (e *Edge) Guard() Expr {
	return e.steps[0].Guard
}

// Update returns the update of the first Step.
func (e *Edge) Update() Update {
	return e.steps[0].Update
}

// Steps returns a copy of the Edge's Steps.
func (e *Edge) Steps() []Step {
	acc := make([]Step, len(e.steps))
	copy(acc, e.steps)
	return acc
}

// Atomic reports whether the Edge was made by NewAtomicEdge.
func (e *Edge) Atomic() bool {
	return e.atomic
}

// Destination returns the Location the Edge leads to.
func (e *Edge) Destination() Location {
	return e.dest
}

// Fire runs the Edge's Steps against vs.  If some guard doesn't hold,
// Fire returns false and no Valuation.
func (e *Edge) Fire(vs *Valuation) (*Valuation, bool, error) {
	for _, s := range e.steps {
		ok, err := Truth(s.Guard, vs)
		if err != nil || !ok {
			return nil, false, err
		}
		if vs, err = s.Update.Apply(vs); err != nil {
			return nil, false, err
		}
	}
	return vs, true, nil
}
