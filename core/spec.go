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
	"fmt"
	"sort"
)

var (
	// DefaultInterpreter names the interpreter for expression
	// sources when neither the Spec nor the edge names one.
	DefaultInterpreter = "goja"

	// DefaultInitial is the initial location of a Spec that
	// doesn't say.
	DefaultInitial = "start"
)

// Spec is a declarative definition of a SymbolicProcess (and its
// children) that can be read from YAML or JSON.
//
// A Spec gives the structure of a process.  It doesn't include any
// State.  Compile it to get a SymbolicProcess.
type Spec struct {
	// Name is the generic name for this process.
	Name string `json:"name,omitempty" yaml:",omitempty"`

	// Version is the version of this definition.  Something
	// like "1.2".
	Version string `json:"version,omitempty" yaml:",omitempty"`

	// Doc is general documentation about how this process works.
	Doc string `json:"doc,omitempty" yaml:",omitempty"`

	// Interpreter names the interpreter for this Spec's
	// expression sources.  Defaults to DefaultInterpreter.
	Interpreter string `json:"interpreter,omitempty" yaml:",omitempty"`

	// Vars declares the process's own variables and gives their
	// initial values.
	Vars map[string]interface{} `json:"vars,omitempty" yaml:",omitempty"`

	// Initial is the name of the initial location.  Defaults to
	// DefaultInitial.
	Initial string `json:"initial,omitempty" yaml:",omitempty"`

	// Locations is the structure of the process's graph.
	Locations map[string]*LocationSpec `json:"locations,omitempty" yaml:",omitempty"`

	// Children are the specs of the processes that this process
	// owns.
	Children []*Spec `json:"children,omitempty" yaml:",omitempty"`
}

// LocationSpec is a location and its outgoing edges.
type LocationSpec struct {
	Doc   string      `json:"doc,omitempty" yaml:",omitempty"`
	Edges []*EdgeSpec `json:"edges,omitempty" yaml:",omitempty"`
}

// StepSpec is a guard and an update.
//
// Sources are compiled by the interpreter.  A source that's neither a
// string nor a map is a literal (so "guard: true" in YAML needs no
// interpreter).  GuardExpr and UpdateExprs, if given, are used as is.
type StepSpec struct {
	Guard       interface{}            `json:"guard,omitempty" yaml:",omitempty"`
	GuardExpr   Expr                   `json:"-" yaml:"-"`
	Update      map[string]interface{} `json:"update,omitempty" yaml:",omitempty"`
	UpdateExprs map[string]Expr        `json:"-" yaml:"-"`
}

// EdgeSpec is a possible transition to Target.
type EdgeSpec struct {
	Doc string `json:"doc,omitempty" yaml:",omitempty"`

	// Action labels the edge.  Empty means Forward.
	Action string `json:"action,omitempty" yaml:",omitempty"`

	// Interpreter overrides the Spec's Interpreter.
	Interpreter string `json:"interpreter,omitempty" yaml:",omitempty"`

	StepSpec `yaml:",inline"`

	// Atomic lists further steps that happen after this edge's own
	// guard and update as part of the same transition.
	Atomic []*StepSpec `json:"atomic,omitempty" yaml:",omitempty"`

	// Target is the name of the destination location.
	Target string `json:"target" yaml:"target"`
}

func (s *Spec) initial() string {
	if s.Initial == "" {
		return DefaultInitial
	}
	return s.Initial
}

// LocationNames returns the location names in index order: the
// initial location first, then the others sorted.
func (s *Spec) LocationNames() []string {
	init := s.initial()
	names := make([]string, 0, len(s.Locations)+1)
	for name := range s.Locations {
		if name != init {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return append([]string{init}, names...)
}

// Copy makes a deep copy of the Spec's structure.  Sources and
// expressions are shared.
func (s *Spec) Copy() *Spec {
	vars := make(map[string]interface{}, len(s.Vars))
	for k, v := range s.Vars {
		vars[k] = v
	}
	locs := make(map[string]*LocationSpec, len(s.Locations))
	for name, l := range s.Locations {
		locs[name] = l.Copy()
	}
	children := make([]*Spec, len(s.Children))
	for i, c := range s.Children {
		children[i] = c.Copy()
	}
	return &Spec{
		Name:        s.Name,
		Version:     s.Version,
		Doc:         s.Doc,
		Interpreter: s.Interpreter,
		Vars:        vars,
		Initial:     s.Initial,
		Locations:   locs,
		Children:    children,
	}
}

// Copy makes a deep copy of the LocationSpec.
func (l *LocationSpec) Copy() *LocationSpec {
	if l == nil {
		return nil
	}
	es := make([]*EdgeSpec, len(l.Edges))
	for i, e := range l.Edges {
		es[i] = e.Copy()
	}
	return &LocationSpec{
		Doc:   l.Doc,
		Edges: es,
	}
}

// Copy makes a deep copy of the EdgeSpec.
func (e *EdgeSpec) Copy() *EdgeSpec {
	if e == nil {
		return nil
	}
	atomic := make([]*StepSpec, len(e.Atomic))
	for i, st := range e.Atomic {
		atomic[i] = st.Copy()
	}
	return &EdgeSpec{
		Doc:         e.Doc,
		Action:      e.Action,
		Interpreter: e.Interpreter,
		StepSpec:    *e.StepSpec.Copy(),
		Atomic:      atomic,
		Target:      e.Target,
	}
}

// Copy makes a copy of the StepSpec's maps.
func (st *StepSpec) Copy() *StepSpec {
	if st == nil {
		return nil
	}
	acc := &StepSpec{
		Guard:     st.Guard,
		GuardExpr: st.GuardExpr,
	}
	if st.Update != nil {
		acc.Update = make(map[string]interface{}, len(st.Update))
		for k, v := range st.Update {
			acc.Update[k] = v
		}
	}
	if st.UpdateExprs != nil {
		acc.UpdateExprs = make(map[string]Expr, len(st.UpdateExprs))
		for k, v := range st.UpdateExprs {
			acc.UpdateExprs[k] = v
		}
	}
	return acc
}

// Targets returns the variables that the step assigns.
func (st *StepSpec) Targets() []string {
	acc := make([]string, 0, len(st.Update)+len(st.UpdateExprs))
	for k := range st.Update {
		acc = append(acc, k)
	}
	for k := range st.UpdateExprs {
		if _, have := st.Update[k]; !have {
			acc = append(acc, k)
		}
	}
	sort.Strings(acc)
	return acc
}

// Steps returns the edge's own step followed by its atomic steps.
func (e *EdgeSpec) Steps() []*StepSpec {
	return append([]*StepSpec{&e.StepSpec}, e.Atomic...)
}

// Compile builds the SymbolicProcess (and its children) that the
// Spec describes, using the given interpreters (DefaultInterpreters
// if nil) for expression sources.
//
// Locations get indexes in LocationNames order, so two compilations
// of the same Spec produce processes with interchangeable States.
// Every update target must be declared by this Spec or by an
// enclosing one.
func (s *Spec) Compile(ctx context.Context, interpreters map[string]Interpreter) (*SymbolicProcess, error) {
	return s.compile(ctx, interpreters, nil, "")
}

func (s *Spec) compile(ctx context.Context, interpreters map[string]Interpreter, outer map[string]bool, interpreter string) (*SymbolicProcess, error) {
	if s.Interpreter != "" {
		interpreter = s.Interpreter
	}
	if interpreter == "" {
		interpreter = DefaultInterpreter
	}

	vars, err := ValuationOf(s.Vars)
	if err != nil {
		return nil, fmt.Errorf("%w: vars of spec %s", err, s.Name)
	}

	declared := make(map[string]bool, len(outer)+len(s.Vars))
	for name := range outer {
		declared[name] = true
	}
	for name := range s.Vars {
		declared[name] = true
	}

	children := make([]*SymbolicProcess, len(s.Children))
	for i, c := range s.Children {
		if c == nil {
			return nil, &OwnershipError{Process: s.Name, Problem: "child " + itoa(i) + " is nil"}
		}
		if children[i], err = c.compile(ctx, interpreters, declared, interpreter); err != nil {
			return nil, err
		}
	}

	g := NewGraph(s.Name)
	names := s.LocationNames()
	if _, have := s.Locations[names[0]]; !have && 0 < len(s.Locations) {
		return nil, &UnknownLocation{Spec: s.Name, Location: names[0]}
	}
	for _, name := range names {
		if _, err := g.NewLocation(name); err != nil {
			return nil, err
		}
	}

	for _, name := range names {
		from, _ := g.Lookup(name)
		l := s.Locations[name]
		if l == nil {
			continue
		}
		for _, es := range l.Edges {
			if es == nil {
				continue
			}
			e, err := s.compileEdge(ctx, interpreters, g, es, declared, interpreter)
			if err != nil {
				return nil, err
			}
			if err = g.AddEdge(from, e); err != nil {
				return nil, err
			}
		}
	}
	g.SealAll()

	initial, _ := g.Lookup(names[0])

	return NewSymbolicProcess(s.Name, g, initial, vars, children...)
}

func (s *Spec) compileEdge(ctx context.Context, interpreters map[string]Interpreter, g *Graph, es *EdgeSpec, declared map[string]bool, interpreter string) (*Edge, error) {
	dest, have := g.Lookup(es.Target)
	if !have {
		return nil, &UnknownLocation{Spec: s.Name, Location: es.Target}
	}
	if es.Interpreter != "" {
		interpreter = es.Interpreter
	}

	var action Interaction = Forward
	if es.Action != "" {
		action = A(es.Action)
	}

	specs := es.Steps()
	steps := make([]Step, len(specs))
	for i, ss := range specs {
		if ss == nil {
			continue
		}
		step, err := s.compileStep(ctx, interpreters, ss, declared, interpreter)
		if err != nil {
			return nil, err
		}
		steps[i] = step
	}

	if len(es.Atomic) == 0 {
		return NewEdge(action, steps[0].Guard, steps[0].Update, dest), nil
	}
	return NewAtomicEdge(action, steps, dest), nil
}

func (s *Spec) compileStep(ctx context.Context, interpreters map[string]Interpreter, ss *StepSpec, declared map[string]bool, interpreter string) (Step, error) {
	var (
		step Step
		err  error
	)

	step.Guard = ss.GuardExpr
	if step.Guard == nil && ss.Guard != nil {
		if step.Guard, err = compileSource(ctx, interpreters, interpreter, ss.Guard); err != nil {
			return step, err
		}
	}

	targets := ss.Targets()
	as := make([]Assignment, 0, len(targets))
	for _, target := range targets {
		if !declared[target] {
			return step, &UndeclaredVariable{Name: target, Process: s.Name}
		}
		e, have := ss.UpdateExprs[target]
		if !have {
			if e, err = compileSource(ctx, interpreters, interpreter, ss.Update[target]); err != nil {
				return step, err
			}
		}
		as = append(as, Assign(target, e))
	}

	if step.Update, err = NewUpdate(as...); err != nil {
		return step, err
	}
	return step, nil
}

// compileSource compiles strings and maps with the named interpreter
// and turns anything else into a constant.
func compileSource(ctx context.Context, interpreters map[string]Interpreter, interpreter string, src interface{}) (Expr, error) {
	switch src.(type) {
	case string, map[string]interface{}, map[interface{}]interface{}:
		es := &ExprSource{
			Interpreter: interpreter,
			Source:      src,
		}
		e, err := es.Compile(ctx, interpreters)
		if err != nil {
			return nil, fmt.Errorf("%w: interpreter %s", err, interpreter)
		}
		return e, nil
	default:
		v, err := ValueOf(src)
		if err != nil {
			return nil, err
		}
		return Const(v), nil
	}
}
