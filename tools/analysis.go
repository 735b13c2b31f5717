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

package tools

import (
	"sort"

	"github.com/Comcast/tandem/core"
)

// SpecAnalysis reports the structure of a Spec and some of the
// problems that Compile would find (and some that it wouldn't).
type SpecAnalysis struct {
	Name              string            `json:"name"`
	Errors            []string          `json:"errors,omitempty"`
	LocationCount     int               `json:"locationCount"`
	Edges             int               `json:"edges"`
	AtomicEdges       int               `json:"atomicEdges"`
	Guards            int               `json:"guards"`
	Assignments       int               `json:"assignments"`
	TerminalLocations []string          `json:"terminalLocations,omitempty"`
	Orphans           []string          `json:"orphans,omitempty"`
	Unreachable       []string          `json:"unreachable,omitempty"`
	MissingTargets    []string          `json:"missingTargets,omitempty"`
	Undeclared        []string          `json:"undeclared,omitempty"`
	Interpreters      []string          `json:"interpreters"`
	VarTypes          map[string]string `json:"varTypes,omitempty"`
	Children          []*SpecAnalysis   `json:"children,omitempty"`
}

// Analyze examines the Spec and its children without compiling
// anything.
func Analyze(s *core.Spec) (*SpecAnalysis, error) {
	return analyze(s, nil, ""), nil
}

func analyze(s *core.Spec, outer map[string]bool, interpreter string) *SpecAnalysis {
	if s.Interpreter != "" {
		interpreter = s.Interpreter
	}
	if interpreter == "" {
		interpreter = core.DefaultInterpreter
	}

	names := s.LocationNames()
	a := &SpecAnalysis{
		Name:          s.Name,
		LocationCount: len(names),
		VarTypes:      make(map[string]string, len(s.Vars)),
	}

	declared := make(map[string]bool, len(outer)+len(s.Vars))
	for name := range outer {
		declared[name] = true
	}
	for name, x := range s.Vars {
		declared[name] = true
		v, err := core.ValueOf(x)
		if err != nil {
			a.Errors = append(a.Errors, "var "+name+": "+err.Error())
			continue
		}
		a.VarTypes[name] = core.DefaultTypes.TypeOf(v).String()
	}

	var (
		targeted     = make(map[string]bool)
		missing      = make(map[string]bool)
		undeclared   = make(map[string]bool)
		interpreters = map[string]bool{}
		successors   = make(map[string][]string)
	)

	if _, have := s.Locations[names[0]]; !have && 0 < len(s.Locations) {
		a.Errors = append(a.Errors, "initial location "+names[0]+" isn't defined")
	}

	for _, name := range names {
		l := s.Locations[name]
		if l == nil || len(l.Edges) == 0 {
			a.TerminalLocations = append(a.TerminalLocations, name)
			continue
		}
		for _, e := range l.Edges {
			if e == nil {
				continue
			}
			a.Edges++
			if 0 < len(e.Atomic) {
				a.AtomicEdges++
			}
			targeted[e.Target] = true
			successors[name] = append(successors[name], e.Target)
			if _, have := s.Locations[e.Target]; !have && e.Target != names[0] {
				missing[e.Target] = true
			}

			ei := interpreter
			if e.Interpreter != "" {
				ei = e.Interpreter
			}
			for _, st := range e.Steps() {
				if st == nil {
					continue
				}
				if st.Guard != nil || st.GuardExpr != nil {
					a.Guards++
				}
				if _, is := st.Guard.(string); is {
					interpreters[ei] = true
				}
				for _, target := range st.Targets() {
					a.Assignments++
					if !declared[target] {
						undeclared[target] = true
					}
					if _, is := st.Update[target].(string); is {
						interpreters[ei] = true
					}
				}
			}
		}
	}

	var orphans []string
	for _, name := range names[1:] {
		if !targeted[name] {
			orphans = append(orphans, name)
		}
	}
	a.Orphans = orphans

	reached := map[string]bool{names[0]: true}
	pending := []string{names[0]}
	for 0 < len(pending) {
		name := pending[0]
		pending = pending[1:]
		for _, next := range successors[name] {
			if !reached[next] {
				reached[next] = true
				pending = append(pending, next)
			}
		}
	}
	for _, name := range names {
		if !reached[name] {
			a.Unreachable = append(a.Unreachable, name)
		}
	}

	a.MissingTargets = keys(missing)
	a.Undeclared = keys(undeclared)
	a.Interpreters = keys(interpreters, "none")

	for _, target := range a.MissingTargets {
		a.Errors = append(a.Errors, "missing target "+target)
	}
	for _, name := range a.Undeclared {
		a.Errors = append(a.Errors, "undeclared variable "+name)
	}

	for _, c := range s.Children {
		if c == nil {
			a.Errors = append(a.Errors, "nil child")
			continue
		}
		a.Children = append(a.Children, analyze(c, declared, interpreter))
	}

	return a
}

// AllInterpreters returns the interpreters named by the analysis and
// its children's analyses.
func (a *SpecAnalysis) AllInterpreters() []string {
	acc := make(map[string]bool)
	var walk func(*SpecAnalysis)
	walk = func(a *SpecAnalysis) {
		for _, name := range a.Interpreters {
			if name != "none" {
				acc[name] = true
			}
		}
		for _, c := range a.Children {
			walk(c)
		}
	}
	walk(a)
	return keys(acc)
}

// OK reports whether the analysis (and its children's) found no
// errors.
func (a *SpecAnalysis) OK() bool {
	if 0 < len(a.Errors) {
		return false
	}
	for _, c := range a.Children {
		if !c.OK() {
			return false
		}
	}
	return true
}

// keys returns the sorted keys of the map, or the default if the map
// is empty.
func keys(m map[string]bool, defaultValue ...string) []string {
	var list []string
	for key := range m {
		list = append(list, key)
	}
	sort.Strings(list)

	if len(list) == 0 && 0 < len(defaultValue) {
		return []string{defaultValue[0]}
	}

	return list
}
