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
	"reflect"
	"testing"

	"github.com/Comcast/tandem/core"
)

func TestAnalysis(t *testing.T) {
	a, err := Analyze(core.TurnstileSpec())
	if err != nil {
		t.Fatal(err)
	}
	if !a.OK() {
		t.Fatalf("errors: %v", a.Errors)
	}
	if a.LocationCount != 2 || a.Edges != 4 || a.Assignments != 2 {
		t.Fatalf("counts %#v", a)
	}
	if a.VarTypes["coins"] != "int" {
		t.Fatalf("types %v", a.VarTypes)
	}
	if !reflect.DeepEqual(a.Interpreters, []string{"none"}) {
		t.Fatalf("interpreters %v", a.Interpreters)
	}
}

func TestAnalysisProblems(t *testing.T) {
	spec := &core.Spec{
		Name: "broken",
		Vars: map[string]interface{}{"x": 0},
		Locations: map[string]*core.LocationSpec{
			"start": {
				Edges: []*core.EdgeSpec{
					{
						Action: "go",
						StepSpec: core.StepSpec{
							Guard:  "x < 1",
							Update: map[string]interface{}{"y": "1"},
						},
						Target: "nowhere",
					},
				},
			},
			"lonely": {},
		},
		Children: []*core.Spec{
			{
				Name:        "kid",
				Interpreter: "noop",
				Locations: map[string]*core.LocationSpec{
					"start": {
						Edges: []*core.EdgeSpec{
							{
								StepSpec: core.StepSpec{
									Update: map[string]interface{}{"x": "tacos"},
								},
								Atomic: []*core.StepSpec{{}},
								Target: "start",
							},
						},
					},
				},
			},
		},
	}
	a, err := Analyze(spec)
	if err != nil {
		t.Fatal(err)
	}
	if a.OK() {
		t.Fatalf("no errors")
	}
	if !reflect.DeepEqual(a.MissingTargets, []string{"nowhere"}) {
		t.Fatalf("missing %v", a.MissingTargets)
	}
	if !reflect.DeepEqual(a.Undeclared, []string{"y"}) {
		t.Fatalf("undeclared %v", a.Undeclared)
	}
	if !reflect.DeepEqual(a.Orphans, []string{"lonely"}) {
		t.Fatalf("orphans %v", a.Orphans)
	}
	if !reflect.DeepEqual(a.Unreachable, []string{"lonely"}) {
		t.Fatalf("unreachable %v", a.Unreachable)
	}
	if !reflect.DeepEqual(a.TerminalLocations, []string{"lonely"}) {
		t.Fatalf("terminal %v", a.TerminalLocations)
	}
	if len(a.Children) != 1 || !a.Children[0].OK() || a.Children[0].AtomicEdges != 1 {
		t.Fatalf("child %#v", a.Children)
	}
	if got := a.AllInterpreters(); !reflect.DeepEqual(got, []string{"goja", "noop"}) {
		t.Fatalf("interpreters %v", got)
	}
}

func TestAnalyzeSpecFiles(t *testing.T) {
	for _, filename := range []string{"../specs/turnstile.yaml", "../specs/double.yaml", "../specs/bank.yaml"} {
		t.Run(filename, func(t *testing.T) {
			spec, err := ReadSpec(filename)
			if err != nil {
				t.Fatal(err)
			}
			a, err := Analyze(spec)
			if err != nil {
				t.Fatal(err)
			}
			if !a.OK() {
				t.Fatalf("errors: %v", a.Errors)
			}
		})
	}
}
