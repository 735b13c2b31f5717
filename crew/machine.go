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

package crew

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/Comcast/tandem/core"

	"github.com/jsccast/yaml"
)

// Machine is a triple: id, Process, and the Process's current State.
type Machine struct {
	Id      string       `json:"id,omitempty"`
	Process core.Process `json:"-" yaml:"-"`
	State   core.State   `json:"-" yaml:"-"`

	// SpecSource is here only to facilitate serialization and
	// deserialization.  This package doesn't look at it except in
	// Load.
	SpecSource *SpecSource `json:"spec,omitempty"`
}

// NewMachine makes a Machine at its Process's initial State.
func NewMachine(id string, p core.Process, src *SpecSource) *Machine {
	return &Machine{
		Id:         id,
		Process:    p,
		State:      p.Initial(),
		SpecSource: src,
	}
}

// Update overlays the given machine data on the target machine.
//
// States are immutable, so the State is shared, not copied.
//
// Not thread-safe.
func (m *Machine) Update(overlay *Machine) {
	if overlay.Id != "" {
		m.Id = overlay.Id
	}
	if overlay.Process != nil {
		m.Process = overlay.Process
	}
	if overlay.State != nil {
		m.State = overlay.State
	}
	if overlay.SpecSource != nil {
		m.SpecSource = overlay.SpecSource.Copy()
	}
}

// Copy returns a new Machine with the same id, same Process, and the
// same State.
func (m *Machine) Copy() *Machine {
	acc := &Machine{
		Id:      m.Id,
		Process: m.Process,
		State:   m.State,
	}
	if m.SpecSource != nil {
		acc.SpecSource = m.SpecSource.Copy()
	}
	return acc
}

// SpecSource aspires to hold the origin of a specification.
//
// A source for a Spec can be a name (resolved by a SpecProvider) or
// an inline Spec.
type SpecSource struct {
	// Name is an optional string that could be used by a resolver
	// to obtain some spec.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Inline is an optional actual spec right here.
	Inline *core.Spec `json:"inline,omitempty" yaml:",omitempty"`
}

// NewSpecSource creates a SpecSource with the given name.
func NewSpecSource(name string) *SpecSource {
	return &SpecSource{
		Name: name,
	}
}

// Copy makes a copy of the given SpecSource.  An inline Spec is
// copied too.
func (s *SpecSource) Copy() *SpecSource {
	acc := &SpecSource{
		Name: s.Name,
	}
	if s.Inline != nil {
		acc.Inline = s.Inline.Copy()
	}
	return acc
}

// SpecProvider can FindSpec given a SpecSource.
type SpecProvider interface {
	FindSpec(ctx context.Context, s *SpecSource) (*core.Spec, error)
}

var NoSpecName = errors.New("spec source needs a name or an inline spec")

// DirSpecProvider finds specs by name in a directory.  A file that
// starts with '{' is JSON, and anything else is YAML.
type DirSpecProvider struct {
	Dir string
}

func (p *DirSpecProvider) FindSpec(ctx context.Context, s *SpecSource) (*core.Spec, error) {
	if s.Inline != nil {
		return s.Inline, nil
	}
	if s.Name == "" {
		return nil, NoSpecName
	}
	if strings.HasPrefix(filepath.Clean(s.Name), "..") {
		return nil, errors.New("spec name can't escape the spec directory")
	}

	src, err := os.ReadFile(filepath.Join(p.Dir, s.Name))
	if err != nil {
		return nil, err
	}
	if len(src) == 0 {
		return nil, errors.New("empty spec")
	}

	var spec core.Spec
	switch src[0] {
	case '{':
		err = json.Unmarshal(src, &spec)
	default:
		err = yaml.Unmarshal(src, &spec)
	}
	if err != nil {
		return nil, err
	}
	return &spec, nil
}

// Load finds and compiles the spec for the source and returns a new
// Machine at its initial State.
func Load(ctx context.Context, p SpecProvider, interpreters map[string]core.Interpreter, id string, src *SpecSource) (*Machine, error) {
	spec, err := p.FindSpec(ctx, src)
	if err != nil {
		return nil, err
	}
	proc, err := spec.Compile(ctx, interpreters)
	if err != nil {
		return nil, err
	}
	return NewMachine(id, proc, src), nil
}
