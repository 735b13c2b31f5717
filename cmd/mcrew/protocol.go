/* Copyright 2018 Comcast Cable Communications Management, LLC
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

package main

import (
	"context"
	"fmt"

	"github.com/Comcast/tandem/core"
	"github.com/Comcast/tandem/crew"
	. "github.com/Comcast/tandem/util/testutil"
)

// SOp is a Service Operation.
//
// Only one of GetSpec, GetCrewOp, or COp should have value.
type SOp struct {
	// GetSpec is a utility that invokes the service's SpecProvider.
	GetSpec *GetSpecOp `json:"getSpec,omitempty" yaml:",omitempty"`

	// GetCrewOp that gets a view of the Crew.
	GetCrewOp *GetCrewOp `json:"getCrew,omitempty" yaml:",omitempty"`

	// Error will hold an error (if any) that results from
	// processing this operation.
	Error error `json:"-" yaml:"-"`

	// Err will hold a string representation of an error (if any)
	// that results from processing this operation.
	Err string `json:"err,omitempty" yaml:",omitempty"`

	// COp gives a Crew operation.
	COp *COp `json:"cop,omitempty" yaml:"cop,omitempty"`
}

// erred is a utility function to return values to assign to operation
// Error and Err fields.
func erred(err error) (error, string) {
	if err == nil {
		return nil, ""
	}
	return err, err.Error()
}

func (o *SOp) Do(ctx context.Context, s *Service) error {

	s.op(ctx, map[string]interface{}{
		"do": o,
	})

	var err error
	if o.GetSpec != nil {
		err = o.GetSpec.Do(ctx, s)
	} else if o.GetCrewOp != nil {
		err = o.GetCrewOp.Do(ctx, s)
	} else if o.COp != nil {
		err = o.COp.Do(ctx, s)
	} else {
		err = fmt.Errorf("not implemented: %s", JS(o))
	}

	if err != nil && o.Error == nil {
		o.Error, o.Err = erred(err)
	}

	s.op(ctx, map[string]interface{}{
		"did": o,
	})

	return o.Error
}

type GetSpecOp struct {
	Source *crew.SpecSource `json:"source,omitempty" yaml:",omitempty"`
	Spec   *core.Spec       `json:"spec,omitempty" yaml:",omitempty"`
}

func (o *GetSpecOp) Do(ctx context.Context, s *Service) error {
	if o.Source == nil {
		return fmt.Errorf("no spec source given")
	}
	spec, err := s.provider.FindSpec(ctx, o.Source)
	if err == nil {
		o.Spec = spec
	}
	return err
}

// MachineView is a Machine as reported by GetCrewOp.
type MachineView struct {
	Spec  *crew.SpecSource `json:"spec,omitempty"`
	State string           `json:"state"`
}

// CrewView is a Crew as reported by GetCrewOp.
type CrewView struct {
	Id       string                  `json:"id"`
	Alphabet []string                `json:"alphabet,omitempty"`
	Machines map[string]*MachineView `json:"machines"`
	Enabled  []string                `json:"enabled"`
}

type GetCrewOp struct {
	Crew *CrewView `json:"crew,omitempty" yaml:",omitempty"`
}

func (o *GetCrewOp) Do(ctx context.Context, s *Service) error {
	c := s.crew.Copy()
	v := &CrewView{
		Id:       c.Id,
		Alphabet: c.Alphabet,
		Machines: make(map[string]*MachineView, len(c.Machines)),
		Enabled:  []string{},
	}
	for id, m := range c.Machines {
		v.Machines[id] = &MachineView{
			Spec:  m.SpecSource,
			State: m.State.String(),
		}
	}
	is, err := c.Enabled(ctx)
	if err != nil {
		return err
	}
	for _, i := range is {
		v.Enabled = append(v.Enabled, i.String())
	}
	o.Crew = v
	return nil
}

// COp is a Crew Operation.
//
// In normal use, only one field should be given.
type COp struct {
	// Add a machine to the Crew.
	Add *OpAdd `json:"add,omitempty" yaml:",omitempty"`

	// Rem removes a machine from the Crew.
	Rem *OpRem `json:"rem,omitempty" yaml:",omitempty"`

	// Walk offers actions to the Crew.
	Walk *OpWalk `json:"walk,omitempty" yaml:",omitempty"`

	// Sync sets the actions that every machine takes together.
	Sync *OpSync `json:"sync,omitempty" yaml:",omitempty"`
}

func (o *COp) Do(ctx context.Context, s *Service) error {
	if o.Add != nil {
		return o.Add.Do(ctx, s)
	}
	if o.Rem != nil {
		return o.Rem.Do(ctx, s)
	}
	if o.Walk != nil {
		return o.Walk.Do(ctx, s)
	}
	if o.Sync != nil {
		return o.Sync.Do(ctx, s)
	}
	return fmt.Errorf("empty crew op")
}

type OpAdd struct {
	// Oid is the optional operation id.  A "transaction" id.
	Oid string `json:"oid,omitempty" yaml:",omitempty"`

	// Id is the id for the new Machine.
	Id string `json:"id"`

	// Spec is the source of the Machine's spec.
	Spec *crew.SpecSource `json:"spec"`

	// Error will hold an error (if any) that results from
	// processing this operation.
	Error error `json:"-" yaml:"-"`

	// Err will hold a string representation of an error (if any)
	// that results from processing this operation.
	Err string `json:"err,omitempty" yaml:",omitempty"`
}

func (o *OpAdd) Do(ctx context.Context, s *Service) error {
	if o.Id == "" {
		return fmt.Errorf("no machine id given")
	}
	o.Error, o.Err = erred(s.AddMachine(ctx, o.Id, o.Spec))
	return nil
}

type OpRem struct {
	// Oid is the optional operation id.  A "transaction" id.
	Oid string `json:"oid,omitempty" yaml:",omitempty"`

	// Id is the id of the Machine to remove.
	Id string `json:"id"`

	// Error will hold an error (if any) that results from
	// processing this operation.
	Error error `json:"-" yaml:"-"`

	// Err will hold a string representation of an error (if any)
	// that results from processing this operation.
	Err string `json:"err,omitempty" yaml:",omitempty"`
}

func (o *OpRem) Do(ctx context.Context, s *Service) error {
	o.Error, o.Err = erred(s.RemMachine(ctx, o.Id))
	return nil
}

// StrideView is a Stride as reported by OpWalk.
type StrideView struct {
	Action string `json:"action"`
	To     string `json:"to"`
}

type OpWalk struct {
	// Oid is the optional operation id.  A "transaction" id.
	Oid string `json:"oid,omitempty" yaml:",omitempty"`

	// Limit, if positive, overrides the service's step limit.
	Limit int `json:"limit,omitempty" yaml:",omitempty"`

	// Actions are the actions to offer.  "forward" takes the
	// first enabled action.
	Actions []string `json:"actions"`

	Strides        []*StrideView `json:"strides,omitempty" yaml:",omitempty"`
	StoppedBecause string        `json:"stoppedBecause,omitempty" yaml:",omitempty"`
	Remaining      []string      `json:"remaining,omitempty" yaml:",omitempty"`

	// Error will hold an error (if any) that results from
	// processing this operation.
	Error error `json:"-" yaml:"-"`

	// Err will hold a string representation of an error (if any)
	// that results from processing this operation.
	Err string `json:"err,omitempty" yaml:",omitempty"`
}

func (o *OpWalk) Do(ctx context.Context, s *Service) error {
	var ctl *core.Control
	if 0 < o.Limit {
		ctl = s.Ctl.Copy()
		ctl.Limit = o.Limit
	}

	is := make([]core.Interaction, len(o.Actions))
	for i, a := range o.Actions {
		is[i] = core.A(a)
	}

	walked, err := s.Walk(ctx, is, ctl)
	o.Error, o.Err = erred(err)
	if walked == nil {
		return err
	}

	for _, stride := range walked.Strides {
		o.Strides = append(o.Strides, &StrideView{
			Action: stride.Interaction.String(),
			To:     stride.To.String(),
		})
	}
	o.StoppedBecause = walked.StoppedBecause.String()
	for _, i := range walked.Remaining {
		o.Remaining = append(o.Remaining, i.String())
	}
	return err
}

type OpSync struct {
	Actions []string `json:"actions"`
}

func (o *OpSync) Do(ctx context.Context, s *Service) error {
	s.crew.Lock()
	s.crew.Alphabet = o.Actions
	s.crew.Unlock()
	return nil
}
