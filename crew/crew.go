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

// Package crew manages a mutable collection of named Machines that
// run together as one composed Process.
//
// The Machines are composed in id order, with Interleave by default
// or with Synchronize when the Crew has an alphabet.  Each step of
// the Crew is a step of that composition, after which each Machine
// gets its component of the composed State.
package crew

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Comcast/tandem/core"
	"github.com/Comcast/tandem/util"
)

type Crew struct {
	sync.RWMutex

	Id       string              `json:"id"`
	Machines map[string]*Machine `json:"machines"`

	// Alphabet, if not empty, names the actions that every
	// Machine must take together.
	Alphabet []string `json:"alphabet,omitempty"`
}

func NewCrew(id string) *Crew {
	return &Crew{
		Id:       id,
		Machines: make(map[string]*Machine, 32),
	}
}

// Copy gets a read lock and returns a copy of the crew.
func (c *Crew) Copy() *Crew {
	c.RLock()
	ms := make(map[string]*Machine, len(c.Machines))
	for id, m := range c.Machines {
		ms[id] = m.Copy()
	}
	acc := &Crew{
		Id:       c.Id,
		Machines: ms,
		Alphabet: append([]string(nil), c.Alphabet...),
	}
	c.RUnlock()
	return acc
}

// MachineExists is returned by Add for a duplicate id.
type MachineExists struct {
	Id string
}

func (e *MachineExists) Error() string {
	return fmt.Sprintf("machine %s exists", e.Id)
}

// MachineNotFound is returned for an unknown machine id.
type MachineNotFound struct {
	Id string
}

func (e *MachineNotFound) Error() string {
	return fmt.Sprintf("machine %s not found", e.Id)
}

// Add adds the Machine.
func (c *Crew) Add(m *Machine) error {
	c.Lock()
	defer c.Unlock()
	if _, have := c.Machines[m.Id]; have {
		return &MachineExists{Id: m.Id}
	}
	c.Machines[m.Id] = m
	return nil
}

// Put adds the Machine, replacing any Machine with the same id.
func (c *Crew) Put(m *Machine) {
	c.Lock()
	c.Machines[m.Id] = m
	c.Unlock()
}

// Remove removes the Machine with the given id.
func (c *Crew) Remove(id string) error {
	c.Lock()
	defer c.Unlock()
	if _, have := c.Machines[id]; !have {
		return &MachineNotFound{Id: id}
	}
	delete(c.Machines, id)
	return nil
}

// Get returns a copy of the Machine with the given id.
func (c *Crew) Get(id string) (*Machine, error) {
	c.RLock()
	defer c.RUnlock()
	m, have := c.Machines[id]
	if !have {
		return nil, &MachineNotFound{Id: id}
	}
	return m.Copy(), nil
}

// Ids returns the Machine ids in composition order.
func (c *Crew) Ids() []string {
	c.RLock()
	defer c.RUnlock()
	return c.ids()
}

func (c *Crew) ids() []string {
	acc := make([]string, 0, len(c.Machines))
	for id := range c.Machines {
		acc = append(acc, id)
	}
	sort.Strings(acc)
	return acc
}

// compose returns the composition of the Machines (in id order) and
// its current State.  Caller should hold a lock.
func (c *Crew) compose() ([]string, core.Process, core.State) {
	ids := c.ids()
	ps := make([]core.Process, len(ids))
	ss := make([]core.State, len(ids))
	for i, id := range ids {
		m := c.Machines[id]
		ps[i] = m.Process
		ss[i] = m.State
	}
	if len(c.Alphabet) == 0 {
		return ids, core.Interleave(ps...), core.NewTupleState(ss...)
	}
	alphabet := make([]core.Interaction, len(c.Alphabet))
	for i, a := range c.Alphabet {
		alphabet[i] = core.A(a)
	}
	return ids, core.Synchronize(alphabet, ps...), core.NewTupleState(ss...)
}

// set gives each Machine its component of the State.  Caller should
// hold the write lock.
func (c *Crew) set(ids []string, s core.State) ([]string, error) {
	t, is := s.(*core.TupleState)
	if !is || t.Len() != len(ids) {
		return nil, &core.UnknownState{Process: "crew " + c.Id, State: s}
	}
	var moved []string
	for i, id := range ids {
		m := c.Machines[id]
		if !m.State.Equal(t.At(i)) {
			moved = append(moved, id)
		}
		m.State = t.At(i)
	}
	return moved, nil
}

// Enabled returns the Interactions that the Crew can take now.
func (c *Crew) Enabled(ctx context.Context) ([]core.Interaction, error) {
	c.RLock()
	defer c.RUnlock()
	_, p, s := c.compose()
	return p.Enabled(s)
}

// Step takes one Interaction and returns the ids of the Machines
// that changed.
func (c *Crew) Step(ctx context.Context, i core.Interaction) ([]string, error) {
	c.Lock()
	defer c.Unlock()
	ids, p, s := c.compose()
	next, err := p.Transition(s, i)
	if err != nil {
		return nil, err
	}
	moved, err := c.set(ids, next)
	if err != nil {
		return nil, err
	}
	util.Logf("crew %s %s moved %v", c.Id, i, moved)
	return moved, nil
}

// Successors reports the composed States that the Interaction could
// lead to without changing anything.
func (c *Crew) Successors(ctx context.Context, i core.Interaction) ([]core.State, error) {
	c.RLock()
	defer c.RUnlock()
	_, p, s := c.compose()
	return core.Successors(p, s, i)
}

// Walk offers the Interactions to the Crew, which ends up at the
// last State reached.
func (c *Crew) Walk(ctx context.Context, is []core.Interaction, ctl *core.Control) (*core.Walked, error) {
	c.Lock()
	defer c.Unlock()
	ids, p, s := c.compose()
	walked, err := core.Walk(ctx, p, s, is, ctl)
	if walked != nil {
		if to := walked.To(); to != nil {
			if _, serr := c.set(ids, to); serr != nil && err == nil {
				err = serr
			}
		}
	}
	return walked, err
}
