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

// State is a configuration of a Process.
//
// States are immutable values.  A State returned by a Process is
// never modified afterwards, so States can be shared freely.
type State interface {
	Canonical
	String() string
}

// Interaction is a stimulus that can trigger a transition.
type Interaction interface {
	Canonical
	String() string
}

// Process is a labeled transition system.
//
// Initial and Transition must be pure: equal inputs always give equal
// outputs, even across Process instances with the same definition.
type Process interface {
	// Initial returns the starting State.
	Initial() State

	// Enabled returns the Interactions that Transition will accept
	// in the given State.
	Enabled(State) ([]Interaction, error)

	// Transition returns the State that follows the given one
	// after the given Interaction.
	//
	// Calling Transition with an Interaction that isn't enabled
	// returns a *DisabledInteraction error.  Check first.
	Transition(State, Interaction) (State, error)
}

// Brancher is implemented by Processes that can report every State
// an Interaction might lead to.  Transition picks one of these
// States.
type Brancher interface {
	Successors(State, Interaction) ([]State, error)
}

// Successors returns every State that could follow s after i.  If
// the Process isn't a Brancher, the result is the one State that
// Transition returns.
func Successors(p Process, s State, i Interaction) ([]State, error) {
	if b, is := p.(Brancher); is {
		return b.Successors(s, i)
	}
	next, err := p.Transition(s, i)
	if err != nil {
		return nil, err
	}
	return []State{next}, nil
}

// IsEnabled reports whether i is enabled in s.
func IsEnabled(p Process, s State, i Interaction) (bool, error) {
	is, err := p.Enabled(s)
	if err != nil {
		return false, err
	}
	for _, j := range is {
		if j.Equal(i) {
			return true, nil
		}
	}
	return false, nil
}

// Action is a named Interaction.  Edges are labeled with Actions.
type Action struct {
	Name string `json:"name"`
}

// Forward is the well-known "step forward" Interaction for
// presentations that don't need named actions.  An Edge built with a
// nil action is labeled Forward.
var Forward = Action{Name: "forward"}

// A returns the Action with the given name.
func A(name string) Action {
	return Action{Name: name}
}

func (a Action) Equal(o Canonical) bool {
	b, is := o.(Action)
	return is && a.Name == b.Name
}

func (a Action) Hash() uint64 {
	return CombineOrdered(seedAction, HashString(a.Name))
}

func (a Action) String() string {
	return a.Name
}

// dedupInteractions keeps the first of each group of equal
// Interactions.
func dedupInteractions(is []Interaction) []Interaction {
	var (
		seen Set
		acc  = make([]Interaction, 0, len(is))
	)
	for _, i := range is {
		if seen.Add(i) {
			acc = append(acc, i)
		}
	}
	return acc
}

func dedupStates(ss []State) []State {
	var (
		seen Set
		acc  = make([]State, 0, len(ss))
	)
	for _, s := range ss {
		if seen.Add(s) {
			acc = append(acc, s)
		}
	}
	return acc
}
