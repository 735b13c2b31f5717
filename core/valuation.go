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
	"sort"
	"strings"
)

// Valuation is an immutable map from variable names to Values.
//
// Every method that "changes" a Valuation returns a new one.  A nil
// *Valuation is empty.
type Valuation struct {
	names []string // sorted
	vals  []Value
	hash  uint64
}

// EmptyValuation has no variables.
var EmptyValuation = NewValuation(nil)

// NewValuation makes a Valuation from the given map, which is not
// retained.
func NewValuation(m map[string]Value) *Valuation {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	vals := make([]Value, len(names))
	for i, name := range names {
		vals[i] = m[name]
	}
	return newValuation(names, vals)
}

// ValuationOf makes a Valuation from plain Go data using ValueOf.
func ValuationOf(m map[string]interface{}) (*Valuation, error) {
	acc := make(map[string]Value, len(m))
	for name, x := range m {
		v, err := ValueOf(x)
		if err != nil {
			return nil, err
		}
		acc[name] = v
	}
	return NewValuation(acc), nil
}

func newValuation(names []string, vals []Value) *Valuation {
	hs := make([]uint64, len(names))
	for i, name := range names {
		hs[i] = CombineOrdered(HashString(name), vals[i].Hash())
	}
	return &Valuation{
		names: names,
		vals:  vals,
		hash:  CombineUnordered(seedValuation, hs...),
	}
}

func (vs *Valuation) index(name string) int {
	if vs == nil {
		return -1
	}
	i := sort.SearchStrings(vs.names, name)
	if i < len(vs.names) && vs.names[i] == name {
		return i
	}
	return -1
}

// Len returns the number of variables.
func (vs *Valuation) Len() int {
	if vs == nil {
		return 0
	}
	return len(vs.names)
}

// Names returns the sorted variable names.
func (vs *Valuation) Names() []string {
	if vs == nil {
		return nil
	}
	acc := make([]string, len(vs.names))
	copy(acc, vs.names)
	return acc
}

// Get returns the value of the given variable.
func (vs *Valuation) Get(name string) (Value, bool) {
	i := vs.index(name)
	if i < 0 {
		return nil, false
	}
	return vs.vals[i], true
}

// Has reports whether the variable is present.
func (vs *Valuation) Has(name string) bool {
	return 0 <= vs.index(name)
}

// Map returns a fresh map of the bindings.
func (vs *Valuation) Map() map[string]Value {
	acc := make(map[string]Value, vs.Len())
	for i := 0; i < vs.Len(); i++ {
		acc[vs.names[i]] = vs.vals[i]
	}
	return acc
}

// With returns a Valuation with the given variable set.
func (vs *Valuation) With(name string, v Value) *Valuation {
	return vs.WithAll(map[string]Value{name: v})
}

// WithAll returns a Valuation with all of the given variables set at
// once.
func (vs *Valuation) WithAll(changes map[string]Value) *Valuation {
	if len(changes) == 0 && vs != nil {
		return vs
	}
	m := vs.Map()
	for name, v := range changes {
		m[name] = v
	}
	return NewValuation(m)
}

// Overlay returns the union of both Valuations.  Bindings in inner
// shadow those in vs.
func (vs *Valuation) Overlay(inner *Valuation) *Valuation {
	if inner.Len() == 0 && vs != nil {
		return vs
	}
	if vs.Len() == 0 && inner != nil {
		return inner
	}
	return vs.WithAll(inner.Map())
}

// Split divides a scope, previously made by outer.Overlay(inner),
// back into its inner and outer parts.  Names that inner shadows
// keep their old values in outer.
func (vs *Valuation) Split(inner, outer *Valuation) (*Valuation, *Valuation) {
	in := make(map[string]Value, inner.Len())
	for _, name := range inner.Names() {
		v, _ := vs.Get(name)
		in[name] = v
	}
	out := make(map[string]Value, outer.Len())
	for _, name := range outer.Names() {
		if inner.Has(name) {
			out[name], _ = outer.Get(name)
			continue
		}
		v, _ := vs.Get(name)
		out[name] = v
	}
	return NewValuation(in), NewValuation(out)
}

func (vs *Valuation) Equal(o Canonical) bool {
	ws, is := o.(*Valuation)
	if !is {
		return false
	}
	if vs == ws {
		return true
	}
	if vs.Len() != ws.Len() || vs.Hash() != ws.Hash() {
		return false
	}
	if vs.Len() == 0 {
		return true
	}
	for i, name := range vs.names {
		if ws.names[i] != name || !vs.vals[i].Equal(ws.vals[i]) {
			return false
		}
	}
	return true
}

func (vs *Valuation) Hash() uint64 {
	if vs == nil {
		return EmptyValuation.hash
	}
	return vs.hash
}

func (vs *Valuation) String() string {
	parts := make([]string, vs.Len())
	for i := range parts {
		parts[i] = vs.names[i] + ":" + vs.vals[i].String()
	}
	return "{" + strings.Join(parts, ",") + "}"
}
