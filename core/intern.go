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
	"sync"
)

// Interner maps equal Canonical things to one shared representative
// (hash-consing).  After interning, equal things are identical, so
// a pointer comparison can stand in for Equal.
//
// Interning is an optimization.  Nothing in this package depends on
// it.  An Interner is safe for concurrent use.
type Interner struct {
	sync.Mutex
	set Set
}

// DefaultInterner lives as long as the program does.
var DefaultInterner = NewInterner()

func NewInterner() *Interner {
	return &Interner{}
}

// Intern returns the representative for x, which is x itself if
// nothing equal to x has been interned before.
func (in *Interner) Intern(x Canonical) Canonical {
	in.Lock()
	defer in.Unlock()
	if y, have := in.set.find(x); have {
		return y
	}
	in.set.Add(x)
	return x
}

// InternState is Intern for States.
func (in *Interner) InternState(s State) State {
	return in.Intern(s).(State)
}

// Len returns the number of representatives.
func (in *Interner) Len() int {
	in.Lock()
	defer in.Unlock()
	return in.set.Len()
}

// Kind is the shape of a Value.
type Kind int

const (
	KindInvalid Kind = iota
	KindInt
	KindFloat
	KindBool
	KindStr
	KindTuple
	KindStruct
)

var kindNames = []string{"invalid", "int", "float", "bool", "string", "tuple", "struct"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "kind(" + itoa(int(k)) + ")"
	}
	return kindNames[k]
}

// Accepts reports whether a variable currently holding a value of
// kind k can be assigned a value of kind other.  Numbers of either
// kind accept each other.
func (k Kind) Accepts(other Kind) bool {
	if k == other {
		return true
	}
	numeric := func(k Kind) bool { return k == KindInt || k == KindFloat }
	return numeric(k) && numeric(other)
}

// KindOf returns the Kind of the given Value.
func KindOf(v Value) Kind {
	switch v.(type) {
	case Int:
		return KindInt
	case Float:
		return KindFloat
	case Bool:
		return KindBool
	case Str:
		return KindStr
	case Tuple:
		return KindTuple
	case Struct:
		return KindStruct
	default:
		return KindInvalid
	}
}

// Type is the structural type of a Value.  Types come from a
// TypeRegistry, which hands out one *Type per structure, so two
// Types are the same exactly when their pointers are equal.
type Type struct {
	Kind   Kind
	Elems  []*Type // tuple element types
	Fields []string
	Types  []*Type // struct field types, parallel to Fields
	sig    string
}

func (t *Type) String() string {
	return t.sig
}

// TypeRegistry interns Types by their structural signature.  It's
// safe for concurrent use.
type TypeRegistry struct {
	sync.Mutex
	types map[string]*Type
}

// DefaultTypes is the registry used by this package.
var DefaultTypes = NewTypeRegistry()

func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{
		types: make(map[string]*Type),
	}
}

func (r *TypeRegistry) intern(t *Type) *Type {
	r.Lock()
	defer r.Unlock()
	if have, already := r.types[t.sig]; already {
		return have
	}
	r.types[t.sig] = t
	return t
}

// Basic returns the Type for a scalar Kind.
func (r *TypeRegistry) Basic(k Kind) *Type {
	return r.intern(&Type{Kind: k, sig: k.String()})
}

// TupleType returns the Type of tuples with the given element Types.
func (r *TypeRegistry) TupleType(elems ...*Type) *Type {
	sigs := make([]string, len(elems))
	for i, e := range elems {
		sigs[i] = e.sig
	}
	return r.intern(&Type{
		Kind:  KindTuple,
		Elems: elems,
		sig:   "(" + strings.Join(sigs, ",") + ")",
	})
}

// StructType returns the Type of structs with the given field Types.
func (r *TypeRegistry) StructType(fields map[string]*Type) *Type {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	types := make([]*Type, len(names))
	sigs := make([]string, len(names))
	for i, name := range names {
		types[i] = fields[name]
		sigs[i] = name + ":" + types[i].sig
	}
	return r.intern(&Type{
		Kind:   KindStruct,
		Fields: names,
		Types:  types,
		sig:    "{" + strings.Join(sigs, ",") + "}",
	})
}

// TypeOf returns the Type of the given Value.
func (r *TypeRegistry) TypeOf(v Value) *Type {
	switch vv := v.(type) {
	case Tuple:
		elems := make([]*Type, len(vv))
		for i, w := range vv {
			elems[i] = r.TypeOf(w)
		}
		return r.TupleType(elems...)
	case Struct:
		fields := make(map[string]*Type, len(vv))
		for name, w := range vv {
			fields[name] = r.TypeOf(w)
		}
		return r.StructType(fields)
	default:
		return r.Basic(KindOf(v))
	}
}

// Len returns the number of Types in the registry.
func (r *TypeRegistry) Len() int {
	r.Lock()
	defer r.Unlock()
	return len(r.types)
}
