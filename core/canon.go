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
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Canonical is implemented by every state, interaction, and value.
//
// Equal must be reflexive and symmetric, and a.Equal(b) must imply
// a.Hash() == b.Hash().  Unequal things are allowed to collide, but
// they shouldn't do that often.
type Canonical interface {
	Equal(other Canonical) bool
	Hash() uint64
}

// Seeds keep different kinds of things with the same content apart.
const (
	seedInt uint64 = iota + 0x51ed270b
	seedFloat
	seedBool
	seedStr
	seedTuple
	seedStruct
	seedValuation
	seedAction
	seedSymbolic
	seedTupleState
)

// HashString hashes a string.
func HashString(s string) uint64 {
	return xxhash.Sum64String(s)
}

// HashBytes hashes some bytes.
func HashBytes(bs []byte) uint64 {
	return xxhash.Sum64(bs)
}

// HashUint64 hashes a number.
func HashUint64(n uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], n)
	return xxhash.Sum64(buf[:])
}

// mix is the splitmix64 finalizer.
func mix(h uint64) uint64 {
	h ^= h >> 30
	h *= 0xbf58476d1ce4e5b9
	h ^= h >> 27
	h *= 0x94d049bb133111eb
	h ^= h >> 31
	return h
}

// CombineOrdered folds the given hashes into the seed.  The result
// depends on the order of the hashes, so use it for things like
// tuples whose equality is positional.
func CombineOrdered(seed uint64, hs ...uint64) uint64 {
	h := mix(seed)
	for _, x := range hs {
		h = mix(h ^ (x + 0x9e3779b97f4a7c15 + (h << 6) + (h >> 2)))
	}
	return h
}

// CombineUnordered folds the given hashes into the seed without
// regard to their order.  Use it for things like structs whose
// equality ignores field order.
func CombineUnordered(seed uint64, hs ...uint64) uint64 {
	var acc uint64
	for _, x := range hs {
		acc ^= mix(x)
	}
	return mix(seed ^ acc)
}

// Equal is a nil-tolerant a.Equal(b).
func Equal(a, b Canonical) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(b)
}

// Set is an insertion-ordered set of Canonical things.
//
// The zero value is ready to use.  Not safe for concurrent use.
type Set struct {
	buckets map[uint64][]Canonical
	items   []Canonical
}

// NewSet makes a Set containing the given things.
func NewSet(xs ...Canonical) *Set {
	s := &Set{}
	for _, x := range xs {
		s.Add(x)
	}
	return s
}

// find returns the member equal to x, if any.
func (s *Set) find(x Canonical) (Canonical, bool) {
	for _, y := range s.buckets[x.Hash()] {
		if y.Equal(x) {
			return y, true
		}
	}
	return nil, false
}

// Add adds x unless an equal thing is already present.  Reports
// whether x was added.
func (s *Set) Add(x Canonical) bool {
	if _, have := s.find(x); have {
		return false
	}
	if s.buckets == nil {
		s.buckets = make(map[uint64][]Canonical)
	}
	h := x.Hash()
	s.buckets[h] = append(s.buckets[h], x)
	s.items = append(s.items, x)
	return true
}

// Has reports whether something equal to x is in the set.
func (s *Set) Has(x Canonical) bool {
	_, have := s.find(x)
	return have
}

// Len returns the number of members.
func (s *Set) Len() int {
	return len(s.items)
}

// Items returns the members in the order they were added.
func (s *Set) Items() []Canonical {
	acc := make([]Canonical, len(s.items))
	copy(acc, s.items)
	return acc
}
