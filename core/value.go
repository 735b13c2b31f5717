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
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Value is the value of a variable or the result of an expression.
//
// Values are immutable.  Tuple and Struct are slices and maps for
// convenience, but nobody should modify one after giving it away.
type Value interface {
	Canonical
	String() string
}

// Int is an integer Value.
type Int int64

func (x Int) Equal(o Canonical) bool {
	y, is := o.(Int)
	return is && x == y
}

func (x Int) Hash() uint64 {
	return CombineOrdered(seedInt, uint64(x))
}

func (x Int) String() string {
	return strconv.FormatInt(int64(x), 10)
}

// Float is a non-integral number.  ValueOf turns integral floats into
// Ints.
type Float float64

// Equal compares bits, so NaN equals NaN and 0 doesn't equal -0.
func (x Float) Equal(o Canonical) bool {
	y, is := o.(Float)
	return is && math.Float64bits(float64(x)) == math.Float64bits(float64(y))
}

func (x Float) Hash() uint64 {
	return CombineOrdered(seedFloat, math.Float64bits(float64(x)))
}

func (x Float) String() string {
	return strconv.FormatFloat(float64(x), 'g', -1, 64)
}

// Bool is a boolean Value.
type Bool bool

func (x Bool) Equal(o Canonical) bool {
	y, is := o.(Bool)
	return is && x == y
}

func (x Bool) Hash() uint64 {
	if x {
		return CombineOrdered(seedBool, 1)
	}
	return CombineOrdered(seedBool, 0)
}

func (x Bool) String() string {
	return strconv.FormatBool(bool(x))
}

// Str is a string Value.
type Str string

func (x Str) Equal(o Canonical) bool {
	y, is := o.(Str)
	return is && x == y
}

func (x Str) Hash() uint64 {
	return CombineOrdered(seedStr, HashString(string(x)))
}

func (x Str) String() string {
	return strconv.Quote(string(x))
}

// Tuple is an ordered sequence of Values.
type Tuple []Value

func (x Tuple) Equal(o Canonical) bool {
	y, is := o.(Tuple)
	if !is || len(x) != len(y) {
		return false
	}
	for i, v := range x {
		if !v.Equal(y[i]) {
			return false
		}
	}
	return true
}

func (x Tuple) Hash() uint64 {
	hs := make([]uint64, len(x))
	for i, v := range x {
		hs[i] = v.Hash()
	}
	return CombineOrdered(seedTuple, hs...)
}

func (x Tuple) String() string {
	parts := make([]string, len(x))
	for i, v := range x {
		parts[i] = v.String()
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// Struct is an unordered set of named Values.
type Struct map[string]Value

func (x Struct) Equal(o Canonical) bool {
	y, is := o.(Struct)
	if !is || len(x) != len(y) {
		return false
	}
	for k, v := range x {
		w, have := y[k]
		if !have || !v.Equal(w) {
			return false
		}
	}
	return true
}

func (x Struct) Hash() uint64 {
	hs := make([]uint64, 0, len(x))
	for k, v := range x {
		hs = append(hs, CombineOrdered(HashString(k), v.Hash()))
	}
	return CombineUnordered(seedStruct, hs...)
}

func (x Struct) String() string {
	ks := make([]string, 0, len(x))
	for k := range x {
		ks = append(ks, k)
	}
	sort.Strings(ks)
	parts := make([]string, len(ks))
	for i, k := range ks {
		parts[i] = k + ":" + x[k].String()
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// maxExactFloat is the largest float64 magnitude below which every
// integer is representable.
const maxExactFloat = 1 << 53

// ValueOf converts Go data (as produced by JSON or YAML
// deserialization or by an interpreter) into a Value.
func ValueOf(x interface{}) (Value, error) {
	switch vv := x.(type) {
	case Value:
		return vv, nil
	case bool:
		return Bool(vv), nil
	case int:
		return Int(vv), nil
	case int8:
		return Int(vv), nil
	case int16:
		return Int(vv), nil
	case int32:
		return Int(vv), nil
	case int64:
		return Int(vv), nil
	case uint8:
		return Int(vv), nil
	case uint16:
		return Int(vv), nil
	case uint32:
		return Int(vv), nil
	case uint:
		if uint64(vv) > math.MaxInt64 {
			return nil, &TypeError{Value: x, Want: "int64"}
		}
		return Int(vv), nil
	case uint64:
		if vv > math.MaxInt64 {
			return nil, &TypeError{Value: x, Want: "int64"}
		}
		return Int(vv), nil
	case float32:
		return ValueOf(float64(vv))
	case float64:
		if vv == math.Trunc(vv) && math.Abs(vv) < maxExactFloat {
			return Int(int64(vv)), nil
		}
		return Float(vv), nil
	case string:
		return Str(vv), nil
	case []interface{}:
		acc := make(Tuple, len(vv))
		for i, y := range vv {
			v, err := ValueOf(y)
			if err != nil {
				return nil, err
			}
			acc[i] = v
		}
		return acc, nil
	case []Value:
		return Tuple(vv), nil
	case map[string]interface{}:
		acc := make(Struct, len(vv))
		for k, y := range vv {
			v, err := ValueOf(y)
			if err != nil {
				return nil, err
			}
			acc[k] = v
		}
		return acc, nil
	case map[interface{}]interface{}:
		// gopkg.in/yaml.v2 likes these.
		acc := make(Struct, len(vv))
		for k, y := range vv {
			s, is := k.(string)
			if !is {
				return nil, &TypeError{Value: k, Want: "string key"}
			}
			v, err := ValueOf(y)
			if err != nil {
				return nil, err
			}
			acc[s] = v
		}
		return acc, nil
	case nil:
		return nil, &TypeError{Value: x, Want: "value"}
	default:
		// Structs, typed slices, and typed maps.
		y, err := Canonicalize(x)
		if err != nil {
			return nil, &TypeError{Value: x, Want: "value"}
		}
		switch y.(type) {
		case map[string]interface{}, []interface{}:
			return ValueOf(y)
		}
		return nil, &TypeError{Value: x, Want: "value"}
	}
}

// MustValue is ValueOf that panics.  For tests and examples.
func MustValue(x interface{}) Value {
	v, err := ValueOf(x)
	if err != nil {
		panic(err)
	}
	return v
}

// Export converts a Value back to plain Go data.
func Export(v Value) interface{} {
	switch vv := v.(type) {
	case Int:
		return int64(vv)
	case Float:
		return float64(vv)
	case Bool:
		return bool(vv)
	case Str:
		return string(vv)
	case Tuple:
		acc := make([]interface{}, len(vv))
		for i, w := range vv {
			acc[i] = Export(w)
		}
		return acc
	case Struct:
		acc := make(map[string]interface{}, len(vv))
		for k, w := range vv {
			acc[k] = Export(w)
		}
		return acc
	case nil:
		return nil
	default:
		return fmt.Sprintf("%v", v)
	}
}
