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

// Package noop provides an interpreter that doesn't interpret: every
// source is a literal value.
//
// With this interpreter, a Spec can say "update: {name: tacos}" and
// mean the string "tacos" rather than a variable named tacos.
package noop

import (
	"context"

	"github.com/Comcast/tandem/core"
	"github.com/Comcast/tandem/util"
)

type Interpreter struct {
	// Silent, if false, will log each compilation when
	// util.Logging is on.
	Silent bool
}

func NewInterpreter() *Interpreter {
	return &Interpreter{}
}

// Compile returns a constant Expr for the given source.
func (i *Interpreter) Compile(ctx context.Context, src interface{}) (core.Expr, error) {
	v, err := core.ValueOf(src)
	if err != nil {
		return nil, err
	}
	if !i.Silent {
		util.Logf("noop: literal %s", v)
	}
	return core.Const(v), nil
}
