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

// Package interpreters collects the standard expression
// interpreters.
package interpreters

import (
	"github.com/Comcast/tandem/core"
	"github.com/Comcast/tandem/interpreters/goja"
	"github.com/Comcast/tandem/interpreters/noop"
)

// Standard returns a fresh map of the standard interpreters.
//
// "goja", "ecmascript", and "ecmascript-5.1" are the same Goja
// interpreter.  "noop" treats every source as a literal.
func Standard() map[string]core.Interpreter {
	is := make(map[string]core.Interpreter)

	g := goja.NewInterpreter()
	is["goja"] = g
	is["ecmascript"] = g
	is["ecmascript-5.1"] = g

	n := noop.NewInterpreter()
	n.Silent = true
	is["noop"] = n

	return is
}
