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

// increment returns an Expr for name + 1.
func increment(name string) Expr {
	return FuncExpr(func(vs *Valuation) (Value, error) {
		v, have := vs.Get(name)
		if !have {
			return nil, &UndeclaredVariable{Name: name}
		}
		n, is := v.(Int)
		if !is {
			return nil, &TypeError{Value: v, Want: "int"}
		}
		return n + 1, nil
	})
}

// CounterSpec makes an example Spec with one location and one
// "tick" edge back to it that increments the given variable, which
// starts at zero.
//
// Two interleaved counters are the smallest interesting composition.
func CounterSpec(name, variable string) *Spec {
	return &Spec{
		Name:    name,
		Initial: "loc",
		Vars: map[string]interface{}{
			variable: 0,
		},
		Locations: map[string]*LocationSpec{
			"loc": {
				Edges: []*EdgeSpec{
					{
						Action: "tick",
						StepSpec: StepSpec{
							UpdateExprs: map[string]Expr{
								variable: increment(variable),
							},
						},
						Target: "loc",
					},
				},
			},
		},
	}
}

// TurnstileSpec makes an example Spec that's useful to have around.
// It counts the coins it has eaten.
//
// See https://en.wikipedia.org/wiki/Finite-state_machine#Example:_coin-operated_turnstile.
func TurnstileSpec() *Spec {
	coin := func(target string) *EdgeSpec {
		return &EdgeSpec{
			Action: "coin",
			StepSpec: StepSpec{
				UpdateExprs: map[string]Expr{
					"coins": increment("coins"),
				},
			},
			Target: target,
		}
	}
	push := func(target string) *EdgeSpec {
		return &EdgeSpec{
			Action: "push",
			Target: target,
		}
	}

	return &Spec{
		Name:    "turnstile",
		Initial: "locked",
		Vars: map[string]interface{}{
			"coins": 0,
		},
		Locations: map[string]*LocationSpec{
			"locked": {
				Edges: []*EdgeSpec{coin("unlocked"), push("locked")},
			},
			"unlocked": {
				Edges: []*EdgeSpec{coin("unlocked"), push("locked")},
			},
		},
	}
}
