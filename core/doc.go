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

// Package core provides the core gear for symbolic processes:
// labeled transition systems whose behavior is given by control-flow
// graphs over typed variables.
//
// A Process has an initial State, a set of enabled Interactions in
// each State, and a pure Transition function.  Everything that the
// engine produces (States, Interactions, Values) is Canonical, so it
// can be compared with Equal and put into hash tables by Hash.
//
// The primary type is SymbolicProcess.  Build a Graph of Locations
// and Edges, where each Edge has an action label, a guard, and a
// simultaneous Update of variables.  Seal the Graph and hand it to
// NewSymbolicProcess along with initial variable values and any child
// processes.  A child sees its ancestors' variables, and it can
// update them.  An atomic Edge (NewAtomicEdge) runs several guarded
// updates as one indivisible step.
//
// Processes compose.  Interleave makes a Process whose steps are
// steps of exactly one component.  Synchronize additionally makes
// components move together on a shared alphabet.
//
// Alternately, write a Spec (in YAML or JSON, say) and Compile it.
// Expression sources in a Spec are compiled by an Interpreter (see
// the interpreters package).
//
// Given a Process, a State, and a sequence of Interactions, Walk
// goes as far as it can.
package core
