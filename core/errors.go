package core

// These errors indicate bugs in whatever built a graph or drove a
// process.  Nothing here is transient, so nothing here is retried.

import (
	"errors"
	"fmt"
)

// InterpreterNotFound occurs when you try to Compile an ExprSource,
// and the required interpreter isn't in the given map of
// interpreters.
var InterpreterNotFound = errors.New("interpreter not found")

// StructuralError occurs when building a Graph would break the
// graph's shape: adding an edge to a sealed location, pointing an edge
// at a location in another graph, or assigning the same variable twice
// in one Update.
type StructuralError struct {
	Graph    string
	Location string
	Problem  string
}

func (e *StructuralError) Error() string {
	msg := "structural error"
	if e.Graph != "" {
		msg += ` in graph "` + e.Graph + `"`
	}
	if e.Location != "" {
		msg += ` at location "` + e.Location + `"`
	}
	return msg + ": " + e.Problem
}

// OwnershipError occurs when a Graph or a SymbolicProcess is used in
// a way its owner doesn't allow, like handing an unsealed Graph to a
// SymbolicProcess or adopting a child that already has a parent.
type OwnershipError struct {
	Process string
	Problem string
}

func (e *OwnershipError) Error() string {
	return `ownership error for process "` + e.Process + `": ` + e.Problem
}

// DisabledInteraction occurs when Transition is given an Interaction
// that isn't enabled in the given State.
type DisabledInteraction struct {
	State       State
	Interaction Interaction
}

func (e *DisabledInteraction) Error() string {
	i, s := "nil", "nil"
	if e.Interaction != nil {
		i = e.Interaction.String()
	}
	if e.State != nil {
		s = e.State.String()
	}
	return `interaction "` + i + `" not enabled in ` + s
}

// UnknownState occurs when a Process is given a State that it could
// not have produced.
type UnknownState struct {
	Process string
	State   State
}

func (e *UnknownState) Error() string {
	s := "nil"
	if e.State != nil {
		s = e.State.String()
	}
	return `process "` + e.Process + `" doesn't know state ` + s
}

// UndeclaredVariable occurs when an expression or update refers to a
// variable that no enclosing scope declares.
type UndeclaredVariable struct {
	Name    string
	Process string
}

func (e *UndeclaredVariable) Error() string {
	msg := `undeclared variable "` + e.Name + `"`
	if e.Process != "" {
		msg += ` in process "` + e.Process + `"`
	}
	return msg
}

// TypeError occurs when a value doesn't have the required type.
type TypeError struct {
	Value interface{}
	Want  string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("%v (%T) isn't a %s", e.Value, e.Value, e.Want)
}

// UnknownLocation occurs when an edge's target isn't a location in the
// Spec.
type UnknownLocation struct {
	Spec     string
	Location string
}

func (e *UnknownLocation) Error() string {
	return `location "` + e.Location + `" not found in spec "` + e.Spec + `"`
}
