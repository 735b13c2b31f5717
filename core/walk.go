package core

import (
	"context"
	"errors"
)

var (
	// DefaultControl will be used by Walk if the given control is
	// nil.
	DefaultControl = &Control{
		Limit: 100,
	}
)

// StopReason represents the possible reasons for a Walk to terminate.
type StopReason int

const (
	Done              StopReason = iota // Consumed every Interaction.
	Limited                             // Too many steps.
	BreakpointReached                   // During a Walk.
	Disabled                            // The next Interaction wasn't enabled.
)

func (r StopReason) String() string {
	switch r {
	case Done:
		return "Done"
	case Limited:
		return "Limited"
	case BreakpointReached:
		return "BreakpointReached"
	case Disabled:
		return "Disabled"
	default:
		return "StopReason(" + itoa(int(r)) + ")"
	}
}

// Breakpoint is a State predicate.
//
// When a Breakpoint returns true for a State, then processing should
// stop at that point.
type Breakpoint func(context.Context, State) bool

// Control influences how Walk() operates.
type Control struct {
	// Limit is the maximum number of steps that a Walk() can take.
	Limit       int
	Breakpoints map[string]Breakpoint

	// Interner, if not nil, interns every State the Walk reaches.
	Interner *Interner
}

func (c *Control) Copy() *Control {
	bs := make(map[string]Breakpoint, len(c.Breakpoints))
	for id, b := range c.Breakpoints {
		bs[id] = b
	}
	return &Control{
		Limit:       c.Limit,
		Breakpoints: bs,
		Interner:    c.Interner,
	}
}

// Stride represents a step that Walk has taken.
type Stride struct {
	From        State       `json:"from,omitempty"`
	Interaction Interaction `json:"interaction,omitempty"`
	To          State       `json:"to,omitempty"`
}

// Walked represents a sequence of strides taken by a Walk().
type Walked struct {
	Strides []*Stride `json:"strides"`

	// Remaining stores the Interactions that Walk didn't get to.
	Remaining []Interaction `json:"remaining,omitempty"`

	// StoppedBecause reports the reason why the Walk stopped.
	StoppedBecause StopReason `json:"stoppedBecause"`

	// BreakpointId is the id of the breakpoint, if any, that
	// caused this Walk to stop.
	BreakpointId string `json:"breakpoint,omitempty"`
}

// To returns the last State reached, if any.
func (w *Walked) To() State {
	if 0 == len(w.Strides) {
		return nil
	}
	return w.Strides[len(w.Strides)-1].To
}

func newWalked(siz int) *Walked {
	max := 1024
	if max < siz {
		siz = max
	}
	return &Walked{
		Strides: make([]*Stride, 0, siz),
	}
}

// choose resolves Forward: if Forward itself isn't enabled, the first
// enabled Interaction is taken instead.
func choose(p Process, st State, i Interaction) (Interaction, error) {
	if i == nil || !i.Equal(Forward) {
		return i, nil
	}
	is, err := p.Enabled(st)
	if err != nil {
		return nil, err
	}
	for _, j := range is {
		if j.Equal(Forward) {
			return j, nil
		}
	}
	if 0 < len(is) {
		return is[0], nil
	}
	return i, nil
}

// Walk offers the given Interactions to the Process one at a time,
// starting at st.
//
// A disabled Interaction stops the Walk (StoppedBecause is Disabled)
// without an error.  Any returned error came from the Process (say
// from an expression) or from the context.
func Walk(ctx context.Context, p Process, st State, pending []Interaction, c *Control) (*Walked, error) {
	if c == nil {
		c = DefaultControl
	}

	walked := newWalked(len(pending))

	for n := 0; 0 < len(pending); n++ {
		if err := ctx.Err(); err != nil {
			walked.Remaining = pending
			return walked, err
		}
		if c.Limit <= n {
			walked.StoppedBecause = Limited
			walked.Remaining = pending
			return walked, nil
		}
		for id, breakpoint := range c.Breakpoints {
			if breakpoint(ctx, st) {
				walked.StoppedBecause = BreakpointReached
				walked.BreakpointId = id
				walked.Remaining = pending
				return walked, nil
			}
		}

		i, err := choose(p, st, pending[0])
		if err != nil {
			walked.Remaining = pending
			return walked, err
		}

		next, err := p.Transition(st, i)
		if err != nil {
			walked.Remaining = pending
			var disabled *DisabledInteraction
			if errors.As(err, &disabled) {
				walked.StoppedBecause = Disabled
				return walked, nil
			}
			return walked, err
		}
		if c.Interner != nil {
			next = c.Interner.InternState(next)
		}

		walked.Strides = append(walked.Strides, &Stride{
			From:        st,
			Interaction: i,
			To:          next,
		})
		pending = pending[1:]
		st = next
	}

	walked.StoppedBecause = Done
	return walked, nil
}
