package core

// Synchronization is an optional alternative to Interleaving for
// processes that rendezvous on shared labels (CSP's P [|A|] Q).
//
// Interactions outside the alphabet interleave exactly as they do in
// an Interleaving.  An Interaction in the alphabet is enabled only
// when every component has it enabled, and then every component takes
// it in the same step.
type Synchronization struct {
	Interleaving
	alphabet *Set
}

// Synchronize composes the given Processes, which synchronize on the
// given alphabet.
func Synchronize(alphabet []Interaction, ps ...Process) *Synchronization {
	a := NewSet()
	for _, i := range alphabet {
		a.Add(i)
	}
	return &Synchronization{
		Interleaving: *Interleave(ps...),
		alphabet:     a,
	}
}

// Synchronizes reports whether i is in the alphabet.
func (c *Synchronization) Synchronizes(i Interaction) bool {
	return i != nil && c.alphabet.Has(i)
}

// Enabled returns the enabled Interactions in component order.
func (c *Synchronization) Enabled(s State) ([]Interaction, error) {
	t, err := c.tuple(s)
	if err != nil {
		return nil, err
	}
	var (
		acc   []Interaction
		count = make([]int, c.alphabet.Len())
	)
	for j, p := range c.ps {
		is, err := p.Enabled(t.At(j))
		if err != nil {
			return nil, err
		}
		for _, i := range dedupInteractions(is) {
			if !c.Synchronizes(i) {
				acc = append(acc, i)
				continue
			}
			for k, x := range c.alphabet.items {
				if x.Equal(i) {
					count[k]++
				}
			}
		}
	}
	for k, x := range c.alphabet.items {
		if n := count[k]; 0 < n && n == len(c.ps) {
			acc = append(acc, x.(Interaction))
		}
	}
	return dedupInteractions(acc), nil
}

// Transition moves every component on an alphabet Interaction and
// otherwise behaves like Interleaving.Transition.  With no
// components, nothing is enabled.
func (c *Synchronization) Transition(s State, i Interaction) (State, error) {
	if !c.Synchronizes(i) {
		return c.Interleaving.Transition(s, i)
	}
	t, err := c.tuple(s)
	if err != nil {
		return nil, err
	}
	if len(c.ps) == 0 {
		return nil, &DisabledInteraction{State: s, Interaction: i}
	}
	elems := make([]State, len(c.ps))
	for j, p := range c.ps {
		enabled, err := IsEnabled(p, t.At(j), i)
		if err != nil {
			return nil, err
		}
		if !enabled {
			return nil, &DisabledInteraction{State: s, Interaction: i}
		}
		if elems[j], err = p.Transition(t.At(j), i); err != nil {
			return nil, err
		}
	}
	return newTupleState(elems), nil
}

// Successors returns every joint outcome of an alphabet Interaction
// and otherwise behaves like Interleaving.Successors.
func (c *Synchronization) Successors(s State, i Interaction) ([]State, error) {
	if !c.Synchronizes(i) {
		return c.Interleaving.Successors(s, i)
	}
	t, err := c.tuple(s)
	if err != nil {
		return nil, err
	}
	if len(c.ps) == 0 {
		return nil, &DisabledInteraction{State: s, Interaction: i}
	}
	// Cartesian product of each component's successors.
	acc := [][]State{{}}
	for j, p := range c.ps {
		enabled, err := IsEnabled(p, t.At(j), i)
		if err != nil {
			return nil, err
		}
		if !enabled {
			return nil, &DisabledInteraction{State: s, Interaction: i}
		}
		nexts, err := Successors(p, t.At(j), i)
		if err != nil {
			return nil, err
		}
		more := make([][]State, 0, len(acc)*len(nexts))
		for _, prefix := range acc {
			for _, next := range nexts {
				elems := make([]State, len(prefix), len(c.ps))
				copy(elems, prefix)
				more = append(more, append(elems, next))
			}
		}
		acc = more
	}
	ss := make([]State, len(acc))
	for j, elems := range acc {
		ss[j] = newTupleState(elems)
	}
	return dedupStates(ss), nil
}
