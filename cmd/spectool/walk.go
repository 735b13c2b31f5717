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

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Comcast/tandem/core"
	"github.com/Comcast/tandem/interpreters"
	"github.com/Comcast/tandem/storage"
	"github.com/Comcast/tandem/storage/bolt"
)

// Walker compiles the spec and walks it through a list of actions.
//
// With a database, the strides are recorded under a run id, and a
// later walk with the same run id continues from where the last one
// stopped.
type Walker struct {
	Actions string
	Limit   int
	DB      string
	Rid     string
	Debug   bool

	out io.Writer
}

func (m *Walker) Reports() {}

func (m *Walker) Doc() string {
	return `
Compiles the spec with the standard interpreters and offers it the given
comma-separated actions.  "forward" takes the first enabled action.`
}

func (m *Walker) Flags() *flag.FlagSet {
	fs := flag.NewFlagSet("walk", flag.PanicOnError)
	fs.StringVar(&m.Actions, "a", "", "comma-separated actions")
	fs.IntVar(&m.Limit, "l", core.DefaultControl.Limit, "maximum number of steps")
	fs.StringVar(&m.DB, "db", "", "optional BoltDB file for recording")
	fs.StringVar(&m.Rid, "r", "run", "run id")
	fs.BoolVar(&m.Debug, "d", false, "log storage operations")
	return fs
}

func (m *Walker) storage() (storage.Storage, error) {
	if m.DB == "" {
		return &storage.NoopStorage{}, nil
	}
	s, err := bolt.NewStorage(m.DB)
	if err != nil {
		return nil, err
	}
	s.Debug = m.Debug
	return s, nil
}

func actions(s string) []core.Interaction {
	var acc []core.Interaction
	for _, a := range strings.Split(s, ",") {
		if a = strings.TrimSpace(a); a != "" {
			acc = append(acc, core.A(a))
		}
	}
	return acc
}

func (m *Walker) F(ctx context.Context, s *core.Spec) error {
	out := m.out
	if out == nil {
		out = os.Stdout
	}

	p, err := s.Compile(ctx, interpreters.Standard())
	if err != nil {
		return err
	}

	st, err := m.storage()
	if err != nil {
		return err
	}
	if err = st.Open(ctx); err != nil {
		return err
	}
	defer st.Close(ctx)

	// Replay any recorded strides to get back to where the run
	// stopped.
	have, err := st.GetRun(ctx, m.Rid)
	if err != nil {
		return err
	}
	from := p.Initial()
	if 0 < len(have) {
		replay := make([]core.Interaction, len(have))
		for i, r := range have {
			replay[i] = core.A(r.Interaction)
		}
		w, err := core.Walk(ctx, p, from, replay, &core.Control{Limit: len(replay)})
		if err != nil {
			return err
		}
		if w.StoppedBecause != core.Done || w.To().Hash() != have[len(have)-1].Hash {
			return fmt.Errorf("run %s doesn't replay", m.Rid)
		}
		from = w.To()
		fmt.Fprintf(out, "resuming %s at %s\n", m.Rid, from)
	}

	w, err := core.Walk(ctx, p, from, actions(m.Actions), &core.Control{
		Limit:    m.Limit,
		Interner: core.DefaultInterner,
	})
	if err != nil {
		return err
	}

	for i, stride := range w.Strides {
		fmt.Fprintf(out, "%02d %-10s → %s\n", len(have)+i, stride.Interaction, stride.To)
	}
	fmt.Fprintf(out, "%s %v\n", w.StoppedBecause, w.Remaining)

	if w.StoppedBecause == core.Disabled {
		at := from
		if w.To() != nil {
			at = w.To()
		}
		enabled, err := p.Enabled(at)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "enabled: %v\n", enabled)
	}

	_, err = storage.Append(ctx, st, m.Rid, w)
	return err
}
