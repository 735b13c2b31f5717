/* Copyright 2018 Comcast Cable Communications Management, LLC
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

// Package main is a command-line process debugger in the spirit of gdb.
//
// The debugger holds a crew of processes, each compiled from a spec
// file, and steps them together.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/Comcast/tandem/core"
	"github.com/Comcast/tandem/crew"
	"github.com/Comcast/tandem/interpreters"
	"github.com/Comcast/tandem/util"
)

type Opts struct {
	specDir string
	echo    bool
}

func main() {

	opts := &Opts{}
	flag.StringVar(&opts.specDir, "s", "specs", "spec directory")
	flag.BoolVar(&opts.echo, "e", false, "echo input")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := NewHost(opts.specDir)
	if err := h.Run(ctx, os.Stdin, os.Stdout, opts.echo); err != nil {
		panic(err)
	}
}

var (
	setSpec = regexp.MustCompile("^set +([-a-zA-Z0-9_]+) +spec +(.*)")

	reloadSpec = regexp.MustCompile("^reload +([-a-zA-Z0-9_]+)")

	rem = regexp.MustCompile("^(rem|del|remove|delete) +([-a-zA-Z0-9_]+)")

	print = regexp.MustCompile("^print( +([-a-zA-Z0-9_]+))?$")

	enabled = regexp.MustCompile("^enabled$")

	run = regexp.MustCompile("^(run|do)( +([^ ]+))?$")

	branches = regexp.MustCompile("^branches +([^ ]+)$")

	walk = regexp.MustCompile("^walk +(.*)")

	syncOn = regexp.MustCompile("^sync( +(.*))?$")

	back = regexp.MustCompile("^back$")

	help = regexp.MustCompile("^(help|h|\\?)$")

	save = regexp.MustCompile("^save +(.*)")

	load = regexp.MustCompile("^load +(.*)")

	debug = regexp.MustCompile("^debug(ging)? (on|off)")
)

// Host is the debugger's state.
type Host struct {
	ctl          *core.Control
	interpreters map[string]core.Interpreter
	provider     crew.SpecProvider
	crew         *crew.Crew

	// trail is the actions the crew has taken.  Saved with the
	// crew so that load can replay them.
	trail []string

	// history holds crew copies for "back".
	history []*crewSnapshot
}

type crewSnapshot struct {
	crew  *crew.Crew
	trail []string
}

func NewHost(specDir string) *Host {
	return &Host{
		ctl:          &core.Control{Limit: core.DefaultControl.Limit, Interner: core.DefaultInterner},
		provider:     &crew.DirSpecProvider{Dir: specDir},
		crew:         crew.NewCrew("mdb"),
		interpreters: interpreters.Standard(),
	}
}

func (h *Host) remember() {
	h.history = append(h.history, &crewSnapshot{
		crew:  h.crew.Copy(),
		trail: append([]string(nil), h.trail...),
	})
}

// Saved is what save writes and load reads.
type Saved struct {
	Machines map[string]*crew.SpecSource `json:"machines"`
	Alphabet []string                    `json:"alphabet,omitempty"`
	Trail    []string                    `json:"trail,omitempty"`
}

func (h *Host) Run(ctx context.Context, in io.Reader, w io.Writer, echo bool) error {

	var (
		outputPrefix = "# "

		say = func(format string, args ...interface{}) {
			fmt.Fprintf(w, outputPrefix+format+"\n", args...)
		}

		protest = func(format string, args ...interface{}) {
			say("error: "+format, args...)
		}

		setSpecHistory = make(map[string]string)

		step = func(action string) {
			i := core.Interaction(core.Forward)
			if action != "" {
				i = core.A(action)
			}
			if i.Equal(core.Forward) {
				is, err := h.crew.Enabled(ctx)
				if err != nil {
					protest("%s", err)
					return
				}
				if len(is) == 0 {
					protest("nothing is enabled")
					return
				}
				i = is[0]
			}
			h.remember()
			moved, err := h.crew.Step(ctx, i)
			if err != nil {
				h.history = h.history[:len(h.history)-1]
				protest("%s", err)
				return
			}
			h.trail = append(h.trail, i.String())
			for _, id := range moved {
				m, _ := h.crew.Get(id)
				say("%s %s → %s", id, i, m.State)
			}
		}
	)

	r := bufio.NewReader(in)
	for {
		line, err := r.ReadString('\n')
		if err != nil && err != io.EOF {
			return err
		}
		eof := err == io.EOF
		line = strings.TrimSpace(line)

		if echo && line != "" {
			fmt.Fprintln(w, line)
		}

		if err := h.do(ctx, line, say, protest, step, setSpecHistory); err != nil {
			return err
		}

		if eof {
			return nil
		}
	}
}

func (h *Host) do(ctx context.Context, line string, say, protest func(string, ...interface{}), step func(string), setSpecHistory map[string]string) error {
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	var ss []string

	if ss = help.FindStringSubmatch(line); 0 < len(ss) {
		for _, s := range strings.Split(doc(), "\n") {
			say("%s", s)
		}
		return nil
	}
	if ss = reloadSpec.FindStringSubmatch(line); 0 < len(ss) {
		id := ss[1]
		filename, have := setSpecHistory[id]
		if !have {
			protest("no spec filename history for '%s'", id)
			return nil
		}
		line = fmt.Sprintf("set %s spec %s", id, filename)
		say("reloading spec for '%s' from %s", id, filename)
		// Fall through!
	}
	if ss = setSpec.FindStringSubmatch(line); 0 < len(ss) {
		id := ss[1]
		specFilename := ss[2]
		m, err := crew.Load(ctx, h.provider, h.interpreters, id, crew.NewSpecSource(specFilename))
		if err != nil {
			protest("couldn't load spec %s: %s", specFilename, err)
			return nil
		}
		setSpecHistory[id] = specFilename
		h.remember()
		h.crew.Put(m)
		say("crew now has %d machines", len(h.crew.Ids()))
		return nil
	}
	if ss = rem.FindStringSubmatch(line); 0 < len(ss) {
		h.remember()
		if err := h.crew.Remove(ss[2]); err != nil {
			h.history = h.history[:len(h.history)-1]
			protest("%s", err)
			return nil
		}
		say("crew now has %d machines", len(h.crew.Ids()))
		return nil
	}
	if ss = enabled.FindStringSubmatch(line); 0 < len(ss) {
		is, err := h.crew.Enabled(ctx)
		if err != nil {
			protest("%s", err)
			return nil
		}
		say("enabled: %v", is)
		return nil
	}
	if ss = run.FindStringSubmatch(line); 0 < len(ss) {
		step(ss[3])
		return nil
	}
	if ss = branches.FindStringSubmatch(line); 0 < len(ss) {
		next, err := h.crew.Successors(ctx, core.A(ss[1]))
		if err != nil {
			protest("%s", err)
			return nil
		}
		for i, s := range next {
			say("%d. %s", i, s)
		}
		return nil
	}
	if ss = walk.FindStringSubmatch(line); 0 < len(ss) {
		var is []core.Interaction
		for _, a := range strings.Fields(ss[1]) {
			is = append(is, core.A(a))
		}
		h.remember()
		walked, err := h.crew.Walk(ctx, is, h.ctl)
		if err != nil {
			protest("walk failed: %s", err)
		}
		if walked == nil {
			return nil
		}
		Render(say, walked)
		for _, stride := range walked.Strides {
			h.trail = append(h.trail, stride.Interaction.String())
		}
		return nil
	}
	if ss = syncOn.FindStringSubmatch(line); 0 < len(ss) {
		h.remember()
		h.crew.Lock()
		h.crew.Alphabet = strings.Fields(ss[2])
		h.crew.Unlock()
		say("synchronizing on %v", strings.Fields(ss[2]))
		return nil
	}
	if ss = back.FindStringSubmatch(line); 0 < len(ss) {
		if len(h.history) == 0 {
			protest("no history")
			return nil
		}
		last := h.history[len(h.history)-1]
		h.history = h.history[:len(h.history)-1]
		h.crew = last.crew
		h.trail = last.trail
		say("back to %d actions", len(h.trail))
		return nil
	}
	if ss = debug.FindStringSubmatch(line); 0 < len(ss) {
		switch ss[2] {
		case "on":
			util.Logging = true
			say("debugging")
		case "off":
			util.Logging = false
			say("not debugging")
		}
		return nil
	}
	if ss = print.FindStringSubmatch(line); 0 < len(ss) {
		id := ss[2]
		printer := func(id string) error {
			m, err := h.crew.Get(id)
			if err != nil {
				return err
			}
			say("  state: %s", m.State)
			if m.SpecSource != nil {
				say("  spec:  %s", m.SpecSource.Name)
			}
			return nil
		}
		if id == "" {
			for _, id := range h.crew.Ids() {
				say("machine %s:", id)
				if err := printer(id); err != nil {
					protest("%s", err)
				}
			}
			return nil
		}

		if err := printer(id); err != nil {
			protest("%s", err)
		}
		return nil
	}

	if ss = save.FindStringSubmatch(line); 0 < len(ss) {
		filename := ss[1]
		c := h.crew.Copy()
		saved := &Saved{
			Machines: make(map[string]*crew.SpecSource, len(c.Machines)),
			Alphabet: c.Alphabet,
			Trail:    h.trail,
		}
		for id, m := range c.Machines {
			saved.Machines[id] = m.SpecSource
		}
		replayed, err := h.rebuild(ctx, saved)
		if err != nil {
			protest("crew can't be saved: %s", err)
			return nil
		}
		for id, m := range c.Machines {
			r, err := replayed.Get(id)
			if err != nil || !r.State.Equal(m.State) {
				protest("crew can't be saved: replay puts %s somewhere else", id)
				return nil
			}
		}
		js, err := json.MarshalIndent(saved, "  ", "  ")
		if err != nil {
			return err // Internal error
		}
		if err = os.WriteFile(filename, js, 0644); err != nil {
			protest("writing file: %s", err)
			return nil
		}
		say("saved %d machines and %d actions", len(saved.Machines), len(saved.Trail))
		return nil
	}

	if ss = load.FindStringSubmatch(line); 0 < len(ss) {
		filename := ss[1]
		js, err := os.ReadFile(filename)
		if err != nil {
			protest("reading file '%s': %s", filename, err)
			return nil
		}
		var saved Saved
		if err = json.Unmarshal(js, &saved); err != nil {
			protest("loading data %s: %s", filename, err)
			return nil
		}
		c, err := h.rebuild(ctx, &saved)
		if err != nil {
			protest("loading %s: %s", filename, err)
			return nil
		}
		h.remember()
		h.crew = c
		h.trail = saved.Trail
		say("crew now has %d machines after %d actions", len(c.Ids()), len(h.trail))
		return nil
	}

	protest("unsupported command: %s", line)
	return nil
}

// rebuild makes a new crew from the saved sources and replays the
// saved actions.
func (h *Host) rebuild(ctx context.Context, saved *Saved) (*crew.Crew, error) {
	c := crew.NewCrew("mdb")
	c.Alphabet = saved.Alphabet
	for id, src := range saved.Machines {
		if src == nil {
			return nil, fmt.Errorf("machine %s has no spec source", id)
		}
		m, err := crew.Load(ctx, h.provider, h.interpreters, id, src)
		if err != nil {
			return nil, err
		}
		c.Put(m)
	}
	is := make([]core.Interaction, len(saved.Trail))
	for i, a := range saved.Trail {
		is[i] = core.A(a)
	}
	walked, err := c.Walk(ctx, is, &core.Control{Limit: len(is)})
	if err != nil {
		return nil, err
	}
	if walked.StoppedBecause != core.Done {
		return nil, fmt.Errorf("replay stopped: %s", walked.StoppedBecause)
	}
	return c, nil
}

func doc() string {
	return `
  set ID spec FILENAME       Set the spec for the machine with that ID
  reload ID                  Reload the last spec for the machine with that ID
  rem ID                     Remove the machine with that ID
  print [ID]                 Print the state of the machine with that ID
  enabled                    Show the actions the crew can take
  run [ACTION]               Take the action (default: the first enabled)
  branches ACTION            Show every state that the action could reach
  walk ACTION...             Take the actions until one isn't enabled
  sync [ACTION...]           Make every machine take these actions together
  back                       Undo the last change
  save FILENAME              Save the crew machines and actions to this file
  load FILENAME              Load the crew machines and actions from this file
  debug on/off               When debugging, log crew steps
  help                       Show this documentation
`
}

func Render(say func(string, ...interface{}), walked *core.Walked) {
	for i, stride := range walked.Strides {
		say("  %02d %-10s → %s", i, stride.Interaction, stride.To)
	}
	say("  stopped %v %v", walked.StoppedBecause, walked.Remaining)
}
