package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/Comcast/tandem/core"
	"github.com/Comcast/tandem/tools"

	"github.com/jsccast/yaml"
)

var Mods = map[string]Mod{
	"addEdges":    &AddEdgesMod{},
	"addTerminal": &AddTerminalMod{},
	"addSequence": &AddSequenceMod{},
	"analyze":     &Analyzer{},
	"check":       &Checker{},
	"graph":       &Grapher{},
	"mermaid":     &Mermaider{},
	"html":        &Renderer{},
	"walk":        &Walker{},
}

var (
	NoTargetLocation = errors.New("no target location")
	LocationExists   = errors.New("location exists")
)

type Mod interface {
	F(context.Context, *core.Spec) error
	Doc() string
	Flags() *flag.FlagSet
}

// Reporter is a Mod that writes its own output instead of the
// modified spec.
type Reporter interface {
	Mod
	Reports()
}

// AddEdges adds an edge to each location in the Spec that already
// has edges.  The added edges have the given action, guard, and
// target.
//
// The Spec's Doc is updated to note that this processing has occurred.
func AddEdges(s *core.Spec, action string, guard interface{}, target string) error {
	if _, have := s.Locations[target]; !have {
		return NoTargetLocation
	}

	for name, l := range s.Locations {
		if l == nil {
			l = &core.LocationSpec{}
			s.Locations[name] = l
		}
		if len(l.Edges) == 0 {
			continue
		}
		e := &core.EdgeSpec{
			Action: action,
			Target: target,
		}
		e.Guard = guard
		l.Edges = append(l.Edges, e)
	}

	s.Doc = s.Doc + fmt.Sprintf(`

This spec has been processed by AddEdges with action "%s" and target "%s".
`, action, target)

	return nil
}

type AddEdgesMod struct {
	Action     string
	GuardJS    string
	Target     string
	ParseGuard bool
}

func (c *AddEdgesMod) Doc() string {
	return `
Adds an additional edge to every location that has edges. The edge has the
specified action, guard, and target.
`
}

func (c *AddEdgesMod) Flags() *flag.FlagSet {
	flags := flag.NewFlagSet("addEdges", flag.PanicOnError)

	flags.StringVar(&c.Action, "a", "cancel", "action")
	flags.StringVar(&c.GuardJS, "g", "", "guard")
	flags.StringVar(&c.Target, "t", "cancel", "target")
	flags.BoolVar(&c.ParseGuard, "P", false, "parse the guard as JSON")

	return flags
}

func (c *AddEdgesMod) F(ctx context.Context, s *core.Spec) error {
	var guard interface{}

	switch {
	case c.GuardJS == "":
	case c.ParseGuard:
		if err := json.Unmarshal([]byte(c.GuardJS), &guard); err != nil {
			return err
		}
	default:
		guard = c.GuardJS
	}

	return AddEdges(s, c.Action, guard, c.Target)
}

// TerminalLocationYAML is a location with no way out.
var TerminalLocationYAML = `
doc: |-
  Nothing is enabled here.  Added by spectool addTerminal.
`

// AddTerminal adds a location as given by TerminalLocationYAML.
func AddTerminal(s *core.Spec, name string) error {
	if _, have := s.Locations[name]; have {
		return LocationExists
	}

	var l core.LocationSpec
	if err := yaml.Unmarshal([]byte(TerminalLocationYAML), &l); err != nil {
		return err
	}

	if s.Locations == nil {
		s.Locations = make(map[string]*core.LocationSpec, 32)
	}

	s.Locations[name] = &l

	return nil
}

type AddTerminalMod struct {
	Name string
}

func (m *AddTerminalMod) Doc() string {
	return `
Adds a terminal location, which has no edges.  Use with addEdges to give
every location a way to stop.
`
}

func (m *AddTerminalMod) Flags() *flag.FlagSet {
	flags := flag.NewFlagSet("addTerminal", flag.PanicOnError)
	flags.StringVar(&m.Name, "n", "cancel", "location name")
	return flags
}

func (m *AddTerminalMod) F(ctx context.Context, s *core.Spec) error {
	return AddTerminal(s, m.Name)
}

// AddSequence adds a chain of locations that take the given actions
// in order, ending at the end location.  The locations are named
// prefix00, prefix01, and so on.
func AddSequence(s *core.Spec, prefix string, actions []string, end string) error {
	if _, have := s.Locations[end]; !have {
		return NoTargetLocation
	}

	name := func(i int) string {
		return fmt.Sprintf("%s%02d", prefix, i)
	}

	for i := range actions {
		if _, have := s.Locations[name(i)]; have {
			return LocationExists
		}
	}

	for i, action := range actions {
		target := end
		if i+1 < len(actions) {
			target = name(i + 1)
		}
		s.Locations[name(i)] = &core.LocationSpec{
			Edges: []*core.EdgeSpec{
				{
					Action: action,
					Target: target,
				},
			},
		}
	}

	return nil
}

type AddSequenceMod struct {
	Prefix    string
	ActionsJS string
	End       string
}

// spectool addSequence -p 'lunch_' -e done -a '["order","eat","pay"]'

func (m *AddSequenceMod) F(ctx context.Context, s *core.Spec) error {
	var actions []string
	if err := json.Unmarshal([]byte(m.ActionsJS), &actions); err != nil {
		return err
	}
	if m.End == "" {
		return fmt.Errorf("need an end location (-e)")
	}
	return AddSequence(s, m.Prefix, actions, m.End)
}

func (m *AddSequenceMod) Doc() string {
	return `
Adds a chain of locations that take the given actions (a JSON array) in
order and then go to the end location.
`
}

func (m *AddSequenceMod) Flags() *flag.FlagSet {
	flags := flag.NewFlagSet("addSequence", flag.PanicOnError)
	flags.StringVar(&m.Prefix, "p", "seq_", "prefix for location names")
	flags.StringVar(&m.ActionsJS, "a", "[]", "actions as a JSON array")
	flags.StringVar(&m.End, "e", "", "name for the following location")
	return flags
}

type Analyzer struct {
}

func (m *Analyzer) Reports() {}

func (m *Analyzer) F(ctx context.Context, s *core.Spec) error {
	a, err := tools.Analyze(s)
	if err != nil {
		return err
	}
	bs, err := yaml.Marshal(&a)
	if err != nil {
		return err
	}
	fmt.Printf("%s\n", bs)

	if !a.OK() {
		return fmt.Errorf("%d problems", len(a.Errors))
	}
	return nil
}

func (m *Analyzer) Doc() string {
	return "Writes a YAML analysis of the spec."
}

func (m *Analyzer) Flags() *flag.FlagSet {
	return flag.NewFlagSet("analyze", flag.PanicOnError)
}

type Checker struct {
}

func (m *Checker) F(ctx context.Context, s *core.Spec) error {
	return tools.Check(ctx, s)
}

func (m *Checker) Doc() string {
	return "Compiles the spec without running any code and passes it through."
}

func (m *Checker) Flags() *flag.FlagSet {
	return flag.NewFlagSet("check", flag.PanicOnError)
}

// output opens the named file, or stdout if the name is "-".
func output(filename string) (io.WriteCloser, error) {
	if filename == "-" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(filename)
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

type Grapher struct {
	OutputFilename string
	From, To       string
}

func (m *Grapher) Reports() {}

func (m *Grapher) F(ctx context.Context, s *core.Spec) error {
	f, err := output(m.OutputFilename)
	if err != nil {
		return err
	}

	return tools.Dot(s, f, m.From, m.To) // Will Close f.
}

func (m *Grapher) Doc() string {
	return "Writes a Graphviz dot file for the spec."
}

func (m *Grapher) Flags() *flag.FlagSet {
	fs := flag.NewFlagSet("graph", flag.PanicOnError)
	fs.StringVar(&m.OutputFilename, "o", "spec.dot", "output filename")
	fs.StringVar(&m.From, "f", "", "highlight the edge from this location")
	fs.StringVar(&m.To, "t", "", "highlight this location")
	return fs
}

type Mermaider struct {
	OutputFilename string
	Opts           tools.MermaidOpts
}

func (m *Mermaider) Reports() {}

func (m *Mermaider) F(ctx context.Context, s *core.Spec) error {
	f, err := output(m.OutputFilename)
	if err != nil {
		return err
	}
	return tools.Mermaid(s, f, &m.Opts, "", "")
}

func (m *Mermaider) Doc() string {
	return "Writes a Mermaid flowchart for the spec."
}

func (m *Mermaider) Flags() *flag.FlagSet {
	fs := flag.NewFlagSet("mermaid", flag.PanicOnError)
	fs.StringVar(&m.OutputFilename, "o", "spec.mermaid", "output filename")
	fs.BoolVar(&m.Opts.ShowUpdates, "u", true, "show updates")
	fs.BoolVar(&m.Opts.ShowGuards, "g", true, "show guards")
	fs.StringVar(&m.Opts.AtomicFill, "c", "#bcf2db", "fill color for locations with atomic edges")
	return fs
}

type Renderer struct {
	OutputFilename string
	CSS            string
	Graph          bool
}

func (m *Renderer) Reports() {}

func (m *Renderer) F(ctx context.Context, s *core.Spec) error {
	if err := tools.Check(ctx, s); err != nil {
		return err
	}
	f, err := output(m.OutputFilename)
	if err != nil {
		return err
	}
	if err = tools.RenderSpecPage(s, f, []string{m.CSS}, m.Graph); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (m *Renderer) Doc() string {
	return "Renders the spec as an HTML page."
}

func (m *Renderer) Flags() *flag.FlagSet {
	fs := flag.NewFlagSet("html", flag.PanicOnError)
	fs.StringVar(&m.OutputFilename, "o", "-", "output filename")
	fs.StringVar(&m.CSS, "css", "/static/spec-html.css", "stylesheet URL")
	fs.BoolVar(&m.Graph, "g", false, "include a graph")
	return fs
}
