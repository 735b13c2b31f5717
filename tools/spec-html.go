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

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"os"

	"github.com/Comcast/tandem/core"
	"github.com/Comcast/tandem/interpreters/noop"
	. "github.com/Comcast/tandem/util/testutil"

	"github.com/jsccast/yaml"
	md "github.com/russross/blackfriday/v2"
)

// ReadSpec parses a YAML (or JSON) spec file.
func ReadSpec(filename string) (*core.Spec, error) {
	specSrc, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var spec core.Spec
	if err = yaml.Unmarshal(specSrc, &spec); err != nil {
		return nil, err
	}
	return &spec, nil
}

// Check compiles the spec with a noop interpreter standing in for
// every interpreter the spec names.  That catches structural
// problems without running any code.
func Check(ctx context.Context, spec *core.Spec) error {
	a, err := Analyze(spec)
	if err != nil {
		return err
	}
	i := noop.NewInterpreter()
	i.Silent = true
	interpreters := map[string]core.Interpreter{
		core.DefaultInterpreter: i,
	}
	for _, name := range a.AllInterpreters() {
		interpreters[name] = i
	}
	_, err = spec.Compile(ctx, interpreters)
	return err
}

func source(x interface{}) string {
	if s, is := x.(string); is {
		return html.EscapeString(s)
	}
	return html.EscapeString(JS(x))
}

func RenderSpecHTML(s *core.Spec, out io.Writer) error {
	f := func(format string, args ...interface{}) {
		fmt.Fprintf(out, format+"\n", args...)
	}

	f(`<div class="specDoc doc">%s</div>`, md.Run([]byte(s.Doc)))

	if 0 < len(s.Vars) {
		f(`<div class="vars"><table>`)
		for _, name := range sortedKeys(s.Vars) {
			f(`<tr><td><code>%s</code></td><td><code>%s</code></td></tr>`,
				html.EscapeString(name), source(s.Vars[name]))
		}
		f(`</table></div>`)
	}

	f(`<div class="locations"><table>`)
	for _, id := range s.LocationNames() {
		l := s.Locations[id]
		f(`<tr class="location"><td><span id="%s" class="locationName">%s</span></td><td>`, id, id)
		if l == nil {
			f(`</td></tr>`)
			continue
		}
		if l.Doc != "" {
			f(`<div class="locationDoc doc">%s</div>`, md.Run([]byte(l.Doc)))
		}
		if 0 < len(l.Edges) {
			f(`<div class="edges">`)
			f(`<table>`)
			for i, e := range l.Edges {
				if e == nil {
					continue
				}
				f(`<tr><td><div class="edgeNum">%d</div></td><td>`, i)
				f(`<table>`)
				if e.Action != "" {
					f(`<tr><td></td><td>action</td><td><code>%s</code></td></tr>`, html.EscapeString(e.Action))
				}
				if e.Doc != "" {
					f(`<tr><td></td><td>doc</td><td><div class="edgeDoc doc">%s</div></td></tr>`, md.Run([]byte(e.Doc)))
				}
				for j, st := range e.Steps() {
					if st == nil {
						continue
					}
					if 0 < j {
						f(`<tr><td></td><td>then</td><td></td></tr>`)
					}
					if st.Guard != nil {
						f(`<tr><td></td><td>guard</td><td><div class="code"><pre>%s</pre></div></td></tr>`, source(st.Guard))
					}
					for _, target := range sortedKeys(st.Update) {
						f(`<tr><td></td><td>update</td><td><code>%s := %s</code></td></tr>`,
							html.EscapeString(target), source(st.Update[target]))
					}
				}
				if e.Target != "" {
					f(`<tr><td></td><td>target</td><td><a href="#%s"><code>%s</code></a></td></tr>`, e.Target, e.Target)
				}
				f(`</table>`)
				f(`</td></tr>`)
			}
			f(`</table>`)
			f(`</div>`)
		}
		f(`</td></tr>`)
	}
	f(`</table></div>`)

	for _, c := range s.Children {
		if c == nil {
			continue
		}
		f(`<div class="child"><h2>%s</h2>`, html.EscapeString(c.Name))
		if err := RenderSpecHTML(c, out); err != nil {
			return err
		}
		f(`</div>`)
	}

	return nil
}

func RenderSpecPage(s *core.Spec, out io.Writer, cssFiles []string, includeGraph bool) error {
	if cssFiles == nil {
		cssFiles = []string{"/static/spec-html.css"}
	}

	js, err := json.Marshal(s)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, `<!DOCTYPE html>
<meta charset="utf-8">
<html>
  <head>
  <title>%s</title>
`, html.EscapeString(s.Name))

	if includeGraph {
		fmt.Fprintf(out, `
  <script src="https://cdnjs.cloudflare.com/ajax/libs/cytoscape/3.2.8/cytoscape.min.js"></script>
  <script src="/static/spec-html.js"></script>
  <script>
  var thisSpec = %s;
  </script>
`, js)
	}

	for _, cssFile := range cssFiles {
		fmt.Fprintf(out, "  <link href=\"%s\" rel=\"stylesheet\">\n", cssFile)
	}

	fmt.Fprintf(out, `
  </head>
  <body>
    <h1>%s</h1>
`, html.EscapeString(s.Name))

	if includeGraph {
		fmt.Fprintf(out, `<div id="graph"></div>`)
	}

	if err = RenderSpecHTML(s, out); err != nil {
		return err
	}

	fmt.Fprintf(out, `
  </body>
</html>
`)

	return nil
}

func ReadAndRenderSpecPage(filename string, cssFiles []string, out io.Writer, includeGraph bool) error {
	spec, err := ReadSpec(filename)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err = Check(ctx, spec); err != nil {
		return err
	}

	return RenderSpecPage(spec, out, cssFiles, includeGraph)
}

func sortedKeys(m map[string]interface{}) []string {
	acc := make(map[string]bool, len(m))
	for k := range m {
		acc[k] = true
	}
	return keys(acc)
}
