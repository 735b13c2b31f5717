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
	"encoding/json"
	"fmt"
	"io"
	"strings"

	. "github.com/Comcast/tandem/core"
	"github.com/Comcast/tandem/util"
)

type MermaidOpts struct {
	// ShowUpdates will add each edge's update (as JSON) to its
	// label.
	ShowUpdates bool `json:"showUpdates"`

	// ShowGuards will add each edge's guard source to its label.
	ShowGuards bool `json:"showGuards"`

	// AtomicFill is the fill color of locations with outgoing
	// atomic edges.
	AtomicFill string `json:"atomicFill,omitempty"`
}

// Mermaid makes a Mermaid (https://mermaidjs.github.io/) input file
// for the given spec.  Children are subgraphs.
func Mermaid(spec *Spec, w io.WriteCloser, opts *MermaidOpts, fromLoc, toLoc string) error {
	if opts == nil {
		opts = &MermaidOpts{
			ShowUpdates: true,
			ShowGuards:  true,
			AtomicFill:  "#bcf2db",
		}
	}

	fmt.Fprintf(w, "graph TB\n")

	m := &mermaid{
		w:    w,
		opts: opts,
		nids: make(map[string]string),
	}
	m.spec(spec, "", fromLoc, toLoc)

	fmt.Fprintf(w, "\n")
	util.Logf("mermaid gen done")

	return w.Close()
}

type mermaid struct {
	w    io.Writer
	opts *MermaidOpts
	nids map[string]string
	num  int
}

func (m *mermaid) node(name string) string {
	if nid, already := m.nids[name]; already {
		return nid
	}
	m.num++
	nid := fmt.Sprintf("n%d", m.num)
	m.nids[name] = nid
	return nid
}

func (m *mermaid) spec(spec *Spec, prefix, fromLoc, toLoc string) {
	names := spec.LocationNames()
	util.Logf("mermaid: %s has %d locations", spec.Name, len(names))

	for _, name := range names {
		nid := m.node(prefix + name)
		fmt.Fprintf(m.w, "  %s(\"%s\")\n", nid, name)
		l := spec.Locations[name]
		if l == nil {
			continue
		}
		atomic := false
		for _, e := range l.Edges {
			atomic = atomic || (e != nil && 0 < len(e.Atomic))
		}
		if atomic && m.opts.AtomicFill != "" {
			fmt.Fprintf(m.w, "  style %s fill:%s\n", nid, m.opts.AtomicFill)
		}
		if name == toLoc {
			fmt.Fprintf(m.w, "  style %s stroke:#f00\n", nid)
		}
	}

	for _, name := range names {
		l := spec.Locations[name]
		if l == nil {
			continue
		}
		for _, e := range l.Edges {
			if e == nil {
				continue
			}
			label := e.Action
			if label == "" {
				label = Forward.Name
			}
			for _, st := range e.Steps() {
				if st == nil {
					continue
				}
				if g, is := st.Guard.(string); is && m.opts.ShowGuards {
					label += " [" + g + "]"
				}
				if 0 < len(st.Update) && m.opts.ShowUpdates {
					js, err := json.Marshal(st.Update)
					if err != nil {
						js = []byte(err.Error())
					}
					label += " " + string(js)
				}
			}
			label = strings.Replace(label, `"`, `'`, -1)
			arrow := "-->"
			if name == fromLoc && e.Target == toLoc {
				arrow = "==>"
			}
			fmt.Fprintf(m.w, "  %s -- \"%s\" %s %s\n",
				m.node(prefix+name), label, arrow, m.node(prefix+e.Target))
		}
	}

	for i, c := range spec.Children {
		if c == nil {
			continue
		}
		title := c.Name
		if title == "" {
			title = fmt.Sprintf("child%d", i)
		}
		fmt.Fprintf(m.w, "  subgraph %s\n", strings.Replace(title, " ", "_", -1))
		m.spec(c, fmt.Sprintf("%s%d.", prefix, i), fromLoc, toLoc)
		fmt.Fprintf(m.w, "  end\n")
	}
}
