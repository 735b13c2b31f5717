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
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	. "github.com/Comcast/tandem/core"
	"github.com/Comcast/tandem/util"

	"gopkg.in/yaml.v2"
)

// Dot makes a Graphviz dot file for the given spec.  Each child
// spec is a cluster.
//
// The optional fromLoc and toLoc can be names of locations during a
// transition.  If non-zero, then the edge between them will be red,
// and so will toLoc.
func Dot(spec *Spec, w io.WriteCloser, fromLoc, toLoc string) error {
	fmt.Fprintf(w, "digraph G {\n")
	fmt.Fprintf(w, `  graph [ordering=out,rankdir=TB,nodesep=0.3,ranksep=0.6]
  node [shape="record" style="rounded,filled"]
  edge [fontsize = "12"]
`)

	if err := dotSpec(spec, w, "", "  ", fromLoc, toLoc); err != nil {
		return err
	}

	fmt.Fprintf(w, "}\n")
	return w.Close()
}

func dotSpec(spec *Spec, w io.Writer, prefix, indent, fromLoc, toLoc string) error {
	names := spec.LocationNames()
	util.Logf("dot: %s has %d locations", spec.Name, len(names))

	id := func(name string) string {
		return `"` + escape(prefix+name) + `"`
	}

	for i, name := range names {
		l := spec.Locations[name]
		label := escHTML(name)
		if l != nil && l.Doc != "" {
			label += "<BR/><FONT POINT-SIZE='8'>" + escHTML(firstSentence(l.Doc)) + "</FONT>"
		}
		color, fillcolor, style := "black", "#99ddc8", "filled"
		if l != nil && 0 < len(l.Edges) {
			fillcolor = "#2d93ad"
		} else {
			style += ",dashed"
		}
		if i == 0 {
			style += ",bold"
		}
		if toLoc == name {
			color = "red"
			fillcolor = "#f98b8b"
		}
		fmt.Fprintf(w, "%s%s [style=\"%s\", color=\"%s\", fillcolor=\"%s\", label=<%s> ]\n",
			indent, id(name), style, color, fillcolor, label)
	}

	for _, name := range names {
		l := spec.Locations[name]
		if l == nil {
			continue
		}
		for i, e := range l.Edges {
			if e == nil {
				continue
			}
			action := e.Action
			if action == "" {
				action = Forward.Name
			}
			label := fmt.Sprintf("%d/%d <B>%s</B>", i+1, len(l.Edges), escHTML(action))
			for j, st := range e.Steps() {
				if st == nil {
					continue
				}
				if 0 < j {
					label += `<BR ALIGN="LEFT"/><I>then</I>`
				}
				label += stepLabel(st)
			}
			color := "black"
			if 0 < len(e.Atomic) {
				color = "purple"
			}
			if fromLoc == name && toLoc == e.Target {
				color = "red"
			}
			fmt.Fprintf(w, "%s%s -> %s [ color=\"%s\" label = <%s> ]\n",
				indent, id(name), id(e.Target), color, label)
		}
	}

	for i, c := range spec.Children {
		if c == nil {
			continue
		}
		cprefix := fmt.Sprintf("%s%d.", prefix, i)
		fmt.Fprintf(w, "%ssubgraph \"cluster_%s\" {\n", indent, escape(cprefix))
		fmt.Fprintf(w, "%s  label = \"%s\"\n", indent, escape(c.Name))
		if err := dotSpec(c, w, cprefix, indent+"  ", fromLoc, toLoc); err != nil {
			return err
		}
		fmt.Fprintf(w, "%s}\n", indent)
	}

	return nil
}

// stepLabel renders a guard and an update, the update as YAML.
func stepLabel(st *StepSpec) string {
	var label string
	switch {
	case st.Guard != nil:
		label += `<BR ALIGN="LEFT"/><FONT POINT-SIZE="8">[` + escHTML(fmt.Sprintf("%v", st.Guard)) + `]</FONT>`
	case st.GuardExpr != nil:
		label += `<BR ALIGN="LEFT"/><FONT POINT-SIZE="8">[guarded]</FONT>`
	}
	update := make(map[string]interface{}, len(st.Update)+len(st.UpdateExprs))
	for k, v := range st.Update {
		update[k] = v
	}
	for k := range st.UpdateExprs {
		if _, have := update[k]; !have {
			update[k] = "(native)"
		}
	}
	if 0 < len(update) {
		bs, err := yaml.Marshal(update)
		if err != nil {
			bs = []byte(err.Error())
		}
		src := escHTML(strings.TrimSpace(string(bs)))
		label += `<BR ALIGN="LEFT"/><FONT POINT-SIZE="8">` +
			strings.Replace(src, "\n", `<BR ALIGN="LEFT"/>`, -1) +
			`</FONT>`
	}
	return label
}

func firstSentence(doc string) string {
	if 40 < len(doc) {
		if period := strings.Index(doc, ". "); 0 < period {
			doc = doc[0 : period+1]
		}
	}
	return doc
}

// PNG generates a PNG image based on output from Dot.
//
// This function with write two files: basename.dot and basename.png,
// where the basename is the given string.
func PNG(spec *Spec, basename string, fromLoc, toLoc string) (string, error) {
	dotname := basename + ".dot"
	pngname := basename + ".png"

	dotfile, err := os.Create(dotname)
	if err != nil {
		return pngname, err
	}
	if err := Dot(spec, dotfile, fromLoc, toLoc); err != nil {
		return pngname, err
	}
	if err := exec.Command("dot", "-Tpng", "-Gstart=1", "-o", pngname, dotname).Run(); err != nil {
		return pngname, err
	}
	return pngname, nil
}

func escape(s string) string {
	return strings.Replace(s, `"`, `\"`, -1)
}

func escHTML(s string) string {
	s = strings.Replace(s, "&", "&amp;", -1)
	s = strings.Replace(s, "<", "&lt;", -1)
	s = strings.Replace(s, ">", "&gt;", -1)
	return s
}
