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
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dop251/goja"
)

// macroDir is the directory of macro files for "expand".
var macroDir = "macros"

var NoExpand = errors.New("macros don't define expand(spec)")

// MacroExpander runs a spec through JavaScript macros.  Every .js
// file in the macro directory is loaded, in name order, and then the
// global function expand(spec) gets the whole spec (as JSON data) and
// returns the expanded spec.
type MacroExpander struct {
	JS *goja.Runtime
}

func (m *MacroExpander) Flags() *flag.FlagSet {
	fs := flag.NewFlagSet("expand", flag.ContinueOnError)
	fs.StringVar(&macroDir, "m", macroDir, "directory of .js macro files")
	return fs
}

func (m *MacroExpander) init() error {
	m.JS = goja.New()
	env := make(map[string]interface{})
	m.JS.Set("_", env)

	env["log"] = func(x interface{}) interface{} {
		switch vv := x.(type) {
		case goja.Value:
			x = vv.Export()
		}
		bs, err := json.Marshal(&x)
		if err != nil {
			return err
		}
		log.Printf("%s\n", bs)

		return x
	}

	return nil
}

func (m *MacroExpander) load(filename string) error {
	log.Printf("loading %s", filename)

	src, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	v, err := m.JS.RunScript(filename, string(src))
	if err != nil {
		return err
	}

	if x := v.Export(); x != nil {
		bs, err := json.Marshal(&x)
		if err != nil {
			return err
		}
		log.Printf("%s → %s\n", filename, bs)
	}
	return nil
}

func (m *MacroExpander) loadMacros(dir string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(files))
	for _, file := range files {
		if strings.HasSuffix(file.Name(), ".js") {
			names = append(names, file.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		if err = m.load(filepath.Join(dir, name)); err != nil {
			return err
		}
	}

	return nil
}

// MacroExpand loads the macros in dir and calls their expand()
// function on x.
func MacroExpand(x interface{}, dir string) (interface{}, error) {

	js, err := json.Marshal(&x)
	if err != nil {
		return nil, err
	}

	m := &MacroExpander{}

	if err := m.init(); err != nil {
		return nil, err
	}

	if err := m.loadMacros(dir); err != nil {
		return nil, err
	}

	if _, is := goja.AssertFunction(m.JS.Get("expand")); !is {
		return nil, NoExpand
	}

	src := fmt.Sprintf("expand(%s)", js)

	v, err := m.JS.RunString(src)
	if err != nil {
		return nil, err
	}

	return v.Export(), err
}
