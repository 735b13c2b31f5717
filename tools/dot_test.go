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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Comcast/tandem/core"
)

func TestDot(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "g.dot")

	out, err := os.Create(filename)
	if err != nil {
		t.Fatal(err)
	}

	if err := Dot(core.TurnstileSpec(), out, "locked", "unlocked"); err != nil {
		t.Fatal(err)
	}

	bs, err := os.ReadFile(filename)
	if err != nil {
		t.Fatal(err)
	}
	dot := string(bs)
	for _, want := range []string{
		`"locked" -> "unlocked" [ color="red"`,
		"(native)",
		"digraph G {",
	} {
		if !strings.Contains(dot, want) {
			t.Fatalf("no %q in\n%s", want, dot)
		}
	}
}

func TestDotChildren(t *testing.T) {
	spec, err := ReadSpec("../specs/bank.yaml")
	if err != nil {
		t.Fatal(err)
	}

	filename := filepath.Join(t.TempDir(), "bank.dot")
	out, err := os.Create(filename)
	if err != nil {
		t.Fatal(err)
	}
	if err := Dot(spec, out, "", ""); err != nil {
		t.Fatal(err)
	}

	bs, err := os.ReadFile(filename)
	if err != nil {
		t.Fatal(err)
	}
	dot := string(bs)
	for _, want := range []string{
		`subgraph "cluster_0."`,
		`"1.start" -> "1.start"`,
		"vault: vault - 10",
		"<I>then</I>",
	} {
		if !strings.Contains(dot, want) {
			t.Fatalf("no %q in\n%s", want, dot)
		}
	}
}
