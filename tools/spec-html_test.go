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
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/Comcast/tandem/core"
)

func TestRenderSpecPage(t *testing.T) {
	t.Run("noGraph", func(t *testing.T) {
		out := bytes.NewBuffer(make([]byte, 0, 1024*128))

		err := ReadAndRenderSpecPage("../specs/double.yaml", []string{"spec.css"}, out, false)

		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out.String(), "<code>double</code>") {
			t.Fatalf("no action in\n%s", out)
		}
		if !strings.Contains(out.String(), "n * 2 &lt;= limit") {
			t.Fatalf("no guard in\n%s", out)
		}
	})

	t.Run("withGraph", func(t *testing.T) {
		out := bytes.NewBuffer(make([]byte, 0, 1024*128))

		err := ReadAndRenderSpecPage("../specs/bank.yaml", []string{"spec.css"}, out, true)

		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out.String(), "var thisSpec = ") {
			t.Fatalf("no graph in\n%s", out)
		}
		if !strings.Contains(out.String(), "<h2>alice</h2>") {
			t.Fatalf("no child in\n%s", out)
		}
	})

	t.Run("broken", func(t *testing.T) {
		spec := core.TurnstileSpec()
		spec.Locations["locked"].Edges[0].Target = "nowhere"
		if err := Check(context.Background(), spec); err == nil {
			t.Fatalf("checked a broken spec")
		}
	})
}
