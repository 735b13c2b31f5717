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

package noop

import (
	"context"
	"testing"

	"github.com/Comcast/tandem/core"
)

func TestLiteral(t *testing.T) {
	i := NewInterpreter()
	e, err := i.Compile(context.Background(), "tacos")
	if err != nil {
		t.Fatal(err)
	}
	v, err := e.Eval(core.EmptyValuation)
	if err != nil {
		t.Fatal(err)
	}
	if !v.Equal(core.Str("tacos")) {
		t.Fatalf("got %s", v)
	}

	if _, err = i.Compile(context.Background(), nil); err == nil {
		t.Fatalf("compiled nil")
	}
}
