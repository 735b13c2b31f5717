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

package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Comcast/tandem/storage/bolt"
)

func listen(t *testing.T, ctx context.Context, s *Service, ops ...string) []*SOp {
	var out bytes.Buffer
	in := bufio.NewReader(strings.NewReader(strings.Join(ops, "\n") + "\n"))
	if err := s.Listener(ctx, in, &out); err != nil {
		t.Fatal(err)
	}
	var acc []*SOp
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		var op SOp
		if err := json.Unmarshal([]byte(line), &op); err != nil {
			t.Fatalf("%s: %s", err, line)
		}
		acc = append(acc, &op)
	}
	return acc
}

func TestListener(t *testing.T) {
	db := filepath.Join(t.TempDir(), "crew.db")

	ctx, cancel := context.WithCancel(context.Background())

	s, err := NewService(ctx, "home", "../../specs", db, "")
	if err != nil {
		t.Fatal(err)
	}

	done := listen(t, ctx, s,
		`{"cop":{"add":{"id":"t1","spec":{"name":"turnstile.yaml"}}}}`,
		`{"cop":{"add":{"id":"d","spec":{"name":"double.yaml"}}}}`,
		`{"cop":{"add":{"id":"d","spec":{"name":"double.yaml"}}}}`,
		`{"cop":{"walk":{"actions":["coin","double","kick"]}}}`,
		`{"getCrew":{}}`,
		`tacos`,
		`{}`,
	)

	if len(done) != 7 {
		t.Fatalf("got %d ops", len(done))
	}
	if err := done[2].COp.Add.Err; !strings.Contains(err, "machine d exists") {
		t.Fatalf("add error %q", err)
	}
	walk := done[3].COp.Walk
	if walk.StoppedBecause != "Disabled" || len(walk.Strides) != 2 {
		t.Fatalf("walk %#v", walk)
	}
	if got := walk.Strides[1].To; got != "(start/{limit:16,n:2}, unlocked/{coins:1})" {
		t.Fatalf("walked to %s", got)
	}
	view := done[4].GetCrewOp.Crew
	if view.Machines["t1"].State != "unlocked/{coins:1}" {
		t.Fatalf("crew %#v", view)
	}
	if strings.Join(view.Enabled, ",") != "double,coin,push" {
		t.Fatalf("enabled %v", view.Enabled)
	}
	if done[5].Err == "" || done[6].Err == "" {
		t.Fatalf("expected errors from %#v and %#v", done[5], done[6])
	}

	// Let the service close its storage.
	cancel()
	time.Sleep(100 * time.Millisecond)

	store, err := bolt.NewStorage(db)
	if err != nil {
		t.Fatal(err)
	}
	ctx = context.Background()
	if err = store.Open(ctx); err != nil {
		t.Fatal(err)
	}
	defer store.Close(ctx)
	rs, err := store.GetRun(ctx, "home")
	if err != nil {
		t.Fatal(err)
	}
	if len(rs) != 2 || rs[0].Interaction != "coin" || rs[1].Interaction != "double" {
		t.Fatalf("records %#v", rs)
	}
}

func TestSync(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := NewService(ctx, "pair", "../../specs", "", "")
	if err != nil {
		t.Fatal(err)
	}

	done := listen(t, ctx, s,
		`{"cop":{"add":{"id":"a","spec":{"name":"turnstile.yaml"}}}}`,
		`{"cop":{"add":{"id":"b","spec":{"name":"turnstile.yaml"}}}}`,
		`{"cop":{"sync":{"actions":["coin"]}}}`,
		`{"cop":{"walk":{"actions":["coin","push","forward"],"limit":2}}}`,
		`{"getSpec":{"source":{"name":"turnstile.yaml"}}}`,
	)

	walk := done[3].COp.Walk
	if walk.StoppedBecause != "Limited" {
		t.Fatalf("walk %#v", walk)
	}
	if got := walk.Strides[0].To; got != "(unlocked/{coins:1}, unlocked/{coins:1})" {
		t.Fatalf("walked to %s", got)
	}
	if got := walk.Strides[1].To; got != "(locked/{coins:1}, unlocked/{coins:1})" {
		t.Fatalf("walked to %s", got)
	}
	if spec := done[4].GetSpec.Spec; spec == nil || spec.Name != "turnstile" {
		t.Fatalf("spec %#v", done[4].GetSpec)
	}
}
