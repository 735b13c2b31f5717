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
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func server(t *testing.T) (*httptest.Server, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	s, err := NewService(ctx, "web", "../../specs", "", "")
	if err != nil {
		cancel()
		t.Fatal(err)
	}

	mux := http.NewServeMux()
	if err = s.WebSocketService(ctx, mux); err != nil {
		cancel()
		t.Fatal(err)
	}
	s.HTTPService(ctx, mux, "../../specs")

	ts := httptest.NewServer(mux)
	return ts, func() {
		ts.Close()
		cancel()
	}
}

func post(t *testing.T, url, body string) (int, *SOp) {
	resp, err := http.Post(url+"/api", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var op SOp
	if err = json.NewDecoder(resp.Body).Decode(&op); err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, &op
}

func TestHTTPService(t *testing.T) {
	ts, stop := server(t)
	defer stop()

	code, _ := post(t, ts.URL, `{"cop":{"add":{"id":"t1","spec":{"name":"turnstile.yaml"}}}}`)
	if code != http.StatusOK {
		t.Fatal(code)
	}

	code, op := post(t, ts.URL, `{"cop":{"walk":{"actions":["coin","coin"]}}}`)
	if code != http.StatusOK {
		t.Fatal(code)
	}
	if n := len(op.COp.Walk.Strides); n != 2 {
		t.Fatalf("%d strides", n)
	}
	if got := op.COp.Walk.Strides[1].To; got != "(unlocked/{coins:2})" {
		t.Fatal(got)
	}

	code, op = post(t, ts.URL, `{"getSpec":{"source":{"name":"tacos.yaml"}}}`)
	if code != http.StatusUnprocessableEntity {
		t.Fatal(code)
	}
	if op.Err == "" {
		t.Fatal("expected an error")
	}

	t.Run("spec", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/specs/double.html")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		bs, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(bs), "<code>double</code>") {
			t.Fatal(string(bs))
		}
	})

	t.Run("nospec", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/specs/../go.mod")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Fatal(resp.StatusCode)
		}
	})

	t.Run("get", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/api")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Fatal(resp.StatusCode)
		}
	})
}

func TestWebSocketService(t *testing.T) {
	ts, stop := server(t)
	defer stop()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/api"
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if err = c.WriteMessage(websocket.TextMessage, []byte("tacos")); err != nil {
		t.Fatal(err)
	}
	op := `{"cop":{"add":{"id":"t1","spec":{"name":"turnstile.yaml"}}}}`
	if err = c.WriteMessage(websocket.TextMessage, []byte(op)); err != nil {
		t.Fatal(err)
	}

	c.SetReadDeadline(time.Now().Add(5 * time.Second))

	var parseErr, did bool
	for !(parseErr && did) {
		_, bs, err := c.ReadMessage()
		if err != nil {
			t.Fatal(err)
		}
		var m map[string]interface{}
		if err = json.Unmarshal(bs, &m); err != nil {
			t.Fatal(err)
		}
		if _, have := m["err"]; have {
			parseErr = true
		}
		if _, have := m["did"]; have {
			did = true
			if strings.Contains(string(bs), `"err"`) {
				t.Fatal(string(bs))
			}
		}
	}
}
