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
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"regexp"

	"github.com/Comcast/tandem/tools"
)

var specPage = regexp.MustCompile("^/specs/([-a-zA-Z0-9_]+)\\.html$")

// HTTPService handles SOps POSTed (as JSON) to /api and renders spec
// pages at /specs/NAME.html.
func (s *Service) HTTPService(ctx context.Context, mux *http.ServeMux, specDir string) {

	mux.HandleFunc("/api", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST an op", http.StatusMethodNotAllowed)
			return
		}
		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var op SOp
		if err = json.Unmarshal(body, &op); err != nil {
			http.Error(w, fmt.Sprintf("can't parse: %v", err), http.StatusBadRequest)
			return
		}

		status := http.StatusOK
		if err = op.Do(r.Context(), s); err != nil {
			status = http.StatusUnprocessableEntity
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if err = json.NewEncoder(w).Encode(&op); err != nil {
			s.trf("HTTPService write error %v", err)
		}
	})

	mux.HandleFunc("/specs/", func(w http.ResponseWriter, r *http.Request) {
		ss := specPage.FindStringSubmatch(r.URL.Path)
		if ss == nil {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprintf(w, "No spec name in %s; try /specs/double.html", r.URL.Path)
			return
		}
		filename := filepath.Join(specDir, ss[1]+".yaml")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := tools.ReadAndRenderSpecPage(filename, nil, w, false); err != nil {
			s.trf("HTTPService spec page error %v", err)
			fmt.Fprintf(w, "<p>error: %s</p>", err)
		}
	})
}
