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

// Package main is a service that runs a crew of processes.
//
// Ops are JSON objects.  For example:
//
//	{"cop":{"add":{"id":"t1","spec":{"name":"turnstile.yaml"}}}}
//	{"cop":{"walk":{"actions":["coin","push"]}}}
//	{"getCrew":{}}
//
// Ops can arrive on stdin (one per line), as POSTs to /api, or over
// a WebSocket at /ws/api.
package main

import (
	"bufio"
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"

	"github.com/Comcast/tandem/util"
)

func main() {

	var (
		crewName = flag.String("n", "home", "crew name (and run id)")
		dbFile   = flag.String("d", "home.db", "storage filename")
		specsDir = flag.String("s", "specs", "specs directory")
		libDir   = flag.String("l", "", "libraries directory")

		httpPort  = flag.String("h", "", "HTTP port for our service")
		wsService = flag.Bool("w", true, "WebSockets service")
		httpDir   = flag.String("f", "", "directory to serve via HTTP")

		listenOnStdin = flag.Bool("I", false, "listen for ops on stdin")
		verbose       = flag.Bool("v", false, "log lots of wonderful things")
	)

	flag.Parse()

	util.Logging = *verbose

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	s, err := NewService(ctx, *crewName, *specsDir, *dbFile, *libDir)
	if err != nil {
		panic(err)
	}
	s.Tracing = *verbose

	if *httpPort != "" {
		mux := http.NewServeMux()

		if *wsService {
			log.Printf("WebSockets service starting")
			if err := s.WebSocketService(ctx, mux); err != nil {
				panic(err)
			}
		}

		if *httpDir != "" {
			log.Printf("HTTP serving files in %s", *httpDir)
			fs := http.FileServer(http.Dir(*httpDir))
			mux.Handle("/static/", http.StripPrefix("/static", fs))
		}

		s.HTTPService(ctx, mux, *specsDir)

		go func() {
			log.Printf("HTTP service on %s", *httpPort)
			if err := http.ListenAndServe(*httpPort, mux); err != nil {
				panic(err)
			}
		}()
	}

	if *listenOnStdin {
		if err = s.Listener(ctx, bufio.NewReader(os.Stdin), os.Stdout); err != nil {
			log.Printf("Service.Listener os.Stdin os.Stdout error %s", err)
		}
		return
	}

	<-ctx.Done()
}
