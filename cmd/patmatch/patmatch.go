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

// Package main is a little command-line utility to invoke pattern matching.
//
//	patmatch -p '{"likes":"?liked"}' -f '{"likes":"tacos","hates":"chips"}' -w '{"?liked":"tacos"}'
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"runtime"
	"time"

	"github.com/Comcast/tandem/core"
	"github.com/Comcast/tandem/match"
)

func value(js string) (core.Value, error) {
	var x interface{}
	if err := json.Unmarshal([]byte(js), &x); err != nil {
		return nil, err
	}
	return core.ValueOf(x)
}

func bindings(js string) (match.Bindings, error) {
	v, err := value(js)
	if err != nil {
		return nil, err
	}
	s, is := v.(core.Struct)
	if !is {
		return nil, fmt.Errorf("bindings %s aren't an object", js)
	}
	return match.Bindings(s), nil
}

func main() {
	var (
		factJS     = flag.String("f", "", "fact in JSON")
		patternJS  = flag.String("p", "", "pattern in JSON")
		bindingsJS = flag.String("b", "{}", "bindings in JSON")
		wantJS     = flag.String("w", "", "wanted bindings in JSON")

		inequalities = flag.Bool("i", true, "allow inequality variables like ?<n")

		bench = flag.Int("bench", 0, "number of times to run (and report time)")

		verbose = flag.Bool("v", false, "verbosity")
	)

	flag.Parse()

	fact, err := value(*factJS)
	if err != nil {
		panic(err)
	}

	pattern, err := value(*patternJS)
	if err != nil {
		panic(err)
	}

	bs, err := bindings(*bindingsJS)
	if err != nil {
		panic(err)
	}

	m := &match.Matcher{
		Inequalities: *inequalities,
	}

	if 0 < *bench {
		var stats runtime.MemStats
		runtime.ReadMemStats(&stats)
		allocs := stats.TotalAlloc
		then := time.Now()
		for i := 0; i < *bench; i++ {
			if _, _, err := m.Match(pattern, fact, bs); err != nil {
				panic(err)
			}
		}
		elapsed := time.Now().Sub(then)
		meanNanos := elapsed.Nanoseconds() / int64(*bench)

		runtime.ReadMemStats(&stats)
		allocated := (stats.TotalAlloc - allocs) / uint64(*bench)

		log.Printf("%d iterations, %d mean ns/Match, %d mean bytes allocated per Match", *bench, meanNanos, allocated)
	}

	got, matched, err := m.Match(pattern, fact, bs)
	if err != nil {
		panic(err)
	}

	if *wantJS != "" {
		want, err := bindings(*wantJS)
		if err != nil {
			panic(err)
		}
		eq := matched && core.Struct(want).Equal(core.Struct(got))
		if !eq && *verbose {
			fmt.Printf("want %s, got %s (matched %v)\n", core.Struct(want), core.Struct(got), matched)
		}
		fmt.Printf("%v\n", eq)
		return
	}

	if !matched {
		fmt.Printf("null\n")
		return
	}

	js, err := json.Marshal(core.Export(core.Struct(got)))
	if err != nil {
		panic(err)
	}

	fmt.Printf("%s\n", js)
}
