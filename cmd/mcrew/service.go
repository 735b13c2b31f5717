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
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/Comcast/tandem/core"
	"github.com/Comcast/tandem/crew"
	"github.com/Comcast/tandem/interpreters"
	"github.com/Comcast/tandem/interpreters/goja"
	"github.com/Comcast/tandem/storage"
	"github.com/Comcast/tandem/storage/bolt"
	. "github.com/Comcast/tandem/util/testutil"
)

// Service runs one crew and records every stride it takes.
type Service struct {
	Ctl     *core.Control
	Tracing bool

	// ops, if not nil, gets a copy of every operation before and
	// after it's done.
	ops chan interface{}

	interpreters map[string]core.Interpreter
	provider     crew.SpecProvider
	crew         *crew.Crew
	store        storage.Storage

	// seq is the number of Records written for the crew's run.
	// Protected by the Service's own lock (see Walk).
	seq int

	sync.Mutex
}

func (s *Service) trf(format string, args ...interface{}) {
	if !s.Tracing {
		return
	}
	log.Printf("trace "+format, args...)
}

// NewService makes a Service for a crew with the given name.
//
// An empty dbFile means nothing is recorded.
func NewService(ctx context.Context, crewName, specDir, dbFile, libDir string) (*Service, error) {

	var store storage.Storage = &storage.NoopStorage{}
	if dbFile != "" {
		b, err := bolt.NewStorage(dbFile)
		if err != nil {
			return nil, err
		}
		store = b
	}

	if err := store.Open(ctx); err != nil {
		return nil, err
	}

	go func() {
		<-ctx.Done()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := store.Close(ctx); err != nil {
			log.Printf("Service.store.Close error %s", err)
		}
	}()

	have, err := store.GetRun(ctx, crewName)
	if err != nil {
		return nil, err
	}

	is := interpreters.Standard()
	if libDir != "" {
		gi := goja.NewInterpreter()
		gi.LibraryProvider = goja.MakeFileLibraryProvider(libDir)
		is["goja"] = gi
		is["ecmascript"] = gi
	}

	s := &Service{
		Ctl:          core.DefaultControl,
		interpreters: is,
		provider:     &crew.DirSpecProvider{Dir: specDir},
		crew:         crew.NewCrew(crewName),
		store:        store,
		seq:          len(have),
	}

	return s, nil
}

func (s *Service) op(ctx context.Context, x interface{}) {
	if s.ops != nil {
		select {
		case s.ops <- Dwimjs(JS(x)):
		default:
			log.Printf("Service ops chan blocked")
		}
	}
}

// AddMachine loads the named spec and adds a Machine for it.
func (s *Service) AddMachine(ctx context.Context, id string, src *crew.SpecSource) error {
	if src == nil {
		return fmt.Errorf("machine %s has no spec source", id)
	}
	m, err := crew.Load(ctx, s.provider, s.interpreters, id, src)
	if err != nil {
		return err
	}
	s.trf("Service.AddMachine %s %s", id, m.State)
	return s.crew.Add(m)
}

func (s *Service) RemMachine(ctx context.Context, id string) error {
	s.trf("Service.RemMachine %s", id)
	return s.crew.Remove(id)
}

// Walk offers the interactions to the crew and records the strides.
func (s *Service) Walk(ctx context.Context, is []core.Interaction, ctl *core.Control) (*core.Walked, error) {
	if ctl == nil {
		ctl = s.Ctl
	}

	// Walk and record under one lock so that records stay in
	// order.
	s.Lock()
	defer s.Unlock()

	walked, err := s.crew.Walk(ctx, is, ctl)
	if walked == nil {
		return nil, err
	}

	rs := storage.AsRecords(s.seq, walked)
	if werr := s.store.WriteRecords(ctx, s.crew.Id, rs); werr != nil {
		log.Printf("Service.Walk warning for '%s' failed WriteRecords: %s", s.crew.Id, werr)
	} else {
		s.seq += len(rs)
	}

	s.trf("Service.Walk %s", JS(walked))

	return walked, err
}

// Listener reads SOps (one JSON object per line) from in and writes
// each done op to out.
func (s *Service) Listener(ctx context.Context, in *bufio.Reader, out io.Writer) error {
	for {
		line, err := in.ReadBytes('\n')
		if err == io.EOF && len(line) == 0 {
			return nil
		}
		if err != nil && err != io.EOF {
			return err
		}
		if len(line) == 0 || line[0] == '\n' {
			continue
		}

		var op SOp
		if err := json.Unmarshal(line, &op); err != nil {
			fmt.Fprintf(out, `{"err":%q}`+"\n", err.Error())
			continue
		}
		op.Do(ctx, s)

		js, err := json.Marshal(&op)
		if err != nil {
			return err
		}
		if _, err = fmt.Fprintf(out, "%s\n", js); err != nil {
			return err
		}
	}
}
