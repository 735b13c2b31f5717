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

package storage

import (
	"context"
	"sort"
	"sync"
)

// MemStorage keeps runs in memory.  Safe for concurrent use.
type MemStorage struct {
	sync.Mutex
	runs map[string]map[int]*Record
}

func NewMemStorage() *MemStorage {
	return &MemStorage{
		runs: make(map[string]map[int]*Record),
	}
}

func (s *MemStorage) Open(ctx context.Context) error {
	return nil
}

func (s *MemStorage) Close(ctx context.Context) error {
	return nil
}

func (s *MemStorage) MakeRun(ctx context.Context, rid string) error {
	s.Lock()
	defer s.Unlock()
	if _, have := s.runs[rid]; have {
		return &RunExists{Rid: rid}
	}
	s.runs[rid] = make(map[int]*Record)
	return nil
}

func (s *MemStorage) RemRun(ctx context.Context, rid string) error {
	s.Lock()
	defer s.Unlock()
	if _, have := s.runs[rid]; !have {
		return &NotFound{Rid: rid}
	}
	delete(s.runs, rid)
	return nil
}

func (s *MemStorage) GetRun(ctx context.Context, rid string) ([]*Record, error) {
	s.Lock()
	defer s.Unlock()
	run := s.runs[rid]
	if len(run) == 0 {
		return nil, nil
	}
	acc := make([]*Record, 0, len(run))
	for _, r := range run {
		r := *r
		acc = append(acc, &r)
	}
	sort.Slice(acc, func(i, j int) bool { return acc[i].Seq < acc[j].Seq })
	return acc, nil
}

func (s *MemStorage) WriteRecords(ctx context.Context, rid string, rs []*Record) error {
	s.Lock()
	defer s.Unlock()
	run, have := s.runs[rid]
	if !have {
		run = make(map[int]*Record, len(rs))
		s.runs[rid] = run
	}
	for _, r := range rs {
		r := *r
		run[r.Seq] = &r
	}
	return nil
}
