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

// Package storage persists the strides of walks so that a run can be
// inspected or resumed later.
package storage

import (
	"context"

	"github.com/Comcast/tandem/core"
)

// Record is a presentation of a Stride as stored in a Storage system.
//
// States and Interactions are stored by their String() renderings
// plus the hash of the State reached, which is enough to compare runs
// of the same process.
type Record struct {
	// Seq is the position of the stride in its run, starting at
	// zero.
	Seq int `json:"seq"`

	From        string `json:"from"`
	Interaction string `json:"interaction"`
	To          string `json:"to"`
	Hash        uint64 `json:"hash"`
}

// Storage is a persistence interface for runs of a process.  A run
// has an id (rid) and an ordered list of Records.
type Storage interface {
	Open(ctx context.Context) error
	Close(ctx context.Context) error

	MakeRun(ctx context.Context, rid string) error

	RemRun(ctx context.Context, rid string) error

	// GetRun returns the run's Records in Seq order.
	GetRun(ctx context.Context, rid string) ([]*Record, error)

	// WriteRecords adds or replaces the given Records.
	WriteRecords(ctx context.Context, rid string, rs []*Record) error
}

// AsRecords presents the strides of a walk as Records.  The first
// stride gets Seq offset.
func AsRecords(offset int, w *core.Walked) []*Record {
	acc := make([]*Record, 0, len(w.Strides))
	for i, s := range w.Strides {
		acc = append(acc, &Record{
			Seq:         offset + i,
			From:        s.From.String(),
			Interaction: s.Interaction.String(),
			To:          s.To.String(),
			Hash:        s.To.Hash(),
		})
	}
	return acc
}

// Append writes the strides of the walk to the run, continuing after
// the run's existing Records.
func Append(ctx context.Context, s Storage, rid string, w *core.Walked) (int, error) {
	have, err := s.GetRun(ctx, rid)
	if err != nil {
		return 0, err
	}
	rs := AsRecords(len(have), w)
	if err = s.WriteRecords(ctx, rid, rs); err != nil {
		return 0, err
	}
	return len(have) + len(rs), nil
}
