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

// Package bolt is a storage.Storage backed by a BoltDB file.  Each
// run is a bucket, and each Record is keyed by its big-endian Seq so
// that a cursor visits Records in order.
package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/Comcast/tandem/storage"

	bolt "go.etcd.io/bbolt"
)

func JS(x interface{}) string {
	js, err := json.Marshal(&x)
	if err != nil {
		panic(err)
	}
	return string(js)
}

var NotOpen = errors.New("storage not open")

type Storage struct {
	Debug    bool
	filename string
	db       *bolt.DB
}

func NewStorage(filename string) (*Storage, error) {
	return &Storage{
		filename: filename,
	}, nil
}

func (s *Storage) Open(ctx context.Context) error {
	opts := &bolt.Options{
		Timeout: time.Second,
	}

	db, err := bolt.Open(s.filename, 0644, opts)
	if err != nil {
		return err
	}
	s.db = db
	return nil
}

func (s *Storage) Close(ctx context.Context) error {
	if s.db == nil {
		return NotOpen
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Storage) logf(format string, args ...interface{}) {
	if s.Debug {
		log.Printf("BoltDB Storage."+format, args...)
	}
}

func key(seq int) []byte {
	bs := make([]byte, 8)
	binary.BigEndian.PutUint64(bs, uint64(seq))
	return bs
}

func (s *Storage) MakeRun(ctx context.Context, rid string) error {
	s.logf("MakeRun %s", rid)
	if s.db == nil {
		return NotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucket([]byte(rid))
		if err == bolt.ErrBucketExists {
			return &storage.RunExists{Rid: rid}
		}
		return err
	})
}

func (s *Storage) RemRun(ctx context.Context, rid string) error {
	s.logf("RemRun %s", rid)
	if s.db == nil {
		return NotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		err := tx.DeleteBucket([]byte(rid))
		if err == bolt.ErrBucketNotFound {
			return &storage.NotFound{Rid: rid}
		}
		return err
	})
}

func (s *Storage) GetRun(ctx context.Context, rid string) ([]*storage.Record, error) {
	s.logf("GetRun %s", rid)
	if s.db == nil {
		return nil, NotOpen
	}
	rs := make([]*storage.Record, 0, 32)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(rid))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, bs := c.First(); k != nil; k, bs = c.Next() {
			var r storage.Record
			if err := json.Unmarshal(bs, &r); err != nil {
				return err
			}
			r.Seq = int(binary.BigEndian.Uint64(k))
			rs = append(rs, &r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logf("GetRun %s found %d records", rid, len(rs))

	if len(rs) == 0 {
		return nil, nil
	}

	return rs, nil
}

func (s *Storage) WriteRecords(ctx context.Context, rid string, rs []*storage.Record) error {
	s.logf("WriteRecords %s %s", rid, JS(rs))
	if s.db == nil {
		return NotOpen
	}

	if 0 == len(rs) {
		return nil
	}

	vals := make(map[int][]byte, len(rs))
	for _, r := range rs {
		js, err := json.Marshal(r)
		if err != nil {
			return err
		}
		vals[r.Seq] = js
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(rid))
		if err != nil {
			return err
		}
		for seq, bs := range vals {
			if err := b.Put(key(seq), bs); err != nil {
				return err
			}
		}
		return nil
	})
}
