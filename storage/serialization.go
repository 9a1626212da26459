// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"fmt"
	"maps"
	"slices"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/vectorize/core"
)

const recordFormatV1 byte = 1

// MarshalRecord serializes an IngestionRecord to bytes.
// Metadata is written in key order so equal records encode identically.
func MarshalRecord(record *core.IngestionRecord) []byte {
	keys := slices.Sorted(maps.Keys(record.Metadata))

	size := 1 + ord.String.Size(record.ID) + ord.String.Size(record.Namespace) + ord.String.Size(record.Text)
	size += varint.Int.Size(len(record.Vector))
	for _, f := range record.Vector {
		size += raw.Float32.Size(f)
	}
	size += varint.Int.Size(len(keys))
	for _, k := range keys {
		size += ord.String.Size(k) + ord.String.Size(record.Metadata[k])
	}

	buf := make([]byte, size)
	buf[0] = recordFormatV1
	n := 1
	n += ord.String.Marshal(record.ID, buf[n:])
	n += ord.String.Marshal(record.Namespace, buf[n:])
	n += ord.String.Marshal(record.Text, buf[n:])
	n += varint.Int.Marshal(len(record.Vector), buf[n:])
	for _, f := range record.Vector {
		n += raw.Float32.Marshal(f, buf[n:])
	}
	n += varint.Int.Marshal(len(keys), buf[n:])
	for _, k := range keys {
		n += ord.String.Marshal(k, buf[n:])
		n += ord.String.Marshal(record.Metadata[k], buf[n:])
	}
	return buf[:n]
}

// UnmarshalRecord deserializes an IngestionRecord from bytes.
func UnmarshalRecord(data []byte) (*core.IngestionRecord, error) {
	if len(data) == 0 {
		return nil, ErrTruncatedData
	}
	if data[0] != recordFormatV1 {
		return nil, fmt.Errorf("%w: unknown record format %d", ErrSerializationFailed, data[0])
	}

	d := decoder{data: data, n: 1}
	record := &core.IngestionRecord{
		ID:        d.string(),
		Namespace: d.string(),
		Text:      d.string(),
	}

	if count := d.length(4); count > 0 {
		record.Vector = make(core.Vector, count)
		for i := range record.Vector {
			record.Vector[i] = d.float32()
		}
	}

	if count := d.length(2); count > 0 {
		record.Metadata = make(map[string]string, count)
		for range count {
			k := d.string()
			record.Metadata[k] = d.string()
		}
	}

	if d.err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, d.err)
	}
	return record, nil
}

// decoder reads consecutive mus values and keeps the first error.
type decoder struct {
	data []byte
	n    int
	err  error
}

func (d *decoder) string() string {
	if d.err != nil {
		return ""
	}
	v, n, err := ord.String.Unmarshal(d.data[d.n:])
	d.n += n
	d.err = err
	return v
}

func (d *decoder) float32() float32 {
	if d.err != nil {
		return 0
	}
	v, n, err := raw.Float32.Unmarshal(d.data[d.n:])
	d.n += n
	d.err = err
	return v
}

// length reads a collection length and checks it against the remaining
// bytes, given the minimum encoded size of one element.
func (d *decoder) length(minElemSize int) int {
	if d.err != nil {
		return 0
	}
	v, n, err := varint.Int.Unmarshal(d.data[d.n:])
	d.n += n
	if err != nil {
		d.err = err
		return 0
	}
	if v < 0 || v*minElemSize > len(d.data)-d.n {
		d.err = ErrTruncatedData
		return 0
	}
	return v
}
