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



package core

import (
	"fmt"
	"unicode/utf8"
)

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - Text must not be empty
//   - Text must not exceed maxChunkSize code points (when maxChunkSize > 0)
//   - Offsets must be consistent with the text length
func ValidateChunk(chunk *Chunk, maxChunkSize int) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyText)
	}

	if maxChunkSize > 0 && utf8.RuneCountInString(chunk.Text) > maxChunkSize {
		return fmt.Errorf("%w: %w: %d > %d", ErrInvalidChunk, ErrChunkTooLarge,
			utf8.RuneCountInString(chunk.Text), maxChunkSize)
	}

	if chunk.End-chunk.Start != len(chunk.Text) {
		return fmt.Errorf("%w: offsets [%d,%d) do not match text length %d",
			ErrInvalidChunk, chunk.Start, chunk.End, len(chunk.Text))
	}

	if chunk.OverlapStart < 0 || chunk.OverlapStart > len(chunk.Text) ||
		chunk.OverlapEnd < 0 || chunk.OverlapEnd > len(chunk.Text) {
		return fmt.Errorf("%w: overlap out of range", ErrInvalidChunk)
	}

	return nil
}

// ValidateRecord validates an IngestionRecord before it is written.
//
// Validation rules:
//   - ID must not be empty
//   - Vector must not be empty
//   - Text must not be empty
//
// Namespace is NOT validated: the empty namespace is the store default.
func ValidateRecord(record *IngestionRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidRecord)
	}

	if record.ID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyID)
	}

	if len(record.Vector) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyVector)
	}

	if record.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyText)
	}

	return nil
}
