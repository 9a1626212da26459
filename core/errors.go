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

import "errors"

// Domain validation errors
var (
	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrInvalidRecord indicates an IngestionRecord failed validation.
	ErrInvalidRecord = errors.New("invalid ingestion record")

	// ErrEmptyText indicates the Text field is empty.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrChunkTooLarge indicates a chunk exceeds the configured maximum size.
	ErrChunkTooLarge = errors.New("chunk exceeds maximum size")

	// ErrEmptyID indicates a record has no identifier.
	ErrEmptyID = errors.New("record id cannot be empty")

	// ErrEmptyVector indicates a record has no embedding vector.
	ErrEmptyVector = errors.New("vector cannot be empty")

	// ErrDimensionMismatch indicates vectors of one run disagree on dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)
