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


// Package ai provides the embedding capability used by the ingestion pipeline.
//
// The Embedder interface is the only boundary the pipeline depends on.
// Implementations live in sub-packages:
//
//   - ai/openai: OpenAI-compatible embedding APIs via langchaingo
//   - ai/mock: deterministic test double
//
// Two wrappers compose with any Embedder:
//
//   - NewRetryingEmbedder retries transient failures (rate limiting and
//     timeouts) with exponential backoff
//   - NewNormalizingEmbedder scales every vector to unit length
//
// # Failure Classification
//
// Embedders report failures as *core.Error values. A provider that signals
// quota exhaustion returns core.KindRateLimit, a call that exceeds its
// deadline returns core.KindTimeout, anything else core.KindUnknown.
//
// # Usage Example
//
//	cfg := ai.NewConfig(ai.WithAPIKey(os.Getenv("OPENAI_API_KEY")))
//	embedder, err := openai.NewEmbedder(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	embedder = ai.NewRetryingEmbedder(embedder, 3, time.Second)
//
//	vectors, err := embedder.EmbedTexts(ctx, []string{"first chunk", "second chunk"})
package ai
