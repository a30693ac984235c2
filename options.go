/*
 * Copyright 2019 Dgraph Labs, Inc. and Contributors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package tlfu

// defaultBufferSize is the ingestion channel's capacity absent a
// WithBufferSize option.
const defaultBufferSize = 3

// Option configures a Policy at construction time.
type Option func(*config)

type config struct {
	samples           int
	bufferSize        int
	falsePositiveRate float64
	sink              Sink
}

func defaultConfig() *config {
	return &config{
		samples:           defaultSamples,
		bufferSize:        defaultBufferSize,
		falsePositiveRate: defaultFalsePositiveRate,
	}
}

// WithSamples sets how many candidates the eviction loop draws per round.
// The TinyLFU paper found 5 to be close to optimal across workloads; this
// is the default.
func WithSamples(n int) Option {
	if n < 1 {
		panic("tlfu: samples must be >= 1")
	}
	return func(c *config) {
		c.samples = n
	}
}

// WithBufferSize sets the ingestion channel's capacity. Batches pushed
// beyond this capacity are dropped rather than blocking the caller.
func WithBufferSize(n int) Option {
	if n < 1 {
		panic("tlfu: buffer size must be >= 1")
	}
	return func(c *config) {
		c.bufferSize = n
	}
}

// WithFalsePositiveRate sets the doorkeeper's target false-positive rate.
func WithFalsePositiveRate(rate float64) Option {
	if rate <= 0 || rate >= 1 {
		panic("tlfu: false positive rate must be in (0, 1)")
	}
	return func(c *config) {
		c.falsePositiveRate = rate
	}
}

// WithSink replaces the policy's built-in *Metrics with a caller-supplied
// Sink, e.g. to forward counted events into an external metrics system. When
// set, Policy.Metrics stays nil: the built-in snapshot accessors have
// nothing to report against, since every event goes to sink instead.
func WithSink(sink Sink) Option {
	if sink == nil {
		panic("tlfu: sink must not be nil")
	}
	return func(c *config) {
		c.sink = sink
	}
}
