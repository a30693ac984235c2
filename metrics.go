/*
 * Copyright 2021 Dgraph Labs, Inc. and Contributors
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

import (
	"bytes"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/cpu"

	"github.com/dgraph-io/tlfu/z"
)

// MetricKind identifies a counted event. It generalizes the teacher's
// internal metricType enum into an exported type so a Sink implementation
// outside this package can be driven the same way *Metrics is.
type MetricKind int

const (
	KeyUpdate MetricKind = iota
	KeyEvict
	CostAdd
	CostEvict
	DropSets
	RejectSets
	DropGets
	KeepGets
	// numMetricKinds must stay last; it sizes the counter table.
	numMetricKinds
)

func (k MetricKind) String() string {
	switch k {
	case KeyUpdate:
		return "keys-updated"
	case KeyEvict:
		return "keys-evicted"
	case CostAdd:
		return "cost-added"
	case CostEvict:
		return "cost-evicted"
	case DropSets:
		return "sets-dropped"
	case RejectSets:
		return "sets-rejected"
	case DropGets:
		return "gets-dropped"
	case KeepGets:
		return "gets-kept"
	default:
		return "unidentified"
	}
}

// Sink receives counted events from a Policy. *Metrics is the provided
// implementation; callers may supply their own (e.g. to forward into an
// external metrics system) via WithSink.
type Sink interface {
	Add(kind MetricKind, keyHash, delta uint64)
}

// shardCount mirrors the teacher's 256-way counter sharding, sized for
// false-sharing avoidance rather than raw counter fan-out.
const shardCount = 256

// paddedCounter pads a single atomic counter out to its own cache line so
// concurrent increments from different shards never fight over the same
// cache line, replacing the teacher's manual "(hash % 25) * 10" spread with
// the idiomatic x/sys/cpu struct-padding approach.
type paddedCounter struct {
	v uint64
	_ cpu.CacheLinePad
}

// Metrics is a snapshot of performance statistics for the lifetime of a
// policy instance. A nil *Metrics is safe to use and behaves as a no-op
// sink, so a Policy constructed WithSink, whose Metrics field is nil, still
// works.
type Metrics struct {
	all [numMetricKinds][]*paddedCounter

	mu   sync.RWMutex
	life *z.HistogramData // tracks how many seconds an evicted key had lived
}

// NewMetrics returns a ready-to-use Metrics sink.
func NewMetrics() *Metrics {
	m := &Metrics{
		life: z.NewHistogramData(z.HistogramBounds(1, 16)),
	}
	for i := 0; i < int(numMetricKinds); i++ {
		m.all[i] = make([]*paddedCounter, shardCount)
		for j := range m.all[i] {
			m.all[i][j] = new(paddedCounter)
		}
	}
	return m
}

// Add implements Sink.
func (m *Metrics) Add(kind MetricKind, hash, delta uint64) {
	if m == nil {
		return
	}
	shard := m.all[kind][hash%shardCount]
	atomic.AddUint64(&shard.v, delta)
}

func (m *Metrics) get(kind MetricKind) uint64 {
	if m == nil {
		return 0
	}
	var total uint64
	for _, shard := range m.all[kind] {
		total += atomic.LoadUint64(&shard.v)
	}
	return total
}

// KeysUpdated is the total number of Add and Update calls that updated an
// existing key.
func (m *Metrics) KeysUpdated() uint64 { return m.get(KeyUpdate) }

// KeysEvicted is the total number of keys evicted to make room for an
// admitted item.
func (m *Metrics) KeysEvicted() uint64 { return m.get(KeyEvict) }

// CostAdded is the sum of costs admitted (including updates).
func (m *Metrics) CostAdded() uint64 { return m.get(CostAdd) }

// CostEvicted is the sum of costs reclaimed by eviction.
func (m *Metrics) CostEvicted() uint64 { return m.get(CostEvict) }

// SetsDropped is reserved for a collaborating cache to report Add calls it
// never forwarded to the policy (this core itself never drops an Add call).
func (m *Metrics) SetsDropped() uint64 { return m.get(DropSets) }

// SetsRejected is the number of Add calls rejected by the admission policy.
func (m *Metrics) SetsRejected() uint64 { return m.get(RejectSets) }

// GetsDropped is the number of key hashes in Push batches dropped because
// the ingestion channel was full.
func (m *Metrics) GetsDropped() uint64 { return m.get(DropGets) }

// GetsKept is the number of key hashes in Push batches that were
// successfully enqueued.
func (m *Metrics) GetsKept() uint64 { return m.get(KeepGets) }

func (m *Metrics) trackEviction(numSeconds int64) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.life.Update(numSeconds)
}

// LifeExpectancySeconds returns a snapshot histogram of how long evicted
// keys lived before eviction.
func (m *Metrics) LifeExpectancySeconds() *z.HistogramData {
	if m == nil {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.life.Copy()
}

// Clear resets all counters.
func (m *Metrics) Clear() {
	if m == nil {
		return
	}
	for i := 0; i < int(numMetricKinds); i++ {
		for _, shard := range m.all[i] {
			atomic.StoreUint64(&shard.v, 0)
		}
	}
	m.mu.Lock()
	m.life = z.NewHistogramData(z.HistogramBounds(1, 16))
	m.mu.Unlock()
}

// String renders every counter, mainly useful in tests and demos.
func (m *Metrics) String() string {
	if m == nil {
		return ""
	}
	var buf bytes.Buffer
	for i := 0; i < int(numMetricKinds); i++ {
		kind := MetricKind(i)
		fmt.Fprintf(&buf, "%s: %d ", kind, m.get(kind))
	}
	return buf.String()
}
