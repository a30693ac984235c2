/*
 * Copyright 2020 Dgraph Labs, Inc. and Contributors
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

// Package tlfu implements the admission and eviction policy core of a
// concurrent, cost-bounded cache: a TinyLFU admission filter backed by a
// doorkeeper and count-min sketch, and a sampled-LFU eviction victim
// selector over a cost-accounted key set. It decides which keys a cache
// should admit and which it should evict; it does not store values itself.
package tlfu

import (
	"math"
	"sync"
)

// Policy decides, for each incoming key and cost, whether to admit the key
// and which resident keys (if any) must be evicted to make room. It is
// safe for concurrent use.
type Policy struct {
	sync.Mutex
	admit    *tinyLFU
	costs    *sampledLFU
	samples  int
	itemsCh  chan []uint64
	stop     chan struct{}
	done     sync.WaitGroup
	isClosed bool
	metrics  Sink
	Metrics  *Metrics
}

// New builds a Policy with room for approximately numCounters distinct
// recently-seen keys in its frequency sketch and a cost budget of maxCost.
func New(numCounters, maxCost int64, opts ...Option) (*Policy, error) {
	if numCounters <= 0 || numCounters > math.MaxInt32 {
		return nil, ErrInvalidCounterCount
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	// A caller-supplied Sink (WithSink) takes over all instrumentation; the
	// exported Metrics field only reflects the built-in sink, so it stays
	// nil when a custom one is in use.
	sink := cfg.sink
	var exported *Metrics
	if sink == nil {
		exported = NewMetrics()
		sink = exported
	}

	p := &Policy{
		admit:   newTinyLFU(numCounters, cfg.falsePositiveRate),
		costs:   newSampledLFU(maxCost, cfg.samples, sink),
		samples: cfg.samples,
		itemsCh: make(chan []uint64, cfg.bufferSize),
		stop:    make(chan struct{}),
		metrics: sink,
		Metrics: exported,
	}

	p.done.Add(1)
	go p.processItems()
	return p, nil
}

func (p *Policy) processItems() {
	defer p.done.Done()
	for {
		select {
		case items := <-p.itemsCh:
			p.Lock()
			p.admit.increments(items)
			p.Unlock()
		case <-p.stop:
			return
		}
	}
}

// Push delivers a batch of observed key hashes to the admitter. It never
// blocks: if the ingestion channel is full the batch is dropped. Pushing an
// empty batch, or pushing after Close, is a harmless no-op.
func (p *Policy) Push(keys []uint64) bool {
	if p.isClosed {
		return false
	}
	if len(keys) == 0 {
		return true
	}

	select {
	case p.itemsCh <- keys:
		p.metrics.Add(KeepGets, keys[0], uint64(len(keys)))
		return true
	default:
		p.metrics.Add(DropGets, keys[0], uint64(len(keys)))
		return false
	}
}

// Add decides whether the item with the given key hash and cost should be
// admitted. It returns the keys evicted to make room (if any) and whether
// the incoming item was admitted. Victims are returned even when the
// incoming item is ultimately rejected: any key evicted before the
// rejecting comparison was already removed from the cost set and the
// caller must still purge it from its own value store.
func (p *Policy) Add(key uint64, cost int64) ([]Victim, bool) {
	p.Lock()
	defer p.Unlock()

	// An item that can never fit is rejected outright.
	if cost > p.costs.getMaxCost() {
		return nil, false
	}

	// A key already present is an update, not an admission.
	if has := p.costs.updateIfHas(key, cost); has {
		return nil, false
	}

	room := p.costs.roomLeft(cost)
	if room >= 0 {
		p.costs.add(key, cost)
		p.metrics.Add(CostAdd, key, uint64(cost))
		return nil, true
	}

	// incHits is a snapshot of the incoming key's estimated frequency; it
	// does not change across the eviction loop below.
	incHits := p.admit.estimate(key)
	sample := make([]*pair, 0, p.samples)
	victims := make([]Victim, 0)

	for ; room < 0; room = p.costs.roomLeft(cost) {
		sample = p.costs.fillSample(sample)

		minKey, minHits, minID, minCost := uint64(0), int64(math.MaxInt64), 0, int64(0)
		for i, candidate := range sample {
			if hits := p.admit.estimate(candidate.key); hits < minHits {
				minKey, minHits, minID, minCost = candidate.key, hits, i, candidate.cost
			}
		}

		// The incoming item isn't worth it: stop evicting and reject, but
		// the caller still needs the victims evicted so far.
		if incHits < minHits {
			p.metrics.Add(RejectSets, key, 1)
			return victims, false
		}

		lifetime := p.costs.lifetimeSeconds(minKey)
		p.costs.del(minKey)
		p.metrics.Add(CostEvict, minKey, uint64(minCost))
		p.metrics.Add(KeyEvict, minKey, 1)
		p.Metrics.trackEviction(lifetime)

		sample[minID] = sample[len(sample)-1]
		sample = sample[:len(sample)-1]

		victims = append(victims, Victim{Key: minKey, Cost: minCost})
	}

	p.costs.add(key, cost)
	p.metrics.Add(CostAdd, key, uint64(cost))
	return victims, true
}

// Contains reports whether key is currently tracked.
func (p *Policy) Contains(key uint64) bool {
	p.Lock()
	defer p.Unlock()
	return p.costs.contains(key)
}

// Del removes key if present. It is a no-op otherwise.
func (p *Policy) Del(key uint64) {
	p.Lock()
	defer p.Unlock()
	p.costs.del(key)
}

// Update replaces key's cost if key is present, reporting whether it was.
// It never evicts; eviction happens lazily on the next Add.
func (p *Policy) Update(key uint64, cost int64) bool {
	p.Lock()
	defer p.Unlock()
	return p.costs.updateIfHas(key, cost)
}

// Cost returns key's tracked cost, or -1 if key is absent.
func (p *Policy) Cost(key uint64) int64 {
	p.Lock()
	defer p.Unlock()
	return p.costs.cost(key)
}

// Cap returns the remaining room in the cost budget.
func (p *Policy) Cap() int64 {
	p.Lock()
	defer p.Unlock()
	return p.costs.getMaxCost() - p.costs.used
}

// MaxCost returns the current cost budget.
func (p *Policy) MaxCost() int64 {
	return p.costs.getMaxCost()
}

// UpdateMaxCost changes the cost budget. It takes effect immediately but
// does not itself trigger eviction; that happens lazily on the next Add.
func (p *Policy) UpdateMaxCost(maxCost int64) {
	p.costs.updateMaxCost(maxCost)
}

// Clear resets all tracked keys, costs, and frequency state, but keeps the
// policy otherwise usable (it does not stop the drain goroutine).
func (p *Policy) Clear() {
	p.Lock()
	defer p.Unlock()
	p.admit.clear()
	p.costs.clear()
}

// Close stops the background drain goroutine and closes the ingestion
// channel. Close is idempotent; after Close, Push always returns false.
func (p *Policy) Close() {
	p.Lock()
	if p.isClosed {
		p.Unlock()
		return
	}
	p.isClosed = true
	p.Unlock()

	close(p.stop)
	p.done.Wait()
	close(p.itemsCh)
}
