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

package tlfu

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestPolicy(t *testing.T, numCounters, maxCost int64, opts ...Option) *Policy {
	t.Helper()
	p, err := New(numCounters, maxCost, opts...)
	require.NoError(t, err)
	t.Cleanup(p.Close)
	return p
}

func TestNewRejectsBadCounterCount(t *testing.T) {
	_, err := New(0, 16)
	require.ErrorIs(t, err, ErrInvalidCounterCount)
}

// numCounters == 1 is a degenerate but valid sketch size, not an
// InvalidCounterCount; Add must not panic on it.
func TestNewSingleCounterDoesNotPanic(t *testing.T) {
	p := newTestPolicy(t, 1, 16)
	require.NotPanics(t, func() { p.Add(1, 4) })
}

// S1: fitting an item with plenty of room never evicts.
func TestPolicyAddFitsWithoutEviction(t *testing.T) {
	p := newTestPolicy(t, 64, 16)

	victims, admitted := p.Add(1, 4)
	require.Nil(t, victims)
	require.True(t, admitted)
	require.EqualValues(t, 12, p.Cap())
	require.True(t, p.Contains(1))
}

// S2: adding an already-resident key is an update, not an admission.
func TestPolicyAddUpdatesExistingKey(t *testing.T) {
	p := newTestPolicy(t, 64, 16)
	p.Add(1, 4)

	victims, admitted := p.Add(1, 6)
	require.Nil(t, victims)
	require.False(t, admitted)
	require.EqualValues(t, 6, p.Cost(1))
	require.EqualValues(t, 10, p.Cap())
}

// S3: an item larger than the whole budget is rejected outright.
func TestPolicyAddRejectsOversizedItem(t *testing.T) {
	p := newTestPolicy(t, 64, 4)

	victims, admitted := p.Add(7, 5)
	require.Nil(t, victims)
	require.False(t, admitted)
	require.False(t, p.Contains(7))
}

// S4: a cold resident key is evicted in favor of a comparably-hot incomer.
func TestPolicyAddEvictsColdestKey(t *testing.T) {
	p := newTestPolicy(t, 64, 4)

	for _, k := range []uint64{1, 2, 3, 4} {
		victims, admitted := p.Add(k, 1)
		require.Nil(t, victims)
		require.True(t, admitted)
	}

	// Key 4 is left cold; 1-3 are driven up so they clearly out-rank it.
	for i := 0; i < 30; i++ {
		p.admit.increment(1)
		p.admit.increment(2)
		p.admit.increment(3)
	}

	victims, admitted := p.Add(99, 1)
	require.True(t, admitted)
	require.Len(t, victims, 1)
	require.EqualValues(t, 4, victims[0].Key)
	require.EqualValues(t, 1, victims[0].Cost)
	require.True(t, p.Contains(99))
	require.False(t, p.Contains(4))
}

// S5: when every resident key outranks the incomer, it's rejected with no
// eviction at all.
func TestPolicyAddRejectsWhenEveryoneIsHotter(t *testing.T) {
	p := newTestPolicy(t, 64, 4)

	for _, k := range []uint64{1, 2, 3, 4} {
		p.Add(k, 1)
	}
	for i := 0; i < 30; i++ {
		p.admit.increment(1)
		p.admit.increment(2)
		p.admit.increment(3)
		p.admit.increment(4)
	}

	victims, admitted := p.Add(99, 1)
	require.False(t, admitted)
	require.Empty(t, victims)
	require.False(t, p.Contains(99))
	for _, k := range []uint64{1, 2, 3, 4} {
		require.True(t, p.Contains(k))
	}
}

func TestPolicyDel(t *testing.T) {
	p := newTestPolicy(t, 64, 16)
	p.Add(1, 4)
	p.Del(1)
	require.False(t, p.Contains(1))
	require.EqualValues(t, -1, p.Cost(1))
	require.EqualValues(t, 16, p.Cap())
}

func TestPolicyUpdate(t *testing.T) {
	p := newTestPolicy(t, 64, 16)
	require.False(t, p.Update(1, 4))

	p.Add(1, 4)
	require.True(t, p.Update(1, 8))
	require.EqualValues(t, 8, p.Cost(1))
}

func TestPolicyClear(t *testing.T) {
	p := newTestPolicy(t, 64, 16)
	p.Add(1, 4)
	p.Add(2, 4)
	p.Clear()
	require.False(t, p.Contains(1))
	require.False(t, p.Contains(2))
	require.EqualValues(t, 16, p.Cap())
}

func TestPolicyUpdateMaxCost(t *testing.T) {
	p := newTestPolicy(t, 64, 16)
	require.EqualValues(t, 16, p.MaxCost())
	p.UpdateMaxCost(32)
	require.EqualValues(t, 32, p.MaxCost())
}

func TestPolicyPushDrainsIntoAdmitter(t *testing.T) {
	p := newTestPolicy(t, 64, 16)
	require.True(t, p.Push([]uint64{1, 1, 1}))

	require.Eventually(t, func() bool {
		p.Lock()
		defer p.Unlock()
		return p.admit.estimate(1) > 0
	}, time.Second, time.Millisecond)
}

func TestPolicyPushEmptyBatchIsNoop(t *testing.T) {
	p := newTestPolicy(t, 64, 16)
	require.True(t, p.Push(nil))
}

func TestPolicyPushAfterCloseFails(t *testing.T) {
	p, err := New(64, 16)
	require.NoError(t, err)
	p.Close()
	require.False(t, p.Push([]uint64{1}))
}

func TestPolicyCloseIsIdempotent(t *testing.T) {
	p, err := New(64, 16)
	require.NoError(t, err)
	p.Close()
	require.NotPanics(t, p.Close)
}

func TestPolicyMetricsTrackCostAndEvictions(t *testing.T) {
	p := newTestPolicy(t, 64, 4)
	for _, k := range []uint64{1, 2, 3, 4} {
		p.Add(k, 1)
	}
	require.EqualValues(t, 4, p.Metrics.CostAdded())

	for i := 0; i < 30; i++ {
		p.admit.increment(1)
		p.admit.increment(2)
		p.admit.increment(3)
	}
	p.Add(99, 1)
	require.EqualValues(t, 1, p.Metrics.KeysEvicted())
	require.EqualValues(t, 1, p.Metrics.CostEvicted())
}

// An eviction records the victim's residency in the life-expectancy
// histogram.
func TestPolicyMetricsTrackLifeExpectancy(t *testing.T) {
	p := newTestPolicy(t, 64, 4)
	for _, k := range []uint64{1, 2, 3, 4} {
		p.Add(k, 1)
	}
	for i := 0; i < 30; i++ {
		p.admit.increment(1)
		p.admit.increment(2)
		p.admit.increment(3)
	}
	p.Add(99, 1)

	hist := p.Metrics.LifeExpectancySeconds()
	require.EqualValues(t, 1, hist.Count)
}

type recordingSink struct {
	mu     sync.Mutex
	events []MetricKind
}

func (r *recordingSink) Add(kind MetricKind, keyHash, delta uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, kind)
}

func (r *recordingSink) has(kind MetricKind) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range r.events {
		if k == kind {
			return true
		}
	}
	return false
}

// A caller-supplied Sink takes over instrumentation entirely; the built-in
// Metrics snapshot is left nil since nothing is recorded into it.
func TestPolicyWithSinkRoutesEvents(t *testing.T) {
	sink := &recordingSink{}
	p := newTestPolicy(t, 64, 16, WithSink(sink))
	require.Nil(t, p.Metrics)

	p.Add(1, 4)
	require.True(t, sink.has(CostAdd))
}
