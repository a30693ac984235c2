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

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTinyLFUIncrement(t *testing.T) {
	l := newTinyLFU(4, defaultFalsePositiveRate)
	l.increment(1)
	l.increment(1)
	l.increment(1)
	require.True(t, l.door.contains(1))
	require.EqualValues(t, 2, l.sketch.estimate(1))

	// The fourth increment crosses the samples threshold (4) and triggers a
	// reset: the doorkeeper clears and the sketch halves.
	l.increment(1)
	require.False(t, l.door.contains(1))
	require.EqualValues(t, 1, l.sketch.estimate(1))
}

func TestTinyLFUEstimate(t *testing.T) {
	l := newTinyLFU(8, defaultFalsePositiveRate)
	l.increment(1)
	l.increment(1)
	l.increment(1)

	require.EqualValues(t, 3, l.estimate(1))
	require.EqualValues(t, 0, l.estimate(2))
	require.EqualValues(t, 3, l.w)
}

func TestTinyLFUIncrements(t *testing.T) {
	l := newTinyLFU(16, defaultFalsePositiveRate)
	require.EqualValues(t, 16, l.samples)

	l.increments([]uint64{1, 2, 2, 3, 3, 3})
	require.EqualValues(t, 1, l.estimate(1))
	require.EqualValues(t, 2, l.estimate(2))
	require.EqualValues(t, 3, l.estimate(3))
	require.EqualValues(t, 6, l.w)
}

func TestTinyLFUClear(t *testing.T) {
	l := newTinyLFU(16, defaultFalsePositiveRate)
	l.increments([]uint64{1, 3, 3, 3})
	l.clear()
	require.Zero(t, l.w)
	require.False(t, l.door.contains(1))
	require.EqualValues(t, 0, l.estimate(3))
}
