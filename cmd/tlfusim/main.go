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

// tlfusim drives a Policy against a synthetic Zipfian key trace and reports
// the resulting hit ratio and cost churn. It exists to exercise the policy
// core end to end, the way a real cache's Get/Set path would, without
// pulling in an actual value store.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/dgraph-io/tlfu"
	"github.com/dgraph-io/tlfu/internal/intake"
	"github.com/dgraph-io/tlfu/internal/sim"
)

var (
	numKeys     = flag.Uint64("keys", 1_000_000, "distinct keys in the Zipfian universe")
	numCounters = flag.Int64("counters", 1_000_000, "frequency sketch size")
	maxCost     = flag.Int64("max-cost", 10_000, "cost budget enforced by the policy")
	accesses    = flag.Int("accesses", 2_000_000, "number of simulated accesses")
	zipfS       = flag.Float64("zipf-s", 1.0001, "zipfian s parameter (>1, skew)")
	zipfV       = flag.Float64("zipf-v", 1.0, "zipfian v parameter (>=1, shift)")
)

// consumer adapts a Policy to intake.Consumer so individual key-hash
// observations can be coalesced into batches before reaching Push.
type consumer struct {
	policy *tlfu.Policy
}

func (c *consumer) Push(keyHashes []uint64) { c.policy.Push(keyHashes) }
func (c *consumer) Wrap(fn func())          { fn() }

func main() {
	flag.Parse()

	policy, err := tlfu.New(*numCounters, *maxCost)
	if err != nil {
		fmt.Fprintln(os.Stderr, "tlfusim:", err)
		os.Exit(1)
	}
	defer policy.Close()

	buffers := intake.NewBuffers(&intake.Config{
		Consumer: &consumer{policy: policy},
		Size:     64,
		Rows:     8,
	})

	trace := sim.NewZipfian(*zipfS, *zipfV, *numKeys)
	resident := make(map[uint64]struct{})

	var hits, misses int
	var costAdmitted, costEvicted uint64

	for i := 0; i < *accesses; i++ {
		key, err := trace()
		if err != nil {
			break
		}
		buffers.Add(key)

		if _, ok := resident[key]; ok {
			hits++
			continue
		}
		misses++

		victims, admitted := policy.Add(key, 1)
		for _, v := range victims {
			delete(resident, v.Key)
			costEvicted += uint64(v.Cost)
		}
		if admitted {
			resident[key] = struct{}{}
			costAdmitted++
		}
	}

	total := hits + misses
	var hitRatio float64
	if total > 0 {
		hitRatio = float64(hits) / float64(total)
	}

	fmt.Printf("accesses:       %s\n", humanize.Comma(int64(total)))
	fmt.Printf("hits:           %s (%.2f%%)\n", humanize.Comma(int64(hits)), hitRatio*100)
	fmt.Printf("misses:         %s\n", humanize.Comma(int64(misses)))
	fmt.Printf("cost admitted:  %s\n", humanize.Comma(int64(costAdmitted)))
	fmt.Printf("cost evicted:   %s\n", humanize.Comma(int64(costEvicted)))
	fmt.Printf("keys updated:   %s\n", humanize.Comma(int64(policy.Metrics.KeysUpdated())))
	fmt.Printf("sets rejected:  %s\n", humanize.Comma(int64(policy.Metrics.SetsRejected())))
}
