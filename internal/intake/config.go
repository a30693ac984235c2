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

package intake

type (
	// Consumer receives drained batches of key hashes. Push has no result,
	// so a policy's Push(batch []uint64) bool is wrapped in an adapter
	// (as cmd/tlfusim does) rather than used directly.
	Consumer interface {
		Push(keyHashes []uint64)
		Wrap(func())
	}

	Config struct {
		Consumer Consumer

		Size int32
		Rows uint64
	}
)
