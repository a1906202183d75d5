/*
Copyright The Mongo Cluster Operator Contributors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package replicaset

import "github.com/cloudnative-mongo/mongo-operator/pkg/clusterspec"

// EventKind discriminates the two hand-offs a replica-set client's
// driver-owned listener threads can raise (spec §9 redesign: listeners
// produce messages onto a bounded channel instead of mutating shared
// caches directly).
type EventKind int

const (
	// TopologyReady fires when the replica set's topology acquires a
	// writable server for the first time this process.
	TopologyReady EventKind = iota
	// AllHostsReady fires when every expected member has reported a
	// successful heartbeat.
	AllHostsReady
)

// Event is one hand-off message; the main loop consumes these and
// invokes the corresponding action single-threaded (spec §4.6, §5).
type Event struct {
	Kind    EventKind
	Cluster clusterspec.Key
}

// eventChannelBuffer bounds the hand-off channel so a stalled consumer
// cannot block driver-internal goroutines indefinitely.
const eventChannelBuffer = 256
