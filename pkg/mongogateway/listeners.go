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

package mongogateway

import (
	"sync"

	"go.mongodb.org/mongo-driver/event"

	"github.com/cloudnative-mongo/mongo-operator/pkg/log"
)

// TopologyReadyFunc is invoked at most once per listener instance, the
// first time the topology acquires a writable server (spec §4.6).
type TopologyReadyFunc func()

// AllHostsReadyFunc is invoked at most once per listener instance, once
// every expected host has reported a successful heartbeat (spec §4.6).
type AllHostsReadyFunc func()

// replicaSetListeners builds the four event listeners the spec
// requires (command logger, server logger, topology listener,
// heartbeat listener) and wires the topology/heartbeat hand-offs
// through plain callbacks so the caller can route them onto its own
// message-passing surface (spec §9: listeners must not mutate shared
// state directly).
type replicaSetListeners struct {
	clusterName string
	replicas    int

	mu               sync.Mutex
	firedTopology    bool
	hostSuccesses    map[string]bool
	firedAllHosts    bool
	earliestHost     string

	onTopologyReady  TopologyReadyFunc
	onAllHostsReady  AllHostsReadyFunc
}

func newReplicaSetListeners(clusterName string, replicas int, onTopologyReady TopologyReadyFunc, onAllHostsReady AllHostsReadyFunc) *replicaSetListeners {
	return &replicaSetListeners{
		clusterName:     clusterName,
		replicas:        replicas,
		hostSuccesses:   make(map[string]bool),
		onTopologyReady: onTopologyReady,
		onAllHostsReady: onAllHostsReady,
	}
}

func (l *replicaSetListeners) commandMonitor() *event.CommandMonitor {
	cmdLog := log.WithName("mongo.command").WithValues("cluster", l.clusterName)
	return &event.CommandMonitor{
		Started: func(_ interface{}, e *event.CommandStartedEvent) {
			cmdLog.V(1).Info("command started", "command", e.CommandName)
		},
		Failed: func(_ interface{}, e *event.CommandFailedEvent) {
			cmdLog.Info("command failed", "command", e.CommandName, "error", e.Failure)
		},
	}
}

func (l *replicaSetListeners) serverMonitor() *event.ServerMonitor {
	srvLog := log.WithName("mongo.server").WithValues("cluster", l.clusterName)
	return &event.ServerMonitor{
		ServerDescriptionChanged: func(e *event.ServerDescriptionChangedEvent) {
			srvLog.V(1).Info("server description changed", "address", e.Address.String())
		},
		TopologyDescriptionChanged: func(e *event.TopologyDescriptionChangedEvent) {
			l.onTopologyDescriptionChanged(e)
		},
		ServerHeartbeatSucceeded: func(e *event.ServerHeartbeatSucceededEvent) {
			l.onHeartbeatSucceeded(e)
		},
	}
}

// onTopologyDescriptionChanged fires onTopologyReady exactly once per
// process per cluster, the first time the new topology description has
// a writable (primary) server.
func (l *replicaSetListeners) onTopologyDescriptionChanged(e *event.TopologyDescriptionChangedEvent) {
	if !hasWritableServer(e) {
		return
	}

	l.mu.Lock()
	alreadyFired := l.firedTopology
	l.firedTopology = true
	l.mu.Unlock()

	if !alreadyFired && l.onTopologyReady != nil {
		l.onTopologyReady()
	}
}

// onHeartbeatSucceeded tracks per-host success counts; when every
// expected host has reported success, and the earliest-registered host
// is the one delivering the current event, fires onAllHostsReady at
// most once.
func (l *replicaSetListeners) onHeartbeatSucceeded(e *event.ServerHeartbeatSucceededEvent) {
	host := e.ConnectionID

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.firedAllHosts {
		return
	}
	if l.earliestHost == "" {
		l.earliestHost = host
	}
	l.hostSuccesses[host] = true

	if len(l.hostSuccesses) < l.replicas {
		return
	}
	if host != l.earliestHost {
		return
	}

	l.firedAllHosts = true
	if l.onAllHostsReady != nil {
		go l.onAllHostsReady()
	}
}

func hasWritableServer(e *event.TopologyDescriptionChangedEvent) bool {
	for _, srv := range e.NewDescription.Servers {
		if srv.Kind == "RSPrimary" || srv.Kind == "Standalone" || srv.Kind == "Mongos" {
			return true
		}
	}
	return false
}
