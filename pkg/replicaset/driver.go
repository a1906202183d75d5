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

// Package replicaset is the replica-set state-machine driver (spec
// §4.6, C6): status probe, initiate, reconfigure, admin-user creation,
// and the topology/heartbeat event hand-offs that trigger restore and
// initiate from driver-owned threads.
package replicaset

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/cloudnative-mongo/mongo-operator/pkg/clusterspec"
	"github.com/cloudnative-mongo/mongo-operator/pkg/log"
	"github.com/cloudnative-mongo/mongo-operator/pkg/mongoerr"
	"github.com/cloudnative-mongo/mongo-operator/pkg/mongogateway"
)

var driverLog = log.WithName("replicaset")

// State is one of the four replica-set lifecycle states (spec §4.6).
type State int

const (
	StateHealthy State = iota
	StateInitiated
	StateReconfigured
	StateError
)

// configVersion tracks the last version number issued in a
// replSetReconfig per cluster, so Reconfigure can bump it as Mongo
// normally requires (spec §9 open question, resolved: bump on
// reconfigure).
type configVersion struct {
	version int
}

// Driver owns the Mongo gateway and the bounded hand-off channel fed by
// driver-owned event-listener threads.
type Driver struct {
	mongo  *mongogateway.Gateway
	events chan Event

	mu       sync.Mutex
	versions map[clusterspec.Key]*configVersion
}

// New builds a Driver with its own Mongo gateway and hand-off channel.
func New() *Driver {
	return &Driver{
		mongo:    mongogateway.New(),
		events:   make(chan Event, eventChannelBuffer),
		versions: make(map[clusterspec.Key]*configVersion),
	}
}

// Events returns the channel the reconcile loop should drain to learn
// about topology/heartbeat hand-offs (spec §4.6, §9).
func (d *Driver) Events() <-chan Event {
	return d.events
}

func (d *Driver) emit(kind EventKind, key clusterspec.Key) {
	select {
	case d.events <- Event{Kind: kind, Cluster: key}:
	default:
		driverLog.Info("hand-off event channel full, dropping event", "kind", kind, "cluster", key.Name)
	}
}

func (d *Driver) versionFor(key clusterspec.Key) *configVersion {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.versionForLocked(key)
}

func (d *Driver) versionForLocked(key clusterspec.Key) *configVersion {
	v, ok := d.versions[key]
	if !ok {
		v = &configVersion{version: 1}
		d.versions[key] = v
	}
	return v
}

// setConfigVersion pins the config version for key, used after a
// successful initiate (spec §9: version starts at 1).
func (d *Driver) setConfigVersion(key clusterspec.Key, version int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.versionForLocked(key).version = version
}

// bumpConfigVersion increments the config version for key and returns
// the new value, used before a reconfigure attempt (spec §9: bump on
// reconfigure).
func (d *Driver) bumpConfigVersion(key clusterspec.Key) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	cv := d.versionForLocked(key)
	cv.version++
	return cv.version
}

// revertConfigVersion undoes a bumpConfigVersion after a failed
// reconfigure attempt.
func (d *Driver) revertConfigVersion(key clusterspec.Key) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.versionForLocked(key).version--
}

func (d *Driver) client(ctx context.Context, spec *clusterspec.ClusterSpec) (*mongo.Client, error) {
	key := spec.Key()
	return d.mongo.ClientFor(ctx, spec.Name, spec.Namespace, spec.Replicas,
		func() { d.emit(TopologyReady, key) },
		func() { d.emit(AllHostsReady, key) },
	)
}

// CheckOrCreate drives the state machine in spec §4.6's table: probes
// Status(), and depending on the observed condition initiates,
// reconfigures, records health, or fails the cluster's sweep.
func (d *Driver) CheckOrCreate(ctx context.Context, spec *clusterspec.ClusterSpec) (State, error) {
	client, err := d.client(ctx, spec)
	if err != nil {
		return StateError, fmt.Errorf("connecting to replica set %s: %w", spec.Name, err)
	}

	status, err := mongogateway.Status(ctx, client)
	if err != nil {
		if errors.Is(err, mongoerr.ErrNoConfigReceived) {
			return d.initiate(ctx, spec)
		}
		return StateError, fmt.Errorf("probing replica set status for %s: %w", spec.Name, err)
	}

	health := mongogateway.EvaluateStatus(status)
	if !health.OK {
		return StateError, &mongoerr.UnexpectedResponse{Command: "replSetGetStatus", Err: fmt.Errorf("ok=false")}
	}

	if health.MemberCount == spec.Replicas {
		return StateHealthy, nil
	}

	return d.reconfigure(ctx, client, spec)
}

// initiate calls replSetInitiate against a direct client to member 0,
// not the pooled replica-set client (spec §4.6: Uninitialized state).
func (d *Driver) initiate(ctx context.Context, spec *clusterspec.ClusterSpec) (State, error) {
	host := mongogateway.MemberHostname(0, spec.Name, spec.Namespace)
	direct, err := mongogateway.DirectClient(ctx, host)
	if err != nil {
		return StateError, fmt.Errorf("connecting directly to %s: %w", host, err)
	}
	defer direct.Disconnect(ctx) //nolint:errcheck

	config := mongogateway.BuildConfig(spec.Name, spec.Namespace, spec.Replicas, 1)
	if err := mongogateway.Initiate(ctx, direct, config); err != nil {
		return StateError, fmt.Errorf("initiating replica set %s: %w", spec.Name, err)
	}

	d.setConfigVersion(spec.Key(), 1)
	driverLog.Info("initiated replica set", "cluster", spec.Name, "replicas", spec.Replicas)
	return StateInitiated, nil
}

// Initiate exposes the Uninitialized-state bootstrap action so callers
// reacting to an out-of-band signal (spec §4.6: onAllHostsReady) can
// trigger replSetInitiate directly, without going through CheckOrCreate's
// status probe.
func (d *Driver) Initiate(ctx context.Context, spec *clusterspec.ClusterSpec) (State, error) {
	return d.initiate(ctx, spec)
}

// reconfigure calls replSetReconfig against the pooled client with a
// bumped version number (spec §4.6: Drifted state).
func (d *Driver) reconfigure(ctx context.Context, client *mongo.Client, spec *clusterspec.ClusterSpec) (State, error) {
	key := spec.Key()
	version := d.bumpConfigVersion(key)

	config := mongogateway.BuildConfig(spec.Name, spec.Namespace, spec.Replicas, version)
	if err := mongogateway.Reconfigure(ctx, client, config); err != nil {
		d.revertConfigVersion(key)
		return StateError, fmt.Errorf("reconfiguring replica set %s: %w", spec.Name, err)
	}

	driverLog.Info("reconfigured replica set", "cluster", spec.Name, "replicas", spec.Replicas, "version", version)
	return StateReconfigured, nil
}

const (
	createUserRetryAttempts = 4
	createUserRetryWait     = 15 * time.Second
)

// CreateUsersIfNeeded calls CreateUser with the given admin credentials
// (read from the admin secret by the caller) against the pooled client. A "not master" response is
// retried after a wait (the primary may not have been elected yet);
// "already exists" is a success outcome; any other error propagates.
func (d *Driver) CreateUsersIfNeeded(ctx context.Context, spec *clusterspec.ClusterSpec, username, password string) error {
	client, err := d.client(ctx, spec)
	if err != nil {
		return fmt.Errorf("connecting to replica set %s: %w", spec.Name, err)
	}

	var lastErr error
	for attempt := 0; attempt < createUserRetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(createUserRetryWait):
			}
		}

		err := mongogateway.CreateUser(ctx, client, username, password)
		if err == nil || errors.Is(err, mongoerr.ErrUserAlreadyExists) {
			return nil
		}
		if !errors.Is(err, mongoerr.ErrNotMaster) {
			return err
		}
		lastErr = err
		driverLog.Info("createUser saw not-master, retrying", "cluster", spec.Name, "attempt", attempt+1)
	}
	return lastErr
}
