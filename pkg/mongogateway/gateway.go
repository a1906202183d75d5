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

// Package mongogateway is the typed Mongo gateway (spec §4.2, C3):
// admin commands against a replica set via a pooled driver client,
// maintained in a process-wide map keyed by namespace and replica-set
// name.
package mongogateway

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cloudnative-mongo/mongo-operator/pkg/log"
	"github.com/cloudnative-mongo/mongo-operator/pkg/mongoerr"
)

var gwLog = log.WithName("mongogateway")

const (
	connectTimeout        = 60 * time.Second
	serverSelectionTimeout = 60 * time.Second

	retryAttempts = 4
	retrySpacing  = 15 * time.Second
)

// ReplicaSetConfig is the document sent to Mongo's replSetInitiate /
// replSetReconfig admin commands (spec §6 wire format).
type ReplicaSetConfig struct {
	ID      string               `bson:"_id"`
	Version int                  `bson:"version"`
	Members []ReplicaSetMember   `bson:"members"`
}

// ReplicaSetMember is one entry of ReplicaSetConfig.Members.
type ReplicaSetMember struct {
	ID   int    `bson:"_id"`
	Host string `bson:"host"`
}

// BuildConfig enumerates hosts 0..replicas-1 for cluster/namespace,
// with the given config version (1 on initiate; the replica-set driver
// passes a bumped version on reconfigure, see DESIGN.md).
func BuildConfig(cluster, namespace string, replicas, version int) ReplicaSetConfig {
	members := make([]ReplicaSetMember, replicas)
	for i := 0; i < replicas; i++ {
		members[i] = ReplicaSetMember{ID: i, Host: MemberHostname(i, cluster, namespace)}
	}
	return ReplicaSetConfig{ID: cluster, Version: version, Members: members}
}

// clientKey identifies a pooled client by namespace and replica-set
// name: two clusters named alike in different namespaces must never
// share a cached connection.
type clientKey struct {
	namespace  string
	replicaSet string
}

// Gateway maintains the process-wide (namespace, replica-set name) to
// connected client mapping. First use lazily constructs a client under
// the write lock; subsequent uses take only the read lock once the entry
// exists. Lookups are never lock-free.
type Gateway struct {
	mu      sync.RWMutex
	clients map[clientKey]*mongo.Client
}

// New creates an empty Gateway.
func New() *Gateway {
	return &Gateway{clients: make(map[clientKey]*mongo.Client)}
}

// clientFor returns the pooled client for a replica set, connecting
// lazily on first use with the four event listeners wired to the given
// topology/heartbeat callbacks.
func (g *Gateway) clientFor(
	ctx context.Context,
	namespace, replicaSet string,
	hosts []string,
	onTopologyReady TopologyReadyFunc,
	onAllHostsReady AllHostsReadyFunc,
) (*mongo.Client, error) {
	key := clientKey{namespace: namespace, replicaSet: replicaSet}

	g.mu.RLock()
	if c, ok := g.clients[key]; ok {
		g.mu.RUnlock()
		return c, nil
	}
	g.mu.RUnlock()

	g.mu.Lock()
	defer g.mu.Unlock()
	if c, ok := g.clients[key]; ok {
		return c, nil
	}

	listeners := newReplicaSetListeners(replicaSet, len(hosts), onTopologyReady, onAllHostsReady)

	opts := options.Client().
		SetHosts(hosts).
		SetReplicaSet(replicaSet).
		SetConnectTimeout(connectTimeout).
		SetServerSelectionTimeout(serverSelectionTimeout).
		SetMonitor(listeners.commandMonitor()).
		SetServerMonitor(listeners.serverMonitor())

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connecting to replica set %s: %w", replicaSet, err)
	}

	g.clients[key] = client
	return client, nil
}

// ClientFor returns (connecting lazily) the pooled client for a
// cluster's replica set, wiring the topology/heartbeat hand-offs to the
// given callbacks. Safe to call from the reconcile loop on every
// sweep; the underlying connection is only established once. Clusters
// are cached per namespace, so two clusters sharing a name in
// different namespaces never collide on one connection.
func (g *Gateway) ClientFor(
	ctx context.Context,
	cluster, namespace string,
	replicas int,
	onTopologyReady TopologyReadyFunc,
	onAllHostsReady AllHostsReadyFunc,
) (*mongo.Client, error) {
	hosts := MemberHostnames(replicas, cluster, namespace)
	return g.clientFor(ctx, namespace, cluster, hosts, onTopologyReady, onAllHostsReady)
}

// DirectClient returns a one-off, unpooled client connected directly to
// a single member, used to send replSetInitiate to member 0 before the
// replica set exists (spec §4.6: Uninitialized state).
func DirectClient(ctx context.Context, host string) (*mongo.Client, error) {
	opts := options.Client().
		SetHosts([]string{host}).
		SetConnectTimeout(connectTimeout).
		SetServerSelectionTimeout(serverSelectionTimeout).
		SetDirect(true)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connecting directly to %s: %w", host, err)
	}
	return client, nil
}

// Status runs replSetGetStatus against the admin database, retrying on
// transient connection failures.
func Status(ctx context.Context, client *mongo.Client) (bson.M, error) {
	var result bson.M
	err := withRetry(ctx, func() error {
		r := client.Database("admin").RunCommand(ctx, bson.D{{Key: "replSetGetStatus", Value: 1}})
		return r.Decode(&result)
	})
	if err != nil {
		return nil, mongoerr.Classify(err)
	}
	return result, nil
}

// Initiate runs replSetInitiate with config against the admin database.
func Initiate(ctx context.Context, client *mongo.Client, config ReplicaSetConfig) error {
	err := withRetry(ctx, func() error {
		r := client.Database("admin").RunCommand(ctx, bson.D{{Key: "replSetInitiate", Value: config}})
		return r.Err()
	})
	if err != nil {
		return mongoerr.Classify(err)
	}
	return nil
}

// Reconfigure runs replSetReconfig with config against the admin
// database.
func Reconfigure(ctx context.Context, client *mongo.Client, config ReplicaSetConfig) error {
	err := withRetry(ctx, func() error {
		r := client.Database("admin").RunCommand(ctx, bson.D{{Key: "replSetReconfig", Value: config}})
		return r.Err()
	})
	if err != nil {
		return mongoerr.Classify(err)
	}
	return nil
}

// CreateUser runs createUser for username/password with the root role
// on the admin database (spec §6 wire format).
func CreateUser(ctx context.Context, client *mongo.Client, username, password string) error {
	err := withRetry(ctx, func() error {
		r := client.Database("admin").RunCommand(ctx, bson.D{
			{Key: "createUser", Value: username},
			{Key: "pwd", Value: password},
			{Key: "roles", Value: bson.A{bson.D{{Key: "role", Value: "root"}, {Key: "db", Value: "admin"}}}},
		})
		return r.Err()
	})
	if err != nil {
		return mongoerr.Classify(err)
	}
	return nil
}

// withRetry retries op up to retryAttempts times with retrySpacing on
// transient connection failures; a non-transient driver error (any
// error that is not a plain network/selection failure) is propagated
// immediately without retrying (spec §4.2, §7).
func withRetry(ctx context.Context, op func() error) error {
	var lastErr error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retrySpacing):
			}
		}

		err := op()
		if err == nil {
			return nil
		}
		if !isTransient(err) {
			return err
		}
		lastErr = err
		gwLog.Info("transient mongo error, retrying", "attempt", attempt+1, "error", err.Error())
	}
	return lastErr
}

func isTransient(err error) bool {
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "server selection error") || strings.Contains(msg, "connection refused")
}

// ReplicaSetHealth is the outcome of evaluating a Status() response
// against the state machine in spec §4.6.
type ReplicaSetHealth struct {
	OK        bool
	MemberCount int
}

// EvaluateStatus inspects a replSetGetStatus document for the ok flag
// and member count, used by the replica-set driver's state machine.
func EvaluateStatus(status bson.M) ReplicaSetHealth {
	ok, _ := status["ok"].(float64)
	members, _ := status["members"].(bson.A)
	return ReplicaSetHealth{OK: ok == 1, MemberCount: len(members)}
}
