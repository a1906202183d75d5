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

// Package controller is the reconcile loop (spec §4.5, §4.6, C9):
// drives every declared cluster through its resource reconcilers and
// its replica-set driver, sweeping periodically and reacting to watch
// events, and garbage-collects resources whose cluster disappeared.
package controller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/cloudnative-mongo/mongo-operator/pkg/backup"
	"github.com/cloudnative-mongo/mongo-operator/pkg/clusterspec"
	"github.com/cloudnative-mongo/mongo-operator/pkg/k8sgateway"
	"github.com/cloudnative-mongo/mongo-operator/pkg/log"
	"github.com/cloudnative-mongo/mongo-operator/pkg/metrics"
	"github.com/cloudnative-mongo/mongo-operator/pkg/reconcilers"
	"github.com/cloudnative-mongo/mongo-operator/pkg/replicaset"
	"github.com/cloudnative-mongo/mongo-operator/pkg/restore"
)

var loopLog = log.WithName("controller")

// Loop owns the ephemeral, process-lifetime caches (spec §3:
// VersionCache) and wires the reconcilers, replica-set driver, backup
// scheduler and restore coordinator together into one cluster's
// reconcile pass (spec §4.5).
type Loop struct {
	gw             *k8sgateway.Gateway
	reconcilers    []reconcilers.Reconciler
	driver         *replicaset.Driver
	scheduler      *backup.Scheduler
	restorer       *restore.Coordinator
	operatorID     string
	resourcePlural string

	mu           sync.Mutex
	versionCache map[clusterspec.Key]string
	specCache    map[clusterspec.Key]*clusterspec.ClusterSpec
}

// New builds a Loop over gw with the fixed reconciler order (spec §4.5).
func New(gw *k8sgateway.Gateway, operatorID, resourcePlural string) *Loop {
	return &Loop{
		gw:             gw,
		reconcilers:    reconcilers.DefaultOrder(gw, operatorID, resourcePlural),
		driver:         replicaset.New(),
		scheduler:      backup.New(gw),
		restorer:       restore.New(gw),
		operatorID:     operatorID,
		resourcePlural: resourcePlural,
		versionCache:   make(map[clusterspec.Key]string),
		specCache:      make(map[clusterspec.Key]*clusterspec.ClusterSpec),
	}
}

// Driver exposes the replica-set driver so the supervisor can drain its
// hand-off events (spec §9).
func (l *Loop) Driver() *replicaset.Driver { return l.driver }

func (l *Loop) cachedVersion(key clusterspec.Key) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	v, ok := l.versionCache[key]
	return v, ok
}

func (l *Loop) recordVersion(key clusterspec.Key, version string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.versionCache[key] = version
}

func (l *Loop) forgetVersion(key clusterspec.Key) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.versionCache, key)
	delete(l.specCache, key)
}

// SpecFor returns the most recently reconciled ClusterSpec for key, used
// by HandleDriverEvent to resolve a hand-off event's bare key back into
// a full spec.
func (l *Loop) SpecFor(key clusterspec.Key) (*clusterspec.ClusterSpec, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	spec, ok := l.specCache[key]
	return spec, ok
}

func (l *Loop) recordSpec(spec *clusterspec.ClusterSpec) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.specCache[spec.Key()] = spec
}

// Sweep reconciles every declared cluster resource once (spec §4.5's
// periodic worker): list, parse, and for each run the fixed reconciler
// order, the replica-set driver's CheckOrCreate/CreateUsersIfNeeded, and
// an unconditional backup-scheduler tick. A cluster whose
// resourceVersion has not advanced since the last sweep is still
// ticked, since the backup/restore cadence is independent of spec
// drift.
func (l *Loop) Sweep(ctx context.Context) {
	sweepID := uuid.NewString()
	ctx = log.IntoContext(ctx, loopLog.WithValues("sweep_id", sweepID))

	list, err := l.gw.ListClusterResources(ctx)
	if err != nil {
		loopLog.Info("listing cluster resources failed", "sweep_id", sweepID, "error", err.Error())
		return
	}

	for i := range list.Items {
		l.reconcileOne(ctx, &list.Items[i], false)
	}
}

// ReconcileEvent drives one cluster resource from a watch event (spec
// §4.6's event-driven worker). force=true bypasses the resourceVersion
// short-circuit, used for ADDED/MODIFIED events since the watch itself
// already tells us something changed.
func (l *Loop) ReconcileEvent(ctx context.Context, obj *unstructured.Unstructured, force bool) {
	l.reconcileOne(ctx, obj, force)
}

func (l *Loop) reconcileOne(ctx context.Context, obj *unstructured.Unstructured, force bool) {
	rlog := log.FromContext(ctx)

	spec, err := clusterspec.ParseUnstructured(obj)
	if err != nil {
		rlog.Info("skipping malformed cluster resource", "name", obj.GetName(), "namespace", obj.GetNamespace(), "error", err.Error())
		return
	}

	// Unconditional: the backup cadence runs on every sweep regardless
	// of whether the cluster spec changed or the steps below failed
	// (spec §4.5 step 3); deferred so the early returns still reach it.
	defer func() {
		if err := l.scheduler.Tick(ctx, spec, time.Now()); err != nil {
			rlog.Info("backup tick failed", "cluster", spec.Name, "error", err.Error())
			metrics.BackupTotal.WithLabelValues(spec.Namespace, spec.Name, metrics.OutcomeError).Inc()
		} else {
			metrics.BackupTotal.WithLabelValues(spec.Namespace, spec.Name, metrics.OutcomeOK).Inc()
		}
	}()

	key := spec.Key()
	known, hasKnown := l.cachedVersion(key)
	fastPath := !force && hasKnown && known == spec.ResourceVersion

	if !fastPath {
		if err := l.reconcileResources(ctx, spec); err != nil {
			rlog.Info("resource reconcile failed", "cluster", spec.Name, "error", err.Error())
			metrics.ReconcileTotal.WithLabelValues(spec.Namespace, spec.Name, metrics.OutcomeError).Inc()
			return
		}
	}

	state, err := l.driver.CheckOrCreate(ctx, spec)
	if err != nil {
		rlog.Info("replica set check failed", "cluster", spec.Name, "error", err.Error())
		metrics.ReconcileTotal.WithLabelValues(spec.Namespace, spec.Name, metrics.OutcomeError).Inc()
		metrics.ReplicaSetState.WithLabelValues(spec.Namespace, spec.Name).Set(float64(replicaset.StateError))
		return
	}
	metrics.ReplicaSetState.WithLabelValues(spec.Namespace, spec.Name).Set(float64(state))

	if !fastPath {
		username, password, err := l.adminCredentials(ctx, spec)
		if err != nil {
			rlog.Info("reading admin credentials failed", "cluster", spec.Name, "error", err.Error())
		} else if err := l.driver.CreateUsersIfNeeded(ctx, spec, username, password); err != nil {
			rlog.Info("admin user creation failed", "cluster", spec.Name, "error", err.Error())
		}

		l.recordVersion(key, spec.ResourceVersion)
	}
	l.recordSpec(spec)

	metrics.ReconcileTotal.WithLabelValues(spec.Namespace, spec.Name, metrics.OutcomeOK).Inc()
}

func (l *Loop) reconcileResources(ctx context.Context, spec *clusterspec.ClusterSpec) error {
	for _, r := range l.reconcilers {
		if _, err := r.Reconcile(ctx, spec); err != nil {
			return fmt.Errorf("reconciling %s for %s: %w", r.Kind(), spec.Name, err)
		}
	}
	return nil
}

func (l *Loop) adminCredentials(ctx context.Context, spec *clusterspec.ClusterSpec) (username, password string, err error) {
	secret, found, err := l.gw.GetSecret(ctx, spec.Namespace, reconcilers.SecretName(spec.Name))
	if err != nil {
		return "", "", err
	}
	if !found {
		return "", "", fmt.Errorf("admin secret for %s not yet created", spec.Name)
	}
	return string(secret.Data["username"]), string(secret.Data["password"]), nil
}

// HandleDriverEvent reacts to a hand-off from the replica-set driver's
// event-listener threads (spec §9 and §4.6): TopologyReady triggers the
// restore coordinator, AllHostsReady fires replSetInitiate now that every
// member has reported a heartbeat.
func (l *Loop) HandleDriverEvent(ctx context.Context, ev replicaset.Event) {
	switch ev.Kind {
	case replicaset.TopologyReady:
		spec, ok := l.SpecFor(ev.Cluster)
		if !ok {
			loopLog.Info("topology-ready event for unknown cluster", "cluster", ev.Cluster.Name)
			return
		}
		if err := l.restorer.RestoreIfNeeded(ctx, spec); err != nil {
			loopLog.Info("restore failed", "cluster", spec.Name, "error", err.Error())
			metrics.RestoreTotal.WithLabelValues(spec.Namespace, spec.Name, metrics.OutcomeError).Inc()
			return
		}
		metrics.RestoreTotal.WithLabelValues(spec.Namespace, spec.Name, metrics.OutcomeOK).Inc()
	case replicaset.AllHostsReady:
		spec, ok := l.SpecFor(ev.Cluster)
		if !ok {
			loopLog.Info("all-hosts-ready event for unknown cluster", "cluster", ev.Cluster.Name)
			return
		}
		if _, err := l.driver.Initiate(ctx, spec); err != nil {
			loopLog.Info("initiate on all-hosts-ready failed", "cluster", spec.Name, "error", err.Error())
			metrics.InitiateTotal.WithLabelValues(spec.Namespace, spec.Name, metrics.OutcomeError).Inc()
			return
		}
		metrics.InitiateTotal.WithLabelValues(spec.Namespace, spec.Name, metrics.OutcomeOK).Inc()
	}
}

// GarbageSweep deletes every owned resource whose parent cluster custom
// resource no longer exists (spec §4.5's GC pass).
func (l *Loop) GarbageSweep(ctx context.Context) {
	exists := func(ctx context.Context, name, namespace string) (bool, error) {
		_, found, err := l.gw.GetClusterResource(ctx, namespace, name)
		return found, err
	}

	for _, r := range l.reconcilers {
		if err := r.CleanOrphans(ctx, exists); err != nil {
			loopLog.Info("garbage sweep failed", "kind", r.Kind(), "error", err.Error())
		}
	}
}

// Forget drops a cluster's cached resourceVersion, called on a DELETED
// watch event so a resource recreated with the same name is treated as
// new (spec §4.6).
func (l *Loop) Forget(key clusterspec.Key) {
	l.forgetVersion(key)
}

// asUnstructured recovers the *unstructured.Unstructured payload of a
// watch event, since the dynamic client's watch delivers runtime.Object.
func asUnstructured(obj interface{ GetResourceVersion() string }) (*unstructured.Unstructured, bool) {
	u, ok := obj.(*unstructured.Unstructured)
	return u, ok
}

// clusterKey derives the cache key of a cluster custom resource object.
func clusterKey(obj *unstructured.Unstructured) clusterspec.Key {
	return clusterspec.Key{Name: obj.GetName(), Namespace: obj.GetNamespace()}
}
