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

package controller

import (
	"context"
	"time"

	"k8s.io/apimachinery/pkg/watch"

	"github.com/cloudnative-mongo/mongo-operator/internal/config"
	"github.com/cloudnative-mongo/mongo-operator/pkg/k8sgateway"
	"github.com/cloudnative-mongo/mongo-operator/pkg/log"
)

var supervisorLog = log.WithName("supervisor")

// watchReopenDelay is how long runWatchWorker pauses before reopening a
// watch that closed, errored, or failed to open, so a persistent failure
// doesn't busy-loop against the API server (spec §5, §4.5).
const watchReopenDelay = 2 * time.Second

// Supervisor runs the Loop's two cooperating workers for the lifetime of
// the process (spec §4.5, §9, C10): a periodic full sweep, and an
// event-driven watch reacting to individual cluster-resource changes. A
// third goroutine drains the replica-set driver's hand-off events.
// Shutdown is cooperative: cancel the context passed to Run and wait for
// it to return.
type Supervisor struct {
	loop *Loop
	gw   *k8sgateway.Gateway
	cfg  config.Config
}

// NewSupervisor builds a Supervisor over an already-constructed Loop.
func NewSupervisor(loop *Loop, gw *k8sgateway.Gateway, cfg config.Config) *Supervisor {
	return &Supervisor{loop: loop, gw: gw, cfg: cfg}
}

// Run blocks until ctx is cancelled, running the sweep worker, the watch
// worker and the driver-event worker concurrently.
func (s *Supervisor) Run(ctx context.Context) {
	done := make(chan struct{}, 3)

	go func() { s.runSweepWorker(ctx); done <- struct{}{} }()
	go func() { s.runWatchWorker(ctx); done <- struct{}{} }()
	go func() { s.runEventWorker(ctx); done <- struct{}{} }()

	for i := 0; i < 3; i++ {
		<-done
	}
}

func (s *Supervisor) runSweepWorker(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			supervisorLog.Info("sweep worker stopping")
			return
		case <-ticker.C:
			s.loop.Sweep(ctx)
			s.loop.GarbageSweep(ctx)
		}
	}
}

func (s *Supervisor) runEventWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			supervisorLog.Info("driver event worker stopping")
			return
		case ev := <-s.loop.Driver().Events():
			s.loop.HandleDriverEvent(ctx, ev)
		}
	}
}

// runWatchWorker holds a long-lived watch on the cluster custom resource
// list, reconciling ADDED/MODIFIED immediately and garbage-collecting on
// DELETED (spec §4.6). The watch is bounded by WatchTimeout and reopened
// on close, malformed events, or error, matching the teacher's
// reconnect-and-resume pattern.
func (s *Supervisor) runWatchWorker(ctx context.Context) {
	resourceVersion := ""

	for {
		select {
		case <-ctx.Done():
			supervisorLog.Info("watch worker stopping")
			return
		default:
		}

		watchCtx, cancel := context.WithTimeout(ctx, s.cfg.WatchTimeout)
		resourceVersion = s.watchOnce(watchCtx, resourceVersion)
		cancel()

		select {
		case <-ctx.Done():
			supervisorLog.Info("watch worker stopping")
			return
		case <-time.After(watchReopenDelay):
		}
	}
}

func (s *Supervisor) watchOnce(ctx context.Context, resourceVersion string) string {
	w, err := s.gw.WatchClusterResources(ctx, resourceVersion)
	if err != nil {
		supervisorLog.Info("opening cluster resource watch failed", "error", err.Error())
		return resourceVersion
	}
	defer w.Stop()

	for {
		select {
		case <-ctx.Done():
			return resourceVersion
		case event, ok := <-w.ResultChan():
			if !ok {
				return resourceVersion
			}

			obj, ok := event.Object.(interface{ GetResourceVersion() string })
			if !ok {
				supervisorLog.Info("unrecognized watch object, reopening watch")
				return resourceVersion
			}
			resourceVersion = obj.GetResourceVersion()

			switch event.Type {
			case watch.Added, watch.Modified:
				unstructuredObj, ok := asUnstructured(event.Object)
				if !ok {
					supervisorLog.Info("malformed watch event, reopening watch")
					return resourceVersion
				}
				s.loop.ReconcileEvent(ctx, unstructuredObj, true)
			case watch.Deleted:
				unstructuredObj, ok := asUnstructured(event.Object)
				if ok {
					s.loop.Forget(clusterKey(unstructuredObj))
				}
				s.loop.GarbageSweep(ctx)
			case watch.Error:
				supervisorLog.Info("watch error event, reopening watch")
				return resourceVersion
			}
		}
	}
}
