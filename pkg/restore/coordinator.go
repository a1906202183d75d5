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

// Package restore is the one-shot restore coordinator (spec §4.8, C8):
// fires at most once per cluster, on the first topology-writable event,
// when `restore_from` is set on the cluster's backup policy.
package restore

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/cloudnative-mongo/mongo-operator/pkg/clusterspec"
	"github.com/cloudnative-mongo/mongo-operator/pkg/k8sgateway"
	"github.com/cloudnative-mongo/mongo-operator/pkg/log"
	"github.com/cloudnative-mongo/mongo-operator/pkg/mongogateway"
	"github.com/cloudnative-mongo/mongo-operator/pkg/storagegateway"
)

var restoreLog = log.WithName("restore")

const (
	restoreRetryAttempts = 4
	restoreRetryWait     = 15 * time.Second
)

// Coordinator tracks, per cluster, whether a restore has already been
// attempted to completion this process (§3: RestoreLedger), guaranteeing
// at-most-once semantics even across repeated TopologyReady events.
type Coordinator struct {
	gw *k8sgateway.Gateway

	mu   sync.Mutex
	done map[clusterspec.Key]bool
}

// New builds a Coordinator backed by gw for credential/secret lookups.
func New(gw *k8sgateway.Gateway) *Coordinator {
	return &Coordinator{gw: gw, done: make(map[clusterspec.Key]bool)}
}

// Done reports whether a restore has already completed (or been
// determined unnecessary) for this cluster.
func (c *Coordinator) Done(key clusterspec.Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done[key]
}

func (c *Coordinator) markDone(key clusterspec.Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.done[key] = true
}

// RestoreIfNeeded runs the restore exactly once for spec, skipping
// clusters with no restore_from configured or with a restore already
// recorded complete. Called by the reconcile loop on a TopologyReady
// hand-off (spec §4.6, §9).
func (c *Coordinator) RestoreIfNeeded(ctx context.Context, spec *clusterspec.ClusterSpec) error {
	key := spec.Key()
	if spec.Backups.RestoreFrom == "" {
		c.markDone(key)
		return nil
	}
	if c.Done(key) {
		return nil
	}

	secret, found, err := c.gw.GetSecret(ctx, spec.Namespace, spec.Backups.Credentials.SecretName)
	if err != nil {
		return fmt.Errorf("loading restore credentials secret: %w", err)
	}
	if !found {
		return fmt.Errorf("restore credentials secret %s/%s not found", spec.Namespace, spec.Backups.Credentials.SecretName)
	}
	creds, err := storagegateway.CredentialsFromSecret(secret, spec.Backups.Credentials.Key)
	if err != nil {
		return err
	}

	storage, err := storagegateway.New(ctx, creds, spec.Backups.EffectiveRestoreBucket(), spec.Backups.Prefix)
	if err != nil {
		return err
	}
	defer storage.Close() //nolint:errcheck

	objectName := spec.Backups.RestoreFrom
	if objectName == clusterspec.RestoreFromLatest {
		latest, ok, err := storage.Latest(ctx)
		if err != nil {
			return fmt.Errorf("resolving latest backup for %s: %w", spec.Name, err)
		}
		if !ok {
			return fmt.Errorf("restore_from=latest requested for %s but bucket has no objects", spec.Name)
		}
		objectName = latest.Name
	}

	localPath := restoreLocalPath(objectName)
	if err := storage.Download(ctx, objectName, localPath); err != nil {
		return fmt.Errorf("downloading restore object %s: %w", objectName, err)
	}
	defer os.Remove(localPath)

	hosts := restoreHostsArg(spec)
	restoreLog.Info("starting restore", "cluster", spec.Name, "object", objectName, "hosts", hosts)

	var lastErr error
	for attempt := 0; attempt < restoreRetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(restoreRetryWait):
			}
		}

		cmd := exec.CommandContext(ctx, "mongorestore",
			"--host", hosts,
			"--gzip", "--archive="+localPath)
		out, err := cmd.CombinedOutput()
		if err == nil {
			restoreLog.Info("restore complete", "cluster", spec.Name, "object", objectName)
			c.markDone(key)
			return nil
		}
		lastErr = fmt.Errorf("mongorestore for %s failed: %w: %s", spec.Name, err, string(out))
		restoreLog.Info("restore attempt failed, retrying", "cluster", spec.Name, "attempt", attempt+1, "error", lastErr.Error())
	}
	return lastErr
}

// restoreHostsArg builds the comma-joined member hostname list passed to
// mongorestore's --host flag. It carries no replica-set-name prefix:
// mongorestore is invoked as a plain client against the member hosts,
// matching the original implementation's RestoreHelper (spec §4.8 step 3).
func restoreHostsArg(spec *clusterspec.ClusterSpec) string {
	return strings.Join(mongogateway.MemberHostnames(spec.Replicas, spec.Name, spec.Namespace), ",")
}

// restoreLocalPath derives the local download path from the resolved
// backup object name, not a synthesized name, so it matches whichever
// object was actually chosen (an explicit restore_from, or the latest
// backup at restore time) (spec §4.8 step 2, §8 scenario 6).
func restoreLocalPath(objectName string) string {
	return "/tmp/" + path.Base(objectName)
}
