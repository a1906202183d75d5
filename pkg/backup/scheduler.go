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

// Package backup is the per-cluster cron-driven logical backup
// scheduler (spec §4.7, C7): invokes the external mongodump binary and
// uploads its output via the storage gateway.
package backup

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/robfig/cron"

	"github.com/cloudnative-mongo/mongo-operator/pkg/clusterspec"
	"github.com/cloudnative-mongo/mongo-operator/pkg/k8sgateway"
	"github.com/cloudnative-mongo/mongo-operator/pkg/log"
	"github.com/cloudnative-mongo/mongo-operator/pkg/mongogateway"
	"github.com/cloudnative-mongo/mongo-operator/pkg/storagegateway"
)

var backupLog = log.WithName("backup")

// Scheduler tracks the last-backup timestamp per cluster (§3:
// BackupBookkeeping) and fires mongodump/upload cycles when a cluster's
// cron schedule is due.
type Scheduler struct {
	gw *k8sgateway.Gateway

	mu   sync.Mutex
	last map[clusterspec.Key]time.Time
}

// New builds a Scheduler backed by gw for credential/secret lookups.
func New(gw *k8sgateway.Gateway) *Scheduler {
	return &Scheduler{gw: gw, last: make(map[clusterspec.Key]time.Time)}
}

func (s *Scheduler) lastBackup(key clusterspec.Key) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.last[key]
	return t, ok
}

func (s *Scheduler) recordBackup(key clusterspec.Key, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last[key] = at
}

// Tick evaluates spec's cron cadence against the last recorded backup
// and, if due, runs one backup-and-upload cycle (spec §4.7). Restart
// loses bookkeeping, which is then treated as "backup due now" (spec
// §3).
func (s *Scheduler) Tick(ctx context.Context, spec *clusterspec.ClusterSpec, now time.Time) error {
	schedule, err := cron.ParseStandard(spec.Backups.Cron)
	if err != nil {
		return fmt.Errorf("parsing cron expression %q: %w", spec.Backups.Cron, err)
	}

	key := spec.Key()
	last, known := s.lastBackup(key)

	var nextFire time.Time
	if !known {
		nextFire = now
	} else {
		nextFire = schedule.Next(last)
	}

	if nextFire.After(now) {
		return nil
	}

	if err := s.runBackup(ctx, spec, now); err != nil {
		return err
	}
	s.recordBackup(key, now)
	return nil
}

// BackupFileName renders the local archive path (spec §6 wire format),
// UTC, second-resolution.
func BackupFileName(namespace, name string, at time.Time) string {
	return fmt.Sprintf("/tmp/mongodb-backup-%s-%s-%s.archive.gz", namespace, name, at.UTC().Format("2006-01-02_150405"))
}

func (s *Scheduler) runBackup(ctx context.Context, spec *clusterspec.ClusterSpec, now time.Time) error {
	backupFile := BackupFileName(spec.Namespace, spec.Name, now)
	sourceHost := mongogateway.MemberHostname(spec.Replicas-1, spec.Name, spec.Namespace)

	backupLog.Info("starting backup", "cluster", spec.Name, "sourceHost", sourceHost, "file", backupFile)

	cmd := exec.CommandContext(ctx, "mongodump", "--host", sourceHost, "--gzip", "--archive="+backupFile)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("mongodump for %s failed: %w: %s", spec.Name, err, string(out))
	}
	defer os.Remove(backupFile)

	secret, found, err := s.gw.GetSecret(ctx, spec.Namespace, spec.Backups.Credentials.SecretName)
	if err != nil {
		return fmt.Errorf("loading backup credentials secret: %w", err)
	}
	if !found {
		return fmt.Errorf("backup credentials secret %s/%s not found", spec.Namespace, spec.Backups.Credentials.SecretName)
	}

	creds, err := storagegateway.CredentialsFromSecret(secret, spec.Backups.Credentials.Key)
	if err != nil {
		return err
	}

	storage, err := storagegateway.New(ctx, creds, spec.Backups.Bucket, spec.Backups.Prefix)
	if err != nil {
		return err
	}
	defer storage.Close() //nolint:errcheck

	if err := storage.Upload(ctx, backupFile); err != nil {
		return fmt.Errorf("uploading backup for %s: %w", spec.Name, err)
	}

	backupLog.Info("backup uploaded", "cluster", spec.Name, "file", backupFile)
	return nil
}
