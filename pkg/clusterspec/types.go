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

// Package clusterspec is the validated in-memory representation of a
// declared MongoDB cluster custom resource (spec §3, C1).
package clusterspec

import (
	"fmt"
)

const (
	// MinReplicas is the minimum accepted replica count.
	MinReplicas = 3
	// MaxReplicas is the maximum accepted replica count.
	MaxReplicas = 50

	defaultCPURequest     = "100m"
	defaultCPULimit       = "100m"
	defaultMemoryRequest  = "64Mi"
	defaultMemoryLimit    = "64Mi"
	defaultStorageName    = "mongo-storage"
	defaultStorageSize    = "30Gi"
	defaultStorageDataDir = "/data/db"
	defaultBackupPrefix   = "backups"

	// RestoreFromLatest is the sentinel restore_from value meaning
	// "pick the most recently created object in the bucket".
	RestoreFromLatest = "latest"
)

// ContainerSizing carries the optional CPU/memory/storage knobs for the
// mongod container and its PVC, defaults applied at parse time.
type ContainerSizing struct {
	CPURequest     string
	CPULimit       string
	MemoryRequest  string
	MemoryLimit    string
	StorageClass   string
	StorageSize    string
	StorageName    string
	StorageDataDir string
	WiredTigerCache string
}

// SecretKeyRef names a key inside a same-namespace secret.
type SecretKeyRef struct {
	SecretName string
	Key        string
}

// BackupPolicy is the parsed `.spec.backups` section.
type BackupPolicy struct {
	Cron           string
	Bucket         string
	Prefix         string
	Credentials    SecretKeyRef
	RestoreFrom    string
	RestoreBucket  string
}

// EffectiveRestoreBucket returns RestoreBucket if set, else Bucket.
func (b BackupPolicy) EffectiveRestoreBucket() string {
	if b.RestoreBucket != "" {
		return b.RestoreBucket
	}
	return b.Bucket
}

// ClusterSpec is the validated, parsed representation of one cluster
// custom resource (spec §3).
type ClusterSpec struct {
	Name            string
	Namespace       string
	ResourceVersion string

	Replicas int

	Sizing  ContainerSizing
	Backups BackupPolicy
}

// Key identifies a ClusterSpec across the ephemeral caches.
type Key struct {
	Name      string
	Namespace string
}

// Key returns the (name, namespace) identity used by the ephemeral
// caches (versionCache, backupBookkeeping, restoreLedger).
func (c *ClusterSpec) Key() Key {
	return Key{Name: c.Name, Namespace: c.Namespace}
}

// Validate enforces the replica bounds and requires the backup bucket
// and the credentials secret reference to be set. It does not check the
// "resource_version never decreases" or "secrets exist" invariants
// (those need prior state and the Kubernetes gateway respectively).
func (c *ClusterSpec) Validate() error {
	if c.Replicas < MinReplicas || c.Replicas > MaxReplicas {
		return fmt.Errorf("replicas must be between %d and %d, got %d", MinReplicas, MaxReplicas, c.Replicas)
	}
	if c.Backups.Bucket == "" {
		return fmt.Errorf("backups.gcs.bucket is required")
	}
	if c.Backups.Credentials.SecretName == "" || c.Backups.Credentials.Key == "" {
		return fmt.Errorf("backups.gcs.service_account.secret_key_ref is required")
	}
	return nil
}

// applyDefaults fills in the optional fields left unset by the custom
// resource.
func (s *ContainerSizing) applyDefaults() {
	if s.CPURequest == "" {
		s.CPURequest = defaultCPURequest
	}
	if s.CPULimit == "" {
		s.CPULimit = defaultCPULimit
	}
	if s.MemoryRequest == "" {
		s.MemoryRequest = defaultMemoryRequest
	}
	if s.MemoryLimit == "" {
		s.MemoryLimit = defaultMemoryLimit
	}
	if s.StorageName == "" {
		s.StorageName = defaultStorageName
	}
	if s.StorageSize == "" {
		s.StorageSize = defaultStorageSize
	}
	if s.StorageDataDir == "" {
		s.StorageDataDir = defaultStorageDataDir
	}
}

func (b *BackupPolicy) applyDefaults() {
	if b.Prefix == "" {
		b.Prefix = defaultBackupPrefix
	}
}
