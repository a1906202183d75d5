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

package clusterspec

import (
	"fmt"
	"strconv"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// ParseUnstructured builds a ClusterSpec from the unstructured custom
// resource object returned by the Kubernetes gateway's List/Get/Watch
// on the cluster resource kind, applying defaults and validating
// bounds. This is the single boundary where the wire (snake_case JSON)
// representation is converted to the in-memory struct; no other part
// of the codebase parses cluster-resource fields directly.
func ParseUnstructured(obj *unstructured.Unstructured) (*ClusterSpec, error) {
	spec := &ClusterSpec{
		Name:            obj.GetName(),
		Namespace:       obj.GetNamespace(),
		ResourceVersion: obj.GetResourceVersion(),
	}

	replicas, found, err := unstructured.NestedInt64(obj.Object, "spec", "mongodb", "replicas")
	if err != nil {
		return nil, fmt.Errorf("spec.mongodb.replicas: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("spec.mongodb.replicas is required")
	}
	spec.Replicas = int(replicas)

	spec.Sizing = ContainerSizing{
		CPURequest:      stringField(obj, "spec", "mongodb", "cpu_request"),
		CPULimit:        stringField(obj, "spec", "mongodb", "cpu_limit"),
		MemoryRequest:   stringField(obj, "spec", "mongodb", "memory_request"),
		MemoryLimit:     stringField(obj, "spec", "mongodb", "memory_limit"),
		StorageClass:    stringField(obj, "spec", "mongodb", "storage_class_name"),
		StorageSize:     stringField(obj, "spec", "mongodb", "storage_size"),
		StorageName:     stringField(obj, "spec", "mongodb", "storage_name"),
		StorageDataDir:  stringField(obj, "spec", "mongodb", "storage_data_path"),
		WiredTigerCache: stringField(obj, "spec", "mongodb", "wired_tiger_cache_size"),
	}
	spec.Sizing.applyDefaults()

	spec.Backups = BackupPolicy{
		Cron:          stringField(obj, "spec", "backups", "cron"),
		Bucket:        stringField(obj, "spec", "backups", "gcs", "bucket"),
		Prefix:        stringField(obj, "spec", "backups", "gcs", "prefix"),
		RestoreFrom:   stringField(obj, "spec", "backups", "gcs", "restore_from"),
		RestoreBucket: stringField(obj, "spec", "backups", "gcs", "restore_bucket"),
		Credentials: SecretKeyRef{
			SecretName: stringField(obj, "spec", "backups", "gcs", "service_account", "secret_key_ref", "name"),
			Key:        stringField(obj, "spec", "backups", "gcs", "service_account", "secret_key_ref", "key"),
		},
	}
	spec.Backups.applyDefaults()

	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

func stringField(obj *unstructured.Unstructured, fields ...string) string {
	v, found, err := unstructured.NestedString(obj.Object, fields...)
	if err != nil || !found {
		return ""
	}
	return v
}

// ResourceVersionAtLeast reports whether candidate is not older than
// known, per the "resource_version never decreases" invariant. Both are
// opaque Kubernetes resourceVersion strings, compared numerically when
// possible and lexically otherwise (matching apimachinery's own
// treatment of resourceVersion as an opaque token with numeric ordering
// semantics for etcd-backed stores).
func ResourceVersionAtLeast(candidate, known string) bool {
	if known == "" {
		return true
	}
	cNum, cErr := strconv.ParseUint(candidate, 10, 64)
	kNum, kErr := strconv.ParseUint(known, 10, 64)
	if cErr == nil && kErr == nil {
		return cNum >= kNum
	}
	return candidate >= known
}
