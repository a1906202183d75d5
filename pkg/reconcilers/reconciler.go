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

// Package reconcilers implements the resource reconcilers (spec §4.4,
// C5): one per owned sub-resource kind, each with idempotent
// create-or-update and orphan cleanup.
package reconcilers

import (
	"context"
	"strings"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/cloudnative-mongo/mongo-operator/pkg/clusterspec"
	"github.com/cloudnative-mongo/mongo-operator/pkg/k8sgateway"
	"github.com/cloudnative-mongo/mongo-operator/pkg/log"
)

var reconLog = log.WithName("reconcilers")

// Reconciler is the shared shape of the three concrete reconcilers
// (spec §4.4): Reconcile drives one cluster's owned resource toward its
// desired state; CleanOrphans deletes owned resources whose parent
// ClusterSpec has disappeared.
type Reconciler interface {
	// Kind names the resource kind for logging ("Service",
	// "StatefulSet", "Secret").
	Kind() string
	// Reconcile gets-or-creates-or-updates the resource for spec,
	// returning the observed object's resource version for logging.
	Reconcile(ctx context.Context, spec *clusterspec.ClusterSpec) (resourceVersion string, err error)
	// CleanOrphans deletes every owned resource of this kind whose
	// parent cluster is no longer observable.
	CleanOrphans(ctx context.Context, clusterExists func(ctx context.Context, name, namespace string) (bool, error)) error
}

// DefaultOrder is the invariant, sequential reconciler order within one
// cluster (spec §4.5): Service, then Workload, then AdminSecret.
func DefaultOrder(gw *k8sgateway.Gateway, operatorID, resourcePlural string) []Reconciler {
	return []Reconciler{
		NewServiceReconciler(gw, operatorID, resourcePlural),
		NewWorkloadReconciler(gw, operatorID, resourcePlural),
		NewAdminSecretReconciler(gw, operatorID, resourcePlural),
	}
}

// clusterNameFromAdminSecretName strips the admin-secret suffix used to
// derive the owning cluster's name (spec §4.4 step 2).
func clusterNameFromAdminSecretName(name string) (string, bool) {
	const suffix = "-admin-credentials"
	if !strings.HasSuffix(name, suffix) {
		return "", false
	}
	return strings.TrimSuffix(name, suffix), true
}

func labelsFor(operatorID, resourcePlural, clusterName string) map[string]string {
	return k8sgateway.ForCluster(operatorID, resourcePlural, clusterName).AsMap()
}

func ownerMeta(namespace, name string, labels map[string]string) metav1.ObjectMeta {
	return metav1.ObjectMeta{
		Name:      name,
		Namespace: namespace,
		Labels:    labels,
	}
}
