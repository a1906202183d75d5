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

package reconcilers

import (
	"context"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/util/intstr"

	"github.com/cloudnative-mongo/mongo-operator/pkg/clusterspec"
	"github.com/cloudnative-mongo/mongo-operator/pkg/k8sgateway"
)

// MongoPort is the standard mongod port exposed by the headless
// service (spec §4.4).
const MongoPort = 27017

// ServiceReconciler owns the headless service exposing the replica
// set's pods (spec §4.4).
type ServiceReconciler struct {
	gw             *k8sgateway.Gateway
	operatorID     string
	resourcePlural string
}

// NewServiceReconciler builds a ServiceReconciler.
func NewServiceReconciler(gw *k8sgateway.Gateway, operatorID, resourcePlural string) *ServiceReconciler {
	return &ServiceReconciler{gw: gw, operatorID: operatorID, resourcePlural: resourcePlural}
}

// Kind implements Reconciler.
func (r *ServiceReconciler) Kind() string { return "Service" }

func (r *ServiceReconciler) desired(spec *clusterspec.ClusterSpec) *corev1.Service {
	labels := labelsFor(r.operatorID, r.resourcePlural, spec.Name)
	return &corev1.Service{
		ObjectMeta: ownerMeta(spec.Namespace, spec.Name, labels),
		Spec: corev1.ServiceSpec{
			ClusterIP: corev1.ClusterIPNone,
			Selector:  labels,
			Ports: []corev1.ServicePort{
				{Name: "mongodb", Port: MongoPort, TargetPort: intstr.FromInt(MongoPort)},
			},
		},
	}
}

// Reconcile implements Reconciler (spec §4.4 step 1-4).
func (r *ServiceReconciler) Reconcile(ctx context.Context, spec *clusterspec.ClusterSpec) (string, error) {
	desired := r.desired(spec)

	existing, found, err := r.gw.GetService(ctx, spec.Namespace, spec.Name)
	if err != nil {
		return "", err
	}

	if !found {
		created, err := r.gw.CreateService(ctx, desired)
		if err != nil {
			return "", err
		}
		reconLog.Info("created service", "cluster", spec.Name, "namespace", spec.Namespace)
		return created.ResourceVersion, nil
	}

	desired.ResourceVersion = existing.ResourceVersion
	desired.Spec.ClusterIP = existing.Spec.ClusterIP
	updated, err := r.gw.UpdateService(ctx, desired)
	if err != nil {
		return "", err
	}
	return updated.ResourceVersion, nil
}

// CleanOrphans implements Reconciler (spec §4.4 step 2-3).
func (r *ServiceReconciler) CleanOrphans(
	ctx context.Context,
	clusterExists func(ctx context.Context, name, namespace string) (bool, error),
) error {
	labels := k8sgateway.ForCluster(r.operatorID, r.resourcePlural, "")
	services, err := r.gw.ListServices(ctx, "", "managed-by="+labels.ManagedBy+",heritage="+labels.Heritage)
	if err != nil {
		return err
	}

	for _, svc := range services {
		clusterName := svc.Labels["name"]
		exists, err := clusterExists(ctx, clusterName, svc.Namespace)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if err := r.gw.DeleteService(ctx, svc.Namespace, svc.Name); err != nil {
			return err
		}
		reconLog.Info("deleted orphan service", "name", svc.Name, "namespace", svc.Namespace)
	}
	return nil
}
