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
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/api/resource"

	"github.com/cloudnative-mongo/mongo-operator/pkg/clusterspec"
	"github.com/cloudnative-mongo/mongo-operator/pkg/k8sgateway"
)

// MongoImage is the default mongod container image.
const MongoImage = "mongo:3.6"

// WorkloadReconciler owns the ordered-identity stateful workload
// running the replica set's mongod pods (spec §4.4).
type WorkloadReconciler struct {
	gw             *k8sgateway.Gateway
	operatorID     string
	resourcePlural string
}

// NewWorkloadReconciler builds a WorkloadReconciler.
func NewWorkloadReconciler(gw *k8sgateway.Gateway, operatorID, resourcePlural string) *WorkloadReconciler {
	return &WorkloadReconciler{gw: gw, operatorID: operatorID, resourcePlural: resourcePlural}
}

// Kind implements Reconciler.
func (r *WorkloadReconciler) Kind() string { return "StatefulSet" }

func (r *WorkloadReconciler) desired(spec *clusterspec.ClusterSpec) *appsv1.StatefulSet {
	labels := labelsFor(r.operatorID, r.resourcePlural, spec.Name)
	replicas := int32(spec.Replicas)

	container := corev1.Container{
		Name:  "mongod",
		Image: MongoImage,
		Command: []string{
			"mongod",
			"--replSet", spec.Name,
			"--bind_ip", "0.0.0.0",
			"--smallfiles",
			"--noprealloc",
		},
		Ports: []corev1.ContainerPort{{ContainerPort: MongoPort, Name: "mongodb"}},
		VolumeMounts: []corev1.VolumeMount{
			{Name: spec.Sizing.StorageName, MountPath: spec.Sizing.StorageDataDir},
		},
		Resources: corev1.ResourceRequirements{
			Requests: resourceList(spec.Sizing.CPURequest, spec.Sizing.MemoryRequest),
			Limits:   resourceList(spec.Sizing.CPULimit, spec.Sizing.MemoryLimit),
		},
	}

	pvc := corev1.PersistentVolumeClaim{
		ObjectMeta: metav1.ObjectMeta{Name: spec.Sizing.StorageName},
		Spec: corev1.PersistentVolumeClaimSpec{
			AccessModes: []corev1.PersistentVolumeAccessMode{corev1.ReadWriteOnce},
			Resources: corev1.VolumeResourceRequirements{
				Requests: corev1.ResourceList{corev1.ResourceStorage: resource.MustParse(spec.Sizing.StorageSize)},
			},
		},
	}
	if spec.Sizing.StorageClass != "" {
		pvc.Spec.StorageClassName = &spec.Sizing.StorageClass
	}

	return &appsv1.StatefulSet{
		ObjectMeta: ownerMeta(spec.Namespace, spec.Name, labels),
		Spec: appsv1.StatefulSetSpec{
			ServiceName: spec.Name,
			Replicas:    &replicas,
			Selector:    &metav1.LabelSelector{MatchLabels: labels},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: labels},
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{container},
				},
			},
			VolumeClaimTemplates: []corev1.PersistentVolumeClaim{pvc},
		},
	}
}

func resourceList(cpu, memory string) corev1.ResourceList {
	list := corev1.ResourceList{}
	if cpu != "" {
		list[corev1.ResourceCPU] = resource.MustParse(cpu)
	}
	if memory != "" {
		list[corev1.ResourceMemory] = resource.MustParse(memory)
	}
	return list
}

// Reconcile implements Reconciler (spec §4.4 step 1-4).
func (r *WorkloadReconciler) Reconcile(ctx context.Context, spec *clusterspec.ClusterSpec) (string, error) {
	desired := r.desired(spec)

	existing, found, err := r.gw.GetStatefulSet(ctx, spec.Namespace, spec.Name)
	if err != nil {
		return "", err
	}

	if !found {
		created, err := r.gw.CreateStatefulSet(ctx, desired)
		if err != nil {
			return "", err
		}
		reconLog.Info("created stateful workload", "cluster", spec.Name, "namespace", spec.Namespace, "replicas", spec.Replicas)
		return created.ResourceVersion, nil
	}

	desired.ResourceVersion = existing.ResourceVersion
	updated, err := r.gw.UpdateStatefulSet(ctx, desired)
	if err != nil {
		return "", err
	}
	if existing.Spec.Replicas == nil || *existing.Spec.Replicas != *desired.Spec.Replicas {
		reconLog.Info("updated stateful workload replica count",
			"cluster", spec.Name, "from", valueOr(existing.Spec.Replicas, 0), "to", spec.Replicas)
	}
	return updated.ResourceVersion, nil
}

func valueOr(p *int32, def int32) int32 {
	if p == nil {
		return def
	}
	return *p
}

// CleanOrphans implements Reconciler (spec §4.4 step 2-3).
func (r *WorkloadReconciler) CleanOrphans(
	ctx context.Context,
	clusterExists func(ctx context.Context, name, namespace string) (bool, error),
) error {
	labels := k8sgateway.ForCluster(r.operatorID, r.resourcePlural, "")
	sets, err := r.gw.ListStatefulSets(ctx, "", fmt.Sprintf("managed-by=%s,heritage=%s", labels.ManagedBy, labels.Heritage))
	if err != nil {
		return err
	}

	for _, sts := range sets {
		clusterName := sts.Labels["name"]
		exists, err := clusterExists(ctx, clusterName, sts.Namespace)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if err := r.gw.DeleteStatefulSet(ctx, sts.Namespace, sts.Name); err != nil {
			return err
		}
		reconLog.Info("deleted orphan stateful workload", "name", sts.Name, "namespace", sts.Namespace)
	}
	return nil
}
