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

package k8sgateway

import (
	"context"

	appsv1 "k8s.io/api/apps/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// GetStatefulSet returns the named stateful workload, found=false on a
// 404.
func (g *Gateway) GetStatefulSet(ctx context.Context, namespace, name string) (*appsv1.StatefulSet, bool, error) {
	sts, err := g.Typed.AppsV1().StatefulSets(namespace).Get(ctx, name, metav1.GetOptions{})
	if IsNotFound(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return sts, true, nil
}

// CreateStatefulSet creates desired, absorbing AlreadyExists.
func (g *Gateway) CreateStatefulSet(ctx context.Context, desired *appsv1.StatefulSet) (*appsv1.StatefulSet, error) {
	created, err := g.Typed.AppsV1().StatefulSets(desired.Namespace).Create(ctx, desired, metav1.CreateOptions{})
	if IsAlreadyExists(err) {
		return desired, nil
	}
	return created, err
}

// UpdateStatefulSet applies desired over the existing object.
func (g *Gateway) UpdateStatefulSet(ctx context.Context, desired *appsv1.StatefulSet) (*appsv1.StatefulSet, error) {
	return g.Typed.AppsV1().StatefulSets(desired.Namespace).Update(ctx, desired, metav1.UpdateOptions{})
}

// DeleteStatefulSet deletes the named workload; a 404 is absorbed.
func (g *Gateway) DeleteStatefulSet(ctx context.Context, namespace, name string) error {
	err := g.Typed.AppsV1().StatefulSets(namespace).Delete(ctx, name, metav1.DeleteOptions{})
	if IsNotFound(err) {
		return nil
	}
	return err
}

// ListStatefulSets lists stateful workloads matching a label selector.
func (g *Gateway) ListStatefulSets(ctx context.Context, namespace, labelSelector string) ([]appsv1.StatefulSet, error) {
	list, err := g.Typed.AppsV1().StatefulSets(namespace).List(ctx, metav1.ListOptions{LabelSelector: labelSelector})
	if err != nil {
		return nil, err
	}
	return list.Items, nil
}
