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

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// GetService returns the named service, and found=false (no error) on
// a 404.
func (g *Gateway) GetService(ctx context.Context, namespace, name string) (*corev1.Service, bool, error) {
	svc, err := g.Typed.CoreV1().Services(namespace).Get(ctx, name, metav1.GetOptions{})
	if IsNotFound(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return svc, true, nil
}

// CreateService creates desired, absorbing AlreadyExists (the next
// sweep will observe and update it).
func (g *Gateway) CreateService(ctx context.Context, desired *corev1.Service) (*corev1.Service, error) {
	created, err := g.Typed.CoreV1().Services(desired.Namespace).Create(ctx, desired, metav1.CreateOptions{})
	if IsAlreadyExists(err) {
		return desired, nil
	}
	return created, err
}

// UpdateService applies desired over the existing object, idempotently.
func (g *Gateway) UpdateService(ctx context.Context, desired *corev1.Service) (*corev1.Service, error) {
	return g.Typed.CoreV1().Services(desired.Namespace).Update(ctx, desired, metav1.UpdateOptions{})
}

// DeleteService deletes the named service; a 404 is absorbed.
func (g *Gateway) DeleteService(ctx context.Context, namespace, name string) error {
	err := g.Typed.CoreV1().Services(namespace).Delete(ctx, name, metav1.DeleteOptions{})
	if IsNotFound(err) {
		return nil
	}
	return err
}

// ListServices lists services matching a label selector.
func (g *Gateway) ListServices(ctx context.Context, namespace, labelSelector string) ([]corev1.Service, error) {
	list, err := g.Typed.CoreV1().Services(namespace).List(ctx, metav1.ListOptions{LabelSelector: labelSelector})
	if err != nil {
		return nil, err
	}
	return list.Items, nil
}
