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

// GetSecret returns the named secret, found=false on a 404.
func (g *Gateway) GetSecret(ctx context.Context, namespace, name string) (*corev1.Secret, bool, error) {
	secret, err := g.Typed.CoreV1().Secrets(namespace).Get(ctx, name, metav1.GetOptions{})
	if IsNotFound(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return secret, true, nil
}

// CreateSecret creates desired, absorbing AlreadyExists.
func (g *Gateway) CreateSecret(ctx context.Context, desired *corev1.Secret) (*corev1.Secret, error) {
	created, err := g.Typed.CoreV1().Secrets(desired.Namespace).Create(ctx, desired, metav1.CreateOptions{})
	if IsAlreadyExists(err) {
		return desired, nil
	}
	return created, err
}

// UpdateSecret applies desired over the existing object.
func (g *Gateway) UpdateSecret(ctx context.Context, desired *corev1.Secret) (*corev1.Secret, error) {
	return g.Typed.CoreV1().Secrets(desired.Namespace).Update(ctx, desired, metav1.UpdateOptions{})
}

// DeleteSecret deletes the named secret; a 404 is absorbed.
func (g *Gateway) DeleteSecret(ctx context.Context, namespace, name string) error {
	err := g.Typed.CoreV1().Secrets(namespace).Delete(ctx, name, metav1.DeleteOptions{})
	if IsNotFound(err) {
		return nil
	}
	return err
}

// ListSecrets lists secrets matching a label selector.
func (g *Gateway) ListSecrets(ctx context.Context, namespace, labelSelector string) ([]corev1.Secret, error) {
	list, err := g.Typed.CoreV1().Secrets(namespace).List(ctx, metav1.ListOptions{LabelSelector: labelSelector})
	if err != nil {
		return nil, err
	}
	return list.Items, nil
}
