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
	"crypto/rand"
	"encoding/base64"
	"fmt"

	corev1 "k8s.io/api/core/v1"

	"github.com/cloudnative-mongo/mongo-operator/pkg/clusterspec"
	"github.com/cloudnative-mongo/mongo-operator/pkg/k8sgateway"
)

// AdminUsername is the fixed root username written into every admin
// secret (spec §3: AdminCredential).
const AdminUsername = "root"

// adminPasswordBytes is the number of random bytes base64-encoded into
// the admin password (spec §3).
const adminPasswordBytes = 33

// AdminSecretReconciler owns the `<cluster>-admin-credentials` secret
// (spec §3, §4.4).
type AdminSecretReconciler struct {
	gw             *k8sgateway.Gateway
	operatorID     string
	resourcePlural string
}

// NewAdminSecretReconciler builds an AdminSecretReconciler.
func NewAdminSecretReconciler(gw *k8sgateway.Gateway, operatorID, resourcePlural string) *AdminSecretReconciler {
	return &AdminSecretReconciler{gw: gw, operatorID: operatorID, resourcePlural: resourcePlural}
}

// Kind implements Reconciler.
func (r *AdminSecretReconciler) Kind() string { return "Secret" }

// SecretName returns the admin-credentials secret name for a cluster.
func SecretName(clusterName string) string {
	return clusterName + "-admin-credentials"
}

func generatePassword() (string, error) {
	buf := make([]byte, adminPasswordBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating admin password: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

func (r *AdminSecretReconciler) desired(spec *clusterspec.ClusterSpec, password string) *corev1.Secret {
	labels := labelsFor(r.operatorID, r.resourcePlural, spec.Name)
	return &corev1.Secret{
		ObjectMeta: ownerMeta(spec.Namespace, SecretName(spec.Name), labels),
		Data: map[string][]byte{
			"username": []byte(AdminUsername),
			"password": []byte(password),
		},
	}
}

// Reconcile implements Reconciler. Per the §9 open-question resolution
// recorded in DESIGN.md, the password is generated once on create and
// left untouched on update: regenerating it on every update would
// invalidate every existing client connection whenever any other field
// of the cluster spec changes, which is worse than the source's
// original behavior and was never the intent it served.
func (r *AdminSecretReconciler) Reconcile(ctx context.Context, spec *clusterspec.ClusterSpec) (string, error) {
	name := SecretName(spec.Name)

	existing, found, err := r.gw.GetSecret(ctx, spec.Namespace, name)
	if err != nil {
		return "", err
	}

	if !found {
		password, err := generatePassword()
		if err != nil {
			return "", err
		}
		created, err := r.gw.CreateSecret(ctx, r.desired(spec, password))
		if err != nil {
			return "", err
		}
		reconLog.Info("created admin secret", "cluster", spec.Name, "namespace", spec.Namespace)
		return created.ResourceVersion, nil
	}

	// No-op update: labels may have drifted (e.g. operator-id rename);
	// the password and its resourceVersion are preserved.
	desired := r.desired(spec, "")
	desired.ResourceVersion = existing.ResourceVersion
	desired.Data = existing.Data
	updated, err := r.gw.UpdateSecret(ctx, desired)
	if err != nil {
		return "", err
	}
	return updated.ResourceVersion, nil
}

// CleanOrphans implements Reconciler (spec §4.4 step 2-3: strip the
// admin-secret suffix to derive the owning cluster name).
func (r *AdminSecretReconciler) CleanOrphans(
	ctx context.Context,
	clusterExists func(ctx context.Context, name, namespace string) (bool, error),
) error {
	labels := k8sgateway.ForCluster(r.operatorID, r.resourcePlural, "")
	secrets, err := r.gw.ListSecrets(ctx, "", fmt.Sprintf("managed-by=%s,heritage=%s", labels.ManagedBy, labels.Heritage))
	if err != nil {
		return err
	}

	for _, secret := range secrets {
		clusterName, ok := clusterNameFromAdminSecretName(secret.Name)
		if !ok {
			continue
		}
		exists, err := clusterExists(ctx, clusterName, secret.Namespace)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if err := r.gw.DeleteSecret(ctx, secret.Namespace, secret.Name); err != nil {
			return err
		}
		reconLog.Info("deleted orphan admin secret", "name", secret.Name, "namespace", secret.Namespace)
	}
	return nil
}
