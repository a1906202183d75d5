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

package reconcilers_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/cloudnative-mongo/mongo-operator/pkg/k8sgateway"
	"github.com/cloudnative-mongo/mongo-operator/pkg/reconcilers"
)

var _ = Describe("AdminSecretReconciler", func() {
	var gw *k8sgateway.Gateway
	var reconciler *reconcilers.AdminSecretReconciler
	ctx := context.Background()

	BeforeEach(func() {
		gw = fakeGateway("default")
		reconciler = reconcilers.NewAdminSecretReconciler(gw, testOperatorID, testResourcePlural)
	})

	It("generates the root username and a base64 password on create", func() {
		spec := testSpec("mongo-cluster", 3)
		_, err := reconciler.Reconcile(ctx, spec)
		Expect(err).NotTo(HaveOccurred())

		secret, found, err := gw.GetSecret(ctx, spec.Namespace, reconcilers.SecretName(spec.Name))
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeTrue())
		Expect(string(secret.Data["username"])).To(Equal(reconcilers.AdminUsername))
		Expect(secret.Data["password"]).NotTo(BeEmpty())
	})

	It("never regenerates the password on a subsequent update", func() {
		spec := testSpec("mongo-cluster", 3)
		_, err := reconciler.Reconcile(ctx, spec)
		Expect(err).NotTo(HaveOccurred())

		first, found, err := gw.GetSecret(ctx, spec.Namespace, reconcilers.SecretName(spec.Name))
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeTrue())
		firstPassword := append([]byte(nil), first.Data["password"]...)

		spec.Replicas = 5
		_, err = reconciler.Reconcile(ctx, spec)
		Expect(err).NotTo(HaveOccurred())

		second, found, err := gw.GetSecret(ctx, spec.Namespace, reconcilers.SecretName(spec.Name))
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeTrue())
		Expect(second.Data["password"]).To(Equal(firstPassword))
	})

	It("derives the admin secret name by appending the fixed suffix", func() {
		Expect(reconcilers.SecretName("mongo-cluster")).To(Equal("mongo-cluster-admin-credentials"))
	})
})
