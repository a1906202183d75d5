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

	"k8s.io/client-go/kubernetes/fake"

	"github.com/cloudnative-mongo/mongo-operator/pkg/clusterspec"
	"github.com/cloudnative-mongo/mongo-operator/pkg/k8sgateway"
	"github.com/cloudnative-mongo/mongo-operator/pkg/reconcilers"
)

const (
	testOperatorID     = "mongodb-operator.ultimaker.com"
	testResourcePlural = "mongoclusters"
)

func fakeGateway(namespace string) *k8sgateway.Gateway {
	return &k8sgateway.Gateway{Typed: fake.NewSimpleClientset(), Namespace: namespace}
}

func testSpec(name string, replicas int) *clusterspec.ClusterSpec {
	spec := &clusterspec.ClusterSpec{
		Name:      name,
		Namespace: "default",
		Replicas:  replicas,
		Backups: clusterspec.BackupPolicy{
			Cron:   "0 * * * *",
			Bucket: "ultimaker-mongo-backups",
			Credentials: clusterspec.SecretKeyRef{
				SecretName: "gcs-creds",
				Key:        "service-account.json",
			},
		},
	}
	return spec
}

var _ = Describe("ServiceReconciler", func() {
	var gw *k8sgateway.Gateway
	var reconciler *reconcilers.ServiceReconciler
	var spec *clusterspec.ClusterSpec
	ctx := context.Background()

	BeforeEach(func() {
		gw = fakeGateway("default")
		reconciler = reconcilers.NewServiceReconciler(gw, testOperatorID, testResourcePlural)
		spec = testSpec("mongo-cluster", 3)
	})

	It("creates a headless service carrying the operator labels on first reconcile", func() {
		_, err := reconciler.Reconcile(ctx, spec)
		Expect(err).NotTo(HaveOccurred())

		svc, found, err := gw.GetService(ctx, spec.Namespace, spec.Name)
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeTrue())
		Expect(svc.Spec.ClusterIP).To(Equal("None"))
		Expect(svc.Labels["managed-by"]).To(Equal(testOperatorID))
		Expect(svc.Labels["heritage"]).To(Equal(testResourcePlural))
		Expect(svc.Labels["name"]).To(Equal(spec.Name))
	})

	It("updates instead of creating on a second reconcile of the same cluster", func() {
		_, err := reconciler.Reconcile(ctx, spec)
		Expect(err).NotTo(HaveOccurred())

		before, found, err := gw.GetService(ctx, spec.Namespace, spec.Name)
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeTrue())

		_, err = reconciler.Reconcile(ctx, spec)
		Expect(err).NotTo(HaveOccurred())

		after, found, err := gw.GetService(ctx, spec.Namespace, spec.Name)
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeTrue())
		Expect(after.UID).To(Equal(before.UID), "update must not recreate the object")
	})

	It("deletes only the service whose parent cluster has disappeared", func() {
		orphan := testSpec("orphan-cluster", 3)
		_, err := reconciler.Reconcile(ctx, spec)
		Expect(err).NotTo(HaveOccurred())
		_, err = reconciler.Reconcile(ctx, orphan)
		Expect(err).NotTo(HaveOccurred())

		clusterExists := func(_ context.Context, name, _ string) (bool, error) {
			return name == spec.Name, nil
		}
		Expect(reconciler.CleanOrphans(ctx, clusterExists)).To(Succeed())

		_, found, err := gw.GetService(ctx, spec.Namespace, spec.Name)
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeTrue(), "surviving cluster's service must remain")

		_, found, err = gw.GetService(ctx, orphan.Namespace, orphan.Name)
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeFalse(), "orphan's service must be deleted")
	})
})
