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

	"github.com/cloudnative-mongo/mongo-operator/pkg/clusterspec"
	"github.com/cloudnative-mongo/mongo-operator/pkg/k8sgateway"
	"github.com/cloudnative-mongo/mongo-operator/pkg/reconcilers"
)

func sizedSpec(name string, replicas int) *clusterspec.ClusterSpec {
	spec := testSpec(name, replicas)
	spec.Sizing = clusterspec.ContainerSizing{
		CPURequest:     "100m",
		CPULimit:       "200m",
		MemoryRequest:  "64Mi",
		MemoryLimit:    "128Mi",
		StorageName:    "mongo-storage",
		StorageSize:    "10Gi",
		StorageDataDir: "/data/db",
	}
	return spec
}

var _ = Describe("WorkloadReconciler", func() {
	var gw *k8sgateway.Gateway
	var reconciler *reconcilers.WorkloadReconciler
	ctx := context.Background()

	BeforeEach(func() {
		gw = fakeGateway("default")
		reconciler = reconcilers.NewWorkloadReconciler(gw, testOperatorID, testResourcePlural)
	})

	It("creates a stateful workload sized to the replica count", func() {
		spec := sizedSpec("mongo-cluster", 3)
		_, err := reconciler.Reconcile(ctx, spec)
		Expect(err).NotTo(HaveOccurred())

		sts, found, err := gw.GetStatefulSet(ctx, spec.Namespace, spec.Name)
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeTrue())
		Expect(*sts.Spec.Replicas).To(Equal(int32(3)))
		Expect(sts.Spec.Template.Spec.Containers).To(HaveLen(1))
		Expect(sts.Spec.Template.Spec.Containers[0].Image).To(Equal(reconcilers.MongoImage))
	})

	It("updates replica count in place without recreating the workload", func() {
		spec := sizedSpec("mongo-cluster", 3)
		_, err := reconciler.Reconcile(ctx, spec)
		Expect(err).NotTo(HaveOccurred())

		before, found, err := gw.GetStatefulSet(ctx, spec.Namespace, spec.Name)
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeTrue())

		spec.Replicas = 5
		_, err = reconciler.Reconcile(ctx, spec)
		Expect(err).NotTo(HaveOccurred())

		after, found, err := gw.GetStatefulSet(ctx, spec.Namespace, spec.Name)
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeTrue())
		Expect(after.UID).To(Equal(before.UID))
		Expect(*after.Spec.Replicas).To(Equal(int32(5)))
	})

	It("deletes only the workload whose parent cluster has disappeared", func() {
		spec := sizedSpec("mongo-cluster", 3)
		orphan := sizedSpec("orphan-cluster", 3)
		_, err := reconciler.Reconcile(ctx, spec)
		Expect(err).NotTo(HaveOccurred())
		_, err = reconciler.Reconcile(ctx, orphan)
		Expect(err).NotTo(HaveOccurred())

		clusterExists := func(_ context.Context, name, _ string) (bool, error) {
			return name == spec.Name, nil
		}
		Expect(reconciler.CleanOrphans(ctx, clusterExists)).To(Succeed())

		_, found, err := gw.GetStatefulSet(ctx, spec.Namespace, spec.Name)
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeTrue())

		_, found, err = gw.GetStatefulSet(ctx, orphan.Namespace, orphan.Name)
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeFalse())
	})
})
