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

package controller

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"k8s.io/client-go/kubernetes/fake"

	"github.com/cloudnative-mongo/mongo-operator/pkg/clusterspec"
	"github.com/cloudnative-mongo/mongo-operator/pkg/k8sgateway"
	"github.com/cloudnative-mongo/mongo-operator/pkg/replicaset"
)

func testLoop() *Loop {
	gw := &k8sgateway.Gateway{Typed: fake.NewSimpleClientset(), Namespace: "default"}
	return New(gw, "operator-0", "mongoclusters")
}

var _ = Describe("Loop.HandleDriverEvent", func() {
	var l *Loop
	var key clusterspec.Key

	BeforeEach(func() {
		l = testLoop()
		key = clusterspec.Key{Name: "rs0", Namespace: "default"}
	})

	It("skips a TopologyReady event for a cluster it has never reconciled", func() {
		_, known := l.SpecFor(key)
		Expect(known).To(BeFalse())

		// Should return without touching the restore coordinator or
		// panicking on a nil spec.
		l.HandleDriverEvent(context.Background(), replicaset.Event{Kind: replicaset.TopologyReady, Cluster: key})
	})

	It("skips an AllHostsReady event for a cluster it has never reconciled", func() {
		_, known := l.SpecFor(key)
		Expect(known).To(BeFalse())

		// Should return without calling into the replica-set driver's
		// Initiate path or panicking on a nil spec.
		l.HandleDriverEvent(context.Background(), replicaset.Event{Kind: replicaset.AllHostsReady, Cluster: key})
	})

	It("resolves a recorded cluster's spec by its key", func() {
		spec := &clusterspec.ClusterSpec{Name: key.Name, Namespace: key.Namespace, Replicas: 3}
		l.recordSpec(spec)

		resolved, known := l.SpecFor(key)
		Expect(known).To(BeTrue())
		Expect(resolved).To(Equal(spec))
	})
})
