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

package mongogateway

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"go.mongodb.org/mongo-driver/bson"
)

var _ = Describe("MemberHostname", func() {
	It("builds the headless-service FQDN for a member index", func() {
		Expect(MemberHostname(0, "mongo-cluster", "default")).To(
			Equal("mongo-cluster-0.mongo-cluster.default.svc.cluster.local"))
	})
})

var _ = Describe("MemberHostnames", func() {
	It("builds one hostname per replica", func() {
		Expect(MemberHostnames(3, "mongo-cluster", "default")).To(Equal([]string{
			"mongo-cluster-0.mongo-cluster.default.svc.cluster.local",
			"mongo-cluster-1.mongo-cluster.default.svc.cluster.local",
			"mongo-cluster-2.mongo-cluster.default.svc.cluster.local",
		}))
	})
})

var _ = Describe("BuildConfig", func() {
	It("assigns sequential member ids and the requested version", func() {
		cfg := BuildConfig("mongo-cluster", "default", 3, 1)

		Expect(cfg.ID).To(Equal("mongo-cluster"))
		Expect(cfg.Version).To(Equal(1))
		Expect(cfg.Members).To(HaveLen(3))
		for i, m := range cfg.Members {
			Expect(m.ID).To(Equal(i))
		}
		Expect(cfg.Members[1].Host).To(Equal("mongo-cluster-1.mongo-cluster.default.svc.cluster.local"))
	})
})

var _ = Describe("EvaluateStatus", func() {
	DescribeTable("replSetGetStatus responses",
		func(status bson.M, want ReplicaSetHealth) {
			Expect(EvaluateStatus(status)).To(Equal(want))
		},
		Entry("healthy three members",
			bson.M{"ok": float64(1), "members": bson.A{1, 2, 3}},
			ReplicaSetHealth{OK: true, MemberCount: 3}),
		Entry("not ok",
			bson.M{"ok": float64(0)},
			ReplicaSetHealth{OK: false, MemberCount: 0}),
	)
})
