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

package clusterspec

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

func clusterObject(replicas int64, overrides map[string]interface{}) *unstructured.Unstructured {
	spec := map[string]interface{}{
		"mongodb": map[string]interface{}{
			"replicas": replicas,
		},
		"backups": map[string]interface{}{
			"cron": "0 * * * *",
			"gcs": map[string]interface{}{
				"bucket": "ultimaker-mongo-backups",
				"service_account": map[string]interface{}{
					"secret_key_ref": map[string]interface{}{
						"name": "gcs-creds",
						"key":  "service-account.json",
					},
				},
			},
		},
	}
	for k, v := range overrides {
		spec[k] = v
	}

	return &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "mongodb.ultimaker.com/v1alpha1",
		"kind":       "MongoCluster",
		"metadata": map[string]interface{}{
			"name":            "mongo-cluster",
			"namespace":       "default",
			"resourceVersion": "42",
		},
		"spec": spec,
	}}
}

var _ = Describe("ParseUnstructured", func() {
	It("applies defaults for CPU/storage sizing and backup prefix", func() {
		spec, err := ParseUnstructured(clusterObject(3, nil))
		Expect(err).NotTo(HaveOccurred())

		Expect(spec.Name).To(Equal("mongo-cluster"))
		Expect(spec.Namespace).To(Equal("default"))
		Expect(spec.Replicas).To(Equal(3))
		Expect(spec.Sizing.CPURequest).To(Equal(defaultCPURequest))
		Expect(spec.Sizing.StorageSize).To(Equal(defaultStorageSize))
		Expect(spec.Backups.Prefix).To(Equal(defaultBackupPrefix))
	})

	DescribeTable("replica count boundaries",
		func(replicas int64, wantErr bool) {
			_, err := ParseUnstructured(clusterObject(replicas, nil))
			if wantErr {
				Expect(err).To(HaveOccurred())
			} else {
				Expect(err).NotTo(HaveOccurred())
			}
		},
		Entry("below minimum", int64(2), true),
		Entry("minimum accepted", int64(3), false),
		Entry("maximum accepted", int64(50), false),
		Entry("above maximum", int64(51), true),
	)

	It("rejects a missing replicas field", func() {
		obj := clusterObject(3, nil)
		unstructured.RemoveNestedField(obj.Object, "spec", "mongodb", "replicas")

		_, err := ParseUnstructured(obj)
		Expect(err).To(HaveOccurred())
	})

	It("rejects a missing backup bucket", func() {
		obj := clusterObject(3, nil)
		unstructured.RemoveNestedField(obj.Object, "spec", "backups", "gcs", "bucket")

		_, err := ParseUnstructured(obj)
		Expect(err).To(HaveOccurred())
	})

	It("resolves EffectiveRestoreBucket, falling back to the primary bucket", func() {
		spec, err := ParseUnstructured(clusterObject(3, nil))
		Expect(err).NotTo(HaveOccurred())
		Expect(spec.Backups.EffectiveRestoreBucket()).To(Equal("ultimaker-mongo-backups"))

		spec.Backups.RestoreBucket = "other-bucket"
		Expect(spec.Backups.EffectiveRestoreBucket()).To(Equal("other-bucket"))
	})
})

var _ = Describe("ResourceVersionAtLeast", func() {
	DescribeTable("candidate vs known resourceVersion ordering",
		func(candidate, known string, want bool) {
			Expect(ResourceVersionAtLeast(candidate, known)).To(Equal(want))
		},
		Entry("candidate newer", "10", "9", true),
		Entry("candidate older", "9", "10", false),
		Entry("candidate equal", "5", "5", true),
		Entry("known unset", "anything", "", true),
	)
})
