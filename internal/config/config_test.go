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

package config

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("FromEnvironment", func() {
	It("applies defaults when the environment is unset", func() {
		GinkgoT().Setenv("KUBERNETES_NAMESPACE", "")
		GinkgoT().Setenv("LOGGING_LEVEL", "")
		GinkgoT().Setenv("KUBERNETES_SERVICE_DEBUG", "")

		cfg := FromEnvironment()

		Expect(cfg.Namespace).To(Equal("default"))
		Expect(cfg.LogLevel).To(Equal("DEBUG"))
		Expect(cfg.ServiceDebug).To(BeFalse())
	})

	It("honors explicit overrides", func() {
		GinkgoT().Setenv("KUBERNETES_NAMESPACE", "mongo-system")
		GinkgoT().Setenv("LOGGING_LEVEL", "INFO")
		GinkgoT().Setenv("KUBERNETES_SERVICE_DEBUG", "true")

		cfg := FromEnvironment()

		Expect(cfg.Namespace).To(Equal("mongo-system"))
		Expect(cfg.LogLevel).To(Equal("INFO"))
		Expect(cfg.ServiceDebug).To(BeTrue())
	})

	DescribeTable("service-debug sentinel variants",
		func(value string, want bool) {
			GinkgoT().Setenv("KUBERNETES_NAMESPACE", "default")
			GinkgoT().Setenv("LOGGING_LEVEL", "DEBUG")
			GinkgoT().Setenv("KUBERNETES_SERVICE_DEBUG", value)

			Expect(FromEnvironment().ServiceDebug).To(Equal(want))
		},
		Entry("capitalized True", "True", true),
		Entry("lowercase true", "true", true),
		Entry("yes", "yes", true),
		Entry("1", "1", true),
		Entry("non-sentinel value", "nope", false),
	)
})
