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

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	apiextfake "k8s.io/apiextensions-apiserver/pkg/client/clientset/clientset/fake"
)

var _ = Describe("Gateway.EnsureClusterCRDRegistered", func() {
	It("creates the CRD when it is absent", func() {
		g := &Gateway{APIExt: apiextfake.NewSimpleClientset()}
		crd := BuildClusterCRD()

		Expect(g.EnsureClusterCRDRegistered(context.Background(), crd)).To(Succeed())

		got, err := g.APIExt.ApiextensionsV1().CustomResourceDefinitions().Get(context.Background(), crd.Name, metav1.GetOptions{})
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Name).To(Equal(ClusterCRDName))
	})

	It("is idempotent when the CRD already exists", func() {
		crd := BuildClusterCRD()
		g := &Gateway{APIExt: apiextfake.NewSimpleClientset(crd)}

		Expect(g.EnsureClusterCRDRegistered(context.Background(), crd)).To(Succeed())
	})
})
