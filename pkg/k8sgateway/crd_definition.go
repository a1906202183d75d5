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
	apiextv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// BuildClusterCRD returns the cluster custom resource definition this
// operator registers at startup (spec §3, §4.1). Schema validation is
// kept permissive (x-kubernetes-preserve-unknown-fields) since
// clusterspec.ParseUnstructured is the single authority for field
// semantics and defaults; the CRD only needs to accept the shape.
func BuildClusterCRD() *apiextv1.CustomResourceDefinition {
	preserveUnknown := true
	return &apiextv1.CustomResourceDefinition{
		ObjectMeta: metav1.ObjectMeta{Name: ClusterCRDName},
		Spec: apiextv1.CustomResourceDefinitionSpec{
			Group: ClusterGVR.Group,
			Names: apiextv1.CustomResourceDefinitionNames{
				Plural:   ClusterGVR.Resource,
				Singular: "mongocluster",
				Kind:     "MongoCluster",
				ListKind: "MongoClusterList",
			},
			Scope: apiextv1.NamespaceScoped,
			Versions: []apiextv1.CustomResourceDefinitionVersion{
				{
					Name:    ClusterGVR.Version,
					Served:  true,
					Storage: true,
					Schema: &apiextv1.CustomResourceValidation{
						OpenAPIV3Schema: &apiextv1.JSONSchemaProps{
							Type:                   "object",
							XPreserveUnknownFields: &preserveUnknown,
						},
					},
				},
			},
		},
	}
}
