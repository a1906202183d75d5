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

// Package k8sgateway is the typed Kubernetes gateway (spec §4.1, C2):
// create/get/update/delete/list/watch over the owned resource kinds
// (headless service, stateful workload, admin secret) and the cluster
// custom resource itself, plus CRD-registration bootstrap.
//
// NotFound is a first-class value here, not an error the caller has to
// dig an apierrors.StatusError out of: every Get returns
// (obj, bool found, err), every Delete absorbs a 404, and every other
// non-2xx is propagated as err.
package k8sgateway

import (
	"fmt"

	apiextensionsclientset "k8s.io/apiextensions-apiserver/pkg/client/clientset/clientset"
	apierrs "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"

	"github.com/cloudnative-mongo/mongo-operator/pkg/log"
)

var gwLog = log.WithName("k8sgateway")

// Labels are the labels every owned resource carries, identifying it as
// operator-managed (spec §3: OwnedResource).
type Labels struct {
	ManagedBy   string
	Heritage    string
	ClusterName string
}

// AsMap renders the labels for use in ObjectMeta.Labels.
func (l Labels) AsMap() map[string]string {
	return map[string]string{
		"managed-by": l.ManagedBy,
		"heritage":   l.Heritage,
		"name":       l.ClusterName,
	}
}

// Selector renders the managed-by and heritage labels as a list label
// selector. It omits the cluster-name label, so it matches the owned
// resources of every cluster this operator manages.
func (l Labels) Selector() string {
	return fmt.Sprintf("managed-by=%s,heritage=%s", l.ManagedBy, l.Heritage)
}

// ForCluster returns the labels for resources owned by clusterName.
func ForCluster(operatorID, resourcePlural, clusterName string) Labels {
	return Labels{ManagedBy: operatorID, Heritage: resourcePlural, ClusterName: clusterName}
}

// Gateway holds the typed and dynamic Kubernetes clients. Gateways hold
// connection pools but are otherwise stateless (spec §5).
type Gateway struct {
	Typed     kubernetes.Interface
	Dynamic   dynamic.Interface
	APIExt    apiextensionsclientset.Interface
	Namespace string
}

// NewFromInCluster builds a Gateway using in-cluster service-account
// credentials, the way every cloudnative-pg binary bootstraps its
// clients.
func NewFromInCluster(namespace string) (*Gateway, error) {
	config, err := rest.InClusterConfig()
	if err != nil {
		return nil, fmt.Errorf("loading in-cluster config: %w", err)
	}
	return newGateway(config, namespace)
}

// NewFromRESTConfig builds a Gateway from an explicit rest.Config,
// primarily for tests driven against an envtest/fake API server.
func NewFromRESTConfig(config *rest.Config, namespace string) (*Gateway, error) {
	return newGateway(config, namespace)
}

func newGateway(config *rest.Config, namespace string) (*Gateway, error) {
	typed, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("building typed client: %w", err)
	}

	dyn, err := dynamic.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("building dynamic client: %w", err)
	}

	apiExt, err := apiextensionsclientset.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("building apiextensions client: %w", err)
	}

	return &Gateway{Typed: typed, Dynamic: dyn, APIExt: apiExt, Namespace: namespace}, nil
}

// IsNotFound reports whether err represents a 404 from the API server.
func IsNotFound(err error) bool {
	return apierrs.IsNotFound(err)
}

// IsAlreadyExists reports whether err represents a 409 conflict on
// create.
func IsAlreadyExists(err error) bool {
	return apierrs.IsAlreadyExists(err)
}
