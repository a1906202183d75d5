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
	"time"

	apiextv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	apierrs "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/util/retry"
)

// ClusterCRDName is the fully qualified name of the cluster custom
// resource definition this operator registers at startup.
const ClusterCRDName = "mongoclusters.mongodb.ultimaker.com"

const (
	crdBootstrapAttempts = 3
	crdBootstrapSpacing  = 5 * time.Second
)

var crdBootstrapBackoff = wait.Backoff{
	Steps:    crdBootstrapAttempts,
	Duration: crdBootstrapSpacing,
	Factor:   1.0,
}

// EnsureClusterCRDRegistered registers the cluster custom resource
// definition if absent, retrying with fixed back-off (3 attempts, 5s
// spacing) until the API server accepts it — initial listings may
// transiently 404 while the definition is propagating (spec §4.1).
func (g *Gateway) EnsureClusterCRDRegistered(ctx context.Context, crd *apiextv1.CustomResourceDefinition) error {
	attempt := 0
	err := retry.OnError(crdBootstrapBackoff, func(error) bool { return ctx.Err() == nil }, func() error {
		attempt++
		err := g.registerCRDOnce(ctx, crd)
		if err != nil {
			gwLog.Info("CRD registration not ready yet, retrying", "attempt", attempt, "error", err.Error())
		}
		return err
	})
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (g *Gateway) registerCRDOnce(ctx context.Context, crd *apiextv1.CustomResourceDefinition) error {
	_, err := g.APIExt.ApiextensionsV1().CustomResourceDefinitions().Get(ctx, crd.Name, metav1.GetOptions{})
	if err == nil {
		return nil
	}
	if !apierrs.IsNotFound(err) {
		return err
	}

	gwLog.Info("registering cluster custom resource definition", "name", crd.Name)
	_, err = g.APIExt.ApiextensionsV1().CustomResourceDefinitions().Create(ctx, crd, metav1.CreateOptions{})
	if err != nil && !apierrs.IsAlreadyExists(err) {
		return err
	}
	return nil
}
