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

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/watch"
)

// ClusterGVR identifies the cluster custom resource kind in the
// dynamic client.
var ClusterGVR = schema.GroupVersionResource{
	Group:    "mongodb.ultimaker.com",
	Version:  "v1alpha1",
	Resource: "mongoclusters",
}

// GetClusterResource returns the named cluster custom resource,
// found=false on a 404.
func (g *Gateway) GetClusterResource(ctx context.Context, namespace, name string) (*unstructured.Unstructured, bool, error) {
	obj, err := g.Dynamic.Resource(ClusterGVR).Namespace(namespace).Get(ctx, name, metav1.GetOptions{})
	if IsNotFound(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return obj, true, nil
}

// ListClusterResources lists every cluster custom resource in the
// operator's watched namespace (or all namespaces, when Namespace is
// empty).
func (g *Gateway) ListClusterResources(ctx context.Context) (*unstructured.UnstructuredList, error) {
	ns := g.Namespace
	if ns == "" {
		return g.Dynamic.Resource(ClusterGVR).List(ctx, metav1.ListOptions{})
	}
	return g.Dynamic.Resource(ClusterGVR).Namespace(ns).List(ctx, metav1.ListOptions{})
}

// WatchClusterResources opens a watch on the cluster custom resource
// list starting after resourceVersion. The caller is responsible for
// applying a read deadline via the context; when the API server closes
// the stream (or the deadline elapses) the channel closes cleanly
// (spec §4.1).
func (g *Gateway) WatchClusterResources(ctx context.Context, resourceVersion string) (watch.Interface, error) {
	opts := metav1.ListOptions{ResourceVersion: resourceVersion}
	ns := g.Namespace
	if ns == "" {
		return g.Dynamic.Resource(ClusterGVR).Watch(ctx, opts)
	}
	return g.Dynamic.Resource(ClusterGVR).Namespace(ns).Watch(ctx, opts)
}
