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

import "fmt"

// MemberHostname returns the stable per-ordinal DNS name served by the
// headless service plus the stateful workload (spec §4.2).
func MemberHostname(ordinal int, cluster, namespace string) string {
	return fmt.Sprintf("%s-%d.%s.%s.svc.cluster.local", cluster, ordinal, cluster, namespace)
}

// MemberHostnames returns the hostnames for ordinals 0..replicas-1.
func MemberHostnames(replicas int, cluster, namespace string) []string {
	hosts := make([]string, replicas)
	for i := 0; i < replicas; i++ {
		hosts[i] = MemberHostname(i, cluster, namespace)
	}
	return hosts
}
