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

// Package config parses the process environment into a single
// immutable value at startup, in the teacher's internal/configuration
// style.
package config

import (
	"os"
	"time"
)

// OperatorID identifies this operator in owned-resource labels.
const OperatorID = "mongodb-operator.ultimaker.com"

// ResourcePlural is the heritage label value for owned resources.
const ResourcePlural = "mongoclusters"

// Config is the process-wide, read-only configuration.
type Config struct {
	// Namespace the operator watches for cluster resources. Empty means
	// all namespaces.
	Namespace string

	// LogLevel is either "DEBUG" or anything else (treated as info).
	LogLevel string

	// ServiceDebug enables verbose Kubernetes client transport logging.
	ServiceDebug bool

	// SweepInterval is how often the periodic worker re-reconciles every
	// cluster resource.
	SweepInterval time.Duration

	// WatchTimeout bounds a single watch stream's read before it is
	// considered ended and reopened.
	WatchTimeout time.Duration
}

var debugSentinels = map[string]bool{
	"True": true,
	"true": true,
	"yes":  true,
	"1":    true,
}

// FromEnvironment builds a Config from the process environment,
// applying the defaults named in the specification.
func FromEnvironment() Config {
	namespace := os.Getenv("KUBERNETES_NAMESPACE")
	if namespace == "" {
		namespace = "default"
	}

	logLevel := os.Getenv("LOGGING_LEVEL")
	if logLevel == "" {
		logLevel = "DEBUG"
	}

	return Config{
		Namespace:     namespace,
		LogLevel:      logLevel,
		ServiceDebug:  debugSentinels[os.Getenv("KUBERNETES_SERVICE_DEBUG")],
		SweepInterval: 60 * time.Second,
		WatchTimeout:  10 * time.Minute,
	}
}
