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

// Package log wraps the operator's structured logger. It wires a zap
// core into a logr.Logger the way the teacher's management/log package
// does, so every component logs through the same sink and context
// propagation.
package log

import (
	"context"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKeyType struct{}

var ctxKey = ctxKeyType{}

var root logr.Logger = logr.Discard()

// SetLevel configures the process-wide logger for the given level name
// ("DEBUG" or anything else, which maps to info).
func SetLevel(levelName string) {
	level := zapcore.InfoLevel
	if levelName == "DEBUG" {
		level = zapcore.DebugLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.EncoderConfig.TimeKey = "ts"

	zl, err := cfg.Build()
	if err != nil {
		panic(err)
	}

	root = zapr.NewLogger(zl)
}

// WithName returns a named child of the root logger, mirroring the
// teacher's log.WithName(pkg) convention.
func WithName(name string) logr.Logger {
	return root.WithName(name)
}

// IntoContext stores the logger on the context for downstream retrieval.
func IntoContext(ctx context.Context, l logr.Logger) context.Context {
	return context.WithValue(ctx, ctxKey, l)
}

// FromContext recovers the logger previously stored with IntoContext,
// falling back to the root logger if none is set.
func FromContext(ctx context.Context) logr.Logger {
	if l, ok := ctx.Value(ctxKey).(logr.Logger); ok {
		return l
	}
	return root
}
