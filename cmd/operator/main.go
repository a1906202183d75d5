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

// Command operator is the single long-running entrypoint: it bootstraps
// the cluster CRD, builds the Kubernetes gateway, and runs the
// reconcile-loop supervisor until terminated (spec §6: no flags beyond
// --version).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cloudnative-mongo/mongo-operator/internal/config"
	"github.com/cloudnative-mongo/mongo-operator/internal/controller"
	"github.com/cloudnative-mongo/mongo-operator/pkg/k8sgateway"
	"github.com/cloudnative-mongo/mongo-operator/pkg/log"
	"github.com/cloudnative-mongo/mongo-operator/pkg/metrics"
)

// version is overwritten at build time via -ldflags.
var version = "dev"

func main() {
	root := newRootCmd()
	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "operator",
		Short:   "Reconciles MongoDB replica-set cluster custom resources",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}
	return cmd
}

func run(ctx context.Context) error {
	cfg := config.FromEnvironment()
	log.SetLevel(cfg.LogLevel)
	rootLog := log.WithName("main")

	metrics.MustRegister()

	gw, err := k8sgateway.NewFromInCluster(cfg.Namespace)
	if err != nil {
		return fmt.Errorf("building kubernetes gateway: %w", err)
	}

	if err := gw.EnsureClusterCRDRegistered(ctx, k8sgateway.BuildClusterCRD()); err != nil {
		return fmt.Errorf("registering cluster custom resource definition: %w", err)
	}
	rootLog.Info("cluster custom resource definition registered", "name", k8sgateway.ClusterCRDName)

	loop := controller.New(gw, config.OperatorID, config.ResourcePlural)
	supervisor := controller.NewSupervisor(loop, gw, cfg)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		rootLog.Info("received termination signal, shutting down", "signal", sig.String())
		cancel()
	}()

	rootLog.Info("starting operator", "namespace", cfg.Namespace, "version", version)
	supervisor.Run(runCtx)
	rootLog.Info("operator stopped")
	return nil
}
