/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/carverauto/pumpsync/pkg/config"
	"github.com/carverauto/pumpsync/pkg/kv"
	"github.com/carverauto/pumpsync/pkg/lifecycle"
	"github.com/carverauto/pumpsync/pkg/logger"
	"github.com/carverauto/pumpsync/pkg/manager"
	"github.com/carverauto/pumpsync/pkg/version"
)

const serviceName = "pumpsync"

var errFailedToLoadConfig = errors.New("failed to load config")

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "/etc/pumpsync/pumpsync.yaml", "Path to pumpsync config file")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return nil
	}

	ctx := context.Background()

	cfg, err := loadConfig(ctx, *configPath)
	if err != nil {
		return fmt.Errorf("%w: %w", errFailedToLoadConfig, err)
	}

	logConfig := cfg.Logging
	if logConfig == nil {
		logConfig = logger.DefaultConfig()
	}

	mainLogger, err := lifecycle.CreateComponentLogger(ctx, serviceName, logConfig)
	if err != nil {
		return err
	}

	mainLogger.Info().Str("version", version.Version()).Str("commit", version.Commit()).Msg("Starting pumpsync")

	tp, err := logger.InitializeTracing(ctx, logger.TracingConfig{
		ServiceName:    serviceName,
		ServiceVersion: version.Version(),
		OTel:           &logConfig.OTel,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	if _, err := logger.InitializeMetrics(ctx, logger.MetricsConfig{
		ServiceName:    serviceName,
		ServiceVersion: version.Version(),
		OTel:           &logConfig.OTel,
	}); err != nil && !errors.Is(err, logger.ErrOTelMetricsDisabled) {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	svc, err := manager.NewService(ctx, cfg, mainLogger)
	if err != nil {
		return err
	}

	return lifecycle.RunService(ctx, &lifecycle.ServiceOptions{
		ServiceName: serviceName,
		Service:     svc,
		Logger:      mainLogger,
		OnShutdown: []func(context.Context) error{
			tp.Shutdown,
			logger.ShutdownMetrics,
			lifecycle.ShutdownLogger,
		},
	})
}

// loadConfig reads the service config. With CONFIG_SOURCE=kv the document is
// fetched from the NATS KV bucket named by PUMPSYNC_CONFIG_BUCKET at
// PUMPSYNC_CONFIG_NATS_URL, falling back to the file.
func loadConfig(ctx context.Context, path string) (*manager.ServiceConfig, error) {
	loader := config.NewConfig(nil)

	if strings.EqualFold(os.Getenv("CONFIG_SOURCE"), "kv") {
		store, err := kv.Open(ctx, &kv.Config{
			Backend: kv.BackendNATS,
			NATSURL: os.Getenv("PUMPSYNC_CONFIG_NATS_URL"),
			Bucket:  os.Getenv("PUMPSYNC_CONFIG_BUCKET"),
		}, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to open config store: %w", err)
		}
		defer func() { _ = store.Close() }()

		loader.SetKVStore(store)
	}

	var cfg manager.ServiceConfig

	if err := loader.LoadAndValidate(ctx, path, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
