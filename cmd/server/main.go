/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
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
	"os"
	"os/signal"
	"syscall"

	"inwista-wallet-go/internal/common"
	"inwista-wallet-go/internal/config"
	"inwista-wallet-go/internal/revaluation"
	"inwista-wallet-go/internal/server"

	"go.uber.org/zap"
)

func main() {
	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	zap.L().Info("Starting Inwista wallet server",
		zap.String("backend", cfg.Database.Backend),
		zap.String("port", cfg.Server.Port),
		zap.Bool("h2c", cfg.Server.EnableH2C))

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	scheduler := revaluation.NewScheduler(revaluation.NewJob(services.Store, services.Publisher), cfg.Jobs.RevaluationSchedule)
	if err := scheduler.Start(); err != nil {
		zap.L().Fatal("Failed to start revaluation scheduler", zap.Error(err))
	}

	router := server.NewRouter(server.NewHandler(services.Wallet), services.Tokens, cfg.Server)
	httpServer := server.NewServer(cfg.Server, router)
	serverErrors := httpServer.Start()

	zap.L().Info("Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		zap.L().Info("Shutdown signal received, stopping server...")
	case err := <-serverErrors:
		if err != nil {
			zap.L().Error("HTTP server failed", zap.Error(err))
		}
	}

	if err := httpServer.Shutdown(context.Background()); err != nil {
		zap.L().Warn("Forced shutdown after timeout", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	select {
	case <-scheduler.Stop().Done():
		zap.L().Info("Revaluation scheduler stopped")
	case <-shutdownCtx.Done():
		zap.L().Warn("Revaluation job still running at shutdown")
	}

	zap.L().Info("Server stopped gracefully")
}
