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
	"fmt"

	"inwista-wallet-go/internal/common"
	"inwista-wallet-go/internal/config"
	"inwista-wallet-go/internal/revaluation"

	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	zap.L().Info("Running revaluation pass")
	updated, err := revaluation.NewJob(services.Store, services.Publisher).Run(ctx)
	if err != nil {
		zap.L().Fatal("Revaluation failed", zap.Error(err), zap.Int("updated", updated))
	}

	common.PrintFooter(fmt.Sprintf("Revaluation complete: %d positions updated", updated), common.DefaultWidth)
}
