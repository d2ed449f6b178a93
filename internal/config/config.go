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

package config

import (
	"fmt"
	"strings"

	"mcengine-currency-go/internal/common"
	"mcengine-currency-go/internal/models"

	"github.com/kelseyhightower/envconfig"
)

func Load() (*models.Config, error) {
	var cfg models.Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	switch cfg.Backend {
	case models.BackendSQLite:
	case models.BackendPostgres:
		if cfg.Postgres.DSN == "" {
			return nil, fmt.Errorf("POSTGRES_DSN is required when LEDGER_BACKEND=%s", models.BackendPostgres)
		}
	default:
		return nil, fmt.Errorf("invalid LEDGER_BACKEND %q", cfg.Backend)
	}
	if cfg.Ledger.LockTimeout <= 0 {
		return nil, fmt.Errorf("LEDGER_LOCK_TIMEOUT must be positive, got %v", cfg.Ledger.LockTimeout)
	}

	if cfg.Ledger.AuditInterval < 0 {
		return nil, fmt.Errorf("LEDGER_AUDIT_INTERVAL cannot be negative, got %v", cfg.Ledger.AuditInterval)
	}

	denominations, err := common.LoadDenominations(cfg.Ledger.DenominationsFile)
	if err != nil {
		return nil, err
	}
	cfg.Ledger.Denominations = denominations

	return &cfg, nil
}
