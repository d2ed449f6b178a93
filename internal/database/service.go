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

package database

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"time"

	"mcengine-currency-go/internal/models"
	"mcengine-currency-go/internal/store"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Compile-time check: *Service must satisfy store.LedgerStore.
var _ store.LedgerStore = (*Service)(nil)

type Service struct {
	db        *sql.DB
	subledger *SubledgerService
}

func NewService(ctx context.Context, cfg models.DatabaseConfig) (*Service, error) {
	// Validate configuration
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if cfg.MaxOpenConns <= 0 {
		return nil, fmt.Errorf("max open connections must be positive, got %d", cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns < 0 {
		return nil, fmt.Errorf("max idle connections cannot be negative, got %d", cfg.MaxIdleConns)
	}
	if cfg.PingTimeout <= 0 {
		return nil, fmt.Errorf("ping timeout must be positive, got %v", cfg.PingTimeout)
	}

	zap.L().Info("Opening SQLite database", zap.String("file", cfg.Path))
	db, err := sql.Open("sqlite3", dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	// Set connection timeouts and limits
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Test connection with timeout
	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	subledger := NewSubledgerService(db)
	if err := subledger.InitSchema(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to initialize subledger schema: %w", err)
	}

	zap.L().Info("Database service initialized successfully")
	return &Service{db: db, subledger: subledger}, nil
}

// InMemoryConfig returns settings for a private in-memory database. A single
// pooled connection is kept open forever because the data lives in it.
func InMemoryConfig() models.DatabaseConfig {
	return models.DatabaseConfig{
		Path:         ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		PingTimeout:  5 * time.Second,
		BusyTimeout:  5 * time.Second,
	}
}

// dsn enables WAL and takes the write lock at BEGIN so a transaction that read
// a balance cannot lose its snapshot when it later writes.
func dsn(cfg models.DatabaseConfig) string {
	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	return fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=1000&_busy_timeout=%d&_txlock=immediate",
		cfg.Path, busy.Milliseconds())
}

func (s *Service) Close() {
	if err := s.db.Close(); err != nil {
		zap.L().Warn("Failed to close database connection", zap.Error(err))
	}
}

func (s *Service) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: ping: %w", store.ErrStorageUnavailable, err)
	}
	return nil
}

// Subledger convenience methods

func (s *Service) GetBalance(ctx context.Context, accountId, denomination string) (decimal.Decimal, error) {
	return s.subledger.GetBalance(ctx, accountId, denomination)
}

func (s *Service) GetAllBalances(ctx context.Context, accountId string) ([]models.AccountBalance, error) {
	return s.subledger.GetAllBalances(ctx, accountId)
}

func (s *Service) Exists(ctx context.Context, accountId string) (bool, error) {
	return s.subledger.Exists(ctx, accountId)
}

func (s *Service) Initialize(ctx context.Context, accountId string, denominations []string) error {
	return s.subledger.WithinTx(ctx, func(tx store.Tx) error {
		return tx.Initialize(ctx, accountId, denominations)
	})
}

func (s *Service) ListAccounts(ctx context.Context) ([]string, error) {
	return s.subledger.ListAccounts(ctx)
}

func (s *Service) WithinTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return s.subledger.WithinTx(ctx, fn)
}

func (s *Service) QueryByAccount(ctx context.Context, accountId string) iter.Seq2[models.Transaction, error] {
	return s.subledger.QueryByAccount(ctx, accountId)
}

func (s *Service) GetTransactionHistory(ctx context.Context, accountId, denomination string, limit, offset int) ([]models.Transaction, error) {
	return s.subledger.GetTransactionHistory(ctx, accountId, denomination, limit, offset)
}

func (s *Service) ReconcileBalance(ctx context.Context, accountId, denomination string) error {
	return s.subledger.ReconcileBalance(ctx, accountId, denomination)
}
