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

// Package auditor periodically reconciles every account against its journal.
package auditor

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"mcengine-currency-go/internal/metrics"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Reconciler is the part of the ledger facade the auditor drives.
type Reconciler interface {
	Accounts(ctx context.Context) ([]string, error)
	Reconcile(ctx context.Context, accountId string) error
}

// Result summarizes one reconciliation pass.
type Result struct {
	Accounts   int
	Mismatched []string
}

type Auditor struct {
	ledger      Reconciler
	interval    time.Duration
	concurrency int
	metrics     *metrics.AuditMetrics
	now         func() time.Time

	mu       sync.Mutex
	started  bool
	stopOnce sync.Once
	stopChan chan struct{}
	doneChan chan struct{}
}

func New(ledger Reconciler, interval time.Duration, concurrency int, m *metrics.AuditMetrics) *Auditor {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Auditor{
		ledger:      ledger,
		interval:    interval,
		concurrency: concurrency,
		metrics:     m,
		now:         time.Now,
		stopChan:    make(chan struct{}),
		doneChan:    make(chan struct{}),
	}
}

// Start runs a pass immediately and then one per interval until ctx is done
// or Stop is called. An auditor can be started once.
func (a *Auditor) Start(ctx context.Context) error {
	if a.interval <= 0 {
		return fmt.Errorf("audit interval must be positive, got %v", a.interval)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started {
		return errors.New("auditor already started")
	}
	a.started = true

	zap.L().Info("Starting ledger auditor", zap.Duration("interval", a.interval))
	go a.loop(ctx)
	return nil
}

// Stop halts the loop and waits for the running pass to finish. It returns
// at once if the auditor was never started.
func (a *Auditor) Stop() {
	a.stopOnce.Do(func() { close(a.stopChan) })
	a.mu.Lock()
	started := a.started
	a.mu.Unlock()
	if !started {
		return
	}
	<-a.doneChan
	zap.L().Info("Ledger auditor stopped")
}

func (a *Auditor) loop(ctx context.Context) {
	defer close(a.doneChan)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	a.runLogged(ctx)

	for {
		select {
		case <-ticker.C:
			a.runLogged(ctx)
		case <-a.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (a *Auditor) runLogged(ctx context.Context) {
	result, err := a.RunOnce(ctx)
	if err != nil {
		zap.L().Error("Reconciliation pass failed", zap.Error(err))
		return
	}
	if len(result.Mismatched) > 0 {
		zap.L().Error("Reconciliation found mismatched accounts",
			zap.Int("accounts", result.Accounts),
			zap.Strings("mismatched", result.Mismatched))
		return
	}
	zap.L().Info("Reconciliation pass clean", zap.Int("accounts", result.Accounts))
}

// RunOnce reconciles every account, at most concurrency at a time. A single
// account's mismatch does not stop the pass.
func (a *Auditor) RunOnce(ctx context.Context) (Result, error) {
	accounts, err := a.ledger.Accounts(ctx)
	if err != nil {
		a.metrics.ObserveRun(a.now(), 0, true)
		return Result{}, fmt.Errorf("failed to list accounts: %w", err)
	}

	var mu sync.Mutex
	var mismatched []string

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for _, accountId := range accounts {
		g.Go(func() error {
			if err := a.ledger.Reconcile(gctx, accountId); err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				zap.L().Warn("Account does not reconcile", zap.String("account_id", accountId), zap.Error(err))
				mu.Lock()
				mismatched = append(mismatched, accountId)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		a.metrics.ObserveRun(a.now(), 0, true)
		return Result{}, err
	}

	slices.Sort(mismatched)
	a.metrics.ObserveRun(a.now(), len(mismatched), false)
	return Result{Accounts: len(accounts), Mismatched: mismatched}, nil
}
