package common

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mcengine-currency-go/internal/models"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadDenominations(t *testing.T) {
	path := writeFile(t, "denominations.yaml", `
denominations:
  - name: Coin
    precision: 0
  - name: gold
    precision: 4
`)
	denoms, err := LoadDenominations(path)
	if err != nil {
		t.Fatalf("LoadDenominations failed: %v", err)
	}
	if len(denoms) != 2 {
		t.Fatalf("expected 2 denominations, got %d", len(denoms))
	}
	if denoms[0].Name != "coin" || denoms[0].Precision != 0 {
		t.Errorf("unexpected first denomination %+v", denoms[0])
	}
	if denoms[1].Name != "gold" || denoms[1].Precision != 4 {
		t.Errorf("unexpected second denomination %+v", denoms[1])
	}
}

func TestLoadDenominationsMissingFile(t *testing.T) {
	denoms, err := LoadDenominations(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadDenominations failed: %v", err)
	}
	if len(denoms) != len(models.DefaultDenominations()) {
		t.Errorf("expected default set, got %+v", denoms)
	}
}

func TestLoadDenominationsInvalid(t *testing.T) {
	tests := map[string]string{
		"empty":     "denominations: []",
		"no name":   "denominations:\n  - precision: 2",
		"duplicate": "denominations:\n  - name: gold\n  - name: GOLD",
		"precision": "denominations:\n  - name: gold\n    precision: 40",
		"malformed": "denominations: [",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadDenominations(writeFile(t, "d.yaml", content)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestInitializeServicesSQLite(t *testing.T) {
	cfg := &models.Config{
		Backend: models.BackendSQLite,
		Database: models.DatabaseConfig{
			Path:         filepath.Join(t.TempDir(), "ledger.db"),
			MaxOpenConns: 4,
			MaxIdleConns: 2,
			PingTimeout:  5 * time.Second,
			BusyTimeout:  5 * time.Second,
		},
		Ledger: models.LedgerConfig{
			Denominations: models.DefaultDenominations(),
			LockTimeout:   time.Second,
		},
	}

	ctx := context.Background()
	services, err := InitializeServices(ctx, cfg)
	if err != nil {
		t.Fatalf("InitializeServices failed: %v", err)
	}
	defer services.Close()

	if err := services.Ledger.HealthCheck(ctx); err != nil {
		t.Fatalf("HealthCheck failed: %v", err)
	}
	if _, err := services.Ledger.Credit(ctx, "alice", "gold", "5"); err != nil {
		t.Fatalf("Credit failed: %v", err)
	}
	families, err := services.Registry.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	found := false
	for _, mf := range families {
		if mf.GetName() == "ledger_operations_total" {
			found = true
		}
	}
	if !found {
		t.Error("expected ledger_operations_total to be registered")
	}
}

func TestInitializeStoreUnknownBackend(t *testing.T) {
	if _, err := InitializeStore(context.Background(), &models.Config{Backend: "mysql"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}
