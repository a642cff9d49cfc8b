package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SERVICE_NAME", "market-service")

	cfg := Load()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should be valid: %v", err)
	}
	if cfg.MinBetAmount.String() != "10000000000000000" {
		t.Errorf("min bet = %s", cfg.MinBetAmount)
	}
	if cfg.PlatformFeeBps != 200 || cfg.MaxCreatorFeeBps != 1000 {
		t.Errorf("fees = %d/%d", cfg.PlatformFeeBps, cfg.MaxCreatorFeeBps)
	}
	if cfg.HTTPPort != "8083" || cfg.MetricsPort != "9099" {
		t.Errorf("ports = %s/%s", cfg.HTTPPort, cfg.MetricsPort)
	}
	if cfg.AdvisoryCacheSize != 100 || cfg.AdvisoryCacheTTL != 5*time.Minute {
		t.Errorf("advisory cache = %d/%s", cfg.AdvisoryCacheSize, cfg.AdvisoryCacheTTL)
	}
}

func TestLoadLists(t *testing.T) {
	t.Setenv("RESOLVERS", " oracle-1, ,oracle-2 ")
	cfg := Load()
	if len(cfg.Resolvers) != 2 || cfg.Resolvers[0] != "oracle-1" || cfg.Resolvers[1] != "oracle-2" {
		t.Errorf("resolvers = %q", cfg.Resolvers)
	}
	if len(cfg.Operators) != 0 {
		t.Errorf("operators = %q", cfg.Operators)
	}
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	t.Setenv("MIN_BET_AMOUNT", "500")
	t.Setenv("MAX_BET_AMOUNT", "100")
	t.Setenv("PLATFORM_FEE_BPS", "9500")
	t.Setenv("LOCK_SWEEP_INTERVAL", "soon")

	cfg := Load()
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"MIN_BET_AMOUNT 500 above", "must not exceed 10000", "LOCK_SWEEP_INTERVAL"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}
