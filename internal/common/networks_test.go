package common

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write temp file: %v", err)
	}
	return path
}

func TestLoadNetworkPolicies(t *testing.T) {
	path := writeTempFile(t, "networks.yaml", `networks:
  - network: bitcoin
    required_confirmations: 3
  - network: ethereum
    required_confirmations: 12
`)

	policies, err := LoadNetworkPolicies(path)
	if err != nil {
		t.Fatalf("LoadNetworkPolicies failed: %v", err)
	}

	if len(policies) != 2 {
		t.Fatalf("Expected 2 policies, got %d", len(policies))
	}
	if policies["bitcoin"] != 3 {
		t.Errorf("Expected 3 for bitcoin, got %d", policies["bitcoin"])
	}
	if policies["ethereum"] != 12 {
		t.Errorf("Expected 12 for ethereum, got %d", policies["ethereum"])
	}
}

func TestLoadNetworkConfig_Invalid(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"missing name", "networks:\n  - required_confirmations: 3\n"},
		{"zero confirmations", "networks:\n  - network: bitcoin\n    required_confirmations: 0\n"},
		{"malformed yaml", "networks: [\n"},
	}

	for _, tc := range cases {
		path := writeTempFile(t, "networks.yaml", tc.content)
		if _, err := LoadNetworkConfig(path); err == nil {
			t.Errorf("%s: expected error, got nil", tc.name)
		}
	}
}

func TestLoadNetworkConfig_MissingFile(t *testing.T) {
	if _, err := LoadNetworkConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("Expected error for missing file")
	}
}

func TestLoadPlanConfig(t *testing.T) {
	path := writeTempFile(t, "plans.yaml", `plans:
  - name: Starter
    apy_rate: "8"
    duration_days: 30
    min_amount: "100"
    max_amount: "5000"
  - name: Premium
    apy_rate: "15"
    duration_days: 180
    min_amount: "10000"
    max_amount: ""
`)

	plans, err := LoadPlanConfig(path)
	if err != nil {
		t.Fatalf("LoadPlanConfig failed: %v", err)
	}

	if len(plans) != 2 {
		t.Fatalf("Expected 2 plans, got %d", len(plans))
	}
	if plans[0].Name != "Starter" || plans[0].DurationDays != 30 {
		t.Errorf("Unexpected first plan: %+v", plans[0])
	}
	if plans[1].MaxAmount != "" {
		t.Errorf("Expected uncapped second plan, got max %q", plans[1].MaxAmount)
	}
}

func TestLoadPlanConfig_Invalid(t *testing.T) {
	path := writeTempFile(t, "plans.yaml", `plans:
  - name: Broken
    apy_rate: "8"
    duration_days: 0
    min_amount: "100"
`)

	if _, err := LoadPlanConfig(path); err == nil {
		t.Fatal("Expected error for non-positive duration")
	}
}
