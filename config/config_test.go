package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/artpar/metergate/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func writeAndLoad(t *testing.T, content string) *config.Config {
	t.Helper()
	cfg, err := config.Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	return cfg
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
server:
  host: "127.0.0.1"
  port: 9090
  read_timeout: 15s

database:
  driver: "sqlite"
  dsn: ":memory:"

billing:
  mode: "stripe"
  stripe_secret_key: "sk_test_123"
  stripe_webhook_secret: "whsec_123"
  stripe_price_id: "price_123"

quota:
  free_requests_per_month: 10
  pro_requests_per_month: 100000
`

	cfg := writeAndLoad(t, content)

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Host = %s, want 127.0.0.1", cfg.Server.Host)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("ReadTimeout = %v, want 15s", cfg.Server.ReadTimeout)
	}
	if cfg.Billing.Mode != "stripe" {
		t.Errorf("Billing.Mode = %s, want stripe", cfg.Billing.Mode)
	}
	if cfg.Quota.FreeRequestsPerMonth != 10 {
		t.Errorf("FreeRequestsPerMonth = %d, want 10", cfg.Quota.FreeRequestsPerMonth)
	}
	if cfg.Quota.ProRequestsPerMonth != 100000 {
		t.Errorf("ProRequestsPerMonth = %d, want 100000", cfg.Quota.ProRequestsPerMonth)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg := writeAndLoad(t, `{}`)

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("default Host = %s, want 0.0.0.0", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("default Driver = %s, want sqlite", cfg.Database.Driver)
	}
	if cfg.Billing.Mode != "dummy" {
		t.Errorf("default Billing.Mode = %s, want dummy", cfg.Billing.Mode)
	}
	if cfg.Quota.FreeRequestsPerMonth != 5 {
		t.Errorf("default FreeRequestsPerMonth = %d, want 5", cfg.Quota.FreeRequestsPerMonth)
	}
	if cfg.Quota.ProRequestsPerMonth != -1 {
		t.Errorf("default ProRequestsPerMonth = %d, want -1 (unlimited)", cfg.Quota.ProRequestsPerMonth)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("default Logging.Level = %s, want info", cfg.Logging.Level)
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("default Metrics.Path = %s, want /metrics", cfg.Metrics.Path)
	}
	// Metrics are opt-in.
	if cfg.Metrics.Enabled {
		t.Error("default Metrics.Enabled = true, want false")
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	os.Setenv("TEST_STRIPE_KEY", "sk_test_from_env")
	defer os.Unsetenv("TEST_STRIPE_KEY")

	content := `
billing:
  mode: "stripe"
  stripe_secret_key: "${TEST_STRIPE_KEY}"
  stripe_webhook_secret: "whsec_123"
  stripe_price_id: "price_123"
`

	cfg := writeAndLoad(t, content)
	if cfg.Billing.StripeSecretKey != "sk_test_from_env" {
		t.Errorf("StripeSecretKey = %s, want sk_test_from_env", cfg.Billing.StripeSecretKey)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	os.Setenv("METERGATE_SERVER_PORT", "9999")
	os.Setenv("METERGATE_QUOTA_FREE", "42")
	defer os.Unsetenv("METERGATE_SERVER_PORT")
	defer os.Unsetenv("METERGATE_QUOTA_FREE")

	content := `
server:
  port: 8080

quota:
  free_requests_per_month: 5
`

	cfg := writeAndLoad(t, content)
	if cfg.Server.Port != 9999 {
		t.Errorf("Port = %d, want 9999 (env wins over file)", cfg.Server.Port)
	}
	if cfg.Quota.FreeRequestsPerMonth != 42 {
		t.Errorf("FreeRequestsPerMonth = %d, want 42 (env wins over file)", cfg.Quota.FreeRequestsPerMonth)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "unknown database driver",
			content: `
database:
  driver: "postgres"
`,
			wantErr: "database.driver",
		},
		{
			name: "unknown billing mode",
			content: `
billing:
  mode: "paypal"
`,
			wantErr: "billing.mode",
		},
		{
			name: "billing mode test is not a mode",
			content: `
billing:
  mode: "test"
`,
			wantErr: "billing.mode",
		},
		{
			name: "stripe without secret key",
			content: `
billing:
  mode: "stripe"
  stripe_webhook_secret: "whsec_123"
  stripe_price_id: "price_123"
`,
			wantErr: "stripe_secret_key",
		},
		{
			name: "stripe without webhook secret",
			content: `
billing:
  mode: "stripe"
  stripe_secret_key: "sk_test_123"
  stripe_price_id: "price_123"
`,
			wantErr: "stripe_webhook_secret",
		},
		{
			name: "negative free quota",
			content: `
quota:
  free_requests_per_month: -3
`,
			wantErr: "free_requests_per_month",
		},
		{
			name: "pro quota below -1",
			content: `
quota:
  pro_requests_per_month: -2
`,
			wantErr: "pro_requests_per_month",
		},
		{
			name: "bad log level",
			content: `
logging:
  level: "verbose"
`,
			wantErr: "logging.level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadWithFallback_UsesEnvWhenFileMissing(t *testing.T) {
	os.Setenv("METERGATE_DATABASE_DRIVER", "memory")
	defer os.Unsetenv("METERGATE_DATABASE_DRIVER")

	cfg, err := config.LoadWithFallback(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadWithFallback error: %v", err)
	}
	if cfg.Database.Driver != "memory" {
		t.Errorf("Driver = %s, want memory", cfg.Database.Driver)
	}
}
