package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/taskbounty-backend/internal/models"
)

func writePolicy(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadPolicy_Defaults(t *testing.T) {
	policy, err := LoadPolicy("")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultPolicy(), policy)
}

func TestLoadPolicy_OverridesFromFile(t *testing.T) {
	path := writePolicy(t, `
fee_rate_bps = 100
dispute_window_blocks = 144
reject_policy = "refund_after_window"
`)

	policy, err := LoadPolicy(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), policy.FeeRateBps)
	assert.Equal(t, uint64(144), policy.DisputeWindowBlocks)
	assert.Equal(t, models.RejectPolicyRefundAfterWindow, policy.RejectPolicy)
	// не указанные в файле значения остаются по умолчанию
	assert.Equal(t, models.DefaultPolicy().MinReward, policy.MinReward)
}

func TestLoadPolicy_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"fee above 100%", "fee_rate_bps = 10001"},
		{"unknown reject policy", `reject_policy = "burn"`},
		{"min above max", "min_reward = 10\nmax_reward = 5"},
		{"broken toml", "fee_rate_bps = "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadPolicy(writePolicy(t, tt.body))
			assert.Error(t, err)
		})
	}

	_, err := LoadPolicy(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestLoad_Development(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("STORAGE_DRIVER", StorageMemory)
	t.Setenv("PLATFORM_OWNER_ID", "")
	t.Setenv("REGISTRY_ID", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("POLICY_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorageMemory, cfg.StorageDriver)
	assert.NotEqual(t, cfg.OwnerID, cfg.RegistryID)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.Equal(t, models.DefaultPolicy(), cfg.Policy)
}

func TestLoad_ProductionRequirements(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("STORAGE_DRIVER", StorageMemory)

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("STORAGE_DRIVER", StorageSQLite)
	t.Setenv("JWT_SECRET", "short")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoad_UnknownDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "mongo")
	_, err := Load()
	assert.Error(t, err)
}
