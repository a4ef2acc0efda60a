package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saintvisionai/platform-api/internal/entity"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CORS_ORIGINS", "https://app.saintvisionai.com,https://partners.saintvisionai.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 2, cfg.ProvisionAttempts)
	assert.Equal(t, time.Second, cfg.ProvisionDelay)
	assert.Equal(t, 72*time.Hour, cfg.DedupTTL)
	assert.Equal(t, []string{"https://app.saintvisionai.com", "https://partners.saintvisionai.com"}, cfg.CORSOrigins)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	t.Setenv("PROVISION_ATTEMPTS", "0")
	_, err := Load()
	assert.ErrorContains(t, err, "PROVISION_ATTEMPTS")
}

func TestDefaultPlanCatalog(t *testing.T) {
	c, err := LoadPlanCatalog("")
	require.NoError(t, err)

	assert.Equal(t, entity.TierEnterprise, c.TierForPrice("price_1RpqCvFZsXxBWnj0XZJwP296"))
	assert.Equal(t, entity.TierUnlimited, c.TierForPrice("price_unknown"))
	assert.Equal(t, 1, c.AccountLimit(entity.TierCRM))
	assert.Equal(t, 5, c.AccountLimit(entity.TierEnterprise))
	assert.Equal(t, 10, c.AccountLimit(entity.TierWhiteLabel))
	assert.False(t, c.IsCRMEligible(entity.TierUnlimited))
	assert.False(t, c.IsCRMEligible(entity.TierFree))
}

func TestLoadPlanCatalog_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plans.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
version: test
default_tier: free
plans:
  - price_id: price_a
    tier: CRM
quotas:
  crm: 3
`), 0o600))

	c, err := LoadPlanCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, "test", c.Version())
	assert.Equal(t, entity.TierCRM, c.TierForPrice("price_a"))
	assert.Equal(t, entity.TierFree, c.TierForPrice("price_b"))
	assert.Equal(t, 3, c.AccountLimit(entity.TierCRM))
}

func TestParsePlanCatalog_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown tier", "default_tier: gold\n", "default_tier"},
		{"duplicate price", "default_tier: free\nplans:\n  - {price_id: p1, tier: crm}\n  - {price_id: p1, tier: enterprise}\n", "duplicate price id"},
		{"zero quota", "default_tier: free\nquotas:\n  crm: 0\n", "at least 1"},
		{"bad yaml", "plans: [", "parse plan catalog"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePlanCatalog([]byte(tt.yaml))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
