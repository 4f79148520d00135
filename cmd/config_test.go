package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/etnz/valuation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	p, ok, err := cfg.CachePeriod()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, valuation.Daily, p)
	d, err := cfg.Timeout()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, d)
}

func TestLoadConfigMissingExplicit(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestLoadConfigOverride(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "val.toml", `
[valuation]
tax_rate = 0.25
share_rule = "min"

[valuation.series]
gdp = "F032.PIB.FLU.R.CLP.2018.Z.Z.0.T"

[providers]
cache = "none"
workers = 2

[logging]
level = "debug"
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 0.25, cfg.Valuation.TaxRate)
	assert.Equal(t, valuation.ShareRuleMin, cfg.Valuation.ShareRule)
	assert.Equal(t, "F032.PIB.FLU.R.CLP.2018.Z.Z.0.T", cfg.Valuation.Series.GDP)
	// untouched keys keep their defaults
	assert.Equal(t, "CLP", cfg.Valuation.QuoteCurrency)
	assert.Equal(t, "EXPINF1YR", cfg.Valuation.Series.ForeignInflation)
	assert.Equal(t, "5m", cfg.Providers.Timeout)
	assert.Equal(t, 2, cfg.Providers.Workers)
	assert.Equal(t, "debug", cfg.Logging.Level)

	_, ok, err := cfg.CachePeriod()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadConfigInvalid(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name, content, want string
	}{
		{"syntax", "[valuation\n", "failed to parse"},
		{"tax rate", "[valuation]\ntax_rate = 1.5\n", "tax rate"},
		{"share rule", "[valuation]\nshare_rule = \"avg\"\n", "unknown share rule"},
		{"cache", "[providers]\ncache = \"fortnight\"\n", "providers cache"},
		{"timeout", "[providers]\ntimeout = \"soon\"\n", "providers timeout"},
		{"workers", "[providers]\nworkers = 0\n", "workers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.name+".toml", tt.content)
			_, err := LoadConfig(path)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestCredentials(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, name := range []string{EnvEODHD, EnvBCCHUser, EnvBCCHPass, EnvFRED, EnvGemini} {
		t.Setenv(name, "") // restored after the test
		os.Unsetenv(name)
	}
	t.Setenv(EnvEODHD, "from-env")
	writeFile(t, ".", ".env", "API_EOD=from-file\nAPI_FRED=fred-key\n")

	creds, err := LoadCredentials()
	require.NoError(t, err)
	assert.Equal(t, "from-env", creds.EODHD, "the environment wins over .env")
	assert.Equal(t, "fred-key", creds.FRED)

	assert.NoError(t, creds.Require(EnvEODHD, EnvFRED))
	err = creds.Require(EnvEODHD, EnvBCCHUser, EnvBCCHPass)
	assert.ErrorContains(t, err, "BCCH_USER, BCCH_PWD")
}

func TestCredentialsWithoutDotEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(EnvGemini, "g")
	creds, err := LoadCredentials()
	require.NoError(t, err)
	assert.Equal(t, "g", creds.Gemini)
}
