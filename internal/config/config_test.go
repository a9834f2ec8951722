package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 20, cfg.Query.DefaultPageSize)
	assert.Equal(t, 500, cfg.Query.MaxPageSize)
	assert.Equal(t, 25, cfg.Query.FaqTopK)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("CHATBOT_INSIGHTS_PORT", "9090")
	t.Setenv("CHATBOT_INSIGHTS_DEFAULT_PAGE_SIZE", "50")
	t.Setenv("CHATBOT_INSIGHTS_READ_TIMEOUT", "5s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 50, cfg.Query.DefaultPageSize)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("CHATBOT_INSIGHTS_PORT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"privileged port", func(c *Config) { c.Server.Port = 80 }},
		{"zero page size", func(c *Config) { c.Query.DefaultPageSize = 0 }},
		{"max below default", func(c *Config) { c.Query.MaxPageSize = 5 }},
		{"zero faq top-k", func(c *Config) { c.Query.FaqTopK = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Load()
			require.NoError(t, err)
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadResolvesPathsToAbsolute(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	for _, path := range []string{cfg.Database.Path, cfg.Data.CSVPath, cfg.Data.TaxonomyPath, cfg.Data.ProductsPath} {
		assert.True(t, len(path) > 0 && path[0] == '/', "path %q should be absolute", path)
	}
}
