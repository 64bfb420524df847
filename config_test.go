package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDomainMappings(t *testing.T) {
	t.Parallel()

	mappings, err := ParseDomainMappings("city:city.example.com, shop:shop.example.com")
	require.NoError(t, err)
	require.Len(t, mappings, 2)
	assert.Equal(t, DomainMapping{PathPrefix: "city", Subdomain: "city.example.com"}, mappings[0])
	assert.Equal(t, DomainMapping{PathPrefix: "shop", Subdomain: "shop.example.com"}, mappings[1])
	assert.Equal(t, "/city", mappings[0].PrefixRoot())
}

func TestParseDomainMappings_NormalizesCaseAndSlashes(t *testing.T) {
	t.Parallel()

	mappings, err := ParseDomainMappings("/City/:CITY.Example.com")
	require.NoError(t, err)
	require.Len(t, mappings, 1)
	// Prefix keeps its case as a path segment; the subdomain is a hostname.
	assert.Equal(t, "City", mappings[0].PathPrefix)
	assert.Equal(t, "city.example.com", mappings[0].Subdomain)
}

func TestParseDomainMappings_RejectsMalformedPairs(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"city", "city:", ":city.example.com", "a/b:sub.example.com"} {
		_, err := ParseDomainMappings(raw)
		assert.Error(t, err, "expected error for %q", raw)
	}
}

func TestParseDomainMappings_Empty(t *testing.T) {
	t.Parallel()
	mappings, err := ParseDomainMappings("")
	require.NoError(t, err)
	assert.Empty(t, mappings)
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Setenv("CANONICAL_DOMAIN", "www.Example.com")
	t.Setenv("DOMAIN_MAPPINGS", "city:city.example.com")
	t.Setenv("SOURCE_SITEMAPS", "https://www.example.com/sitemap.xml,https://city.example.com")
	t.Setenv("PROTECTED_PATHS", "/,venues/")
	t.Setenv("PROTECTED_PATTERNS", "venues/featured")
	t.Setenv("CACHE_TTL", "30m")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "www.example.com", cfg.CanonicalDomain)
	assert.Equal(t, "example.com", cfg.BareDomain)
	assert.Len(t, cfg.Mappings, 1)
	assert.Len(t, cfg.SourceSitemaps, 2)
	assert.Equal(t, []string{"/", "/venues"}, cfg.ProtectedPaths)
	assert.Equal(t, []string{"/venues/featured"}, cfg.ProtectedPatterns)
	assert.Equal(t, 30*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout)
	assert.Equal(t, ":8080", cfg.ListenAddr)
}

func TestLoadConfig_ProtectedPathsDefaultToRoot(t *testing.T) {
	t.Setenv("CANONICAL_DOMAIN", "example.com")
	t.Setenv("DOMAIN_MAPPINGS", "city:city.example.com")
	t.Setenv("SOURCE_SITEMAPS", "https://example.com/sitemap.xml")
	t.Setenv("PROTECTED_PATHS", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"/"}, cfg.ProtectedPaths)
	assert.Equal(t, "example.com", cfg.BareDomain)
}

func TestLoadConfig_MissingRequiredValues(t *testing.T) {
	tests := []struct {
		name  string
		unset string
	}{
		{name: "canonical domain required", unset: "CANONICAL_DOMAIN"},
		{name: "mappings required", unset: "DOMAIN_MAPPINGS"},
		{name: "sources required", unset: "SOURCE_SITEMAPS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CANONICAL_DOMAIN", "example.com")
			t.Setenv("DOMAIN_MAPPINGS", "city:city.example.com")
			t.Setenv("SOURCE_SITEMAPS", "https://example.com/sitemap.xml")
			t.Setenv(tt.unset, "")

			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
