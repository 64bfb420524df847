package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/lo"
)

// DomainMapping nests one source subdomain's path space under a path prefix
// on the canonical domain, e.g. city.example.com/* -> example.com/city/*.
type DomainMapping struct {
	PathPrefix string // single path segment, no slashes
	Subdomain  string // full source host, e.g. "city.example.com"
}

// PrefixRoot is the canonical-domain path the mapping's site root lands on.
func (m DomainMapping) PrefixRoot() string {
	return "/" + m.PathPrefix
}

// Config is the full runtime configuration, read from the environment.
type Config struct {
	CanonicalDomain   string
	BareDomain        string
	Mappings          []DomainMapping
	SourceSitemaps    []string
	ProtectedPaths    []string
	ProtectedPatterns []string
	WebhookSecret     string
	CacheTTL          time.Duration
	FetchTimeout      time.Duration
	MergeTimeout      time.Duration
	ListenAddr        string
}

// LoadConfig reads configuration from the environment, loading a .env file
// first when one is present.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	canonical := strings.ToLower(strings.TrimSpace(os.Getenv("CANONICAL_DOMAIN")))
	if canonical == "" {
		return nil, errors.New("CANONICAL_DOMAIN is required")
	}

	mappings, err := ParseDomainMappings(os.Getenv("DOMAIN_MAPPINGS"))
	if err != nil {
		return nil, err
	}
	if len(mappings) == 0 {
		return nil, errors.New("DOMAIN_MAPPINGS is required, e.g. \"city:city.example.com\"")
	}

	sources := splitAndTrim(os.Getenv("SOURCE_SITEMAPS"))
	if len(sources) == 0 {
		return nil, errors.New("SOURCE_SITEMAPS is required, comma-separated sitemap or site-root URLs")
	}

	protected := lo.Map(splitAndTrim(os.Getenv("PROTECTED_PATHS")), func(p string, _ int) string {
		if !strings.HasPrefix(p, "/") {
			p = "/" + p
		}
		return normalizePath(p)
	})
	if len(protected) == 0 {
		protected = []string{"/"}
	}

	patterns := lo.Map(splitAndTrim(os.Getenv("PROTECTED_PATTERNS")), func(p string, _ int) string {
		if !strings.HasPrefix(p, "/") {
			p = "/" + p
		}
		return p
	})

	cfg := &Config{
		CanonicalDomain:   canonical,
		BareDomain:        strings.TrimPrefix(canonical, "www."),
		Mappings:          mappings,
		SourceSitemaps:    sources,
		ProtectedPaths:    protected,
		ProtectedPatterns: patterns,
		WebhookSecret:     os.Getenv("WEBHOOK_SECRET"),
		CacheTTL:          durationEnv("CACHE_TTL", time.Hour),
		FetchTimeout:      durationEnv("FETCH_TIMEOUT", 10*time.Second),
		MergeTimeout:      durationEnv("MERGE_TIMEOUT", time.Minute),
		ListenAddr:        stringEnv("LISTEN_ADDR", ":8080"),
	}
	return cfg, nil
}

// ParseDomainMappings parses the delimited mapping string: comma-separated
// pairs, each pair "pathPrefix:sourceSubdomain". Pair order is preserved.
func ParseDomainMappings(raw string) ([]DomainMapping, error) {
	var mappings []DomainMapping
	for _, pair := range splitAndTrim(raw) {
		prefix, subdomain, found := strings.Cut(pair, ":")
		prefix = strings.Trim(strings.TrimSpace(prefix), "/")
		subdomain = strings.ToLower(strings.TrimSpace(subdomain))
		if !found || prefix == "" || subdomain == "" {
			return nil, fmt.Errorf("malformed domain mapping %q, want \"prefix:subdomain\"", pair)
		}
		if strings.Contains(prefix, "/") {
			return nil, fmt.Errorf("mapping prefix %q must be a single path segment", prefix)
		}
		mappings = append(mappings, DomainMapping{PathPrefix: prefix, Subdomain: subdomain})
	}
	return mappings, nil
}

func stringEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
