package main

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{name: "trailing slash stripped", path: "/venues/", expected: "/venues"},
		{name: "multiple trailing slashes stripped", path: "/venues///", expected: "/venues"},
		{name: "root is a fixed point", path: "/", expected: "/"},
		{name: "empty path maps to root", path: "", expected: "/"},
		{name: "no trailing slash unchanged", path: "/venues/fleet", expected: "/venues/fleet"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalizePath(tt.path))
		})
	}
}

func TestNormalizePath_Idempotent(t *testing.T) {
	t.Parallel()
	for _, p := range []string{"/", "", "/venues/", "/venues///", "/a/b/c"} {
		once := normalizePath(p)
		assert.Equal(t, once, normalizePath(once))
	}
}

func TestPathOf(t *testing.T) {
	t.Parallel()

	p, ok := pathOf("https://example.com/venues/")
	require.True(t, ok)
	assert.Equal(t, "/venues", p)

	p, ok = pathOf("https://example.com")
	require.True(t, ok)
	assert.Equal(t, "/", p)

	_, ok = pathOf("not a url at all\x7f://")
	assert.False(t, ok)

	_, ok = pathOf("/relative/only")
	assert.False(t, ok)
}

func TestPrefixedPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{name: "root maps to bare prefix root", path: "/", expected: "/city"},
		{name: "empty maps to bare prefix root", path: "", expected: "/city"},
		{name: "nested path prefixed", path: "/fleet", expected: "/city/fleet"},
		{name: "missing leading slash repaired", path: "fleet", expected: "/city/fleet"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, prefixedPath(tt.path, "city"))
		})
	}
}

func TestResolveSitemapRef(t *testing.T) {
	t.Parallel()
	base, _ := url.Parse("https://example.com/sitemaps/index.xml")

	tests := []struct {
		name     string
		ref      string
		expected string
	}{
		{
			name:     "absolute reference preserved",
			ref:      "https://example.com/sitemap-pages.xml",
			expected: "https://example.com/sitemap-pages.xml",
		},
		{
			name:     "relative reference resolved against the index",
			ref:      "sitemap-posts.xml",
			expected: "https://example.com/sitemaps/sitemap-posts.xml",
		},
		{
			name:     "fragment stripped and slashes collapsed",
			ref:      "https://example.com//sitemaps//posts.xml#frag",
			expected: "https://example.com/sitemaps/posts.xml",
		},
		{
			name:     "surrounding whitespace trimmed",
			ref:      "  https://example.com/s.xml  ",
			expected: "https://example.com/s.xml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved, err := resolveSitemapRef(base, tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, resolved.String())
		})
	}
}

func TestSplitAndTrim(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"a", "b"}, splitAndTrim(" a , b ,, "))
	assert.Nil(t, splitAndTrim(""))
}
