package main

import (
	"net/url"
	"path"
	"strings"
)

// normalizePath strips trailing slashes so that "/venues" and "/venues/" share
// one identity. The root path is a fixed point and an empty path maps to root.
func normalizePath(p string) string {
	trimmed := strings.TrimRight(p, "/")
	if trimmed == "" {
		return "/"
	}
	return trimmed
}

// pathOf returns the normalized path of an absolute URL string. The second
// return is false when loc is not a parseable absolute URL.
func pathOf(loc string) (string, bool) {
	u, err := url.Parse(loc)
	if err != nil || !u.IsAbs() {
		return "", false
	}
	return normalizePath(u.Path), true
}

// prefixedPath nests p under a mapping's path prefix. The root path maps to
// the bare prefix root ("/city", never "/city/").
func prefixedPath(p, prefix string) string {
	if p == "" || p == "/" {
		return "/" + prefix
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return "/" + prefix + p
}

// resolveSitemapRef resolves a sitemap reference against the document it was
// found in, strips any fragment, and collapses duplicate slashes and dot
// segments in the path.
func resolveSitemapRef(base *url.URL, ref string) (*url.URL, error) {
	parsed, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return nil, err
	}

	resolved := parsed
	if !parsed.IsAbs() && base != nil {
		resolved = base.ResolveReference(parsed)
	}

	resolved.Fragment = ""
	if resolved.Path != "" {
		collapsed := strings.ReplaceAll(resolved.Path, "//", "/")
		resolved.Path = path.Clean(collapsed)
	}

	return resolved, nil
}

// splitAndTrim splits a comma-delimited config value, dropping empty items.
func splitAndTrim(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
