package main

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// NoValidEntriesError means no entry survived domain validation: every source
// failed or produced only off-domain locations. It is fatal to the whole
// merge; an empty sitemap must never be published silently.
type NoValidEntriesError struct {
	Dropped int
}

// Error implements the error interface for NoValidEntriesError.
func (e *NoValidEntriesError) Error() string {
	return fmt.Sprintf("no valid entries survived domain validation (%d dropped)", e.Dropped)
}

// DomainValidator drops entries that escaped the canonical domain and
// completes the protected-path set. Completion is a safety net: upstream
// sources are independently authored and may omit paths the merge contract
// requires in both forms.
type DomainValidator struct {
	CanonicalDomain string
	Mappings        []DomainMapping
	ProtectedPaths  []string
	Logger          Logger
}

// Finalize partitions entries into canonical-domain survivors and dropped
// strays. It fails with NoValidEntriesError when nothing survives.
func (v *DomainValidator) Finalize(entries []SitemapEntry) ([]SitemapEntry, []SitemapEntry, error) {
	valid := make([]SitemapEntry, 0, len(entries))
	var invalid []SitemapEntry
	for _, e := range entries {
		u, err := url.Parse(e.Loc)
		if err != nil || !strings.EqualFold(u.Hostname(), v.CanonicalDomain) {
			v.Logger.Warn("dropping entry off the canonical domain: %s", e.Loc)
			invalid = append(invalid, e)
			continue
		}
		valid = append(valid, e)
	}

	if len(valid) == 0 {
		return nil, invalid, &NoValidEntriesError{Dropped: len(invalid)}
	}
	return valid, invalid, nil
}

// EnsureProtectedPaths re-inserts protected paths that are unexpectedly
// missing. A missing canonical form goes to the front of the list; a missing
// prefixed sibling goes immediately after its canonical anchor, or at the end
// when no anchor exists. A path that is itself a mapping's prefix root gets no
// sibling under that mapping.
func (v *DomainValidator) EnsureProtectedPaths(entries []SitemapEntry) []SitemapEntry {
	out := entries
	for _, p := range v.ProtectedPaths {
		if _, found := indexOfPath(out, p); !found {
			v.Logger.Warn("protected path %s missing from merged entries, completing it", p)
			out = slices.Insert(out, 0, v.syntheticEntry(p))
		}

		for _, m := range v.Mappings {
			if p == m.PrefixRoot() {
				continue
			}
			sibling := prefixedPath(p, m.PathPrefix)
			if _, found := indexOfPath(out, sibling); found {
				continue
			}
			v.Logger.Warn("protected path %s missing its prefixed form %s, completing it", p, sibling)
			if anchor, found := indexOfPath(out, p); found {
				out = slices.Insert(out, anchor+1, v.syntheticEntry(sibling))
			} else {
				out = append(out, v.syntheticEntry(sibling))
			}
		}
	}
	return out
}

func (v *DomainValidator) syntheticEntry(p string) SitemapEntry {
	if p == "/" {
		return SitemapEntry{Loc: "https://" + v.CanonicalDomain + "/"}
	}
	return SitemapEntry{Loc: "https://" + v.CanonicalDomain + p}
}

// indexOfPath finds the first entry whose normalized path equals p.
func indexOfPath(entries []SitemapEntry, p string) (int, bool) {
	for i, e := range entries {
		if entryPath, ok := pathOf(e.Loc); ok && entryPath == p {
			return i, true
		}
	}
	return 0, false
}
