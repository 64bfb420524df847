package main

import (
	"strings"

	"github.com/samber/lo"
)

// RemovedEntry records one entry dropped by deduplication and the prefixed
// sibling that made it redundant.
type RemovedEntry struct {
	Removed SitemapEntry
	KeptFor string
}

// Deduplicator removes canonical-space entries that are redundant with an
// equivalent transformed (prefixed) entry, honouring the protected-path
// allowlist. Literal duplicates on the same path are left alone here; the
// builder collapses those.
type Deduplicator struct {
	Mappings          []DomainMapping
	ProtectedPaths    []string
	ProtectedPatterns []string
	Logger            Logger
}

// Deduplicate runs a single deterministic pass over already-transformed
// entries and returns the survivors plus the removed pairs.
func (d *Deduplicator) Deduplicate(entries []SitemapEntry) ([]SitemapEntry, []RemovedEntry) {
	stripped := d.buildStrippedSets(entries)

	kept := make([]SitemapEntry, 0, len(entries))
	var removed []RemovedEntry
	for _, e := range entries {
		p, ok := pathOf(e.Loc)
		if !ok {
			// Not this stage's problem; the domain validator drops it.
			kept = append(kept, e)
			continue
		}

		if p == "/" || d.isProtected(p) || d.matchesProtectedPattern(p) || d.onPrefixedSpace(p) {
			kept = append(kept, e)
			continue
		}

		if sibling, found := d.lookupSibling(stripped, p); found {
			d.Logger.Debug("removing %s, redundant with prefixed sibling %s", e.Loc, sibling)
			removed = append(removed, RemovedEntry{Removed: e, KeptFor: sibling})
			continue
		}

		kept = append(kept, e)
	}
	return kept, removed
}

// buildStrippedSets collects, per mapping, the prefix-stripped paths present
// among prefixed entries, keyed to the prefixed Loc that contributed them.
// Stripped paths equal to a protected path are excluded: a protected path's
// prefixed sibling is never a dedup source of truth.
func (d *Deduplicator) buildStrippedSets(entries []SitemapEntry) []map[string]string {
	sets := make([]map[string]string, len(d.Mappings))
	for i, m := range d.Mappings {
		sets[i] = make(map[string]string)
		root := m.PrefixRoot()
		for _, e := range entries {
			p, ok := pathOf(e.Loc)
			if !ok {
				continue
			}
			var strippedPath string
			switch {
			case p == root:
				strippedPath = "/"
			case strings.HasPrefix(p, root+"/"):
				strippedPath = strings.TrimPrefix(p, root)
			default:
				continue
			}
			if d.isProtected(strippedPath) {
				continue
			}
			if _, exists := sets[i][strippedPath]; !exists {
				sets[i][strippedPath] = e.Loc
			}
		}
	}
	return sets
}

func (d *Deduplicator) lookupSibling(sets []map[string]string, p string) (string, bool) {
	for _, set := range sets {
		if loc, ok := set[p]; ok {
			return loc, true
		}
	}
	return "", false
}

func (d *Deduplicator) isProtected(p string) bool {
	return lo.Contains(d.ProtectedPaths, p)
}

func (d *Deduplicator) matchesProtectedPattern(p string) bool {
	return lo.SomeBy(d.ProtectedPatterns, func(pattern string) bool {
		return strings.HasPrefix(p, pattern)
	})
}

// onPrefixedSpace reports whether p already lives under a mapping's prefix;
// prefixed entries are always kept.
func (d *Deduplicator) onPrefixedSpace(p string) bool {
	return lo.SomeBy(d.Mappings, func(m DomainMapping) bool {
		root := m.PrefixRoot()
		return p == root || strings.HasPrefix(p, root+"/")
	})
}
