package main

import (
	"encoding/xml"
	"fmt"
	"sort"

	"github.com/samber/lo"
)

// maxEntriesPerDocument is the sitemaps.org protocol limit per document.
const maxEntriesPerDocument = 50000

const sitemapNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// SitemapBuilder collapses literal duplicates, sorts entries
// deterministically, and serializes them to sitemaps.org XML. Entry counts
// over the protocol limit produce an index document plus paginated chunks.
type SitemapBuilder struct {
	CanonicalDomain string
	Logger          Logger
}

// Build returns the primary document and, when the entry count overflowed one
// document, the ordered chunk documents the primary index refers to as
// sitemap-{n}.xml.
func (b *SitemapBuilder) Build(entries []SitemapEntry) (string, []string) {
	unique := b.collapseDuplicates(entries)
	sort.Slice(unique, func(i, j int) bool {
		return unique[i].Loc < unique[j].Loc
	})

	if len(unique) <= maxEntriesPerDocument {
		return b.serializeURLSet(unique), nil
	}

	chunks := lo.Chunk(unique, maxEntriesPerDocument)
	b.Logger.Info("entry count %d exceeds the protocol limit, splitting into %d sitemaps", len(unique), len(chunks))

	docs := lo.Map(chunks, func(chunk []SitemapEntry, _ int) string {
		return b.serializeURLSet(chunk)
	})
	refs := lo.Map(chunks, func(_ []SitemapEntry, i int) sitemapRefXML {
		return sitemapRefXML{Loc: fmt.Sprintf("https://%s/sitemap-%d.xml", b.CanonicalDomain, i+1)}
	})
	return b.serializeIndex(refs), docs
}

// collapseDuplicates keeps the first occurrence per normalized path,
// preserving input order. First-seen-wins is the recorded product decision
// for literal duplicates.
func (b *SitemapBuilder) collapseDuplicates(entries []SitemapEntry) []SitemapEntry {
	seen := make(map[string]struct{}, len(entries))
	out := make([]SitemapEntry, 0, len(entries))
	for _, e := range entries {
		key := e.Loc
		if p, ok := pathOf(e.Loc); ok {
			key = p
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, e)
	}
	return out
}

// serializeURLSet marshals entries as a <urlset> document. encoding/xml
// escapes the five XML metacharacters in every text node.
func (b *SitemapBuilder) serializeURLSet(entries []SitemapEntry) string {
	doc := urlsetXML{Xmlns: sitemapNamespace, URLs: entries}
	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		// Marshalling string-only structs cannot realistically fail.
		b.Logger.Error("failed to serialize urlset: %v", err)
		return xml.Header + `<urlset xmlns="` + sitemapNamespace + `"></urlset>` + "\n"
	}
	return xml.Header + string(out) + "\n"
}

// serializeIndex marshals references as a <sitemapindex> document.
func (b *SitemapBuilder) serializeIndex(refs []sitemapRefXML) string {
	doc := sitemapIndexXML{Xmlns: sitemapNamespace, Sitemaps: refs}
	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		b.Logger.Error("failed to serialize sitemap index: %v", err)
		return xml.Header + `<sitemapindex xmlns="` + sitemapNamespace + `"></sitemapindex>` + "\n"
	}
	return xml.Header + string(out) + "\n"
}
