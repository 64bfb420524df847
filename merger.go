package main

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
)

// MergeResult carries one merge run's serialized output. Chunks is populated
// only when the entry count overflowed a single document, in which case XML
// is the index document referring to them.
type MergeResult struct {
	XML         string
	Chunks      []string
	EntryCount  int
	GeneratedAt time.Time
}

// SitemapMerger runs the whole merge: concurrent source fetches, URL
// transformation, prefix deduplication, domain validation with protected-path
// completion, and serialization. The pipeline after the fetches is sequential
// and pure given its inputs.
type SitemapMerger struct {
	Config      *Config
	Fetch       func(ctx context.Context, docURL *url.URL) (string, error)
	Parser      *SitemapParser
	Transformer *URLTransformer
	Dedup       *Deduplicator
	Validator   *DomainValidator
	Builder     *SitemapBuilder
	Discoverer  *SitemapDiscoverer
	Logger      Logger
}

// NewSitemapMerger wires the pipeline stages for the given configuration.
func NewSitemapMerger(cfg *Config, logger Logger) *SitemapMerger {
	return &SitemapMerger{
		Config: cfg,
		Fetch:  FetchDocument,
		Parser: &SitemapParser{
			Decoder:        StructuralDecoder{},
			Fallback:       RegexDecoder{},
			Fetch:          FetchDocument,
			Logger:         logger,
			FetchTimeout:   cfg.FetchTimeout,
			WorkerPoolSize: 4,
		},
		Transformer: &URLTransformer{
			CanonicalDomain: cfg.CanonicalDomain,
			BareDomain:      cfg.BareDomain,
			Mappings:        cfg.Mappings,
		},
		Dedup: &Deduplicator{
			Mappings:          cfg.Mappings,
			ProtectedPaths:    cfg.ProtectedPaths,
			ProtectedPatterns: cfg.ProtectedPatterns,
			Logger:            logger,
		},
		Validator: &DomainValidator{
			CanonicalDomain: cfg.CanonicalDomain,
			Mappings:        cfg.Mappings,
			ProtectedPaths:  cfg.ProtectedPaths,
			Logger:          logger,
		},
		Builder: &SitemapBuilder{
			CanonicalDomain: cfg.CanonicalDomain,
			Logger:          logger,
		},
		Discoverer: &SitemapDiscoverer{
			Fetch:        FetchDocument,
			Logger:       logger,
			FetchTimeout: cfg.FetchTimeout,
		},
		Logger: logger,
	}
}

// Merge fetches every configured source concurrently (each failure-isolated),
// then runs the sequential pipeline over the concatenated entries.
func (m *SitemapMerger) Merge(ctx context.Context) (*MergeResult, error) {
	perSource := make([][]SitemapEntry, len(m.Config.SourceSitemaps))
	wg := &sync.WaitGroup{}
	for i, src := range m.Config.SourceSitemaps {
		wg.Add(1)
		go func() {
			defer wg.Done()
			perSource[i] = m.collectSource(ctx, src)
		}()
	}
	wg.Wait()

	raw := lo.Flatten(perSource)
	m.Logger.Info("collected %d raw entries from %d sources", len(raw), len(m.Config.SourceSitemaps))

	transformed := m.transformAll(raw)

	kept, removed := m.Dedup.Deduplicate(transformed)
	if len(removed) > 0 {
		m.Logger.Info("removed %d canonical entries redundant with prefixed siblings", len(removed))
	}

	valid, _, err := m.Validator.Finalize(kept)
	if err != nil {
		return nil, err
	}
	completed := m.Validator.EnsureProtectedPaths(valid)

	doc, chunks := m.Builder.Build(completed)
	return &MergeResult{
		XML:         doc,
		Chunks:      chunks,
		EntryCount:  len(completed),
		GeneratedAt: time.Now(),
	}, nil
}

// collectSource fetches and parses one source. Any failure is logged and
// degrades to zero entries; the merge proceeds with the other sources.
func (m *SitemapMerger) collectSource(ctx context.Context, src string) []SitemapEntry {
	srcURL, err := url.Parse(src)
	if err != nil {
		m.Logger.Error("source %q is not a valid URL, merging without it: %v", src, err)
		return nil
	}

	// A source configured by site root gets its sitemap URL from robots.txt.
	if srcURL.Path == "" || srcURL.Path == "/" {
		srcURL = m.Discoverer.DiscoverSitemapURL(ctx, srcURL)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, m.Config.FetchTimeout)
	defer cancel()
	body, err := m.Fetch(fetchCtx, srcURL)
	if err != nil {
		m.Logger.Warn("source %s unavailable, merging without it: %v", srcURL.String(), err)
		return nil
	}

	entries, err := m.Parser.Parse(ctx, body, srcURL.String())
	if err != nil {
		m.Logger.Warn("source %s produced no parseable sitemap, merging without it: %v", srcURL.String(), err)
		return nil
	}

	if m.isCanonicalSource(srcURL) {
		// Tag so transformAll can recover unknown-host URLs published by the
		// canonical site's own sitemap.
		entries = lo.Map(entries, func(e SitemapEntry, _ int) SitemapEntry {
			e.fromCanonicalSource = true
			return e
		})
	}

	m.Logger.Debug("source %s contributed %d entries", srcURL.String(), len(entries))
	return entries
}

func (m *SitemapMerger) isCanonicalSource(srcURL *url.URL) bool {
	host := strings.ToLower(srcURL.Hostname())
	return host == m.Config.CanonicalDomain || host == m.Config.BareDomain
}

// transformAll rewrites every entry into the canonical URL space. An entry
// failing the domain invariant is discarded with an error log; the failure is
// never coerced into output.
func (m *SitemapMerger) transformAll(entries []SitemapEntry) []SitemapEntry {
	out := make([]SitemapEntry, 0, len(entries))
	for _, e := range entries {
		class, mapping := m.Transformer.ClassifySource(e.Loc)
		if class == SourceUnknown && e.fromCanonicalSource {
			class = SourceCanonical
		}

		loc, err := m.Transformer.Transform(e.Loc, class, mapping)
		if err != nil {
			m.Logger.Error("entry %s failed domain validation and was discarded: %v", e.Loc, err)
			continue
		}
		e.Loc = loc
		out = append(out, e)
	}
	return out
}
