package main

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"golang.org/x/net/html/charset"
)

// SitemapEntry is one <url> block from a urlset document. Loc is required and
// absolute; the remaining fields are carried through verbatim when present.
type SitemapEntry struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`

	// fromCanonicalSource marks entries published by the canonical site's own
	// sitemap, enabling recovery of misclassified canonical URLs. Unexported,
	// so it never reaches serialized output.
	fromCanonicalSource bool
}

type urlsetXML struct {
	XMLName xml.Name       `xml:"urlset"`
	Xmlns   string         `xml:"xmlns,attr"`
	URLs    []SitemapEntry `xml:"url"`
}

type sitemapRefXML struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

type sitemapIndexXML struct {
	XMLName  xml.Name        `xml:"sitemapindex"`
	Xmlns    string          `xml:"xmlns,attr"`
	Sitemaps []sitemapRefXML `xml:"sitemap"`
}

// sitemapDocument is the decoded shape of one sitemap file: either a urlset's
// entries or an index's references to further sitemaps.
type sitemapDocument struct {
	Entries     []SitemapEntry
	SitemapRefs []string
	IsIndex     bool
}

// ParseError means a document held no exploitable sitemap content: well-formed
// XML whose root is neither <urlset> nor <sitemapindex>, or text the fallback
// decoder cannot recognize either.
type ParseError struct {
	Source string
	Reason string
}

// Error implements the error interface for ParseError.
func (e *ParseError) Error() string {
	if e.Source == "" {
		return "no exploitable sitemap content: " + e.Reason
	}
	return fmt.Sprintf("no exploitable sitemap content in %s: %s", e.Source, e.Reason)
}

// SitemapDecoder turns raw sitemap text into a sitemapDocument. Two
// implementations exist and are chosen once at startup: StructuralDecoder for
// well-formed XML and RegexDecoder as the permissive fallback.
type SitemapDecoder interface {
	Decode(xmlText string) (*sitemapDocument, error)
}

// StructuralDecoder decodes well-formed sitemap XML, honouring a declared
// document charset.
type StructuralDecoder struct{}

func (StructuralDecoder) Decode(xmlText string) (*sitemapDocument, error) {
	decoder := xml.NewDecoder(strings.NewReader(xmlText))
	decoder.CharsetReader = charset.NewReaderLabel

	for {
		tok, err := decoder.Token()
		if err != nil {
			return nil, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "urlset":
			var set urlsetXML
			if err := decoder.DecodeElement(&set, &start); err != nil {
				return nil, err
			}
			return &sitemapDocument{Entries: set.URLs}, nil
		case "sitemapindex":
			var idx sitemapIndexXML
			if err := decoder.DecodeElement(&idx, &start); err != nil {
				return nil, err
			}
			refs := lo.FilterMap(idx.Sitemaps, func(ref sitemapRefXML, _ int) (string, bool) {
				return strings.TrimSpace(ref.Loc), strings.TrimSpace(ref.Loc) != ""
			})
			return &sitemapDocument{SitemapRefs: refs, IsIndex: true}, nil
		default:
			return nil, &ParseError{Reason: fmt.Sprintf("unsupported root element <%s>", start.Name.Local)}
		}
	}
}

var (
	reURLBlock = regexp.MustCompile(`(?s)<url\b[^>]*>(.*?)</url>`)
	reLoc      = regexp.MustCompile(`(?s)<loc\b[^>]*>(.*?)</loc>`)
	reLastMod  = regexp.MustCompile(`(?s)<lastmod\b[^>]*>(.*?)</lastmod>`)
	reFreq     = regexp.MustCompile(`(?s)<changefreq\b[^>]*>(.*?)</changefreq>`)
	rePriority = regexp.MustCompile(`(?s)<priority\b[^>]*>(.*?)</priority>`)

	xmlUnescaper = strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&apos;", "'",
	)
)

// RegexDecoder recovers urlset entries from markup the XML decoder rejects.
// It cannot expand sitemap indexes; index documents come back empty-handed
// with IsIndex set so the caller can log the limitation.
type RegexDecoder struct{}

func (RegexDecoder) Decode(xmlText string) (*sitemapDocument, error) {
	if strings.Contains(xmlText, "<sitemapindex") {
		return &sitemapDocument{IsIndex: true}, nil
	}
	if !strings.Contains(xmlText, "<urlset") {
		return nil, &ParseError{Reason: "fallback decoder found no urlset markup"}
	}

	blocks := reURLBlock.FindAllStringSubmatch(xmlText, -1)
	entries := lo.FilterMap(blocks, func(block []string, _ int) (SitemapEntry, bool) {
		entry := SitemapEntry{
			Loc:        regexField(reLoc, block[1]),
			LastMod:    regexField(reLastMod, block[1]),
			ChangeFreq: regexField(reFreq, block[1]),
			Priority:   regexField(rePriority, block[1]),
		}
		return entry, entry.Loc != ""
	})
	return &sitemapDocument{Entries: entries}, nil
}

func regexField(re *regexp.Regexp, block string) string {
	match := re.FindStringSubmatch(block)
	if match == nil {
		return ""
	}
	return xmlUnescaper.Replace(strings.TrimSpace(match[1]))
}

// maxIndexDepth caps recursive sitemap-index expansion so reference cycles
// between index documents cannot recurse forever.
const maxIndexDepth = 3

// SitemapParser expands raw sitemap text into URL entries, fetching and
// recursing into sitemap-index references. One unreachable or unparseable
// referenced sitemap is logged and skipped without failing the others.
type SitemapParser struct {
	Decoder        SitemapDecoder
	Fallback       SitemapDecoder
	Fetch          func(ctx context.Context, docURL *url.URL) (string, error)
	Logger         Logger
	FetchTimeout   time.Duration
	WorkerPoolSize int
}

// Parse decodes xmlText fetched from sourceID and returns its entries,
// expanding index documents recursively.
func (p *SitemapParser) Parse(ctx context.Context, xmlText, sourceID string) ([]SitemapEntry, error) {
	return p.parse(ctx, xmlText, sourceID, 0)
}

func (p *SitemapParser) parse(ctx context.Context, xmlText, sourceID string, depth int) ([]SitemapEntry, error) {
	doc, err := p.Decoder.Decode(xmlText)
	if err != nil {
		var parseErr *ParseError
		if errors.As(err, &parseErr) {
			// Well-formed XML without sitemap content; the fallback cannot help.
			parseErr.Source = sourceID
			return nil, parseErr
		}

		p.Logger.Warn("structural decode of %s failed (%v), trying fallback decoder", sourceID, err)
		doc, err = p.Fallback.Decode(xmlText)
		if err != nil {
			if errors.As(err, &parseErr) {
				parseErr.Source = sourceID
			}
			return nil, err
		}
		if doc.IsIndex {
			p.Logger.Warn("fallback decoder cannot expand sitemap index %s, returning no entries", sourceID)
			return []SitemapEntry{}, nil
		}
	}

	if doc.IsIndex {
		return p.expandIndex(ctx, doc.SitemapRefs, sourceID, depth)
	}

	return lo.Filter(doc.Entries, func(e SitemapEntry, _ int) bool {
		return strings.TrimSpace(e.Loc) != ""
	}), nil
}

// expandIndex fetches every referenced sitemap through a bounded worker pool
// and concatenates their entries in reference order.
func (p *SitemapParser) expandIndex(ctx context.Context, refs []string, sourceID string, depth int) ([]SitemapEntry, error) {
	if depth >= maxIndexDepth {
		p.Logger.Warn("sitemap index %s nested deeper than %d levels, not expanding further", sourceID, maxIndexDepth)
		return []SitemapEntry{}, nil
	}

	base, err := url.Parse(sourceID)
	if err != nil {
		base = nil
	}

	workers := p.WorkerPoolSize
	if workers < 1 {
		workers = 1
	}

	results := make([][]SitemapEntry, len(refs))
	tasks := make(chan func(), len(refs))
	wg := &sync.WaitGroup{}
	for i := 0; i < workers; i++ {
		go func() {
			for task := range tasks {
				task()
			}
		}()
	}
	for i, ref := range refs {
		wg.Add(1)
		tasks <- func() {
			defer wg.Done()
			results[i] = p.fetchAndParseRef(ctx, base, ref, depth)
		}
	}
	close(tasks)
	wg.Wait()

	return lo.Flatten(results), nil
}

// fetchAndParseRef resolves one index reference and parses it, returning nil
// on any failure so its siblings still contribute.
func (p *SitemapParser) fetchAndParseRef(ctx context.Context, base *url.URL, ref string, depth int) []SitemapEntry {
	refURL, err := resolveSitemapRef(base, ref)
	if err != nil {
		p.Logger.Warn("skipping unresolvable sitemap reference %q: %v", ref, err)
		return nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, p.FetchTimeout)
	defer cancel()
	body, err := p.Fetch(fetchCtx, refURL)
	if err != nil {
		p.Logger.Warn("skipping unreachable sitemap %s: %v", refURL.String(), err)
		return nil
	}

	entries, err := p.parse(ctx, body, refURL.String(), depth+1)
	if err != nil {
		p.Logger.Warn("skipping unparseable sitemap %s: %v", refURL.String(), err)
		return nil
	}
	return entries
}
