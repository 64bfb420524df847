package main

import (
	"context"
	"io"
	"net/http"
	"regexp"
	"strconv"
)

const webhookSignatureHeader = "X-Webhook-Signature"

// maxWebhookBodyBytes bounds webhook request bodies; publish notifications
// are small JSON documents.
const maxWebhookBodyBytes = 1 << 20

// SitemapServer exposes the merged sitemap and the publish webhook over HTTP.
type SitemapServer struct {
	Merger        *SitemapMerger
	Cache         *SitemapCache
	WebhookSecret string
	Logger        Logger
}

// chunkDocPattern matches the paginated document names the overflow index
// refers to, e.g. sitemap-2.xml.
var chunkDocPattern = regexp.MustCompile(`^sitemap-([0-9]+)\.xml$`)

// Routes returns the request mux for the service.
func (s *SitemapServer) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /sitemap.xml", s.handleSitemap)
	mux.HandleFunc("GET /{doc}", s.handleSitemapChunk)
	mux.HandleFunc("POST /webhooks/publish", s.handleWebhook)
	return mux
}

// regenerate runs one merge with its own context: regeneration may be shared
// between requests, so it must not inherit a single request's cancellation.
func (s *SitemapServer) regenerate() (*MergeResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.Merger.Config.MergeTimeout)
	defer cancel()
	return s.Merger.Merge(ctx)
}

func (s *SitemapServer) handleSitemap(w http.ResponseWriter, r *http.Request) {
	result, err := s.Cache.Get(s.regenerate)
	if err != nil {
		s.Logger.Error("sitemap merge failed: %v", err)
		http.Error(w, "sitemap temporarily unavailable", http.StatusServiceUnavailable)
		return
	}
	writeXML(w, result.XML)
}

// handleSitemapChunk serves paginated chunk n when the last build overflowed
// one document.
func (s *SitemapServer) handleSitemapChunk(w http.ResponseWriter, r *http.Request) {
	match := chunkDocPattern.FindStringSubmatch(r.PathValue("doc"))
	if match == nil {
		http.NotFound(w, r)
		return
	}
	n, err := strconv.Atoi(match[1])
	if err != nil || n < 1 {
		http.NotFound(w, r)
		return
	}

	result, getErr := s.Cache.Get(s.regenerate)
	if getErr != nil {
		s.Logger.Error("sitemap merge failed: %v", getErr)
		http.Error(w, "sitemap temporarily unavailable", http.StatusServiceUnavailable)
		return
	}
	if n > len(result.Chunks) {
		http.NotFound(w, r)
		return
	}
	writeXML(w, result.Chunks[n-1])
}

func (s *SitemapServer) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes))
	if err != nil {
		http.Error(w, "unreadable body", http.StatusBadRequest)
		return
	}

	if !VerifyWebhookSignature(s.WebhookSecret, body, r.Header.Get(webhookSignatureHeader)) {
		s.Logger.Warn("webhook rejected: bad or missing signature")
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	event, err := DecodeWebhookEvent(body)
	if err != nil {
		s.Logger.Warn("webhook rejected: %v", err)
		http.Error(w, "unrecognized payload", http.StatusBadRequest)
		return
	}

	if event.ShouldInvalidate() {
		s.Logger.Info("publish event %q received, invalidating sitemap", event.Trigger)
		s.Cache.Invalidate()
	} else {
		s.Logger.Debug("ignoring webhook trigger %q", event.Trigger)
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeXML(w http.ResponseWriter, doc string) {
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, doc)
}
