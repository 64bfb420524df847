package main

import (
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/samber/lo"
)

type PageReturn struct {
	Body              string
	URL               string
	StatusCode        int
	DelayMilliseconds time.Duration
}

func startTestServerPages(pages []PageReturn) *httptest.Server {
	handler := http.NewServeMux()

	lo.ForEach(pages, func(page PageReturn, _ int) {
		handler.HandleFunc(page.URL, func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(page.DelayMilliseconds * time.Millisecond)
			w.WriteHeader(page.StatusCode)
			w.Write([]byte(page.Body))
		})
	})
	handler.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	return httptest.NewServer(handler)
}

func urlsetDoc(locs ...string) string {
	doc := `<?xml version="1.0" encoding="UTF-8"?><urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`
	for _, loc := range locs {
		doc += "<url><loc>" + loc + "</loc></url>"
	}
	return doc + "</urlset>"
}

func indexDoc(locs ...string) string {
	doc := `<?xml version="1.0" encoding="UTF-8"?><sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`
	for _, loc := range locs {
		doc += "<sitemap><loc>" + loc + "</loc></sitemap>"
	}
	return doc + "</sitemapindex>"
}
