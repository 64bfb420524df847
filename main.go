package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

func main() {
	logger := &StdoutLogger{}
	if err := newRootCommand(logger).Execute(); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

func newRootCommand(logger Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "sitemap-merger",
		Short:         "Merges subdomain sitemaps into one canonical-domain sitemap",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCommand(logger), newGenerateCommand(logger))
	return root
}

func newServeCommand(logger Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the merged sitemap over HTTP with webhook-driven invalidation",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig()
			if err != nil {
				return err
			}
			if cfg.WebhookSecret == "" {
				return errors.New("WEBHOOK_SECRET is required to serve the publish webhook")
			}

			server := &SitemapServer{
				Merger:        NewSitemapMerger(cfg, logger),
				Cache:         &SitemapCache{TTL: cfg.CacheTTL, Logger: logger},
				WebhookSecret: cfg.WebhookSecret,
				Logger:        logger,
			}
			logger.Info("serving merged sitemap for %s on %s", cfg.CanonicalDomain, cfg.ListenAddr)
			return http.ListenAndServe(cfg.ListenAddr, server.Routes())
		},
	}
}

func newGenerateCommand(logger Logger) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Run one merge and print or write the sitemap document",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig()
			if err != nil {
				return err
			}

			merger := NewSitemapMerger(cfg, logger)
			result, err := merger.Merge(cmd.Context())
			if err != nil {
				return err
			}
			logger.Info("merged %d entries", result.EntryCount)

			if outPath == "" {
				fmt.Print(result.XML)
				return nil
			}
			if err := os.WriteFile(outPath, []byte(result.XML), 0o644); err != nil {
				return err
			}
			// Overflow chunks land beside the index document under the names
			// the index refers to.
			dir := filepath.Dir(outPath)
			for i, chunk := range result.Chunks {
				name := filepath.Join(dir, fmt.Sprintf("sitemap-%d.xml", i+1))
				if err := os.WriteFile(name, []byte(chunk), 0o644); err != nil {
					return err
				}
			}
			logger.Info("wrote %s", strings.TrimPrefix(outPath, "./"))
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write the document to a file instead of stdout")
	return cmd
}
