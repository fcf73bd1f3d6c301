// Command showgate: catalog relay + transport proxy for Xtream-style IPTV
// providers.
//
//	serve  Run the relay server (catalog endpoint, transport proxy, health, metrics)
//	fetch  One-shot combined catalog fetch (direct variant), save normalized JSON
//	probe  Run the account-status diagnostic against the configured provider
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/showgate/showgate/internal/catalog"
	"github.com/showgate/showgate/internal/config"
	"github.com/showgate/showgate/internal/health"
	"github.com/showgate/showgate/internal/relay"
	"github.com/showgate/showgate/internal/source"
	"github.com/showgate/showgate/internal/store"
	"github.com/showgate/showgate/internal/xtream"
)

func main() {
	_ = config.LoadEnvFile(".env")
	log.SetFlags(log.LstdFlags)
	log.SetPrefix("[showgate] ")

	serveCmd := flag.NewFlagSet("serve", flag.ExitOnError)
	serveAddr := serveCmd.String("addr", "", "Listen address (default: SHOWGATE_ADDR)")
	serveSkipHealth := serveCmd.Bool("skip-health", false, "Skip provider health check at startup")

	fetchCmd := flag.NewFlagSet("fetch", flag.ExitOnError)
	fetchCatalog := fetchCmd.String("catalog", "", "Catalog JSON path (default: SHOWGATE_CATALOG)")
	fetchPage := fetchCmd.Int("page", 1, "Page to fetch")
	fetchSize := fetchCmd.Int("size", 0, "Page size (default: SHOWGATE_PAGE_SIZE)")

	probeCmd := flag.NewFlagSet("probe", flag.ExitOnError)
	probeTimeout := probeCmd.Duration("timeout", 30*time.Second, "Timeout for the diagnostic call")

	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <serve|fetch|probe> [flags]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  serve  Run catalog relay + transport proxy\n")
		fmt.Fprintf(os.Stderr, "  fetch  One-shot combined catalog fetch, save JSON\n")
		fmt.Fprintf(os.Stderr, "  probe  Check provider account status\n")
		os.Exit(1)
	}

	cfg := config.Load()

	switch os.Args[1] {
	case "serve":
		_ = serveCmd.Parse(os.Args[2:])
		addr := cfg.Addr
		if *serveAddr != "" {
			addr = *serveAddr
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// Startup provider check is best-effort information: the relay
		// serves per-request credentials, so a dead default provider
		// must not stop it from coming up.
		if !*serveSkipHealth {
			if creds, err := resolveCredentials(cfg); err == nil && creds.Complete() {
				checkCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
				if err := health.CheckProvider(checkCtx, creds); err != nil {
					log.Printf("Provider check failed: %v", err)
				} else {
					log.Print("Provider OK")
				}
				cancel()
			}
		}

		srv := relay.New(addr, cfg.PageSize, xtream.NewClientWithTimeout(cfg.RequestTimeout))
		if err := srv.Run(ctx); err != nil {
			log.Printf("Serve failed: %v", err)
			os.Exit(1)
		}

	case "fetch":
		_ = fetchCmd.Parse(os.Args[2:])
		path := *fetchCatalog
		if path == "" {
			path = cfg.CatalogPath
		}
		size := *fetchSize
		if size <= 0 {
			size = cfg.PageSize
		}
		creds, err := resolveCredentials(cfg)
		if err != nil {
			log.Printf("Resolve credentials: %v", err)
			os.Exit(1)
		}
		direct := &source.Direct{Client: xtream.NewClientWithTimeout(cfg.RequestTimeout), Creds: creds}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		res, err := direct.Combined(ctx, *fetchPage, size)
		if err != nil {
			log.Printf("Fetch failed: %v", err)
			os.Exit(1)
		}
		cats := make([]catalog.Category, 0, len(res.Categories))
		for _, name := range res.Categories {
			cats = append(cats, catalog.Category{Name: name})
		}
		c := catalog.New()
		c.Replace(res.Page.Items, cats)
		if err := c.Save(path); err != nil {
			log.Printf("Save catalog failed: %v", err)
			os.Exit(1)
		}
		log.Printf("Saved catalog to %s: %d items of %d total, %d categories on page, hasMore=%v",
			path, len(res.Page.Items), res.Page.Total, len(res.Categories), res.Page.HasMore)

	case "probe":
		_ = probeCmd.Parse(os.Args[2:])
		creds, err := resolveCredentials(cfg)
		if err != nil {
			log.Printf("Resolve credentials: %v", err)
			os.Exit(1)
		}
		ctx, cancel := context.WithTimeout(context.Background(), *probeTimeout)
		defer cancel()
		client := xtream.NewClientWithTimeout(cfg.RequestTimeout)
		if err := client.Diagnose(ctx, creds); err != nil {
			log.Printf("Provider diagnostic: %v", err)
			os.Exit(1)
		}
		log.Print("Provider account OK")

	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n", os.Args[1])
		os.Exit(1)
	}
}

// resolveCredentials reads credentials from env, falling back to the admin
// store when env leaves fields empty. The store is optional; a missing or
// unreadable db just means env-only.
func resolveCredentials(cfg *config.Config) (xtream.Credentials, error) {
	st, err := store.Open(cfg.StorePath)
	if err != nil {
		log.Printf("Admin store unavailable (%v); using env credentials only", err)
		return cfg.Credentials(nil)
	}
	defer st.Close()
	return cfg.Credentials(st)
}
