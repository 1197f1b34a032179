// Package main provides an operator tool for inspecting and seeding the
// lecture catalog directly against the configured store.
//
// Usage:
//
//	go run ./cmd/catalogctl count
//	go run ./cmd/catalogctl page --limit 10 --cursor <next_cursor>
//	go run ./cmd/catalogctl recent --limit 5
//	go run ./cmd/catalogctl seed --lectures 50 --ratings 200
//	go run ./cmd/catalogctl reindex
//
// Store selection follows the server: SPICE_STORE_BACKEND, SPICE_STORE_PATH
// and friends, or a spice.yaml in the working directory.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spiceapp/spice-server/internal/config"
	"github.com/spiceapp/spice-server/internal/di/providers"
	"github.com/spiceapp/spice-server/internal/logger"
	"github.com/spiceapp/spice-server/internal/score"
	"github.com/spiceapp/spice-server/internal/search"
	"github.com/spiceapp/spice-server/internal/service"
	"github.com/spiceapp/spice-server/internal/store"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: catalogctl <count|page|recent|seed|reindex> [flags]\n")
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	cmd, args := os.Args[1], os.Args[2:]

	cfg, err := config.Load(nil)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	lg := logger.New(logger.Config{
		Writer:      os.Stderr,
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Environment: cfg.App.Environment,
	})

	s, err := providers.OpenStore(cfg.Store, lg)
	if err != nil {
		lg.Fatalf("Failed to open %s store: %v", cfg.Store.Backend, err)
	}
	defer s.Close()

	ctx := context.Background()
	switch cmd {
	case "count":
		err = runCount(ctx, s, os.Stdout)
	case "page":
		err = runPage(ctx, cfg, s, args, os.Stdout)
	case "recent":
		err = runRecent(ctx, s, args, os.Stdout)
	case "seed":
		err = runSeed(ctx, cfg, s, args, lg, os.Stdout)
	case "reindex":
		err = runReindex(ctx, cfg, s, lg, os.Stdout)
	default:
		usage()
	}
	if err != nil {
		lg.WithError(err).Fatal("Command failed", "command", cmd)
	}
}

func runCount(ctx context.Context, s store.Store, w io.Writer) error {
	n, err := s.CountLectures(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%d lectures\n", n)
	return nil
}

func runPage(ctx context.Context, cfg *config.Config, s store.Store, args []string, w io.Writer) error {
	fs := flag.NewFlagSet("page", flag.ContinueOnError)
	limit := fs.Int("limit", 0, "Page size (0 uses the configured default)")
	cursor := fs.String("cursor", "", "Cursor from a previous page")
	if err := fs.Parse(args); err != nil {
		return err
	}

	pager := service.NewPager(s, cfg.Catalog.DefaultPageSize, cfg.Catalog.MaxPageSize, nil)
	page, err := pager.GetPage(ctx, *limit, *cursor)
	if err != nil {
		return err
	}

	engine := score.NewEngine(score.Fixed(cfg.Catalog.QualitySignal), nil)
	scored, err := engine.Annotate(ctx, page.Items)
	if err != nil {
		return err
	}
	for _, sl := range scored {
		l := sl.Lecture
		fmt.Fprintf(w, "%s  %s  %-40.40s  views=%d ratings=%d spice=%.2f\n",
			l.UploadedAt.Format("2006-01-02 15:04"), l.ID, l.Title,
			l.ViewCount, l.TotalRatings, sl.Scores.Spice)
	}
	if page.HasMore {
		fmt.Fprintf(w, "\nnext cursor: %s\n", page.NextCursor)
	}
	return nil
}

func runRecent(ctx context.Context, s store.Store, args []string, w io.Writer) error {
	fs := flag.NewFlagSet("recent", flag.ContinueOnError)
	limit := fs.Int("limit", 10, "Number of samples")
	if err := fs.Parse(args); err != nil {
		return err
	}

	samples, err := s.RecentRatings(ctx, *limit)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(samples)
}

// runReindex recreates the search index from the store. The server must be
// stopped: Bleve holds an exclusive lock on the index directory.
func runReindex(ctx context.Context, cfg *config.Config, s store.Store, lg *logger.Logger, w io.Writer) error {
	if !cfg.Search.Enabled {
		return errors.New("search is disabled in configuration")
	}
	index, err := search.New(search.Options{DataPath: cfg.Search.Path, Logger: lg.Logger})
	if err != nil {
		return err
	}
	defer index.Close()

	svc := service.NewSearchService(index, service.SearchOptions{}, lg.Logger)
	n, err := svc.Rebuild(ctx, s)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "indexed %d lectures\n", n)
	return nil
}
