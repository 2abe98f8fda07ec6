package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"

	"triviamirror/internal/codec"
	"triviamirror/internal/config"
	"triviamirror/internal/opentdb"
	"triviamirror/internal/repository/sqlstore"
	"triviamirror/internal/service"
)

func main() {
	configPath := flag.String("config", "", "Config file path (default: search standard locations)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	purge := flag.Bool("purge", false, "Delete all questions and answers before seeding")
	trimOnly := flag.Bool("trim-only", false, "Only run the whitespace pass, then exit")
	noTrim := flag.Bool("no-trim", false, "Skip the whitespace pass after seeding")
	importPath := flag.String("import", "", "Import a question bank file (.json or .yaml) instead of fetching")
	exportPath := flag.String("export", "", "Export all questions to a file (.json or .yaml), then exit")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] [category names...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, loadedFrom, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *dbPath != "" {
		cfg.Database.Driver = config.DriverSQLite
		cfg.Database.Path = *dbPath
	}
	if loadedFrom != "" {
		log.Printf("Config loaded from %s", loadedFrom)
	}
	log.Println(cfg.Summary())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := sqlstore.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer store.Close()

	maintenance := service.NewMaintenance(store, nil)

	if *exportPath != "" {
		if err := exportBank(ctx, store, *exportPath); err != nil {
			log.Fatalf("Export failed: %v", err)
		}
		return
	}

	if *purge {
		if err := maintenance.Purge(ctx); err != nil {
			log.Fatalf("Purge failed: %v", err)
		}
	}

	if *trimOnly {
		report, err := maintenance.TrimWhitespace(ctx)
		if err != nil {
			log.Fatalf("Whitespace pass failed: %v", err)
		}
		log.Printf("Whitespace pass modified %s rows", humanize.Comma(int64(report.Modified())))
		return
	}

	client := opentdb.NewClient(opentdb.ClientConfig{
		BaseURL:    cfg.Source.BaseURL,
		MinSpacing: cfg.Source.MinSpacing.Duration(),
		Timeout:    cfg.Source.RequestTimeout.Duration(),
	})
	refs := service.NewReferenceSync(store, client, cfg.Source.Types, cfg.Source.Difficulties, nil)
	resolver := service.NewResolver(store, service.NewAnswerResolver(store), refs.Catalog(), nil)

	if *importPath != "" {
		if err := importBank(ctx, refs, store, resolver, *importPath); err != nil {
			log.Fatalf("Import failed: %v", err)
		}
		return
	}

	session := opentdb.NewSession(client)
	if _, err := session.Acquire(ctx); err != nil {
		log.Fatalf("Failed to acquire session token: %v", err)
	}

	pipeline := service.NewPipeline(client, session, resolver, store, refs.Catalog(), nil, service.PipelineConfig{
		MaxBatchSize:    cfg.Source.MaxBatchSize,
		MaxBatchRetries: cfg.Source.MaxBatchRetries,
		MaxTokenResets:  cfg.Source.TokenResets(),
		DisableShuffle:  cfg.Ingest.DisableShuffle,
	})
	syncSvc := service.NewSyncService(refs, pipeline, maintenance, store)

	summary, err := syncSvc.Run(ctx, service.SyncOptions{
		Categories: flag.Args(),
		SkipTrim:   *noTrim || cfg.Ingest.SkipTrim,
	})
	if err != nil {
		log.Fatalf("Seed failed: %v", err)
	}

	run := summary.Run.Run
	log.Printf("Seed %s: %s questions stored, %s skipped, %s diverged, %s failed, %d token resets",
		run.Status, humanize.Comma(int64(run.Stored)), humanize.Comma(int64(run.Skipped)),
		humanize.Comma(int64(run.Diverged)), humanize.Comma(int64(run.Failed)), session.Resets())
}

func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

// codecFor picks a codec from the file extension
func codecFor(path string) (codec.Codec, error) {
	return codec.ForFormat(strings.TrimPrefix(filepath.Ext(path), "."))
}

func exportBank(ctx context.Context, store *sqlstore.Store, path string) error {
	c, err := codecFor(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := service.NewBankService(store, nil).Export(ctx, c, f); err != nil {
		return err
	}
	log.Printf("Exported questions to %s", path)
	return f.Close()
}

func importBank(ctx context.Context, refs *service.ReferenceSync, store *sqlstore.Store, resolver *service.Resolver, path string) error {
	c, err := codecFor(path)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	// Imported questions reference categories by name, so they must exist
	if _, err := refs.Sync(ctx); err != nil {
		return err
	}
	_, err = service.NewBankService(store, resolver).Import(ctx, c, f)
	return err
}
