package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"triviamirror/internal/config"
	"triviamirror/internal/handler"
	"triviamirror/internal/hub"
	"triviamirror/internal/opentdb"
	"triviamirror/internal/repository/sqlstore"
	"triviamirror/internal/service"
)

func main() {
	// Command line flags
	configPath := flag.String("config", "", "Config file path (default: search standard locations)")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting triviamirror server...")

	var (
		cfg        *config.Config
		loadedFrom string
		err        error
	)
	if *configPath != "" {
		cfg, loadedFrom, err = config.LoadFromPath(*configPath)
	} else {
		cfg, loadedFrom, err = config.Load()
	}
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *dbPath != "" {
		cfg.Database.Driver = config.DriverSQLite
		cfg.Database.Path = *dbPath
	}
	if loadedFrom != "" {
		log.Printf("Config loaded from %s", loadedFrom)
	}
	log.Println(cfg.Summary())

	// baseCtx bounds background work; cancelled on shutdown
	baseCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := sqlstore.Open(baseCtx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer store.Close()
	log.Printf("Database opened (%s)", store.Dialect())

	// Initialize event bus and SSE hub
	eventBus := service.NewEventBus()
	sseHub := hub.New()
	go sseHub.Run(baseCtx)

	eventChan := make(chan service.Event, 100)
	eventBus.Subscribe(eventChan)
	go func() {
		for event := range eventChan {
			sseHub.Broadcast(string(event.Type), event.Payload)
		}
	}()

	// Initialize services
	client := opentdb.NewClient(opentdb.ClientConfig{
		BaseURL:    cfg.Source.BaseURL,
		MinSpacing: cfg.Source.MinSpacing.Duration(),
		Timeout:    cfg.Source.RequestTimeout.Duration(),
	})
	session := opentdb.NewSession(client)
	if _, err := session.Acquire(baseCtx); err != nil {
		log.Fatalf("Failed to acquire session token: %v", err)
	}
	refs := service.NewReferenceSync(store, client, cfg.Source.Types, cfg.Source.Difficulties, eventBus)
	if err := refs.Catalog().Refresh(baseCtx); err != nil {
		log.Fatalf("Failed to load reference data: %v", err)
	}
	resolver := service.NewResolver(store, service.NewAnswerResolver(store), refs.Catalog(), eventBus)
	pipeline := service.NewPipeline(client, session, resolver, store, refs.Catalog(), eventBus, service.PipelineConfig{
		MaxBatchSize:    cfg.Source.MaxBatchSize,
		MaxBatchRetries: cfg.Source.MaxBatchRetries,
		MaxTokenResets:  cfg.Source.TokenResets(),
		DisableShuffle:  cfg.Ingest.DisableShuffle,
	})
	syncSvc := service.NewSyncService(refs, pipeline, service.NewMaintenance(store, eventBus), store)

	// Setup routes
	mux := http.NewServeMux()
	handler.Routes{
		Questions: handler.NewQuestionHandler(service.NewQueryService(store), cfg.Server.MaxAmount),
		Sync:      handler.NewSyncHandler(baseCtx, syncSvc),
		Bank:      handler.NewBankHandler(service.NewBankService(store, resolver)),
		Health:    handler.Health(store),
		Events:    sseHub,
	}.Register(mux)

	// Apply middleware
	finalHandler := handler.Chain(mux,
		handler.Recover,
		handler.CORS,
		handler.Logger,
	)

	// No WriteTimeout: the SSE stream stays open
	server := &http.Server{
		Addr:        cfg.Server.Addr,
		Handler:     finalHandler,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Stop background sync and close SSE streams before draining requests
	cancel()
	syncSvc.Wait()

	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
