package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/pdfread/internal/api"
	"github.com/dgallion1/pdfread/internal/auth"
	"github.com/dgallion1/pdfread/internal/config"
	"github.com/dgallion1/pdfread/internal/editor"
	"github.com/dgallion1/pdfread/internal/idgen"
	"github.com/dgallion1/pdfread/internal/pipeline"
	"github.com/dgallion1/pdfread/internal/store"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("loading configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		log.Error("opening database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}

	var verifier auth.Verifier
	switch cfg.AuthMode {
	case config.AuthJWT:
		verifier = auth.JWTVerifier{Secret: []byte(cfg.JWTSecret), Issuer: cfg.JWTIssuer}
	default:
		verifier = auth.APIKeyVerifier{Key: cfg.APIKey, Identity: auth.Identity{ID: cfg.APIKeyUser}}
	}

	blockIDs := idgen.UUIDv7()

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, st, blockIDs, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(api.Deps{
		Orchestrator:    orch,
		Store:           st,
		Editor:          editor.New(st, blockIDs, log),
		Verifier:        verifier,
		NewDocID:        idgen.NanoID(8),
		NewJobID:        idgen.UUIDv7(),
		NewAnnotationID: idgen.UUIDv7(),
		Log:             log,
		Config:          cfg,
	})

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()
	}()

	log.Info("starting pdfread", "port", cfg.Port, "database", cfg.DatabasePath, "auth_mode", cfg.AuthMode)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	<-done
	if err := st.Close(); err != nil {
		log.Error("closing database", "error", err)
	}
}
