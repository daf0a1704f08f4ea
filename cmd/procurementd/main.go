package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ltran/procurement/internal/ai"
	"github.com/ltran/procurement/internal/ingest"
	"github.com/ltran/procurement/internal/logger"
	"github.com/ltran/procurement/internal/mail"
	"github.com/ltran/procurement/internal/model"
	"github.com/ltran/procurement/internal/server"
	"github.com/ltran/procurement/internal/store"
)

func main() {
	configPath := flag.String("config", "procurement.yaml", "path to config file")
	flag.Parse()

	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "production"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		log.Fatal("loading config failed", "error", err)
	}

	db, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatal("opening store failed", "error", err)
	}
	defer db.Close()

	oracle := ai.NewClient(cfg.AI, log)
	sender := mail.NewSender(cfg.SMTP)
	dispatcher := ingest.NewDispatcher(db, sender, log)
	correlator := ingest.NewCorrelator(db, log)
	pipeline := ingest.NewPipeline(db, oracle, correlator, cfg.IMAP.Username, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session, err := mail.Dial(cfg.IMAP, log)
	if err != nil {
		log.Fatal("connecting to mailbox failed", "error", err)
	}

	go func() {
		if err := session.Run(ctx); err != nil {
			log.Error("mailbox session ended", "error", err)
		}
	}()
	pipelineDone := make(chan struct{})
	go func() {
		defer close(pipelineDone)
		pipeline.Run(ctx, session.Messages())
	}()

	router := server.NewRouter(server.RouterConfig{
		RFPHandler:     server.NewRFPHandler(db, oracle, dispatcher, log),
		VendorHandler:  server.NewVendorHandler(db, log),
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		MailboxHealthy: session.Healthy,
		Log:            log,
	})

	srv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: router,
	}

	go func() {
		log.Info("server listening", "addr", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", "error", err)
	}

	if err := session.Close(); err != nil {
		log.Error("closing mailbox session failed", "error", err)
	}
	select {
	case <-pipelineDone:
	case <-shutdownCtx.Done():
		log.Warn("pipeline did not drain before shutdown deadline")
	}
}
