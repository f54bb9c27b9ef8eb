package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"book_mirror/internal/api"
	"book_mirror/internal/app"
	"book_mirror/internal/book"
	"book_mirror/internal/engine"
	"book_mirror/internal/infra"
	"book_mirror/internal/service"
)

func main() {
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(); err != nil {
		slog.Error("bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}
	cfg := bootstrap.Config

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	books := book.NewRegistry()

	var journal engine.Journal
	if bootstrap.Journal != nil {
		journal = bootstrap.Journal
	}
	rec := engine.NewReconciler(cfg.Engine.InboxSize, books, journal)
	go rec.Run(ctx)

	loader := infra.NewSnapshotClient(cfg.Upstream.RestURL, cfg.Timeout(), cfg.RetryDelay(), books)

	// Warm the registry while the feed handshakes. Readiness still waits
	// for the per-connection sync below.
	go func() {
		if err := loader.Sync(ctx); err != nil {
			slog.Warn("startup snapshot aborted", slog.Any("error", err))
		}
	}()

	// Every (re)connect reloads the snapshot before the mirror reports
	// ready: events delivered while disconnected are gone for good, and
	// only a full replacement squares the book again.
	onUp := func(connCtx context.Context) {
		rec.MarkConnected()
		if err := loader.Sync(connCtx); err != nil {
			return // connection died mid-sync; next connect retries
		}
		rec.MarkSynced()
	}
	onDown := func() {
		rec.MarkDisconnected()
	}

	session := infra.NewFeedSession(cfg.Upstream.WSURL, cfg.RetryDelay(), rec.Inbox(), onUp, onDown)
	if err := session.Connect(ctx); err != nil {
		slog.Error("feed session failed to start", slog.Any("error", err))
		os.Exit(1)
	}

	orders := infra.NewOrderClient(cfg.Upstream.RestURL, cfg.Timeout())
	svc := service.NewBookService(books, rec)
	server := api.NewServer(cfg.API.Listen, svc, orders)
	server.Start()

	slog.Info("book mirror running")
	<-ctx.Done()

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Warn("api shutdown failed", slog.Any("error", err))
	}
	session.Close()
	bootstrap.Shutdown()
}
