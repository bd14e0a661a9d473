package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/smashchats/smash-web-client-sub000/internal/cache"
	"github.com/smashchats/smash-web-client-sub000/internal/config"
	"github.com/smashchats/smash-web-client-sub000/internal/domain"
	"github.com/smashchats/smash-web-client-sub000/internal/gateway"
	"github.com/smashchats/smash-web-client-sub000/internal/httpapi"
	"github.com/smashchats/smash-web-client-sub000/internal/messenger"
	"github.com/smashchats/smash-web-client-sub000/internal/messenger/loopback"
	"github.com/smashchats/smash-web-client-sub000/internal/obs"
	"github.com/smashchats/smash-web-client-sub000/internal/security"
	"github.com/smashchats/smash-web-client-sub000/internal/service"
	"github.com/smashchats/smash-web-client-sub000/internal/store/sqlite"
	"github.com/smashchats/smash-web-client-sub000/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := obs.NewLogger(cfg.Env)

	sealer, err := security.NewSealer([]byte(cfg.APISecret))
	if err != nil {
		log.Error("failed to initialize sealer", "err", err)
		os.Exit(1)
	}

	store := sqlite.NewStore(sealer)
	if err := store.Open(cfg.DataPath); err != nil {
		log.Error("failed to open store", "err", err)
		os.Exit(1)
	}
	defer store.Close()

	var msgr messenger.Messenger
	if cfg.MockTransport {
		lb := loopback.New()
		lb.Echo = true
		msgr = lb
		log.Warn("using loopback transport; messages never leave this machine")
	} else {
		log.Error("no messaging transport bundled in this build; set MOCK_TRANSPORT=1 for the loopback peer")
		os.Exit(1)
	}
	defer msgr.Close()

	messages := cache.NewMessageCache()
	conversations := cache.NewConversationCache()
	rec := service.NewReconciler(log, store, messages, conversations)

	gw := gateway.New(log, store, rec, msgr)
	session, err := gw.Bootstrap(context.Background(), domain.EndpointConfig{
		URL:       cfg.RelayURL,
		PublicKey: cfg.RelayPublicKey,
	}, cfg.AppName)
	if err != nil {
		log.Error("failed to bootstrap device session", "err", err)
		os.Exit(1)
	}
	defer gw.Close()
	log.Info("device session ready", "created_at", session.CreatedAt)

	// Warm the caches from the durable store.
	if _, err := rec.LoadConversations(context.Background()); err != nil {
		log.Error("failed to load conversations", "err", err)
		os.Exit(1)
	}

	receipts := service.NewReceiptTracker(log, store, rec, gw, cfg.VisibilityDwell, cfg.AckRetryDelay)

	hub := ws.NewHub()
	detach := ws.Bridge(hub, messages, conversations)
	defer detach()

	tokens := security.NewTokenService(cfg.APISecret, cfg.TokenTTL)
	router := httpapi.NewRouter(cfg, log, tokens, gw, rec, store, receipts, hub)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("smashchatd listening", "addr", cfg.HTTPAddr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("graceful shutdown failed", "err", err)
	}
}
