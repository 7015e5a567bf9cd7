// Command server runs the Min-or-Max game server: a WebSocket endpoint per
// room, a quick-play matchmaking API and a health probe.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/johnnify/min-or-max/internal/cache"
	"github.com/johnnify/min-or-max/internal/config"
	"github.com/johnnify/min-or-max/internal/database"
	"github.com/johnnify/min-or-max/internal/directory"
	"github.com/johnnify/min-or-max/internal/session"
	"github.com/johnnify/min-or-max/internal/store"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(cfg.SQLitePath)
	if err != nil {
		logrus.Fatalf("open store: %v", err)
	}
	defer db.Close()

	if cfg.RedisURL != "" {
		if err := cache.InitRedis(ctx, cfg.RedisURL); err != nil {
			logrus.Warnf("redis unavailable, telemetry disabled: %v", err)
		}
	}
	if cfg.DatabaseURL != "" {
		if err := database.Connect(ctx, cfg.DatabaseURL); err != nil {
			logrus.Warnf("postgres unavailable, match archive disabled: %v", err)
		}
	}

	dir := directory.New(ctx, db)
	manager := session.NewManager(db, dir, cfg.AuthSecret, cfg.OriginAllowed)
	defer manager.CloseAll()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /api/quickplay", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]string{"roomId": dir.QuickPlay()})
	})
	mux.HandleFunc("GET /api/rooms", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, dir.Rooms())
	})
	mux.HandleFunc("GET /room/{code}", func(w http.ResponseWriter, r *http.Request) {
		code := r.PathValue("code")
		if !directory.IsValidRoomCode(code) {
			http.Error(w, "invalid room code", http.StatusBadRequest)
			return
		}
		manager.ServeWS(w, r, code)
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logrus.Infof("server listening on %s", cfg.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logrus.Fatalf("server: %v", err)
	}
	logrus.Info("server stopped")
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Errorf("write response: %v", err)
	}
}
