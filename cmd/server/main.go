package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/SriramKomma/collaborative-canvas/internal/config"
	"github.com/SriramKomma/collaborative-canvas/internal/handler"
	"github.com/SriramKomma/collaborative-canvas/internal/middleware"
	"github.com/SriramKomma/collaborative-canvas/internal/room"
	"github.com/SriramKomma/collaborative-canvas/internal/session"
	"github.com/SriramKomma/collaborative-canvas/pkg/discovery"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel(),
	})))

	rooms := room.NewRegistry()
	sessions := session.NewRegistry()
	hub := handler.NewHub(rooms, sessions, &handler.Options{
		RoomCreateInterval: cfg.Rooms.CreateInterval.Std(),
		SweepInterval:      cfg.Rooms.SweepInterval.Std(),
		RoomMaxIdle:        cfg.Rooms.MaxIdle.Std(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go hub.Run(ctx)

	lobby := &handler.LobbyHandler{Rooms: rooms}
	lobbyLimiter := middleware.NewRateLimiter(ctx, cfg.Lobby.RateRPS, cfg.Lobby.RateBurst)

	r := newRouter(hub, lobby, lobbyLimiter)

	if cfg.Discovery.Enabled {
		mdnsServer, err := discovery.Advertise(cfg.Server.Port)
		if err != nil {
			slog.Warn("mDNS advertisement failed", "error", err)
		} else {
			defer mdnsServer.Shutdown()
			slog.Info("Advertising server over mDNS", "port", cfg.Server.Port)
		}
	}

	server := &http.Server{
		Addr:        cfg.Addr(),
		Handler:     loggingMiddleware(r),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		slog.Info("Canvas server starting", "addr", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server error:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown error", "error", err)
	}

	slog.Info("Server stopped")
}

func newRouter(hub *handler.Hub, lobby *handler.LobbyHandler, lobbyLimiter *middleware.RateLimiter) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	}).Methods(http.MethodGet)
	r.Handle("/api/rooms", lobbyLimiter.Middleware(http.HandlerFunc(lobby.ListRooms))).Methods(http.MethodGet)
	r.HandleFunc("/ws", hub.HandleWebSocket)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return r
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
			"remote_addr", r.RemoteAddr,
		)
	})
}
