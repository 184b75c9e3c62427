package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/livepaste/backend/internal/config"
	"github.com/livepaste/backend/internal/handler"
	"github.com/livepaste/backend/internal/model/user"
	"github.com/livepaste/backend/internal/realtime"
	"github.com/livepaste/backend/internal/service/auth"
	"github.com/livepaste/backend/internal/service/session"
	"github.com/livepaste/backend/internal/service/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	files, err := storage.NewFileStore(cfg.Store.UploadsDir())
	if err != nil {
		log.Fatalf("failed to prepare uploads directory: %v", err)
	}

	registry := session.NewRegistry(cfg.Store.DataFile)
	hub := realtime.NewHub()

	users := user.NewStore(cfg.Store.UsersFile)
	authSvc := auth.NewService(users, cfg.Auth.JWTSecret, cfg.Auth.Expiration)

	sweeper := session.NewSweeper(registry, cfg.Lifecycle.SweepInterval, cfg.Lifecycle.SessionExpiry)
	go sweeper.Run(ctx)

	router := handler.NewRouter(registry, hub, files, authSvc, cfg.Store.StaticDir)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("livepaste backend listening on %s", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
