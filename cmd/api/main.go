package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akinfemi/lifeboard/internal/auth"
	"github.com/akinfemi/lifeboard/internal/config"
	"github.com/akinfemi/lifeboard/internal/data"
	"github.com/akinfemi/lifeboard/internal/db"
	"github.com/akinfemi/lifeboard/internal/messaging"
	"github.com/akinfemi/lifeboard/internal/middleware"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx := context.Background()

	// Initialize database
	dbClient, err := db.New(ctx, cfg.MongoURI)
	if err != nil {
		log.Fatalf("failed to connect to DB: %v", err)
	}
	defer func() {
		_ = dbClient.Close(ctx)
	}()

	// Ensure indexes exist
	if err := dbClient.CreateIndexes(ctx); err != nil {
		log.Fatalf("failed to create indexes: %v", err)
	}

	// Create stores and the messaging engine
	usersStore := data.NewUsersStore(dbClient.UsersCollection())
	tasksStore := data.NewTasksStore(dbClient.TasksCollection())
	goalsStore := data.NewGoalsStore(dbClient.GoalsCollection())
	sharesStore := data.NewSharesStore(dbClient.SharesCollection())
	engine := messaging.NewEngine(data.NewMessagesStore(dbClient.MessagesCollection()), logger)

	jwtMgr := auth.NewJWTManagerFromKeys(cfg.JWTKeys, cfg.JWTActiveKid, cfg.TokenTTL)

	// Rate limiter for the register and login endpoints (small burst to
	// allow a couple of quick retries)
	limiterStore := middleware.NewLimiterStore(cfg.RateLimitRPM, 3, 1*time.Minute)
	defer limiterStore.Stop()

	srv := newServer(logger, usersStore, tasksStore, goalsStore, sharesStore, engine, jwtMgr)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.routes(limiterStore),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  time.Minute,
	}

	go func() {
		logger.Info("api server listening", "addr", cfg.Addr, "tls", cfg.TLSCert != "")
		var serveErr error
		if cfg.TLSCert != "" && cfg.TLSKey != "" {
			serveErr = httpServer.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
		} else {
			serveErr = httpServer.ListenAndServe()
		}
		if serveErr != nil && serveErr != http.ErrServerClosed {
			log.Fatalf("server error: %v", serveErr)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("graceful shutdown failed: %v", err)
	}
}
