package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/n-zngr/recipes-app/internal/backup"
	"github.com/n-zngr/recipes-app/internal/database"
	"github.com/n-zngr/recipes-app/internal/logging"
	"github.com/n-zngr/recipes-app/internal/push"
	"github.com/n-zngr/recipes-app/internal/recommend"
	"github.com/n-zngr/recipes-app/internal/server"
)

func main() {
	logger := logging.Setup(os.Getenv("RECIPES_LOG_LEVEL"))

	port := os.Getenv("RECIPES_PORT")
	if port == "" {
		port = "8000"
	}

	dbPath := os.Getenv("RECIPES_DB_PATH")
	if dbPath == "" {
		dbPath = "recipes.db"
	}

	db, err := database.Open(dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Recommendation corpus is optional; the endpoint reports unavailable
	// when no corpus is loaded.
	var engine *recommend.Engine
	if corpusPath := os.Getenv("RECIPES_CORPUS_PATH"); corpusPath != "" {
		engine, err = recommend.Load(corpusPath)
		if err != nil {
			slog.Warn("failed to load recipe corpus", "path", corpusPath, "error", err)
			engine = nil
		} else {
			slog.Info("recipe corpus loaded", "recipes", engine.Size())
		}
	}

	// Push notifications are optional; enabled when VAPID keys are set.
	var pushSvc *push.Service
	if pub, priv := os.Getenv("RECIPES_VAPID_PUBLIC_KEY"), os.Getenv("RECIPES_VAPID_PRIVATE_KEY"); pub != "" && priv != "" {
		pushSvc = push.NewService(push.Config{
			VAPIDPublicKey:  pub,
			VAPIDPrivateKey: priv,
			Subscriber:      os.Getenv("RECIPES_PUSH_CONTACT"),
		})
		slog.Info("push notifications enabled")
	}

	srv := server.New(db, engine, pushSvc, logger)

	// Scheduled encrypted backups are optional; enabled when S3 and a
	// passphrase are configured.
	backupMgr := backup.NewManager(backup.Config{
		S3: backup.S3Config{
			Endpoint:  os.Getenv("RECIPES_S3_ENDPOINT"),
			Bucket:    os.Getenv("RECIPES_S3_BUCKET"),
			Region:    os.Getenv("RECIPES_S3_REGION"),
			AccessKey: os.Getenv("RECIPES_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("RECIPES_S3_SECRET_KEY"),
		},
		Passphrase: os.Getenv("RECIPES_BACKUP_PASSPHRASE"),
	}, db, logger.With("component", "backup"))
	if backupMgr.Enabled() {
		backupMgr.Start(context.Background())
		defer backupMgr.Stop()
		slog.Info("scheduled backups enabled")
	}

	httpServer := &http.Server{
		Addr:              ":" + port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Background cleanup goroutine
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n, err := srv.SessionStore().DeleteExpired(); err != nil {
					slog.Error("cleanup expired sessions", "error", err)
				} else if n > 0 {
					slog.Info("cleaned up expired sessions", "count", n)
				}
				srv.RateLimiter().Cleanup()
			case <-cleanupCtx.Done():
				return
			}
		}
	}()

	go func() {
		slog.Info("recipes service starting", "addr", ":"+port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	cleanupCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
