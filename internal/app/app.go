package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/idhub-dev/groups/internal/config"
	"github.com/idhub-dev/groups/internal/db"
	"github.com/idhub-dev/groups/internal/http/api"
	"github.com/idhub-dev/groups/internal/idp"
	"github.com/idhub-dev/groups/internal/notify"

	log "github.com/sirupsen/logrus"
)

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, cfg config.AppConfig) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return err
	}
	return db.Migrate(conn)
}

// RunServer boots the group service with database-backed components and
// shuts down gracefully when the context is cancelled.
func RunServer(ctx context.Context, cfg config.AppConfig, defaultPort int) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return err
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}

	jwtCfg, errJWT := config.LoadJWTConfig(configPath)
	if errJWT != nil {
		return errJWT
	}
	idpCfg, errIdP := config.LoadIdPConfig(configPath)
	if errIdP != nil {
		return errIdP
	}
	notifyCfg, errNotify := config.LoadNotifyConfig(configPath)
	if errNotify != nil {
		return errNotify
	}

	provider := idp.NewHTTPProvider(idpCfg)
	notifier := notify.NewWebhookNotifier(notifyCfg)

	engine := gin.New()
	engine.Use(gin.Recovery())
	api.RegisterRoutes(engine, conn, jwtCfg, provider, notifier)

	if defaultPort <= 0 {
		defaultPort = 8319
	}
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", defaultPort),
		Handler: engine,
	}

	serveErr := make(chan error, 1)
	go func() {
		if errServe := server.ListenAndServe(); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			serveErr <- errServe
		}
		close(serveErr)
	}()

	log.Infof("starting group service on port %d with config=%s", defaultPort, configPath)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
			return errShutdown
		}
		return nil
	case errServe, ok := <-serveErr:
		if ok && errServe != nil {
			return errServe
		}
		return nil
	}
}
