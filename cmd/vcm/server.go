package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fujie/v0-vcm/internal/config"
	"github.com/fujie/v0-vcm/internal/db"
	"github.com/fujie/v0-vcm/internal/logging"
	"github.com/fujie/v0-vcm/internal/logstore"
	"github.com/fujie/v0-vcm/internal/registry"
	"github.com/fujie/v0-vcm/internal/server"
	"github.com/fujie/v0-vcm/internal/syncer"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var serverCfg *config.Config

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the VCM API server",
	Long: `Start the VCM API server.

The server seeds an empty registry from VCM_CREDENTIAL_TYPES_DATA (a JSON
array of credential type definitions) or built-in samples, and exposes the
credential type, issuance, sync, health, and log endpoints on one port.`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCfg = config.FromEnv()
	serverCmd.Flags().IntVar(&serverCfg.APIPort, "api-port", serverCfg.APIPort, "API port to listen on")
	serverCmd.Flags().StringVar(&serverCfg.DBPath, "db", serverCfg.DBPath, "database path")
	serverCmd.Flags().StringVar(&serverCfg.Environment, "env", serverCfg.Environment, "environment name reported by health endpoints")
	serverCmd.Flags().StringVar(&serverCfg.HealthAPIKey, "health-api-key", serverCfg.HealthAPIKey, "health endpoint secret")
	serverCmd.Flags().BoolVar(&serverCfg.HealthRequireAuth, "health-require-auth", serverCfg.HealthRequireAuth, "require an API key on the health endpoint")
	serverCmd.Flags().StringVar(&serverCfg.StudentLoginURL, "student-login-url", serverCfg.StudentLoginURL, "student login site base URL")
	serverCmd.Flags().DurationVar(&serverCfg.SyncTimeout, "sync-timeout", serverCfg.SyncTimeout, "per-endpoint sync attempt timeout")
	serverCmd.Flags().IntVar(&serverCfg.LogCapacity, "log-capacity", serverCfg.LogCapacity, "request log capacity")
}

func runServer(cmd *cobra.Command, args []string) error {
	database, err := db.Open(serverCfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	reg := registry.NewSQLite(database)
	if err := reg.Seed(serverCfg.CredentialTypesData); err != nil {
		return fmt.Errorf("seed registry: %w", err)
	}
	typeCount, _, err := reg.Counts()
	if err != nil {
		return fmt.Errorf("count credential types: %w", err)
	}
	logger.Info("registry ready", logging.Count(typeCount))

	logs := logstore.New(serverCfg.LogCapacity)
	engine := &syncer.Engine{Logger: logger.Named("syncer")}
	apiSrv := server.New(reg, logs, engine, serverCfg, logger.Named("api"))

	apiErrLog, _ := zap.NewStdLogAt(logger.Named("api"), zapcore.ErrorLevel)
	apiServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", serverCfg.APIPort),
		Handler:           apiSrv.Handler(),
		ErrorLog:          apiErrLog,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// A sync request can hold the connection for every candidate
		// endpoint in sequence.
		WriteTimeout: 2 * time.Minute,
	}

	go func() {
		logger.Info("starting api server", logging.Port(serverCfg.APIPort))
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("api server error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	apiServer.Shutdown(ctx)

	return nil
}
