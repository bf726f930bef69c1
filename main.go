package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"webchat/config"
	infraredis "webchat/infrastructure/redis"
	"webchat/pkg/logger"
	"webchat/server"
	"webchat/services/chat"
	"webchat/services/client"
	"webchat/services/history"
	"webchat/services/sessions"
	"webchat/services/transport"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "webchat",
	Short:         "Browser chat client for the chat backend",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chat page on the local UI server",
	RunE:  runServe,
}

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print one conversation's history and live messages to stdout",
	RunE:  runTail,
}

var (
	flagEnvFile  string
	flagBackend  string
	flagLogLevel string
	flagPort     int

	flagUser  int64
	flagWith  int64
	flagGroup bool
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagEnvFile, "env-file", ".env", "environment file to load before reading configuration")
	flags.StringVar(&flagBackend, "backend", "", "chat backend origin (overrides BACKEND_URL)")
	flags.StringVar(&flagLogLevel, "log-level", "", "minimum log level (overrides LOG_LEVEL)")

	serveCmd.Flags().IntVar(&flagPort, "port", 0, "local UI server port (overrides SERVER_PORT)")

	tailCmd.Flags().Int64Var(&flagUser, "user", 0, "signed-in user id")
	tailCmd.Flags().Int64Var(&flagWith, "with", 0, "contact or group id to follow")
	tailCmd.Flags().BoolVar(&flagGroup, "group", false, "follow a group instead of a private chat")
	tailCmd.MarkFlagRequired("user")
	tailCmd.MarkFlagRequired("with")

	rootCmd.AddCommand(serveCmd, tailCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Application failed: %v", err)
	}
}

// loadConfig reads the environment, applies flag overrides and installs the
// default logger
func loadConfig() (*config.Config, error) {
	if err := godotenv.Load(flagEnvFile); err != nil {
		log.Printf("Warning: %s not loaded: %v", flagEnvFile, err)
	}
	if flagBackend != "" {
		os.Setenv("BACKEND_URL", flagBackend)
	}
	if flagPort != 0 {
		os.Setenv("SERVER_PORT", fmt.Sprint(flagPort))
	}
	if flagLogLevel != "" {
		os.Setenv("LOG_LEVEL", flagLogLevel)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logCfg := logger.DefaultConfig(cfg.Log.File)
	logCfg.Level = logger.ParseLevel(cfg.Log.Level)
	l, err := logger.NewWithConfig(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logger.SetDefault(l)
	return cfg, nil
}

func newSessionStore(ctx context.Context, cfg *config.Config) (sessions.Store, *redis.Client, error) {
	rdb, err := infraredis.NewClient(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize Redis client: %w", err)
	}
	if rdb == nil {
		logger.Info("Redis disabled, sessions kept in memory")
		return sessions.NewMemoryStore(cfg.Session.TTL, 0), nil, nil
	}
	return sessions.NewRedisStore(rdb, cfg.Session.TTL), rdb, nil
}

// newSocket builds the backend socket for one user
func newSocket(cfg *config.Config, socketURL string, userID chat.ID, h transport.Handlers) *transport.Transport {
	return transport.New(transport.Config{
		URL:            socketURL,
		UserID:         userID,
		ReconnectDelay: cfg.Socket.ReconnectDelay,
		MaxAttempts:    cfg.Socket.MaxAttempts,
		WriteTimeout:   cfg.Socket.WriteTimeout,
	}, transport.NewWSDialer(cfg.Socket.HandshakeTimeout), h)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log.Println("✓ Configuration loaded and validated")
	cfg.PrintSummary()

	socketURL, err := cfg.SocketURL()
	if err != nil {
		return err
	}

	store, rdb, err := newSessionStore(context.Background(), cfg)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
		log.Println("✓ Connected to Redis")
	}

	api := history.New(cfg.Backend.BaseURL, cfg.Backend.RequestTimeout)
	mgr := client.NewManager(func(session chat.Session) *client.Client {
		return client.New(session, api, func(h transport.Handlers) client.Socket {
			return newSocket(cfg, socketURL, session.UserID, h)
		}, cfg.Backend.PageSize)
	})
	log.Println("✓ Initialized client manager")

	srv, err := server.NewServer(cfg, mgr, store, rdb)
	if err != nil {
		return fmt.Errorf("failed to create server; err: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		log.Printf("Received signal: %v. Shutting down gracefully...", sig)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Println("✓ Server shutdown complete")
	return nil
}
