package server

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"webchat/apperrors"
	"webchat/config"
	"webchat/pkg/logger"
	"webchat/pkg/metrics"
	"webchat/server/handlers"
	"webchat/server/middleware/security"
	"webchat/server/routes"
	"webchat/services/client"
	"webchat/services/sessions"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App       *fiber.App
	cfg       *config.Config
	mgr       *client.Manager
	fragments *TemplateRenderer
}

// NewServer builds the local UI server: views, error handling, request
// logging, metrics and the chat routes.
func NewServer(cfg *config.Config, mgr *client.Manager, store sessions.Store, rdb *redis.Client) (*Server, error) {
	engine := newEngine(cfg.Server.ViewsDir)

	errorConfig := apperrors.HandlerConfig{
		Logger:             setupErrorLogging(),
		ShowInternalErrors: os.Getenv("APP_ENV") == "development",
		OnError: func(c *fiber.Ctx, err *apperrors.AppError) {
			metrics.RecordError(string(err.Code), strconv.Itoa(err.StatusCode))
		},
	}

	app := fiber.New(fiber.Config{
		AppName:      "webchat",
		Views:        engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		ErrorHandler: apperrors.Handler(errorConfig),
	})

	app.Use(metrics.HTTPMetricsMiddleware())
	app.Use(security.New(security.Config{Backend: cfg.Backend.BaseURL}))

	if err := setupLogging(app, cfg.Log.File); err != nil {
		return nil, fmt.Errorf("failed to setup logging: %w", err)
	}

	registerMetrics(app, rdb, mgr.States)

	app.Static("/static", cfg.Server.StaticDir, fiber.Static{
		Compress:      true,
		CacheDuration: 86400,
		MaxAge:        86400,
	})

	srv := &Server{
		App:       app,
		cfg:       cfg,
		mgr:       mgr,
		fragments: NewTemplateRenderer(engine),
	}

	routes.RegisterRoutes(app, routes.Deps{
		Manager:  mgr,
		Sessions: store,
		Redis:    rdb,
		Cookie: handlers.SessionCookie{
			Name: cfg.Session.CookieName,
			TTL:  cfg.Session.TTL,
		},
		Fragments:    srv.fragments,
		StaticDir:    cfg.Server.StaticDir,
		ActionBurst:  20,
		ActionRefill: 200 * time.Millisecond,
	})

	return srv, nil
}

// newEngine loads the views with the chat template functions
func newEngine(viewsDir string) *html.Engine {
	engine := html.New(viewsDir, ".html")
	addTemplateFunctions(engine)
	return engine
}

func (s *Server) Start() error {
	addr := s.cfg.ServerAddress()
	logger.WithField("addr", addr).Info("Starting server")
	return s.App.Listen(addr)
}

// Shutdown stops accepting requests, then logs every chat client out
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("Shutting down server...")
	err := s.App.ShutdownWithContext(ctx)
	s.mgr.Close(ctx)
	return err
}
