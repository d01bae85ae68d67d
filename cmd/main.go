package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"neohub_controller/internal/config"
	"neohub_controller/internal/handlers"
	"neohub_controller/internal/logger"
	"neohub_controller/internal/neohub"
	"neohub_controller/internal/recipes"
	"neohub_controller/internal/repository"
	"neohub_controller/internal/repository/db"
	"neohub_controller/internal/scheduler"
	"neohub_controller/internal/server"
	"neohub_controller/internal/service"
	"neohub_controller/internal/weather"
)

const shutdownTimeout = 10 * time.Second

// @title                       NeoHub Controller API
// @version                     1.0
// @description                 Hub command relay and weather-driven recipe scheduling.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	// load .env, configs/config.yml and environment
	cfg, err := config.Load()
	if err != nil {
		log := logger.Get(logger.InfoLevel)
		var ce *config.ConfigError
		if errors.As(err, &ce) {
			log.Fatalw("missing required configuration", "keys", ce.Missing)
		}
		log.Fatalw("error reading config", "err", err)
	}

	// init logger
	log := logger.Init(logger.Options{Level: cfg.Log.Level, File: cfg.Log.File})
	defer func() { _ = log.Sync() }()

	// open DB
	conn, err := openDB(cfg, log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// wire dependencies
	connector, err := neohub.NewConnector(cfg.Hub.URL)
	if err != nil {
		log.Fatalw("invalid hub url", "url", cfg.Hub.URL, "err", err)
	}
	hub := neohub.NewClient(connector, cfg.Hub.Token, neohub.Options{
		Timeout: cfg.Hub.Timeout,
		Retries: cfg.Hub.Retries,
	}, log)

	forecast := weather.NewClient(weather.Options{
		BaseURL:  cfg.Weather.BaseURL,
		Key:      cfg.Weather.Key,
		Location: cfg.Weather.Location,
		HTTP:     &http.Client{Timeout: cfg.Weather.Timeout},
	})

	repos := repository.NewRepository(conn)
	registry := scheduler.New(log)
	engine := recipes.NewEngine(forecast, hub, repos.RunRepo, recipes.Book(cfg.Recipes), cfg.Schedule.RunTimeout, log)

	services := service.NewService(repos, service.Deps{
		Hub:      hub,
		Weather:  forecast,
		Registry: registry,
		Engine:   engine,
		Log:      log,
	})
	apiHandler := handlers.NewHandler(services, log, handlers.Options{
		APIToken:  cfg.API.Token,
		StaticDir: cfg.HTTP.StaticDir,
		UploadDir: cfg.HTTP.UploadDir,
	})

	// start scheduler; jobs are armed through POST /api/v1/schedule
	registry.Start()

	// start HTTP server
	srv := &server.Server{WriteTimeout: relayBudget(cfg)}
	runHTTPServer(srv, cfg.Port, apiHandler, log)
	log.Infow("neohub_controller_started", "port", cfg.Port, "hub", connector.Addr(), "api_token_set", cfg.API.Token != "")

	// graceful shutdown
	waitForShutdown(registry, srv, log)
}

// openDB initializes the run history database.
func openDB(cfg *config.Config, log *logger.Logger) (*sql.DB, error) {
	log.Infow("opening run history", "path", cfg.DB.Path)
	return db.InitDB(cfg.DB.Path)
}

// relayBudget is the longest a /system request may take: every attempt
// timing out plus backoff slack.
func relayBudget(cfg *config.Config) time.Duration {
	return time.Duration(cfg.Hub.Retries+1)*cfg.Hub.Timeout + 15*time.Second
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "5000"
		}
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(registry *scheduler.Registry, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop timers and wait for in-flight recipe runs
	registry.Stop()

	// allow in-flight requests to complete
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
