package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cosynight_bridge/internal/cosynight"
	"cosynight_bridge/internal/handlers"
	"cosynight_bridge/internal/logger"
	"cosynight_bridge/internal/polling"
	"cosynight_bridge/internal/repository"
	"cosynight_bridge/internal/server"
	"cosynight_bridge/internal/service"

	"github.com/spf13/viper"

	_ "cosynight_bridge/docs"
)

// @title           CosyNight Bridge API
// @version         1.0
// @description     Bridge service for Beurer CosyNight heated mattress covers: cloud polling, zone and timer control, event history.

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const startupTimeout = 30 * time.Second

func main() {
	// load config.yml first so the log level is configurable
	if err := loadConfig(); err != nil {
		fallback := logger.Get(logger.InfoLevel)
		fallback.Fatalw("error reading config", "err", err)
	}

	log := logger.Get(viper.GetString("log_level"))

	// open DB
	db, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Fatalw("failed to close sqlite", "err", cerr)
		}
	}()

	// connect to the vendor cloud and discover the account's blankets
	hub := newCloudClient()
	startupCtx, startupCancel := context.WithTimeout(context.Background(), startupTimeout)
	devices, err := discoverDevices(startupCtx, hub, log)
	startupCancel()
	if err != nil {
		log.Fatalw("cloud startup failed", "err", err)
	}

	// wire dependencies
	pollCfg, err := buildPollingConfig()
	if err != nil {
		log.Fatalw("invalid polling config", "err", err)
	}
	repos := repository.NewRepository(db)
	services := service.NewService(repos, hub, devices, service.Config{
		Polling:    pollCfg,
		SigningKey: viper.GetString("auth.signing_key"),
	}, log)
	apiHandler := handlers.NewHandler(services, log)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// start the cloud poller (via composed service)
	go services.Poller.Run(ctx)

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, log)
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	return viper.ReadInConfig()
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "app.db")
		dbPath = "app.db"
	}
	return repository.InitDB(dbPath)
}

// newCloudClient builds the CosyNight client from configuration.
func newCloudClient() *cosynight.Client {
	return cosynight.NewClient(cosynight.Config{
		BaseURL:   viper.GetString("cloud.base_url"),
		TokenPath: viper.GetString("cloud.token_path"),
		Timeout:   time.Duration(viper.GetInt("cloud.timeout_s")) * time.Second,
	})
}

// discoverDevices authenticates against the cloud and fetches the
// account's blanket list once; the poller keeps their snapshots fresh
// afterwards.
func discoverDevices(ctx context.Context, hub *cosynight.Client, log *logger.Logger) ([]cosynight.Device, error) {
	username := viper.GetString("cloud.username")
	password := viper.GetString("cloud.password")
	if err := hub.Authenticate(ctx, username, password); err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	devices, err := hub.ListDevices(ctx)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	if len(devices) == 0 {
		log.Infow("no blankets registered to this account")
	}
	for _, d := range devices {
		log.Infow("discovered blanket", "id", d.ID, "name", d.Name)
	}
	return devices, nil
}

// buildPollingConfig assembles the interval selector settings, falling
// back to the defaults for anything not set in the config file.
func buildPollingConfig() (polling.Config, error) {
	peakStart := viper.GetString("polling.peak_start")
	if peakStart == "" {
		peakStart = polling.DefaultPeakStart
	}
	peakEnd := viper.GetString("polling.peak_end")
	if peakEnd == "" {
		peakEnd = polling.DefaultPeakEnd
	}

	start, err := polling.ParseClock(peakStart)
	if err != nil {
		return polling.Config{}, fmt.Errorf("polling.peak_start: %w", err)
	}
	end, err := polling.ParseClock(peakEnd)
	if err != nil {
		return polling.Config{}, fmt.Errorf("polling.peak_end: %w", err)
	}

	offPeak := polling.DefaultOffPeakInterval
	if m := viper.GetInt("polling.offpeak_interval_m"); m > 0 {
		offPeak = time.Duration(m) * time.Minute
	}
	peak := polling.DefaultPeakInterval
	if m := viper.GetInt("polling.peak_interval_m"); m > 0 {
		peak = time.Duration(m) * time.Minute
	}

	active := true
	if viper.IsSet("polling.active_polling") {
		active = viper.GetBool("polling.active_polling")
	}

	return polling.Config{
		PeakStart:       start,
		PeakEnd:         end,
		OffPeakInterval: offPeak,
		PeakInterval:    peak,
		ActivePolling:   active,
	}, nil
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, handler.InitRoutes()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
