// Package main provides the server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/osa030/karaokebox/internal/api/httpapi"
	"github.com/osa030/karaokebox/internal/app/filter"
	"github.com/osa030/karaokebox/internal/app/session"
	"github.com/osa030/karaokebox/internal/domain/flowrule"
	"github.com/osa030/karaokebox/internal/infra/config"
	"github.com/osa030/karaokebox/internal/infra/logger"
	"github.com/osa030/karaokebox/internal/infra/metrics"
	"github.com/osa030/karaokebox/internal/infra/spotify"
	"github.com/osa030/karaokebox/internal/infra/store/gormstore"
	"github.com/osa030/karaokebox/internal/infra/store/memstore"
)

var (
	app        = kingpin.New("karaokebox-server", "karaokebox room server")
	configPath = app.Flag("config", "Path to config file").Default("config/server.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()
	logFormat  = app.Flag("log-format", "Log format: console or json (default: console for stdout, json for files)").String()

	listFiltersCmd   = app.Command("list-filters", "List available filters and exit")
	listFlowRulesCmd = app.Command("list-flow-rules", "List flow rules and exit")
	roomTitle        *string
)

func init() {
	startCmd := app.Command("start", "Start the server (default)").Default()
	roomTitle = startCmd.Flag("open-room", "Open a room with this title on startup").String()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	switch command {
	case listFiltersCmd.FullCommand():
		printFilters()
		return
	case listFlowRulesCmd.FullCommand():
		printFlowRules()
		return
	}

	loggerConfig := logger.Config{
		Output: "stdout",
		Level:  "info",
		Format: *logFormat,
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
	}
	logCloser, err := logger.Init(loggerConfig)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logCloser.Close()

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Server error: %v", err)
		os.Exit(1)
	}
}

// run executes the main server logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	ctx := context.Background()

	store, closeStore, err := openStore(cfg.Store)
	if err != nil {
		return err
	}
	defer closeStore()

	mt := metrics.New()
	opts := []session.Option{session.WithMetrics(mt)}

	if cfg.Spotify.Enabled {
		spotifyClient, err := spotify.New(ctx, spotify.Config{
			ClientID:     cfg.Spotify.ClientID,
			ClientSecret: cfg.Spotify.ClientSecret,
			RefreshToken: cfg.Spotify.RefreshToken,
			Market:       cfg.Spotify.Market,
		})
		if err != nil {
			return errors.Wrap(err, "failed to create Spotify client")
		}
		opts = append(opts, session.WithSongLookup(spotifyClient))
		zlog.Info().Msgf("Song lookup enabled: market=%s", cfg.Spotify.Market)
	}

	sessionMgr, err := session.NewManager(cfg, store, opts...)
	if err != nil {
		return errors.Wrap(err, "failed to create room manager")
	}
	defer sessionMgr.GetNotificationManager().Close()

	if *roomTitle != "" {
		rm, err := sessionMgr.CreateRoom(ctx, *roomTitle, "")
		if err != nil {
			return errors.Wrap(err, "failed to open room")
		}
		zlog.Info().Msgf("Room opened: room_id=%s title=%s", rm.ID, rm.Title)
	}

	if !*verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	api := httpapi.New(cfg, sessionMgr, mt)

	// Create server with h2c (HTTP/2 cleartext) support
	serverAddr := cfg.Server.Addr
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           h2c.NewHandler(api.Handler(), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrCh := make(chan error, 1)
	serverStartedCh := make(chan struct{})

	go func() {
		zlog.Info().Msgf("Starting server: addr=%s", serverAddr)
		close(serverStartedCh)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	<-serverStartedCh
	// Give the server a moment to fully initialize
	time.Sleep(100 * time.Millisecond)

	executeHooks(cfg.Server.Hooks.OnStarted, "on_started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
	case err := <-serverErrCh:
		return errors.Wrap(err, "server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Drop subscribers first so open event streams do not hold up shutdown
	sessionMgr.GetNotificationManager().Close()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}

	zlog.Info().Msg("Server stopped")

	executeHooks(cfg.Server.Hooks.OnStopped, "on_stopped")

	return nil
}

// openStore opens the configured room store.
func openStore(cfg config.StoreConfig) (session.Store, func(), error) {
	switch cfg.Driver {
	case "sqlite", "postgres":
		st, err := gormstore.Open(cfg.Driver, cfg.DSN)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "failed to open %s store", cfg.Driver)
		}
		zlog.Info().Msgf("Room store: driver=%s", cfg.Driver)
		return st, func() {
			if err := st.Close(); err != nil {
				zlog.Error().Msgf("Failed to close store: %v", err)
			}
		}, nil
	default:
		zlog.Info().Msg("Room store: driver=memory (rooms are lost on restart)")
		return memstore.New(), func() {}, nil
	}
}

// printFilters prints available filters.
func printFilters() {
	registered := filter.GetRegistered()
	names := make([]string, 0, len(registered))
	for name := range registered {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("Available Filters:")
	for _, name := range names {
		f := registered[name]()
		codes := strings.Join(f.ReturnCodes(), ", ")
		fmt.Printf("  %-30s - %s [codes: %s]\n", f.Name(), f.Description(), codes)
	}
}

// printFlowRules prints the flow rule catalog.
func printFlowRules() {
	fmt.Println("Flow Rules:")
	for _, r := range flowrule.DefaultCatalog() {
		s := r.QueueSettings
		fmt.Printf("  %-15s - %s\n", r.ID, r.Description)
		fmt.Printf("  %-15s   limit=%s/%d rotation=%s first_time_boost=%t\n", "", s.LimitMode, s.LimitCount, s.Rotation, s.FirstTimeBoost)
	}
}

// executeHooks runs a list of shell commands.
func executeHooks(hooks []string, stage string) {
	if len(hooks) == 0 {
		return
	}

	zlog.Info().Msgf("Executing %s hooks (%d commands)", stage, len(hooks))

	for _, hook := range hooks {
		zlog.Info().Msgf("Executing hook: %s", hook)
		// Use sh -c to allow shell features like redirection or pipes
		cmd := exec.Command("sh", "-c", hook)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			zlog.Error().Err(err).Msgf("Failed to execute hook: %s", hook)
		}
	}
}
