package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/venturelab/adsgw/internal/config"
	"github.com/venturelab/adsgw/internal/logger"
	"github.com/venturelab/adsgw/internal/server"
	"github.com/venturelab/adsgw/internal/toolhost"
)

const (
	logFileName     = "adsgw.log"
	rpcLogFileName  = "rpc-messages.jsonl"
	shutdownTimeout = 10 * time.Second
	// writeSlack is added to the tool host timeout so a timed out search
	// can still be reported to the caller.
	writeSlack = 15 * time.Second
)

var (
	configFile string
	listenAddr string
	envFile    string
	logDir     string
	timeout    time.Duration
	retries    int
	debugLog   = logger.New("cmd:root")
	version    = "dev" // Default version, overridden by SetVersion
)

var rootCmd = &cobra.Command{
	Use:     "adsgw",
	Short:   "Authenticated HTTP gateway for ads reporting searches",
	Version: version,
	Long: `adsgw accepts search requests over HTTP and forwards them as JSON-RPC
tools/call requests to a remote tool host, returning the tool's payload as
plain JSON.

Settings come from the config file, then the environment (API_TOKEN, MCP_URL,
MCP_TOKEN, PORT, GOOGLE_ADS_CUSTOMER_ID, GOOGLE_ADS_LOGIN_CUSTOMER_ID,
ADSGW_CLIENT_NAME, ADSGW_LOG_DIR), then the flags below.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVarP(&configFile, "config", "c", config.DefaultConfigFile, "Path to config file (.toml, .yaml or .yml)")
	rootCmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "HTTP server listen address (overrides gateway.listen)")
	rootCmd.Flags().StringVar(&envFile, "env", "", "Path to .env file to load environment variables")
	rootCmd.Flags().StringVar(&logDir, "log-dir", "", "Directory for "+logFileName+" and "+rpcLogFileName)
	rootCmd.Flags().DurationVar(&timeout, "timeout", 0, "Tool host request timeout (overrides upstream.timeout)")
	rootCmd.Flags().IntVar(&retries, "retries", 0, "Extra attempts for requests that never reached the tool host")

	rootCmd.AddCommand(newCompletionCmd())
}

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	closeLoggers := initLoggers(cfg.Logging.Dir)
	defer closeLoggers()

	client, err := newToolhostClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to create tool host client: %w", err)
	}

	srv := server.New(server.Options{
		APIKey:          cfg.Gateway.APIKey,
		ClientName:      cfg.Ads.Client,
		CustomerID:      cfg.Ads.CustomerID,
		LoginCustomerID: cfg.Ads.LoginCustomerID,
		Version:         version,
	}, client)

	if cfg.Gateway.APIKey == "" {
		log.Println("WARNING: no API key configured, /api routes are unauthenticated")
	}
	logger.LogInfo("startup", "adsgw %s: listen=%s, upstream=%s, tool=%s, timeout=%s, retries=%d",
		version, cfg.Gateway.Listen, cfg.Upstream.URL, cfg.Upstream.Tool, cfg.Upstream.Timeout, cfg.Upstream.Retries)

	httpServer := server.CreateHTTPServer(cfg.Gateway.Listen, srv, cfg.Upstream.Timeout+writeSlack)
	return serve(ctx, httpServer)
}

// loadConfig layers the .env file, config file, environment and flags, then
// validates the result.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if envFile != "" {
		debugLog.Printf("Loading environment from file: %s", envFile)
		if err := config.LoadEnvFile(envFile); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	applyFlags(cmd, cfg)
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlags copies explicitly set flags over cfg.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("listen") {
		cfg.Gateway.Listen = listenAddr
	}
	if flags.Changed("log-dir") {
		cfg.Logging.Dir = logDir
	}
	if flags.Changed("timeout") {
		cfg.Upstream.Timeout = timeout
	}
	if flags.Changed("retries") {
		cfg.Upstream.Retries = retries
	}
	debugLog.Printf("Effective config: listen=%s, timeout=%s, retries=%d, log_dir=%s",
		cfg.Gateway.Listen, cfg.Upstream.Timeout, cfg.Upstream.Retries, cfg.Logging.Dir)
}

// initLoggers opens the file and JSONL loggers under dir and returns a
// function closing both.
func initLoggers(dir string) func() {
	if err := logger.InitFileLogger(dir, logFileName); err != nil {
		log.Printf("WARNING: Failed to initialize file logger: %v", err)
	}
	if err := logger.InitJSONLLogger(dir, rpcLogFileName); err != nil {
		log.Printf("WARNING: Failed to initialize JSONL logger: %v", err)
	}
	return func() {
		_ = logger.CloseJSONLLogger()
		_ = logger.CloseGlobalLogger()
	}
}

func newToolhostClient(cfg *config.Config) (*toolhost.Client, error) {
	opts := []toolhost.Option{
		toolhost.WithTimeout(cfg.Upstream.Timeout),
		toolhost.WithRetries(cfg.Upstream.Retries),
		toolhost.WithSearchTool(cfg.Upstream.Tool),
		toolhost.WithBearerToken(cfg.Upstream.Token),
	}
	for key, value := range cfg.Upstream.Headers {
		opts = append(opts, toolhost.WithHeader(key, value))
	}
	return toolhost.NewClient(cfg.Upstream.URL, opts...)
}

// serve runs httpServer until ctx is cancelled, then shuts it down
// gracefully. A listener failure ends serve with that error.
func serve(ctx context.Context, httpServer *http.Server) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("Listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		logger.LogInfo("shutdown", "HTTP server stopped")
		return nil
	})

	return g.Wait()
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// SetVersion sets the version string for the CLI
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
	config.SetVersion(v)
}
