package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/udlcore/udl/internal/actions"
	"github.com/udlcore/udl/internal/config"
	"github.com/udlcore/udl/internal/deltasync"
	"github.com/udlcore/udl/internal/events"
	"github.com/udlcore/udl/internal/health"
	"github.com/udlcore/udl/internal/httpmw"
	"github.com/udlcore/udl/internal/obslog"
	"github.com/udlcore/udl/internal/refregistry"
	"github.com/udlcore/udl/internal/sourcecache"
	"github.com/udlcore/udl/internal/sourcing"
	"github.com/udlcore/udl/internal/store"
	"github.com/udlcore/udl/internal/version"
	"github.com/udlcore/udl/internal/webhook"
	"github.com/udlcore/udl/internal/wsserver"
	"github.com/udlcore/udl/internal/xerrors"
)

// ServerCmd starts the udl server (spec §6 "External interfaces").
var ServerCmd = &cobra.Command{
	Use:     "server",
	Aliases: []string{"serve"},
	Short:   "Start the udl server",
	Long:    `Start the node store, plugin loader, webhook pipeline, WebSocket broadcaster, and delta-sync/health HTTP endpoints.`,
	RunE:    runServer,
}

var (
	serverHost  string
	serverPort  int
	serverDev   bool
	serverWSDir string
)

func init() {
	ServerCmd.Flags().StringVar(&serverHost, "host", "", "Bind host (overrides config)")
	ServerCmd.Flags().IntVar(&serverPort, "port", 0, "Bind port (overrides config)")
	ServerCmd.Flags().BoolVar(&serverDev, "dev", false, "Enable permissive dev-mode CORS")
	ServerCmd.Flags().StringVar(&serverWSDir, "ws-path", "/ws", "Path the WebSocket server attaches to")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return xerrors.Wrap(err, "loading configuration")
	}

	host := cfg.Host
	if serverHost != "" {
		host = serverHost
	}
	port := cfg.Port
	if serverPort != 0 {
		port = serverPort
	}
	addr := fmt.Sprintf("%s:%d", host, port)

	st := store.New()
	deletionLog := store.NewDeletionLog()
	bus := events.NewBus()

	actionsCtx := &actions.Context{Store: st, Bus: bus, DeletionLog: deletionLog}

	refRegistry := refregistry.New()
	pluginRegistry := sourcing.NewRegistry(version.Version)
	registerBuiltinPlugins(pluginRegistry)

	homeDir, _ := os.UserHomeDir()
	cacheRoot := filepath.Join(homeDir, ".udl", "cache")

	webhookRegistry := webhook.NewRegistry()
	webhookDispatcher := &webhook.Dispatcher{Registry: webhookRegistry}
	webhookQueue := webhook.NewQueue(0, webhookDispatcher.Process)
	webhookHandler := &webhook.HTTPHandler{Registry: webhookRegistry, Queue: webhookQueue}

	loader := &sourcing.Loader{
		Registry: pluginRegistry,
		Bundles:  &sourcing.BundleFetcher{CacheDir: filepath.Join(cacheRoot, "bundles")},
		Cache:    sourcecache.New(),
	}

	loadCtx := &sourcing.LoadContext{
		Ctx:         context.Background(),
		Actions:     actionsCtx,
		RefRegistry: refRegistry,
		Webhooks:    webhookRegistry,
		CacheDir:    cacheRoot,
	}

	result, err := loader.Load(cfg.Plugins, loadCtx)
	if err != nil {
		obslog.Get().Warnw("plugin loading completed with errors", obslog.FieldError, err)
	}
	obslog.Get().Infow("plugin load complete", "plugins", len(cfg.Plugins), "codegenEntries", len(result.Codegen))

	wsSrv := wsserver.New(bus)
	wsSrv.Start()
	defer wsSrv.Close()

	syncHandler := &deltasync.Handler{Store: st, DeletionLog: deletionLog}
	healthHandler := &health.Handler{Store: st}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", httpmw.CORS(serverDev, nil, httpmw.RequestLog(obslog.Get(), healthHandler.HandleHealth)))
	mux.HandleFunc("/ready", httpmw.CORS(serverDev, nil, httpmw.RequestLog(obslog.Get(), healthHandler.HandleReady)))
	mux.HandleFunc("/_sync", httpmw.CORS(serverDev, nil, httpmw.RequestLog(obslog.Get(), syncHandler.ServeHTTP)))
	mux.HandleFunc("/_webhooks/", httpmw.CORS(serverDev, nil, httpmw.RequestLog(obslog.Get(), webhookHandler.ServeHTTP)))
	mux.Handle(serverWSDir, wsSrv)

	httpSrv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	printStartupBanner(addr, len(cfg.Plugins))

	errChan := make(chan error, 1)
	go func() {
		obslog.Get().Infow("server listening", "addr", addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return xerrors.Wrap(err, "server failed to start")
	case <-sigChan:
		pterm.Info.Println("\nShutting down gracefully (press Ctrl+C again to force)...")

		shutdownDone := make(chan error, 1)
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			shutdownDone <- httpSrv.Shutdown(ctx)
		}()

		select {
		case err := <-shutdownDone:
			if err != nil {
				return xerrors.Wrap(err, "server shutdown")
			}
			pterm.Success.Println("Server stopped cleanly")
			return nil
		case <-sigChan:
			pterm.Warning.Println("\nForce shutdown - exiting immediately")
			os.Exit(1)
			return nil
		}
	}
}

// registerBuiltinPlugins registers any statically-linked source plugins
// shipped with this binary. None ship yet — every source is an external
// plugin resolved via the bundle fetcher (spec §4.4 resolution tier 3).
func registerBuiltinPlugins(r *sourcing.Registry) {
	_ = r
}
