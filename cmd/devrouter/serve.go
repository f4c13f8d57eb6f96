package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/CageChen/devrouter/internal/config"
	"github.com/CageChen/devrouter/internal/handler"
	"github.com/CageChen/devrouter/internal/markdown"
	"github.com/CageChen/devrouter/internal/metrics"
	"github.com/CageChen/devrouter/internal/phpcgi"
	"github.com/CageChen/devrouter/internal/router"
	"github.com/CageChen/devrouter/internal/watcher"
	"github.com/spf13/cobra"
)

// serveFlags holds the serve flags. Bools only override the config file
// when given explicitly.
type serveFlags struct {
	configFile string
	root       string
	host       string
	port       int
	phpCGI     string
	watch      bool
	open       bool
	readme     bool
	metrics    bool
	showHidden bool
}

func serveCmd() *cobra.Command {
	flags := &serveFlags{}
	cmd := &cobra.Command{
		Use:   "serve [root]",
		Short: "Serve a document root with directory listings",
		Args:  cobra.MaximumNArgs(1),
		RunE:  flags.run,
	}
	flags.register(cmd)
	return cmd
}

func (f *serveFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.configFile, "config", "c", "", "Configuration file path (.yaml or .toml)")
	fs.StringVarP(&f.root, "root", "r", "", "Document root (default: current directory)")
	fs.StringVar(&f.host, "host", "", "Listen host (default: localhost)")
	fs.IntVarP(&f.port, "port", "p", 0, "HTTP server port (default: 8080)")
	fs.StringVar(&f.phpCGI, "php-cgi", "", "php-cgi binary used to run .php documents")
	fs.BoolVar(&f.watch, "watch", true, "Reload open listings when files change")
	fs.BoolVar(&f.open, "open", false, "Open browser on startup")
	fs.BoolVar(&f.readme, "readme", false, "Show README.md below listings")
	fs.BoolVar(&f.metrics, "metrics", false, "Expose Prometheus metrics at "+handler.MetricsPath)
	fs.BoolVar(&f.showHidden, "hidden", false, "List dot files")
}

func (f *serveFlags) overrides(cmd *cobra.Command, args []string) config.Overrides {
	o := config.Overrides{
		ConfigFile: f.configFile,
		Root:       f.root,
		Host:       f.host,
		Port:       f.port,
		PHPCGI:     f.phpCGI,
	}
	if len(args) == 1 {
		o.Root = args[0]
	}

	fs := cmd.Flags()
	if fs.Changed("watch") {
		o.Watch = &f.watch
	}
	if fs.Changed("open") {
		o.Open = &f.open
	}
	if fs.Changed("readme") {
		o.Readme = &f.readme
	}
	if fs.Changed("metrics") {
		o.Metrics = &f.metrics
	}
	if fs.Changed("hidden") {
		o.ShowHidden = &f.showHidden
	}
	return o
}

func (f *serveFlags) run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(f.overrides(cmd, args))
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	return serve(cfg)
}

func serve(cfg *config.Config) error {
	success("devrouter - Local Web Server")
	info("Config file: %s", cfg.GetConfigFilePath())
	info("Document root: %s", cfg.Root)
	info("Index documents: %v", cfg.Indexes)

	opts := []router.Option{
		router.WithIndexes(cfg.Indexes...),
		router.WithHidden(cfg.ShowHidden),
		router.WithExclude(cfg.Exclude),
	}
	if cfg.Readme {
		opts = append(opts, router.WithReadme(markdown.NewParser()))
	}

	var php *phpcgi.Executor
	if cfg.PHPCGI != "" {
		e, err := phpcgi.New(cfg.PHPCGI, cfg.Root)
		if err != nil {
			return err
		}
		php = e
		info("PHP: %s", php.Binary())
	}

	var m *metrics.Collector
	if cfg.Metrics {
		m = metrics.New()
		info("Metrics: http://%s%s", cfg.Address(), handler.MetricsPath)
	}

	// Setup file watcher if enabled
	var ws *handler.WSHandler
	if cfg.Watch {
		w, err := watcher.New(cfg)
		if err != nil {
			warn("failed to create file watcher: %v", err)
		} else if err := w.Start(); err != nil {
			warn("failed to start file watcher: %v", err)
			_ = w.Stop()
		} else {
			defer func() { _ = w.Stop() }()
			ws = handler.NewWSHandler(m)
			w.OnChange(ws.OnFileChange)
			opts = append(opts, router.WithLiveReload(handler.ReloadPath))
			info("Live reload enabled")
		}
	}

	listing := handler.NewListingHandler(cfg.Root, router.New(cfg.Root, opts...), php, m)
	engine := handler.NewEngine(handler.EngineOptions{
		Listing: listing,
		WS:      ws,
		Metrics: m,
	})

	url := "http://" + cfg.Address()
	success("Server starting at: %s", url)

	// Open browser if requested
	if cfg.Open {
		go openBrowser(url)
	}

	srv := &http.Server{
		Addr:              cfg.Address(),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func openBrowser(url string) {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "windows":
		cmd = "rundll32"
		args = []string{"url.dll,FileProtocolHandler", url}
	case "darwin":
		cmd = "open"
		args = []string{url}
	default: // linux, etc.
		cmd = "xdg-open"
		args = []string{url}
	}

	_ = exec.Command(cmd, args...).Start()
}
