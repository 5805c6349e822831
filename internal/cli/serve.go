package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/storytree"
	"github.com/aretw0/storytree/internal/config"
	httpadapter "github.com/aretw0/storytree/pkg/adapters/http"
	"github.com/aretw0/storytree/pkg/adapters/mcp"
	"github.com/aretw0/storytree/pkg/domain"
	"github.com/aretw0/storytree/pkg/library"
)

// ShutdownTimeout bounds the graceful stop of the servers.
const ShutdownTimeout = 5 * time.Second

// ServeOptions configures the serve and mcp commands.
type ServeOptions struct {
	Paths []string
	Addr  string
	Watch bool
}

// openLibrary loads the stories of the paths with the configured store.
// The returned function releases everything.
func openLibrary(ctx context.Context, cfg *config.Config, paths []string, hooks []domain.LifecycleHooks, logger *slog.Logger) (*library.Library, func(), error) {
	p, err := OpenStore(ctx, cfg.Store, logger)
	if err != nil {
		return nil, nil, err
	}
	host := storytree.New(
		storytree.WithLogger(logger),
		storytree.WithLifecycleHooks(combineHooks(append(hooks, debugHooks(logger))...)),
	)
	cleanup := func() {
		_ = host.Close()
		_ = p.Close()
	}

	lib := library.New(host, p.Sessions, library.WithLogger(logger))
	if err := lib.Load(ctx, paths...); err != nil {
		cleanup()
		return nil, nil, err
	}
	for _, f := range lib.Failures() {
		logger.Warn("Story not served", "path", f.Path, "err", f.Err)
	}
	if len(lib.Stories()) == 0 {
		cleanup()
		return nil, nil, fmt.Errorf("nothing to serve in %v", paths)
	}
	return lib, cleanup, nil
}

// Serve exposes the stories over HTTP until ctx is done.
func Serve(ctx context.Context, cfg *config.Config, opts ServeOptions, logger *slog.Logger) error {
	metrics := httpadapter.NewMetrics()
	lib, cleanup, err := openLibrary(ctx, cfg, opts.Paths, []domain.LifecycleHooks{metrics.Hooks()}, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	streams := httpadapter.NewStreamManager(logger)
	if opts.Watch {
		go func() {
			if err := lib.Watch(ctx, streams.Reloaded); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Watcher stopped", "err", err)
			}
		}()
	}

	srv := &http.Server{
		Addr: opts.Addr,
		Handler: httpadapter.NewHandler(lib,
			httpadapter.WithLogger(logger),
			httpadapter.WithMetrics(metrics),
			httpadapter.WithStreams(streams),
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Starting storytree server", "address", srv.Addr, "stories", len(lib.Stories()), "watch", opts.Watch)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info("Start shutdown")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("graceful shutdown did not complete in %v: %w", ShutdownTimeout, err)
		}
		logger.Info("Server stopped gracefully")
		return nil
	}
}

// MCP transports.
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
)

// MCPOptions configures the mcp command.
type MCPOptions struct {
	ServeOptions
	Transport string
	BaseURL   string
}

// ServeMCP exposes the stories as Model Context Protocol tools.
func ServeMCP(ctx context.Context, cfg *config.Config, opts MCPOptions, logger *slog.Logger) error {
	lib, cleanup, err := openLibrary(ctx, cfg, opts.Paths, nil, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	if opts.Watch {
		go func() {
			_ = lib.Watch(ctx, nil)
		}()
	}

	srv := mcp.NewServer(lib, mcp.WithLogger(logger))
	switch opts.Transport {
	case "", TransportStdio:
		logger.Info("Starting storytree MCP server (stdio)")
		return srv.ServeStdio()
	case TransportSSE:
		baseURL := opts.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost" + opts.Addr
		}
		return srv.ServeSSE(ctx, opts.Addr, baseURL)
	default:
		return fmt.Errorf("unknown transport %q (want stdio or sse)", opts.Transport)
	}
}
