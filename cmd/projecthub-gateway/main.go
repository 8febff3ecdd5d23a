package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Sternrassler/projecthub-gateway/pkg/cache"
	"github.com/Sternrassler/projecthub-gateway/pkg/config"
	"github.com/Sternrassler/projecthub-gateway/pkg/logging"
	"github.com/Sternrassler/projecthub-gateway/pkg/metrics"
	"github.com/Sternrassler/projecthub-gateway/pkg/store"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Gateway stopped")
	}
}

func run() error {
	// Configuration from environment
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.Setup(cfg.LoggingConfig())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Setup store
	client, err := store.New(cfg.StoreConfig(), logging.NewLogger("store"),
		store.WithStateHook(cacheAvailabilityHook(logging.NewLogger("cache"))))
	if err != nil {
		return fmt.Errorf("create store: %w", err)
	}
	if err := connectStore(ctx, client, cfg.StartupPolicy, logger); err != nil {
		return err
	}

	mw, err := cache.New(client, cfg.CacheConfig(), logging.NewLogger("cache"))
	if err != nil {
		return fmt.Errorf("create cache middleware: %w", err)
	}

	upstream, err := url.Parse(cfg.UpstreamURL)
	if err != nil {
		return fmt.Errorf("parse upstream url: %w", err)
	}

	srv := &http.Server{
		Handler:           newHandler(newProxy(upstream, logging.NewLogger("proxy")), client, mw, logging.NewLogger("http")),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", ":"+strconv.Itoa(cfg.Port))
	if err != nil {
		client.Disconnect(context.Background())
		return fmt.Errorf("listen: %w", err)
	}

	logger.Info().
		Str("addr", ln.Addr().String()).
		Str("upstream", upstream.String()).
		Str("store", cfg.StoreConfig().Addr()).
		Msg("Starting projecthub gateway")

	return serve(ctx, srv, ln, mw, client, cfg.ShutdownTimeout, logger)
}

// connectStore applies the startup policy to the first connection attempt.
// Under StartupDegrade a failure is logged and the supervisor keeps
// reconnecting; under StartupFatal it is returned.
func connectStore(ctx context.Context, client *store.Client, policy config.StartupPolicy, logger zerolog.Logger) error {
	err := client.Connect(ctx)
	if err == nil {
		return nil
	}

	if policy == config.StartupDegrade {
		logger.Warn().Err(err).Msg("Store unavailable at startup, serving without cache")
		return nil
	}

	client.Disconnect(context.Background())
	return fmt.Errorf("connect store: %w", err)
}

// cacheAvailabilityHook reports when the response cache stops and resumes
// serving, based on the store's connection events.
func cacheAvailabilityHook(logger zerolog.Logger) store.Hook {
	var degraded atomic.Bool
	return func(ev store.Event) {
		switch ev.State {
		case store.StateError:
			if degraded.CompareAndSwap(false, true) {
				logger.Warn().Err(ev.Err).Msg("Response cache degraded, requests go straight to upstream")
			}
		case store.StateReady:
			if degraded.CompareAndSwap(true, false) {
				logger.Info().Int("attempt", ev.Attempt).Msg("Response cache restored")
			}
		}
	}
}

// serve runs srv on ln until ctx is cancelled or the server fails, then
// shuts down in order: stop accepting and drain requests, wait for pending
// cache writes, disconnect the store.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, mw *cache.Middleware, client *store.Client, timeout time.Duration, logger zerolog.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		var errs []error
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown server: %w", err))
		}
		if err := mw.Wait(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("wait for cache writes: %w", err))
		}
		if err := client.Disconnect(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("disconnect store: %w", err))
		}

		if err := errors.Join(errs...); err != nil {
			return err
		}
		logger.Info().Msg("Shutdown complete")
		return nil
	})

	return g.Wait()
}

func newHandler(api http.Handler, client *store.Client, mw *cache.Middleware, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler)
	mux.Handle("GET /ready", readyHandler(client))
	mux.Handle("GET /metrics", metrics.Handler())
	mux.Handle("/", logging.RequestLogger(logger)(mw.Handler(api)))
	return mux
}

func newProxy(upstream *url.URL, logger zerolog.Logger) *httputil.ReverseProxy {
	proxy := httputil.NewSingleHostReverseProxy(upstream)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Error().Err(err).
			Str("method", r.Method).
			Str("url", r.RequestURI).
			Msg("Upstream request failed")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"message":"upstream unavailable"}`))
	}
	return proxy
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

type pinger interface {
	Ping(ctx context.Context) error
}

// readyHandler reports whether the store answers. The gateway serves
// requests either way; this only feeds readiness checks.
func readyHandler(p pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), time.Second)
		defer cancel()

		if err := p.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintf(w, "store unavailable: %v", err)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK")
	}
}
