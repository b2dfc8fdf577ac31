package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"crashgram/internal/environment"
	"crashgram/internal/notifier"
	"crashgram/internal/recovery"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run an HTTP server whose handler panics are reported",
		Long: `Run an HTTP server whose handler panics are reported to the chat.

Routes:
  GET /healthz   liveness probe
  GET /panic     panics on purpose, to exercise reporting end to end

The acting user of a request is taken from the X-Remote-User header.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = appConfig.Server.GetAddr()
			}
			client, probe, err := newNotifier(false)
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), addr, client, probe, appConfig.Server.GetShutdownTimeout())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "address to listen on (default :8080)")

	return cmd
}

func newRouter(client notifier.Notifier, probe environment.Probe) http.Handler {
	reporter := recovery.NewReporter(client,
		recovery.WithEnvironment(probe),
		recovery.WithLogger(log.Logger),
		recovery.WithIdentity(remoteUser),
	)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(reporter.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/panic", func(w http.ResponseWriter, r *http.Request) {
		panic("crashgram drill: deliberate panic")
	})

	return r
}

func remoteUser(r *http.Request) any {
	if user := strings.TrimSpace(r.Header.Get("X-Remote-User")); user != "" {
		return user
	}
	return nil
}

func runServer(ctx context.Context, addr string, client notifier.Notifier, probe environment.Probe, shutdownTimeout time.Duration) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              addr,
		Handler:           newRouter(client, probe),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", addr).Str("env", probe.Name()).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info().Msg("Shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
