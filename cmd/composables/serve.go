package main

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/composables/pkg/hub"
	"github.com/vango-dev/composables/pkg/metrics"
	"github.com/vango-dev/composables/pkg/storage"
)

func serveCmd(g *globals) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the storage sync hub",
		Long: `Run the storage sync hub.

Clients connect to /ws and receive every change made by other
clients. Local storage is kept in the configured backend; session
storage lives in memory for the lifetime of the hub.

Endpoints:
  GET    /healthz
  GET    /metrics          Prometheus metrics
  GET    /ws               websocket relay
  GET    /storage          all items (?area=local|session)
  GET    /storage/{key}
  PUT    /storage/{key}
  DELETE /storage/{key}
  DELETE /storage

Examples:
  composables serve
  composables serve --addr=0.0.0.0:7300`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				g.cfg.Hub.Addr = addr
				if err := g.cfg.Validate(); err != nil {
					return err
				}
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, g)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from config)")

	return cmd
}

func runServe(ctx context.Context, g *globals) error {
	local, closeBackend, err := openBackend(g.cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeBackend(); err != nil {
			g.logger.Error("close storage backend", "error", err)
		}
	}()

	opts := []hub.Option{
		hub.WithLogger(g.logger),
		hub.WithMetrics(metrics.New()),
		hub.WithShutdownTimeout(g.cfg.ShutdownTimeout()),
	}
	if check := checkOrigin(g.cfg.Hub.AllowedOrigins); check != nil {
		opts = append(opts, hub.WithCheckOrigin(check))
	}
	srv := hub.NewServer(storage.NewWindow(nil, local, nil), opts...)

	g.logger.Info("storage backend", "backend", g.cfg.Storage.Backend)
	return srv.Run(ctx, g.cfg.Hub.Addr)
}

// checkOrigin accepts the hub's own host plus allowed. "*" accepts every
// origin. It returns nil, the websocket default, when allowed is empty.
func checkOrigin(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}
