package commands

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gorilla/securecookie"
	"github.com/leapstack-labs/leapxmla/internal/catalog"
	"github.com/leapstack-labs/leapxmla/internal/rowset"
	"github.com/leapstack-labs/leapxmla/internal/server"
	"github.com/leapstack-labs/leapxmla/internal/session"
	"github.com/spf13/cobra"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the XMLA server",
		Long: `Start an HTTP server answering XMLA Discover requests on /xmla.

The server also exposes /healthz, /metrics, /sessions and a /status page.
With --watch the catalog file is reloaded whenever it changes.`,
		Example: `  leapxmla serve --catalog catalog.yaml --port 8080
  leapxmla serve --watch`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().String("host", "", "Host to listen on")
	cmd.Flags().Int("port", 0, "Port to listen on")
	cmd.Flags().Bool("watch", false, "Reload the catalog file when it changes")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := cc.OpenBackend(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = backend.Close() }()

	cfg := cc.Cfg.Server
	secret := cfg.SessionSecret
	if secret == "" {
		secret = string(securecookie.GenerateRandomKey(32))
		cc.Logger.Warn("server.session_secret is not set; session cookies will not survive a restart")
	}

	sessions := session.New(session.Config{
		Timeout: cfg.SessionTimeout,
		Logger:  cc.Logger.With("component", "session"),
	})

	var watcher *catalog.Watcher
	if cfg.WatchCatalog {
		watcher = &catalog.Watcher{
			Path:    cc.Cfg.Catalog.Path,
			Factory: backend.Factory,
			Options: backend.Options,
			Logger:  cc.Logger.With("component", "watcher"),
		}
	}

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	srv := server.New(server.Config{
		Addr: addr,
		Engine: rowset.New(rowset.Config{
			Factory:  backend.Factory,
			Sessions: sessions,
			Logger:   cc.Logger.With("component", "rowset"),
		}),
		Sessions:        sessions,
		Catalog:         backend.Factory,
		Watcher:         watcher,
		SessionSecret:   secret,
		CookieName:      cfg.CookieName,
		ShutdownTimeout: cfg.ShutdownTimeout,
		Logger:          cc.Logger.With("component", "server"),
	})

	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Serving XMLA on http://%s/xmla\n", addr)
	return srv.Serve(ctx)
}
