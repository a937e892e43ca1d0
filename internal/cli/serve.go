package cli

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/particula/pkg/config"
	"github.com/matzehuels/particula/pkg/observability"
	"github.com/matzehuels/particula/pkg/pipeline"
	"github.com/matzehuels/particula/pkg/server"
	"github.com/matzehuels/particula/pkg/session"
)

type serveFlags struct {
	addr    string
	noCache bool
	watch   bool
	origins []string
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve shapes, stills and live sessions over HTTP",
		Long: `Start the frame server.

Stills are rendered through the same cached pipeline as "sample". Live
sessions run a scene per client; browsers stream frames and send hand
samples over /api/sessions/{id}/ws. Idle sessions expire after
server.session_ttl.

With --watch the config file is reloaded on change. New sessions and
renders pick up the new defaults; running sessions keep theirs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.addr, "addr", "", "listen address (default from config, "+server.DefaultAddr+")")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&flags.watch, "watch", true, "reload the config file when it changes")
	cmd.Flags().StringSliceVar(&flags.origins, "allow-origin", nil, "extra WebSocket origins to accept (host[:port], or * for any)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, flags serveFlags) error {
	logger := log.FromContext(ctx)
	cfg, path, err := c.loadConfig()
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, cfg, flags.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	sessOpts, rendOpts, err := serverDefaults(cfg, logger)
	if err != nil {
		return err
	}
	store := session.NewStore(cfg.Server.SessionTTL.Duration, cfg.Server.MaxSessions, logger)
	defer store.Close()

	addr := cfg.Server.Addr
	if flags.addr != "" {
		addr = flags.addr
	}
	metrics := observability.NewCounters()
	observability.Register(metrics.Hooks())
	defer observability.Reset()

	srv := server.New(server.Options{
		Addr:        addr,
		Runner:      runner,
		Sessions:    store,
		Session:     sessOpts,
		Render:      rendOpts,
		Logger:      logger,
		Metrics:     metrics,
		CheckOrigin: originChecker(flags.origins),
	})

	printInfo("Serving on %s", StyleHighlight.Render("http://"+describeAddr(addr)))
	printDetail("config: %s", path)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.ListenAndServe(ctx) })
	g.Go(func() error { return store.Run(ctx) })
	if flags.watch {
		w := &config.Watcher{
			Path:   path,
			Logger: logger,
			OnChange: func(cfg *config.Config) {
				sess, rend, err := serverDefaults(cfg, logger)
				if err != nil {
					logger.Warn("config not applied", "err", err)
					return
				}
				srv.SetDefaults(sess, rend)
			},
		}
		g.Go(func() error {
			if err := w.Run(ctx); err != nil {
				logger.Warn("config reload disabled", "err", err)
			}
			return nil
		})
	}
	return g.Wait()
}

// serverDefaults derives the session template and render defaults.
func serverDefaults(cfg *config.Config, logger *log.Logger) (session.Options, pipeline.Options, error) {
	rend, err := renderDefaults(cfg)
	if err != nil {
		return session.Options{}, pipeline.Options{}, err
	}
	driver, err := cfg.DriverOptions(logger)
	if err != nil {
		return session.Options{}, pipeline.Options{}, err
	}
	sess := session.Options{
		Shape:  cfg.Shape(),
		Scene:  rend.Scene,
		Driver: driver,
		FPS:    cfg.Server.FPS,
		Logger: logger,
	}
	return sess, rend, nil
}

// originChecker accepts same-origin upgrades plus the listed hosts. It
// returns nil, the upgrader's same-origin default, when allowed is empty.
func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	hosts := make(map[string]bool, len(allowed))
	for _, h := range allowed {
		hosts[strings.ToLower(strings.TrimSpace(h))] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || hosts["*"] {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		host := strings.ToLower(u.Host)
		return host == strings.ToLower(r.Host) || hosts[host] || hosts[u.Hostname()]
	}
}

// describeAddr makes a port-only address readable.
func describeAddr(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return fmt.Sprintf("0.0.0.0%s", addr)
	}
	return addr
}
