// Package cli wires the particula commands: sampling stills, the live
// terminal view, scripted simulations and the frame server.
package cli

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/particula/pkg/buildinfo"
	"github.com/matzehuels/particula/pkg/cache"
	"github.com/matzehuels/particula/pkg/config"
	"github.com/matzehuels/particula/pkg/pipeline"
)

// appName names the binary and its XDG directories.
const appName = "particula"

// CLI is the state shared by every command.
type CLI struct {
	Logger *log.Logger

	configFlag string
	verbose    bool
}

// New returns a CLI that logs to w at info level.
func New(w io.Writer) *CLI {
	return &CLI{Logger: newLogger(w, log.InfoLevel)}
}

// RootCommand builds the command tree.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Procedural particle shapes that breathe and follow your hands",
		Long: `particula samples point clouds for eight procedural shapes and animates
them: the cloud breathes while no hands are seen and scales with the
distance between hands (or a pinch) when they are.

Clouds render to svg, png, json or text, play live in the terminal, run
against scripted gestures, or stream over a WebSocket.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if c.verbose {
				c.Logger.SetLevel(log.DebugLevel)
			}
			cmd.SetContext(log.WithContext(cmd.Context(), c.Logger))
		},
	}
	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.StringVar(&c.configFlag, "config", "", "config file (default $XDG_CONFIG_HOME/particula/config.toml)")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "log debug messages")

	root.AddCommand(
		c.sampleCommand(),
		c.shapesCommand(),
		c.simulateCommand(),
		c.liveCommand(),
		c.serveCommand(),
		c.configCommand(),
		c.cacheCommand(),
		c.completionCommand(),
	)
	return root
}

func (c *CLI) configPath() (string, error) {
	if c.configFlag != "" {
		return c.configFlag, nil
	}
	return config.Path()
}

// loadConfig returns the config and the path it came from. A missing file
// is not an error.
func (c *CLI) loadConfig() (*config.Config, string, error) {
	path, err := c.configPath()
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, path, err
	}
	c.Logger.Debug("config loaded", "path", path, "shape", cfg.Particles.Shape)
	return cfg, path, nil
}

// newRunner opens the configured cache and returns a runner over it. The
// caller closes the runner, which closes the cache.
func (c *CLI) newRunner(ctx context.Context, cfg *config.Config, noCache bool) (*pipeline.Runner, error) {
	backend, err := newCache(ctx, cfg, noCache)
	if err != nil {
		return nil, err
	}
	var keyer cache.Keyer
	if scope := cfg.Cache.Scope; scope != "" {
		keyer = cache.NewScopedKeyer(nil, scope+":")
	}
	r := pipeline.NewRunner(backend, keyer, c.Logger)
	r.ArtifactTTL = cfg.Cache.TTL.Duration
	return r, nil
}

// parseFormats splits a --format value such as "svg, PNG" into lower-case
// names. Empty means svg.
func parseFormats(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return []string{pipeline.FormatSVG}
	}
	return out
}
