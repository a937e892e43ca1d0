package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/particula/pkg/config"
	"github.com/matzehuels/particula/pkg/errors"
	"github.com/matzehuels/particula/pkg/pipeline"
	"github.com/matzehuels/particula/pkg/shape"
)

// stdoutPath writes a single artifact to standard output.
const stdoutPath = "-"

// sampleFlags holds the command-line flags of the sample command. Zero
// values defer to the config file.
type sampleFlags struct {
	output    string
	formats   string
	noCache   bool
	refresh   bool
	count     int
	seed      uint64
	scale     float64
	time      float64
	width     int
	height    int
	cols      int
	rows      int
	color     string
	pointSize float64
	noCore    bool
}

// sampleCommand creates the sample command.
func (c *CLI) sampleCommand() *cobra.Command {
	var flags sampleFlags

	cmd := &cobra.Command{
		Use:   "sample [shape]",
		Short: "Sample a shape and render it to SVG, PNG, JSON or text",
		Long: `Sample a particle cloud for a shape, pose it at a target scale and render it.

Seeded clouds and their renders are cached, so repeating a command with the
same seed is instant. Without --seed every run draws a fresh cloud.`,
		Example: `  particula sample kite --seed 7
  particula sample galaxy --scale 3 -f svg,png -o out/galaxy
  particula sample sphere -f txt -o -`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeShapes,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := c.loadConfig()
			if err != nil {
				return err
			}
			opts, err := renderDefaults(cfg)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				opts.Shape = args[0]
			}
			flags.apply(cmd.Flags(), &opts)
			return c.runSample(cmd, cfg, opts, flags)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.output, "output", "o", "", "output file (single format), base path (several), or - for stdout")
	f.StringVarP(&flags.formats, "format", "f", "", "comma-separated output formats: svg (default), png, json, txt")
	f.BoolVar(&flags.noCache, "no-cache", false, "disable caching")
	f.BoolVar(&flags.refresh, "refresh", false, "resample even if the cloud is cached")
	f.IntVarP(&flags.count, "count", "n", 0, "number of particles (default from config)")
	f.Uint64Var(&flags.seed, "seed", 0, "random seed; 0 draws a fresh cloud")
	f.Float64Var(&flags.scale, "scale", pipeline.DefaultScale, "target mesh scale in [0.5, 5]")
	f.Float64Var(&flags.time, "time", 0, "seconds since the shape appeared (sets the rotation)")
	f.IntVar(&flags.width, "width", pipeline.DefaultWidth, "image width in pixels")
	f.IntVar(&flags.height, "height", pipeline.DefaultHeight, "image height in pixels")
	f.IntVar(&flags.cols, "cols", 0, "text columns (txt format)")
	f.IntVar(&flags.rows, "rows", 0, "text rows (txt format)")
	f.StringVar(&flags.color, "color", "", "base particle color, e.g. #ff6b9d (default from config)")
	f.Float64Var(&flags.pointSize, "point-size", 0, "particle radius in pixels at unit depth")
	f.BoolVar(&flags.noCore, "no-core", false, "omit the glowing core")
	_ = cmd.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return pipeline.Formats(), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// apply copies the flags that were set onto opts.
func (s *sampleFlags) apply(fs *pflag.FlagSet, opts *pipeline.Options) {
	opts.Formats = parseFormats(s.formats)
	opts.Refresh = s.refresh
	opts.NoCore = s.noCore
	opts.Scale = s.scale
	opts.Time = s.time
	opts.Width = s.width
	opts.Height = s.height
	opts.Cols = s.cols
	opts.Rows = s.rows
	opts.PointSize = s.pointSize
	if fs.Changed("count") {
		opts.Count = s.count
	}
	if fs.Changed("seed") {
		opts.Seed = s.seed
	}
	if fs.Changed("color") {
		opts.Color = s.color
	}
}

// renderDefaults builds pipeline options from the config.
func renderDefaults(cfg *config.Config) (pipeline.Options, error) {
	sceneOpts, err := cfg.SceneOptions()
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{
		Shape: cfg.Particles.Shape,
		Count: cfg.Particles.Count,
		Seed:  cfg.Particles.Seed,
		Color: cfg.Particles.Color,
		Scene: sceneOpts,
	}, nil
}

func (c *CLI) runSample(cmd *cobra.Command, cfg *config.Config, opts pipeline.Options, flags sampleFlags) error {
	if err := opts.Normalize(); err != nil {
		return err
	}
	toStdout := flags.output == stdoutPath
	if toStdout && len(opts.Formats) != 1 {
		return errors.New(errors.ErrCodeInvalidInput, "writing to stdout needs exactly one format, got %d", len(opts.Formats))
	}

	ctx := cmd.Context()
	runner, err := c.newRunner(ctx, cfg, flags.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	kind := opts.Kind()
	name := shape.ProfileOf(kind).Name

	var sp *spinner
	if !toStdout {
		sp = startSpinner(ctx, os.Stderr, fmt.Sprintf("Sampling %s...", name))
	}
	watch := startStopwatch(c.Logger)
	res, err := runner.Execute(ctx, opts)
	sp.stop()
	if err != nil {
		return err
	}
	watch.lap("sampled", "shape", kind, "particles", res.Cloud.Len())

	if toStdout {
		_, err := cmd.OutOrStdout().Write(res.Artifacts[opts.Formats[0]])
		return err
	}

	paths := outputPaths(flags.output, string(kind), opts.Formats)
	for _, format := range opts.Formats {
		if err := writeFile(paths[format], res.Artifacts[format]); err != nil {
			return err
		}
	}

	printSuccess("Rendered %s at scale %s", StyleHighlight.Render(name), StyleValue.Render(fmt.Sprintf("%.2f", res.Frame.Scale)))
	printCloudStats(res.Cloud.Len(), res.Cloud.Seed, res.CloudCached)
	for _, format := range opts.Formats {
		printFile(os.Stdout, paths[format])
	}
	if res.Cloud.Seed != 0 && opts.Seed == 0 {
		printNextStep("Reproduce", fmt.Sprintf("%s sample %s --seed %d", appName, kind, res.Cloud.Seed))
	}
	return nil
}

// outputPaths maps each format to its file. A single format writes to
// output as given; several formats use output as a base path.
func outputPaths(output, base string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if output == "" {
		output = base
	}
	if len(formats) == 1 && filepath.Ext(output) != "" {
		paths[formats[0]] = output
		return paths
	}
	stem := strings.TrimSuffix(output, filepath.Ext(output))
	for _, f := range formats {
		paths[f] = stem + "." + f
	}
	return paths
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", dir)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", path)
	}
	return nil
}

// completeShapes offers shape tags for the first argument.
func completeShapes(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var out []string
	for _, k := range shape.All() {
		out = append(out, string(k)+"\t"+shape.ProfileOf(k).Name)
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
