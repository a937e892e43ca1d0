package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/particula/pkg/sampler"
	"github.com/matzehuels/particula/pkg/shape"
)

// shapesCommand lists the shape catalog.
func (c *CLI) shapesCommand() *cobra.Command {
	var (
		withStats bool
		count     int
		seed      uint64
	)

	cmd := &cobra.Command{
		Use:   "shapes",
		Short: "List the available shapes",
		Long: `List every shape with its display name, camera distance and spin.

With --stats each shape is sampled once and its radial distribution is
summarized.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !withStats {
				fmt.Println(shapeTable())
				return nil
			}
			stats, err := describeAll(count, seed)
			if err != nil {
				return err
			}
			fmt.Println(statsTable(stats))
			printDetail("%d particles per shape, seed %d", count, seed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&withStats, "stats", false, "sample each shape and show radial statistics")
	cmd.Flags().IntVarP(&count, "count", "n", sampler.DefaultCount, "particles per shape for --stats")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "random seed for --stats")

	return cmd
}

func shapeTable() string {
	t := newTable("Tag", "Name", "Camera", "Spin")
	for _, k := range shape.All() {
		p := shape.ProfileOf(k)
		tag := string(k)
		if k == shape.Default {
			tag += " " + StyleDim.Render("(default)")
		}
		t.Row(tag, p.Name, fmt.Sprintf("%.0f", p.CameraZ), describeSpins(p.Spins))
	}
	return t.Render()
}

// describeSpins renders spins as e.g. "y 0.30/s, z ~0.10@1.2".
func describeSpins(spins []shape.Spin) string {
	parts := make([]string, 0, len(spins))
	for _, s := range spins {
		var b strings.Builder
		b.WriteString(s.Axis.String())
		if s.Speed != 0 {
			fmt.Fprintf(&b, " %.2f/s", s.Speed)
		}
		if s.WobbleAmp != 0 {
			fmt.Fprintf(&b, " ~%.2f@%.1f", s.WobbleAmp, s.WobbleFreq)
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, ", ")
}

type shapeStats struct {
	kind  shape.Kind
	stats sampler.Stats
}

// describeAll samples every shape concurrently.
func describeAll(count int, seed uint64) ([]shapeStats, error) {
	kinds := shape.All()
	out := make([]shapeStats, len(kinds))
	var g errgroup.Group
	for i, k := range kinds {
		g.Go(func() error {
			cloud := sampler.Generate(k, count, sampler.NewSource(seed))
			st, err := sampler.Describe(cloud)
			if err != nil {
				return err
			}
			out[i] = shapeStats{kind: k, stats: st}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func statsTable(rows []shapeStats) string {
	t := newTable("Tag", "Mean r", "Median r", "P95 r", "Max r", "Extent", "Jitter")
	for _, r := range rows {
		s := r.stats
		t.Row(
			string(r.kind),
			fmt.Sprintf("%.2f", s.MeanRadius),
			fmt.Sprintf("%.2f", s.MedianRadius),
			fmt.Sprintf("%.2f", s.P95Radius),
			fmt.Sprintf("%.2f", s.MaxRadius),
			fmt.Sprintf("%.1f×%.1f×%.1f", s.Extent.X, s.Extent.Y, s.Extent.Z),
			fmt.Sprintf("%.2f", s.MeanJitter),
		)
	}
	return t.Render()
}
