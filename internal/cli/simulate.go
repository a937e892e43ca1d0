package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/montanaflynn/stats"
	"github.com/spf13/cobra"

	"github.com/matzehuels/particula/pkg/errors"
	"github.com/matzehuels/particula/pkg/interaction"
	"github.com/matzehuels/particula/pkg/scene"
	"github.com/matzehuels/particula/pkg/shape"
)

// =============================================================================
// Headless simulation
// =============================================================================

// shapeSwitch requests a shape at a point in simulated time.
type shapeSwitch struct {
	At   time.Duration
	Kind shape.Kind
}

// simulation runs the scene and the interaction driver against simulated
// time. Every tick offers a frame to the detector; the driver throttles it
// by the tier interval measured in simulated time.
type simulation struct {
	Kind     shape.Kind
	Scene    scene.Options
	Driver   interaction.Options
	Detector interaction.Detector
	Duration time.Duration
	FPS      int
	Switches []shapeSwitch
	Logger   *log.Logger
}

func (s simulation) run(ctx context.Context) ([]scene.Frame, error) {
	if s.FPS <= 0 {
		s.FPS = scene.DefaultFPS
	}
	if s.Detector == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "simulation needs a detector")
	}
	st, err := scene.New(s.Kind, s.Scene)
	if err != nil {
		return nil, err
	}

	epoch := time.Unix(0, 0)
	var at time.Duration
	opts := s.Driver
	opts.Clock = func() time.Time { return epoch.Add(at) }
	if opts.Logger == nil {
		opts.Logger = s.Logger
	}
	drv := interaction.NewDriver(s.Detector, st, opts)
	defer drv.Close()

	switches := append([]shapeSwitch(nil), s.Switches...)
	sort.Slice(switches, func(i, j int) bool { return switches[i].At < switches[j].At })

	dt := time.Second / time.Duration(s.FPS)
	frames := make([]scene.Frame, 0, int(s.Duration/dt)+1)
	for i := 0; ; i++ {
		at = time.Duration(i) * dt
		if at > s.Duration {
			break
		}
		if err := ctx.Err(); err != nil {
			return frames, err
		}
		for len(switches) > 0 && switches[0].At <= at {
			st.RequestShape(switches[0].Kind)
			switches = switches[1:]
		}
		if _, _, err := drv.Process(ctx, interaction.Frame{Seq: uint64(i), At: at}); err != nil {
			return frames, err
		}
		frames = append(frames, st.Tick(at))
	}
	return frames, nil
}

// parseSwitch parses "2.5s=kite".
func parseSwitch(s string) (shapeSwitch, error) {
	at, tag, ok := strings.Cut(s, "=")
	if !ok {
		return shapeSwitch{}, errors.New(errors.ErrCodeInvalidInput, "shape switch %q: want <time>=<shape>", s)
	}
	d, err := time.ParseDuration(strings.TrimSpace(at))
	if err != nil || d < 0 {
		return shapeSwitch{}, errors.New(errors.ErrCodeInvalidInput, "shape switch %q: bad time", s)
	}
	kind, ok := shape.Parse(tag)
	if !ok {
		return shapeSwitch{}, errors.New(errors.ErrCodeInvalidShape, "shape switch %q: unknown shape %q", s, tag)
	}
	return shapeSwitch{At: d, Kind: kind}, nil
}

// =============================================================================
// Command
// =============================================================================

type simulateFlags struct {
	script    string
	period    time.Duration
	recording string
	record    string
	duration  time.Duration
	fps       int
	every     time.Duration
	switches  []string
	tier      string
	asJSON    bool
}

// simulateCommand creates the simulate command.
func (c *CLI) simulateCommand() *cobra.Command {
	var flags simulateFlags

	cmd := &cobra.Command{
		Use:   "simulate [shape]",
		Short: "Run the scene headless against scripted or recorded hands",
		Long: `Run the animation loop and the interaction driver without a display.

Hands come from a built-in script (` + strings.Join(interaction.ScriptNames(), ", ") + `)
or from a recording of detector samples (newline-delimited JSON). Time is
simulated, so a long run finishes instantly and is fully reproducible.`,
		Example: `  particula simulate galaxy --script sweep --duration 6s
  particula simulate --recording hands.ndjson --switch 3s=kite --json
  particula simulate kite --script pinch --record pinch.ndjson`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeShapes,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSimulate(cmd, args, flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.script, "script", "sweep", "built-in hand script")
	f.DurationVar(&flags.period, "period", 4*time.Second, "script period")
	f.StringVar(&flags.recording, "recording", "", "replay samples from an NDJSON recording instead of a script")
	f.StringVar(&flags.record, "record", "", "write the script's samples to an NDJSON recording")
	f.DurationVar(&flags.duration, "duration", 5*time.Second, "simulated time")
	f.IntVar(&flags.fps, "fps", 0, "ticks per second (default from config)")
	f.DurationVar(&flags.every, "every", 250*time.Millisecond, "table row interval")
	f.StringArrayVar(&flags.switches, "switch", nil, "switch shape at a time, e.g. 2s=kite (repeatable)")
	f.StringVar(&flags.tier, "tier", "", "device tier: low, medium, high or auto (default from config)")
	f.BoolVar(&flags.asJSON, "json", false, "print every frame as NDJSON")

	_ = cmd.RegisterFlagCompletionFunc("script", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return interaction.ScriptNames(), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func (c *CLI) runSimulate(cmd *cobra.Command, args []string, flags simulateFlags) error {
	cfg, _, err := c.loadConfig()
	if err != nil {
		return err
	}
	if flags.tier != "" {
		cfg.Interaction.Tier = flags.tier
	}
	sim := simulation{
		Kind:     cfg.Shape(),
		Duration: flags.duration,
		FPS:      cfg.Scene.FPS,
		Logger:   c.Logger,
	}
	if len(args) == 1 {
		kind, ok := shape.Parse(args[0])
		if !ok {
			return errors.New(errors.ErrCodeInvalidShape, "unknown shape %q", args[0])
		}
		sim.Kind = kind
	}
	if flags.fps > 0 {
		sim.FPS = flags.fps
	}
	if sim.Scene, err = cfg.SceneOptions(); err != nil {
		return err
	}
	if sim.Driver, err = cfg.DriverOptions(c.Logger); err != nil {
		return err
	}
	for _, s := range flags.switches {
		sw, err := parseSwitch(s)
		if err != nil {
			return err
		}
		sim.Switches = append(sim.Switches, sw)
	}

	source := flags.script
	if flags.recording != "" {
		rec, err := readRecording(flags.recording)
		if err != nil {
			return err
		}
		sim.Detector = &interaction.RecordingDetector{Recording: rec, Loop: true}
		source = flags.recording
	} else {
		script, err := interaction.NamedScript(flags.script, flags.period)
		if err != nil {
			return err
		}
		sim.Detector = script
		if flags.record != "" {
			step := sim.Driver.Tier.Interval()
			if sim.Driver.Interval > 0 {
				step = sim.Driver.Interval
			}
			if err := saveRecording(flags.record, script.Record(flags.duration, step)); err != nil {
				return err
			}
		}
	}

	watch := startStopwatch(c.Logger)
	frames, err := sim.run(cmd.Context())
	if err != nil {
		return err
	}
	watch.lap("simulated", "duration", flags.duration, "fps", sim.FPS)

	if flags.asJSON {
		return writeFramesJSON(cmd.OutOrStdout(), frames)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, StyleTitle.Render(shape.ProfileOf(sim.Kind).Name)+StyleDim.Render(" · "+source+" · tier "+string(sim.Driver.Tier)))
	fmt.Fprintln(out, frameTable(frames, flags.every))
	printFrameSummary(out, frames)
	if flags.record != "" && flags.recording == "" {
		printFile(out, flags.record)
	}
	return nil
}

func readRecording(path string) (interaction.Recording, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "open recording")
	}
	defer f.Close()
	return interaction.LoadRecording(f)
}

func saveRecording(path string, rec interaction.Recording) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create recording")
	}
	if err := interaction.WriteRecording(f, rec); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeFramesJSON(w io.Writer, frames []scene.Frame) error {
	enc := json.NewEncoder(w)
	for _, f := range frames {
		if err := enc.Encode(f); err != nil {
			return err
		}
	}
	return nil
}

// sampleFrames picks the first frame at or after every multiple of every,
// plus the last frame.
func sampleFrames(frames []scene.Frame, every time.Duration) []scene.Frame {
	if len(frames) == 0 {
		return nil
	}
	if every <= 0 {
		return frames
	}
	var out []scene.Frame
	next := time.Duration(0)
	for _, f := range frames {
		if f.Elapsed >= next {
			out = append(out, f)
			for next <= f.Elapsed {
				next += every
			}
		}
	}
	if last := frames[len(frames)-1]; out[len(out)-1].Seq != last.Seq {
		out = append(out, last)
	}
	return out
}

func frameTable(frames []scene.Frame, every time.Duration) string {
	t := newTable("Time", "Shape", "Scale", "Target", "Hands", "FOV", "Opacity")
	for _, f := range sampleFrames(frames, every) {
		hands := StyleDim.Render("no")
		if f.Detected {
			hands = StyleSuccess.Render("yes")
		}
		t.Row(
			fmt.Sprintf("%.2fs", f.Elapsed.Seconds()),
			string(f.Shape),
			fmt.Sprintf("%.3f", f.Scale),
			fmt.Sprintf("%.3f", f.TargetScale),
			hands,
			fmt.Sprintf("%.1f°", f.Camera.FOV),
			fmt.Sprintf("%.2f", f.PointOpacity),
		)
	}
	return t.Render()
}

// frameSummary aggregates a run.
type frameSummary struct {
	Frames   int
	Detected float64 // share of frames with hands
	Mean     float64
	Peak     float64
	Final    float64
	Rebuilds int
}

func summarize(frames []scene.Frame) (frameSummary, error) {
	if len(frames) == 0 {
		return frameSummary{}, errors.New(errors.ErrCodeInvalidInput, "no frames")
	}
	scales := make(stats.Float64Data, len(frames))
	sum := frameSummary{Frames: len(frames), Final: frames[len(frames)-1].Scale}
	detected := 0
	for i, f := range frames {
		scales[i] = f.Scale
		if f.Detected {
			detected++
		}
		if f.Rebuilt {
			sum.Rebuilds++
		}
	}
	sum.Detected = float64(detected) / float64(len(frames))
	var err error
	if sum.Mean, err = scales.Mean(); err != nil {
		return frameSummary{}, errors.Wrap(errors.ErrCodeInternal, err, "mean scale")
	}
	if sum.Peak, err = scales.Max(); err != nil {
		return frameSummary{}, errors.Wrap(errors.ErrCodeInternal, err, "peak scale")
	}
	return sum, nil
}

func printFrameSummary(w io.Writer, frames []scene.Frame) {
	sum, err := summarize(frames)
	if err != nil {
		return
	}
	printKeyValue(w, "Frames", fmt.Sprintf("%d", sum.Frames))
	printKeyValue(w, "Hands seen", fmt.Sprintf("%.0f%%", sum.Detected*100))
	printKeyValue(w, "Scale", fmt.Sprintf("mean %.2f · peak %.2f · final %.2f", sum.Mean, sum.Peak, sum.Final))
	if sum.Rebuilds > 0 {
		printKeyValue(w, "Shape changes", fmt.Sprintf("%d", sum.Rebuilds))
	}
}
