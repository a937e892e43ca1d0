package cli

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/particula/pkg/errors"
	"github.com/matzehuels/particula/pkg/interaction"
	"github.com/matzehuels/particula/pkg/render"
	"github.com/matzehuels/particula/pkg/scene"
	"github.com/matzehuels/particula/pkg/shape"
)

// Live view styles
var (
	liveBarStyle   = lipgloss.NewStyle().Foreground(colorBright)
	liveLabelStyle = lipgloss.NewStyle().Foreground(colorMuted)
	liveHelpStyle  = lipgloss.NewStyle().Foreground(colorFaint)
	liveOnStyle    = lipgloss.NewStyle().Foreground(colorHands).Bold(true)
	liveOffStyle   = lipgloss.NewStyle().Foreground(colorFaint)
)

const (
	// liveChrome is the number of terminal rows used by the status and
	// help lines.
	liveChrome = 2

	spreadStep = 0.05
	pointStep  = 0.1
)

// =============================================================================
// LiveModel - Terminal particle view
// =============================================================================

type tickMsg time.Time

// LiveModel is the bubbletea model for the live view. The scene is ticked
// on the program's event loop, so the state is never shared with another
// goroutine except through the driver's target updates.
type LiveModel struct {
	state  *scene.State
	driver *interaction.Driver
	fps    int
	start  time.Time
	now    func() time.Time

	frame      scene.Frame
	cols, rows int
	particle   lipgloss.Style

	// Simulated hands: two hands held Spread apart while Hands is on.
	Hands  bool
	Spread float64
	// Pointer is the simulated cursor in [-1, 1].
	Pointer [2]float64
}

// NewLiveModel creates a live view over state. driver receives the
// simulated hand samples.
func NewLiveModel(state *scene.State, driver *interaction.Driver, fps int) LiveModel {
	if fps <= 0 {
		fps = scene.DefaultFPS
	}
	return LiveModel{
		state:    state,
		driver:   driver,
		fps:      fps,
		start:    time.Now(),
		now:      time.Now,
		frame:    state.Snapshot(),
		Spread:   0.25,
		particle: lipgloss.NewStyle().Foreground(lipgloss.Color(state.Options().Color.Hex())),
	}
}

func (m LiveModel) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m LiveModel) Init() tea.Cmd {
	return m.tick()
}

func (m LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if m.Hands {
			m.driver.Offer(&interaction.Sample{Hands: interaction.HandPair(m.Spread)})
		}
		m.frame = m.state.Tick(m.now().Sub(m.start))
		return m, m.tick()

	case tea.WindowSizeMsg:
		m.cols = msg.Width
		m.rows = max(1, msg.Height-liveChrome)

	case tea.KeyMsg:
		switch key := msg.String(); key {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "right", "tab", "n":
			m.state.RequestShape(m.shiftShape(1))
		case "left", "shift+tab", "p":
			m.state.RequestShape(m.shiftShape(-1))
		case "1", "2", "3", "4", "5", "6", "7", "8":
			if kinds := shape.All(); int(key[0]-'1') < len(kinds) {
				m.state.RequestShape(kinds[key[0]-'1'])
			}
		case " ", "h":
			m.Hands = !m.Hands
			if !m.Hands {
				// Let the next tick fall back to breathing.
				m.driver.Offer(&interaction.Sample{})
			}
		case "up", "k":
			m.Spread = min(1.2, m.Spread+spreadStep)
			m.Hands = true
		case "down", "j":
			m.Spread = max(0.1, m.Spread-spreadStep)
			m.Hands = true
		case "e":
			m.driver.SetEnabled(!m.driver.Enabled())
		case "w", "a", "s", "d":
			m.movePointer(key)
		case "0":
			m.Pointer = [2]float64{}
			m.state.SetPointer(0, 0)
		}
	}
	return m, nil
}

// shiftShape returns the shape delta steps away from the current one in
// menu order.
func (m LiveModel) shiftShape(delta int) shape.Kind {
	kinds := shape.All()
	cur := 0
	for i, k := range kinds {
		if k == m.frame.Shape {
			cur = i
			break
		}
	}
	return kinds[((cur+delta)%len(kinds)+len(kinds))%len(kinds)]
}

func (m *LiveModel) movePointer(key string) {
	switch key {
	case "w":
		m.Pointer[1] += pointStep
	case "s":
		m.Pointer[1] -= pointStep
	case "a":
		m.Pointer[0] -= pointStep
	case "d":
		m.Pointer[0] += pointStep
	}
	for i := range m.Pointer {
		m.Pointer[i] = max(-1, min(1, m.Pointer[i]))
	}
	m.state.SetPointer(m.Pointer[0], m.Pointer[1])
}

// Frame returns the most recent frame.
func (m LiveModel) Frame() scene.Frame { return m.frame }

func (m LiveModel) View() string {
	if m.cols == 0 {
		return "starting..."
	}
	var b strings.Builder
	b.WriteString(m.particle.Render(render.RenderASCII(m.state.Cloud(), m.frame, m.cols, m.rows)))
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(liveHelpStyle.Render("←/→ shape  1-8 pick  h hands  ↑/↓ spread  wasd look  e detector  q quit"))
	return b.String()
}

func (m LiveModel) statusLine() string {
	f := m.frame
	hands := liveOffStyle.Render("breathing")
	if f.Detected {
		hands = liveOnStyle.Render("hands")
	}
	detector := liveOnStyle.Render("on")
	if !m.driver.Enabled() {
		detector = liveOffStyle.Render("off")
	}
	parts := []string{
		StyleTitle.Render(shape.ProfileOf(f.Shape).Name),
		liveLabelStyle.Render("scale ") + liveBarStyle.Render(fmt.Sprintf("%.2f → %.2f", f.Scale, f.TargetScale)),
		hands,
		liveLabelStyle.Render("fov ") + liveBarStyle.Render(fmt.Sprintf("%.0f°", f.Camera.FOV)),
		liveLabelStyle.Render("detector ") + detector,
		liveLabelStyle.Render(fmt.Sprintf("%d particles", m.state.Cloud().Len())),
	}
	return strings.Join(parts, liveHelpStyle.Render("  ·  "))
}

// =============================================================================
// Command
// =============================================================================

// liveCommand creates the live command.
func (c *CLI) liveCommand() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "live [shape]",
		Short: "Watch a shape animate in the terminal",
		Long: `Open a full-screen view of the particle cloud rendered as text.

Simulated hands stand in for a camera: toggle them with h and change their
spread with the arrow keys to grow and shrink the shape.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeShapes,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := c.loadConfig()
			if err != nil {
				return err
			}
			kind := cfg.Shape()
			if len(args) == 1 {
				var ok bool
				if kind, ok = shape.Parse(args[0]); !ok {
					return errors.New(errors.ErrCodeInvalidShape, "unknown shape %q", args[0])
				}
			}
			sceneOpts, err := cfg.SceneOptions()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("count") {
				sceneOpts.Count = count
			}
			// The view owns the terminal, so the driver stays quiet.
			driverOpts, err := cfg.DriverOptions(nil)
			if err != nil {
				return err
			}

			state, err := scene.New(kind, sceneOpts)
			if err != nil {
				return err
			}
			driver := interaction.NewDriver(nil, state, driverOpts)
			defer driver.Close()

			p := tea.NewProgram(NewLiveModel(state, driver, cfg.Scene.FPS), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			if _, err := p.Run(); err != nil && !stderrors.Is(err, tea.ErrProgramKilled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 4000, "number of particles")
	return cmd
}
