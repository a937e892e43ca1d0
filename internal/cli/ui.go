package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// =============================================================================
// Palette
// =============================================================================

// ANSI-256 colors named by what they mark in the output.
var (
	colorParticle = lipgloss.Color("205")
	colorHands    = lipgloss.Color("35")
	colorFailure  = lipgloss.Color("167")
	colorCommand  = lipgloss.Color("75")
	colorBright   = lipgloss.Color("255")
	colorMuted    = lipgloss.Color("245")
	colorFaint    = lipgloss.Color("240")
)

// Exported styles are shared with the live view.
var (
	StyleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorParticle)
	StyleHighlight = lipgloss.NewStyle().Foreground(colorParticle)
	StyleDim       = lipgloss.NewStyle().Foreground(colorFaint)
	StyleValue     = lipgloss.NewStyle().Foreground(colorBright)
	StyleSuccess   = lipgloss.NewStyle().Foreground(colorHands)
)

var (
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorParticle)
	styleLabel       = lipgloss.NewStyle().Foreground(colorMuted).Width(14)
	styleCommand     = lipgloss.NewStyle().Foreground(colorCommand)
	separator        = StyleDim.Render(" · ")
)

// marker is the one-glyph prefix of a status line.
type marker struct {
	glyph string
	style lipgloss.Style
}

var (
	markOK   = marker{"✓", lipgloss.NewStyle().Foreground(colorHands)}
	markFail = marker{"✗", lipgloss.NewStyle().Foreground(colorFailure)}
	markNote = marker{"›", lipgloss.NewStyle().Foreground(colorMuted)}
)

func (m marker) fprintln(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, m.style.Render(m.glyph), fmt.Sprintf(format, args...))
}

// =============================================================================
// Status lines
// =============================================================================

func printSuccess(format string, args ...any) { markOK.fprintln(os.Stdout, format, args...) }
func printInfo(format string, args ...any)    { markNote.fprintln(os.Stdout, format, args...) }

// PrintError reports a failed command on w.
func PrintError(w io.Writer, err error) { markFail.fprintln(w, "%v", err) }

func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile announces a written output file.
func printFile(w io.Writer, path string) {
	fmt.Fprintf(w, "  %s %s\n", StyleDim.Render("→"), StyleValue.Render(path))
}

func printKeyValue(w io.Writer, key, value string) {
	fmt.Fprintln(w, styleLabel.Render(key), StyleValue.Render(value))
}

// printCloudStats summarizes a sampled cloud, e.g.
// "8000 particles · seed 3 · cached".
func printCloudStats(count int, seed uint64, cached bool) {
	fields := []string{StyleDim.Render(fmt.Sprintf("%d particles", count))}
	if seed != 0 {
		fields = append(fields, StyleDim.Render(fmt.Sprintf("seed %d", seed)))
	}
	if cached {
		fields = append(fields, StyleSuccess.Render("cached"))
	} else {
		fields = append(fields, lipgloss.NewStyle().Foreground(colorMuted).Render("fresh"))
	}
	fmt.Println("  " + strings.Join(fields, separator))
}

func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":"), styleCommand.Render(cmd))
}

// newTable returns a rounded table whose header row is bold and muted.
func newTable(headers ...string) *table.Table {
	header := lipgloss.NewStyle().Foreground(colorMuted).Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(StyleDim).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
}
