package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

const spinnerInterval = 80 * time.Millisecond

var spinnerFrames = []rune("⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏")

// spinner redraws a single status line until it is stopped or its context
// ends. A nil *spinner is valid and does nothing.
type spinner struct {
	w      io.Writer
	cancel context.CancelFunc
	done   chan struct{}

	mu    sync.Mutex
	label string
	drawn int
}

// startSpinner draws label on w until stop is called or ctx is done.
func startSpinner(ctx context.Context, w io.Writer, label string) *spinner {
	ctx, cancel := context.WithCancel(ctx)
	s := &spinner{w: w, cancel: cancel, done: make(chan struct{}), label: label}
	go s.loop(ctx)
	return s
}

func (s *spinner) loop(ctx context.Context) {
	defer close(s.done)
	tick := time.NewTicker(spinnerInterval)
	defer tick.Stop()

	for frame := 0; ; frame++ {
		select {
		case <-ctx.Done():
			s.erase()
			return
		case <-tick.C:
			s.draw(spinnerFrames[frame%len(spinnerFrames)])
		}
	}
}

func (s *spinner) draw(glyph rune) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "\r%s %s", styleIconSpinner.Render(string(glyph)), StyleDim.Render(s.label))
	s.drawn = max(s.drawn, len(s.label)+2)
}

func (s *spinner) erase() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drawn > 0 {
		fmt.Fprint(s.w, "\r"+strings.Repeat(" ", s.drawn)+"\r")
	}
}

// set replaces the label from the next frame on.
func (s *spinner) set(label string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.label = label
	s.mu.Unlock()
}

// stop clears the line and waits for the redraw loop to exit.
func (s *spinner) stop() {
	if s == nil {
		return
	}
	s.cancel()
	<-s.done
}
