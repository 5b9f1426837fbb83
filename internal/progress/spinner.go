// Package progress shows activity on the terminal while assets download.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

// SpinnerInterval is the time between spinner frame updates
const SpinnerInterval = 100 * time.Millisecond

const (
	colorReset = "\033[0m"
	colorGreen = "\033[32m"
)

// Default spinner frames (braille dots)
var defaultFrames = []rune{'⠋', '⠙', '⠹', '⠸', '⠼', '⠴', '⠦', '⠧', '⠇', '⠏'}

// Spinner displays an animated spinner with a message. On a non-TTY writer
// the message is printed once instead.
type Spinner struct {
	message    string
	startTime  time.Time
	frames     []rune
	frameIndex int
	isTTY      bool
	color      bool
	mu         sync.Mutex
	active     bool
	stopChan   chan struct{}
	doneChan   chan struct{}
	writer     io.Writer
}

// NewSpinner creates a new Spinner writing to writer (stderr when nil).
func NewSpinner(message string, writer io.Writer) *Spinner {
	if writer == nil {
		writer = os.Stderr
	}

	isTTY := false
	if f, ok := writer.(*os.File); ok {
		isTTY = term.IsTerminal(int(f.Fd()))
	}

	return &Spinner{
		message:   message,
		startTime: time.Now(),
		frames:    defaultFrames,
		isTTY:     isTTY,
		color:     useColor(isTTY),
		stopChan:  make(chan struct{}),
		doneChan:  make(chan struct{}),
		writer:    writer,
	}
}

// Start begins the spinner animation
func (s *Spinner) Start() {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return
	}
	s.active = true
	s.startTime = time.Now()
	s.mu.Unlock()

	go s.loop()
}

// Stop stops the spinner and prints finalMessage, if any.
func (s *Spinner) Stop(finalMessage string) {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	s.mu.Unlock()

	close(s.stopChan)
	<-s.doneChan

	if s.isTTY {
		fmt.Fprint(s.writer, "\r\033[K")
	}
	if finalMessage != "" {
		fmt.Fprintln(s.writer, finalMessage)
	}
}

// IsTTY returns whether the output is a TTY
func (s *Spinner) IsTTY() bool {
	return s.isTTY
}

// Duration returns how long the spinner has been running
func (s *Spinner) Duration() time.Duration {
	return time.Since(s.startTime)
}

func (s *Spinner) loop() {
	defer close(s.doneChan)

	if !s.isTTY {
		fmt.Fprintf(s.writer, "%s...\n", s.message)
		<-s.stopChan
		return
	}

	ticker := time.NewTicker(SpinnerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.render()
		}
	}
}

func (s *Spinner) render() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return
	}

	frame := s.frames[s.frameIndex]
	s.frameIndex = (s.frameIndex + 1) % len(s.frames)

	start, reset := "", ""
	if s.color {
		start, reset = colorGreen, colorReset
	}
	fmt.Fprintf(s.writer, "\r%s%c%s %s... (%.1fs)",
		start, frame, reset, s.message, time.Since(s.startTime).Seconds())
}

// useColor follows the NO_COLOR convention (https://no-color.org).
func useColor(isTTY bool) bool {
	return isTTY && os.Getenv("NO_COLOR") == ""
}
