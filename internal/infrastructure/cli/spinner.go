package cli

import (
	"fmt"
	"io"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner animates a single status line while a fetch is in flight.
// A Spinner is single-use: once stopped it cannot be restarted.
type Spinner struct {
	label    string
	interval time.Duration
	writer   io.Writer
	stop     chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	draw     sync.Mutex
	running  bool
	stopped  bool
}

// NewSpinner creates a spinner that prints label next to the animation.
func NewSpinner(w io.Writer, label string) *Spinner {
	return &Spinner{
		label:    label,
		interval: 80 * time.Millisecond,
		writer:   w,
		stop:     make(chan struct{}),
	}
}

// Start begins the animation. Calling it twice is a no-op.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running || s.stopped {
		return
	}
	s.running = true

	s.wg.Add(1)
	go s.loop()
}

func (s *Spinner) loop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for idx := 0; ; idx++ {
		s.draw.Lock()
		fmt.Fprintf(s.writer, "\r%s %s", spinnerFrames[idx%len(spinnerFrames)], styleDim.Render(s.label))
		s.draw.Unlock()
		select {
		case <-s.stop:
			s.draw.Lock()
			fmt.Fprint(s.writer, "\r\033[K")
			s.draw.Unlock()
			return
		case <-ticker.C:
		}
	}
}

// Write prints p above the animation: the spinner line is cleared first and
// redrawn on the next frame. p should end with a newline.
func (s *Spinner) Write(p []byte) (int, error) {
	s.draw.Lock()
	defer s.draw.Unlock()
	if _, err := io.WriteString(s.writer, "\r\033[K"); err != nil {
		return 0, err
	}
	return s.writer.Write(p)
}

// Stop clears the line and waits for the animation goroutine to exit.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.stopped = true
		s.mu.Unlock()
		return
	}
	s.running = false
	s.stopped = true
	s.mu.Unlock()

	close(s.stop)
	s.wg.Wait()
}
