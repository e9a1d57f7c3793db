package cli

import (
	"context"
	"io"
	"sync"

	"github.com/doeshing/scriptgate/internal/ports"
)

// StatusLine is the writer handed to the fetcher for retry and mirror lines.
// While a spinner is attached, lines go through it so they never land on the
// animated line.
type StatusLine struct {
	mu      sync.Mutex
	w       io.Writer
	spinner *Spinner
}

// NewStatusLine writes status lines to w.
func NewStatusLine(w io.Writer) *StatusLine {
	return &StatusLine{w: w}
}

func (s *StatusLine) Write(p []byte) (int, error) {
	s.mu.Lock()
	spinner := s.spinner
	s.mu.Unlock()
	if spinner != nil {
		return spinner.Write(p)
	}
	return s.w.Write(p)
}

func (s *StatusLine) attach(spinner *Spinner) {
	s.mu.Lock()
	s.spinner = spinner
	s.mu.Unlock()
}

// spinningFetcher animates a spinner on the status line while the wrapped
// fetch runs.
type spinningFetcher struct {
	next   ports.ScriptFetcher
	status *StatusLine
}

// WithSpinner wraps fetcher when the status line is an interactive terminal.
func WithSpinner(fetcher ports.ScriptFetcher, status *StatusLine, enabled bool) ports.ScriptFetcher {
	if !enabled {
		return fetcher
	}
	return &spinningFetcher{next: fetcher, status: status}
}

func (f *spinningFetcher) Fetch(ctx context.Context, url string) (string, error) {
	spinner := NewSpinner(f.status.w, "Fetching "+url)
	f.status.attach(spinner)
	spinner.Start()
	defer func() {
		f.status.attach(nil)
		spinner.Stop()
	}()
	return f.next.Fetch(ctx, url)
}
