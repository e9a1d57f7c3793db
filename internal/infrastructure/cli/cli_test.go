package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/doeshing/scriptgate/internal/domain"
)

func TestLinePrompterSelect(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{name: "explicit choice", input: "2\n", want: 1},
		{name: "empty selects default", input: "\n", want: 3},
		{name: "eof selects default", input: "", want: 3},
		{name: "out of range", input: "9\n", want: 3, wantErr: true},
		{name: "not a number", input: "run\n", want: 3, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := NewLinePrompter(strings.NewReader(tt.input), &out)
			got, err := p.Select("Choose action", []string{"a", "b", "c", "d"}, 3)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("got %d, want %d", got, tt.want)
			}
			if !strings.Contains(out.String(), "> 4) d") {
				t.Fatalf("default not marked: %q", out.String())
			}
		})
	}
}

func TestLinePrompterConfirmDefaultsNo(t *testing.T) {
	p := NewLinePrompter(strings.NewReader("\n"), &bytes.Buffer{})
	ok, err := p.Confirm("Execute this script?", false)
	if err != nil || ok {
		t.Fatalf("expected default no, got %v %v", ok, err)
	}

	p = NewLinePrompter(strings.NewReader("yes\n"), &bytes.Buffer{})
	ok, _ = p.Confirm("Execute this script?", false)
	if !ok {
		t.Fatal("expected yes")
	}
}

func TestRendererPreviewTruncates(t *testing.T) {
	var out bytes.Buffer
	r := NewRenderer(&out)
	content := "l1\nl2\nl3\nl4\nl5\n"
	r.Preview(domain.ScriptPreview{
		Content:      content,
		Verification: domain.ScriptVerification{SHA256: "abc", LineCount: 5, SizeBytes: len(content), HasSudo: true},
		Trust:        domain.TrustResult{Status: domain.TrustMismatch, Expected: "def", Actual: "abc"},
		ShowContent:  true,
		PreviewLines: 2,
	})

	text := out.String()
	for _, want := range []string{
		"SHA256:", "abc",
		"(15 bytes, 5 lines)",
		domain.WarningSudo,
		"Checksum does not match",
		"Expected: def",
		"Preview (first 2 lines):",
		"... (3 more lines)",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("preview missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "l3") {
		t.Errorf("preview shows lines past the limit:\n%s", text)
	}
}

func TestRendererPreviewHidesContentWhenDisabled(t *testing.T) {
	var out bytes.Buffer
	NewRenderer(&out).Preview(domain.ScriptPreview{Content: "secret-line\n", ShowContent: false, PreviewLines: 15})
	if strings.Contains(out.String(), "secret-line") {
		t.Fatal("content shown with preview disabled")
	}
}

func TestRendererFullScriptNumbersLines(t *testing.T) {
	var out bytes.Buffer
	NewRenderer(&out).FullScript("echo a\necho b\n")
	text := out.String()
	if !strings.Contains(text, "   1 | echo a") || !strings.Contains(text, "   2 | echo b") {
		t.Fatalf("unexpected listing:\n%s", text)
	}
}

type slowFetcher struct{}

func (slowFetcher) Fetch(ctx context.Context, url string) (string, error) {
	time.Sleep(20 * time.Millisecond)
	return "body", nil
}

func TestWithSpinnerPassesThrough(t *testing.T) {
	var out bytes.Buffer
	f := WithSpinner(slowFetcher{}, NewStatusLine(&out), true)
	body, err := f.Fetch(context.Background(), "https://example.com/x.sh")
	if err != nil || body != "body" {
		t.Fatalf("Fetch = %q, %v", body, err)
	}
	if _, ok := WithSpinner(slowFetcher{}, NewStatusLine(&out), false).(slowFetcher); !ok {
		t.Fatal("disabled spinner should return the fetcher unchanged")
	}
}

// retryingFetcher reports a retry on its status writer mid-fetch.
type retryingFetcher struct {
	status io.Writer
}

func (f retryingFetcher) Fetch(ctx context.Context, url string) (string, error) {
	time.Sleep(20 * time.Millisecond)
	fmt.Fprintf(f.status, "  Retrying (attempt 2/4) in 1s...\n")
	time.Sleep(20 * time.Millisecond)
	return "body", nil
}

func TestStatusLinesClearTheSpinnerFirst(t *testing.T) {
	var out bytes.Buffer
	status := NewStatusLine(&out)
	f := WithSpinner(retryingFetcher{status: status}, status, true)

	if _, err := f.Fetch(context.Background(), "https://example.com/x.sh"); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	text := out.String()
	if !strings.Contains(text, "\r\033[K  Retrying (attempt 2/4) in 1s...\n") {
		t.Fatalf("status line not printed on a cleared line: %q", text)
	}
	if !strings.HasSuffix(text, "\r\033[K") {
		t.Fatalf("spinner line not cleared at the end: %q", text)
	}

	out.Reset()
	fmt.Fprintf(status, "  Attempt 1/4 failed\n")
	if out.String() != "  Attempt 1/4 failed\n" {
		t.Fatalf("detached status line = %q", out.String())
	}
}

func TestSpinnerDrawsLabelAndClearsLine(t *testing.T) {
	var out bytes.Buffer
	s := NewSpinner(&out, "Fetching x.sh")
	s.Start()
	s.Start()
	time.Sleep(10 * time.Millisecond)
	s.Stop()
	s.Stop()

	text := out.String()
	if !strings.Contains(text, "Fetching x.sh") {
		t.Fatalf("label missing from %q", text)
	}
	if !strings.HasSuffix(text, "\r\033[K") {
		t.Fatalf("line not cleared: %q", text)
	}

	s.Start()
	if out.String() != text {
		t.Fatal("stopped spinner must not restart")
	}
}

func TestOptionsFromArgs(t *testing.T) {
	t.Setenv(EnvDebug, "")

	opts := OptionsFromArgs([]string{"run", "--dry-run", "--config", "/tmp/sg.yaml", "name", "url", "--debug"})
	if !opts.Verbose || opts.ConfigPath != "/tmp/sg.yaml" {
		t.Fatalf("unexpected options %+v", opts)
	}

	opts = OptionsFromArgs([]string{"scan", "https://example.com/a.sh"})
	if opts.Verbose || opts.ConfigPath != "" {
		t.Fatalf("unexpected options %+v", opts)
	}

	t.Setenv(EnvDebug, "1")
	if !OptionsFromArgs(nil).Verbose {
		t.Fatal("SCRIPTGATE_DEBUG=1 should enable verbose logging")
	}
}
