package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/doeshing/scriptgate/internal/domain"
	"github.com/doeshing/scriptgate/internal/infrastructure/verify"
	"github.com/doeshing/scriptgate/internal/ports"
)

// Renderer implements ports.Presenter on a terminal writer.
type Renderer struct {
	out io.Writer
}

// NewRenderer writes to out, or stdout when nil.
func NewRenderer(out io.Writer) *Renderer {
	if out == nil {
		out = os.Stdout
	}
	return &Renderer{out: out}
}

// Status implements ports.Presenter.
func (r *Renderer) Status(format string, args ...interface{}) {
	if format == "" {
		fmt.Fprintln(r.out)
		return
	}
	fmt.Fprintf(r.out, "  %s\n", fmt.Sprintf(format, args...))
}

// Preview implements ports.Presenter.
func (r *Renderer) Preview(p domain.ScriptPreview) {
	v := p.Verification
	fmt.Fprintln(r.out)
	fmt.Fprintf(r.out, "  %s\n", styleHeader.Render("Script Verification"))
	fmt.Fprintf(r.out, "  %s\n", styleDim.Render(strings.Repeat("═", 20)))
	fmt.Fprintf(r.out, "  %s%s\n", styleLabel.Render("SHA256:"), styleValue.Render(v.SHA256))
	fmt.Fprintf(r.out, "  %s%s (%d bytes, %d lines)\n", styleLabel.Render("Size:"),
		humanize.IBytes(uint64(v.SizeBytes)), v.SizeBytes, v.LineCount)

	if warnings := v.Warnings(); len(warnings) > 0 {
		fmt.Fprintf(r.out, "\n  %s\n", styleWarn.Render("Warnings:"))
		for _, w := range warnings {
			fmt.Fprintf(r.out, "    - %s\n", w)
		}
	}

	switch p.Trust.Status {
	case domain.TrustVerified:
		fmt.Fprintf(r.out, "\n  %s\n", styleOK.Render("Checksum verified against known good hash"))
	case domain.TrustMismatch:
		fmt.Fprintf(r.out, "\n  %s\n", styleErr.Render("WARNING: Checksum does not match known good hash!"))
		fmt.Fprintf(r.out, "  Expected: %s\n", p.Trust.Expected)
		fmt.Fprintf(r.out, "  Got:      %s\n", p.Trust.Actual)
	}

	if !p.ShowContent {
		return
	}
	lines := verify.Lines(p.Content)
	shown := p.PreviewLines
	if shown > len(lines) {
		shown = len(lines)
	}
	if shown < 0 {
		shown = 0
	}
	fmt.Fprintf(r.out, "\n  %s\n", styleHeader.Render(fmt.Sprintf("Preview (first %d lines):", shown)))
	fmt.Fprintf(r.out, "  %s\n", styleDim.Render(strings.Repeat("─", 25)))
	for _, line := range lines[:shown] {
		fmt.Fprintf(r.out, "    %s\n", line)
	}
	if len(lines) > shown {
		fmt.Fprintf(r.out, "    %s\n", styleDim.Render(fmt.Sprintf("... (%d more lines)", len(lines)-shown)))
	}
}

// FullScript implements ports.Presenter with 1-based line numbers.
func (r *Renderer) FullScript(content string) {
	fmt.Fprintf(r.out, "  %s\n", styleHeader.Render("Full Script Content:"))
	fmt.Fprintf(r.out, "  %s\n", styleDim.Render(strings.Repeat("═", 20)))
	for i, line := range verify.Lines(content) {
		fmt.Fprintf(r.out, "  %s | %s\n", styleLineNum.Render(fmt.Sprintf("%4d", i+1)), line)
	}
}

// Verification prints a scan result.
func (r *Renderer) Verification(url string, report domain.ScanReport) {
	v := report.Verification
	r.Preview(domain.ScriptPreview{URL: url, Verification: v, Trust: report.Trust})
	source := "network"
	if report.FromCache {
		source = "cache"
	}
	fmt.Fprintf(r.out, "\n  %s%s\n", styleLabel.Render("Source:"), source)
	fmt.Fprintf(r.out, "  %s%s\n", styleLabel.Render("Trust:"), report.Trust.Status)
	if !v.HasWarnings() {
		fmt.Fprintf(r.out, "  %s\n", styleOK.Render("No risk flags raised"))
	}
}

var _ ports.Presenter = (*Renderer)(nil)
