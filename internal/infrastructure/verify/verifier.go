// Package verify hashes script content, flags risky shell patterns and
// compares digests against a known-checksum table.
//
// The risk flags are case-insensitive substring heuristics. They over-trigger
// on matches inside comments or strings and under-trigger on variants such as
// "sudo\t". They inform the operator; they are not a security control.
package verify

import (
	"strings"

	"github.com/doeshing/scriptgate/internal/domain"
	"github.com/doeshing/scriptgate/internal/pkg/digest"
	"github.com/doeshing/scriptgate/internal/ports"
)

var (
	sudoPatterns = []string{"sudo "}
	rmRfPatterns = []string{"rm -rf", "rm -fr"}
	// curl must also be present for a pipe to count.
	pipeToShellPatterns = []string{"| bash", "|bash", "| sh", "|sh"}
)

// Verifier implements ports.ScriptVerifier.
type Verifier struct{}

// NewVerifier returns a verifier.
func NewVerifier() Verifier {
	return Verifier{}
}

// Verify implements ports.ScriptVerifier. It is pure and total.
func (Verifier) Verify(url, content string) domain.ScriptVerification {
	lower := strings.ToLower(content)
	return domain.ScriptVerification{
		SourceURL:   url,
		SHA256:      digest.SHA256Hex(content),
		LineCount:   CountLines(content),
		SizeBytes:   len(content),
		HasSudo:     containsAny(lower, sudoPatterns),
		HasRmRf:     containsAny(lower, rmRfPatterns),
		HasCurlPipe: strings.Contains(lower, "curl") && containsAny(lower, pipeToShellPatterns),
	}
}

// CountLines counts newline-separated lines; a trailing newline does not start
// a new line and empty content has zero lines.
func CountLines(content string) int {
	return len(Lines(content))
}

// Lines splits content on "\n", dropping a trailing empty element and "\r"
// line endings.
func Lines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

func containsAny(haystack string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}

var _ ports.ScriptVerifier = Verifier{}
