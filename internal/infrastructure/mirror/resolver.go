// Package mirror rewrites GitHub-family URLs onto equivalent mirror origins.
package mirror

import (
	"net/url"
	"strings"

	"github.com/doeshing/scriptgate/internal/domain"
	"github.com/doeshing/scriptgate/internal/ports"
)

// Kind classifies a mirror base URL.
type Kind int

const (
	KindUnknown Kind = iota
	// KindRaw is the raw-content host itself.
	KindRaw
	// KindCDN serves GitHub content as <base>/<user>/<repo>@<branch>/<path>.
	KindCDN
)

// Resolver implements ports.MirrorResolver. It does no I/O.
type Resolver struct{}

// NewResolver returns a resolver.
func NewResolver() Resolver {
	return Resolver{}
}

// Classify reports how a mirror base expects paths to be laid out.
func Classify(mirrorBase string) Kind {
	switch {
	case strings.Contains(mirrorBase, domain.RawGitHubHost):
		return KindRaw
	case strings.Contains(mirrorBase, "jsdelivr"):
		return KindCDN
	default:
		return KindUnknown
	}
}

// IsGitHubURL reports whether fallback mirrors may serve the URL.
func IsGitHubURL(raw string) bool {
	return strings.Contains(raw, "github.com") ||
		strings.Contains(raw, "githubusercontent.com") ||
		strings.Contains(raw, domain.GitHubAPIHost)
}

// Resolve maps original onto mirrorBase. Rules are tried in order: raw-content
// URLs, API contents URLs, then github.com blob URLs.
func (Resolver) Resolve(original, mirrorBase string) (string, bool) {
	u, err := url.Parse(original)
	if err != nil {
		return "", false
	}
	base := strings.TrimRight(mirrorBase, "/")
	segments := pathSegments(u.Path)

	switch u.Host {
	case domain.RawGitHubHost:
		return fromRaw(original, segments, base)
	case domain.GitHubAPIHost:
		return fromAPI(u, segments, base)
	case domain.GitHubHost, "www." + domain.GitHubHost:
		return fromBlob(segments, base)
	}
	return "", false
}

func fromRaw(original string, segments []string, base string) (string, bool) {
	switch Classify(base) {
	case KindRaw:
		return original, true
	case KindCDN:
		if len(segments) < 4 {
			return "", false
		}
		user, repo, branch := segments[0], segments[1], segments[2]
		path := strings.Join(segments[3:], "/")
		return base + "/" + user + "/" + repo + "@" + branch + "/" + path, true
	}
	return "", false
}

// fromAPI handles https://api.github.com/repos/<user>/<repo>/contents/<path>?ref=<branch>.
func fromAPI(u *url.URL, segments []string, base string) (string, bool) {
	reposIdx := -1
	for i, segment := range segments {
		if segment == "repos" {
			reposIdx = i
			break
		}
	}
	if reposIdx < 0 || len(segments) <= reposIdx+4 {
		return "", false
	}
	user := segments[reposIdx+1]
	repo := segments[reposIdx+2]
	path := strings.Join(segments[reposIdx+4:], "/")
	branch := refParam(u.RawQuery)

	raw := domain.RawGitHubBase + "/" + user + "/" + repo + "/" + branch + "/" + path
	switch Classify(base) {
	case KindRaw:
		return base + "/" + user + "/" + repo + "/" + branch + "/" + path, true
	case KindCDN:
		return fromRaw(raw, pathSegments("/"+user+"/"+repo+"/"+branch+"/"+path), base)
	}
	return "", false
}

// fromBlob handles https://github.com/<user>/<repo>/blob/<branch>/<path>.
func fromBlob(segments []string, base string) (string, bool) {
	if len(segments) < 5 || segments[2] != "blob" {
		return "", false
	}
	rawSegments := append([]string{segments[0], segments[1]}, segments[3:]...)
	raw := domain.RawGitHubBase + "/" + strings.Join(rawSegments, "/")
	switch Classify(base) {
	case KindRaw:
		return raw, true
	case KindCDN:
		return fromRaw(raw, rawSegments, base)
	}
	return "", false
}

// refParam extracts the branch from a ref= query parameter, defaulting to main
// when the parameter is absent, empty or undecodable.
func refParam(rawQuery string) string {
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return domain.DefaultBranch
	}
	if ref := strings.TrimSpace(values.Get("ref")); ref != "" {
		return ref
	}
	return domain.DefaultBranch
}

func pathSegments(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

var _ ports.MirrorResolver = Resolver{}
