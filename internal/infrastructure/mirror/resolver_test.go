package mirror

import "testing"

const (
	rawBase = "https://raw.githubusercontent.com"
	cdnBase = "https://cdn.jsdelivr.net/gh"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		original string
		mirror   string
		want     string
		wantOK   bool
	}{
		{
			name:     "raw to jsdelivr",
			original: "https://raw.githubusercontent.com/user/repo/main/path/to/file.sh",
			mirror:   cdnBase,
			want:     "https://cdn.jsdelivr.net/gh/user/repo@main/path/to/file.sh",
			wantOK:   true,
		},
		{
			name:     "raw to raw is unchanged",
			original: "https://raw.githubusercontent.com/user/repo/main/file.sh",
			mirror:   rawBase,
			want:     "https://raw.githubusercontent.com/user/repo/main/file.sh",
			wantOK:   true,
		},
		{
			name:     "raw without path cannot map to cdn",
			original: "https://raw.githubusercontent.com/user/repo/main",
			mirror:   cdnBase,
			wantOK:   false,
		},
		{
			name:     "blob to raw",
			original: "https://github.com/user/repo/blob/main/file.sh",
			mirror:   rawBase,
			want:     "https://raw.githubusercontent.com/user/repo/main/file.sh",
			wantOK:   true,
		},
		{
			name:     "blob to jsdelivr",
			original: "https://github.com/user/repo/blob/dev/ct/app.sh",
			mirror:   cdnBase,
			want:     "https://cdn.jsdelivr.net/gh/user/repo@dev/ct/app.sh",
			wantOK:   true,
		},
		{
			name:     "api contents to raw",
			original: "https://api.github.com/repos/user/repo/contents/tools/pve/clean.sh?ref=release",
			mirror:   rawBase,
			want:     "https://raw.githubusercontent.com/user/repo/release/tools/pve/clean.sh",
			wantOK:   true,
		},
		{
			name:     "api contents without ref defaults to main",
			original: "https://api.github.com/repos/user/repo/contents/file.sh",
			mirror:   rawBase,
			want:     "https://raw.githubusercontent.com/user/repo/main/file.sh",
			wantOK:   true,
		},
		{
			name:     "api contents with empty ref defaults to main",
			original: "https://api.github.com/repos/user/repo/contents/file.sh?ref=&per_page=1",
			mirror:   rawBase,
			want:     "https://raw.githubusercontent.com/user/repo/main/file.sh",
			wantOK:   true,
		},
		{
			name:     "api contents to jsdelivr",
			original: "https://api.github.com/repos/user/repo/contents/file.sh?ref=v2",
			mirror:   cdnBase,
			want:     "https://cdn.jsdelivr.net/gh/user/repo@v2/file.sh",
			wantOK:   true,
		},
		{
			name:     "api contents nested path to jsdelivr on main",
			original: "https://api.github.com/repos/user/repo/contents/ct/pve/app.sh",
			mirror:   cdnBase,
			want:     "https://cdn.jsdelivr.net/gh/user/repo@main/ct/pve/app.sh",
			wantOK:   true,
		},
		{
			name:     "api repo root is not rewritable",
			original: "https://api.github.com/repos/user/repo",
			mirror:   rawBase,
			wantOK:   false,
		},
		{
			name:     "github tree url is not rewritable",
			original: "https://github.com/user/repo/tree/main/dir",
			mirror:   rawBase,
			wantOK:   false,
		},
		{
			name:     "unknown mirror kind",
			original: "https://raw.githubusercontent.com/user/repo/main/file.sh",
			mirror:   "https://mirror.example.com",
			wantOK:   false,
		},
		{
			name:     "non github url",
			original: "https://example.com/install.sh",
			mirror:   rawBase,
			wantOK:   false,
		},
		{
			name:     "trailing slash on mirror",
			original: "https://raw.githubusercontent.com/user/repo/main/file.sh",
			mirror:   cdnBase + "/",
			want:     "https://cdn.jsdelivr.net/gh/user/repo@main/file.sh",
			wantOK:   true,
		},
	}

	resolver := NewResolver()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := resolver.Resolve(tt.original, tt.mirror)
			if ok != tt.wantOK {
				t.Fatalf("Resolve(%q, %q) ok = %v, want %v (got %q)", tt.original, tt.mirror, ok, tt.wantOK, got)
			}
			if got != tt.want {
				t.Fatalf("Resolve(%q, %q) = %q, want %q", tt.original, tt.mirror, got, tt.want)
			}
		})
	}
}

func TestIsGitHubURL(t *testing.T) {
	cases := map[string]bool{
		"https://github.com/user/repo":                          true,
		"https://raw.githubusercontent.com/user/repo/main/file": true,
		"https://api.github.com/repos/user/repo":                true,
		"https://example.com/file":                              false,
	}
	for raw, want := range cases {
		if got := IsGitHubURL(raw); got != want {
			t.Errorf("IsGitHubURL(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestClassify(t *testing.T) {
	if Classify(rawBase) != KindRaw {
		t.Fatalf("expected raw kind for %s", rawBase)
	}
	if Classify(cdnBase) != KindCDN {
		t.Fatalf("expected cdn kind for %s", cdnBase)
	}
	if Classify("https://example.com") != KindUnknown {
		t.Fatal("expected unknown kind")
	}
}
