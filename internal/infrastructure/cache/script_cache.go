package cache

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/doeshing/scriptgate/internal/domain"
	"github.com/doeshing/scriptgate/internal/pkg/digest"
	"github.com/doeshing/scriptgate/internal/pkg/filesystem"
	"github.com/doeshing/scriptgate/internal/ports"
)

// ScriptCache stores script bodies as plain files named by a hash of the
// source URL. Entries older than the TTL are removed when next looked up.
// There is no locking; a single interactive process owns the directory.
type ScriptCache struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

// NewScriptCache returns a cache rooted at dir. An empty dir selects
// <user cache dir>/scriptgate/scripts and a non-positive ttl selects one hour.
func NewScriptCache(dir string, ttl time.Duration) *ScriptCache {
	if dir == "" {
		dir = filesystem.ScriptCacheDir()
	}
	if ttl <= 0 {
		ttl = domain.DefaultCacheTTL
	}
	return &ScriptCache{
		dir: filesystem.ExpandPath(dir),
		ttl: ttl,
		now: time.Now,
	}
}

// Key returns the cache-key hash of a URL: the first 16 hex characters of its SHA-256.
func Key(url string) string {
	return digest.SHA256Hex(url)[:domain.CacheKeyLength]
}

// Get implements ports.ScriptCache.
func (c *ScriptCache) Get(url string) (domain.CachedScript, bool, error) {
	path := c.pathFor(url)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.CachedScript{}, false, nil
		}
		return domain.CachedScript{}, false, fmt.Errorf("%w: %v", domain.ErrCacheIO, err)
	}

	if c.now().Sub(info.ModTime()) > c.ttl {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return domain.CachedScript{}, false, fmt.Errorf("%w: evict %s: %v", domain.ErrCacheIO, path, err)
		}
		return domain.CachedScript{}, false, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return domain.CachedScript{}, false, fmt.Errorf("%w: %v", domain.ErrCacheIO, err)
	}
	content := string(data)
	return domain.CachedScript{
		SourceURL: url,
		Content:   content,
		SHA256:    digest.SHA256Hex(content),
		CachedAt:  c.now(),
	}, true, nil
}

// Put implements ports.ScriptCache. Content is written verbatim.
func (c *ScriptCache) Put(url, content string) error {
	if err := os.MkdirAll(c.dir, domain.DirectoryPermissions); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCacheIO, err)
	}
	if err := os.WriteFile(c.pathFor(url), []byte(content), domain.CacheFilePermissions); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCacheIO, err)
	}
	return nil
}

// SaveNamed writes content to <dir>/<sanitized name>.sh, marks it executable
// and returns the path.
func (c *ScriptCache) SaveNamed(name, content string) (string, error) {
	if err := os.MkdirAll(c.dir, domain.DirectoryPermissions); err != nil {
		return "", fmt.Errorf("create script directory: %w", err)
	}
	safe := SanitizeName(name)
	if safe == "" {
		safe = "script"
	}
	path := filepath.Join(c.dir, safe+domain.ScriptFileExt)
	if err := os.WriteFile(path, []byte(content), domain.ExecutableFilePermissions); err != nil {
		return "", fmt.Errorf("save script: %w", err)
	}
	// WriteFile keeps the mode of an existing file and is subject to umask.
	if err := os.Chmod(path, domain.ExecutableFilePermissions); err != nil {
		return "", fmt.Errorf("mark script executable: %w", err)
	}
	return path, nil
}

// Dir exposes the cache directory path.
func (c *ScriptCache) Dir() string {
	return c.dir
}

// Clear removes all cached and saved scripts.
func (c *ScriptCache) Clear() error {
	return os.RemoveAll(c.dir)
}

// Entries lists files in the cache directory, newest first.
func (c *ScriptCache) Entries() ([]domain.CacheEntry, error) {
	files, err := os.ReadDir(c.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var entries []domain.CacheEntry
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), domain.ScriptFileExt) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		stem := strings.TrimSuffix(f.Name(), domain.ScriptFileExt)
		entries = append(entries, domain.CacheEntry{
			Name:    stem,
			Path:    filepath.Join(c.dir, f.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
			Saved:   !isCacheKey(stem),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ModTime.After(entries[j].ModTime) })
	return entries, nil
}

// IsStale reports whether a URL-keyed entry has outlived the TTL. Saved
// scripts never expire.
func (c *ScriptCache) IsStale(entry domain.CacheEntry) bool {
	return !entry.Saved && c.now().Sub(entry.ModTime) > c.ttl
}

// Prune removes stale URL-keyed entries and returns how many were removed.
func (c *ScriptCache) Prune() (int, error) {
	entries, err := c.Entries()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrCacheIO, err)
	}
	removed := 0
	for _, entry := range entries {
		if !c.IsStale(entry) {
			continue
		}
		if err := os.Remove(entry.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, fmt.Errorf("%w: %v", domain.ErrCacheIO, err)
		}
		removed++
	}
	return removed, nil
}

// SanitizeName keeps letters, digits, '-' and '_' and replaces everything else with '_'.
func SanitizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if isAlnum(r) || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

func (c *ScriptCache) pathFor(url string) string {
	return filepath.Join(c.dir, Key(url)+domain.ScriptFileExt)
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func isCacheKey(stem string) bool {
	if len(stem) != domain.CacheKeyLength {
		return false
	}
	_, err := hex.DecodeString(stem)
	return err == nil && strings.ToLower(stem) == stem
}

var _ ports.ScriptCache = (*ScriptCache)(nil)
var _ ports.CacheRepository = (*ScriptCache)(nil)
