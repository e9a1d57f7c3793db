package filesystem

import (
	"os"
	"path/filepath"
)

// AppName names the per-user directories owned by the tool.
const AppName = "scriptgate"

// UserHomeDir returns the current user's home directory.
// If the home directory cannot be determined, it returns "." as a fallback.
func UserHomeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

// ScriptCacheDir returns <user cache dir>/scriptgate/scripts, falling back to
// the system temp dir when no cache dir is known.
func ScriptCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, AppName, "scripts")
}

// ConfigDir returns <user config dir>/scriptgate.
func ConfigDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = filepath.Join(UserHomeDir(), ".config")
	}
	return filepath.Join(base, AppName)
}

// DataDir returns the directory holding the audit store. It follows
// XDG_DATA_HOME and defaults to ~/.local/share/scriptgate.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	return filepath.Join(UserHomeDir(), ".local", "share", AppName)
}

// ExpandPath resolves "~/" prefixes and cleans relative paths.
func ExpandPath(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if len(path) > 1 && path[:2] == "~/" {
		return filepath.Join(UserHomeDir(), path[2:])
	}
	return filepath.Clean(path)
}
