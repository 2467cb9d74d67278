package platform

import (
	"os"
	"path/filepath"
	"strings"
)

// IsDevRun reports whether the process runs via `go run` or `go test`.
// Both build their binaries in temporary directories.
func IsDevRun() bool {
	exe, err := os.Executable()
	if err != nil {
		return false
	}

	if strings.HasPrefix(strings.ToLower(exe), strings.ToLower(os.TempDir())) {
		return true
	}
	if strings.HasSuffix(exe, ".test") || strings.HasSuffix(exe, ".test.exe") {
		return true
	}
	return false
}

// ResolveStorePath returns the directory the store really uses.
// With forceTemp the path is re-rooted under <tmp>/quicknote-dev, unless it
// already lives inside the temp directory (e.g. t.TempDir()).
func ResolveStorePath(userPath string, forceTemp bool) string {
	if !forceTemp {
		if userPath == "" {
			return "."
		}
		return userPath
	}

	clean := filepath.Clean(userPath)
	rel, err := filepath.Rel(os.TempDir(), clean)
	if err == nil && filepath.IsAbs(clean) && !strings.HasPrefix(rel, "..") {
		return clean
	}

	name := filepath.Base(userPath)
	if userPath == "" || name == "." || name == string(os.PathSeparator) {
		name = "default"
	}
	return filepath.Join(os.TempDir(), "quicknote-dev", name)
}
