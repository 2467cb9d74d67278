package platform

import (
	"errors"
	"os"
	"path/filepath"
)

// ConfigFileName is the optional YAML file marking a store directory.
const ConfigFileName = "quicknote.yaml"

// ErrRootNotFound is returned by FindRoot when no store is found.
var ErrRootNotFound = errors.New("store root not found")

var rootIndicators = []string{ConfigFileName, "NOTES.json", "TODOS.json", "MANIFEST"}

// FindRoot looks upwards from startDir for a store directory, recognised
// by a config file or existing namespace files. It returns the absolute path.
func FindRoot(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		for _, name := range rootIndicators {
			if hasFile(dir, name) {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", ErrRootNotFound
}

func hasFile(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}
