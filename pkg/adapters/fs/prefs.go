package fs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/quicknote/pkg/core"
)

// FileExt is the extension of namespace files.
const FileExt = ".json"

// errCorrupt reports a namespace file that could not be parsed.
var errCorrupt = errors.New("corrupt namespace file")

// prefs is the on-disk layout of one namespace.
type prefs struct {
	Version int               `json:"version"`
	Strings map[string]string `json:"strings"`
	Ints    map[string]int64  `json:"ints"`
}

func emptyPrefs() *prefs {
	return &prefs{
		Version: 1,
		Strings: make(map[string]string),
		Ints:    make(map[string]int64),
	}
}

// namespaceFile keeps one namespace in memory and reloads it when another
// process rewrites the file.
type namespaceFile struct {
	Path    string
	data    *prefs
	loaded  bool
	modTime time.Time
	size    int64
}

func newNamespaceFile(dir string, ns core.Namespace) *namespaceFile {
	return &namespaceFile{
		Path: filepath.Join(dir, string(ns)+FileExt),
		data: emptyPrefs(),
	}
}

// Refresh reloads the file if it changed on disk since the last load or save.
// A missing file is an empty namespace. A corrupt file is replaced by an
// empty namespace and errCorrupt is returned so the caller can log it.
func (f *namespaceFile) Refresh() error {
	info, err := os.Stat(f.Path)
	if os.IsNotExist(err) {
		f.data = emptyPrefs()
		f.loaded = true
		f.modTime = time.Time{}
		f.size = 0
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", f.Path, err)
	}

	if f.loaded && info.ModTime().Equal(f.modTime) && info.Size() == f.size {
		return nil
	}

	data, err := os.ReadFile(f.Path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", f.Path, err)
	}

	f.loaded = true
	f.modTime = info.ModTime()
	f.size = info.Size()

	loaded := emptyPrefs()
	if err := json.Unmarshal(data, loaded); err != nil {
		f.data = emptyPrefs()
		return fmt.Errorf("%w %s: %v", errCorrupt, f.Path, err)
	}
	if loaded.Strings == nil {
		loaded.Strings = make(map[string]string)
	}
	if loaded.Ints == nil {
		loaded.Ints = make(map[string]int64)
	}
	f.data = loaded
	return nil
}

// Save writes the namespace atomically and records its new mtime.
func (f *namespaceFile) Save() error {
	data, err := json.MarshalIndent(f.data, "", "  ")
	if err != nil {
		return err
	}
	if err := writeFileAtomic(f.Path, data, 0644); err != nil {
		return err
	}
	info, err := os.Stat(f.Path)
	if err != nil {
		return err
	}
	f.modTime = info.ModTime()
	f.size = info.Size()
	f.loaded = true
	return nil
}

// Len returns the number of values held.
func (f *namespaceFile) Len() int {
	return len(f.data.Strings) + len(f.data.Ints)
}
