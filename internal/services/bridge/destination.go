package bridge

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// destinationDir maps a caller folder name to a directory. An empty name
// selects the cache dir; a name containing "/" is taken as an absolute
// folder (a file:// prefix is allowed); anything else lives under the
// external storage dir.
func (o *Orchestrator) destinationDir(folder string) string {
	switch {
	case folder == "":
		return o.cfg.CacheDir
	case strings.Contains(folder, "/"):
		return filepath.Clean(strings.TrimPrefix(folder, "file://"))
	default:
		return filepath.Join(o.cfg.ExternalStorageDir, folder)
	}
}

func validFileName(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.ContainsRune(name, 0)
}

func fileURI(path string) string {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}

// replaceFile writes data to path through a temp file in the same directory.
// The rename replaces any existing file, which stays intact if the write fails.
func replaceFile(path string, data io.Reader) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	// ensure cleanup of tmp on error
	defer func() {
		tmp.Close()
		os.Remove(tmpName)
	}()

	if _, err := io.Copy(tmp, data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp to final: %w", err)
	}

	return nil
}
