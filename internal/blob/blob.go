// Package blob stores uploaded item photos on disk under content-addressed
// names.
package blob

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeebo/blake3"
)

// URLPrefix is the public path prefix of stored blobs. References returned
// by Put start with it (without the leading slash).
const URLPrefix = "uploads"

// ErrInvalidRef is returned for references that do not name a stored blob.
var ErrInvalidRef = errors.New("invalid blob reference")

// Store writes blobs into Dir.
type Store struct {
	Dir string
}

// New creates the store directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating uploads dir: %w", err)
	}
	return &Store{Dir: dir}, nil
}

// Name returns the content-addressed file name for data.
func Name(data []byte, ext string) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:]) + ext
}

// Put stores data and returns its reference, e.g. "uploads/<hash>.jpg".
// Storing identical bytes twice yields the same reference; created reports
// whether this call wrote the file.
func (s *Store) Put(data []byte, ext string) (ref string, created bool, err error) {
	name := Name(data, ext)
	path := filepath.Join(s.Dir, name)
	ref = URLPrefix + "/" + name

	if _, err := os.Stat(path); err == nil {
		return ref, false, nil
	}

	tmp, err := os.CreateTemp(s.Dir, ".upload-*")
	if err != nil {
		return "", false, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", false, fmt.Errorf("writing blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", false, fmt.Errorf("closing blob: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", false, fmt.Errorf("renaming blob: %w", err)
	}
	return ref, true, nil
}

// Remove deletes the blob named by ref. A missing blob is not an error.
func (s *Store) Remove(ref string) error {
	name, err := nameOf(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.Dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing blob: %w", err)
	}
	return nil
}

// Handler serves stored blobs. Mount it at "/" + URLPrefix + "/".
func (s *Store) Handler() http.Handler {
	fs := http.FileServer(http.Dir(s.Dir))
	return http.StripPrefix("/"+URLPrefix+"/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := nameOf(URLPrefix + "/" + r.URL.Path); err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		fs.ServeHTTP(w, r)
	}))
}

// nameOf validates ref and returns the bare file name.
func nameOf(ref string) (string, error) {
	name, ok := strings.CutPrefix(ref, URLPrefix+"/")
	if !ok || name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	return name, nil
}
