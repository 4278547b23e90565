// Package stage decodes base64 uploads and writes them to a per-request
// directory on local disk.
package stage

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

// Stager writes decoded uploads under BaseDir/<token>/<filename>.
type Stager struct {
	baseDir string
}

// Staged is a decoded upload on disk. Call Cleanup when done.
type Staged struct {
	Path string
	Size int64
	dir  string
}

func New(baseDir string) *Stager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Stager{baseDir: baseDir}
}

// Stage decodes payload and writes it to a fresh token directory, so
// concurrent calls never share a path.
func (s *Stager) Stage(filename, payload string) (*Staged, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil, domain.ErrDecode.WithError(err)
	}

	name := filepath.Base(filename)
	if name == "." || name == string(filepath.Separator) {
		return nil, domain.ErrBadRequest.WithMessage("invalid filename %q", filename)
	}

	dir := filepath.Join(s.baseDir, uuid.NewString())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("write staged file: %w", err)
	}

	return &Staged{Path: path, Size: int64(len(data)), dir: dir}, nil
}

// Open returns a reader over the staged bytes.
func (s *Staged) Open() (io.ReadCloser, error) {
	return os.Open(s.Path)
}

// Cleanup removes the token directory.
func (s *Staged) Cleanup() error {
	if s == nil || s.dir == "" {
		return nil
	}
	return os.RemoveAll(s.dir)
}
