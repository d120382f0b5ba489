package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Subdirectories under the upload root. Reuploaded files land at the root
// itself with a "reupload_" prefix.
const (
	DirDocuments  = "documents"
	DirSignatures = "signatures"
	DirTemp       = "temp"
)

// ErrFileNotFound indicates no candidate path resolved to a stored file.
var ErrFileNotFound = errors.New("file not found in storage")

// LocalStore persists uploaded documents on the local filesystem under a flat
// uploads directory.
type LocalStore struct {
	root   string
	logger zerolog.Logger
}

// NewLocalStore creates the upload directory tree if needed and returns a store.
func NewLocalStore(root string, logger zerolog.Logger) (*LocalStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("upload root must not be empty")
	}

	for _, dir := range []string{"", DirDocuments, DirSignatures, DirTemp} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create upload directory: %w", err)
		}
	}

	return &LocalStore{
		root:   root,
		logger: logger.With().Str("component", "local_store").Logger(),
	}, nil
}

// Save writes the reader's content into the given subdirectory under a
// timestamp+random name and returns the path relative to the upload root.
func (s *LocalStore) Save(ctx context.Context, dir, originalName string, reader io.Reader) (string, error) {
	name := storedName("", originalName)
	relative := filepath.ToSlash(filepath.Join(dir, name))
	if dir == "" {
		relative = name
	}

	if err := s.write(relative, reader); err != nil {
		return "", err
	}

	s.logger.Debug().Str("path", relative).Msg("file stored")
	return relative, nil
}

// SaveReupload writes an admin override file at the uploads root using the
// reupload naming convention.
func (s *LocalStore) SaveReupload(ctx context.Context, originalName string, reader io.Reader) (string, error) {
	name := storedName("reupload_", originalName)
	if err := s.write(name, reader); err != nil {
		return "", err
	}

	s.logger.Debug().Str("path", name).Msg("reupload stored")
	return name, nil
}

// Remove deletes a stored file. Used for best-effort cleanup when the
// database update after a write fails.
func (s *LocalStore) Remove(path string) error {
	clean, err := s.clean(path)
	if err != nil {
		return err
	}
	return os.Remove(filepath.Join(s.root, clean))
}

// Resolve finds the absolute path for a stored file name, trying the known
// subdirectory prefixes when the name alone does not resolve.
func (s *LocalStore) Resolve(name string) (string, error) {
	clean, err := s.clean(name)
	if err != nil {
		return "", err
	}

	candidates := []string{
		clean,
		filepath.Join(DirDocuments, clean),
		filepath.Join(DirSignatures, clean),
		filepath.Join(DirTemp, clean),
	}
	for _, candidate := range candidates {
		full := filepath.Join(s.root, candidate)
		if info, err := os.Stat(full); err == nil && !info.IsDir() {
			return full, nil
		}
	}

	return "", ErrFileNotFound
}

func (s *LocalStore) write(relative string, reader io.Reader) error {
	clean, err := s.clean(relative)
	if err != nil {
		return err
	}

	full := filepath.Join(s.root, clean)
	out, err := os.Create(full)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(out, reader); err != nil {
		out.Close()
		os.Remove(full)
		return fmt.Errorf("failed to write file: %w", err)
	}

	return out.Close()
}

// clean rejects traversal outside the upload root.
func (s *LocalStore) clean(path string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(path))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid storage path %q", path)
	}
	return clean, nil
}

func storedName(prefix, originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	stamp := time.Now().UTC().Format("20060102T150405")
	suffix := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("%s%s_%s%s", prefix, stamp, suffix, ext)
}
