package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash"
	"github.com/rs/zerolog"

	"github.com/stupid-simple/assetkeeper/asset"
	"github.com/stupid-simple/assetkeeper/fileutils"
)

var errInvalidName = errors.New("invalid file name")

// Store keeps physical asset files under one root directory per kind.
// The request path only ever appends new files; deletes come from the
// background paths (collector, post-commit cleanup).
type Store struct {
	roots  map[asset.Kind]string
	logger zerolog.Logger
}

func New(imageDir, videoDir string, logger zerolog.Logger) (*Store, error) {
	roots := map[asset.Kind]string{
		asset.Image: imageDir,
		asset.Video: videoDir,
	}
	for kind, dir := range roots {
		if err := fileutils.EnsureDir(dir); err != nil {
			return nil, fmt.Errorf("could not prepare %s root: %w", kind, err)
		}
	}
	return &Store{roots: roots, logger: logger}, nil
}

func (s *Store) Root(kind asset.Kind) string {
	return s.roots[kind]
}

// Path returns the absolute-ish path of name under the kind root without
// checking existence. Names must be bare filenames.
func (s *Store) Path(kind asset.Kind, name string) (string, error) {
	root, ok := s.roots[kind]
	if !ok {
		return "", fmt.Errorf("%w: %q", asset.ErrUnknownKind, kind)
	}
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("%w: %q", errInvalidName, name)
	}
	return filepath.Join(root, name), nil
}

// Write stores the reader contents as a new file. The file must not already
// exist. If maxBytes is positive and the contents exceed it, the partial file
// is removed and asset.ErrMaxSizeExceeded returned. Returns the byte count
// and content hash.
func (s *Store) Write(kind asset.Kind, name string, r io.Reader, maxBytes int64) (int64, uint64, error) {
	path, err := s.Path(kind, name)
	if err != nil {
		return 0, 0, err
	}

	fil, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, 0, err
	}

	hash := xxhash.New()
	src := r
	if maxBytes > 0 {
		src = io.LimitReader(r, maxBytes+1)
	}

	written, err := io.Copy(io.MultiWriter(fil, hash), src)
	closeErr := fil.Close()
	err = errors.Join(err, closeErr)
	if err == nil && maxBytes > 0 && written > maxBytes {
		err = fmt.Errorf("%w: maximum %d bytes", asset.ErrMaxSizeExceeded, maxBytes)
	}
	if err != nil {
		if rmErr := os.Remove(path); rmErr != nil {
			s.logger.Warn().Err(rmErr).Str("path", path).Msg("could not remove partial file")
		}
		return 0, 0, err
	}

	return written, hash.Sum64(), nil
}

func (s *Store) Open(kind asset.Kind, name string) (*os.File, error) {
	path, err := s.Path(kind, name)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

func (s *Store) Exists(kind asset.Kind, name string) bool {
	path, err := s.Path(kind, name)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Remove deletes name from the kind root and returns the bytes freed.
// A missing file returns fs.ErrNotExist so callers can tell "already gone"
// apart from a real failure.
func (s *Store) Remove(kind asset.Kind, name string) (int64, error) {
	path, err := s.Path(kind, name)
	if err != nil {
		return 0, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if err := os.Remove(path); err != nil {
		return 0, err
	}
	return stat.Size(), nil
}

// ResolvePath maps a stored filename and an optional variant label ("small",
// "poster") to the physical path, verifying the file exists.
func (s *Store) ResolvePath(kind asset.Kind, filename string, variant string) (string, error) {
	name, ok := asset.VariantName(filename, variant)
	if !ok {
		return "", fmt.Errorf("%w: unknown variant %q", asset.ErrNotFound, variant)
	}
	path, err := s.Path(kind, name)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", asset.ErrNotFound, name)
		}
		return "", err
	}
	return path, nil
}
