// Package deleter removes directory trees.
//
// Delete only removes; it never rescans. Callers holding scan results are
// expected to refresh them afterwards.
package deleter

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

var (
	// ErrRefused is reported for paths that are never deleted (empty, relative or a filesystem root).
	ErrRefused = errors.New("refusing to delete")
	// ErrNotDirectory is reported when the path exists but is not a directory.
	ErrNotDirectory = errors.New("not a directory")
)

//nolint:gochecknoglobals // Replaced in tests
var (
	osLstat     = os.Lstat
	osRemoveAll = os.RemoveAll
)

// DeleteError carries the path that failed to delete and the cause.
type DeleteError struct {
	Path string
	Err  error
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("deleting %q: %v", e.Path, e.Err)
}

func (e *DeleteError) Unwrap() error {
	return e.Err
}

// Deleter recursively removes directories.
type Deleter struct {
	// Logger receives an info record for every removed directory. Nil discards them.
	Logger *slog.Logger
}

// Delete removes the directory at path and everything below it.
// Confirmation must already have been obtained. Any failure, including one
// partway through the tree, is returned as a *DeleteError.
func (d Deleter) Delete(path string) error {
	cleaned, err := validate(path)
	if err != nil {
		return &DeleteError{Path: path, Err: err}
	}

	info, err := osLstat(cleaned)
	if err != nil {
		return &DeleteError{Path: cleaned, Err: err}
	}

	if !info.IsDir() {
		return &DeleteError{Path: cleaned, Err: ErrNotDirectory}
	}

	if err := osRemoveAll(cleaned); err != nil {
		return &DeleteError{Path: cleaned, Err: unwrapPathError(err)}
	}

	d.logger().Info("deleted directory", "path", cleaned)

	return nil
}

func (d Deleter) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}

	return d.Logger
}

func validate(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: empty path", ErrRefused)
	}

	if !filepath.IsAbs(path) {
		return "", fmt.Errorf("%w: relative path", ErrRefused)
	}

	cleaned := filepath.Clean(path)
	if filepath.Dir(cleaned) == cleaned {
		return "", fmt.Errorf("%w: filesystem root", ErrRefused)
	}

	return cleaned, nil
}

// unwrapPathError keeps the cause of a *fs.PathError, whose path may name a
// file deep inside the tree, while staying matchable with errors.Is.
func unwrapPathError(err error) error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return fmt.Errorf("%s: %w", pathErr.Path, pathErr.Err)
	}

	return err
}
