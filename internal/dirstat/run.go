package dirstat

import (
	"cmp"
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync/atomic"
	"time"

	"github.com/charlievieth/fastwalk"
)

// DefaultProgressInterval is the default interval for progress updates.
const DefaultProgressInterval = 500 * time.Millisecond

// walk is the subtree walker.
//
//nolint:gochecknoglobals // Replaced in tests
var walk = fastwalk.Walk

// Scanner measures the immediate subdirectories of a directory.
type Scanner struct {
	// Logger receives a debug record for every skipped path. Nil discards them.
	Logger *slog.Logger
	// Progress is called periodically with the running file and byte counts.
	Progress func(files, bytes int64)
	// ProgressInterval controls progress callback cadence.
	ProgressInterval time.Duration
}

// startProgressReporter invokes hook(files, bytes) on each tick until ctx is done.
//
//nolint:varnamelen // c is idiomatic for collector
func startProgressReporter(ctx context.Context, c *collector, hook func(int64, int64), interval time.Duration) {
	if hook == nil {
		return
	}

	if interval <= 0 {
		interval = DefaultProgressInterval
	}

	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				hook(c.snapshot())
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Scan lists the immediate subdirectories of dir and measures each one recursively.
//
// Only a failure to list dir itself is returned, as a *ScanError. Unreadable
// paths below it are recorded in Result.Skipped and contribute zero bytes.
// Symbolic links are never followed: a child that is a link to a directory is
// left out of the result, and links inside a subtree count as nothing.
//
// Entries are sorted by size, largest first; equal sizes keep directory order.
// The scan stops early only when ctx is cancelled, returning ctx.Err().
func (s Scanner) Scan(ctx context.Context, dir string) (Result, error) {
	log := s.logger()

	if dir == "" {
		dir = "."
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return Result{}, &ScanError{Path: dir, Err: err}
	}

	info, err := os.Stat(abs)
	if err != nil {
		return Result{}, &ScanError{Path: abs, Err: err}
	}

	if !info.IsDir() {
		return Result{}, &ScanError{Path: abs, Err: ErrNotDirectory}
	}

	children, err := os.ReadDir(abs)
	if err != nil {
		return Result{}, &ScanError{Path: abs, Err: err}
	}

	collector := &collector{}

	// Create child context to ensure progress reporter cleanup
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	startProgressReporter(ctx, collector, s.Progress, s.ProgressInterval)

	start := time.Now()
	entries := make([]Entry, 0, len(children))

	for _, child := range children {
		path := filepath.Join(abs, child.Name())

		if child.Type()&fs.ModeSymlink != 0 {
			log.Debug("skipping symlink", "path", path)

			continue
		}

		if !child.IsDir() {
			continue
		}

		size, err := dirSize(ctx, collector, log, path)
		if err != nil {
			return Result{}, err
		}

		entries = append(entries, Entry{Path: path, Size: size})
	}

	slices.SortStableFunc(entries, func(a, b Entry) int {
		return cmp.Compare(b.Size, a.Size)
	})

	files, skipped := collector.finalize()

	log.Debug("scan complete", "path", abs, "entries", len(entries), "files", files, "skipped", len(skipped))

	return Result{
		Path:    abs,
		Entries: entries,
		Files:   files,
		Skipped: skipped,
		Elapsed: time.Since(start),
	}, nil
}

// dirSize sums the sizes of all regular files below root.
// Errors are absorbed into the collector; only cancellation is returned.
//
//nolint:varnamelen // d is standard for DirEntry
func dirSize(ctx context.Context, c *collector, log *slog.Logger, root string) (int64, error) {
	var size atomic.Int64

	skip := func(path string, err error) {
		log.Debug("skipping path", "path", path, "error", err)
		c.skip(path)
	}

	// Configure fastwalk
	conf := &fastwalk.Config{
		Follow: false, // Don't follow symlinks
	}

	walkErr := walk(conf, root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			skip(path, err)

			return nil
		}

		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		fileInfo, err := d.Info()
		if err != nil {
			skip(path, err)

			return nil //nolint:nilerr // Intentionally skip errors during walk
		}

		size.Add(fileInfo.Size())
		c.add(fileInfo.Size())

		return nil
	})

	if ctxErr := ctx.Err(); ctxErr != nil {
		return 0, ctxErr
	}

	if walkErr != nil {
		skip(root, walkErr)
	}

	return size.Load(), nil
}

func (s Scanner) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}

	return s.Logger
}
