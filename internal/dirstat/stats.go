package dirstat

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"time"
)

// ErrNotDirectory is reported when a scan target exists but is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// Entry represents an immediate subdirectory of a scanned directory.
type Entry struct {
	// Path is the absolute directory path.
	Path string `json:"path"`
	// Size is the cumulative size of all regular files below Path, in bytes.
	Size int64 `json:"size"`
}

// Name returns the last element of the entry path.
func (e Entry) Name() string {
	return filepath.Base(e.Path)
}

// Result holds the outcome of scanning a single directory.
type Result struct {
	// Path is the absolute path of the scanned directory.
	Path string `json:"path"`
	// Entries are the immediate subdirectories, largest first.
	Entries []Entry `json:"entries"`
	// Files is the number of regular files measured.
	Files int64 `json:"files"`
	// Skipped lists paths that could not be read and contributed nothing.
	Skipped []string `json:"skipped,omitempty"`
	// Elapsed is the total time taken for the scan.
	Elapsed time.Duration `json:"elapsed"`
}

// Total returns the combined size of all entries.
func (r Result) Total() int64 {
	var total int64
	for _, e := range r.Entries {
		total += e.Size
	}

	return total
}

// Contains reports whether e is one of the result entries.
func (r Result) Contains(e Entry) bool {
	return slices.Contains(r.Entries, e)
}

// ScanError is returned when the scan target itself cannot be listed.
type ScanError struct {
	// Path is the directory that was requested.
	Path string
	// Err is the underlying cause.
	Err error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scanning %q: %v", e.Path, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// collector aggregates counters from concurrent fastwalk callbacks using a mutex.
type collector struct {
	mu         sync.Mutex // Protect concurrent access
	fileCount  int64
	totalBytes int64
	skipped    []string
}

// add records a measured regular file.
func (c *collector) add(size int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.fileCount++
	c.totalBytes += size
}

// skip records a path that could not be read.
func (c *collector) skip(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.skipped = append(c.skipped, path)
}

// snapshot returns the running file and byte counts.
func (c *collector) snapshot() (int64, int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.fileCount, c.totalBytes
}

// finalize returns the file count and the skipped paths in a stable order.
func (c *collector) finalize() (int64, []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	skipped := slices.Clone(c.skipped)
	slices.Sort(skipped)

	return c.fileCount, skipped
}
