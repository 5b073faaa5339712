package dirstat

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/charlievieth/fastwalk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTree creates files relative to root; a trailing slash creates an empty directory.
func writeTree(t *testing.T, root string, files map[string]int) {
	t.Helper()

	for name, size := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if strings.HasSuffix(name, "/") {
			require.NoError(t, os.MkdirAll(path, 0o755))

			continue
		}

		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
	}
}

func TestScan_SizesAndOrder(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]int{
		"alpha/one.bin":          100,
		"alpha/nested/two.bin":   50,
		"alpha/nested/deep/x":    7,
		"beta/big.bin":           300,
		"gamma/":                 0,
		"top-level-file.txt":     999,
		"delta/inner/inner/leaf": 1,
	})

	res, err := Scanner{}.Scan(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, root, res.Path)
	assert.Equal(t, []Entry{
		{Path: filepath.Join(root, "beta"), Size: 300},
		{Path: filepath.Join(root, "alpha"), Size: 157},
		{Path: filepath.Join(root, "delta"), Size: 1},
		{Path: filepath.Join(root, "gamma"), Size: 0},
	}, res.Entries)
	assert.Equal(t, int64(458), res.Total())
	assert.Equal(t, int64(5), res.Files)
	assert.Empty(t, res.Skipped)
}

func TestScan_SortedDescending(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]int{
		"a/f": 10,
		"b/f": 40,
		"c/f": 20,
		"d/f": 40,
		"e/f": 5,
	})

	res, err := Scanner{}.Scan(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, res.Entries, 5)

	for i := 1; i < len(res.Entries); i++ {
		assert.GreaterOrEqual(t, res.Entries[i-1].Size, res.Entries[i].Size)
	}

	// Equal sizes keep directory order.
	assert.Equal(t, "b", res.Entries[0].Name())
	assert.Equal(t, "d", res.Entries[1].Name())
}

func TestScan_Idempotent(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]int{
		"x/1":   11,
		"x/y/2": 22,
		"z/3":   33,
		"w/":    0,
	})

	first, err := Scanner{}.Scan(context.Background(), root)
	require.NoError(t, err)

	second, err := Scanner{}.Scan(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, first.Entries, second.Entries)
	assert.Equal(t, first.Skipped, second.Skipped)
}

func TestScan_EmptyDirectory(t *testing.T) {
	res, err := Scanner{}.Scan(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, res.Entries)
	assert.Zero(t, res.Total())
}

func TestScan_TargetErrors(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]int{"file.txt": 3})

	t.Run("missing", func(t *testing.T) {
		_, err := Scanner{}.Scan(context.Background(), filepath.Join(root, "nope"))

		var scanErr *ScanError
		require.ErrorAs(t, err, &scanErr)
		assert.ErrorIs(t, err, fs.ErrNotExist)
		assert.Equal(t, filepath.Join(root, "nope"), scanErr.Path)
	})

	t.Run("not a directory", func(t *testing.T) {
		_, err := Scanner{}.Scan(context.Background(), filepath.Join(root, "file.txt"))

		var scanErr *ScanError
		require.ErrorAs(t, err, &scanErr)
		assert.ErrorIs(t, err, ErrNotDirectory)
	})
}

func TestScan_SymlinksNotFollowed(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}

	root := t.TempDir()
	outside := t.TempDir()
	writeTree(t, root, map[string]int{"real/data": 64})
	writeTree(t, outside, map[string]int{"huge": 4096})

	require.NoError(t, os.Symlink(outside, filepath.Join(root, "linked")))
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "real", "inner-link")))
	require.NoError(t, os.Symlink(filepath.Join(root, "missing"), filepath.Join(root, "real", "dangling")))

	res, err := Scanner{}.Scan(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, []Entry{{Path: filepath.Join(root, "real"), Size: 64}}, res.Entries)
	assert.Empty(t, res.Skipped)
}

func TestScan_PermissionDeniedIsSkipped(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}

	root := t.TempDir()
	writeTree(t, root, map[string]int{
		"pub/visible":        100,
		"pub/locked/secret":  500,
		"other/visible-only": 10,
	})

	locked := filepath.Join(root, "pub", "locked")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	res, err := Scanner{}.Scan(context.Background(), root)
	require.NoError(t, err)

	entry := lookup(t, res, filepath.Join(root, "pub"))
	assert.Equal(t, int64(100), entry.Size)
	assert.Contains(t, res.Skipped, locked)
}

func TestScan_TopLevelPermissionDenied(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}

	root := t.TempDir()
	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Mkdir(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	_, err := Scanner{}.Scan(context.Background(), locked)

	var scanErr *ScanError
	require.ErrorAs(t, err, &scanErr)
	assert.ErrorIs(t, err, fs.ErrPermission)
}

func TestScan_WalkErrorsAreCounted(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]int{
		"a/f": 10,
		"b/f": 20,
	})

	oldWalk := walk
	defer func() { walk = oldWalk }()

	walk = func(conf *fastwalk.Config, dir string, fn fs.WalkDirFunc) error {
		if err := fn(filepath.Join(dir, "vanished"), nil, fs.ErrNotExist); err != nil {
			return err
		}

		return fastwalk.Walk(conf, dir, fn)
	}

	res, err := Scanner{}.Scan(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, []Entry{
		{Path: filepath.Join(root, "b"), Size: 20},
		{Path: filepath.Join(root, "a"), Size: 10},
	}, res.Entries)
	assert.Equal(t, []string{
		filepath.Join(root, "a", "vanished"),
		filepath.Join(root, "b", "vanished"),
	}, res.Skipped)
}

func TestScan_WalkFailureKeepsEntry(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]int{"a/f": 10})

	oldWalk := walk
	defer func() { walk = oldWalk }()

	walk = func(*fastwalk.Config, string, fs.WalkDirFunc) error {
		return errors.New("walk exploded")
	}

	res, err := Scanner{}.Scan(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []Entry{{Path: filepath.Join(root, "a"), Size: 0}}, res.Entries)
	assert.Equal(t, []string{filepath.Join(root, "a")}, res.Skipped)
}

func TestScan_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]int{"a/f": 10})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Scanner{}.Scan(ctx, root)
	require.ErrorIs(t, err, context.Canceled)

	var scanErr *ScanError
	assert.NotErrorAs(t, err, &scanErr)
}

func TestStartProgressReporter(t *testing.T) {
	c := &collector{}
	c.add(2048)
	c.add(1024)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type report struct{ files, bytes int64 }

	reports := make(chan report, 1)
	startProgressReporter(ctx, c, func(files, bytes int64) {
		select {
		case reports <- report{files, bytes}:
		default:
		}
	}, time.Millisecond)

	select {
	case r := <-reports:
		assert.Equal(t, report{2, 3072}, r)
	case <-time.After(2 * time.Second):
		t.Fatal("progress hook was not called")
	}
}

func TestResult_Contains(t *testing.T) {
	res := Result{Entries: []Entry{{Path: "/a", Size: 1}, {Path: "/b", Size: 2}}}

	assert.True(t, res.Contains(Entry{Path: "/b", Size: 2}))
	assert.False(t, res.Contains(Entry{Path: "/b", Size: 3}))
	assert.False(t, res.Contains(Entry{Path: "/c", Size: 2}))

	assert.Equal(t, int64(1), lookup(t, res, "/a").Size)
}

// lookup returns the entry of res with the given path, failing the test if there is none.
func lookup(t *testing.T, res Result, path string) Entry {
	t.Helper()

	i := slices.IndexFunc(res.Entries, func(e Entry) bool { return e.Path == path })
	require.NotEqual(t, -1, i, "no entry for %s", path)

	return res.Entries[i]
}
