package deleter

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDelete_RemovesTree(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "victim")
	require.NoError(t, os.MkdirAll(filepath.Join(target, "a", "b"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(target, "a", "b", "f"), []byte("data"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "keep"), []byte("x"), 0o644))

	require.NoError(t, Deleter{}.Delete(target))

	_, err := os.Stat(target)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, err = os.Stat(filepath.Join(root, "keep"))
	assert.NoError(t, err)
}

func TestDelete_Errors(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	tests := []struct {
		name string
		path string
		want error
	}{
		{"empty", "", ErrRefused},
		{"relative", "some/dir", ErrRefused},
		{"root", string(filepath.Separator), ErrRefused},
		{"missing", filepath.Join(root, "missing"), fs.ErrNotExist},
		{"file", file, ErrNotDirectory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Deleter{}.Delete(tt.path)

			var deleteErr *DeleteError
			require.ErrorAs(t, err, &deleteErr)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := os.Stat(file)
	assert.NoError(t, err, "a refused delete must not touch the file")
}

func TestDelete_RemoveFailureIsSurfaced(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "busy")
	require.NoError(t, os.Mkdir(target, 0o755))

	oldRemoveAll := osRemoveAll
	defer func() { osRemoveAll = oldRemoveAll }()

	osRemoveAll = func(path string) error {
		return &fs.PathError{Op: "unlinkat", Path: filepath.Join(path, "inner"), Err: fs.ErrPermission}
	}

	err := Deleter{}.Delete(target)

	var deleteErr *DeleteError
	require.ErrorAs(t, err, &deleteErr)
	assert.Equal(t, target, deleteErr.Path)
	assert.ErrorIs(t, err, fs.ErrPermission)
	assert.Contains(t, err.Error(), "inner")
}

func TestDelete_OtherRemoveError(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "dir")
	require.NoError(t, os.Mkdir(target, 0o755))

	oldRemoveAll := osRemoveAll
	defer func() { osRemoveAll = oldRemoveAll }()

	boom := errors.New("boom")
	osRemoveAll = func(string) error { return boom }

	assert.ErrorIs(t, Deleter{}.Delete(target), boom)
}
