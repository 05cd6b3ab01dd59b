package mingw

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingWriter struct{ err error }

func (w failingWriter) Write([]byte) (int, error) { return 0, w.err }

func TestCreateMakefileAccessDenied(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "makefile.auto")

	_, err := CreateMakefile(path, nil)
	var denied *AccessDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, path, denied.Path)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "access denied")
}

func TestMakefileWritesAndCopiesProgress(t *testing.T) {
	path := filepath.Join(t.TempDir(), "makefile.auto")
	var progress bytes.Buffer

	mf, err := CreateMakefile(path, &progress)
	require.NoError(t, err)
	_, err = mf.Write([]byte("all:\n\t\n\n"))
	require.NoError(t, err)
	assert.Equal(t, "all:\n\t\n\n", progress.String())

	require.NoError(t, mf.Close())
	require.NoError(t, mf.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "all:\n\t\n\n", string(data))

	_, err = mf.Write([]byte("late"))
	assert.ErrorIs(t, err, os.ErrClosed)
}

func TestMakefileErrorSticks(t *testing.T) {
	boom := errors.New("boom")
	mf, err := CreateMakefile(filepath.Join(t.TempDir(), "makefile.auto"), failingWriter{boom})
	require.NoError(t, err)

	_, err = mf.Write([]byte("first"))
	require.ErrorIs(t, err, boom)
	_, err = mf.Write([]byte("second"))
	require.ErrorIs(t, err, boom)

	assert.ErrorIs(t, mf.Close(), boom)
}
