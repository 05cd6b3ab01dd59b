package toolchain

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeCompiler(t *testing.T, produce bool, err error) (runFunc, *[]string) {
	t.Helper()
	var calls []string
	return func(name string, args ...string) error {
		calls = append(calls, name)
		require.Equal(t, "-c", args[0])
		header := args[1]
		_, statErr := os.Stat(header)
		require.NoError(t, statErr, "probe header must exist while the compiler runs")
		if produce {
			require.NoError(t, os.WriteFile(header+".gch", []byte("gch"), 0o644))
		}
		return err
	}, &calls
}

func TestDetectSupported(t *testing.T) {
	dir := t.TempDir()
	run, calls := fakeCompiler(t, true, nil)
	p := &PCHProber{Compiler: "gcc", Dir: dir, run: run}

	got := p.Detect()

	assert.Equal(t, PCHSupported, got)
	assert.True(t, got.Enabled())
	assert.Equal(t, []string{"gcc"}, *calls)
	_, err := os.Stat(filepath.Join(dir, probeHeader+".gch"))
	assert.True(t, os.IsNotExist(err), "artifact must be cleaned up")
}

func TestDetectUnsupported(t *testing.T) {
	run, _ := fakeCompiler(t, false, nil)
	p := &PCHProber{Compiler: "cc", Dir: t.TempDir(), run: run}

	got := p.Detect()

	assert.Equal(t, PCHUnsupported, got)
	assert.False(t, got.Enabled())
}

// A compiler that cannot run and a compiler without the feature both disable
// precompiled headers; only the internal result tells them apart.
func TestDetectProbeFailed(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"compiler missing", exec.ErrNotFound},
		{"compiler error", errors.New("exit status 1")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run, _ := fakeCompiler(t, false, tt.err)
			p := &PCHProber{Compiler: "gcc", Dir: t.TempDir(), run: run}

			got := p.Detect()

			assert.Equal(t, PCHProbeFailed, got)
			assert.False(t, got.Enabled())
		})
	}
}

func TestDetectArtifactWinsOverExitStatus(t *testing.T) {
	run, _ := fakeCompiler(t, true, errors.New("exit status 1"))
	p := &PCHProber{Compiler: "gcc", Dir: t.TempDir(), run: run}
	assert.Equal(t, PCHSupported, p.Detect())
}

func TestDetectWithoutCompiler(t *testing.T) {
	p := NewPCHProber("")
	assert.Equal(t, PCHProbeFailed, p.Detect())
}

func TestDetectUsesTemporaryDirectory(t *testing.T) {
	var seen string
	p := &PCHProber{Compiler: "gcc", run: func(name string, args ...string) error {
		seen = args[1]
		return nil
	}}

	assert.Equal(t, PCHUnsupported, p.Detect())
	require.NotEmpty(t, seen)
	_, err := os.Stat(filepath.Dir(seen))
	assert.True(t, os.IsNotExist(err), "temporary probe directory must be removed")
}

func TestFindCompiler(t *testing.T) {
	t.Setenv("CC", "")
	prev := lookPath
	t.Cleanup(func() { lookPath = prev })
	lookPath = func(file string) (string, error) {
		if file == "clang" {
			return "/usr/bin/clang", nil
		}
		return "", exec.ErrNotFound
	}

	assert.Equal(t, "/usr/bin/clang", FindCompiler(""))
	assert.Equal(t, "i686-w64-mingw32-gcc", FindCompiler("i686-w64-mingw32-gcc"))

	t.Setenv("CC", "tcc")
	assert.Equal(t, "tcc", FindCompiler(""))
}
