package depcheck

import (
	"io/fs"
	"path"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qobs-build/mkgen/internal/project"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func memTree(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	mem := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, mem.MkdirAll(path.Dir(name), 0o755))
		require.NoError(t, afero.WriteFile(mem, name, []byte(content), 0o644))
		require.NoError(t, mem.Chtimes(name, epoch, epoch))
	}
	return mem
}

func demoProject() *project.Project {
	return &project.Project{
		Includes: []*project.Include{{Directory: "include"}, {Directory: "$(INTERMEDIATE)include"}},
		Modules: []*project.Module{
			{
				Name:     "ntdll",
				Type:     project.Win32DLL,
				Location: "project.toml",
				Sources:  []string{"dll/ntdll/main.c", "dll/ntdll/ntdll.rc", "dll/ntdll/ntdll.spec"},
				Includes: []*project.Include{{Directory: "dll/ntdll/inc"}},
			},
		},
	}
}

func demoTree(t *testing.T) afero.Fs {
	return memTree(t, map[string]string{
		"dll/ntdll/main.c":      "#include <windows.h>\n#include \"local.h\"\n  #  include <ntdll.h>\nint x;\n",
		"dll/ntdll/local.h":     "#include \"local.h\"\n",
		"dll/ntdll/inc/ntdll.h": "#include <ntdef.h>\n",
		"dll/ntdll/ntdll.rc":    "#include <version.h>\n",
		"dll/ntdll/ntdll.spec":  "#include <never.h>\n",
		"include/ntdef.h":       "",
		"include/version.h":     "",
		"include/never.h":       "",
	})
}

func TestCollectFollowsIncludes(t *testing.T) {
	c := New(demoTree(t))
	require.NoError(t, c.Collect(demoProject()))

	assert.Equal(t, []string{"dll/ntdll/inc/ntdll.h", "dll/ntdll/local.h", "include/ntdef.h"}, c.Dependencies("dll/ntdll/main.c"))
	assert.Equal(t, []string{"include/version.h"}, c.Dependencies("dll/ntdll/ntdll.rc"))
	assert.Nil(t, c.Dependencies("dll/ntdll/ntdll.spec"))
}

func TestCollectMissingSource(t *testing.T) {
	c := New(afero.NewMemMapFs())
	err := c.Collect(demoProject())
	require.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), "project.toml: module ntdll")
}

func TestCollectSkipsMakeVariableSources(t *testing.T) {
	tree := memTree(t, map[string]string{
		"src/main.c": "#include \"app.h\"\n",
		"src/app.h":  "",
	})
	p := &project.Project{Modules: []*project.Module{{
		Name:     "app",
		Type:     project.Program,
		Location: "project.toml",
		Sources:  []string{"src/main.c", "$(INTERMEDIATE)gen/version.c"},
	}}}

	c := New(tree)
	require.NoError(t, c.Collect(p))
	assert.Equal(t, []string{"src/app.h"}, c.Dependencies("src/main.c"))
	assert.Nil(t, c.Dependencies("$(INTERMEDIATE)gen/version.c"))
	require.NoError(t, c.Verify())
}

func TestVerifyTouchesStaleSources(t *testing.T) {
	tree := demoTree(t)
	later := epoch.Add(time.Hour)
	require.NoError(t, tree.Chtimes("include/ntdef.h", later, later))

	c := New(tree)
	touchedAt := epoch.Add(2 * time.Hour)
	c.now = func() time.Time { return touchedAt }

	require.NoError(t, c.Collect(demoProject()))
	require.NoError(t, c.Verify())

	assert.Equal(t, []string{"dll/ntdll/main.c"}, c.Touched)
	info, err := tree.Stat("dll/ntdll/main.c")
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(touchedAt))

	rc, err := tree.Stat("dll/ntdll/ntdll.rc")
	require.NoError(t, err)
	assert.True(t, rc.ModTime().Equal(epoch))

	// nothing is stale any more
	require.NoError(t, c.Verify())
	assert.Empty(t, c.Touched)
}
