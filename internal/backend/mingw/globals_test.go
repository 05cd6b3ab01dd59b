package mingw

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/qobs-build/mkgen/internal/project"
)

func TestProjectCFlagsMacro(t *testing.T) {
	var buf bytes.Buffer
	generateProjectCFlagsMacro(&buf, "=",
		[]*project.Include{{Directory: "A"}, {Directory: "B"}},
		[]*project.Define{{Name: "X"}, {Name: "Y", Value: "1"}},
	)
	assert.Equal(t, "PROJECT_CFLAGS = -IA -IB -DX -DY=1\n", buf.String())
}

func TestGlobalsSkipBlockWithoutFlags(t *testing.T) {
	var buf bytes.Buffer
	generateGlobalCFlagsAndProperties(&buf, "=", nil, nil, nil, []*project.If{
		{Property: "ARCH", Value: "i386"},
		{
			Property:   "ARCH",
			Value:      "amd64",
			Properties: []*project.Property{{Name: "BITS", Value: "64"}},
			Ifs:        []*project.If{{Property: "DBG", Value: "1"}},
		},
	})
	assert.Zero(t, buf.Len())
}

func TestGlobalsBlockAccumulates(t *testing.T) {
	var buf bytes.Buffer
	generateGlobalCFlagsAndProperties(&buf, "=", nil, nil, nil, []*project.If{
		{Property: "ARCH", Value: "i386", Defines: []*project.Define{{Name: "_M_IX86"}}},
	})
	assert.Equal(t, "ifeq (\"$(ARCH)\",\"i386\")\nPROJECT_CFLAGS += -D_M_IX86\nendif\n\n", buf.String())
}

func TestGlobalsNestedBlocks(t *testing.T) {
	var buf bytes.Buffer
	generateGlobalCFlagsAndProperties(&buf, "=",
		[]*project.Property{{Name: "ARCH", Value: "i386"}},
		[]*project.Include{{Directory: "include"}},
		nil,
		[]*project.If{{
			Property: "ARCH",
			Value:    "i386",
			Ifs: []*project.If{{
				Property:   "DBG",
				Value:      "1",
				Properties: []*project.Property{{Name: "OPTIMIZE", Value: "0"}},
				Defines:    []*project.Define{{Name: "DBG", Value: "1"}},
			}},
		}},
	)

	want := "ARCH := i386\n" +
		"PROJECT_CFLAGS = -Iinclude\n" +
		"ifeq (\"$(ARCH)\",\"i386\")\n" +
		"ifeq (\"$(DBG)\",\"1\")\n" +
		"OPTIMIZE := 0\n" +
		"PROJECT_CFLAGS += -DDBG=1\n" +
		"endif\n\n" +
		"endif\n\n"
	assert.Equal(t, want, buf.String())
}

func TestGlobalVariables(t *testing.T) {
	tests := []struct {
		name   string
		hostOS string
		flags  []*project.LinkerFlag
		want   string
	}{
		{
			name:   "unix host without linker flags",
			hostOS: "linux",
			want: "mkdir = tools/rmkdir\n" +
				"winebuild = tools/winebuild/winebuild\n" +
				"bin2res = tools/bin2res/bin2res\n" +
				"cabman = tools/cabman/cabman\n" +
				"cdmake = tools/cdmake/cdmake\n" +
				"rsym = tools/rsym\n" +
				"wrc = tools/wrc/wrc\n" +
				"\n" +
				"PROJECT_RCFLAGS = $(PROJECT_CFLAGS)\n" +
				"PROJECT_LFLAGS = \n" +
				"\n",
		},
		{
			name:   "windows host",
			hostOS: "windows",
			flags:  []*project.LinkerFlag{{Flag: "-nostdlib"}, {Flag: "-Wl,--entry,_start"}},
			want: "mkdir = tools\\rmkdir.exe\n" +
				"winebuild = tools\\winebuild\\winebuild.exe\n" +
				"bin2res = tools\\bin2res\\bin2res.exe\n" +
				"cabman = tools\\cabman\\cabman.exe\n" +
				"cdmake = tools\\cdmake\\cdmake.exe\n" +
				"rsym = tools\\rsym.exe\n" +
				"wrc = tools\\wrc\\wrc.exe\n" +
				"\n" +
				"PROJECT_RCFLAGS = $(PROJECT_CFLAGS)\n" +
				"PROJECT_LFLAGS = -nostdlib -Wl,--entry,_start\n" +
				"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(&project.Project{LinkerFlags: tt.flags}, DefaultOptions(tt.hostOS))
			var buf bytes.Buffer
			b.generateGlobalVariables(&buf)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}
