package mingw

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/qobs-build/mkgen/internal/project"
)

func buildFiles(exists ...bool) []*project.BuildFile {
	files := make([]*project.BuildFile, len(exists))
	for i, e := range exists {
		files[i] = &project.BuildFile{Path: fmt.Sprintf("f%d.toml", i+1), Exists: e}
	}
	return files
}

func allExist(n int) []bool {
	exists := make([]bool, n)
	for i := range exists {
		exists[i] = true
	}
	return exists
}

func TestBuildFilesMacro(t *testing.T) {
	tests := []struct {
		name  string
		files []*project.BuildFile
		want  string
	}{
		{
			name: "no extra files",
			want: "BUILDFILES = project.toml\n\n",
		},
		{
			name:  "only missing files",
			files: buildFiles(false, false),
			want:  "BUILDFILES = project.toml\n\n",
		},
		{
			name:  "single line",
			files: buildFiles(allExist(3)...),
			want:  "BUILDFILES = project.toml \\\n\tf1.toml f2.toml f3.toml\n\n",
		},
		{
			name:  "exactly one group",
			files: buildFiles(allExist(5)...),
			want:  "BUILDFILES = project.toml \\\n\tf1.toml f2.toml f3.toml f4.toml f5.toml\n\n",
		},
		{
			name:  "wraps after every fifth file",
			files: buildFiles(allExist(12)...),
			want: "BUILDFILES = project.toml \\\n" +
				"\tf1.toml f2.toml f3.toml f4.toml f5.toml \\\n" +
				"\tf6.toml f7.toml f8.toml f9.toml f10.toml \\\n" +
				"\tf11.toml f12.toml\n\n",
		},
		{
			name:  "missing files do not count",
			files: buildFiles(true, false, true, true, false, true, true, true),
			want: "BUILDFILES = project.toml \\\n" +
				"\tf1.toml f3.toml f4.toml f6.toml f7.toml \\\n" +
				"\tf8.toml\n\n",
		},
		{
			name:  "last file missing",
			files: buildFiles(true, true, false),
			want:  "BUILDFILES = project.toml \\\n\tf1.toml f2.toml\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(&project.Project{Filename: "project.toml", BuildFiles: tt.files}, DefaultOptions("linux"))
			var buf bytes.Buffer
			b.generateBuildFilesMacro(&buf)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}
