package mingw

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/qobs-build/mkgen/internal/project"
)

func TestAllTargetMembership(t *testing.T) {
	var modules []*project.Module
	var want []string
	for _, typ := range project.ModuleTypes() {
		m := &project.Module{Name: typ.String(), Type: typ, OutputPath: "out/" + typ.String()}
		modules = append(modules, m)
		switch typ {
		case project.ObjectLibrary, project.BootSector, project.DiscImage:
		default:
			want = append(want, "$(INTERMEDIATE)out/"+typ.String())
		}
	}

	opts := DefaultOptions("linux")
	assert.Equal(t, want, opts.allTargetFiles(modules))
}

func TestAllTargetKeepsModuleOrder(t *testing.T) {
	b := New(&project.Project{Modules: []*project.Module{
		{Name: "app", Type: project.Program, OutputPath: "bin/app"},
		{Name: "crt", Type: project.ObjectLibrary, OutputPath: "lib/crt.o"},
		{Name: "foo", Type: project.BuildTool, OutputPath: "tools/foo"},
	}}, DefaultOptions("linux"))

	var buf bytes.Buffer
	b.generateAllTarget(&buf)
	assert.Equal(t, "all: $(INTERMEDIATE)bin/app $(INTERMEDIATE)tools/foo\n\t\n\n", buf.String())
}

func TestInitTarget(t *testing.T) {
	p := &project.Project{
		BuildNumberHeader: "include/buildno.h",
		Modules: []*project.Module{
			{Name: "foo", Type: project.BuildTool, OutputPath: "tools/foo", DependencyPath: "tools/foo"},
			{Name: "app", Type: project.Program, OutputPath: "bin/app", DependencyPath: "bin/app"},
			{Name: "bar", Type: project.BuildTool, OutputPath: "tools/bar/bar", DependencyPath: "tools/bar/bar"},
		},
	}

	var buf bytes.Buffer
	New(p, DefaultOptions("linux")).generateInitTarget(&buf)

	want := "init: $(INTERMEDIATE)./tools tools/foo tools/bar/bar include/buildno.h\n\t\n\n" +
		"$(INTERMEDIATE)./tools:\n" +
		"ifneq ($(INTERMEDIATE),)\n" +
		"\t${nmkdir} $(INTERMEDIATE)\n" +
		"endif\n" +
		"\t${nmkdir} $(INTERMEDIATE)./tools\n" +
		"\n"
	assert.Equal(t, want, buf.String())
}

func TestInitTargetWithoutBuildTools(t *testing.T) {
	opts := DefaultOptions("windows")
	opts.IntermediateVar = "OBJ"
	p := &project.Project{BuildNumberHeader: "include/buildno.h"}

	var buf bytes.Buffer
	New(p, opts).generateInitTarget(&buf)
	assert.Contains(t, buf.String(), "init: $(OBJ).\\tools include\\buildno.h\n\t\n\n")
}
