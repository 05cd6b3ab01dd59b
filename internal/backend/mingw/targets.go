package mingw

import (
	"fmt"
	"io"
	"strings"

	"github.com/qobs-build/mkgen/internal/project"
)

// allTargetFiles lists, in module order, the intermediate output of every
// module the default target builds.
func (o Options) allTargetFiles(modules []*project.Module) []string {
	var files []string
	for _, m := range modules {
		if m.Type.InAllTarget() {
			files = append(files, o.fixupTargetFilename(m.OutputPath))
		}
	}
	return files
}

// buildToolDependencies joins the dependency paths of every build tool module.
func (o Options) buildToolDependencies(modules []*project.Module) string {
	var deps []string
	for _, m := range modules {
		if m.Type == project.BuildTool {
			deps = append(deps, o.normalizeFilename(m.DependencyPath))
		}
	}
	return strings.Join(deps, " ")
}

func (b *Backend) generateAllTarget(w io.Writer) {
	fmt.Fprint(w, "all:")
	for _, file := range b.opts.allTargetFiles(b.project.Modules) {
		fmt.Fprintf(w, " %s", file)
	}
	fmt.Fprint(w, "\n\t\n\n")
}

func (b *Backend) generateInitTarget(w io.Writer) {
	intermediate := b.opts.intermediate()
	toolsDir := intermediate + "." + b.opts.Sep + "tools"

	prereqs := []string{toolsDir}
	if deps := b.opts.buildToolDependencies(b.project.Modules); deps != "" {
		prereqs = append(prereqs, deps)
	}
	prereqs = append(prereqs, b.opts.normalizeFilename(b.project.BuildNumberHeader))
	fmt.Fprintf(w, "init: %s\n\t\n\n", strings.Join(prereqs, " "))

	fmt.Fprintf(w, "%s:\n", toolsDir)
	fmt.Fprintf(w, "ifneq (%s,)\n", intermediate)
	fmt.Fprintf(w, "\t${nmkdir} %s\n", intermediate)
	fmt.Fprint(w, "endif\n")
	fmt.Fprintf(w, "\t${nmkdir} %s\n", toolsDir)
	fmt.Fprint(w, "\n")
}
