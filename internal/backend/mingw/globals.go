package mingw

import (
	"fmt"
	"io"
	"strings"

	"github.com/qobs-build/mkgen/internal/project"
)

// helper tools every module may refer to, built as BuildTool modules
var toolMacros = []struct {
	name string
	path []string
}{
	{"mkdir", []string{"tools", "rmkdir"}},
	{"winebuild", []string{"tools", "winebuild", "winebuild"}},
	{"bin2res", []string{"tools", "bin2res", "bin2res"}},
	{"cabman", []string{"tools", "cabman", "cabman"}},
	{"cdmake", []string{"tools", "cdmake", "cdmake"}},
	{"rsym", []string{"tools", "rsym"}},
	{"wrc", []string{"tools", "wrc", "wrc"}},
}

func (b *Backend) generateHeader(w io.Writer) {
	fmt.Fprintf(w, "# THIS FILE IS AUTOMATICALLY GENERATED, EDIT '%s' INSTEAD\n\n", b.project.Filename)
}

func (b *Backend) generateGlobalVariables(w io.Writer) {
	for _, tool := range toolMacros {
		fmt.Fprintf(w, "%s = %s%s\n", tool.name, b.opts.join(tool.path...), b.opts.ExeSuffix)
	}
	fmt.Fprintln(w)

	p := b.project
	generateGlobalCFlagsAndProperties(w, "=", p.Properties, p.Includes, p.Defines, p.Ifs)
	fmt.Fprintln(w, "PROJECT_RCFLAGS = $(PROJECT_CFLAGS)")
	fmt.Fprintf(w, "PROJECT_LFLAGS = %s\n", generateProjectLFlags(p.LinkerFlags))
	fmt.Fprintln(w)
}

// generateProjectCFlagsMacro writes PROJECT_CFLAGS with the given assignment operator.
func generateProjectCFlagsMacro(w io.Writer, assignOp string, includes []*project.Include, defines []*project.Define) {
	var sb strings.Builder
	sb.WriteString("PROJECT_CFLAGS ")
	sb.WriteString(assignOp)
	for _, inc := range includes {
		sb.WriteString(" -I")
		sb.WriteString(inc.Directory)
	}
	for _, d := range defines {
		sb.WriteString(" -D")
		sb.WriteString(d.Name)
		if d.Value != "" {
			sb.WriteString("=")
			sb.WriteString(d.Value)
		}
	}
	sb.WriteString("\n")
	io.WriteString(w, sb.String())
}

// generateGlobalCFlagsAndProperties lowers a configuration scope into make
// assignments. Properties always define; assignOp applies to PROJECT_CFLAGS
// only. Every nested if block accumulates with +=.
func generateGlobalCFlagsAndProperties(
	w io.Writer,
	assignOp string,
	properties []*project.Property,
	includes []*project.Include,
	defines []*project.Define,
	ifs []*project.If,
) {
	for _, prop := range properties {
		fmt.Fprintf(w, "%s := %s\n", prop.Name, prop.Value)
	}

	if len(includes) > 0 || len(defines) > 0 {
		generateProjectCFlagsMacro(w, assignOp, includes, defines)
	}

	for _, rIf := range ifs {
		if !hasEffectiveContent(rIf) {
			continue
		}
		fmt.Fprintf(w, "ifeq (\"$(%s)\",\"%s\")\n", rIf.Property, rIf.Value)
		generateGlobalCFlagsAndProperties(w, "+=", rIf.Properties, rIf.Includes, rIf.Defines, rIf.Ifs)
		fmt.Fprint(w, "endif\n\n")
	}
}

// hasEffectiveContent reports whether an if block would contribute any
// compiler flag. Properties alone do not count.
func hasEffectiveContent(rIf *project.If) bool {
	if len(rIf.Includes) > 0 || len(rIf.Defines) > 0 {
		return true
	}
	for _, nested := range rIf.Ifs {
		if hasEffectiveContent(nested) {
			return true
		}
	}
	return false
}

func generateProjectLFlags(flags []*project.LinkerFlag) string {
	parts := make([]string, len(flags))
	for i, f := range flags {
		parts[i] = f.Flag
	}
	return strings.Join(parts, " ")
}
