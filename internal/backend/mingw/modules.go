package mingw

import (
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"

	"github.com/qobs-build/mkgen/internal/project"
)

var errNoSources = errors.New("module has no sources")

// moduleHandler holds what all handlers share: the run context and the
// directories the current module writes into.
type moduleHandler struct {
	ctx    *HandlerContext
	module *project.Module
	dirs   []string
}

func (h *moduleHandler) opts() Options { return h.ctx.Options }

func (h *moduleHandler) begin(w io.Writer, m *project.Module) {
	h.module = m
	h.dirs = nil
	fmt.Fprintf(w, "# %s (%s) from %s\n", m.Name, m.Type, m.Location)
}

// needDirectory records that the intermediate copy of dir must exist and returns its name.
func (h *moduleHandler) needDirectory(dir string) string {
	target := h.opts().fixupTargetFilename(dir)
	if !slices.Contains(h.dirs, target) {
		h.dirs = append(h.dirs, target)
	}
	return target
}

// GenerateDirectoryTargets writes a rule for each directory the last
// processed module needs, unless an earlier module already did.
func (h *moduleHandler) GenerateDirectoryTargets(w io.Writer) error {
	for _, dir := range h.dirs {
		if h.ctx.dirs[dir] {
			continue
		}
		h.ctx.dirs[dir] = true
		fmt.Fprintf(w, "%s:\n\t${nmkdir} $@\n\n", dir)
	}
	h.dirs = nil
	return nil
}

func (h *moduleHandler) cflagsVar() string  { return h.module.Name + "_CFLAGS" }
func (h *moduleHandler) rcflagsVar() string { return h.module.Name + "_RCFLAGS" }

// generateMacros writes <module>_CFLAGS and <module>_RCFLAGS on top of base and rcBase.
func (h *moduleHandler) generateMacros(w io.Writer, base, rcBase string) {
	m := h.module
	o := h.opts()

	var local strings.Builder
	for _, inc := range m.Includes {
		local.WriteString(" -I" + o.normalizeFilename(inc.Directory))
	}
	for _, d := range m.Defines {
		local.WriteString(" -D" + d.Name)
		if d.Value != "" {
			local.WriteString("=" + d.Value)
		}
	}

	writeMacro(w, h.cflagsVar(), base+local.String()+" "+strings.Join(m.CFlags, " "))
	writeMacro(w, h.rcflagsVar(), rcBase+local.String())
	fmt.Fprintln(w)
}

func writeMacro(w io.Writer, name, value string) {
	line := name + " :="
	if value = strings.TrimSpace(value); value != "" {
		line += " " + value
	}
	fmt.Fprintln(w, line)
}

func stripExt(p string) string { return strings.TrimSuffix(p, path.Ext(p)) }

// generateObjectRules writes one rule per source and returns the link inputs in source order.
func (h *moduleHandler) generateObjectRules(w io.Writer, host bool) ([]string, error) {
	m := h.module
	o := h.opts()
	flags := "$(" + h.cflagsVar() + ")"

	cc, cxx := "$(CC)", "$(CXX)"
	if host {
		cc, cxx = "$(HOST_CC)", "$(HOST_CXX)"
	}

	var pch string
	if h.ctx.UsePCH && m.PrecompiledHeader != "" && !host {
		header := o.normalizeFilename(m.PrecompiledHeader)
		pch = header + ".gch"
		fmt.Fprintf(w, "%s: %s\n\t%s -x c-header -c $< -o $@ %s\n\n", pch, header, cc, flags)
	}

	var inputs []string
	for _, src := range m.Sources {
		source := o.normalizeFilename(src)
		base := stripExt(src)
		dir := h.needDirectory(path.Dir(src))

		switch ext := strings.ToLower(path.Ext(src)); ext {
		case ".c", ".cc", ".cpp", ".cxx", ".s":
			obj := o.fixupTargetFilename(base + ".o")
			compiler := cc
			switch ext {
			case ".cc", ".cpp", ".cxx":
				compiler = cxx
			case ".s":
				compiler = cc + " -x assembler-with-cpp"
			}
			prereqs := source
			if pch != "" && ext != ".s" {
				prereqs += " " + pch
			}
			fmt.Fprintf(w, "%s: %s | %s\n\t%s -c $< -o $@ %s\n\n", obj, prereqs, dir, compiler, flags)
			inputs = append(inputs, obj)
		case ".asm":
			obj := o.fixupTargetFilename(base + ".o")
			fmt.Fprintf(w, "%s: %s | %s\n\t$(NASM) -f win32 $< -o $@\n\n", obj, source, dir)
			inputs = append(inputs, obj)
		case ".rc":
			res := o.fixupTargetFilename(base + ".res")
			coff := o.fixupTargetFilename(base + ".coff")
			fmt.Fprintf(w, "%s: %s | %s\n\t$(wrc) $(%s) -o $@ $<\n\n", res, source, dir, h.rcflagsVar())
			fmt.Fprintf(w, "%s: %s\n\t$(WINDRES) -J res -i $< -o $@\n\n", coff, res)
			inputs = append(inputs, coff)
		case ".spec":
			def := o.fixupTargetFilename(base + ".def")
			fmt.Fprintf(w, "%s: %s | %s\n\t$(winebuild) -o $@ --def -E $<\n\n", def, source, dir)
			inputs = append(inputs, def)
		default:
			return nil, fmt.Errorf("don't know how to build %s", src)
		}
	}
	return inputs, nil
}

// libraries resolves the modules m links against to their dependency files.
func (h *moduleHandler) libraries() ([]string, error) {
	var libs []string
	for _, name := range h.module.Libraries {
		dep := h.ctx.Project.LocateModule(name)
		if dep == nil {
			return nil, fmt.Errorf("links against unknown module %q", name)
		}
		libs = append(libs, h.opts().fixupTargetFilename(dep.DependencyPath))
	}
	return libs, nil
}

// generateAlias adds a phony target named after the module. A module whose
// artifact already has that name gets none, the rule would depend on itself.
func (h *moduleHandler) generateAlias(w io.Writer, target string) {
	m := h.module
	o := h.opts()
	if m.Name == o.normalizeFilename(m.OutputPath) || (m.DependencyPath != "" && m.Name == o.normalizeFilename(m.DependencyPath)) {
		return
	}
	fmt.Fprintf(w, ".PHONY: %s\n%s: %s\n\n", h.module.Name, h.module.Name, target)
}

// compileAndArchive is shared by the handlers that turn sources into a single artifact with one command.
func (h *moduleHandler) compileAndArchive(w io.Writer, m *project.Module, host bool, command string) error {
	if len(m.Sources) == 0 {
		return errNoSources
	}
	if host {
		h.generateMacros(w, "", "")
	} else {
		h.generateMacros(w, "$(PROJECT_CFLAGS)", "$(PROJECT_RCFLAGS)")
	}

	inputs, err := h.generateObjectRules(w, host)
	if err != nil {
		return err
	}
	libs, err := h.libraries()
	if err != nil {
		return err
	}
	inputs = append(inputs, libs...)

	out := h.opts().fixupTargetFilename(m.OutputPath)
	if slices.Contains(inputs, out) {
		return fmt.Errorf("%s is both an input and the output", out)
	}
	dir := h.needDirectory(path.Dir(m.OutputPath))
	fmt.Fprintf(w, "%s: %s | %s\n\t%s\n\n", out, strings.Join(inputs, " "), dir, command)
	return nil
}

type buildToolHandler struct{ moduleHandler }

func newBuildToolHandler(ctx *HandlerContext) ModuleHandler {
	return &buildToolHandler{moduleHandler{ctx: ctx}}
}

// Process builds the tool with the host compiler. The init target refers to
// the tool by its dependency path, which is an alias of the intermediate copy.
func (h *buildToolHandler) Process(w io.Writer, m *project.Module) error {
	h.begin(w, m)
	if err := h.compileAndArchive(w, m, true, "$(HOST_CC) -o $@ $^"); err != nil {
		return err
	}

	o := h.opts()
	out := o.fixupTargetFilename(m.OutputPath)
	fmt.Fprintf(w, "ifneq (%s,)\n%s: %s\nendif\n\n", o.intermediate(), o.normalizeFilename(m.DependencyPath), out)
	h.generateAlias(w, out)
	return nil
}

type staticLibraryHandler struct{ moduleHandler }

func newStaticLibraryHandler(ctx *HandlerContext) ModuleHandler {
	return &staticLibraryHandler{moduleHandler{ctx: ctx}}
}

func (h *staticLibraryHandler) Process(w io.Writer, m *project.Module) error {
	h.begin(w, m)
	if err := h.compileAndArchive(w, m, false, "$(AR) -rc $@ $^"); err != nil {
		return err
	}
	h.generateAlias(w, h.opts().fixupTargetFilename(m.OutputPath))
	return nil
}

type objectLibraryHandler struct{ moduleHandler }

func newObjectLibraryHandler(ctx *HandlerContext) ModuleHandler {
	return &objectLibraryHandler{moduleHandler{ctx: ctx}}
}

func (h *objectLibraryHandler) Process(w io.Writer, m *project.Module) error {
	h.begin(w, m)
	if err := h.compileAndArchive(w, m, false, "$(LD) -r -o $@ $^"); err != nil {
		return err
	}
	h.generateAlias(w, h.opts().fixupTargetFilename(m.OutputPath))
	return nil
}

// linkSpec describes how a linked module type differs from a plain program.
type linkSpec struct {
	flags string
	// importLibrary: the link also writes the module's DependencyPath
	importLibrary bool
	// symbols: link an unstripped image first, then run rsym over it
	symbols bool
}

var linkSpecs = map[project.ModuleType]linkSpec{
	project.Kernel: {
		flags:   "-nostartfiles -nostdlib -Wl,--subsystem,native -Wl,--entry,_NtProcessStartup -Wl,--image-base,0x80000000",
		symbols: true,
	},
	project.KernelModeDLL: {
		flags:         "-shared -nostartfiles -nostdlib -Wl,--subsystem,native",
		importLibrary: true,
		symbols:       true,
	},
	project.KernelModeDriver: {
		flags:   "-nostartfiles -nostdlib -Wl,--subsystem,native -Wl,--entry,_DriverEntry@8",
		symbols: true,
	},
	project.NativeDLL: {
		flags:         "-shared -nostdlib -Wl,--subsystem,native",
		importLibrary: true,
		symbols:       true,
	},
	project.NativeCUI: {
		flags:   "-nostdlib -Wl,--subsystem,native -Wl,--entry,_NtProcessStartup@4",
		symbols: true,
	},
	project.Win32DLL: {
		flags:         "-shared",
		importLibrary: true,
		symbols:       true,
	},
	project.Win32CUI: {flags: "-mconsole", symbols: true},
	project.Win32GUI: {flags: "-mwindows", symbols: true},
	project.Program:  {},
	project.BootLoader: {
		flags: "-nostartfiles -nostdlib -Wl,-N -Wl,-Ttext,0x8000",
	},
}

type linkedHandler struct{ moduleHandler }

func newLinkedHandler(ctx *HandlerContext) ModuleHandler {
	return &linkedHandler{moduleHandler{ctx: ctx}}
}

func (h *linkedHandler) Process(w io.Writer, m *project.Module) error {
	h.begin(w, m)
	spec, ok := linkSpecs[m.Type]
	if !ok {
		return fmt.Errorf("module type %s is not linkable", m.Type)
	}
	if len(m.Sources) == 0 {
		return errNoSources
	}

	o := h.opts()
	h.generateMacros(w, "$(PROJECT_CFLAGS)", "$(PROJECT_RCFLAGS)")
	inputs, err := h.generateObjectRules(w, false)
	if err != nil {
		return err
	}
	libs, err := h.libraries()
	if err != nil {
		return err
	}
	inputs = append(inputs, libs...)

	out := o.fixupTargetFilename(m.OutputPath)
	dirs := []string{h.needDirectory(path.Dir(m.OutputPath))}

	image := out
	if spec.symbols {
		ext := path.Ext(m.OutputPath)
		image = o.fixupTargetFilename(stripExt(m.OutputPath) + ".nostrip" + ext)
	}

	command := "$(CC)"
	if spec.flags != "" {
		command += " " + spec.flags
	}
	command += " -o $@ $^"
	if spec.importLibrary {
		implib := o.fixupTargetFilename(m.DependencyPath)
		if d := h.needDirectory(path.Dir(m.DependencyPath)); !slices.Contains(dirs, d) {
			dirs = append(dirs, d)
		}
		command += " -Wl,--out-implib," + implib
	}
	command += " $(PROJECT_LFLAGS)"

	fmt.Fprintf(w, "%s: %s | %s\n\t%s\n\n", image, strings.Join(inputs, " "), strings.Join(dirs, " "), command)
	if spec.symbols {
		fmt.Fprintf(w, "%s: %s\n\t$(rsym) $< $@\n\n", out, image)
	}
	if spec.importLibrary {
		fmt.Fprintf(w, "%s: %s\n\n", o.fixupTargetFilename(m.DependencyPath), out)
	}
	h.generateAlias(w, out)
	return nil
}

type bootSectorHandler struct{ moduleHandler }

func newBootSectorHandler(ctx *HandlerContext) ModuleHandler {
	return &bootSectorHandler{moduleHandler{ctx: ctx}}
}

// Process assembles a flat binary from exactly one .asm source.
func (h *bootSectorHandler) Process(w io.Writer, m *project.Module) error {
	h.begin(w, m)
	if len(m.Sources) != 1 || strings.ToLower(path.Ext(m.Sources[0])) != ".asm" {
		return fmt.Errorf("boot sector %q needs exactly one .asm source", m.Name)
	}

	o := h.opts()
	out := o.fixupTargetFilename(m.OutputPath)
	dir := h.needDirectory(path.Dir(m.OutputPath))
	fmt.Fprintf(w, "%s: %s | %s\n\t$(NASM) -f bin -o $@ $<\n\n", out, o.normalizeFilename(m.Sources[0]), dir)
	h.generateAlias(w, out)
	return nil
}

type discImageHandler struct{ moduleHandler }

func newDiscImageHandler(ctx *HandlerContext) ModuleHandler {
	return &discImageHandler{moduleHandler{ctx: ctx}}
}

// Process packs the outputs of the listed modules into a cabinet on the CD
// tree and masters the image. A boot sector among them makes the image bootable.
func (h *discImageHandler) Process(w io.Writer, m *project.Module) error {
	h.begin(w, m)
	o := h.opts()

	var bootSector string
	var files []string
	for _, name := range m.Libraries {
		dep := h.ctx.Project.LocateModule(name)
		if dep == nil {
			return fmt.Errorf("disc image contains unknown module %q", name)
		}
		if dep.Type == project.BootSector && bootSector == "" {
			bootSector = o.fixupTargetFilename(dep.OutputPath)
			continue
		}
		files = append(files, o.fixupTargetFilename(dep.OutputPath))
	}

	out := o.fixupTargetFilename(m.OutputPath)
	cdDir := h.needDirectory(path.Join(m.Path, m.Name+".cd"))
	outDir := h.needDirectory(path.Dir(m.OutputPath))

	var prereqs []string
	if bootSector != "" {
		prereqs = append(prereqs, bootSector)
	}
	prereqs = append(prereqs, files...)

	fmt.Fprintf(w, "%s: %s | %s %s\n", out, strings.Join(prereqs, " "), outDir, cdDir)
	if len(files) > 0 {
		fmt.Fprintf(w, "\t$(cabman) -L %s -A %s\n", cdDir, strings.Join(files, " "))
	}
	cdmake := "$(cdmake) -v -m"
	if bootSector != "" {
		cdmake += " -b " + bootSector
	}
	fmt.Fprintf(w, "\t%s %s %s $@\n\n", cdmake, cdDir, strings.ToUpper(m.Name))
	h.generateAlias(w, out)
	return nil
}
