// Package mingw generates a GNU make build script for a project whose
// modules are built with a mingw toolchain.
package mingw

import (
	"fmt"
	"io"

	"github.com/qobs-build/mkgen/internal/msg"
	"github.com/qobs-build/mkgen/internal/project"
	"github.com/qobs-build/mkgen/internal/toolchain"
)

// PCHDetector reports whether the compiler can precompile headers.
type PCHDetector interface {
	Detect() toolchain.PCHSupport
}

// DependencyChecker runs after every module rule is written. Collect is
// always followed by Verify and an error from either aborts the run.
type DependencyChecker interface {
	Collect(p *project.Project) error
	Verify() error
}

// NopDependencyChecker checks nothing.
type NopDependencyChecker struct{}

func (NopDependencyChecker) Collect(*project.Project) error { return nil }
func (NopDependencyChecker) Verify() error                  { return nil }

// Backend turns a loaded project into a makefile. A Backend is good for one run.
type Backend struct {
	project *project.Project
	opts    Options

	Probe   PCHDetector
	Checker DependencyChecker

	handlers  map[project.ModuleType]handlerFactory
	usePCH    bool
	pchProbed bool
}

// New returns a backend probing opts.Compiler and checking nothing.
func New(p *project.Project, opts Options) *Backend {
	if opts.IntermediateVar == "" {
		opts.IntermediateVar = DefaultIntermediateVar
	}
	if opts.Sep == "" {
		opts.Sep = "/"
	}
	return &Backend{
		project:  p,
		opts:     opts,
		Probe:    toolchain.NewPCHProber(opts.Compiler),
		Checker:  NopDependencyChecker{},
		handlers: handlers,
	}
}

// DetectPCHSupport decides once per run whether modules get precompiled header rules.
func (b *Backend) DetectPCHSupport() bool {
	if b.pchProbed {
		return b.usePCH
	}
	b.pchProbed = true

	switch b.opts.PCH {
	case PCHOn:
		b.usePCH = true
	case PCHOff:
		b.usePCH = false
	default:
		support := b.Probe.Detect()
		msg.Debug("precompiled header probe: %s", support)
		b.usePCH = support.Enabled()
	}
	return b.usePCH
}

// Process writes the makefile named by the project.
func (b *Backend) Process() (err error) {
	b.DetectPCHSupport()

	mf, err := CreateMakefile(b.project.Makefile, b.opts.Progress)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := mf.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	msg.Info("generating %s", b.project.Makefile)
	return b.generate(mf)
}

// Generate writes the makefile to w instead of the project's makefile.
func (b *Backend) Generate(w io.Writer) error {
	b.DetectPCHSupport()
	return b.generate(w)
}

func (b *Backend) generate(w io.Writer) error {
	b.generateHeader(w)
	b.generateGlobalVariables(w)
	b.generateAllTarget(w)
	b.generateInitTarget(w)
	b.generateBuildFilesMacro(w)

	ctx := newHandlerContext(b.project, b.opts, b.usePCH)
	for _, m := range b.project.Modules {
		h, err := lookupHandler(b.handlers, ctx, m.Location, m.Type)
		if err != nil {
			return err
		}
		if err := h.Process(w, m); err != nil {
			return fmt.Errorf("%s: module %s: %w", m.Location, m.Name, err)
		}
		if err := h.GenerateDirectoryTargets(w); err != nil {
			return fmt.Errorf("%s: module %s: %w", m.Location, m.Name, err)
		}
	}

	if err := b.Checker.Collect(b.project); err != nil {
		return fmt.Errorf("dependency check: %w", err)
	}
	if err := b.Checker.Verify(); err != nil {
		return fmt.Errorf("dependency check: %w", err)
	}
	return nil
}
