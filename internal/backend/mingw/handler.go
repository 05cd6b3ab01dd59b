package mingw

import (
	"fmt"
	"io"

	"github.com/qobs-build/mkgen/internal/project"
)

// ModuleHandler writes the rules of one module type. Process is always
// followed by GenerateDirectoryTargets for the same module.
type ModuleHandler interface {
	Process(w io.Writer, module *project.Module) error
	GenerateDirectoryTargets(w io.Writer) error
}

// HandlerContext is what every handler of a run shares.
type HandlerContext struct {
	Project *project.Project
	Options Options
	// UsePCH is the precompiled header probe result, fixed for the run.
	UsePCH bool
	// directory targets already written
	dirs map[string]bool
}

func newHandlerContext(p *project.Project, opts Options, usePCH bool) *HandlerContext {
	return &HandlerContext{
		Project: p,
		Options: opts,
		UsePCH:  usePCH,
		dirs:    make(map[string]bool),
	}
}

type handlerFactory func(ctx *HandlerContext) ModuleHandler

// handlers maps every module type to its handler. The set is closed: a type
// without an entry is a configuration error.
var handlers = map[project.ModuleType]handlerFactory{
	project.BuildTool:        newBuildToolHandler,
	project.StaticLibrary:    newStaticLibraryHandler,
	project.ObjectLibrary:    newObjectLibraryHandler,
	project.Kernel:           newLinkedHandler,
	project.KernelModeDLL:    newLinkedHandler,
	project.KernelModeDriver: newLinkedHandler,
	project.NativeDLL:        newLinkedHandler,
	project.NativeCUI:        newLinkedHandler,
	project.Win32DLL:         newLinkedHandler,
	project.Win32CUI:         newLinkedHandler,
	project.Win32GUI:         newLinkedHandler,
	project.Program:          newLinkedHandler,
	project.BootLoader:       newLinkedHandler,
	project.BootSector:       newBootSectorHandler,
	project.DiscImage:        newDiscImageHandler,
}

// UnknownModuleTypeError means no handler is registered for a module type.
type UnknownModuleTypeError struct {
	Location string
	Type     project.ModuleType
}

func (e *UnknownModuleTypeError) Error() string {
	return fmt.Sprintf("%s: no handler for module type %s", e.Location, e.Type)
}

func lookupHandler(registry map[project.ModuleType]handlerFactory, ctx *HandlerContext, location string, typ project.ModuleType) (ModuleHandler, error) {
	factory, ok := registry[typ]
	if !ok {
		return nil, &UnknownModuleTypeError{Location: location, Type: typ}
	}
	return factory(ctx), nil
}

// LookupHandler returns a fresh handler for modules of type typ declared at location.
func LookupHandler(ctx *HandlerContext, location string, typ project.ModuleType) (ModuleHandler, error) {
	return lookupHandler(handlers, ctx, location, typ)
}
