package project

import (
	"fmt"
	"strings"
)

// ModuleType is the closed set of artifacts a module can produce.
type ModuleType int

const (
	BuildTool ModuleType = iota
	StaticLibrary
	ObjectLibrary
	Kernel
	KernelModeDLL
	KernelModeDriver
	NativeDLL
	NativeCUI
	Win32DLL
	Win32CUI
	Win32GUI
	Program
	BootLoader
	BootSector
	DiscImage
)

var moduleTypeNames = [...]string{
	BuildTool:        "buildtool",
	StaticLibrary:    "staticlibrary",
	ObjectLibrary:    "objectlibrary",
	Kernel:           "kernel",
	KernelModeDLL:    "kernelmodedll",
	KernelModeDriver: "kernelmodedriver",
	NativeDLL:        "nativedll",
	NativeCUI:        "nativecui",
	Win32DLL:         "win32dll",
	Win32CUI:         "win32cui",
	Win32GUI:         "win32gui",
	Program:          "program",
	BootLoader:       "bootloader",
	BootSector:       "bootsector",
	DiscImage:        "iso",
}

// ModuleTypes lists every known module type in declaration order.
func ModuleTypes() []ModuleType {
	types := make([]ModuleType, len(moduleTypeNames))
	for i := range moduleTypeNames {
		types[i] = ModuleType(i)
	}
	return types
}

func (t ModuleType) String() string {
	if t < 0 || int(t) >= len(moduleTypeNames) {
		return fmt.Sprintf("ModuleType(%d)", int(t))
	}
	return moduleTypeNames[t]
}

// ParseModuleType accepts the names used in description files, case-insensitively.
func ParseModuleType(s string) (ModuleType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range moduleTypeNames {
		if name == s {
			return ModuleType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown module type %q", s)
}

func (t *ModuleType) UnmarshalText(text []byte) error {
	parsed, err := ParseModuleType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t ModuleType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// InAllTarget reports whether modules of this type are built by the default target.
// Object libraries and boot sectors only exist as inputs to other modules,
// disc images are built on request.
func (t ModuleType) InAllTarget() bool {
	switch t {
	case ObjectLibrary, BootSector, DiscImage:
		return false
	}
	return true
}

// HasImportLibrary is true for DLL-like types, whose consumers link against lib<name>.a.
func (t ModuleType) HasImportLibrary() bool {
	switch t {
	case KernelModeDLL, NativeDLL, Win32DLL:
		return true
	}
	return false
}

// targetName is the default file name for a module of type t.
func (t ModuleType) targetName(name, hostExeSuffix string) string {
	switch t {
	case BuildTool:
		return name + hostExeSuffix
	case StaticLibrary:
		return "lib" + name + ".a"
	case ObjectLibrary:
		return name + ".o"
	case KernelModeDLL, NativeDLL, Win32DLL:
		return name + ".dll"
	case KernelModeDriver:
		return name + ".sys"
	case BootLoader:
		return name + ".sys"
	case BootSector:
		return name + ".bin"
	case DiscImage:
		return name + ".iso"
	default:
		return name + ".exe"
	}
}
