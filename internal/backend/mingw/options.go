package mingw

import (
	"fmt"
	"io"
	"path"
	"strings"
)

// PCHMode decides whether precompiled headers are probed for or forced.
type PCHMode string

const (
	PCHAuto PCHMode = "auto"
	PCHOn   PCHMode = "on"
	PCHOff  PCHMode = "off"
)

const DefaultIntermediateVar = "INTERMEDIATE"

// Options are the host conventions and switches of a run.
type Options struct {
	// Sep separates path components in emitted file names.
	Sep string
	// ExeSuffix is appended to the helper tool paths.
	ExeSuffix string
	// IntermediateVar names the make variable holding the intermediate directory prefix.
	IntermediateVar string
	PCH             PCHMode
	// Compiler is probed for precompiled header support.
	Compiler string
	// Progress, when set, sees every byte written to the makefile.
	Progress io.Writer
}

// DefaultOptions returns the conventions of a build script that runs on hostOS.
func DefaultOptions(hostOS string) Options {
	opts := Options{
		Sep:             "/",
		IntermediateVar: DefaultIntermediateVar,
		PCH:             PCHAuto,
	}
	if hostOS == "windows" {
		opts.Sep = `\`
		opts.ExeSuffix = ".exe"
	}
	return opts
}

func (o Options) intermediate() string {
	return fmt.Sprintf("$(%s)", o.IntermediateVar)
}

// normalizeFilename cleans p and rewrites its separators to Sep.
func (o Options) normalizeFilename(p string) string {
	p = path.Clean(strings.ReplaceAll(p, `\`, "/"))
	return strings.ReplaceAll(p, "/", o.Sep)
}

// fixupTargetFilename places p under the intermediate directory.
func (o Options) fixupTargetFilename(p string) string {
	return o.intermediate() + o.normalizeFilename(p)
}

func (o Options) join(elem ...string) string {
	return strings.Join(elem, o.Sep)
}
