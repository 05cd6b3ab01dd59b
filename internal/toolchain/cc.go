package toolchain

import (
	"os"
	"os/exec"
)

var commonCompilers = []string{
	"gcc",
	"i686-w64-mingw32-gcc",
	"x86_64-w64-mingw32-gcc",
	"i586-mingw32msvc-gcc",
	"clang",
}

var lookPath = exec.LookPath

// FindCompiler returns the C compiler the generated makefile and the PCH probe use:
// preferred if set, then $CC, then the first common compiler on PATH.
func FindCompiler(preferred string) string {
	if preferred != "" {
		return preferred
	}
	if cc := os.Getenv("CC"); cc != "" {
		return cc
	}

	for _, compiler := range commonCompilers {
		if path, err := lookPath(compiler); err == nil {
			return path
		}
	}
	return ""
}
