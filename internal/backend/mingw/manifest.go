package mingw

import (
	"fmt"
	"io"
	"strings"
)

const buildFilesPerLine = 5

// generateBuildFilesMacro lists the description files the makefile was
// generated from, wrapped over several lines. Missing files are left out.
func (b *Backend) generateBuildFilesMacro(w io.Writer) {
	files := b.project.BuildFiles
	main := b.opts.normalizeFilename(b.project.Filename)

	last := -1
	for i, f := range files {
		if f.Exists {
			last = i
		}
	}
	if last < 0 {
		fmt.Fprintf(w, "BUILDFILES = %s\n\n", main)
		return
	}

	fmt.Fprintf(w, "BUILDFILES = %s \\\n", main)
	var names []string
	existing := 0
	for i, f := range files[:last+1] {
		if !f.Exists {
			continue
		}
		existing++
		names = append(names, b.opts.normalizeFilename(f.Path))
		if existing%buildFilesPerLine == buildFilesPerLine-1 || i == last {
			fmt.Fprintf(w, "\t%s", strings.Join(names, " "))
			if i == last {
				fmt.Fprint(w, "\n")
			} else {
				fmt.Fprint(w, " \\\n")
			}
			names = names[:0]
		}
		// counted twice per file: a line closes after every fifth file
		existing++
	}
	fmt.Fprint(w, "\n")
}
