// mkgen diff [project.toml]
package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	"github.com/qobs-build/mkgen/internal/backend/mingw"
	"github.com/qobs-build/mkgen/internal/msg"
)

// writeLineDiff prints a line diff of oldText against newText, colored
// when color is enabled. It reports whether anything differs.
func writeLineDiff(w io.Writer, oldText, newText string) bool {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	changed := false
	for _, d := range diffs {
		var prefix string
		var paint func(format string, a ...any) string
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			continue
		case diffmatchpatch.DiffInsert:
			prefix, paint = "+", color.GreenString
		case diffmatchpatch.DiffDelete:
			prefix, paint = "-", color.RedString
		}
		changed = true
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			fmt.Fprint(w, paint("%s%s", prefix, strings.TrimSuffix(line, "\n")), "\n")
		}
	}
	return changed
}

func doDiff(cmd *cobra.Command, args []string) {
	lp, err := loadProject(cmd, args)
	if err != nil {
		msg.Fatal("%v", err)
	}

	old, err := os.ReadFile(lp.project.Makefile)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		msg.Fatal("%v", err)
	}

	// the dependency check touches files, a diff only looks
	b := mingw.New(lp.project, lp.opts)
	var buf bytes.Buffer
	if err := b.Generate(&buf); err != nil {
		msg.Fatal("%v", err)
	}

	if !writeLineDiff(os.Stdout, string(old), buf.String()) {
		msg.Info("%s is up to date", lp.project.Makefile)
	}
}

var diffCmd = &cobra.Command{
	Use:   "diff [project.toml]",
	Short: "Show how regenerating would change the makefile",
	Args:  cobra.MaximumNArgs(1),
	Run:   doDiff,
}

func init() {
	rootCmd.AddCommand(diffCmd)
	addGenerateFlags(diffCmd)
}
