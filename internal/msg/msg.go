package msg

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

var (
	// Output receives every diagnostic line. The makefile itself never goes here.
	Output io.Writer = os.Stderr
	// Verbose enables Debug output.
	Verbose bool
)

func emit(prefix, format string, a ...any) {
	fmt.Fprintf(Output, "%s: %s\n", prefix, fmt.Sprintf(format, a...))
}

func Error(format string, a ...any) {
	emit(color.HiRedString("error"), format, a...)
}

func Warn(format string, a ...any) {
	emit(color.YellowString("warn"), format, a...)
}

func Fatal(format string, a ...any) {
	emit(color.RedString("fatal"), format, a...)
	os.Exit(1)
}

func Info(format string, a ...any) {
	emit(color.HiGreenString("info"), format, a...)
}

// Debug prints only when Verbose is set
func Debug(format string, a ...any) {
	if !Verbose {
		return
	}
	emit(color.HiBlackString("debug"), format, a...)
}

// IndentWriter prefixes every line written through it with Indent.
type IndentWriter struct {
	Indent    string
	W         io.Writer
	didIndent bool
}

func (w *IndentWriter) Write(p []byte) (n int, err error) {
	start := 0
	for i, c := range p {
		if !w.didIndent {
			if _, err := io.WriteString(w.W, w.Indent); err != nil {
				return start, err
			}
			w.didIndent = true
		}
		if c == '\n' || c == '\r' {
			if _, err := w.W.Write(p[start : i+1]); err != nil {
				return start, err
			}
			start = i + 1
			w.didIndent = false
		}
	}
	if start < len(p) {
		if _, err := w.W.Write(p[start:]); err != nil {
			return start, err
		}
	}
	return len(p), nil
}
