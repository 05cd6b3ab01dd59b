package msg

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevNoColor, prevVerbose := Output, color.NoColor, Verbose
	Output, color.NoColor = &buf, true
	t.Cleanup(func() {
		Output, color.NoColor, Verbose = prevOut, prevNoColor, prevVerbose
	})
	return &buf
}

func TestInfoAndWarnPrefixes(t *testing.T) {
	buf := captureOutput(t)

	Info("wrote %s", "makefile.auto")
	Warn("%d modules skipped", 2)

	assert.Equal(t, "info: wrote makefile.auto\nwarn: 2 modules skipped\n", buf.String())
}

func TestDebugOnlyWhenVerbose(t *testing.T) {
	buf := captureOutput(t)

	Debug("hidden")
	assert.Empty(t, buf.String())

	Verbose = true
	Debug("shown")
	assert.Equal(t, "debug: shown\n", buf.String())
}

func TestIndentWriter(t *testing.T) {
	var buf bytes.Buffer
	w := &IndentWriter{Indent: "  ", W: &buf}

	_, _ = w.Write([]byte("first\nsec"))
	_, _ = w.Write([]byte("ond\nthird"))

	assert.Equal(t, "  first\n  second\n  third", buf.String())
}

func TestProgressBarCountsBytes(t *testing.T) {
	var buf bytes.Buffer
	pb := NewProgressBar("makefile", 0, &buf)

	n, err := pb.Write(make([]byte, 2048))
	assert.NoError(t, err)
	assert.Equal(t, 2048, n)
	assert.EqualValues(t, 2048, pb.Current)

	pb.Finish()
	assert.True(t, strings.HasSuffix(buf.String(), "makefile 2 KB  \n"))
}
