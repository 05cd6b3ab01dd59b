package toolchain

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/qobs-build/mkgen/internal/msg"
)

// PCHSupport is the outcome of a precompiled header probe.
type PCHSupport int

const (
	PCHUnsupported PCHSupport = iota
	PCHSupported
	// PCHProbeFailed means the compiler could not be run or failed on the probe.
	PCHProbeFailed
)

func (s PCHSupport) String() string {
	switch s {
	case PCHSupported:
		return "supported"
	case PCHUnsupported:
		return "unsupported"
	case PCHProbeFailed:
		return "probe failed"
	}
	return fmt.Sprintf("PCHSupport(%d)", int(s))
}

// Enabled collapses the probe outcome: only a produced artifact enables precompiled headers.
func (s PCHSupport) Enabled() bool { return s == PCHSupported }

const (
	probeHeader = "pch_detection.h"
	probeSource = "/* precompiled header detection */\n#define PCH_DETECTION 1\n"
)

type runFunc func(name string, args ...string) error

// PCHProber compiles a throwaway header once to see whether Compiler emits a .gch file.
type PCHProber struct {
	Compiler string
	// Dir receives the probe header. A temporary directory is used when empty.
	Dir string
	run runFunc
}

func NewPCHProber(compiler string) *PCHProber {
	return &PCHProber{Compiler: compiler, run: runCommand}
}

func runCommand(name string, args ...string) error {
	var stderr bytes.Buffer
	cmd := exec.Command(name, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if out := strings.TrimSpace(stderr.String()); out != "" {
			return fmt.Errorf("%w: %s", err, out)
		}
		return err
	}
	return nil
}

// Detect blocks until the compiler exits. There is no timeout.
func (p *PCHProber) Detect() PCHSupport {
	if p.Compiler == "" {
		msg.Debug("pch probe: no compiler configured")
		return PCHProbeFailed
	}

	dir := p.Dir
	if dir == "" {
		tmp, err := os.MkdirTemp("", "mkgen-pch")
		if err != nil {
			msg.Debug("pch probe: %v", err)
			return PCHProbeFailed
		}
		defer os.RemoveAll(tmp)
		dir = tmp
	}

	header := filepath.Join(dir, probeHeader)
	if err := os.WriteFile(header, []byte(probeSource), 0o644); err != nil {
		msg.Debug("pch probe: %v", err)
		return PCHProbeFailed
	}
	defer os.Remove(header)

	artifact := header + ".gch"
	runErr := p.run(p.Compiler, "-c", header, "-o", artifact)

	if _, err := os.Stat(artifact); err == nil {
		if err := os.Remove(artifact); err != nil {
			msg.Warn("could not remove %s: %v", artifact, err)
		}
		return PCHSupported
	}
	if runErr != nil {
		msg.Debug("pch probe: %s: %v", p.Compiler, runErr)
		return PCHProbeFailed
	}
	return PCHUnsupported
}
