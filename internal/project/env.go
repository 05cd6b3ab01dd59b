package project

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// ConfigEnv is the environment {{ ... }} expressions in description files are evaluated in.
type ConfigEnv struct {
	TargetOS   string            `expr:"target_os"`
	TargetArch string            `expr:"target_arch"`
	ExeSuffix  string            `expr:"exe_suffix"`
	Environ    map[string]string `expr:"environ"`
	basedir    string
}

// NewConfigEnv builds an environment for a project rooted at basedir whose
// build script runs on hostOS ("windows" or anything else).
func NewConfigEnv(basedir, hostOS string) ConfigEnv {
	environ := make(map[string]string)
	for _, e := range os.Environ() {
		if i := strings.Index(e, "="); i >= 0 {
			environ[e[:i]] = e[i+1:]
		}
	}

	if hostOS == "" {
		hostOS = runtime.GOOS
	}
	exeSuffix := ""
	if hostOS == "windows" {
		exeSuffix = ".exe"
	}

	return ConfigEnv{
		TargetOS:   hostOS,
		TargetArch: runtime.GOARCH,
		ExeSuffix:  exeSuffix,
		Environ:    environ,
		basedir:    basedir,
	}
}

// ReadFile returns the trimmed contents of a file inside the project, e.g.
// version = "{{ ReadFile('VERSION') }}"
func (env ConfigEnv) ReadFile(path string) (string, error) {
	fullPath := filepath.Join(env.basedir, path)
	rel, err := filepath.Rel(env.basedir, fullPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q is outside of project directory %q", path, env.basedir)
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
