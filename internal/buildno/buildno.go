// Package buildno writes the build number header the init target depends on.
package buildno

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v6"
	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/qobs-build/mkgen/internal/msg"
)

// Info is what the header records.
type Info struct {
	// Build is the commit date (or the current date outside a repository) as YYYYMMDD.
	Build  int
	Commit string
	// ID is a random identifier for builds outside a repository, empty otherwise.
	ID string
}

// Describe reads HEAD of the repository containing dir. Outside a
// repository the build is numbered by now and gets a fresh ID.
func Describe(dir string, now time.Time) (Info, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		msg.Debug("%s is not in a git repository, using a random build id", dir)
		return Info{Build: dateNumber(now), ID: uuid.NewString()}, nil
	}
	if err != nil {
		return Info{}, err
	}

	head, err := repo.Head()
	if err != nil {
		return Info{}, fmt.Errorf("resolve HEAD: %w", err)
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return Info{}, err
	}
	return Info{
		Build:  dateNumber(commit.Committer.When.UTC()),
		Commit: head.Hash().String(),
	}, nil
}

func dateNumber(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

// Header renders info as a C header.
func (info Info) Header() []byte {
	var buf bytes.Buffer
	buf.WriteString("/* Do not edit - Machine generated */\n")
	buf.WriteString("#ifndef _INC_BUILDNO\n#define _INC_BUILDNO\n\n")
	fmt.Fprintf(&buf, "#define KERNEL_VERSION_BUILD %d\n", info.Build)
	fmt.Fprintf(&buf, "#define KERNEL_VERSION_BUILD_STR \"%d\"\n", info.Build)
	if info.Commit != "" {
		fmt.Fprintf(&buf, "#define KERNEL_VERSION_COMMIT \"%s\"\n", info.Commit)
	}
	if info.ID != "" {
		fmt.Fprintf(&buf, "#define KERNEL_BUILD_ID \"%s\"\n", info.ID)
	}
	buf.WriteString("\n#endif\n")
	return buf.Bytes()
}

// Write stores the header at name unless it already has that content, so
// that make doesn't rebuild everything that includes it. It reports whether
// the file changed.
func Write(fs afero.Fs, name string, info Info) (bool, error) {
	content := info.Header()
	old, err := afero.ReadFile(fs, name)
	if err == nil && bytes.Equal(old, content) {
		return false, nil
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, err
	}

	if err := fs.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return false, err
	}
	if err := afero.WriteFile(fs, name, content, 0o644); err != nil {
		return false, err
	}
	return true, nil
}
