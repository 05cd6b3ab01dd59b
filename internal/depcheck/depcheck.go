// Package depcheck finds the headers every module source includes and
// touches sources whose headers changed, so make rebuilds them.
package depcheck

import (
	"bufio"
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/qobs-build/mkgen/internal/msg"
	"github.com/qobs-build/mkgen/internal/project"
)

var includeRe = regexp.MustCompile(`^\s*#\s*include\s*[<"]([^>"]+)[>"]`)

// sources worth scanning for #include lines
var scannedExts = []string{".c", ".cc", ".cpp", ".cxx", ".s", ".rc"}

// Checker scans sources through an afero.Fs rooted at the project directory.
type Checker struct {
	fs   afero.Fs
	jobs int
	now  func() time.Time

	mu     sync.Mutex
	parsed map[string][]string // file -> include names as written
	deps   map[string][]string // source -> every header it reaches

	// Touched lists the sources the last Verify updated.
	Touched []string
}

func New(fs afero.Fs) *Checker {
	return &Checker{
		fs:     fs,
		jobs:   runtime.NumCPU(),
		now:    time.Now,
		parsed: make(map[string][]string),
	}
}

// Collect scans every source of every module in parallel.
func (c *Checker) Collect(p *project.Project) error {
	c.deps = make(map[string][]string)

	var eg errgroup.Group
	eg.SetLimit(c.jobs)
	for _, m := range p.Modules {
		search := searchPath(p, m)
		for _, src := range m.Sources {
			if strings.HasPrefix(src, "$") {
				msg.Debug("%s: not scanning generated source %s", m.Name, src)
				continue
			}
			if !slices.Contains(scannedExts, strings.ToLower(path.Ext(src))) {
				continue
			}
			eg.Go(func() error {
				headers, err := c.scan(src, search)
				if err != nil {
					return fmt.Errorf("%s: module %s: %w", m.Location, m.Name, err)
				}
				c.mu.Lock()
				c.deps[src] = headers
				c.mu.Unlock()
				return nil
			})
		}
	}
	return eg.Wait()
}

// Dependencies returns the headers src includes, directly or not, sorted.
func (c *Checker) Dependencies(src string) []string {
	return c.deps[src]
}

// Verify touches every source older than one of its headers.
func (c *Checker) Verify() error {
	c.Touched = nil

	sources := make([]string, 0, len(c.deps))
	for src := range c.deps {
		sources = append(sources, src)
	}
	slices.Sort(sources)

	for _, src := range sources {
		info, err := c.fs.Stat(filepath.FromSlash(src))
		if err != nil {
			return err
		}

		var newest string
		for _, header := range c.deps[src] {
			hinfo, err := c.fs.Stat(filepath.FromSlash(header))
			if err != nil {
				continue
			}
			if hinfo.ModTime().After(info.ModTime()) {
				newest = header
				break
			}
		}
		if newest == "" {
			continue
		}

		msg.Info("%s is older than %s, touching it", src, newest)
		now := c.now()
		if err := c.fs.Chtimes(filepath.FromSlash(src), now, now); err != nil {
			return fmt.Errorf("touch %s: %w", src, err)
		}
		c.Touched = append(c.Touched, src)
	}
	return nil
}

// searchPath is where the headers of m are looked up after the including file's own directory.
func searchPath(p *project.Project, m *project.Module) []string {
	var dirs []string
	for _, inc := range slices.Concat(m.Includes, p.Includes) {
		// make variables can't be resolved here
		if strings.HasPrefix(inc.Directory, "$") {
			continue
		}
		dirs = append(dirs, inc.Directory)
	}
	return dirs
}

// scan follows the includes of src transitively. Headers that can't be
// found are left out, they are usually system headers.
func (c *Checker) scan(src string, search []string) ([]string, error) {
	names, err := c.includes(src)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{src: true}
	var headers []string
	type pending struct {
		dir   string
		names []string
	}
	queue := []pending{{path.Dir(src), names}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, name := range cur.names {
			header, ok := c.resolve(name, cur.dir, search)
			if !ok || seen[header] {
				continue
			}
			seen[header] = true
			headers = append(headers, header)

			nested, err := c.includes(header)
			if err != nil {
				msg.Debug("skipping %s: %v", header, err)
				continue
			}
			queue = append(queue, pending{path.Dir(header), nested})
		}
	}
	slices.Sort(headers)
	return headers, nil
}

func (c *Checker) resolve(name, dir string, search []string) (string, bool) {
	for _, d := range append([]string{dir}, search...) {
		candidate := path.Join(d, name)
		if ok, _ := afero.Exists(c.fs, filepath.FromSlash(candidate)); ok {
			return candidate, true
		}
	}
	return "", false
}

// includes returns the include names file contains, parsing it at most once.
func (c *Checker) includes(file string) ([]string, error) {
	c.mu.Lock()
	names, ok := c.parsed[file]
	c.mu.Unlock()
	if ok {
		return names, nil
	}

	f, err := c.fs.Open(filepath.FromSlash(file))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if m := includeRe.FindStringSubmatch(scanner.Text()); m != nil {
			names = append(names, m[1])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", file, err)
	}

	c.mu.Lock()
	c.parsed[file] = names
	c.mu.Unlock()
	return names, nil
}
