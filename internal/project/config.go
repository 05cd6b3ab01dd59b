package project

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/expr-lang/expr"
	"github.com/pelletier/go-toml/v2"
	"github.com/qobs-build/mkgen/internal/msg"
)

const (
	DefaultFilename          = "project.toml"
	defaultMakefile          = "makefile.auto"
	defaultBuildNumberHeader = "include/buildno.h"
)

// names of the fixed targets every generated makefile has
var reservedModuleNames = []string{"all", "init"}

var errNoProjectName = errors.New("[project] section must set a name")

// descriptionFile is the TOML schema shared by the main file and every file it pulls in.
// [project] is only honored in the main file.
type descriptionFile struct {
	Project     projectSection `toml:"project"`
	Files       []string       `toml:"files"`
	Includes    []string       `toml:"includes"`
	LinkerFlags []string       `toml:"linker_flags"`
	Properties  []propertyDesc `toml:"properties"`
	Defines     []defineDesc   `toml:"defines"`
	Ifs         []ifDesc       `toml:"if"`
	Modules     []moduleDesc   `toml:"module"`
}

type projectSection struct {
	Name              string `toml:"name"`
	Makefile          string `toml:"makefile"`
	BuildNumberHeader string `toml:"buildno"`
}

type propertyDesc struct {
	Name  string `toml:"name"`
	Value string `toml:"value"`
}

type defineDesc struct {
	Name  string `toml:"name"`
	Value string `toml:"value"`
}

type ifDesc struct {
	Property   string         `toml:"property"`
	Value      string         `toml:"value"`
	Includes   []string       `toml:"includes"`
	Properties []propertyDesc `toml:"properties"`
	Defines    []defineDesc   `toml:"defines"`
	Ifs        []ifDesc       `toml:"if"`
}

type moduleDesc struct {
	Name      string       `toml:"name"`
	Type      string       `toml:"type"`
	Path      string       `toml:"path"`
	Target    string       `toml:"target"`
	Sources   []string     `toml:"sources"`
	Includes  []string     `toml:"includes"`
	Defines   []defineDesc `toml:"defines"`
	Libraries []string     `toml:"libraries"`
	CFlags    []string     `toml:"cflags"`
	PCH       string       `toml:"pch"`
}

func mustMarshal(v any) string {
	b, err := toml.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}

var exprRegex = regexp.MustCompile(`\{\{(.+?)\}\}`)

// evaluateString finds and evaluates all {{...}} expressions in a string
func evaluateString(s string, env ConfigEnv) (string, error) {
	matches := exprRegex.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s, nil
	}

	var builder strings.Builder
	lastIndex := 0

	for _, m := range matches {
		builder.WriteString(s[lastIndex:m[0]])

		expression := strings.TrimSpace(s[m[2]:m[3]])
		program, err := expr.Compile(expression, expr.Env(env))
		if err != nil {
			return "", fmt.Errorf("failed to compile expression %q: %w", expression, err)
		}

		result, err := expr.Run(program, env)
		if err != nil {
			return "", fmt.Errorf("failed to run expression %q: %w", expression, err)
		}

		fmt.Fprintf(&builder, "%v", result)
		lastIndex = m[1]
	}

	builder.WriteString(s[lastIndex:])
	return builder.String(), nil
}

// processExpressions recursively walks the parsed TOML data and evaluates expressions in strings
func processExpressions(data any, env ConfigEnv) (any, error) {
	switch v := data.(type) {
	case map[string]any:
		for key, val := range v {
			processedVal, err := processExpressions(val, env)
			if err != nil {
				return nil, err
			}
			v[key] = processedVal
		}
		return v, nil
	case []any:
		for i, item := range v {
			processedItem, err := processExpressions(item, env)
			if err != nil {
				return nil, err
			}
			v[i] = processedItem
		}
		return v, nil
	case string:
		return evaluateString(v, env)
	default:
		return data, nil
	}
}

func parseDescription(rdr io.Reader, env ConfigEnv) (*descriptionFile, error) {
	var raw map[string]any
	if err := toml.NewDecoder(rdr).Decode(&raw); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			return nil, errors.New(derr.String())
		}
		return nil, err
	}

	processed, err := processExpressions(raw, env)
	if err != nil {
		return nil, fmt.Errorf("error processing expressions: %w", err)
	}

	desc := new(descriptionFile)
	dec := toml.NewDecoder(bytes.NewReader([]byte(mustMarshal(processed))))
	dec.DisallowUnknownFields()
	if err := dec.Decode(desc); err != nil {
		var serr *toml.StrictMissingError
		if errors.As(err, &serr) {
			return nil, errors.New(serr.String())
		}
		return nil, err
	}
	return desc, nil
}

func parseDescriptionFile(path string, env ConfigEnv) (*descriptionFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	desc, err := parseDescription(bufio.NewReader(f), env)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return desc, nil
}

// loader accumulates description files into a single Project
type loader struct {
	root string
	env  ConfigEnv
	proj *Project
	seen map[string]bool
}

// Load reads the main description file at filename and every file it pulls in.
func Load(filename string, env ConfigEnv) (*Project, error) {
	abs, err := filepath.Abs(filename)
	if err != nil {
		return nil, err
	}

	desc, err := parseDescriptionFile(abs, env)
	if err != nil {
		return nil, err
	}
	if desc.Project.Name == "" {
		return nil, fmt.Errorf("%s: %w", filename, errNoProjectName)
	}

	proj := &Project{
		Name:              desc.Project.Name,
		Filename:          filepath.Base(abs),
		Makefile:          cmpOr(desc.Project.Makefile, defaultMakefile),
		BuildNumberHeader: cmpOr(desc.Project.BuildNumberHeader, defaultBuildNumberHeader),
	}

	l := &loader{
		root: filepath.Dir(abs),
		env:  env,
		proj: proj,
		seen: map[string]bool{proj.Filename: true},
	}
	if err := l.add(desc, ".", proj.Filename); err != nil {
		return nil, err
	}
	return proj, nil
}

func cmpOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// resolve makes p relative to the project root. Absolute paths and make
// variable references are kept as written.
func resolve(dir, p string) string {
	p = filepath.ToSlash(p)
	if path.IsAbs(p) || strings.HasPrefix(p, "$") {
		return p
	}
	return path.Join(dir, p)
}

func resolveAll(dir string, ps []string) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = resolve(dir, p)
	}
	return out
}

func makeIncludes(dir string, dirs []string) []*Include {
	includes := make([]*Include, len(dirs))
	for i, d := range dirs {
		includes[i] = &Include{Directory: resolve(dir, d)}
	}
	return includes
}

func makeDefines(descs []defineDesc) []*Define {
	defines := make([]*Define, len(descs))
	for i, d := range descs {
		defines[i] = &Define{Name: d.Name, Value: d.Value}
	}
	return defines
}

func makeProperties(descs []propertyDesc) []*Property {
	props := make([]*Property, len(descs))
	for i, p := range descs {
		props[i] = &Property{Name: p.Name, Value: p.Value}
	}
	return props
}

func makeIfs(dir string, descs []ifDesc) ([]*If, error) {
	ifs := make([]*If, len(descs))
	for i, d := range descs {
		if d.Property == "" {
			return nil, errors.New("[[if]] block without a property")
		}
		nested, err := makeIfs(dir, d.Ifs)
		if err != nil {
			return nil, err
		}
		ifs[i] = &If{
			Property:   d.Property,
			Value:      d.Value,
			Properties: makeProperties(d.Properties),
			Includes:   makeIncludes(dir, d.Includes),
			Defines:    makeDefines(d.Defines),
			Ifs:        nested,
		}
	}
	return ifs, nil
}

func (l *loader) makeModule(dir, location string, d moduleDesc) (*Module, error) {
	if d.Name == "" {
		return nil, fmt.Errorf("%s: module without a name", location)
	}
	if slices.Contains(reservedModuleNames, d.Name) {
		return nil, fmt.Errorf("%s: module name %q is reserved for a generated target", location, d.Name)
	}
	typ, err := ParseModuleType(d.Type)
	if err != nil {
		return nil, fmt.Errorf("%s: module %q: %w", location, d.Name, err)
	}

	modPath := resolve(dir, cmpOr(d.Path, "."))
	target := cmpOr(d.Target, typ.targetName(d.Name, l.env.ExeSuffix))
	m := &Module{
		Name:       d.Name,
		Type:       typ,
		Path:       modPath,
		OutputPath: path.Join(modPath, target),
		Location:   location,
		Sources:    resolveAll(modPath, d.Sources),
		Includes:   makeIncludes(modPath, d.Includes),
		Defines:    makeDefines(d.Defines),
		Libraries:  slices.Clone(d.Libraries),
		CFlags:     slices.Clone(d.CFlags),
	}
	if d.PCH != "" {
		m.PrecompiledHeader = resolve(modPath, d.PCH)
	}

	m.DependencyPath = m.OutputPath
	if typ.HasImportLibrary() {
		m.DependencyPath = path.Join(modPath, "lib"+d.Name+".a")
	}
	return m, nil
}

// add merges a parsed description file located in dir (slash separated, relative to the root)
func (l *loader) add(desc *descriptionFile, dir, location string) error {
	p := l.proj

	p.Properties = append(p.Properties, makeProperties(desc.Properties)...)
	p.Includes = append(p.Includes, makeIncludes(dir, desc.Includes)...)
	p.Defines = append(p.Defines, makeDefines(desc.Defines)...)
	for _, flag := range desc.LinkerFlags {
		p.LinkerFlags = append(p.LinkerFlags, &LinkerFlag{Flag: flag})
	}

	ifs, err := makeIfs(dir, desc.Ifs)
	if err != nil {
		return fmt.Errorf("%s: %w", location, err)
	}
	p.Ifs = append(p.Ifs, ifs...)

	for _, md := range desc.Modules {
		m, err := l.makeModule(dir, location, md)
		if err != nil {
			return err
		}
		if other := p.LocateModule(m.Name); other != nil {
			return fmt.Errorf("%s: module %q already declared in %s", location, m.Name, other.Location)
		}
		p.Modules = append(p.Modules, m)
	}

	for _, pattern := range desc.Files {
		files, err := l.expand(dir, pattern)
		if err != nil {
			return fmt.Errorf("%s: %w", location, err)
		}
		for _, bf := range files {
			if l.seen[bf.Path] {
				msg.Warn("%s: %s is already part of the project, skipping", location, bf.Path)
				continue
			}
			l.seen[bf.Path] = true
			p.BuildFiles = append(p.BuildFiles, bf)
			if !bf.Exists {
				msg.Debug("%s: %s does not exist", location, bf.Path)
				continue
			}

			sub, err := parseDescriptionFile(filepath.Join(l.root, filepath.FromSlash(bf.Path)), l.env)
			if err != nil {
				return err
			}
			if err := l.add(sub, path.Dir(bf.Path), bf.Path); err != nil {
				return err
			}
		}
	}

	return nil
}

// expand turns an entry of `files` into build files. Glob patterns only ever
// yield existing files, literal paths are kept even when missing.
func (l *loader) expand(dir, pattern string) ([]*BuildFile, error) {
	rel := resolve(dir, pattern)
	if !strings.ContainsAny(pattern, "*?[{") {
		_, err := os.Stat(filepath.Join(l.root, filepath.FromSlash(rel)))
		return []*BuildFile{{Path: rel, Exists: err == nil}}, nil
	}

	matches, err := doublestar.Glob(os.DirFS(l.root), rel, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
	}
	slices.Sort(matches)

	files := make([]*BuildFile, len(matches))
	for i, match := range matches {
		files[i] = &BuildFile{Path: match, Exists: true}
	}
	return files, nil
}
