package project

// Project is the in-memory model a backend generates from.
// Backends treat it as read-only.
type Project struct {
	Name string
	// Filename is the main description file, relative to the project root.
	Filename string
	// Makefile is where the generated build script goes.
	Makefile string
	// BuildNumberHeader is the generated header the init target depends on.
	BuildNumberHeader string

	Modules     []*Module
	Properties  []*Property
	Includes    []*Include
	Defines     []*Define
	Ifs         []*If
	LinkerFlags []*LinkerFlag
	// BuildFiles lists every description file pulled in from Filename, in load order.
	BuildFiles []*BuildFile
}

// LocateModule returns the module called name, or nil.
func (p *Project) LocateModule(name string) *Module {
	for _, m := range p.Modules {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// Module is a single buildable artifact.
type Module struct {
	Name string
	Type ModuleType
	// Path is the module directory relative to the project root, slash separated.
	Path string
	// OutputPath is the artifact the module produces.
	OutputPath string
	// DependencyPath is what other modules depend on: the import library for
	// DLL-like modules, OutputPath otherwise.
	DependencyPath string
	// Location names the description file that declared the module.
	Location string

	// Sources are relative to the project root.
	Sources           []string
	Includes          []*Include
	Defines           []*Define
	Libraries         []string
	CFlags            []string
	PrecompiledHeader string
}

type Include struct {
	Directory string
}

// Define is a preprocessor symbol; an empty Value means a bare -DNAME.
type Define struct {
	Name  string
	Value string
}

type Property struct {
	Name  string
	Value string
}

// If is configuration that only applies when Property equals Value at make time.
type If struct {
	Property string
	Value    string

	Properties []*Property
	Includes   []*Include
	Defines    []*Define
	Ifs        []*If
}

type LinkerFlag struct {
	Flag string
}

// BuildFile is a description file that contributed to the project.
type BuildFile struct {
	Path   string
	Exists bool
}
