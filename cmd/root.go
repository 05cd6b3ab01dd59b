// mkgen [project.toml], mkgen generate [project.toml]
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/mattn/go-isatty"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/qobs-build/mkgen/internal/backend/mingw"
	"github.com/qobs-build/mkgen/internal/depcheck"
	"github.com/qobs-build/mkgen/internal/msg"
	"github.com/qobs-build/mkgen/internal/project"
	"github.com/qobs-build/mkgen/internal/toolchain"
)

var (
	flagMakefile string
	flagPCH      EnumValue = NewEnumValue("auto", map[string]string{
		"auto": "Probe the compiler for precompiled header support (default)",
		"on":   "Always emit precompiled header rules",
		"off":  "Never emit precompiled header rules",
	})
	flagHost EnumValue = NewEnumValue(defaultHost(), map[string]string{
		"windows": `Build script runs on Windows: "\" separators, ".exe" tools`,
		"unix":    `Build script runs on a Unix host: "/" separators`,
	})
	flagCC           string
	flagIntermediate string
	flagVerbose      bool
	flagNoCheck      bool
)

func defaultHost() string {
	if runtime.GOOS == "windows" {
		return "windows"
	}
	return "unix"
}

// loadedProject is a description file loaded from the current directory,
// which is the project root by the time it is returned.
type loadedProject struct {
	project  *project.Project
	settings *settings
	opts     mingw.Options
}

// loadProject changes into the directory of the description file named by
// args (default project.toml) and loads it with the layered settings.
func loadProject(cmd *cobra.Command, args []string) (*loadedProject, error) {
	filename := project.DefaultFilename
	if len(args) > 0 {
		filename = args[0]
	}
	if info, err := os.Stat(filename); err == nil && info.IsDir() {
		filename = filepath.Join(filename, project.DefaultFilename)
	}

	// -o is relative to where mkgen was started
	makefile := flagMakefile
	if makefile != "" {
		abs, err := filepath.Abs(makefile)
		if err != nil {
			return nil, err
		}
		makefile = abs
	}

	root := filepath.Dir(filename)
	if err := os.Chdir(root); err != nil {
		return nil, err
	}

	s, err := loadSettings(cmd, ".")
	if err != nil {
		return nil, err
	}
	msg.Verbose = s.Verbose

	hostOS := s.hostOS()
	p, err := project.Load(filepath.Base(filename), project.NewConfigEnv(".", hostOS))
	if err != nil {
		return nil, err
	}
	if makefile != "" {
		p.Makefile = makefile
	}
	msg.Debug("loaded %s: %d modules, %d description files", p.Filename, len(p.Modules), len(p.BuildFiles)+1)

	opts := mingw.DefaultOptions(hostOS)
	opts.PCH = mingw.PCHMode(s.PCH)
	opts.IntermediateVar = s.Intermediate
	opts.Compiler = toolchain.FindCompiler(s.CC)
	return &loadedProject{project: p, settings: s, opts: opts}, nil
}

func doGenerate(cmd *cobra.Command, args []string) {
	lp, err := loadProject(cmd, args)
	if err != nil {
		msg.Fatal("%v", err)
	}

	var bar *msg.ProgressBar
	if isatty.IsTerminal(os.Stderr.Fd()) && !lp.settings.Verbose {
		var total int64
		if info, err := os.Stat(lp.project.Makefile); err == nil {
			total = info.Size()
		}
		bar = msg.NewProgressBar(lp.project.Makefile, total, os.Stderr)
		lp.opts.Progress = bar
	}

	b := mingw.New(lp.project, lp.opts)
	if !flagNoCheck {
		b.Checker = depcheck.New(afero.NewBasePathFs(afero.NewOsFs(), "."))
	}
	err = b.Process()
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		msg.Fatal("%v", err)
	}
}

var rootCmd = &cobra.Command{
	Use:   "mkgen [project.toml]",
	Short: "Makefile generator for mingw projects",
	Long: `Reads a project description and writes a GNU make build script for it.
If no description file is given, uses "project.toml".`,
	Args: cobra.MaximumNArgs(1),
	Run:  doGenerate,
}

var generateCmd = &cobra.Command{
	Use:   "generate [project.toml]",
	Short: "Generate the makefile",
	Args:  cobra.MaximumNArgs(1),
	Run:   doGenerate,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Print debug output")

	addGenerateFlags(rootCmd)
	rootCmd.AddCommand(generateCmd)
	addGenerateFlags(generateCmd)
}

func addGenerateFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&flagMakefile, "makefile", "o", "", "Write the makefile here instead of the path in the description")
	cmd.Flags().Var(&flagPCH, "pch", "Precompiled header rules, one of "+flagPCH.HelpString())
	cmd.RegisterFlagCompletionFunc("pch", flagPCH.CompletionFunc())
	cmd.Flags().Var(&flagHost, "host", "Host the build script runs on, one of "+flagHost.HelpString())
	cmd.RegisterFlagCompletionFunc("host", flagHost.CompletionFunc())
	cmd.Flags().StringVar(&flagCC, "cc", "", "Compiler to probe (default: $CC or the first one found on PATH)")
	cmd.Flags().StringVar(&flagIntermediate, "intermediate", mingw.DefaultIntermediateVar, "Make variable holding the intermediate directory")
	cmd.Flags().BoolVar(&flagNoCheck, "no-check", false, "Skip the automatic dependency check")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
