// mkgen init [name]
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/qobs-build/mkgen/internal/msg"
	"github.com/qobs-build/mkgen/internal/project"
)

func writefile(content string, elem ...string) {
	path := filepath.Join(elem...)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err = os.WriteFile(path, []byte(content), 0o644); err != nil {
			msg.Fatal("create file %s: %v", path, err)
		}
		fmt.Printf("%s file: %s\n", color.HiGreenString("Created"), filepath.ToSlash(path))
	}
}

func mkdir(elem ...string) {
	path := filepath.Join(elem...)
	if err := os.MkdirAll(path, 0o755); err != nil {
		msg.Fatal("mkdir %s: %v", path, err)
	}
}

func getProgramName() string {
	if len(os.Args) == 0 {
		return "mkgen"
	}
	basename := filepath.Base(os.Args[0])
	return strings.TrimSuffix(basename, filepath.Ext(basename))
}

func descriptionTemplate(name string, typ project.ModuleType) string {
	return `includes = ["include"]

[project]
name = "` + name + `"
makefile = "makefile.auto"
buildno = "include/buildno.h"

[[defines]]
name = "_WIN32_WINNT"
value = "0x502"

[[if]]
property = "DBG"
value = "1"
defines = [{ name = "DBG", value = "1" }]

[[module]]
name = "` + name + `"
type = "` + typ.String() + `"
path = "src"
sources = ["main.c"]
`
}

// initIn writes a project description and a source to start from in dir.
func initIn(dir, name string, typ project.ModuleType) {
	writefile(descriptionTemplate(name, typ), dir, project.DefaultFilename)

	mkdir(dir, "src")
	mkdir(dir, "include")

	writefile(`#include <windows.h>
#include <stdio.h>

int main(void) {
    puts("Hello, World!");
    return 0;
}
`, dir, "src", "main.c")

	writefile(`makefile.auto
include/buildno.h
`, dir, ".gitignore")

	programName := getProgramName()
	fmt.Printf("You can now do %s to generate the makefile.\n", color.HiCyanString(programName+" "+filepath.Join(dir, project.DefaultFilename)))
}

var flagModuleType = NewEnumValue(project.Win32CUI.String(), moduleTypeChoices())

func moduleTypeChoices() map[string]string {
	choices := make(map[string]string)
	for _, typ := range project.ModuleTypes() {
		choices[typ.String()] = ""
	}
	return choices
}

var initCmd = &cobra.Command{
	Use:   "init [name]",
	Short: "Create a project description in the current directory",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		typ, err := project.ParseModuleType(flagModuleType.Value())
		if err != nil {
			msg.Fatal("%v", err)
		}
		initIn(".", args[0], typ)
	},
}

var newCmd = &cobra.Command{
	Use:   "new [path]",
	Short: "Create a project description in a new directory",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		typ, err := project.ParseModuleType(flagModuleType.Value())
		if err != nil {
			msg.Fatal("%v", err)
		}
		mkdir(args[0])
		initIn(args[0], filepath.Base(args[0]), typ)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().Var(&flagModuleType, "type", "Module type, one of "+flagModuleType.HelpString())
	initCmd.RegisterFlagCompletionFunc("type", flagModuleType.CompletionFunc())

	rootCmd.AddCommand(newCmd)
	newCmd.Flags().Var(&flagModuleType, "type", "Module type, one of "+flagModuleType.HelpString())
}
