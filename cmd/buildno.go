// mkgen buildno [project.toml]
package cmd

import (
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/qobs-build/mkgen/internal/buildno"
	"github.com/qobs-build/mkgen/internal/msg"
)

func doBuildno(cmd *cobra.Command, args []string) {
	lp, err := loadProject(cmd, args)
	if err != nil {
		msg.Fatal("%v", err)
	}

	info, err := buildno.Describe(".", time.Now())
	if err != nil {
		msg.Fatal("%v", err)
	}
	header := lp.project.BuildNumberHeader
	changed, err := buildno.Write(afero.NewOsFs(), header, info)
	if err != nil {
		msg.Fatal("%v", err)
	}
	if changed {
		msg.Info("wrote %s (build %d)", header, info.Build)
	} else {
		msg.Debug("%s is up to date", header)
	}
}

var buildnoCmd = &cobra.Command{
	Use:   "buildno [project.toml]",
	Short: "Write the build number header",
	Long:  `Writes the build number header the init target depends on, numbered after the date of the checked out commit.`,
	Args:  cobra.MaximumNArgs(1),
	Run:   doBuildno,
}

func init() {
	rootCmd.AddCommand(buildnoCmd)
}
