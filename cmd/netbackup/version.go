package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tastythames/netbackup/internal/version"
)

var cmdVersion = &cobra.Command{
	Use:   "version",
	Short: "Print netbackup version along with dependency information.",
	Run: func(cmd *cobra.Command, _ []string) {
		v := version.Current()
		fmt.Fprintf(cmd.OutOrStdout(),
			"commit: %s\nbranch: %s\nbuildDate: %s\nversion: %s\nGo version: %s\nx/crypto version: %s\n",
			v.GitCommit, v.GitBranch, v.BuildDate, v.AppVersion, v.GoVersion, v.SSHVersion)
	},
}

func init() {
	rootCmd.AddCommand(cmdVersion)
}
