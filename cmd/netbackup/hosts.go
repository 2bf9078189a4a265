package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tastythames/netbackup/internal/workflow"
)

var cmdHosts = &cobra.Command{
	Use:   "hosts",
	Short: "Print the inventory that would be backed up, with passwords masked",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := loadApp()
		if err != nil {
			return err
		}

		return workflow.New(cfg, logger, os.Stdin, os.Stdout).Preview(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(cmdHosts)
}
