package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/esg-assistant/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize esgassist configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to choose providers, models and the document directory, and writes a .esgassist.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
