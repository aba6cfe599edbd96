package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/esg-assistant/internal/risk"
)

var risksCmd = &cobra.Command{
	Use:   "risks",
	Short: "Print the ESG risk taxonomy",
	Long:  `Prints the hierarchy of ESG risk categories with their definitions, or an HTML treemap page with --html.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		html, _ := cmd.Flags().GetBool("html")

		root, err := risk.Tree()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if html {
			return risk.RenderHTML(out, root)
		}
		fmt.Fprintf(out, "%s\n%s\n\n", risk.Title, risk.Summary)
		return risk.RenderText(out, root)
	},
}

func init() {
	risksCmd.Flags().Bool("html", false, "write an HTML treemap page instead of text")
	rootCmd.AddCommand(risksCmd)
}
