package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build or verify the document index",
	Long: `Loads the index snapshot for the configured embedder and chunking, or
builds it from the PDF documents when none exists. Use --rebuild to replace a
snapshot that no longer matches the documents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rebuild, _ := cmd.Flags().GetBool("rebuild")

		svc, err := loadService(cmd.Context(), serviceOptions{rebuild: rebuild})
		if err != nil {
			return err
		}

		m := svc.Index().Manifest()
		action := "Loaded"
		if svc.Built() {
			action = "Built"
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s index: %d passages\n", action, m.Count)
		fmt.Fprintf(out, "  Embedder:   %s (%d dimensions)\n", m.Embedder, m.Dimensions)
		fmt.Fprintf(out, "  Chunking:   %d / %d overlap\n", m.ChunkSize, m.ChunkOverlap)
		fmt.Fprintf(out, "  Documents:  %s\n", svc.Config().DataDir)
		fmt.Fprintf(out, "  Created at: %s\n", m.CreatedAt.Format("2006-01-02 15:04:05"))
		return nil
	},
}

func init() {
	indexCmd.Flags().Bool("rebuild", false, "discard any existing snapshot and re-index")
	rootCmd.AddCommand(indexCmd)
}
