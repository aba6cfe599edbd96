package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/esg-assistant/internal/assistant"
	"github.com/ziadkadry99/esg-assistant/internal/vectordb"
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Semantically search the documents without generating an answer",
	Long:  `Retrieves the passages most similar to a natural language query, optionally widened with model-generated rephrasings, and prints them with their similarity.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().Int("limit", 0, "maximum number of results (0 = all retrieved)")
	queryCmd.Flags().Bool("expand", false, "also search rephrasings of the query")
	queryCmd.Flags().Bool("json", false, "output results as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	queryText := args[0]

	limit, _ := cmd.Flags().GetInt("limit")
	expand, _ := cmd.Flags().GetBool("expand")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	svc, err := loadService(ctx, serviceOptions{})
	if err != nil {
		return err
	}

	results, err := svc.Search(ctx, queryText, expand)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if limit > 0 && limit < len(results) {
		results = results[:limit]
	}

	if jsonOutput {
		return printQueryResultsJSON(cmd.OutOrStdout(), results)
	}

	fmt.Fprint(cmd.OutOrStdout(), vectordb.FormatResults(results))
	return nil
}

type queryResultJSON struct {
	Rank int `json:"rank"`
	assistant.Source
}

func printQueryResultsJSON(w io.Writer, results []vectordb.Result) error {
	out := make([]queryResultJSON, 0, len(results))
	for i, r := range results {
		out = append(out, queryResultJSON{Rank: i + 1, Source: assistant.NewSource(r)})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
