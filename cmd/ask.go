package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/esg-assistant/internal/assistant"
	"github.com/ziadkadry99/esg-assistant/internal/prompt"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single question about the documents",
	Long:  `Answers one question from the indexed documents, streaming the answer to stdout followed by its sources.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().Bool("json", false, "output the answer and sources as JSON")
	askCmd.Flags().Bool("no-stream", false, "print the answer only once it is complete")
	askCmd.Flags().Bool("rebuild", false, "re-index the documents before answering")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	question := strings.Join(args, " ")

	jsonOutput, _ := cmd.Flags().GetBool("json")
	noStream, _ := cmd.Flags().GetBool("no-stream")
	rebuild, _ := cmd.Flags().GetBool("rebuild")

	svc, err := loadService(ctx, serviceOptions{rebuild: rebuild})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var onFragment func(string)
	streaming := !jsonOutput && !noStream
	if streaming {
		onFragment = func(f string) { fmt.Fprint(out, f) }
	}

	ans, err := svc.Ask(ctx, question, onFragment)
	if err != nil {
		if streaming {
			fmt.Fprintln(out)
		}
		return errors.New(assistant.UserMessage(err))
	}

	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(ans)
	}

	if !streaming {
		fmt.Fprint(out, ans.Text)
	}
	fmt.Fprintln(out)
	printSources(out, prompt.UILabels(svc.Config().Language), ans.Sources)
	return nil
}

func printSources(w io.Writer, labels prompt.Labels, sources []assistant.Source) {
	if len(sources) == 0 {
		return
	}
	fmt.Fprintln(w)
	for _, src := range sources {
		fmt.Fprintln(w, labels.Source(src.Document, src.Page))
	}
}
