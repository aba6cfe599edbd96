package cmd

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ziadkadry99/esg-assistant/internal/prompt"
	"github.com/ziadkadry99/esg-assistant/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat in the terminal",
	Long: `Opens a terminal chat with streaming answers. Press Tab to insert an
example question, type /clear to start over and /quit (or Ctrl+C) to exit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Log lines would corrupt the full-screen view.
		if !verbose {
			logger = zap.NewNop()
		}

		svc, err := loadService(cmd.Context(), serviceOptions{})
		if err != nil {
			return err
		}

		labels := prompt.UILabels(svc.Config().Language)
		model := tui.New(svc.NewSession(), labels, svc.Greeting(), svc.ExampleQuestions())
		_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
