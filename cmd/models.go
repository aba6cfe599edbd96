package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/esg-assistant/internal/config"
	"github.com/ziadkadry99/esg-assistant/internal/llm"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the Gemini models available to your API key",
	Long:  `Lists Google Gemini models that support a generation method, generateContent by default. Requires GOOGLE_API_KEY.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		method, _ := cmd.Flags().GetString("method")

		apiKey, err := config.RequireCredential(config.ProviderGoogle)
		if err != nil {
			return err
		}

		models, err := llm.NewGoogleProvider(apiKey, "").ListModels(cmd.Context(), method)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(models) == 0 {
			fmt.Fprintln(out, "No models found.")
			return nil
		}
		for _, m := range models {
			fmt.Fprintf(out, "%-45s %s\n", strings.TrimPrefix(m.Name, "models/"), m.DisplayName)
		}
		return nil
	},
}

func init() {
	modelsCmd.Flags().String("method", "generateContent", "required generation method (empty lists all)")
	rootCmd.AddCommand(modelsCmd)
}
