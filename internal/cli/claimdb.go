package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/checkmate/internal/app"
)

// claimdbCmd represents the claimdb command
var claimdbCmd = &cobra.Command{
	Use:   "claimdb",
	Short: "Manage the fact-checked claim database",
}

var claimdbImportCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Import fact-checked claims from a JSON array",
	Long: `Import seeds the configured claim store from a JSON array of records:

  [{"id": "...", "claim": "...", "speaker": "...", "date": "...",
    "reviews": [{"publisher": {"name": "...", "url": "..."}, "url": "...",
                 "title": "...", "rating": "...", "language_code": "en",
                 "extract": "..."}]}]

Embeddings are computed on first match. The memory backend only lives for
one process, so use sqlite or dynamodb to keep the data.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open claims file: %w", err)
		}
		defer func() { _ = f.Close() }()

		s, closeStore, err := app.OpenStore(cmd.Context(), cfg.Store)
		if err != nil {
			return err
		}
		if closeStore != nil {
			defer func() { _ = closeStore() }()
		}

		n, err := app.ImportClaims(cmd.Context(), s, f)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %d claims into %s store\n", n, cfg.Store.Backend)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(claimdbCmd)
	claimdbCmd.AddCommand(claimdbImportCmd)
}
