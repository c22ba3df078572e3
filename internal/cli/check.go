package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/checkmate/internal/pipeline"
)

var checkMode string

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <transcript-file>",
	Short: "Detect and verify the claims in a transcript",
	Long: `Check reads a transcript, detects the checkable claims in it and
verifies each one.

In whole mode the transcript is analysed at once. In sentence mode each
sentence is analysed with up to five preceding sentences as context, and
every sentence yields at least one entry in the output.

Example:
  checkmate check debate.txt
  checkmate check debate.txt --mode sentence --json debate.json
  cat debate.txt | checkmate check -`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	addRunFlags(checkCmd)
	checkCmd.Flags().StringVar(&checkMode, "mode", "whole", "detection mode (whole, sentence)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	mode, err := pipeline.ParseMode(checkMode)
	if err != nil {
		return err
	}

	transcript, err := readTranscript(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), runTimeout)
	defer cancel()

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	strategy, err := strategyFlag(cmd, a.Strategy)
	if err != nil {
		return err
	}

	return writeResults(a.Pipeline.Run(ctx, transcript, mode, strategy))
}

func readTranscript(path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read transcript: %w", err)
	}
	return string(data), nil
}
