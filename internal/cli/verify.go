package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/checkmate/internal/model"
	"github.com/ppiankov/checkmate/internal/pipeline"
	"github.com/ppiankov/checkmate/internal/verify"
	"github.com/ppiankov/checkmate/internal/worker"
)

var (
	claimsFile string
	outJSON    string
	runTimeout time.Duration
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify [claim...]",
	Short: "Verify one or more claims",
	Long: `Verify resolves each claim against the configured sources and prints
what was found.

Example:
  checkmate verify "Crime rose by 20% last year"
  checkmate verify --file claims.txt --strategy registry --json results.json`,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	addRunFlags(verifyCmd)
	verifyCmd.Flags().StringVarP(&claimsFile, "file", "f", "", "read claims from file (one per line, # comments)")
}

// addRunFlags registers the flags shared by verify and check
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().String("strategy", "", "resolver strategy (best, database, registry, search)")
	cmd.Flags().StringVar(&outJSON, "json", "", "write results as JSON to this path (- for stdout)")
	cmd.Flags().DurationVar(&runTimeout, "timeout", 10*time.Minute, "overall timeout")
}

func runVerify(cmd *cobra.Command, args []string) error {
	texts := args
	if claimsFile != "" {
		lines, err := worker.ReadLinesFromFile(claimsFile)
		if err != nil {
			return err
		}
		texts = append(texts, lines...)
	}

	var claims []model.Claim
	for _, t := range texts {
		if t = strings.TrimSpace(t); t != "" {
			claims = append(claims, model.NewClaim(t))
		}
	}
	if len(claims) == 0 {
		return fmt.Errorf("no claims given (pass them as arguments or with --file)")
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

	return writeResults(a.Pipeline.VerifyClaims(ctx, claims, strategy))
}

// strategyFlag returns the --strategy value, or fallback when unset
func strategyFlag(cmd *cobra.Command, fallback verify.Strategy) (verify.Strategy, error) {
	name, _ := cmd.Flags().GetString("strategy")
	if name == "" {
		return fallback, nil
	}
	return verify.ParseStrategy(name)
}

// writeResults renders JSON where requested and the summary to the terminal
func writeResults(results []model.VerificationResult) error {
	switch outJSON {
	case "":
	case "-":
		if err := pipeline.RenderJSON(os.Stdout, results); err != nil {
			return err
		}
		pipeline.RenderSummary(os.Stderr, results)
		return nil
	default:
		if err := pipeline.WriteJSON(outJSON, results); err != nil {
			return err
		}
		if viper.GetBool("verbose") {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", outJSON)
		}
	}

	pipeline.RenderSummary(os.Stdout, results)
	return nil
}
