package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/checkmate/internal/server"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the verification HTTP API",
	Long: `Serve exposes the pipeline over HTTP:

  POST /v1/claims/verify       {"claim": "...", "strategy": "best"}
  POST /v1/transcripts/check   {"transcript": "...", "mode": "sentence"}
  GET  /healthz`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := buildApp(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		srv := server.New(a.Orchestrator, a.Pipeline, a.Strategy, a.Logger)
		return srv.ListenAndServe(ctx, a.Config.Server.Addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "listen address (default from config, :8080)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}
