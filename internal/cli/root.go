// Package cli implements the checkmate command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/checkmate/internal/app"
	"github.com/ppiankov/checkmate/internal/logging"
	"github.com/ppiankov/checkmate/internal/model"
)

// Version is set at build time
var Version = "v0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "checkmate",
	Short: "CheckMate - claim verification against fact-check sources",
	Long: `CheckMate verifies factual claims found in speech transcripts.

Each claim is resolved, in order, against a database of previously
fact-checked claims, a fact-check registry and a search of trusted
publishers whose articles are reviewed by a language model.

CheckMate reports what sources say about a claim. It does not decide
what is true.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("checkmate %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.checkmate/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("store", "", "claim store backend (memory, sqlite, dynamodb)")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("store.backend", rootCmd.PersistentFlags().Lookup("store"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if err := configure(viper.GetViper(), cfgFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading config: %v\n", err)
		return
	}
	if verbose && viper.ConfigFileUsed() != "" {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// configure registers defaults, the config file and CHECKMATE_* variables
// on v. A missing default config file is not an error.
func configure(v *viper.Viper, file string) error {
	if err := setDefaults(v, model.DefaultConfig()); err != nil {
		return err
	}

	if file != "" {
		v.SetConfigFile(file)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("find home directory: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, ".checkmate"))
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	// Read in environment variables that match CHECKMATE_*
	v.SetEnvPrefix("CHECKMATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

// setDefaults registers every key of cfg so environment variables can
// override keys absent from the config file
func setDefaults(v *viper.Viper, cfg *model.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal defaults: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("unmarshal defaults: %w", err)
	}
	flatten(v, "", tree)

	// Optional keys are omitted from the YAML form
	for _, key := range []string{
		"http.http_proxy", "http.https_proxy", "http.no_proxy",
		"sources.search_url", "sources.registry_url",
		"llm.base_url", "embedding.base_url",
		"store.region", "credentials.region",
	} {
		if !v.IsSet(key) {
			v.SetDefault(key, "")
		}
	}
	return nil
}

func flatten(v *viper.Viper, prefix string, tree map[string]any) {
	for key, value := range tree {
		if prefix != "" {
			key = prefix + "." + key
		}
		if nested, ok := value.(map[string]any); ok {
			flatten(v, key, nested)
			continue
		}
		v.SetDefault(key, value)
	}
}

// loadConfig decodes the effective configuration from v. Every key has a
// registered default, so decoding starts from a zero Config.
func loadConfig(v *viper.Viper) (*model.Config, error) {
	cfg := &model.Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if v.GetBool("verbose") {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// newLogger builds the stderr logger for cfg
func newLogger(cfg *model.Config) *log.Logger {
	return logging.New(os.Stderr, cfg.Log.Level)
}

// buildApp loads config and credentials and wires the pipeline
func buildApp(ctx context.Context) (*app.App, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg)

	creds, err := app.LoadCredentials(ctx, cfg.Credentials)
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}

	return app.New(ctx, cfg, creds, logger)
}
