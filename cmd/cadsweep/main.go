// cadsweep cli
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/cadsweep/cadsweep/pkg/client"
	"github.com/cadsweep/cadsweep/pkg/models"
	"github.com/cadsweep/cadsweep/pkg/providers"
	"github.com/cadsweep/cadsweep/pkg/static"
	"github.com/cadsweep/cadsweep/pkg/sweep"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type State struct {
	configPath    string
	listVariables bool
	output        string
	envFile       string
	logLevel      string
	logFormat     string
}

var state State

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("github.com/cadsweep/cadsweep@%s (%s)\n", static.Version, static.Commit)
	},
}

var rootCmd = &cobra.Command{
	Use:           "cadsweep",
	Short:         "Sweep a part studio variable over a range and export the geometry of every step",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return state.prepare()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		driver, err := state.driver(ctx)
		if err != nil {
			return err
		}

		if state.listVariables {
			variables, err := driver.List(ctx)
			if err != nil {
				return fmt.Errorf("failed to read variables: %w", err)
			}
			return writeVariables(os.Stdout, state.output, variables)
		}

		summary, err := driver.Run(ctx)
		if err != nil {
			return err
		}
		log.Info().
			Int("iterations", summary.Iterations).
			Int("updates_failed", summary.UpdatesFailed).
			Int("exports_written", summary.ExportsWritten).
			Int("exports_failed", summary.ExportsFailed).
			Str("output_folder", summary.OutputFolder).
			Msg("sweep complete")
		return nil
	},
}

func main() {
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.InfoLevel)
	rootCmd.AddCommand(versionCmd)

	rootCmd.Flags().StringVarP(&state.configPath,
		"config", "c", "config.json",
		"Path to the configuration file")

	rootCmd.Flags().BoolVarP(&state.listVariables,
		"list-variables", "l", false,
		"Print the variables of the part studio and exit")

	rootCmd.Flags().StringVarP(&state.output,
		"output", "o", "text",
		"Format of the variable list (text, json, env)")

	rootCmd.PersistentFlags().StringVar(&state.envFile,
		"env-file", ".env",
		"Environment file loaded before the configuration, when present")

	rootCmd.PersistentFlags().StringVar(&state.logLevel,
		"log-level", "info",
		"Log level (debug, info, warn, error)")

	rootCmd.PersistentFlags().StringVar(&state.logFormat,
		"log-format", "console",
		"Log format (console, json)")

	err := rootCmd.ExecuteContext(context.Background())
	if err != nil {
		log.Error().Err(err).Send()
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	var configErr *models.ConfigError
	if errors.As(err, &configErr) {
		return 2
	}
	return 1
}

func (s *State) prepare() error {
	level, err := zerolog.ParseLevel(s.logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	switch s.logFormat {
	case "console":
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	case "json":
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	default:
		return fmt.Errorf("invalid log format: %s", s.logFormat)
	}
	log.Logger = log.Logger.Level(level)

	if s.envFile != "" {
		if _, err := os.Stat(s.envFile); err == nil {
			if err := godotenv.Load(s.envFile); err != nil {
				return fmt.Errorf("failed to load %s: %w", s.envFile, err)
			}
			log.Debug().Str("path", s.envFile).Msg("loaded environment file")
		}
	}
	return nil
}

// Load the configuration and credentials and build a driver on top of them.
// Every failure here is a configuration error and happens before any request
// to the CAD API.
func (s *State) driver(ctx context.Context) (*sweep.Driver, error) {
	switch s.output {
	case "text", "json", "env":
	default:
		return nil, &models.ConfigError{Path: s.configPath, Err: fmt.Errorf("invalid output format: %s", s.output)}
	}

	config, err := models.ReadConfiguration(s.configPath)
	if err != nil {
		return nil, err
	}
	if _, err := sweep.RangeOf(config.Variable).Values(); err != nil {
		return nil, &models.ConfigError{Path: s.configPath, Err: err}
	}

	credentials, err := providers.NewResolver().
		WithDefaultProviders().
		ResolveCredentials(ctx, config.API)
	if err != nil {
		return nil, &models.ConfigError{Path: s.configPath, Err: err}
	}

	log.Logger = log.Logger.With().Str("run_id", uuid.New().String()).Logger()
	log.Debug().
		Str("base_url", config.API.BaseURL).
		Str("document", config.Document.Path()).
		Msg("configuration loaded")

	api := client.NewAPIClient(http.DefaultClient, config.API.BaseURL, credentials)
	return sweep.NewDriver(api, config), nil
}
