// cadsweep part studio stub
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/cadsweep/cadsweep/pkg/server"
	"github.com/cadsweep/cadsweep/pkg/static"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var configPath string

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("github.com/cadsweep/cadsweep@%s (%s)\n", static.Version, static.Commit)
	},
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Serve an in-memory part studio",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := server.ReadConfiguration(configPath)
		if err != nil {
			return err
		}

		level, err := zerolog.ParseLevel(config.LogLevel)
		if err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}
		log.Logger = log.Logger.Level(level)

		studio := config.Studio()
		log.Info().
			Strs("variables", config.Variables.Names()).
			Strs("parts", config.Parts).
			Msg("part studio loaded")

		gin.SetMode(gin.ReleaseMode)
		return server.NewAPI(studio, config.Credentials()).Run(config.Listen)
	},
}

func main() {
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

	rootCmd := &cobra.Command{
		Use:           "cadsweep-stub",
		Long:          `cadsweep part studio stub`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(startCmd)

	startCmd.Flags().StringVarP(&configPath,
		"config", "c", "stub.yaml",
		"Path to the configuration file",
	)

	if len(os.Args) == 1 {
		rootCmd.SetArgs([]string{"start"})
	}

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Error().Err(err).Send()
		os.Exit(1)
	}
}
