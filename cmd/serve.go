package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/difygen/difygen/utils/config"
	"github.com/difygen/difygen/utils/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start an HTTP server exposing the compile, validate, generate and history endpoints.`,
	Run: func(cmd *cobra.Command, args []string) {
		envConfig, err := config.LoadEnvConfig(config.GetEnvPath())
		if err != nil {
			log.Fatalf("Error loading environment configuration: %v", err)
		}

		if err := server.Run(envConfig); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
