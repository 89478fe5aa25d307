package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cineprompt",
	Short: "Video prompt assistant for AI video models",
	Long: `cineprompt turns a rough idea and optional start/end reference frames
into a prompt tuned for a specific AI video model (Kling, Veo, Sora, ...).

Examples:
  cineprompt models
  cineprompt generate --text "a cat walking on a roof" --category kling
  cineprompt generate --start first.png --end last.png --category veo --color-fix
  cineprompt serve
  cineprompt history list`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		return setup(envFile)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(historyCmd)

	rootCmd.PersistentFlags().String("env-file", ".env", "Path to a .env file")
}
