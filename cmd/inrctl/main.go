package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var catalogPath string

var rootCmd = &cobra.Command{
	Use:   "inrctl",
	Short: "Operator tools for the warfarin INR assistant",
	Long: `inrctl runs the bot's building blocks from a terminal.

  inrctl evaluate --inr 3.4 --dose 21        # dose titration recommendation
  inrctl chart --db data/records.db --user U1 # render a patient's INR chart
  inrctl remind --dry-run                     # preview today's reminders`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "YAML catalog of supplements and interacting drugs (default: built in)")
}

func main() {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: .env not loaded: %v", err)
	}
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
