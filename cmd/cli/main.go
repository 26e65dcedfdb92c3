package main

import (
	"fmt"
	"github.com/joho/godotenv"
	"github.com/labqa/inspection/cmd/cli/historyexport"
	"github.com/labqa/inspection/cmd/cli/schemacheck"
	"github.com/labqa/inspection/internal/errors"
	"github.com/spf13/cobra"
	"io/fs"
	"os"
)

func init() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	rootCmd.AddGroup(schemacheck.Group)
	rootCmd.AddCommand(schemacheck.Check)
	rootCmd.AddGroup(historyexport.Group)
	rootCmd.AddCommand(historyexport.Export)
}

var rootCmd = &cobra.Command{
	Use:           "inspection-cli",
	Long:          `Command line utilities for the quality inspection wizard`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
