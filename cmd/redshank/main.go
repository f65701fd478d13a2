// Command redshank checks YAML module fixtures and prints the diagnostics.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"redshank/pkg/diag"
	"redshank/pkg/driver"
)

var (
	targetVersion string
	verbose       bool
	typesOnly     bool
)

func main() {
	root := &cobra.Command{
		Use:   "redshank <fixture.yaml> [fixture.yaml...]",
		Short: "Type-check module tree fixtures",
		Args:  cobra.MinimumNArgs(1),
		RunE:  run,

		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.Flags().StringVar(&targetVersion, "target-version", driver.DefaultVersion, "language version the declaration corpus is filtered to")
	root.Flags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline progress")
	root.Flags().BoolVar(&typesOnly, "quiet", false, "suppress diagnostics, set only the exit status")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	failed := false
	for _, path := range args {
		count, err := checkFile(path, logger)
		if err != nil {
			return err
		}
		if count > 0 {
			failed = true
		}
	}
	if failed {
		os.Exit(2)
	}
	return nil
}

func checkFile(path string, logger *slog.Logger) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	logger.Debug("checking fixture", "path", path, "version", targetVersion)
	result, err := driver.CheckYAML(f, driver.Options{Version: targetVersion})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	logger.Debug("checked fixture", "path", path, "diagnostics", len(result.Diagnostics))

	if !typesOnly {
		for _, d := range result.Diagnostics {
			printDiagnostic(path, d)
		}
	}
	return len(result.Diagnostics), nil
}

var (
	kindColor = color.New(color.FgRed, color.Bold)
	posColor  = color.New(color.FgCyan)
)

func printDiagnostic(path string, d diag.Diagnostic) {
	pos := path
	if !d.Span.IsZero() {
		pos = fmt.Sprintf("%s:%s", path, d.Span)
	}
	fmt.Printf("%s: %s: %s\n", posColor.Sprint(pos), kindColor.Sprint(string(d.Kind)), d.Message)
}
