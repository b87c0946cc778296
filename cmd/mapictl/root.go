package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/joshuapare/mapikit/mapi/alloc"
	"github.com/joshuapare/mapikit/mapi/heap"
)

var (
	// Global flags
	verbose    bool
	quiet      bool
	jsonOut    bool
	regionSize int
)

var rootCmd = &cobra.Command{
	Use:   "mapictl",
	Short: "Inspect and exercise MAPI buffer allocation",
	Long: `mapictl runs self-checks of the MAPI allocation layer against the
process allocator (mapi32.dll on Windows, the mapped heap elsewhere), reports
heap allocator statistics, and decodes property tags.`,
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose && !quiet {
			l, err := zap.NewDevelopment()
			if err != nil {
				return fmt.Errorf("failed to build logger: %w", err)
			}
			alloc.SetLogger(l)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output and debug logging")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().
		IntVar(&regionSize, "region-size", heap.DefaultRegionSize, "Region size for heap allocators")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newHeap builds a heap allocator from the global flags.
func newHeap() (*heap.Allocator, error) {
	opts := []heap.Option{heap.WithRegionSize(regionSize)}
	if verbose && !quiet {
		opts = append(opts, heap.WithLogger(alloc.Logger()))
	}
	return heap.New(opts...)
}

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...interface{}) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
