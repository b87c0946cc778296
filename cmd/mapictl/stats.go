package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/mapikit/mapi/alloc"
	"github.com/joshuapare/mapikit/mapi/heap"
)

var (
	statsRoots     int
	statsChain     int
	statsChainSize int
)

func init() {
	cmd := newStatsCmd()
	cmd.Flags().IntVar(&statsRoots, "roots", 8, "Number of root buffers to allocate")
	cmd.Flags().IntVar(&statsChain, "chain", 4, "Chained buffers per root")
	cmd.Flags().IntVar(&statsChainSize, "chain-size", 512, "Bytes per chained buffer")
	rootCmd.AddCommand(cmd)
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show heap allocator statistics for a sample workload",
		Long: `The stats command allocates a tree of root and chained buffers on a
fresh heap allocator and prints its statistics while the tree is live, after
it has been released, and after idle regions are purged.

Example:
  mapictl stats
  mapictl stats --roots 100 --chain 10 --chain-size 4096
  mapictl stats --region-size 16384 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats()
		},
	}
	return cmd
}

// StatsReport is the output of the stats command.
type StatsReport struct {
	Live     heap.Stats `json:"live"`
	Released heap.Stats `json:"released"`
	Purged   heap.Stats `json:"purged"`
}

func runStats() error {
	if statsRoots < 0 || statsChain < 0 || statsChainSize < 0 {
		return fmt.Errorf("--roots, --chain and --chain-size must not be negative")
	}
	h, err := newHeap()
	if err != nil {
		return err
	}
	defer h.Close()

	report, err := collectStats(h, statsRoots, statsChain, statsChainSize)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(report)
	}
	printStats("Live", report.Live)
	printStats("Released", report.Released)
	printStats("Purged", report.Purged)
	return nil
}

func collectStats(h *heap.Allocator, roots, chain, chainSize int) (StatsReport, error) {
	var report StatsReport
	handles := make([]*alloc.Uninit[byte], 0, roots*(chain+1))
	release := func() error {
		var first error
		for _, u := range handles {
			if err := u.Close(); err != nil && first == nil {
				first = err
			}
		}
		handles = handles[:0]
		return first
	}

	for i := range roots {
		root, err := alloc.New[byte](h, 64)
		if err != nil {
			_ = release()
			return report, fmt.Errorf("root %d: %w", i, err)
		}
		handles = append(handles, root)
		for j := range chain {
			c, err := alloc.Chain[byte](root, chainSize)
			if err != nil {
				_ = release()
				return report, fmt.Errorf("root %d chain %d: %w", i, j, err)
			}
			handles = append(handles, c)
		}
	}
	report.Live = h.Stats()
	printVerbose("Allocated %d roots with %d chained buffers each\n", roots, chain)

	if err := release(); err != nil {
		return report, err
	}
	report.Released = h.Stats()
	h.Purge()
	report.Purged = h.Stats()
	return report, nil
}

func printStats(label string, st heap.Stats) {
	printInfo("%s:\n", label)
	printInfo("  Live roots:     %d\n", st.LiveRoots)
	printInfo("  Live chained:   %d\n", st.LiveChained)
	printInfo("  Bytes in use:   %d\n", st.BytesInUse)
	printInfo("  Regions:        %d (%d idle)\n", st.Regions, st.IdleRegions)
	printInfo("  Frees:          %d\n", st.Frees)
	if st.InvalidFrees > 0 {
		printInfo("  Invalid frees:  %d\n", st.InvalidFrees)
	}
}
