package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/piwi3910/StampPaper/internal/engine"
)

type compareOptions struct {
	layoutFlags
	list string
}

func (c *CLI) compareCommand() *cobra.Command {
	var opts compareOptions

	cmd := &cobra.Command{
		Use:   "compare [image|dir]...",
		Short: "Compare how many sheets each strategy needs",
		Long:  `Lay the same batch out with every strategy without writing any file, and report sheets used, average fill and rejected stamps.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCompare(cmd.Context(), cmd.OutOrStdout(), args, opts)
		},
	}

	opts.layoutFlags.register(cmd)
	cmd.Flags().StringVar(&opts.list, "list", "", "CSV or Excel stamp list")

	return cmd
}

func (c *CLI) runCompare(ctx context.Context, w io.Writer, args []string, opts compareOptions) error {
	s, err := c.settings(opts.layoutFlags)
	if err != nil {
		return err
	}
	stamps, err := gatherStamps(args, opts.list, loggerFromContext(ctx))
	if err != nil {
		return err
	}

	results, err := engine.CompareStrategies(s, stamps)
	if err != nil {
		return err
	}

	printTitle(w, fmt.Sprintf("%d stamps on %.1f x %.1f mm", len(stamps), s.PaperWidth, s.PaperHeight))
	best := 0
	for i, r := range results {
		if r.SheetsUsed < results[best].SheetsUsed ||
			(r.SheetsUsed == results[best].SheetsUsed && r.AverageFill > results[best].AverageFill) {
			best = i
		}
	}
	for i, r := range results {
		line := fmt.Sprintf("%d sheets, %.1f%% average fill, %d rejected", r.SheetsUsed, r.AverageFill, r.Rejected)
		if i == best {
			line += " (best)"
		}
		printKeyValue(w, string(r.Strategy), line)
	}
	return nil
}
