package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/piwi3910/StampPaper/internal/ledger"
)

func (c *CLI) historyCommand() *cobra.Command {
	var path string
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the sheets recorded in the ledger, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withLedger(path, func(led *ledger.Ledger) error {
				return listHistory(cmd.Context(), cmd.OutOrStdout(), led, limit)
			})
		},
	}

	cmd.PersistentFlags().StringVar(&path, "ledger", "", "ledger database (default from config)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of sheets to list")

	cmd.AddCommand(&cobra.Command{
		Use:   "show SHEET",
		Short: "Show one sheet and its placements",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withLedger(path, func(led *ledger.Ledger) error {
				return showSheet(cmd.Context(), cmd.OutOrStdout(), led, args[0])
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "locate STAMP",
		Short: "Find the sheet a stamp was placed on",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withLedger(path, func(led *ledger.Ledger) error {
				return locateStamp(cmd.Context(), cmd.OutOrStdout(), led, args[0])
			})
		},
	})

	return cmd
}

func (c *CLI) withLedger(flag string, fn func(*ledger.Ledger) error) error {
	path := c.ledgerPath(flag)
	if path == "" {
		return errors.New("no ledger configured, use --ledger")
	}
	led, err := ledger.Open(path)
	if err != nil {
		return err
	}
	defer led.Close()
	return fn(led)
}

func printEntry(w io.Writer, e ledger.Entry) {
	printKeyValue(w, e.ID, fmt.Sprintf("%s  %s  %d stamps  %.1f%%",
		e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Strategy, e.Stamps, e.Fill))
	printDetail(w, "%s", e.Path)
}

func listHistory(ctx context.Context, w io.Writer, led *ledger.Ledger, limit int) error {
	entries, err := led.List(ctx, limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		printInfo(w, "No sheets recorded")
		return nil
	}
	for _, e := range entries {
		printEntry(w, e)
	}
	return nil
}

func showSheet(ctx context.Context, w io.Writer, led *ledger.Ledger, id string) error {
	e, err := led.Sheet(ctx, id)
	if err != nil {
		return err
	}
	placements, err := led.Placements(ctx, id)
	if err != nil {
		return err
	}
	printEntry(w, e)
	for _, p := range placements {
		printDetail(w, "%-16s %4d,%-4d %dx%d px", p.StampID, p.X, p.Y, p.Width, p.Height)
	}
	return nil
}

func locateStamp(ctx context.Context, w io.Writer, led *ledger.Ledger, stampID string) error {
	loc, err := led.Locate(ctx, stampID)
	if errors.Is(err, ledger.ErrNotFound) {
		return fmt.Errorf("stamp %s is not in the ledger", stampID)
	}
	if err != nil {
		return err
	}
	p := loc.Placement
	printSuccess(w, "Stamp %s is on sheet %s at %d,%d px", stampID, loc.Sheet.ID, p.X, p.Y)
	printFile(w, loc.Sheet.Path)
	return nil
}
