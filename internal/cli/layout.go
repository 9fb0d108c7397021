package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/piwi3910/StampPaper/internal/engine"
	"github.com/piwi3910/StampPaper/internal/export"
	"github.com/piwi3910/StampPaper/internal/ledger"
	"github.com/piwi3910/StampPaper/internal/model"
	"github.com/piwi3910/StampPaper/internal/store"
)

type layoutOptions struct {
	layoutFlags
	list     string
	noFlush  bool
	ledger   string
	pdf      string
	manifest string
	labels   string
}

func (c *CLI) layoutCommand() *cobra.Command {
	var opts layoutOptions

	cmd := &cobra.Command{
		Use:   "layout [image|dir]...",
		Short: "Lay stamp images out on sheets",
		Long: `Lay out a batch of stamp images and write every completed sheet to the output directory.

Directories are expanded to the images they contain, in name order. A CSV or
Excel stamp list (--list) is laid out before the images named on the command line.`,
		Example: `  stamppaper layout fronts/
  stamppaper layout --strategy binpack --paper A5 fronts/
  stamppaper layout --list stamps.xlsx --pdf sheets.pdf --manifest sheets.xlsx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), cmd.OutOrStdout(), args, opts)
		},
	}

	opts.layoutFlags.register(cmd)
	cmd.Flags().StringVar(&opts.list, "list", "", "CSV or Excel stamp list")
	cmd.Flags().BoolVar(&opts.noFlush, "no-flush", false, "keep the last partial sheet unwritten")
	cmd.Flags().StringVar(&opts.ledger, "ledger", "", "record sheets in this ledger database")
	cmd.Flags().StringVar(&opts.pdf, "pdf", "", "write a print-ready PDF")
	cmd.Flags().StringVar(&opts.manifest, "manifest", "", "write an .xlsx placement manifest")
	cmd.Flags().StringVar(&opts.labels, "labels", "", "write a PDF of QR stamp labels")

	return cmd
}

func (c *CLI) runLayout(ctx context.Context, w io.Writer, args []string, opts layoutOptions) error {
	s, err := c.settings(opts.layoutFlags)
	if err != nil {
		return err
	}
	logger := loggerFromContext(ctx)

	stamps, err := gatherStamps(args, opts.list, logger)
	if err != nil {
		return err
	}

	packer, err := engine.New(s, store.NewFileStore(s.OutputDir, s.JPEGQuality))
	if err != nil {
		return err
	}
	engine.SetLogger(packer, logger)

	var led *ledger.Ledger
	if path := c.ledgerPath(opts.ledger); path != "" {
		if led, err = ledger.Open(path); err != nil {
			return err
		}
		defer led.Close()
	}

	report := export.Report{Settings: s}
	record := func(sheet model.SheetResult) error {
		report.Sheets = append(report.Sheets, sheet)
		if led == nil {
			return nil
		}
		return led.Record(ctx, sheet)
	}

	prog := newProgress(logger)
	rejected, err := engine.Feed(packer, stamps, func(_ model.Stamp, res engine.Result) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if res.Sheet == nil {
			return nil
		}
		return record(*res.Sheet)
	})
	for _, st := range rejected {
		logger.Warn("stamp too large for the paper", "stamp", st.ID, "size", fmt.Sprintf("%dx%d", st.Width(), st.Height()))
		report.Rejected = append(report.Rejected, st.ID)
	}
	if err != nil {
		return err
	}

	if !opts.noFlush {
		res, err := packer.Flush()
		if err != nil {
			return err
		}
		if res.Sheet != nil {
			if err := record(*res.Sheet); err != nil {
				return err
			}
		}
	}
	prog.done(fmt.Sprintf("Laid out %d stamps on %d sheets", report.StampCount(), len(report.Sheets)))

	printReport(w, report)
	return writeExports(w, report, opts)
}

func printReport(w io.Writer, report export.Report) {
	if len(report.Sheets) == 0 {
		printWarning(w, "No sheet written")
	} else {
		printSuccess(w, "Wrote %d sheets with %d stamps (%.1f%% average fill)",
			len(report.Sheets), report.StampCount(), report.AverageFill())
		for _, sheet := range report.Sheets {
			printFile(w, sheet.Path)
		}
	}
	if len(report.Rejected) > 0 {
		printWarning(w, "%d stamps too large for the paper", len(report.Rejected))
		for _, id := range report.Rejected {
			printDetail(w, "%s", id)
		}
	}
}

func writeExports(w io.Writer, report export.Report, opts layoutOptions) error {
	if len(report.Sheets) == 0 {
		return nil
	}
	if opts.pdf != "" {
		if err := export.ExportPDF(opts.pdf, report); err != nil {
			return fmt.Errorf("pdf export: %w", err)
		}
		printInfo(w, "PDF written")
		printFile(w, opts.pdf)
	}
	if opts.manifest != "" {
		if err := export.ExportManifest(opts.manifest, report); err != nil {
			return fmt.Errorf("manifest export: %w", err)
		}
		printInfo(w, "Manifest written")
		printFile(w, opts.manifest)
	}
	if opts.labels != "" {
		if err := export.ExportLabels(opts.labels, report.Sheets, report.Settings.PixelsPerMM); err != nil {
			return fmt.Errorf("label export: %w", err)
		}
		printInfo(w, "Labels written")
		printFile(w, opts.labels)
	}
	return nil
}
