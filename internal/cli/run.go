package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/piwi3910/StampPaper/internal/engine"
	"github.com/piwi3910/StampPaper/internal/ledger"
	"github.com/piwi3910/StampPaper/internal/model"
	"github.com/piwi3910/StampPaper/internal/rig"
	"github.com/piwi3910/StampPaper/internal/store"
)

type runOptions struct {
	layoutFlags
	inbox   string
	serial  string
	baud    int
	ledger  string
	noFlush bool
}

func (c *CLI) runCommand() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Serve the picking rig over its serial link",
		Long: `Listen for rig commands on the serial port. On every "moved" the oldest image
in the inbox is laid out and the rig is answered "complete" when a sheet was
written, "retry" otherwise. The partial sheet is flushed on exit.`,
		Example: `  stamppaper run --serial /dev/ttyUSB0 --inbox fronts/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			port := opts.serial
			if port == "" {
				port = c.Config.SerialPort
			}
			if port == "" {
				return errors.New("no serial port configured, use --serial")
			}
			baud := opts.baud
			if baud == 0 {
				baud = c.Config.BaudRate
			}

			link, err := rig.Open(port, rig.PortOptions{BaudRate: baud})
			if err != nil {
				return err
			}
			defer link.Close()

			loggerFromContext(cmd.Context()).Info("rig link open", "port", port, "baud", baud)
			return c.serveRig(cmd.Context(), link, opts)
		},
	}

	opts.layoutFlags.register(cmd)
	cmd.Flags().StringVar(&opts.inbox, "inbox", "", "directory the stamp crops arrive in (default from config)")
	cmd.Flags().StringVar(&opts.serial, "serial", "", "serial port of the rig (default from config)")
	cmd.Flags().IntVar(&opts.baud, "baud", 0, "baud rate (default from config)")
	cmd.Flags().StringVar(&opts.ledger, "ledger", "", "record sheets in this ledger database")
	cmd.Flags().BoolVar(&opts.noFlush, "no-flush", false, "keep the last partial sheet unwritten on exit")

	return cmd
}

// serveRig runs the controller on link until the rig hangs up or ctx is
// cancelled, then flushes the partial sheet.
func (c *CLI) serveRig(ctx context.Context, link *rig.Link, opts runOptions) error {
	s, err := c.settings(opts.layoutFlags)
	if err != nil {
		return err
	}
	logger := loggerFromContext(ctx)

	inbox := opts.inbox
	if inbox == "" {
		inbox = c.Config.InboxDir
	}
	if err := os.MkdirAll(inbox, 0755); err != nil {
		return fmt.Errorf("failed to create inbox: %w", err)
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

	sheets := 0
	onSheet := func(sheet model.SheetResult) error {
		sheets++
		if led == nil {
			return nil
		}
		// The rig loop may already be cancelled; the record must still land.
		return led.Record(context.WithoutCancel(ctx), sheet)
	}

	ctrl := rig.NewController(link, packer, rig.Inbox{Dir: inbox})
	ctrl.Logger = logger
	ctrl.OnSheet = onSheet

	logger.Info("serving rig", "inbox", inbox, "strategy", s.Strategy, "output", s.OutputDir)
	runErr := ctrl.Run(ctx)
	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}

	if !opts.noFlush {
		res, err := packer.Flush()
		if err != nil {
			return errors.Join(runErr, err)
		}
		if res.Sheet != nil {
			if err := onSheet(*res.Sheet); err != nil {
				return errors.Join(runErr, err)
			}
		}
	}
	logger.Info("rig session finished", "sheets", sheets)
	return runErr
}
