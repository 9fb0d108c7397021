// Package cli implements the stamppaper command-line interface.
//
// The commands lay stamp images out on paper-sized sheets, serve the picking
// rig over its serial link, compare strategies, and manage the configuration,
// the paper formats and the sheet ledger. The CLI is built using cobra and
// logs through charmbracelet/log.
//
// # Commands
//
//   - layout: lay out a batch of stamp images and export the sheets
//   - run: answer the rig's "moved" commands from an inbox directory
//   - compare: dry-run every strategy on the same batch
//   - papers: list and edit paper formats
//   - config: create, show, back up and restore the configuration
//   - history: query the sheet ledger
package cli

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/piwi3910/StampPaper/internal/config"
	"github.com/piwi3910/StampPaper/internal/model"
)

const appName = "stamppaper"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

var (
	version = "dev"
	commit  string
	date    string
)

// SetVersion sets the version information displayed by --version.
// It is called by the main package with values injected via ldflags.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// ConfigPath is the configuration file; paper formats live next to it.
	ConfigPath string
	Config     model.AppConfig
}

// New creates a new CLI instance with a default logger and configuration.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger:     newLogger(w, level),
		ConfigPath: config.DefaultConfigPath(),
		Config:     model.DefaultAppConfig(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "StampPaper lays stamp images out on printable sheets",
		Long:         `StampPaper packs front-side stamp crops onto paper-sized sheets, either in justified rows or with an incremental rectangle packer, and drives the picking rig over a serial link.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("%s %s\ncommit: %s\nbuilt: %s\n", appName, version, commit, date))
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", c.ConfigPath, "configuration file (.toml or .json)")

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.runCommand())
	root.AddCommand(c.compareCommand())
	root.AddCommand(c.papersCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.historyCommand())

	return root
}

// loadConfig reads the configuration and the custom paper formats.
func (c *CLI) loadConfig() error {
	cfg, err := config.LoadAppConfig(c.ConfigPath)
	if err != nil {
		return err
	}
	papers, err := config.LoadCustomProfiles(c.papersPath())
	if err != nil {
		return err
	}
	c.Config = cfg
	model.CustomPaperProfiles = papers
	c.Logger.Debug("configuration loaded", "path", c.ConfigPath, "papers", len(papers))
	return nil
}

func (c *CLI) papersPath() string {
	return filepath.Join(filepath.Dir(c.ConfigPath), filepath.Base(config.DefaultProfilesPath()))
}

// layoutFlags are the settings overrides shared by the layout commands.
type layoutFlags struct {
	paper    string
	strategy string
	output   string
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.paper, "paper", "", "paper format name (see 'papers')")
	cmd.Flags().StringVar(&f.strategy, "strategy", "", "layout strategy: flow or binpack")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output directory for sheets")
}

// settings applies the flags on top of the configured layout settings.
func (c *CLI) settings(f layoutFlags) (model.Settings, error) {
	s := c.Config.Layout
	if f.paper != "" {
		p, ok := model.GetPaperProfile(f.paper)
		if !ok {
			return model.Settings{}, fmt.Errorf("unknown paper format %q", f.paper)
		}
		p.ApplyToSettings(&s)
	}
	if f.strategy != "" {
		strategy, err := model.ParseStrategy(f.strategy)
		if err != nil {
			return model.Settings{}, err
		}
		s.Strategy = strategy
	}
	if f.output != "" {
		s.OutputDir = f.output
	}
	if err := s.Validate(); err != nil {
		return model.Settings{}, fmt.Errorf("invalid layout settings: %w", err)
	}
	return s, nil
}

// ledgerPath returns the flag value, falling back to the configured ledger.
func (c *CLI) ledgerPath(flag string) string {
	if flag != "" {
		return flag
	}
	return c.Config.LedgerPath
}
