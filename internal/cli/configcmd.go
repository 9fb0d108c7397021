package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/piwi3910/StampPaper/internal/config"
	"github.com/piwi3910/StampPaper/internal/model"
)

func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	cmd.AddCommand(c.configInitCommand())
	cmd.AddCommand(c.configShowCommand())
	cmd.AddCommand(c.configPathCommand())
	cmd.AddCommand(c.configExportCommand())
	cmd.AddCommand(c.configImportCommand())

	return cmd
}

func (c *CLI) configInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with the default settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(c.ConfigPath); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", c.ConfigPath)
			}
			if err := config.SaveAppConfig(c.ConfigPath, model.DefaultAppConfig()); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Configuration written")
			printFile(cmd.OutOrStdout(), c.ConfigPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func (c *CLI) configShowCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			name := "config.toml"
			if asJSON {
				name = "config.json"
			}
			data, err := config.Encode(name, c.Config)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of TOML")
	return cmd
}

func (c *CLI) configPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configuration and paper format file paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), c.ConfigPath)
			fmt.Fprintln(cmd.OutOrStdout(), c.papersPath())
			return nil
		},
	}
}

func (c *CLI) configExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export FILE",
		Short: "Back up the configuration and custom paper formats to a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ExportAllData(args[0], c.Config, model.CustomPaperProfiles); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Backup written")
			printFile(cmd.OutOrStdout(), args[0])
			return nil
		},
	}
}

func (c *CLI) configImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Restore the configuration and custom paper formats from a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backup, err := config.ImportAllData(args[0])
			if err != nil {
				return err
			}
			err = errors.Join(
				config.SaveAppConfig(c.ConfigPath, backup.Config),
				config.SaveCustomProfiles(c.papersPath(), backup.Papers),
			)
			if err != nil {
				return err
			}
			c.Config = backup.Config
			model.CustomPaperProfiles = backup.Papers
			printSuccess(cmd.OutOrStdout(), "Restored backup from %s (%d paper formats)", backup.CreatedAt, len(backup.Papers))
			return nil
		},
	}
}
