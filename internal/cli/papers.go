package cli

import (
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/piwi3910/StampPaper/internal/config"
	"github.com/piwi3910/StampPaper/internal/model"
)

func (c *CLI) papersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "papers",
		Short: "List and edit paper formats",
		RunE: func(cmd *cobra.Command, args []string) error {
			listPapers(cmd.OutOrStdout())
			return nil
		},
	}

	cmd.AddCommand(c.papersAddCommand())
	cmd.AddCommand(c.papersRemoveCommand())

	return cmd
}

func listPapers(w io.Writer) {
	for _, p := range model.AllPaperProfiles() {
		kind := "custom"
		if p.IsBuiltIn {
			kind = "built-in"
		}
		printKeyValue(w, p.Name, fmt.Sprintf("%.1f x %.1f mm, margins %.1f/%.1f mm (%s)",
			p.Width, p.Height, p.MarginX, p.MarginY, kind))
		if p.Description != "" {
			printDetail(w, "%s", p.Description)
		}
	}
}

func (c *CLI) papersAddCommand() *cobra.Command {
	var p model.PaperProfile

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Add or replace a custom paper format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p.Name = args[0]
			if err := c.addPaper(p); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Saved paper format %s", p.Name)
			printFile(cmd.OutOrStdout(), c.papersPath())
			return nil
		},
	}

	cmd.Flags().Float64Var(&p.Width, "width", 0, "paper width in mm")
	cmd.Flags().Float64Var(&p.Height, "height", 0, "paper height in mm")
	cmd.Flags().Float64Var(&p.MarginX, "margin-x", 4, "horizontal row slack in mm")
	cmd.Flags().Float64Var(&p.MarginY, "margin-y", 2, "vertical margin per row in mm")
	cmd.Flags().StringVar(&p.Description, "description", "", "free text description")
	_ = cmd.MarkFlagRequired("width")
	_ = cmd.MarkFlagRequired("height")

	return cmd
}

// addPaper validates p against the default settings and saves it, replacing
// a custom format of the same name.
func (c *CLI) addPaper(p model.PaperProfile) error {
	s := model.DefaultSettings()
	p.ApplyToSettings(&s)
	if err := s.Validate(); err != nil {
		return fmt.Errorf("paper format %s: %w", p.Name, err)
	}

	papers := slices.DeleteFunc(slices.Clone(model.CustomPaperProfiles), func(q model.PaperProfile) bool {
		return q.Name == p.Name
	})
	papers = append(papers, p)
	if err := config.SaveCustomProfiles(c.papersPath(), papers); err != nil {
		return err
	}
	model.CustomPaperProfiles = papers
	return nil
}

func (c *CLI) papersRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove NAME",
		Short: "Remove a custom paper format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.removePaper(args[0]); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Removed paper format %s", args[0])
			return nil
		},
	}
}

func (c *CLI) removePaper(name string) error {
	i := slices.IndexFunc(model.CustomPaperProfiles, func(p model.PaperProfile) bool {
		return p.Name == name
	})
	if i < 0 {
		return fmt.Errorf("no custom paper format named %q", name)
	}
	papers := slices.Delete(slices.Clone(model.CustomPaperProfiles), i, i+1)
	if err := config.SaveCustomProfiles(c.papersPath(), papers); err != nil {
		return err
	}
	model.CustomPaperProfiles = papers
	return nil
}
