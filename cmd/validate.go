package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/easelhq/easel"
	"github.com/easelhq/easel/internal/observability"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [document.json]",
		Short: "Check a document file against the data model",
		Long: `Loads the document and verifies the element forest: every element has
one parent whose children list names it exactly once, no cycles, page
roots have type "page", and every page's root resolves. Violations
fail the whole file.

Without an argument the document comes from the nearest easel.toml.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveDocumentArg(args)
			if err != nil {
				return err
			}
			return runValidate(cmd, path)
		},
	}
}

func runValidate(cmd *cobra.Command, path string) error {
	doc, err := easel.LoadDocument(path)
	if err != nil {
		observability.L().Error("document rejected", zap.String("path", path), zap.Error(err))
		return err
	}

	ok := lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n",
		ok.Render("valid"),
		path,
		dim.Render(fmt.Sprintf("(%d pages, %d elements)", len(doc.PageOrder), len(doc.Elements))),
	)
	return nil
}
