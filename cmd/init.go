package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/easelhq/easel"
	"github.com/easelhq/easel/internal/observability"
)

func newInitCmd() *cobra.Command {
	var (
		projectName string
		force       bool
	)

	initCmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Scaffold an easel workspace",
		Long: `Creates easel.toml with the default breakpoint set and a starter
document with one empty page. With no argument the workspace is
created in the current directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runInit(cmd, dir, projectName, force)
		},
	}

	initCmd.Flags().StringVarP(&projectName, "name", "n", "", "project name (defaults to the directory name)")
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing workspace")
	return initCmd
}

func runInit(cmd *cobra.Command, dir, projectName string, force bool) error {
	logger := observability.L()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create workspace directory: %w", err)
	}

	configPath := filepath.Join(dir, easel.WorkspaceFile)
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
	}

	ws := easel.DefaultWorkspaceConfig()
	if projectName != "" {
		ws.Project.Name = projectName
	} else if abs, err := filepath.Abs(dir); err == nil {
		ws.Project.Name = filepath.Base(abs)
	}
	if err := easel.SaveWorkspaceConfig(dir, ws); err != nil {
		return err
	}

	docPath := ws.DocumentPath(dir)
	if _, err := os.Stat(docPath); os.IsNotExist(err) || force {
		doc := easel.NewDocument()
		if err := doc.Save(docPath); err != nil {
			return err
		}
	}

	logger.Info("workspace initialized",
		zap.String("dir", dir),
		zap.String("project", ws.Project.Name),
		zap.String("document", ws.Project.Document),
	)

	accent := lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, accent.Render("Workspace ready."))
	fmt.Fprintf(out, "  %s %s\n", dim.Render("config:"), configPath)
	fmt.Fprintf(out, "  %s %s\n", dim.Render("document:"), docPath)
	fmt.Fprintf(out, "\nNext: %s\n", dim.Render("easel serve "+docPath))
	return nil
}
