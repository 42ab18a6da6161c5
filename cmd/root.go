// Package cmd wires the easel CLI: workspace scaffolding, document
// validation, layout rendering and the MCP serve loop. Runtime configuration
// resolves through viper (flags over EASEL_* environment variables over an
// optional config file); the per-workspace easel.toml is handled separately
// by the root easel package.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/easelhq/easel"
	"github.com/easelhq/easel/internal/config"
	"github.com/easelhq/easel/internal/observability"
)

var cfgFile string

// NewRootCommand builds a fresh command tree. Each invocation gets its own
// tree so flag state never leaks between executions.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "easel",
		Short: "Headless layout and interaction engine for canvas documents",
		Long: `Easel maintains Figma-style canvas documents: nested element trees on
artboards with flex auto-layout, fill/hug/fixed sizing, responsive
breakpoint overrides and snapshot undo/redo.

The CLI validates and renders document files and serves the editing
surface to AI tooling over the Model Context Protocol.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initializeConfig(); err != nil {
				return err
			}
			cfg, err := config.FromViper(viper.GetViper())
			if err != nil {
				// Fall back to a working logger so the error itself is visible.
				observability.InitializeLogger(config.NewDefault().Logger)
				return err
			}
			observability.InitializeLogger(cfg.Logger)
			observability.L().Debug("starting easel", zap.String("version", Version))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	rootCmd.AddCommand(
		newInitCmd(),
		newValidateCmd(),
		newRenderCmd(),
		newServeCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the CLI against a signal-aware context.
func Execute(ctx context.Context) error {
	err := NewRootCommand().ExecuteContext(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		observability.L().Error("command failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	observability.Sync()
	return err
}

// resolveDocumentArg returns the document file a command operates on: the
// explicit path argument when one was given, otherwise the configured
// document of the nearest enclosing workspace.
func resolveDocumentArg(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	root, err := easel.FindWorkspaceRoot()
	if err != nil {
		return "", err
	}
	ws, err := easel.LoadWorkspaceConfig(root)
	if err != nil {
		return "", err
	}
	return ws.DocumentPath(root), nil
}

// initializeConfig reads the config file and EASEL_* environment variables.
func initializeConfig() error {
	v := viper.GetViper()
	config.SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("EASEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config file: %w", err)
		}
		// No config file; defaults and environment take over.
	}
	return nil
}
