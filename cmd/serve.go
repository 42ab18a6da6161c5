package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/easelhq/easel"
	"github.com/easelhq/easel/engine"
	"github.com/easelhq/easel/internal/config"
	"github.com/easelhq/easel/internal/mcp"
	"github.com/easelhq/easel/internal/observability"
	"github.com/easelhq/easel/internal/watch"
)

func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve [document.json]",
		Short: "Serve the document's editing surface over MCP stdio",
		Long: `Loads the document and exposes every canvas operation as MCP tools on
stdin/stdout, so AI clients can assemble and restyle layouts. Logs go
to stderr; stdout carries only the protocol stream.

With --watch the document reloads when the file changes on disk, and
breakpoint edits in easel.toml apply to the running session.
Autosave snapshots follow the workspace easel.toml. The document is
written back on clean shutdown. Without an argument the document comes
from the nearest easel.toml.`,
		Args: cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := viper.BindPFlag("serve.watch", cmd.Flags().Lookup("watch")); err != nil {
				return err
			}
			return viper.BindPFlag("serve.watch_debounce", cmd.Flags().Lookup("watch-debounce"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveDocumentArg(args)
			if err != nil {
				return err
			}
			return runServe(cmd, path)
		},
	}

	serveCmd.Flags().Bool("watch", false, "reload the document when the file changes on disk")
	serveCmd.Flags().Duration("watch-debounce", watch.DefaultDebounce, "settle window for bursts of file changes")
	return serveCmd
}

func runServe(cmd *cobra.Command, path string) error {
	cfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		return err
	}
	logger := observability.L()

	doc, err := easel.LoadDocument(path)
	if err != nil {
		return err
	}
	workspaceDir := filepath.Dir(path)
	ws, err := easel.LoadWorkspaceConfig(workspaceDir)
	if err != nil {
		return err
	}

	store := easel.NewStore()
	editor := engine.NewEditor(store, ws.StyleBreakpoints())
	if err := editor.LoadDocument(doc); err != nil {
		return err
	}

	srv := mcp.New(mcp.Deps{Editor: editor, Version: Version, Logger: logger.Named("mcp")})

	logger.Info("serving document",
		zap.String("path", path),
		zap.String("project", ws.Project.Name),
		zap.Bool("watch", cfg.Serve.Watch),
		zap.Bool("autosave", ws.Autosave.Enabled),
	)

	// The stdio session drives the lifetime: when it ends, cancel so the
	// watcher and autosave goroutines wind down before the final save.
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	if cfg.Serve.Watch {
		watcher, err := watch.New(path, cfg.Serve.WatchDebounce, func() {
			reloadDocument(editor, path, logger)
		}, logger.Named("watch"))
		if err != nil {
			return err
		}
		g.Go(func() error {
			<-gctx.Done()
			return watcher.Close()
		})

		wsPath := filepath.Join(workspaceDir, easel.WorkspaceFile)
		wsWatcher, err := watch.New(wsPath, cfg.Serve.WatchDebounce, func() {
			reloadWorkspace(editor, workspaceDir, logger)
		}, logger.Named("watch"))
		if err != nil {
			return err
		}
		g.Go(func() error {
			<-gctx.Done()
			return wsWatcher.Close()
		})
	}

	if ws.Autosave.Enabled {
		stopAutosave, err := startAutosave(editor, workspaceDir, ws.Autosave, logger.Named("autosave"))
		if err != nil {
			return err
		}
		g.Go(func() error {
			<-gctx.Done()
			stopAutosave()
			return nil
		})
	}

	g.Go(func() error {
		defer cancel()
		return srv.Listen(gctx, cmd.InOrStdin(), cmd.OutOrStdout())
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
		return err
	}

	if err := editor.Export().Save(path); err != nil {
		return fmt.Errorf("save document on shutdown: %w", err)
	}
	logger.Info("document saved", zap.String("path", path))
	return nil
}

// reloadWorkspace re-reads easel.toml and swaps in its breakpoint set, so
// breakpoint edits reach the running session without a restart.
func reloadWorkspace(editor *engine.Editor, workspaceDir string, logger *zap.Logger) {
	ws, err := easel.LoadWorkspaceConfig(workspaceDir)
	if err != nil {
		logger.Warn("workspace reload rejected", zap.Error(err))
		return
	}
	editor.SetBreakpoints(ws.StyleBreakpoints())
	logger.Info("workspace config reloaded", zap.Int("breakpoints", len(ws.Breakpoints)))
}

// reloadDocument swaps in the on-disk state. A file that fails validation is
// rejected wholesale; the in-memory document stays as it was.
func reloadDocument(editor *engine.Editor, path string, logger *zap.Logger) {
	doc, err := easel.LoadDocument(path)
	if err != nil {
		logger.Warn("reload rejected", zap.String("path", path), zap.Error(err))
		return
	}
	if err := editor.LoadDocument(doc); err != nil {
		logger.Warn("reload rejected", zap.String("path", path), zap.Error(err))
		return
	}
	logger.Info("document reloaded", zap.String("path", path))
}

// startAutosave schedules timestamped snapshots per the workspace config and
// returns a stop function that waits for a running snapshot to finish.
func startAutosave(editor *engine.Editor, workspaceDir string, cfg easel.AutosaveConfig, logger *zap.Logger) (func(), error) {
	dir := cfg.Dir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(workspaceDir, dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create autosave dir: %w", err)
	}

	sched := cron.New()
	_, err := sched.AddFunc(cfg.Schedule, func() {
		name := filepath.Join(dir, time.Now().Format("20060102-150405")+".json")
		if err := editor.Export().Save(name); err != nil {
			logger.Warn("autosave failed", zap.Error(err))
			return
		}
		logger.Info("autosave written", zap.String("path", name))
	})
	if err != nil {
		return nil, fmt.Errorf("autosave schedule %q: %w", cfg.Schedule, err)
	}
	sched.Start()
	return func() { <-sched.Stop().Done() }, nil
}
