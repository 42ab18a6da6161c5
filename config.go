package easel

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/easelhq/easel/style"
)

// WorkspaceFile is the workspace configuration filename.
const WorkspaceFile = "easel.toml"

// WorkspaceConfig represents the easel.toml workspace configuration.
type WorkspaceConfig struct {
	Project     ProjectConfig      `toml:"project"`
	Page        PageConfig         `toml:"page"`
	Autosave    AutosaveConfig     `toml:"autosave"`
	Breakpoints []BreakpointConfig `toml:"breakpoints"`
}

// ProjectConfig names the workspace and its document file.
type ProjectConfig struct {
	Name     string `toml:"name"`
	Document string `toml:"document"`
}

// PageConfig sets the artboard size for new pages.
type PageConfig struct {
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
}

// AutosaveConfig controls periodic snapshots while serving.
type AutosaveConfig struct {
	Enabled bool `toml:"enabled"`
	// Schedule is a cron expression, descriptors like "@every 5m" included.
	Schedule string `toml:"schedule"`
	Dir      string `toml:"dir"`
}

// BreakpointConfig declares one responsive breakpoint.
type BreakpointConfig struct {
	ID      string  `toml:"id"`
	Name    string  `toml:"name"`
	Width   float64 `toml:"width"`
	Height  float64 `toml:"height"`
	Icon    string  `toml:"icon"`
	Default bool    `toml:"default"`
}

// DefaultWorkspaceConfig returns a sensible default configuration.
func DefaultWorkspaceConfig() WorkspaceConfig {
	var bps []BreakpointConfig
	for _, bp := range style.DefaultBreakpoints() {
		bps = append(bps, BreakpointConfig{
			ID:      bp.ID,
			Name:    bp.Name,
			Width:   bp.Width,
			Height:  bp.Height,
			Icon:    bp.Icon,
			Default: bp.IsDefault,
		})
	}
	return WorkspaceConfig{
		Project: ProjectConfig{
			Name:     "Untitled",
			Document: "design.json",
		},
		Page: PageConfig{
			Width:  defaultPageWidth,
			Height: defaultPageHeight,
		},
		Autosave: AutosaveConfig{
			Enabled:  false,
			Schedule: "@every 5m",
			Dir:      ".easel/autosave",
		},
		Breakpoints: bps,
	}
}

// StyleBreakpoints converts the configured breakpoints for the resolver.
// An empty list falls back to the built-in set.
func (c WorkspaceConfig) StyleBreakpoints() []style.Breakpoint {
	if len(c.Breakpoints) == 0 {
		return style.DefaultBreakpoints()
	}
	out := make([]style.Breakpoint, len(c.Breakpoints))
	for i, bp := range c.Breakpoints {
		out[i] = style.Breakpoint{
			ID:        bp.ID,
			Name:      bp.Name,
			Width:     bp.Width,
			Height:    bp.Height,
			Icon:      bp.Icon,
			IsDefault: bp.Default,
		}
	}
	return out
}

// DocumentPath resolves the workspace document file under root.
func (c WorkspaceConfig) DocumentPath(root string) string {
	return filepath.Join(root, c.Project.Document)
}

// Validate checks the configuration for values the engine cannot work with.
func (c WorkspaceConfig) Validate() error {
	if c.Project.Document == "" {
		return fmt.Errorf("project.document must not be empty")
	}
	if c.Page.Width <= 0 || c.Page.Height <= 0 {
		return fmt.Errorf("page size %gx%g is not positive", c.Page.Width, c.Page.Height)
	}
	seen := make(map[string]bool, len(c.Breakpoints))
	defaults := 0
	for _, bp := range c.Breakpoints {
		if bp.ID == "" {
			return fmt.Errorf("breakpoint %q has no id", bp.Name)
		}
		if seen[bp.ID] {
			return fmt.Errorf("breakpoint id %q declared twice", bp.ID)
		}
		seen[bp.ID] = true
		if bp.Width <= 0 {
			return fmt.Errorf("breakpoint %q has width %g", bp.ID, bp.Width)
		}
		if bp.Default {
			defaults++
		}
	}
	if defaults > 1 {
		return fmt.Errorf("%d breakpoints marked default, want at most one", defaults)
	}
	return nil
}

// LoadWorkspaceConfig loads easel.toml from dir. A missing file returns the
// default configuration.
func LoadWorkspaceConfig(dir string) (WorkspaceConfig, error) {
	config := DefaultWorkspaceConfig()

	configPath := filepath.Join(dir, WorkspaceFile)
	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return config, nil
	}
	if err != nil {
		return config, fmt.Errorf("failed to read %s: %w", configPath, err)
	}
	if err := toml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("failed to parse %s: %w", configPath, err)
	}
	if err := config.Validate(); err != nil {
		return config, fmt.Errorf("%s: %w", configPath, err)
	}
	return config, nil
}

// SaveWorkspaceConfig writes the configuration to easel.toml under dir.
func SaveWorkspaceConfig(dir string, config WorkspaceConfig) error {
	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	path := filepath.Join(dir, WorkspaceFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// FindWorkspaceRoot walks up from the working directory to the nearest
// directory holding an easel.toml.
func FindWorkspaceRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, WorkspaceFile)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in an easel workspace (no %s found)", WorkspaceFile)
		}
		dir = parent
	}
}
