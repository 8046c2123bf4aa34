package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/Qefaraki/treescape/pkg/buildinfo"
	"github.com/Qefaraki/treescape/pkg/cache"
	pkgerrors "github.com/Qefaraki/treescape/pkg/errors"
	"github.com/Qefaraki/treescape/pkg/store"
	"github.com/Qefaraki/treescape/pkg/tree"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "treescape"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: DefaultConfig(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "treescape",
		Short:        "Treescape renders very large genealogy trees at interactive zoom",
		Long:         `Treescape is the viewport-driven engine behind large genealogy tree views: spatial culling, level-of-detail tiers, gesture physics, and progressive region loading, with a reference data server and exporters built on the same core.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return nil
			}
			cfg, err := LoadConfig(configPath)
			if err != nil {
				return err
			}
			c.Config = cfg
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML config file")

	// Register all subcommands
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.demoCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.tuiCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Source Factory
// =============================================================================

// newSource resolves a tree argument into a node source. Accepted forms:
// a JSON tree file path, an http(s) base URL of a reference server, or
// "demo" for a generated fixture.
func (c *CLI) newSource(ctx context.Context, arg string, noCache bool) (store.NodeSource, error) {
	switch {
	case arg == "demo" || arg == "":
		t := tree.Generate(tree.GenerateOptions{Count: c.Config.Demo.Count, Seed: c.Config.Demo.Seed})
		return store.NewMemorySource(t.Nodes), nil
	case strings.Contains(arg, "://"):
		if err := pkgerrors.ValidateURL(arg); err != nil {
			return nil, err
		}
		byteCache, err := c.newByteCache(ctx, noCache)
		if err != nil {
			c.Logger.Warn("cache unavailable, continuing without", "err", err)
			byteCache = cache.NewNullCache()
		}
		return store.NewHTTPSource(arg, c.Config.Server.TreeID, byteCache), nil
	default:
		t, err := tree.ReadFile(arg)
		if err != nil {
			return nil, fmt.Errorf("read tree %s: %w", arg, err)
		}
		return store.NewMemorySource(t.Nodes), nil
	}
}

// newByteCache picks the region response cache backend: Redis when
// configured, the XDG file cache otherwise.
func (c *CLI) newByteCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if addr := c.Config.Redis.Addr; addr != "" {
		return cache.NewRedisCache(ctx, addr, c.Config.Redis.Password, c.Config.Redis.DB)
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/treescape/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
