// Package cli implements the ssaa-designer command-line interface.
//
// This package provides inspection and verification commands over persisted
// designer projects: validating layer topologies, recomputing layouts,
// exporting diagrams and serving the read-only HTTP API. The CLI is built
// using cobra and supports verbose logging via the charmbracelet/log
// library.
//
// # Commands
//
// The main commands are:
//   - validate: Run structural and registry cross-checks on a project
//   - issues: List diagnostics, optionally in an interactive browser
//   - layout: Recompute auto-placement and edge lanes
//   - export: Write DOT or SVG diagrams per layer
//   - projects: List stored projects
//   - serve: Run the read-only inspection API
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/jzagalv/ssaa-designer/pkg/buildinfo"
	"github.com/jzagalv/ssaa-designer/pkg/config"
	apperrors "github.com/jzagalv/ssaa-designer/pkg/errors"
	"github.com/jzagalv/ssaa-designer/pkg/pipeline"
	"github.com/jzagalv/ssaa-designer/pkg/registry"
	"github.com/jzagalv/ssaa-designer/pkg/store"
)

// appName is the application name used for directories and display.
const appName = "ssaa-designer"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath   string
	registryPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands
// registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Inspect and verify substation auxiliary-services topologies",
		Long:         `ssaa-designer works on persisted SS/AA designer projects: it validates workspace layers against their registry, recomputes layouts, exports single-line diagrams and serves a read-only inspection API.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to designer.toml (default: built-in defaults)")
	root.PersistentFlags().StringVar(&c.registryPath, "registry", "", "path to a registry rows JSON export")

	root.AddCommand(c.validateCommand())
	root.AddCommand(c.issuesCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.projectsCommand())
	root.AddCommand(c.serveCommand())

	return root
}

// loadConfig loads designer.toml from --config, falling back to defaults
// when no path was given.
func (c *CLI) loadConfig() (config.Config, error) {
	if c.configPath == "" {
		return config.Default(), nil
	}
	return config.Load(c.configPath)
}

// openStore builds the persistence backend selected by the configuration.
func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Backend {
	case "memory":
		return store.NewMemory(), nil
	case "", "file":
		return store.NewFile(cfg.Dir)
	case "redis":
		return store.NewRedis(ctx, store.RedisConfig{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
	case "mongo":
		return store.NewMongo(ctx, store.MongoConfig{
			URI:      cfg.URI,
			Database: cfg.Database,
		})
	default:
		return nil, apperrors.New(apperrors.ErrCodeUnsupported, "unknown store backend: %s", cfg.Backend)
	}
}

// newRunner opens the named project behind a pipeline runner, with the
// registry snapshot from --registry when one was given.
func (c *CLI) newRunner(ctx context.Context, project string) (*pipeline.Runner, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	snap, err := registry.LoadSnapshot(c.registryPath)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	r := pipeline.NewRunner(st, snap, c.Logger)
	if err := r.Open(ctx, project); err != nil {
		_ = st.Close()
		return nil, err
	}
	return r, nil
}

// layerKeys resolves the --layer flag: empty means every workspace the
// project or registry knows about.
func layerKeys(r *pipeline.Runner, flag string) ([]registry.RequirementCode, error) {
	if flag != "" {
		key := registry.RequirementCode(flag)
		if !key.Valid() {
			return nil, apperrors.New(apperrors.ErrCodeInvalidLayerKey, "unknown workspace: %s", flag)
		}
		return []registry.RequirementCode{key}, nil
	}
	keys := r.Layers()
	for _, key := range r.Snapshot().AvailableWorkspaces() {
		if !containsKey(keys, key) {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		keys = registry.AllRequirements
	}
	return keys, nil
}

func containsKey(keys []registry.RequirementCode, key registry.RequirementCode) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
