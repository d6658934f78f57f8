// Command orrery explores a portfolio laid out as a universe of galaxies.
package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/teranos/orrery/config"
	"github.com/teranos/orrery/content"
	"github.com/teranos/orrery/layout"
	"github.com/teranos/orrery/scene"
	"github.com/teranos/orrery/trip"
)

// app is the state shared by every subcommand once the root has run.
type app struct {
	verbose bool
	cfgPath string
	logFile string

	cfg     config.Config
	session string
	logger  *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "orrery",
		Short: "Navigate a portfolio as galaxies of projects",
		Long: `orrery lays out a content catalog as galaxies of projects and lets you
fly between them: zoom to a galaxy, scan a project to unlock it, land on it,
or sit back and take a guided journey.

Run "orrery explore" for the interactive terminal explorer.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")
	root.PersistentFlags().StringVarP(&a.cfgPath, "config", "c", "", "Config file (YAML); ORRERY_* variables override it")

	root.AddCommand(
		newExploreCmd(a),
		newCheckCmd(a),
		newLayoutCmd(a),
		newTourCmd(a),
		newMinimapCmd(a),
	)
	return root
}

// setup loads the config and builds the session logger.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgPath, nil)
	if err != nil {
		return err
	}
	a.cfg = cfg

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(cfg.Level())
	if a.verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	var logger *zap.Logger
	switch {
	case cmd.Name() == "explore" && a.logFile == "":
		// The terminal belongs to the UI.
		logger = zap.NewNop()
	case cmd.Name() == "explore":
		zc.OutputPaths = []string{a.logFile}
		zc.ErrorOutputPaths = []string{a.logFile}
		fallthrough
	default:
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
	}

	a.session = uuid.NewString()
	a.logger = logger.With(zap.String("session", a.session))
	a.logger.Debug("config loaded", zap.String("path", a.cfgPath), zap.String("content", cfg.Content))
	return nil
}

func (a *app) catalog() (*content.Catalog, error) {
	if a.cfg.Content == "" {
		return content.Default(), nil
	}
	return content.Load(a.cfg.Content)
}

func (a *app) atlas() (*layout.Atlas, error) {
	cat, err := a.catalog()
	if err != nil {
		return nil, err
	}
	return layout.NewAtlas(cat, layout.New(a.cfg.Layout)), nil
}

func (a *app) trips() *trip.Handler {
	return trip.NewHandler("core", nil).WithLogger(a.logger)
}

// sceneOptions is the configured runtime, logging through the session.
func (a *app) sceneOptions() scene.Options {
	opts := a.cfg.SceneOptions()
	opts.Logger = a.logger
	opts.Trips = a.trips()
	return opts
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
