package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/teranos/orrery/deeplink"
	"github.com/teranos/orrery/explorer"
	"github.com/teranos/orrery/scene"
)

func newExploreCmd(a *app) *cobra.Command {
	var (
		style string
		at    string
		tour  string
	)
	cmd := &cobra.Command{
		Use:   "explore",
		Short: "Open the interactive terminal explorer",
		Long: `Opens the explorer. Press 1-9 to fly to a galaxy, tab to pick a project,
hold space to scan it and enter to land. j starts a guided journey, ? shows
every key.

Logs are discarded unless --log-file is set, since the terminal belongs to
the explorer.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			atlas, err := a.atlas()
			if err != nil {
				return err
			}
			rt, err := scene.New(atlas, a.sceneOptions())
			if err != nil {
				return err
			}
			m, err := explorer.New(rt, explorer.Config{Style: style, ReducedMotion: a.cfg.ReducedMotion})
			if err != nil {
				return err
			}

			if at != "" {
				query := deeplink.Param + "=" + at
				rt.Do(func() { rt.Navigate(query) })
			}
			if tour != "" {
				rt.Do(func() { rt.Journey().Start(tour) })
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runExplorer(ctx, a.logger, rt, m)
		},
	}
	cmd.Flags().StringVar(&style, "style", "dark", "Markdown style for the info panel (dark, light, notty)")
	cmd.Flags().StringVar(&at, "at", "", "Start at a project, as a deep link would")
	cmd.Flags().StringVar(&tour, "tour", "", "Start a named journey right away")
	cmd.Flags().StringVar(&a.logFile, "log-file", "", "Write logs to this file")
	return cmd
}

// runExplorer runs the scene loop and the terminal program together. Either
// one ending stops the other.
func runExplorer(ctx context.Context, logger *zap.Logger, rt *scene.Runtime, m explorer.Model) error {
	g, gctx := errgroup.WithContext(ctx)
	loopCtx, stopLoop := context.WithCancel(gctx)

	g.Go(func() error {
		return rt.Run(loopCtx)
	})
	g.Go(func() error {
		defer stopLoop()
		p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(gctx))
		if _, err := p.Run(); err != nil {
			if errors.Is(err, tea.ErrProgramKilled) && gctx.Err() != nil {
				return nil
			}
			return err
		}
		return nil
	})

	err := g.Wait()
	logger.Info("explorer closed", zap.Error(err))
	if summary := rt.Trips().Summary(); rt.Trips().HasStumbles() {
		logger.Info("stumbles during session", zap.String("summary", summary))
	}
	return err
}
