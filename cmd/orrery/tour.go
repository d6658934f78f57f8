package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teranos/orrery/scene"
	"github.com/teranos/orrery/schedule"
)

func newTourCmd(a *app) *cobra.Command {
	var speed float64
	cmd := &cobra.Command{
		Use:   "tour [tour-id]",
		Short: "Play a journey headlessly and print each stop",
		Long: `Plays the default journey, or the named tour, on a virtual clock and prints
every stop as the journey reaches it.

--speed paces the playback against the wall clock: 1 is real time, 10 is ten
times faster. The default of 0 prints the whole journey at once.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var tourID string
			if len(args) == 1 {
				tourID = args[0]
			}
			if speed < 0 {
				return fmt.Errorf("--speed %.2f must not be negative", speed)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.playTour(ctx, cmd, tourID, speed)
		},
	}
	cmd.Flags().Float64Var(&speed, "speed", 0, "Playback speed relative to real time (0 = instant)")
	return cmd
}

func (a *app) playTour(ctx context.Context, cmd *cobra.Command, tourID string, speed float64) error {
	atlas, err := a.atlas()
	if err != nil {
		return err
	}
	clock := schedule.NewManual(time.Now())
	opts := a.sceneOptions()
	opts.Scheduler = clock
	rt, err := scene.New(atlas, opts)
	if err != nil {
		return err
	}

	started := false
	rt.Do(func() { started = rt.Journey().Start(tourID) })
	f := rt.Step(0)
	if !started {
		return fmt.Errorf("unknown tour %q", tourID)
	}

	out := cmd.OutOrStdout()
	title := "Highlights"
	if t, ok := atlas.Catalog().Tour(tourID); ok {
		title = t.Title
	}
	fmt.Fprintf(out, "%s (%d stops)\n", title, f.Snapshot.Journey.Stops)

	dwell := a.cfg.Journey.Dwell()
	for f.Snapshot.Journey.Active && f.Stop != nil {
		j := f.Snapshot.Journey
		marker := ""
		if f.GalaxyChange {
			marker = "  (new galaxy)"
		}
		fmt.Fprintf(out, "%d/%d  %s › %s%s\n", j.Step+1, j.Stops, f.Stop.GalaxyName, f.Stop.Project.Title, marker)
		if f.Stop.Narrative != "" {
			fmt.Fprintf(out, "      %s\n", f.Stop.Narrative)
		}

		if speed > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Duration(float64(dwell) / speed)):
			}
		}
		clock.Advance(dwell)
		f = rt.Step(float32(dwell.Seconds()))
	}
	fmt.Fprintln(out, "journey complete")
	return nil
}
