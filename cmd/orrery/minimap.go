package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/teranos/orrery/deeplink"
	"github.com/teranos/orrery/journey"
	"github.com/teranos/orrery/minimap"
	"github.com/teranos/orrery/scene"
	"github.com/teranos/orrery/schedule"
)

// defaultTour names the default journey on the command line.
const defaultTour = "default"

func newMinimapCmd(a *app) *cobra.Command {
	var (
		output   string
		size     int
		at       string
		tour     string
		baseline string
		name     string
		update   bool
		tol      float64
	)
	cmd := &cobra.Command{
		Use:   "minimap",
		Short: "Render the layout from above as a PNG",
		Long: `Renders galaxies, projects and the camera onto a top-down PNG.

--at lands the camera on a project first, --tour draws a journey's trail.
With --baseline the image is compared against DIR/NAME.png and the command
fails when it drifted; --update rewrites that baseline instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			atlas, err := a.atlas()
			if err != nil {
				return err
			}
			opts := a.sceneOptions()
			opts.Scheduler = schedule.NewManual(time.Now())
			opts.ReducedMotion = true
			rt, err := scene.New(atlas, opts)
			if err != nil {
				return err
			}

			if at != "" {
				query := deeplink.Param + "=" + at
				rt.Do(func() { rt.Navigate(query) })
			}
			// Reduced motion finishes any flight within a second.
			rt.Step(1)
			frame := rt.Step(1)

			cfg := minimap.DefaultConfig()
			cfg.Width, cfg.Height = size, size
			r := minimap.New(atlas, cfg)
			if tour != "" {
				id := tour
				if id == defaultTour {
					id = ""
				}
				stops, ok := journey.Resolve(atlas, id, rt.Trips())
				if !ok {
					return fmt.Errorf("unknown tour %q", tour)
				}
				r.SetTrail(stops)
			}
			img := r.Render(frame)

			out := cmd.OutOrStdout()
			if output != "" {
				if err := minimap.Save(output, img); err != nil {
					return err
				}
				fmt.Fprintf(out, "wrote %s\n", output)
			}

			if baseline == "" {
				return nil
			}
			sup := minimap.NewSupervisor(baseline)
			if cmd.Flags().Changed("tolerance") {
				sup.Tolerance = tol
			}
			if update {
				if err := sup.SetBaseline(name, img); err != nil {
					return err
				}
				fmt.Fprintf(out, "baseline %s updated\n", name)
				return nil
			}
			d, err := sup.Check(name, img)
			a.logger.Info("minimap compared", zap.String("name", name), zap.Float64("difference", d), zap.Error(err))
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "baseline %s matches (%.3f%% changed)\n", name, d*100)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "PNG file to write")
	cmd.Flags().IntVar(&size, "size", 512, "Canvas width and height in pixels")
	cmd.Flags().StringVar(&at, "at", "", "Project to land the camera on")
	cmd.Flags().StringVar(&tour, "tour", "", "Draw the trail of a tour id, or of \"default\"")
	cmd.Flags().StringVar(&baseline, "baseline", "", "Directory of baseline PNGs to compare against")
	cmd.Flags().StringVar(&name, "name", "minimap", "Baseline name")
	cmd.Flags().BoolVar(&update, "update", false, "Rewrite the baseline instead of comparing")
	cmd.Flags().Float64Var(&tol, "tolerance", 0.005, "Fraction of pixels allowed to differ from the baseline")
	return cmd
}
