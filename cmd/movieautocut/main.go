package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/KisaragiIchigo/MovieAutoCutter/internal/config"
	"github.com/KisaragiIchigo/MovieAutoCutter/internal/logging"
	"github.com/KisaragiIchigo/MovieAutoCutter/internal/pipeline"
	"github.com/KisaragiIchigo/MovieAutoCutter/internal/render"
)

var (
	cfgFile string
	verbose bool

	cutMode          string
	detectMode       string
	silenceThreshold float64
	motionThreshold  float64
	minSilenceMs     int64
	minStaticMs      int64
	preMargin        float64
	postMargin       float64
	speedFactor      float64
	noFastPath       bool
)

func main() {
	ctx := context.Background()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "movieautocut",
	Short: "MovieAutoCutter - dead-interval auto cutter",
	Long:  "Detects silent and visually static stretches of a video and removes or speeds them up automatically.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logging
		logging.Init(verbose)

		// Load config
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		// Store config in context
		ctx := config.WithConfig(cmd.Context(), cfg)
		cmd.SetContext(ctx)

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(configCmd)

	for _, cmd := range []*cobra.Command{analyzeCmd, processCmd} {
		cmd.Flags().StringVar(&detectMode, "detect", "both", "detection signals: audio, video or both")
		cmd.Flags().Float64Var(&silenceThreshold, "silence-threshold", 0, "silence threshold in dBFS (overrides config)")
		cmd.Flags().Float64Var(&motionThreshold, "motion-threshold", 0, "motion threshold (overrides config)")
	}

	processCmd.Flags().StringVar(&cutMode, "mode", "cut", "how to treat dead intervals: cut or speedup")
	processCmd.Flags().Int64Var(&minSilenceMs, "min-silence", 0, "minimum silence duration in ms (overrides config)")
	processCmd.Flags().Int64Var(&minStaticMs, "min-static", 0, "minimum static duration in ms (overrides config)")
	processCmd.Flags().Float64Var(&preMargin, "pre-margin", -1, "seconds kept before each interval (overrides config)")
	processCmd.Flags().Float64Var(&postMargin, "post-margin", -1, "seconds kept after each interval (overrides config)")
	processCmd.Flags().Float64Var(&speedFactor, "speed", 0, "speed-up factor for speedup mode (overrides config)")
	processCmd.Flags().BoolVar(&noFastPath, "no-fast-path", false, "skip the single-pass filter graph renderer")
}

// applyOverrides layers the command-line flags over the loaded config.
func applyOverrides(cfg *config.Config) {
	if silenceThreshold != 0 {
		cfg.Detection.SilenceThresholdDB = silenceThreshold
	}
	if motionThreshold != 0 {
		cfg.Detection.MotionThreshold = motionThreshold
	}
	if minSilenceMs > 0 {
		cfg.Detection.MinSilenceMs = minSilenceMs
	}
	if minStaticMs > 0 {
		cfg.Detection.MinStaticMs = minStaticMs
	}
	if preMargin >= 0 {
		cfg.Render.PreCutSeconds = preMargin
	}
	if postMargin >= 0 {
		cfg.Render.PostCutSeconds = postMargin
	}
	if speedFactor > 1 {
		cfg.Render.SpeedupFactor = speedFactor
	}
	if noFastPath {
		cfg.Render.UseFastPath = false
	}
}

func progressPrinter() func(value, max float64, label string) {
	return func(value, max float64, label string) {
		if max <= 0 {
			return
		}
		fmt.Fprintf(os.Stderr, "\r%-24s %5.1f%%", label, value/max*100)
	}
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [input video]",
	Short: "Measure loudness and motion without rendering",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		applyOverrides(cfg)

		detect, err := pipeline.ParseDetectMode(detectMode)
		if err != nil {
			return err
		}

		pipe, err := pipeline.New(log.Logger, cfg)
		if err != nil {
			return err
		}

		report, err := pipe.Analyze(cmd.Context(), args[0], pipeline.Options{
			Detect:   detect,
			Progress: progressPrinter(),
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr)

		fmt.Printf("duration: %.1fs  fps: %.3f\n", float64(report.DurationMs)/1000, report.FPS)
		if report.Audio != nil {
			fmt.Printf("loudness (dBFS): min %.1f  max %.1f  mean %.1f\n",
				report.Audio.Min, report.Audio.Max, report.Audio.Mean)
		}
		if report.Motion != nil {
			fmt.Printf("motion: min %.2f  max %.2f  mean %.2f\n",
				report.Motion.Min, report.Motion.Max, report.Motion.Mean)
		}

		return nil
	},
}

var processCmd = &cobra.Command{
	Use:   "process [input video]",
	Short: "Detect dead intervals and render the edited copy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		applyOverrides(cfg)

		detect, err := pipeline.ParseDetectMode(detectMode)
		if err != nil {
			return err
		}

		var mode render.Mode
		switch cutMode {
		case "cut":
			mode = render.ModeRemove
		case "speedup":
			mode = render.ModeSpeedup
		default:
			return fmt.Errorf("unknown mode %q (want cut or speedup)", cutMode)
		}

		pipe, err := pipeline.New(log.Logger, cfg)
		if err != nil {
			return err
		}

		result, err := pipe.Run(cmd.Context(), args[0], pipeline.Options{
			Detect:     detect,
			RenderMode: mode,
			Progress:   progressPrinter(),
		})
		fmt.Fprintln(os.Stderr)
		if err != nil {
			if errors.Is(err, pipeline.ErrEmptyPlan) {
				log.Info().Str("source", args[0]).Msg("no dead intervals found, nothing to do")
				return nil
			}
			return err
		}

		log.Info().
			Str("output", result.OutputPath).
			Int("intervals", len(result.Plan)).
			Float64("cut_seconds", float64(result.CutMs)/1000).
			Msg("processing complete")

		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Config management commands",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration to a file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "./config.yaml"
		if len(args) == 1 {
			path = args[0]
		}

		cfg := config.FromContext(cmd.Context())
		if err := cfg.Save(path); err != nil {
			return err
		}

		log.Info().Str("path", path).Msg("configuration written")
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
}
