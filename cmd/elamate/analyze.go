package main

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/maxedonia/ela-mate-web/internal/analyzer"
	"github.com/maxedonia/ela-mate-web/internal/logger"
	"github.com/maxedonia/ela-mate-web/internal/repository"
	"github.com/maxedonia/ela-mate-web/internal/service"
	"github.com/maxedonia/ela-mate-web/pkg/models"
)

var analyzeFlags struct {
	Mode        string
	Quality     int
	QualityHigh int
	QualityLow  int
	Scale       float64
	Intensity   float64
	Denoise     float64
	Heatmap     bool
	Sensitivity float64
	Opacity     float64
	Split       float64
	OutDir      string
	Workers     int
}

type analyzeOutcome struct {
	source  string
	output  string
	label   string
	quality *int
	summary models.Summary
	err     error
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [files or URLs...]",
	Short: "Render an ELA, delta ELA or noise map for each image",
	Long: `Runs the selected analysis on every input and writes <name>_<mode>.png to the output directory.
Inputs are processed concurrently; unset parameters take the preset for the mode.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		workers := analyzeFlags.Workers
		if workers <= 0 {
			workers = runtime.NumCPU()
		}

		// analyses run on their own pool so a timed-out image keeps its worker
		// busy until it really finishes
		analysisPool := analyzer.NewWorkerPool(workers)
		defer func() {
			analysisPool.Close()
			analysisPool.Wait()
		}()

		svc, err := newService(service.WithWorkerPool(analysisPool))
		if err != nil {
			return err
		}

		params := service.BuildParameters(paramsFromFlags(cmd.Flags()), service.Defaults{})
		if err := params.Validate(); err != nil {
			return err
		}
		if err := os.MkdirAll(analyzeFlags.OutDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}

		pool := analyzer.NewWorkerPool(workers)
		defer pool.Close()

		bar := progressbar.NewOptions(
			len(args),
			progressbar.OptionSetDescription(" Analyzing"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionShowCount(),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprint(os.Stderr, "\n")
			}),
			progressbar.OptionFullWidth(),
			progressbar.OptionSetRenderBlankState(true),
		)

		ctx := cmd.Context()
		outcomes := make([]analyzeOutcome, len(args))
		for i, arg := range args {
			i, arg := i, arg
			pool.Submit(func() {
				defer bar.Add(1)

				out := analyzeOutcome{source: arg}
				resp, err := svc.Analyze(ctx, repository.Source{Location: arg}, params)
				if err != nil {
					out.err = err
					outcomes[i] = out
					return
				}

				out.output = outputPath(analyzeFlags.OutDir, arg, resp.Mode)
				out.label, out.quality, out.summary = resp.Label, resp.EstimatedQuality, resp.Summary
				if err := os.WriteFile(out.output, resp.PNG, 0o644); err != nil {
					out.err = fmt.Errorf("failed to write %s: %w", out.output, err)
				}
				outcomes[i] = out
			})
		}
		pool.Wait()
		_ = bar.Finish()

		stats := pool.GetStats()
		logger.WithField("completed", stats.CompletedJobs).Debug("Batch finished")

		failed := 0
		for _, out := range outcomes {
			if out.err != nil {
				failed++
				fmt.Printf("%s %s: %v\n", errorColor("FAIL"), out.source, out.err)
				continue
			}
			fmt.Printf("%s %s -> %s\n", successColor("OK"), out.source, out.output)
			fmt.Printf("   %s  quality %s  mean %.2f  p95 %.2f  hot %.2f%%\n",
				infoColor(out.label), formatQuality(out.quality),
				out.summary.Mean, out.summary.P95, out.summary.HotFraction*100)
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d images failed", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	f := analyzeCmd.Flags()
	f.StringVarP(&analyzeFlags.Mode, "mode", "m", "ela", "Analysis mode (ela, delta, noise)")
	f.IntVarP(&analyzeFlags.Quality, "quality", "q", 90, "JPEG quality for standard ELA recompression")
	f.IntVar(&analyzeFlags.QualityHigh, "quality-high", 95, "Higher recompression quality for delta ELA")
	f.IntVar(&analyzeFlags.QualityLow, "quality-low", 75, "Lower recompression quality for delta ELA")
	f.Float64VarP(&analyzeFlags.Scale, "scale", "s", 15, "Difference amplification")
	f.Float64Var(&analyzeFlags.Intensity, "intensity", 10, "Noise map amplification")
	f.Float64Var(&analyzeFlags.Denoise, "denoise", 0, "Smoothing strength applied to the analysis map (0 disables)")
	f.BoolVar(&analyzeFlags.Heatmap, "heatmap", false, "Overlay a heatmap of suspicious regions on the original")
	f.Float64Var(&analyzeFlags.Sensitivity, "sensitivity", 50, "Heatmap sensitivity (1-100)")
	f.Float64Var(&analyzeFlags.Opacity, "opacity", 1, "Blend of analysis over original (0-1)")
	f.Float64Var(&analyzeFlags.Split, "split", 100, "Percent of width showing the analysis; the rest shows the original")
	f.StringVarP(&analyzeFlags.OutDir, "out-dir", "o", ".", "Directory for rendered PNGs")
	f.IntVarP(&analyzeFlags.Workers, "workers", "w", 0, "Concurrent analyses (0 uses all CPUs)")
}

// paramsFromFlags sets only the flags the user passed, so untouched
// parameters keep the preset for the chosen mode
func paramsFromFlags(flags *pflag.FlagSet) models.AnalysisParams {
	p := models.AnalysisParams{
		Mode:    strings.ToLower(analyzeFlags.Mode),
		Heatmap: analyzeFlags.Heatmap,
	}
	intFlag := func(name string, v int) *int {
		if !flags.Changed(name) {
			return nil
		}
		return &v
	}
	floatFlag := func(name string, v float64) *float64 {
		if !flags.Changed(name) {
			return nil
		}
		return &v
	}

	p.Quality = intFlag("quality", analyzeFlags.Quality)
	p.QualityHigh = intFlag("quality-high", analyzeFlags.QualityHigh)
	p.QualityLow = intFlag("quality-low", analyzeFlags.QualityLow)
	p.Scale = floatFlag("scale", analyzeFlags.Scale)
	p.Intensity = floatFlag("intensity", analyzeFlags.Intensity)
	p.Denoise = floatFlag("denoise", analyzeFlags.Denoise)
	p.Sensitivity = floatFlag("sensitivity", analyzeFlags.Sensitivity)
	p.Opacity = floatFlag("opacity", analyzeFlags.Opacity)
	p.Split = floatFlag("split", analyzeFlags.Split)
	return p
}

// outputPath names the rendered file <name>_<mode>.png inside dir
func outputPath(dir, source, mode string) string {
	name := source
	if i := strings.Index(name, "://"); i >= 0 {
		name = name[i+3:]
		if j := strings.IndexAny(name, "?#"); j >= 0 {
			name = name[:j]
		}
		if j := strings.Index(name, "/"); j >= 0 {
			name = path.Base(name[j:])
		} else {
			name = ""
		}
	} else {
		name = filepath.Base(name)
	}
	name = strings.TrimSuffix(name, filepath.Ext(name))
	if name == "" || name == "." || name == "/" {
		name = "image"
	}
	return filepath.Join(dir, name+"_"+mode+".png")
}

func formatQuality(q *int) string {
	if q == nil {
		return warningColor("unknown")
	}
	return fmt.Sprintf("~%d", *q)
}
