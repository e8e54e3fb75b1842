package cmd

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/productpulse/internal/config"
	"github.com/KaramelBytes/productpulse/internal/eventstore"
	"github.com/KaramelBytes/productpulse/internal/logging"
	"github.com/KaramelBytes/productpulse/internal/metrics"
	"github.com/KaramelBytes/productpulse/internal/report"
	"github.com/KaramelBytes/productpulse/internal/utils"
)

var (
	anaOutputPath    string
	anaJSONPath      string
	anaCSVDir        string
	anaStagesFile    string
	anaRetentionDays []int
	anaRepeatMin     int
	anaTopFeatures   int
	anaRollingDays   int
	anaSequential    bool
	anaDelimiter     string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [data-dir]",
	Short: "Compute product metrics from a directory of CSV tables",
	Long: `Reads users.csv, sessions.csv, feature_usage.csv and (optionally) feedback.csv
from the data directory and writes a Markdown metrics summary. The data directory
defaults to data_dir from the configuration.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		dir := c.DataDir
		if len(args) == 1 {
			dir = args[0]
		}

		f := cmd.Flags()
		if f.Changed("retention-days") {
			c.RetentionDays = anaRetentionDays
		}
		if f.Changed("repeat-threshold") {
			c.RepeatSessionThreshold = anaRepeatMin
		}
		if f.Changed("top-features") {
			c.TopFeatures = anaTopFeatures
		}
		if f.Changed("rolling-days") {
			c.RollingWindowDays = anaRollingDays
		}
		if anaSequential {
			c.Parallel = false
		}
		if anaStagesFile != "" {
			stages, err := loadStages(anaStagesFile)
			if err != nil {
				return err
			}
			c.FunnelStages = stages
		}
		if err := c.Validate(); err != nil {
			return err
		}

		opt := c.LoaderOptions()
		if opt.Delimiter, err = parseDelimiter(anaDelimiter); err != nil {
			return err
		}
		res, err := analyzeDir(cmd.Context(), c, dir, opt)
		if err != nil {
			return err
		}

		meta := report.NewMeta(dir)
		md := report.Markdown(res, meta)
		out := cmd.OutOrStdout()
		if anaOutputPath != "" {
			if err := utils.SafeWriteFile(anaOutputPath, []byte(md)); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(out, "✓ Wrote metrics summary to %s\n", anaOutputPath)
		} else {
			fmt.Fprint(out, md)
		}

		if anaJSONPath != "" {
			var buf bytes.Buffer
			if err := report.WriteJSON(&buf, res, meta); err != nil {
				return err
			}
			if err := utils.SafeWriteFile(anaJSONPath, buf.Bytes()); err != nil {
				return fmt.Errorf("write json: %w", err)
			}
			fmt.Fprintf(out, "✓ Wrote JSON results to %s\n", anaJSONPath)
		}
		if anaCSVDir != "" {
			paths, err := report.WriteExtracts(anaCSVDir, res)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintf(out, "✓ Wrote %s\n", p)
			}
		}
		return nil
	},
}

// analyzeDir loads one data directory and runs the engine over it.
func analyzeDir(ctx context.Context, c *cfgpkg.Global, dir string, opt eventstore.Options) (*metrics.Results, error) {
	start := time.Now()
	ds, err := eventstore.LoadDir(dir, opt)
	if err != nil {
		return nil, err
	}
	res, err := metrics.Run(ctx, ds, c.EngineConfig())
	if err != nil {
		return nil, err
	}
	logging.Info().Dur("elapsed", time.Since(start)).Str("data_dir", dir).Msg("analysis complete")
	return res, nil
}

func parseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case ",":
		return ',', nil
	case "\t", "tab":
		return '\t', nil
	case ";":
		return ';', nil
	default:
		return 0, fmt.Errorf("unsupported --delimiter: %s", s)
	}
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "write the Markdown summary to this path instead of stdout")
	analyzeCmd.Flags().StringVar(&anaJSONPath, "json", "", "also write full results as JSON to this path")
	analyzeCmd.Flags().StringVar(&anaCSVDir, "csv-dir", "", "also write CSV extracts (DAU, feature trend, cohorts, sentiment, funnel) into this directory")
	analyzeCmd.Flags().StringVar(&anaStagesFile, "stages", "", "YAML file with funnel stages (overrides config)")
	analyzeCmd.Flags().IntSliceVar(&anaRetentionDays, "retention-days", nil, "retention probe days, e.g. 1,7,30 (overrides config)")
	analyzeCmd.Flags().IntVar(&anaRepeatMin, "repeat-threshold", 0, "sessions needed to count as a repeat user (overrides config)")
	analyzeCmd.Flags().IntVar(&anaTopFeatures, "top-features", 0, "features included in the weekly trend (overrides config)")
	analyzeCmd.Flags().IntVar(&anaRollingDays, "rolling-days", 0, "observed days in the DAU rolling average (overrides config)")
	analyzeCmd.Flags().BoolVar(&anaSequential, "sequential", false, "run analyzers one after another instead of concurrently")
	analyzeCmd.Flags().StringVar(&anaDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab'")
}
