package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	cfgpkg "github.com/KaramelBytes/productpulse/internal/config"
	"github.com/KaramelBytes/productpulse/internal/metrics"
	"github.com/KaramelBytes/productpulse/internal/report"
	"github.com/KaramelBytes/productpulse/internal/utils"
)

var (
	funStagesFile string
	funCSVPath    string
	funJSON       bool
)

// stageFile accepts either a bare list of stages or a document with a stages key.
type stageFile struct {
	Stages []metrics.StageInput `yaml:"stages" validate:"min=1,dive"`
}

func loadStages(path string) ([]metrics.StageInput, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stages: %w", err)
	}
	var sf stageFile
	var list []metrics.StageInput
	if err := yaml.Unmarshal(b, &list); err == nil {
		sf.Stages = list
	} else if err := yaml.Unmarshal(b, &sf); err != nil {
		return nil, fmt.Errorf("parse stages %s: %w", path, err)
	}
	if err := cfgpkg.ValidateStruct(sf); err != nil {
		return nil, fmt.Errorf("stages %s: %w", path, err)
	}
	return sf.Stages, nil
}

var funnelCmd = &cobra.Command{
	Use:   "funnel",
	Short: "Compute conversion through a business-defined funnel",
	Long: `Annotates each funnel stage with overall conversion (vs. the first stage),
step conversion and step drop (vs. the previous stage). Stages come from --stages
or funnel_stages in the configuration.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		stages := c.FunnelStages
		if funStagesFile != "" {
			if stages, err = loadStages(funStagesFile); err != nil {
				return err
			}
		}
		if len(stages) == 0 {
			return fmt.Errorf("no funnel stages configured (use --stages or set funnel_stages)")
		}

		res := metrics.ComputeFunnel(stages)
		out := cmd.OutOrStdout()
		if funJSON {
			b, err := utils.PrettyJSON(res)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		}
		fmt.Fprint(out, report.FunnelTable(res))
		if drop, ok := res.LargestDrop(); ok {
			fmt.Fprintf(out, "\nLargest drop: %.1f%% before %s\n", drop.StepDrop*100, drop.Name)
		}

		if funCSVPath != "" {
			var buf bytes.Buffer
			if err := report.WriteFunnelCSV(&buf, res); err != nil {
				return err
			}
			if err := utils.SafeWriteFile(funCSVPath, buf.Bytes()); err != nil {
				return fmt.Errorf("write csv: %w", err)
			}
			fmt.Fprintf(out, "✓ Wrote funnel CSV to %s\n", funCSVPath)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(funnelCmd)
	funnelCmd.Flags().StringVar(&funStagesFile, "stages", "", "YAML file listing stages as {stage, users}")
	funnelCmd.Flags().StringVar(&funCSVPath, "csv", "", "write stage table with percentage columns to this CSV path")
	funnelCmd.Flags().BoolVar(&funJSON, "json", false, "print stages as JSON instead of a table")
}
