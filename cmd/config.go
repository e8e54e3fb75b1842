package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	cfgpkg "github.com/KaramelBytes/productpulse/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set ProductPulse configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		b, err := yaml.Marshal(c)
		if err != nil {
			return fmt.Errorf("marshal yaml: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), string(b))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Long: `Set a config value and save to disk. List keys (retention_days, positive_terms,
negative_terms) take comma-separated values. Funnel stages are edited in the YAML file.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		c, err := currentConfig()
		if err != nil {
			return err
		}
		if err := applySetting(c, key, val); err != nil {
			return err
		}
		if err := c.Validate(); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func applySetting(c *cfgpkg.Global, key, val string) error {
	atoi := func() (int, error) {
		i, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0, fmt.Errorf("invalid int for %s: %v", key, val)
		}
		return i, nil
	}
	var err error
	switch key {
	case "data_dir":
		c.DataDir = val
	case "output_dir":
		c.OutputDir = val
	case "retention_days":
		var days []int
		for _, part := range splitList(val) {
			d, convErr := strconv.Atoi(part)
			if convErr != nil {
				return fmt.Errorf("invalid day in retention_days: %q", part)
			}
			days = append(days, d)
		}
		c.RetentionDays = days
	case "repeat_session_threshold":
		c.RepeatSessionThreshold, err = atoi()
	case "positive_terms":
		c.PositiveTerms = splitList(val)
	case "negative_terms":
		c.NegativeTerms = splitList(val)
	case "top_features":
		c.TopFeatures, err = atoi()
	case "rolling_window_days":
		c.RollingWindowDays, err = atoi()
	case "parallel":
		b, perr := strconv.ParseBool(val)
		if perr != nil {
			return fmt.Errorf("invalid bool for parallel: %v", val)
		}
		c.Parallel = b
	case "timestamp_layout":
		c.TimestampLayout = val
	case "log_level":
		c.LogLevel = strings.ToLower(val)
	case "log_format":
		c.LogFormat = strings.ToLower(val)
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return err
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
