package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/productpulse/internal/eventstore"
	"github.com/KaramelBytes/productpulse/internal/metrics"
	"github.com/KaramelBytes/productpulse/internal/utils"
)

// EnvPrefix is prepended to every environment override, e.g. PULSE_LOG_LEVEL.
const EnvPrefix = "PULSE"

// DirName is the per-user configuration directory under $HOME.
const DirName = ".productpulse"

// Global configuration structure.
type Global struct {
	DataDir   string `mapstructure:"data_dir" yaml:"data_dir"`
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`

	// Engine rules
	RetentionDays          []int                `mapstructure:"retention_days" yaml:"retention_days" validate:"min=1,dive,gt=0"`
	RepeatSessionThreshold int                  `mapstructure:"repeat_session_threshold" yaml:"repeat_session_threshold" validate:"gte=1"`
	PositiveTerms          []string             `mapstructure:"positive_terms" yaml:"positive_terms" validate:"dive,required"`
	NegativeTerms          []string             `mapstructure:"negative_terms" yaml:"negative_terms" validate:"dive,required"`
	FunnelStages           []metrics.StageInput `mapstructure:"funnel_stages" yaml:"funnel_stages" validate:"dive"`
	TopFeatures            int                  `mapstructure:"top_features" yaml:"top_features" validate:"gte=1"`
	RollingWindowDays      int                  `mapstructure:"rolling_window_days" yaml:"rolling_window_days" validate:"gte=1"`
	Parallel               bool                 `mapstructure:"parallel" yaml:"parallel"`

	// Input parsing
	TimestampLayout string `mapstructure:"timestamp_layout" yaml:"timestamp_layout" validate:"required"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level" validate:"omitempty,oneof=trace debug info warn warning error disabled off"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format" validate:"omitempty,oneof=console json"`
}

// Dir returns ~/.productpulse.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, DirName), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.productpulse/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	d := metrics.DefaultConfig()
	v.SetDefault("data_dir", "data")
	v.SetDefault("output_dir", "reports")
	v.SetDefault("retention_days", d.RetentionDays)
	v.SetDefault("repeat_session_threshold", d.RepeatThreshold)
	v.SetDefault("positive_terms", d.Lexicon.Positive)
	v.SetDefault("negative_terms", d.Lexicon.Negative)
	stages := make([]map[string]any, len(d.Funnel))
	for i, s := range d.Funnel {
		stages[i] = map[string]any{"stage": s.Name, "users": s.Users}
	}
	v.SetDefault("funnel_stages", stages)
	v.SetDefault("top_features", d.TopFeatures)
	v.SetDefault("rolling_window_days", d.RollingWindow)
	v.SetDefault("parallel", d.Parallel)
	v.SetDefault("timestamp_layout", eventstore.DefaultTimestampLayout)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		// a missing default file is fine; an explicit --config must exist
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	var err error
	if c.DataDir, err = utils.ExpandHome(c.DataDir); err != nil {
		return nil, err
	}
	if c.OutputDir, err = utils.ExpandHome(c.OutputDir); err != nil {
		return nil, err
	}
	return &c, nil
}

// EngineConfig converts the configuration into the explicit rule set the
// metrics engine runs with.
func (c *Global) EngineConfig() metrics.Config {
	return metrics.Config{
		RetentionDays:   append([]int(nil), c.RetentionDays...),
		RepeatThreshold: c.RepeatSessionThreshold,
		Lexicon: metrics.Lexicon{
			Positive: append([]string(nil), c.PositiveTerms...),
			Negative: append([]string(nil), c.NegativeTerms...),
		},
		Funnel:        append([]metrics.StageInput(nil), c.FunnelStages...),
		TopFeatures:   c.TopFeatures,
		RollingWindow: c.RollingWindowDays,
		Parallel:      c.Parallel,
	}
}

// LoaderOptions returns the event store parsing options.
func (c *Global) LoaderOptions() eventstore.Options {
	opt := eventstore.DefaultOptions()
	if c.TimestampLayout != "" {
		opt.TimestampLayout = c.TimestampLayout
	}
	return opt
}
