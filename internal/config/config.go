package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. COVIDSTAT_REGION_FILTER.
const EnvPrefix = "COVIDSTAT"

// Global configuration structure.
type Global struct {
	// RegionFilter restricts reports to one region; empty means all regions.
	RegionFilter           string   `mapstructure:"region_filter" yaml:"region_filter"`
	UpperPositiveThreshold int      `mapstructure:"upper_positive_threshold" yaml:"upper_positive_threshold" validate:"min=0"`
	LowerPositiveThreshold int      `mapstructure:"lower_positive_threshold" yaml:"lower_positive_threshold" validate:"min=0"`
	HistogramBinWidth      int      `mapstructure:"histogram_bin_width" yaml:"histogram_bin_width" validate:"min=1"`
	DateLayouts            []string `mapstructure:"date_layouts" yaml:"date_layouts" validate:"min=1,dive,required"`

	OutputFormat  string `mapstructure:"output_format" yaml:"output_format" validate:"oneof=text json yaml"`
	ReportWorkers int    `mapstructure:"report_workers" yaml:"report_workers" validate:"min=1,max=64"`
	LogLevel      string `mapstructure:"log_level" yaml:"log_level" validate:"oneof=debug info warn error"`
}

// Keys lists the settable configuration keys in display order.
var Keys = []string{
	"region_filter",
	"upper_positive_threshold",
	"lower_positive_threshold",
	"histogram_bin_width",
	"date_layouts",
	"output_format",
	"report_workers",
	"log_level",
}

var validate = validator.New()

// Validate checks every field against its constraints.
func (c *Global) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, formatFieldError(fe))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func formatFieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "required":
		return fmt.Sprintf("%s is required", field)
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

// DefaultPath is ~/.covidstat/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".covidstat", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.covidstat/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. A .env file in the working
// directory, when present, is loaded into the environment first.
func Load(cfgFile string) (*Global, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault("region_filter", "GA")
	v.SetDefault("upper_positive_threshold", 2500)
	v.SetDefault("lower_positive_threshold", 1000)
	v.SetDefault("histogram_bin_width", 500)
	v.SetDefault("date_layouts", []string{"2006-01-02", "20060102", "1/2/2006"})
	v.SetDefault("output_format", "text")
	v.SetDefault("report_workers", 4)
	v.SetDefault("log_level", "warn")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		// a missing explicit file is fine: `config set` creates it
		if _, err := os.Stat(cfgFile); err == nil {
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
			}
		}
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, ".covidstat"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	c.RegionFilter = strings.TrimSpace(c.RegionFilter)
	c.OutputFormat = strings.ToLower(strings.TrimSpace(c.OutputFormat))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
