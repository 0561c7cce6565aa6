// Package config loads the generation parameters and runtime settings for datagen.
//
// Values come from built-in defaults, an optional YAML file and DATAGEN_* environment
// variables, in increasing order of precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DateTimeLayout is the layout used for timestamp bounds in configuration files.
const DateTimeLayout = "2006-01-02T15:04:05"

// TimestampLayout reproduces the %Y-%m-%dT%I:%M:%p pattern of the fixtures consumed downstream.
// The hour is on a 12-hour clock and the AM/PM marker follows a colon.
const TimestampLayout = "2006-01-02T03:04:PM"

// Alphanumeric is the default alphabet for generated strings.
const Alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// --- Configuration Structs ---

type IntRange struct {
	Min int `mapstructure:"min" yaml:"min"`
	Max int `mapstructure:"max" yaml:"max"`
}

type FloatRange struct {
	Min float64 `mapstructure:"min" yaml:"min"`
	Max float64 `mapstructure:"max" yaml:"max"`
}

type TimestampConfig struct {
	Start  string `mapstructure:"start" yaml:"start"`
	End    string `mapstructure:"end" yaml:"end"`
	Layout string `mapstructure:"layout" yaml:"layout"`
}

type GenerationConfig struct {
	Alphabet     string          `mapstructure:"alphabet" yaml:"alphabet"`
	StringLength IntRange        `mapstructure:"string_length" yaml:"string_length"`
	ArrayLength  IntRange        `mapstructure:"array_length" yaml:"array_length"`
	Float        FloatRange      `mapstructure:"float" yaml:"float"`
	Timestamp    TimestampConfig `mapstructure:"timestamp" yaml:"timestamp"`
	Seed         uint64          `mapstructure:"seed" yaml:"seed"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

type Config struct {
	Generation GenerationConfig `mapstructure:"generation" yaml:"generation"`
	Log        LogConfig        `mapstructure:"log" yaml:"log"`
}

// Params is the resolved, immutable set of generation parameters handed to the generator.
type Params struct {
	Alphabet       string
	StringLength   IntRange
	ArrayLength    IntRange
	Float          FloatRange
	TimestampStart time.Time
	TimestampEnd   time.Time
	TimestampFmt   string
	Seed           uint64
}

// --- Load Configuration ---

func setDefaults(v *viper.Viper) {
	v.SetDefault("generation.alphabet", Alphanumeric)
	v.SetDefault("generation.string_length.min", 50)
	v.SetDefault("generation.string_length.max", 100)
	v.SetDefault("generation.array_length.min", 5)
	v.SetDefault("generation.array_length.max", 15)
	v.SetDefault("generation.float.min", -1000.0)
	v.SetDefault("generation.float.max", 1000.0)
	v.SetDefault("generation.timestamp.start", "2024-01-01T00:00:00")
	v.SetDefault("generation.timestamp.end", "2024-07-01T00:00:00")
	v.SetDefault("generation.timestamp.layout", TimestampLayout)
	v.SetDefault("generation.seed", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
}

// LoadConfig reads configPath (may be empty) on top of the defaults and the environment.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("DATAGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	return &cfg, nil
}

// Default returns the built-in configuration without consulting files or the environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	// Defaults always decode.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// DefaultParams returns the resolved built-in generation parameters.
func DefaultParams() Params {
	p, err := Default().Generation.Params()
	if err != nil {
		panic(fmt.Sprintf("config: invalid built-in defaults: %v", err))
	}
	return p
}

// Params validates the generation section and resolves it into Params.
func (gc *GenerationConfig) Params() (Params, error) {
	if err := gc.Validate(); err != nil {
		return Params{}, err
	}

	// Validate already proved both bounds parse.
	start, _ := time.Parse(DateTimeLayout, gc.Timestamp.Start)
	end, _ := time.Parse(DateTimeLayout, gc.Timestamp.End)

	return Params{
		Alphabet:       gc.Alphabet,
		StringLength:   gc.StringLength,
		ArrayLength:    gc.ArrayLength,
		Float:          gc.Float,
		TimestampStart: start,
		TimestampEnd:   end,
		TimestampFmt:   gc.Timestamp.Layout,
		Seed:           gc.Seed,
	}, nil
}

// --- Validation Functions ---

// validate is a helper function to reduce repetition.
func validate(condition bool, format string, a ...any) error {
	if !condition {
		return fmt.Errorf(format, a...)
	}
	return nil
}

func (c *Config) Validate() error {
	if err := c.Generation.Validate(); err != nil {
		return fmt.Errorf("generation validation failed: %w", err)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log validation failed: %w", err)
	}
	return nil
}

func (gc *GenerationConfig) Validate() error {
	if err := validate(gc.Alphabet != "", "alphabet must not be empty"); err != nil {
		return err
	}
	if err := gc.StringLength.Validate(); err != nil {
		return fmt.Errorf("string_length: %w", err)
	}
	if err := gc.ArrayLength.Validate(); err != nil {
		return fmt.Errorf("array_length: %w", err)
	}
	if err := gc.Float.Validate(); err != nil {
		return fmt.Errorf("float: %w", err)
	}
	if err := gc.Timestamp.Validate(); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	return nil
}

func (r *IntRange) Validate() error {
	if err := validate(r.Min >= 0, "min must not be negative, got %d", r.Min); err != nil {
		return err
	}
	return validate(r.Min <= r.Max, "min %d is greater than max %d", r.Min, r.Max)
}

func (r *FloatRange) Validate() error {
	return validate(r.Min <= r.Max, "min %g is greater than max %g", r.Min, r.Max)
}

func (tc *TimestampConfig) Validate() error {
	start, err := time.Parse(DateTimeLayout, tc.Start)
	if err != nil {
		return fmt.Errorf("start %q: %w", tc.Start, err)
	}
	end, err := time.Parse(DateTimeLayout, tc.End)
	if err != nil {
		return fmt.Errorf("end %q: %w", tc.End, err)
	}
	if err := validate(start.Before(end), "start %s must be before end %s", tc.Start, tc.End); err != nil {
		return err
	}
	return validate(tc.Layout != "", "layout is required")
}

func (lc *LogConfig) Validate() error {
	switch strings.ToLower(lc.Level) {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("unknown log level %q", lc.Level)
	}
}
