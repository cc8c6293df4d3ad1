package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"stratlab/internal/logger"
)

// Config is the application configuration. It is constructed once at
// process start and passed into the evaluation engine; pipeline stages
// never read ambient global state.
type Config struct {
	App     AppConfig     `yaml:"app"`
	Data    DataConfig    `yaml:"data"`
	Labeler LabelerConfig `yaml:"labeler"`
	Split   SplitConfig   `yaml:"split"`
	Model   ModelConfig   `yaml:"model"`
	Sim     SimConfig     `yaml:"sim"`
	Diag    DiagConfig    `yaml:"diag"`
	Logging logger.Config `yaml:"logging"`
}

// AppConfig represents application identity configuration
type AppConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Env     string `yaml:"env"`
}

// DataConfig represents history validation configuration
type DataConfig struct {
	// MaxGapIntervals is the largest tolerated hole between consecutive
	// bars, expressed as a multiple of the timeframe. Anything wider is a
	// validation failure, never silently interpolated.
	MaxGapIntervals int `yaml:"max_gap_intervals"`
	// MinBars is the minimum history length accepted for an evaluation.
	MinBars int `yaml:"min_bars"`
}

// LabelerConfig represents triple-barrier labeling configuration
type LabelerConfig struct {
	// MinSamples is the minimum count of labeled samples required before
	// anything is passed downstream.
	MinSamples int `yaml:"min_samples"`
}

// SplitConfig represents walk-forward split configuration
type SplitConfig struct {
	TrainFraction  float64 `yaml:"train_fraction"`
	MinSegmentSize int     `yaml:"min_segment_size"`
}

// ModelConfig represents trainer configuration
type ModelConfig struct {
	Seed         int64   `yaml:"seed"`
	NumTrees     int     `yaml:"num_trees"`
	MaxDepth     int     `yaml:"max_depth"`
	LearningRate float64 `yaml:"learning_rate"`
	Subsample    float64 `yaml:"subsample"`
	MinLeaf      int     `yaml:"min_leaf"`
}

// SimConfig represents simulator configuration
type SimConfig struct {
	InitialEquity    float64 `yaml:"initial_equity"`
	PositionFraction float64 `yaml:"position_fraction"`
	// LongThreshold / FlatThreshold convert model scores into signals:
	// score above LongThreshold opens long, score below FlatThreshold
	// closes it. Symmetric short entry uses -LongThreshold when
	// AllowShort is set.
	LongThreshold float64 `yaml:"long_threshold"`
	FlatThreshold float64 `yaml:"flat_threshold"`
	AllowShort    bool    `yaml:"allow_short"`
}

// DiagConfig represents diagnostics configuration
type DiagConfig struct {
	// Epsilon stabilizes the overfitting-score denominator.
	Epsilon float64 `yaml:"epsilon"`
	// BarsPerYear annualizes the Sharpe ratio for the evaluated timeframe.
	BarsPerYear float64 `yaml:"bars_per_year"`
}

// Default returns the configuration used when no file is supplied
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:    "stratlab",
			Version: "0.1.0",
			Env:     "development",
		},
		Data: DataConfig{
			MaxGapIntervals: 3,
			MinBars:         100,
		},
		Labeler: LabelerConfig{
			MinSamples: 30,
		},
		Split: SplitConfig{
			TrainFraction:  0.7,
			MinSegmentSize: 20,
		},
		Model: ModelConfig{
			Seed:         42,
			NumTrees:     200,
			MaxDepth:     3,
			LearningRate: 0.05,
			Subsample:    0.8,
			MinLeaf:      5,
		},
		Sim: SimConfig{
			InitialEquity:    10000,
			PositionFraction: 1.0,
			LongThreshold:    0.3,
			FlatThreshold:    -0.3,
			AllowShort:       false,
		},
		Diag: DiagConfig{
			Epsilon:     1e-9,
			BarsPerYear: 8760, // hourly bars
		},
		Logging: logger.DefaultConfig,
	}
}

// Load loads configuration from a YAML file, expanding ${ENV_VAR}
// references, on top of the defaults
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := os.Expand(string(data), func(key string) string {
		return os.Getenv(key)
	})

	config := Default()
	if err := yaml.Unmarshal([]byte(expanded), config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the configuration for values the pipeline cannot run with
func (c *Config) Validate() error {
	if c.Data.MaxGapIntervals < 1 {
		return fmt.Errorf("data.max_gap_intervals must be >= 1, got %d", c.Data.MaxGapIntervals)
	}
	if c.Labeler.MinSamples < 1 {
		return fmt.Errorf("labeler.min_samples must be >= 1, got %d", c.Labeler.MinSamples)
	}
	if c.Split.TrainFraction <= 0 || c.Split.TrainFraction >= 1 {
		return fmt.Errorf("split.train_fraction must be in (0,1), got %v", c.Split.TrainFraction)
	}
	if c.Split.MinSegmentSize < 1 {
		return fmt.Errorf("split.min_segment_size must be >= 1, got %d", c.Split.MinSegmentSize)
	}
	if c.Model.NumTrees < 1 {
		return fmt.Errorf("model.num_trees must be >= 1, got %d", c.Model.NumTrees)
	}
	if c.Model.MaxDepth < 1 {
		return fmt.Errorf("model.max_depth must be >= 1, got %d", c.Model.MaxDepth)
	}
	if c.Model.LearningRate <= 0 || c.Model.LearningRate > 1 {
		return fmt.Errorf("model.learning_rate must be in (0,1], got %v", c.Model.LearningRate)
	}
	if c.Model.Subsample <= 0 || c.Model.Subsample > 1 {
		return fmt.Errorf("model.subsample must be in (0,1], got %v", c.Model.Subsample)
	}
	if c.Sim.InitialEquity <= 0 {
		return fmt.Errorf("sim.initial_equity must be positive, got %v", c.Sim.InitialEquity)
	}
	if c.Sim.PositionFraction <= 0 || c.Sim.PositionFraction > 1 {
		return fmt.Errorf("sim.position_fraction must be in (0,1], got %v", c.Sim.PositionFraction)
	}
	if c.Diag.BarsPerYear <= 0 {
		return fmt.Errorf("diag.bars_per_year must be positive, got %v", c.Diag.BarsPerYear)
	}
	return nil
}
