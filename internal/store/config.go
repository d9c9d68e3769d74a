package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Symbol  string `yaml:"symbol"`
	DataDir string `yaml:"data_dir"`
	Storage struct {
		PolicyBackend  string `yaml:"policy_backend"`
		LedgerPath     string `yaml:"ledger_path"`
		PolicyPath     string `yaml:"policy_path"`
		MetricsPath    string `yaml:"metrics_path"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"storage"`
	Volatility struct {
		Window int     `yaml:"window"`
		Scale  float64 `yaml:"scale"`
	} `yaml:"volatility"`
	Learning struct {
		MoveScale float64 `yaml:"move_scale"`
		MaxRate   float64 `yaml:"max_rate"`
	} `yaml:"learning"`
	Predictor struct {
		Kind           string  `yaml:"kind"`
		Offset         float64 `yaml:"offset"`
		Spread         float64 `yaml:"spread"`
		Seed           int64   `yaml:"seed"`
		URL            string  `yaml:"url"`
		APIKeyEnv      string  `yaml:"api_key_env"`
		TimeoutSeconds int     `yaml:"timeout_seconds"`
	} `yaml:"predictor"`
	Feed struct {
		Source     string `yaml:"source"`
		CSVPath    string `yaml:"csv_path"`
		MinHistory int    `yaml:"min_history"`
		Kite       struct {
			InstrumentToken int `yaml:"instrument_token"`
			LookbackDays    int `yaml:"lookback_days"`
		} `yaml:"kite"`
	} `yaml:"feed"`
	Simulation struct {
		Days      int       `yaml:"days"`
		Seed      int64     `yaml:"seed"`
		DailyMove float64   `yaml:"daily_move"`
		Initial   []float64 `yaml:"initial"`
	} `yaml:"simulation"`
	Schedule struct {
		Cron string `yaml:"cron"`
	} `yaml:"schedule"`
	Journal struct {
		Dir           string `yaml:"dir"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"journal"`
	Report struct {
		Path string `yaml:"path"`
	} `yaml:"report"`
}

// Default returns a configuration with every field at its default.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Symbol == "" {
		c.Symbol = "ASSET"
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.Storage.PolicyBackend == "" {
		c.Storage.PolicyBackend = "file"
	}
	if c.Storage.LedgerPath == "" {
		c.Storage.LedgerPath = "memory.db"
	}
	if c.Storage.PolicyPath == "" {
		c.Storage.PolicyPath = "policy.json"
	}
	if c.Storage.MetricsPath == "" {
		c.Storage.MetricsPath = "metrics.json"
	}
	if c.Storage.TimeoutSeconds == 0 {
		c.Storage.TimeoutSeconds = 5
	}
	if c.Volatility.Window == 0 {
		c.Volatility.Window = 5
	}
	if c.Volatility.Scale == 0 {
		c.Volatility.Scale = 0.5
	}
	if c.Learning.MoveScale == 0 {
		c.Learning.MoveScale = 10
	}
	if c.Learning.MaxRate == 0 {
		c.Learning.MaxRate = 0.20
	}
	if c.Predictor.Kind == "" {
		c.Predictor.Kind = "RANDOM"
	}
	if c.Predictor.Spread == 0 {
		c.Predictor.Spread = 0.03
	}
	if c.Predictor.APIKeyEnv == "" {
		c.Predictor.APIKeyEnv = "PREDICTOR_API_KEY"
	}
	if c.Predictor.TimeoutSeconds == 0 {
		c.Predictor.TimeoutSeconds = 10
	}
	if c.Feed.Source == "" {
		c.Feed.Source = "CSV"
	}
	if c.Feed.CSVPath == "" {
		c.Feed.CSVPath = "market_data.csv"
	}
	if c.Feed.MinHistory == 0 {
		c.Feed.MinHistory = 5
	}
	if c.Feed.Kite.LookbackDays == 0 {
		c.Feed.Kite.LookbackDays = 120
	}
	if c.Simulation.Days == 0 {
		c.Simulation.Days = 15
	}
	if c.Simulation.DailyMove == 0 {
		c.Simulation.DailyMove = 0.02
	}
	if len(c.Simulation.Initial) == 0 {
		c.Simulation.Initial = []float64{100.0, 100.5, 101.0}
	}
	if c.Schedule.Cron == "" {
		c.Schedule.Cron = "30 18 * * 1-5"
	}
	if c.Journal.Dir == "" {
		c.Journal.Dir = "logs"
	}
	if c.Report.Path == "" {
		c.Report.Path = "reports/ledger.csv"
	}
}

func (c *Config) Validate() error {
	if c.Storage.PolicyBackend != "file" && c.Storage.PolicyBackend != "sqlite" {
		return fmt.Errorf("invalid storage.policy_backend '%s': must be 'file' or 'sqlite'", c.Storage.PolicyBackend)
	}
	if c.Storage.TimeoutSeconds < 0 {
		return fmt.Errorf("storage.timeout_seconds must be positive, got %d", c.Storage.TimeoutSeconds)
	}
	if c.Volatility.Window < 2 {
		return fmt.Errorf("volatility.window must be at least 2, got %d", c.Volatility.Window)
	}
	if c.Volatility.Scale < 0 {
		return fmt.Errorf("volatility.scale must not be negative, got %.4f", c.Volatility.Scale)
	}
	if c.Learning.MoveScale < 0 {
		return fmt.Errorf("learning.move_scale must not be negative, got %.4f", c.Learning.MoveScale)
	}
	if c.Learning.MaxRate <= 0 || c.Learning.MaxRate >= 1 {
		return fmt.Errorf("learning.max_rate must be between 0-1, got %.4f", c.Learning.MaxRate)
	}
	switch c.Predictor.Kind {
	case "FIXED", "RANDOM":
	case "REMOTE":
		if c.Predictor.URL == "" {
			return fmt.Errorf("predictor.url is required for REMOTE predictor")
		}
	default:
		return fmt.Errorf("predictor.kind must be 'FIXED', 'RANDOM', or 'REMOTE', got '%s'", c.Predictor.Kind)
	}
	if c.Predictor.Offset <= -1 {
		return fmt.Errorf("predictor.offset must be greater than -1, got %.4f", c.Predictor.Offset)
	}
	if c.Predictor.Spread < 0 || c.Predictor.Spread >= 1 {
		return fmt.Errorf("predictor.spread must be between 0-1, got %.4f", c.Predictor.Spread)
	}
	switch c.Feed.Source {
	case "CSV", "SYNTHETIC":
	case "KITE":
		if c.Feed.Kite.InstrumentToken == 0 {
			return fmt.Errorf("feed.kite.instrument_token is required for KITE feed")
		}
	default:
		return fmt.Errorf("feed.source must be 'CSV', 'KITE', or 'SYNTHETIC', got '%s'", c.Feed.Source)
	}
	if c.Feed.MinHistory < 1 {
		return fmt.Errorf("feed.min_history must be at least 1, got %d", c.Feed.MinHistory)
	}
	if c.Simulation.Days < 1 {
		return fmt.Errorf("simulation.days must be at least 1, got %d", c.Simulation.Days)
	}
	if _, err := cron.ParseStandard(c.Schedule.Cron); err != nil {
		return fmt.Errorf("invalid schedule.cron '%s': %w", c.Schedule.Cron, err)
	}
	for _, p := range c.Simulation.Initial {
		if p <= 0 {
			return fmt.Errorf("simulation.initial prices must be positive, got %.4f", p)
		}
	}
	return nil
}

// StorageTimeout bounds every storage call made by the engine.
func (c *Config) StorageTimeout() time.Duration {
	return time.Duration(c.Storage.TimeoutSeconds) * time.Second
}

func (c *Config) PredictorTimeout() time.Duration {
	return time.Duration(c.Predictor.TimeoutSeconds) * time.Second
}

// Resolve joins a storage-relative path with DataDir. Absolute paths are kept.
func (c *Config) Resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.DataDir, path)
}

// LoadConfig reads the YAML file at path. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	var c Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	case os.IsNotExist(err):
	default:
		return nil, err
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &c, nil
}
