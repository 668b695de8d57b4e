package config

import (
	"encoding/json"
	"math/rand"
	"os"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
)

type Config struct {
	Input      InputConfig    `json:"input"`
	Generate   GenerateConfig `json:"generate"`
	Strategies []string       `json:"strategies"`
	Rounds     RoundsConfig   `json:"rounds"`
	Output     OutputConfig   `json:"output"`
	Metrics    MetricsConfig  `json:"metrics"`
}

// InputConfig points at the batch to schedule. Empty paths fall back to the
// generator.
type InputConfig struct {
	JobsCSV      string `json:"jobs_csv"`
	ResourcesCSV string `json:"resources_csv"`
	GCSBucket    string `json:"gcs_bucket"` // when set, JobsCSV is an object name in this bucket
}

type GenerateConfig struct {
	Jobs      int     `json:"jobs"`
	Resources int     `json:"resources"`
	MaxLength float64 `json:"max_length"`
	Seed      int64   `json:"seed"`
}

// Rand returns a source seeded with Seed, so generated batches repeat.
func (g GenerateConfig) Rand() *rand.Rand {
	return rand.New(rand.NewSource(g.Seed))
}

// RoundsConfig drives repeated scheduling rounds. An empty Cron runs once.
type RoundsConfig struct {
	Cron         string `json:"cron"` // e.g. "@every 30s"
	ContinueLoad bool   `json:"continue_load"`
}

type OutputConfig struct {
	ReportPath string `json:"report_path"` // "-" for stdout
	ResultsDir string `json:"results_dir"`
}

type MetricsConfig struct {
	Addr string `json:"addr"` // empty disables the server
}

// Default returns a config with sensible defaults
func Default() *Config {
	return &Config{
		Generate: GenerateConfig{
			Jobs:      5,
			Resources: 2,
			MaxLength: 10000,
			Seed:      1,
		},
		Strategies: []string{"lpt"},
		Output: OutputConfig{
			ReportPath: "-",
			ResultsDir: "results",
		},
	}
}

// Load reads path over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open config %s", path)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, errors.Wrapf(err, "decode config %s", path)
	}
	return cfg, cfg.Validate()
}

var knownStrategies = map[string]bool{"lpt": true, "round-robin": true}

func (c *Config) Validate() error {
	if len(c.Strategies) == 0 {
		return errors.New("at least one strategy is required")
	}
	for _, s := range c.Strategies {
		if !knownStrategies[s] {
			return errors.Errorf("unknown strategy %q", s)
		}
	}
	if c.Input.JobsCSV == "" && c.Generate.Jobs < 0 {
		return errors.Errorf("generate.jobs must be >= 0, got %d", c.Generate.Jobs)
	}
	if c.Input.ResourcesCSV == "" && c.Generate.Resources < 1 {
		return errors.Errorf("generate.resources must be >= 1, got %d", c.Generate.Resources)
	}
	if c.Generate.MaxLength <= 0 {
		return errors.Errorf("generate.max_length must be > 0, got %v", c.Generate.MaxLength)
	}
	if c.Input.GCSBucket != "" && c.Input.JobsCSV == "" {
		return errors.New("input.gcs_bucket requires input.jobs_csv as the object name")
	}
	if c.Rounds.Cron != "" {
		if _, err := cron.ParseStandard(c.Rounds.Cron); err != nil {
			return errors.Wrapf(err, "rounds.cron %q", c.Rounds.Cron)
		}
	}
	return nil
}
