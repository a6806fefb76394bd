// Package config loads the immutable pipeline configuration from YAML.
// Components never read ambient state; everything they need is passed in at
// construction from the value loaded here.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"item-price-lab/internal/domain"
	"item-price-lab/internal/logging"
	"item-price-lab/internal/outlier"
	"item-price-lab/internal/resolve"
)

// ItemConfig names one tracked item.
type ItemConfig struct {
	Key  string `yaml:"key"`
	Name string `yaml:"name"`
}

// SourceConfig configures the market API client and acquisition loop.
type SourceConfig struct {
	BaseURL           string  `yaml:"baseURL"`
	WSEndpoint        string  `yaml:"wsEndpoint"` // live feed, optional
	PageSize          int     `yaml:"pageSize"`
	PageCap           int     `yaml:"pageCap"`
	RequestsPerSecond float64 `yaml:"requestsPerSecond"` // 0 disables the ceiling
	TimeoutMs         int     `yaml:"timeoutMs"`
	DelayMinMs        int     `yaml:"delayMinMs"` // politeness delay between pages
	DelayMaxMs        int     `yaml:"delayMaxMs"`
	UserAgent         string  `yaml:"userAgent"`
}

// OutlierConfig configures the per-window outlier filter.
type OutlierConfig struct {
	ZThreshold float64 `yaml:"zThreshold"`
	MinSamples int     `yaml:"minSamples"`
}

// ResolverConfig configures the unit-price interpretation heuristic.
type ResolverConfig struct {
	LargePriceCeiling float64 `yaml:"largePriceCeiling"`
}

// OutputConfig names the report destinations.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// StorageConfig carries optional persistence DSNs. Empty means the
// corresponding store is not used.
type StorageConfig struct {
	PostgresDSN   string `yaml:"postgresDSN"`
	ClickHouseDSN string `yaml:"clickhouseDSN"`
}

// Config is the full pipeline configuration.
type Config struct {
	Region            string         `yaml:"region"`
	Items             []ItemConfig   `yaml:"items"`
	WindowsDays       []int          `yaml:"windowsDays"`
	Source            SourceConfig   `yaml:"source"`
	Outlier           OutlierConfig  `yaml:"outlier"`
	Resolver          ResolverConfig `yaml:"resolver"`
	Output            OutputConfig   `yaml:"output"`
	Storage           StorageConfig  `yaml:"storage"`
	Logging           logging.Config `yaml:"logging"`
	Concurrency       int            `yaml:"concurrency"`
	FailureCooldownMs int            `yaml:"failureCooldownMs"`
	MetricsAddr       string         `yaml:"metricsAddr"` // empty disables the listener
}

// Environment overrides for credentials-bearing fields.
const (
	envPostgresDSN   = "PRICELAB_POSTGRES_DSN"
	envClickHouseDSN = "PRICELAB_CLICKHOUSE_DSN"
)

// Load reads YAML config from path, applies env overrides and defaults,
// and validates the result.
func Load(path string) (Config, error) {
	var cfg Config
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}

	if v := os.Getenv(envPostgresDSN); v != "" {
		cfg.Storage.PostgresDSN = v
	}
	if v := os.Getenv(envClickHouseDSN); v != "" {
		cfg.Storage.ClickHouseDSN = v
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if len(c.WindowsDays) == 0 {
		c.WindowsDays = []int{1, 7}
	}
	if c.Source.PageSize == 0 {
		c.Source.PageSize = 100
	}
	if c.Source.PageCap == 0 {
		c.Source.PageCap = 50
	}
	if c.Source.DelayMaxMs < c.Source.DelayMinMs {
		c.Source.DelayMaxMs = c.Source.DelayMinMs
	}
	if c.Outlier.ZThreshold == 0 {
		c.Outlier.ZThreshold = outlier.DefaultZThreshold
	}
	if c.Outlier.MinSamples == 0 {
		c.Outlier.MinSamples = outlier.DefaultMinSamples
	}
	if c.Resolver.LargePriceCeiling == 0 {
		c.Resolver.LargePriceCeiling = resolve.DefaultLargePriceCeiling
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "out"
	}
	if c.Concurrency == 0 {
		c.Concurrency = 1
	}
	if c.FailureCooldownMs == 0 {
		c.FailureCooldownMs = 2000
	}
	if c.Logging.Level == "" {
		c.Logging = logging.DefaultConfig()
	}
}

// Validate ensures required fields are present and sane.
func (c *Config) Validate() error {
	if c.Region == "" {
		return errors.New("region is required")
	}
	if c.Source.BaseURL == "" {
		return errors.New("source.baseURL is required")
	}
	if len(c.Items) == 0 {
		return errors.New("at least one item is required")
	}
	for i, item := range c.Items {
		if item.Key == "" {
			return fmt.Errorf("items[%d].key is required", i)
		}
	}
	for _, days := range c.WindowsDays {
		if days < 1 {
			return fmt.Errorf("window length %d is invalid", days)
		}
	}
	if c.Outlier.ZThreshold < 0 {
		return errors.New("outlier.zThreshold must not be negative")
	}
	if c.Concurrency < 1 {
		return errors.New("concurrency must be at least 1")
	}
	return nil
}

// DomainItems converts the configured items to domain values.
func (c *Config) DomainItems() []domain.Item {
	items := make([]domain.Item, len(c.Items))
	for i, it := range c.Items {
		items[i] = domain.Item{Key: it.Key, Name: it.Name}
	}
	return items
}

// SortedWindows returns the window lengths in descending order, widest
// first. The widest window drives the acquisition cutoff.
func (c *Config) SortedWindows() []int {
	out := make([]int, len(c.WindowsDays))
	copy(out, c.WindowsDays)
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}
