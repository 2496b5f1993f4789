package config

import (
	"fmt"
	"os"
	"time"

	"github.com/titanous/json5"
)

// fileConfig is the on-disk shape of a finrate config file. Durations are
// Go duration strings ("2s", "750ms"). Omitted fields keep their defaults.
type fileConfig struct {
	Scraper struct {
		BaseURL        string `json:"base_url"`
		SectorPath     string `json:"sector_path"`
		Timeout        string `json:"timeout"`
		MaxBodyBytes   int64  `json:"max_body_bytes"`
		DriftThreshold *int   `json:"drift_threshold"`
	} `json:"scraper"`
	Throttle struct {
		MinInterval string   `json:"min_interval"`
		JitterMin   string   `json:"jitter_min"`
		JitterMax   string   `json:"jitter_max"`
		UserAgents  []string `json:"user_agents"`
		Proxies     []string `json:"proxies"`
	} `json:"throttle"`
	Server struct {
		Host string `json:"host"`
		Port int    `json:"port"`
		Mode string `json:"mode"`
	} `json:"server"`
	Auth struct {
		Enabled *bool    `json:"enabled"`
		APIKeys []string `json:"api_keys"`
	} `json:"auth"`
	RateLimit struct {
		RequestsPerSecond *float64 `json:"requests_per_second"`
		Burst             int      `json:"burst"`
	} `json:"rate_limit"`
	Cache struct {
		MaxEntries int `json:"max_entries"`
	} `json:"cache"`
	Log struct {
		Level  string `json:"level"`
		Format string `json:"format"`
	} `json:"log"`
}

// LoadFile reads a JSON5 config file and layers the environment on top.
// Precedence: defaults < file < environment.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var fc fileConfig
	if err := json5.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg := Defaults()
	if err := fc.apply(cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return applyEnv(cfg), nil
}

func (fc *fileConfig) apply(cfg *Config) error {
	if fc.Scraper.BaseURL != "" {
		cfg.Scraper.BaseURL = fc.Scraper.BaseURL
	}
	if fc.Scraper.SectorPath != "" {
		cfg.Scraper.SectorPath = fc.Scraper.SectorPath
	}
	if fc.Scraper.MaxBodyBytes > 0 {
		cfg.Scraper.MaxBodyBytes = fc.Scraper.MaxBodyBytes
	}
	if fc.Scraper.DriftThreshold != nil {
		cfg.Scraper.DriftThreshold = *fc.Scraper.DriftThreshold
	}
	if len(fc.Throttle.UserAgents) > 0 {
		cfg.Throttle.UserAgents = fc.Throttle.UserAgents
	}
	if len(fc.Throttle.Proxies) > 0 {
		cfg.Throttle.Proxies = fc.Throttle.Proxies
	}
	if fc.Server.Host != "" {
		cfg.Server.Host = fc.Server.Host
	}
	if fc.Server.Port != 0 {
		cfg.Server.Port = fc.Server.Port
	}
	if fc.Server.Mode != "" {
		cfg.Server.Mode = fc.Server.Mode
	}
	if fc.Auth.Enabled != nil {
		cfg.Auth.Enabled = *fc.Auth.Enabled
	}
	if len(fc.Auth.APIKeys) > 0 {
		cfg.Auth.APIKeys = fc.Auth.APIKeys
	}
	if fc.RateLimit.RequestsPerSecond != nil {
		cfg.RateLimit.RequestsPerSecond = *fc.RateLimit.RequestsPerSecond
	}
	if fc.RateLimit.Burst > 0 {
		cfg.RateLimit.Burst = fc.RateLimit.Burst
	}
	if fc.Cache.MaxEntries > 0 {
		cfg.Cache.MaxEntries = fc.Cache.MaxEntries
	}
	if fc.Log.Level != "" {
		cfg.Log.Level = fc.Log.Level
	}
	if fc.Log.Format != "" {
		cfg.Log.Format = fc.Log.Format
	}

	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"scraper.timeout", fc.Scraper.Timeout, &cfg.Scraper.Timeout},
		{"throttle.min_interval", fc.Throttle.MinInterval, &cfg.Throttle.MinInterval},
		{"throttle.jitter_min", fc.Throttle.JitterMin, &cfg.Throttle.JitterMin},
		{"throttle.jitter_max", fc.Throttle.JitterMax, &cfg.Throttle.JitterMax},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dst = parsed
	}
	return nil
}
