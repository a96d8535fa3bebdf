// Package config loads the typed application configuration via viper,
// layering file values and RIGMATCH_* environment variables over
// defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full application configuration.
type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Scrape         ScrapeConfig         `mapstructure:"scrape"`
	Scheduler      SchedulerConfig      `mapstructure:"scheduler"`
	Recommendation RecommendationConfig `mapstructure:"recommendation"`
	Auth           AuthConfig           `mapstructure:"auth"`
	Profiles       ProfilesConfig       `mapstructure:"profiles"`
	Backup         BackupConfig         `mapstructure:"backup"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig locates the SQLite catalog.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// ScrapeConfig tunes the benchmark scraper.
type ScrapeConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	ComponentLimit    int     `mapstructure:"component_limit"`
}

// SchedulerConfig describes the weekly refresh.
type SchedulerConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Day      string `mapstructure:"day"`
	At       string `mapstructure:"at"`
	Timezone string `mapstructure:"timezone"`
}

// RecommendationConfig tunes the upgrade ranker and power analysis.
type RecommendationConfig struct {
	MinMatchScore      int `mapstructure:"min_match_score"`
	MaxRecommendations int `mapstructure:"max_recommendations"`
	PSUOverheadPercent int `mapstructure:"psu_overhead_percent"`
}

// AuthConfig guards mutating endpoints with JWT bearer tokens.
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// ProfilesConfig points at an optional workload category override file.
type ProfilesConfig struct {
	Path string `mapstructure:"path"`
}

// BackupConfig controls catalog archives.
type BackupConfig struct {
	Dir  string `mapstructure:"dir"`
	Keep int    `mapstructure:"keep"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 9091)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("database.path", "rigmatch.db")

	v.SetDefault("scrape.requests_per_second", 0.5)
	v.SetDefault("scrape.component_limit", 0)

	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.day", "sunday")
	v.SetDefault("scheduler.at", "03:00")
	v.SetDefault("scheduler.timezone", "UTC")

	v.SetDefault("recommendation.min_match_score", 40)
	v.SetDefault("recommendation.max_recommendations", 5)
	v.SetDefault("recommendation.psu_overhead_percent", 30)

	v.SetDefault("auth.token_ttl", "24h")

	v.SetDefault("backup.dir", "backups")
	v.SetDefault("backup.keep", 7)
}

// Load reads configuration from path. An empty path searches the working
// directory and /etc/rigmatch for rigmatch.yaml; a missing file there is
// not an error, defaults and environment apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("RIGMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("rigmatch")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/rigmatch")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Recommendation.MinMatchScore < 0 || c.Recommendation.MinMatchScore > 100 {
		return fmt.Errorf("recommendation.min_match_score %d out of range", c.Recommendation.MinMatchScore)
	}
	if c.Recommendation.MaxRecommendations < 1 {
		return fmt.Errorf("recommendation.max_recommendations must be positive")
	}
	if c.Backup.Keep < 1 {
		return fmt.Errorf("backup.keep must be positive")
	}
	return nil
}
