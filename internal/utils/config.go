package utils

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"img2ascii/internal/asciiart"
)

// PostgresConfig describes the optional API token database.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// Config mirrors config.yaml.
type Config struct {
	Server struct {
		Host      string `yaml:"host"`
		Port      string `yaml:"port"`
		Prefork   bool   `yaml:"prefork"`
		StaticDir string `yaml:"static_dir"`
	} `yaml:"server"`

	Limits struct {
		MaxUploadBytes int `yaml:"max_upload_bytes"`
		MaxColumns     int `yaml:"max_columns"`
		MaxRows        int `yaml:"max_rows"`
		MaxPixels      int `yaml:"max_pixels"`
	} `yaml:"limits"`

	Convert struct {
		DefaultColumns  int     `yaml:"default_columns"`
		DefaultContrast float64 `yaml:"default_contrast"`
		WebMonochrome   bool    `yaml:"web_monochrome"`
		Palette         string  `yaml:"palette"`
		WidthRatio      float64 `yaml:"width_ratio"`
	} `yaml:"convert"`

	Viewer struct {
		Columns    int  `yaml:"columns"`
		Monochrome bool `yaml:"monochrome"`
	} `yaml:"viewer"`

	Logger struct {
		File       string `yaml:"file"`
		Level      string `yaml:"level"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
		Compress   bool   `yaml:"compress"`
	} `yaml:"logger"`

	Cache struct {
		Enabled     bool          `yaml:"enabled"`
		TTL         time.Duration `yaml:"ttl"`
		RedisHost   string        `yaml:"redis_host"`
		CacheDB     int           `yaml:"redis_cache_db"`
		RateLimitDB int           `yaml:"redis_rate_db"`
	} `yaml:"cache"`

	RateLimiter struct {
		Interval          time.Duration `yaml:"interval"`
		UserLimit         int           `yaml:"user_limit"`
		EnableUserLimiter bool          `yaml:"enable_user_limiter"`
	} `yaml:"rate_limiter"`

	Auth struct {
		Enabled        bool           `yaml:"enabled"`
		ReloadInterval time.Duration  `yaml:"reload_interval"`
		Postgres       PostgresConfig `yaml:"postgres"`
	} `yaml:"auth"`

	Snapshot struct {
		ChromePath  string `yaml:"chrome_path"`
		NoSandbox   bool   `yaml:"no_sandbox"`
		TimeoutSecs int    `yaml:"timeout_secs"`
	} `yaml:"snapshot"`
}

// DefaultConfig returns the configuration used for every key config.yaml omits.
func DefaultConfig() Config {
	var cfg Config
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = ":5000"
	cfg.Server.StaticDir = "web"

	cfg.Limits.MaxUploadBytes = 20 * 1024 * 1024
	cfg.Limits.MaxColumns = 1000
	cfg.Limits.MaxRows = 1000
	cfg.Limits.MaxPixels = 40_000_000

	cfg.Convert.DefaultColumns = asciiart.DefaultColumns
	cfg.Convert.DefaultContrast = asciiart.DefaultContrast
	cfg.Convert.WebMonochrome = false
	cfg.Convert.Palette = asciiart.DefaultPaletteString
	cfg.Convert.WidthRatio = asciiart.DefaultWidthRatio

	cfg.Viewer.Columns = 120
	cfg.Viewer.Monochrome = true

	cfg.Logger.Level = "info"
	cfg.Logger.MaxSizeMB = 10
	cfg.Logger.MaxBackups = 3
	cfg.Logger.MaxAgeDays = 28

	cfg.Cache.TTL = 10 * time.Minute
	cfg.Cache.RedisHost = "127.0.0.1:6379"
	cfg.Cache.CacheDB = 1
	cfg.Cache.RateLimitDB = 0

	cfg.RateLimiter.Interval = time.Minute

	cfg.Auth.ReloadInterval = time.Minute
	cfg.Auth.Postgres.Port = 5432
	cfg.Auth.Postgres.SSLMode = "disable"

	cfg.Snapshot.TimeoutSecs = 30
	return cfg
}

// LoadConfig reads the file named by CONFIG_PATH (default config.yaml).
// A missing file yields the defaults.
func LoadConfig() Config {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	return LoadFrom(path)
}

// LoadFrom parses the YAML file at path on top of DefaultConfig. It panics
// when the file is unreadable or holds invalid values.
func LoadFrom(path string) Config {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return cfg
	case err != nil:
		panic(fmt.Sprintf("read config %s: %v", path, err))
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		panic(fmt.Sprintf("parse config %s: %v", path, err))
	}
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("invalid config %s: %v", path, err))
	}
	return cfg
}

// Validate checks the values LoadFrom cannot default.
func (c Config) Validate() error {
	var problems []string
	if c.Limits.MaxUploadBytes <= 0 {
		problems = append(problems, "limits.max_upload_bytes must be positive")
	}
	if c.Convert.DefaultColumns <= 0 {
		problems = append(problems, "convert.default_columns must be positive")
	}
	if c.Limits.MaxColumns < c.Convert.DefaultColumns {
		problems = append(problems, "limits.max_columns must be >= convert.default_columns")
	}
	if c.Limits.MaxRows < 0 || c.Limits.MaxPixels < 0 {
		problems = append(problems, "limits.max_rows and limits.max_pixels must not be negative")
	}
	if c.Convert.DefaultContrast <= 0 {
		problems = append(problems, "convert.default_contrast must be positive")
	}
	if c.Convert.WidthRatio <= 0 {
		problems = append(problems, "convert.width_ratio must be positive")
	}
	if c.Convert.Palette == "" {
		problems = append(problems, "convert.palette must not be empty")
	}
	if c.Viewer.Columns <= 0 {
		problems = append(problems, "viewer.columns must be positive")
	}
	if c.RateLimiter.UserLimit < 0 {
		problems = append(problems, "rate_limiter.user_limit must not be negative")
	}
	if c.RateLimiter.Interval <= 0 {
		problems = append(problems, "rate_limiter.interval must be positive")
	}
	if c.Cache.Enabled && c.Cache.TTL < 0 {
		problems = append(problems, "cache.ttl must not be negative")
	}
	if c.Auth.Enabled && c.Auth.ReloadInterval <= 0 {
		problems = append(problems, "auth.reload_interval must be positive")
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// ConvertParams builds the converter parameters for the web API defaults.
func (c Config) ConvertParams() asciiart.Params {
	return asciiart.Params{
		Columns:    c.Convert.DefaultColumns,
		Palette:    []rune(c.Convert.Palette),
		Monochrome: c.Convert.WebMonochrome,
		Contrast:   c.Convert.DefaultContrast,
		WidthRatio: c.Convert.WidthRatio,
		MaxRows:    c.Limits.MaxRows,
		MaxPixels:  c.Limits.MaxPixels,
	}
}
