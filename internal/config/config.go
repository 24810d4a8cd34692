// Package config loads the observer location and run settings.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/yetanothergithubaccount/DSObest/internal/astro"
)

// Config is the full run configuration. It is treated as immutable once
// Validate has succeeded.
type Config struct {
	Location Location       `mapstructure:"location"`
	Sampling SamplingConfig `mapstructure:"sampling"`
	Moon     MoonConfig     `mapstructure:"moon"`
	Resolver ResolverConfig `mapstructure:"resolver"`
	Storage  StorageConfig  `mapstructure:"storage"`
	MQTT     MQTTConfig     `mapstructure:"mqtt"`
	Report   ReportConfig   `mapstructure:"report"`
	API      APIConfig      `mapstructure:"api"`
	Workers  int            `mapstructure:"workers"`
	LogLevel string         `mapstructure:"log_level"`
}

// Location is the observer site.
type Location struct {
	Name      string  `mapstructure:"name"`
	Latitude  float64 `mapstructure:"latitude"`
	Longitude float64 `mapstructure:"longitude"` // east positive
	Elevation float64 `mapstructure:"elevation"` // meters
	Timezone  string  `mapstructure:"timezone"`

	tz *time.Location
}

// TZ returns the loaded time zone. It is only set after Validate.
func (l Location) TZ() *time.Location {
	if l.tz == nil {
		return time.UTC
	}
	return l.tz
}

// Observer returns the site as an astro.Observer.
func (l Location) Observer() astro.Observer {
	return astro.Observer{LatDeg: l.Latitude, LonDeg: l.Longitude, ElevationM: l.Elevation}
}

// String formats the site like "Frankfurt (50.110573, 8.684966 [207 m])".
func (l Location) String() string {
	return fmt.Sprintf("%s (%g, %g [%g m])", l.Name, l.Latitude, l.Longitude, l.Elevation)
}

type SamplingConfig struct {
	Samples     int           `mapstructure:"samples"`
	MinAltitude float64       `mapstructure:"min_altitude"`
	MinVisible  time.Duration `mapstructure:"min_visible"` // 0 = 30 samples at the reference density
}

type MoonConfig struct {
	MaxIllumination float64 `mapstructure:"max_illumination"` // fraction [0..1]
}

type ResolverConfig struct {
	SesameURL         string        `mapstructure:"sesame_url"`
	SimbadURL         string        `mapstructure:"simbad_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	MaxRetries        int           `mapstructure:"max_retries"`
}

type StorageConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type MQTTConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Broker      string `mapstructure:"broker"`
	ClientID    string `mapstructure:"client_id"`
	TopicPrefix string `mapstructure:"topic_prefix"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
}

type ReportConfig struct {
	OutputDir string `mapstructure:"output_dir"`
}

type APIConfig struct {
	Port int `mapstructure:"port"`
}

// ConfigurationError reports an invalid or missing setting. It is fatal and
// raised before any computation starts.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// IsConfigurationError reports whether err wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("location.name", "Frankfurt")
	v.SetDefault("location.latitude", 50.110573)
	v.SetDefault("location.longitude", 8.684966)
	v.SetDefault("location.elevation", 207)
	v.SetDefault("location.timezone", "Europe/Berlin")
	v.SetDefault("sampling.samples", 1000)
	v.SetDefault("sampling.min_altitude", 5.0)
	v.SetDefault("sampling.min_visible", "0s")
	v.SetDefault("moon.max_illumination", 0.5)
	v.SetDefault("resolver.sesame_url", "https://cds.unistra.fr/cgi-bin/nph-sesame/-oI/SNV")
	v.SetDefault("resolver.simbad_url", "https://simbad.cds.unistra.fr/simbad/sim-tap/sync")
	v.SetDefault("resolver.timeout", "15s")
	v.SetDefault("resolver.requests_per_second", 2.0)
	v.SetDefault("resolver.max_retries", 3)
	v.SetDefault("storage.enabled", true)
	v.SetDefault("storage.path", "./dsobest.db")
	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.client_id", "dsobest")
	v.SetDefault("mqtt.topic_prefix", "dsobest")
	v.SetDefault("report.output_dir", ".")
	v.SetDefault("api.port", 8046)
	v.SetDefault("workers", 1)
	v.SetDefault("log_level", "info")
}

// Load reads the configuration from configPath, or from dsobest.yaml in the
// usual search paths when configPath is empty. A missing file is not an error.
// Environment variables prefixed with DSOBEST_ override file values
// (e.g. DSOBEST_LOCATION_LATITUDE).
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("dsobest")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/dsobest")
		v.AddConfigPath("/etc/dsobest")
	}

	v.SetEnvPrefix("DSOBEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	return &cfg, nil
}

// Default returns the built-in defaults without reading any file or
// environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	// Defaults always decode.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Overrides carries command-line values; nil fields are left untouched.
type Overrides struct {
	Latitude  *float64
	Longitude *float64
	Elevation *float64
	Name      *string
	Timezone  *string
	LogLevel  *string
}

// Apply copies the set override fields into the configuration.
func (c *Config) Apply(o Overrides) {
	if o.Latitude != nil {
		c.Location.Latitude = *o.Latitude
	}
	if o.Longitude != nil {
		c.Location.Longitude = *o.Longitude
	}
	if o.Elevation != nil {
		c.Location.Elevation = *o.Elevation
	}
	if o.Name != nil {
		c.Location.Name = *o.Name
	}
	if o.Timezone != nil {
		c.Location.Timezone = *o.Timezone
		c.Location.tz = nil
	}
	if o.LogLevel != nil {
		c.LogLevel = *o.LogLevel
	}
}

// Validate checks the configuration and loads the time zone.
func (c *Config) Validate() error {
	loc := &c.Location
	if loc.Latitude < -90 || loc.Latitude > 90 {
		return &ConfigurationError{"location.latitude", fmt.Sprintf("%v out of range [-90, 90]", loc.Latitude)}
	}
	if loc.Longitude < -180 || loc.Longitude > 180 {
		return &ConfigurationError{"location.longitude", fmt.Sprintf("%v out of range [-180, 180]", loc.Longitude)}
	}
	if strings.TrimSpace(loc.Timezone) == "" {
		return &ConfigurationError{"location.timezone", "missing"}
	}
	tz, err := time.LoadLocation(loc.Timezone)
	if err != nil {
		return &ConfigurationError{"location.timezone", err.Error()}
	}
	loc.tz = tz

	if c.Sampling.Samples < 2 {
		return &ConfigurationError{"sampling.samples", "need at least 2 samples"}
	}
	if c.Sampling.MinVisible < 0 {
		return &ConfigurationError{"sampling.min_visible", "must not be negative"}
	}
	if c.Moon.MaxIllumination <= 0 || c.Moon.MaxIllumination > 1 {
		return &ConfigurationError{"moon.max_illumination", "must be in (0, 1]"}
	}
	if c.Resolver.Timeout <= 0 {
		return &ConfigurationError{"resolver.timeout", "must be positive"}
	}
	if c.Resolver.RequestsPerSecond <= 0 {
		return &ConfigurationError{"resolver.requests_per_second", "must be positive"}
	}
	if c.Resolver.MaxRetries < 0 {
		return &ConfigurationError{"resolver.max_retries", "must not be negative"}
	}
	if c.Storage.Enabled && c.Storage.Path == "" {
		return &ConfigurationError{"storage.path", "required when storage is enabled"}
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return &ConfigurationError{"mqtt.broker", "required when mqtt is enabled"}
	}
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return &ConfigurationError{"api.port", fmt.Sprintf("%d is not a valid port", c.API.Port)}
	}
	if c.Workers < 1 {
		return &ConfigurationError{"workers", "must be at least 1"}
	}
	return nil
}
