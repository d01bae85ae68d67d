package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Default recipe names as configured on the hub, hottest band first.
var defaultRecipes = [4]string{
	"6am Start Time.",
	"4.30 am Heating Start",
	"3.30am Heating Start.",
	"2am Heating Start.",
}

// Config is the resolved application configuration.
type Config struct {
	Port string

	Hub struct {
		URL     string
		Token   string
		Timeout time.Duration
		Retries int
	}
	Weather struct {
		BaseURL  string
		Key      string
		Location string
		Timeout  time.Duration
	}
	Schedule struct {
		RunTimeout time.Duration
	}
	Recipes [4]string

	API struct {
		Token string // shared bearer token for /api/v1; empty disables the check
	}
	HTTP struct {
		StaticDir string
		UploadDir string
	}
	DB struct {
		Path string
	}
	Log struct {
		Level string
		File  string
	}
}

// ConfigError reports required settings that are absent.
type ConfigError struct {
	Missing []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Missing, ", "))
}

// ErrInvalidDuration is wrapped when a duration key cannot be parsed.
var ErrInvalidDuration = errors.New("invalid duration")

// Load reads .env (if present), configs/config.yml (if present) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.AddConfigPath("configs") // configs/config.yml
	v.SetConfigName("config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return FromViper(v)
}

// FromViper resolves a Config from an already populated viper instance.
// Environment variables are bound on top of whatever the instance holds.
func FromViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	cfg := &Config{}
	cfg.Port = v.GetString("port")

	cfg.Hub.URL = strings.TrimSpace(v.GetString("hub.url"))
	cfg.Hub.Token = strings.TrimSpace(v.GetString("hub.token"))
	cfg.Hub.Retries = v.GetInt("hub.retries")

	cfg.Weather.BaseURL = v.GetString("weather.base_url")
	cfg.Weather.Key = v.GetString("weather.key")
	cfg.Weather.Location = v.GetString("weather.location")

	var err error
	if cfg.Hub.Timeout, err = duration(v, "hub.timeout"); err != nil {
		return nil, err
	}
	if cfg.Weather.Timeout, err = duration(v, "weather.timeout"); err != nil {
		return nil, err
	}
	if cfg.Schedule.RunTimeout, err = duration(v, "schedule.run_timeout"); err != nil {
		return nil, err
	}

	for i := range cfg.Recipes {
		cfg.Recipes[i] = v.GetString(fmt.Sprintf("recipes.r%d", i+1))
	}

	cfg.API.Token = v.GetString("api.token")
	cfg.HTTP.StaticDir = v.GetString("http.static_dir")
	cfg.HTTP.UploadDir = v.GetString("http.upload_dir")
	cfg.DB.Path = v.GetString("db.path")
	cfg.Log.Level = v.GetString("log.level")
	cfg.Log.File = v.GetString("log.file")

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var missing []string
	if c.Hub.Token == "" {
		missing = append(missing, "hub.token (API_KEY)")
	}
	if c.Hub.URL == "" {
		missing = append(missing, "hub.url (NEOHUB_URL)")
	}
	if len(missing) > 0 {
		return &ConfigError{Missing: missing}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "5000")
	v.SetDefault("hub.timeout", "10s")
	v.SetDefault("hub.retries", 3)
	v.SetDefault("weather.base_url", "http://api.weatherapi.com")
	v.SetDefault("weather.timeout", "15s")
	v.SetDefault("schedule.run_timeout", "2m")
	v.SetDefault("http.static_dir", "./assets")
	v.SetDefault("http.upload_dir", "./uploads")
	v.SetDefault("db.path", "neohub.db")
	v.SetDefault("log.level", "info")
	for i, name := range defaultRecipes {
		v.SetDefault(fmt.Sprintf("recipes.r%d", i+1), name)
	}
}

// bindEnv maps the historical variable names onto config keys.
func bindEnv(v *viper.Viper) error {
	bindings := map[string][]string{
		"port":             {"PORT"},
		"hub.url":          {"NEOHUB_URL"},
		"hub.token":        {"API_KEY", "NEOHUB_TOKEN"},
		"hub.timeout":      {"NEOHUB_TIMEOUT"},
		"hub.retries":      {"NEOHUB_RETRIES"},
		"weather.key":      {"WEATHER_API_KEY"},
		"weather.location": {"WEATHER_LOCATION"},
		"weather.base_url": {"WEATHER_BASE_URL"},
		"api.token":        {"API_TOKEN"},
		"db.path":          {"DB_PATH"},
		"log.level":        {"LOG_LEVEL"},
		"log.file":         {"LOG_FILE"},
	}
	for key, envs := range bindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}

func duration(v *viper.Viper, key string) (time.Duration, error) {
	raw := v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%w for %s: %q", ErrInvalidDuration, key, raw)
	}
	return d, nil
}
