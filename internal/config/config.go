// Package config читает YAML-конфигурацию сервера с фолбэком
// на переменные окружения и дефолты.
package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/annel0/codecity/internal/city"
)

// Config — корневая структура конфигурации приложения
type Config struct {
	Scanner  ScannerConfig    `yaml:"scanner"`
	Layout   city.LayoutRules `yaml:"layout"`
	Server   ServerConfig     `yaml:"server"`
	Storage  StorageConfig    `yaml:"storage"`
	EventBus EventBusConfig   `yaml:"eventbus"`
	Replay   ReplayConfig     `yaml:"replay"`
	Auth     AuthConfig       `yaml:"auth"`
}

// ScannerConfig задаёт корень и лимиты сканирования
type ScannerConfig struct {
	Root          string        `yaml:"root"`
	MaxDepth      int           `yaml:"max_depth"`
	MaxNodes      int           `yaml:"max_nodes"`
	IncludeHidden bool          `yaml:"include_hidden"`
	CacheMaxAge   time.Duration `yaml:"cache_max_age"`
	CachePath     string        `yaml:"cache_path"`
}

// ServerConfig задаёт порты и частоту тиков
type ServerConfig struct {
	RESTPort    int `yaml:"rest_port"`
	MetricsPort int `yaml:"metrics_port"`
	TickRate    int `yaml:"tick_rate"`
}

// StorageConfig выбирает бэкенд закреплений
type StorageConfig struct {
	Backend  string `yaml:"backend"` // memory | redis | maria
	RedisURL string `yaml:"redis_url"`
	MariaDSN string `yaml:"maria_dsn"`
}

// EventBusConfig выбирает шину событий
type EventBusConfig struct {
	Backend   string `yaml:"backend"` // memory | jetstream
	URL       string `yaml:"url"`
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
	BufferCap int    `yaml:"buffer_capacity"`
}

// ReplayConfig задаёт запись кадров в полётный журнал
type ReplayConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	Every   int    `yaml:"every"` // писать каждый N-й тик
}

// AuthConfig задаёт административный доступ
type AuthConfig struct {
	JWTSecret    string `yaml:"jwt_secret"`
	AdminUser    string `yaml:"admin_user"`
	AdminPassBcr string `yaml:"admin_pass_bcrypt"` // bcrypt-хеш пароля
	TokenTTL     int    `yaml:"token_ttl_minutes"`
}

// GetRESTPort возвращает REST порт с приоритетом config -> env -> default
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "CITY_REST_PORT", 8088)
}

// GetMetricsPort возвращает порт метрик с приоритетом config -> env -> default
func (s *ServerConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(s.MetricsPort, "CITY_METRICS_PORT", 2112)
}

// GetTickRate возвращает частоту тиков, по умолчанию 30 Гц
func (s *ServerConfig) GetTickRate() int {
	return getPortWithEnvFallback(s.TickRate, "CITY_TICK_RATE", 30)
}

// GetRoot возвращает корень сканирования с приоритетом config -> env -> "."
func (s *ScannerConfig) GetRoot() string {
	if s.Root != "" {
		return s.Root
	}
	if env := os.Getenv("CITY_ROOT"); env != "" {
		return env
	}
	return "."
}

// getPortWithEnvFallback возвращает значение с приоритетом: config -> env -> default
func getPortWithEnvFallback(configVal int, envVar string, defaultVal int) int {
	if configVal > 0 {
		return configVal
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if v, err := strconv.Atoi(envVal); err == nil && v > 0 {
			return v
		}
	}

	return defaultVal
}

// Default возвращает конфигурацию со всеми дефолтами
func Default() *Config {
	return &Config{
		Scanner: ScannerConfig{
			MaxDepth:    2,
			MaxNodes:    4096,
			CacheMaxAge: 5 * time.Minute,
			CachePath:   "data/scan-cache",
		},
		Layout: city.DefaultRules(),
		Server: ServerConfig{},
		Storage: StorageConfig{
			Backend: "memory",
		},
		EventBus: EventBusConfig{
			Backend:   "memory",
			BufferCap: 1024,
		},
		Replay: ReplayConfig{
			Path:  "data/replay",
			Every: 6,
		},
	}
}

// Load читает YAML файл конфигурации.
// Если path == "", пытается прочитать из ENV CITY_CONFIG;
// без конфига возвращаются дефолты.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("CITY_CONFIG")
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
