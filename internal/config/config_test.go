package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestDefault тестирует значения конфигурации по умолчанию
func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Scanner.MaxDepth != 2 {
		t.Errorf("Неверная глубина по умолчанию: %d", cfg.Scanner.MaxDepth)
	}
	if cfg.Scanner.MaxNodes != 4096 {
		t.Errorf("Неверный лимит узлов по умолчанию: %d", cfg.Scanner.MaxNodes)
	}
	if cfg.Scanner.CacheMaxAge != 5*time.Minute {
		t.Errorf("Неверный срок кеша: %v", cfg.Scanner.CacheMaxAge)
	}
	if cfg.Storage.Backend != "memory" {
		t.Errorf("Бэкенд хранилища по умолчанию должен быть memory: %s", cfg.Storage.Backend)
	}
	if cfg.EventBus.Backend != "memory" {
		t.Errorf("Шина по умолчанию должна быть memory: %s", cfg.EventBus.Backend)
	}
	if cfg.EventBus.BufferCap != 1024 {
		t.Errorf("Неверная ёмкость буфера шины: %d", cfg.EventBus.BufferCap)
	}
	if cfg.Layout.RoadWidth != 2 {
		t.Errorf("Неверная ширина дороги по умолчанию: %d", cfg.Layout.RoadWidth)
	}
	if cfg.Replay.Every != 6 {
		t.Errorf("Неверный шаг записи журнала: %d", cfg.Replay.Every)
	}
}

// TestLoadNoFile тестирует загрузку без файла конфигурации
func TestLoadNoFile(t *testing.T) {
	t.Setenv("CITY_CONFIG", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Без файла должны возвращаться дефолты: %v", err)
	}
	if cfg.Server.GetRESTPort() != 8088 {
		t.Errorf("Неверный REST порт по умолчанию: %d", cfg.Server.GetRESTPort())
	}
}

// TestLoadMissingFile тестирует явный путь к несуществующему файлу
func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yml"); err == nil {
		t.Error("Несуществующий файл должен давать ошибку")
	}
}

// TestLoadYAML тестирует чтение и наложение YAML на дефолты
func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	content := `
scanner:
  root: /tmp/project
  max_depth: 5
server:
  rest_port: 9999
  tick_rate: 60
layout:
  road_width: 4
storage:
  backend: redis
  redis_url: localhost:6379
replay:
  enabled: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Ошибка записи фикстуры: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	if cfg.Scanner.GetRoot() != "/tmp/project" {
		t.Errorf("Неверный корень: %s", cfg.Scanner.GetRoot())
	}
	if cfg.Scanner.MaxDepth != 5 {
		t.Errorf("Неверная глубина: %d", cfg.Scanner.MaxDepth)
	}
	if cfg.Server.GetRESTPort() != 9999 {
		t.Errorf("Неверный REST порт: %d", cfg.Server.GetRESTPort())
	}
	if cfg.Server.GetTickRate() != 60 {
		t.Errorf("Неверная частота тиков: %d", cfg.Server.GetTickRate())
	}
	if cfg.Layout.RoadWidth != 4 {
		t.Errorf("Неверная ширина дороги: %d", cfg.Layout.RoadWidth)
	}
	if cfg.Storage.Backend != "redis" {
		t.Errorf("Неверный бэкенд: %s", cfg.Storage.Backend)
	}
	if !cfg.Replay.Enabled {
		t.Error("Запись журнала должна быть включена")
	}
	// Не заданные в YAML поля сохраняют дефолты
	if cfg.Scanner.MaxNodes != 4096 {
		t.Errorf("Лимит узлов должен остаться дефолтным: %d", cfg.Scanner.MaxNodes)
	}
}

// TestLoadInvalidYAML тестирует реакцию на битый YAML
func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yml")
	if err := os.WriteFile(path, []byte("scanner: [не, словарь"), 0o644); err != nil {
		t.Fatalf("Ошибка записи фикстуры: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Битый YAML должен давать ошибку")
	}
}

// TestEnvFallbacks тестирует приоритет config -> env -> default
func TestEnvFallbacks(t *testing.T) {
	t.Setenv("CITY_REST_PORT", "7070")
	t.Setenv("CITY_METRICS_PORT", "7071")
	t.Setenv("CITY_TICK_RATE", "15")
	t.Setenv("CITY_ROOT", "/srv/code")

	s := ServerConfig{}
	if got := s.GetRESTPort(); got != 7070 {
		t.Errorf("ENV не подхвачен для REST порта: %d", got)
	}
	if got := s.GetMetricsPort(); got != 7071 {
		t.Errorf("ENV не подхвачен для порта метрик: %d", got)
	}
	if got := s.GetTickRate(); got != 15 {
		t.Errorf("ENV не подхвачен для частоты тиков: %d", got)
	}

	sc := ScannerConfig{}
	if got := sc.GetRoot(); got != "/srv/code" {
		t.Errorf("ENV не подхвачен для корня: %s", got)
	}

	// Явное значение в конфиге важнее ENV
	s2 := ServerConfig{RESTPort: 8100}
	if got := s2.GetRESTPort(); got != 8100 {
		t.Errorf("Конфиг должен иметь приоритет над ENV: %d", got)
	}

	// Мусор в ENV игнорируется
	t.Setenv("CITY_REST_PORT", "не-число")
	if got := s.GetRESTPort(); got != 8088 {
		t.Errorf("Мусорный ENV должен давать дефолт: %d", got)
	}
}
