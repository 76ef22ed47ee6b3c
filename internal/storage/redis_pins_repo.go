package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/annel0/codecity/internal/logging"
	"github.com/annel0/codecity/internal/scantree"
)

// RedisPinsRepo хранит закрепления в Redis.
// Подходит, когда несколько процессов визуализатора делят один
// каталог и закрепления должны быть видны всем сразу.
type RedisPinsRepo struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisConfig содержит настройки подключения к Redis
type RedisConfig struct {
	Addr      string        `yaml:"addr"`       // адрес Redis сервера
	Password  string        `yaml:"password"`   // пароль (пустой если не требуется)
	DB        int           `yaml:"db"`         // номер базы данных
	KeyPrefix string        `yaml:"key_prefix"` // префикс для ключей
	TTL       time.Duration `yaml:"ttl"`        // время жизни записей, 0 = без срока
}

// DefaultRedisConfig возвращает конфигурацию по умолчанию
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:      "localhost:6379",
		Password:  "",
		DB:        0,
		KeyPrefix: "city:pin:",
		TTL:       0,
	}
}

// NewRedisPinsRepo подключается к Redis и проверяет соединение
func NewRedisPinsRepo(config *RedisConfig) (*RedisPinsRepo, error) {
	if config == nil {
		config = DefaultRedisConfig()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("не удалось подключиться к Redis: %w", err)
	}

	logging.Info("🔴 Redis подключен: %s", config.Addr)
	return &RedisPinsRepo{
		client:    client,
		keyPrefix: config.KeyPrefix,
		ttl:       config.TTL,
	}, nil
}

// Save сохраняет закрепление в Redis
func (r *RedisPinsRepo) Save(ctx context.Context, pin Pin) error {
	if pin.Path == "" {
		return fmt.Errorf("недействительный путь закрепления: пустая строка")
	}
	if pin.BlockID == 0 {
		pin.BlockID = scantree.PathID(pin.Path)
	}
	if pin.CreatedAt.IsZero() {
		pin.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(pin)
	if err != nil {
		return fmt.Errorf("ошибка сериализации закрепления: %w", err)
	}

	if err := r.client.Set(ctx, r.keyPrefix+pin.Path, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("ошибка сохранения закрепления %s: %w", pin.Path, err)
	}
	return nil
}

// Load загружает закрепление из Redis
func (r *RedisPinsRepo) Load(ctx context.Context, path string) (Pin, bool, error) {
	if path == "" {
		return Pin{}, false, fmt.Errorf("недействительный путь закрепления: пустая строка")
	}

	data, err := r.client.Get(ctx, r.keyPrefix+path).Result()
	if err == redis.Nil {
		return Pin{}, false, nil
	} else if err != nil {
		return Pin{}, false, fmt.Errorf("ошибка загрузки закрепления %s: %w", path, err)
	}

	var pin Pin
	if err := json.Unmarshal([]byte(data), &pin); err != nil {
		return Pin{}, false, fmt.Errorf("ошибка десериализации закрепления %s: %w", path, err)
	}
	return pin, true, nil
}

// Delete удаляет закрепление из Redis
func (r *RedisPinsRepo) Delete(ctx context.Context, path string) error {
	if path == "" {
		return fmt.Errorf("недействительный путь закрепления: пустая строка")
	}

	n, err := r.client.Del(ctx, r.keyPrefix+path).Result()
	if err != nil {
		return fmt.Errorf("ошибка удаления закрепления %s: %w", path, err)
	}
	if n == 0 {
		return fmt.Errorf("закрепление для пути %s не найдено", path)
	}
	return nil
}

// List возвращает все закрепления, сканируя ключи с префиксом
func (r *RedisPinsRepo) List(ctx context.Context) ([]Pin, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, r.keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("ошибка сканирования закреплений: %w", err)
	}
	if len(keys) == 0 {
		return []Pin{}, nil
	}

	// Читаем значения одним пайплайном
	pipe := r.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(keys))
	for i, key := range keys {
		cmds[i] = pipe.Get(ctx, key)
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("ошибка чтения закреплений: %w", err)
	}

	pins := make([]Pin, 0, len(keys))
	for i, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil {
			continue
		}
		var pin Pin
		if err := json.Unmarshal([]byte(data), &pin); err != nil {
			logging.Warn("⚠️ Повреждённое закрепление %s: %v", keys[i], err)
			continue
		}
		pins = append(pins, pin)
	}
	return pins, nil
}

// Close закрывает соединение с Redis
func (r *RedisPinsRepo) Close() error {
	return r.client.Close()
}
