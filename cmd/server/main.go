package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/codecity/internal/api"
	"github.com/annel0/codecity/internal/auth"
	"github.com/annel0/codecity/internal/config"
	"github.com/annel0/codecity/internal/eventbus"
	"github.com/annel0/codecity/internal/logging"
	"github.com/annel0/codecity/internal/observability"
	"github.com/annel0/codecity/internal/replay"
	"github.com/annel0/codecity/internal/scantree"
	"github.com/annel0/codecity/internal/sim"
	"github.com/annel0/codecity/internal/storage"
	"github.com/annel0/codecity/internal/stream"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML-конфигурации")
	rootFlag := flag.String("root", "", "корневой каталог (перекрывает конфиг)")
	flag.Parse()

	if err := logging.InitLogger(); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseLogger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Error("❌ Ошибка чтения конфигурации: %v", err)
		log.Fatalf("❌ Ошибка чтения конфигурации: %v", err)
	}
	if *rootFlag != "" {
		cfg.Scanner.Root = *rootFlag
	}

	root := cfg.Scanner.GetRoot()
	restPort := fmt.Sprintf(":%d", cfg.Server.GetRESTPort())
	metricsPort := fmt.Sprintf(":%d", cfg.Server.GetMetricsPort())
	tickRate := cfg.Server.GetTickRate()

	logging.Info("🏙️ Запуск сервера визуализации каталога...")
	logging.Info("📡 Конфигурация: root=%s REST=%s metrics=%s tick=%dГц",
		root, restPort, metricsPort, tickRate)

	// === Телеметрия ===
	ctx := context.Background()
	shutdownTelemetry, err := observability.InitTelemetry(ctx, "codecity")
	if err != nil {
		logging.Warn("OpenTelemetry недоступен: %v", err)
		shutdownTelemetry = func(context.Context) error { return nil }
	}

	// === Шина событий ===
	bus := buildEventBus(cfg)
	eventbus.Init(bus)
	if err := eventbus.StartLoggingListener(bus); err != nil {
		logging.Warn("LoggingListener не запущен: %v", err)
	}
	busMetrics := eventbus.NewMetricsExporter(bus)
	busMetrics.StartHTTP(metricsPort)

	// === Секрет JWT ===
	if cfg.Auth.JWTSecret != "" {
		if err := auth.SetJWTSecret(cfg.Auth.JWTSecret); err != nil {
			logging.Error("❌ Недействительный JWT секрет: %v", err)
			log.Fatalf("❌ Недействительный JWT секрет: %v", err)
		}
	}
	if cfg.Auth.TokenTTL > 0 {
		auth.SetTokenTTL(time.Duration(cfg.Auth.TokenTTL) * time.Minute)
	}

	// === Хранилища ===
	pins := buildPinsRepo(cfg)
	userRepo := buildUserRepo(cfg)

	var store *scantree.SnapshotStore
	if cfg.Scanner.CachePath != "" {
		store, err = scantree.NewSnapshotStore(cfg.Scanner.CachePath)
		if err != nil {
			logging.Warn("Кеш снимков отключен: %v", err)
		} else {
			defer store.Close()
		}
	}

	// === Движок ===
	engine := sim.NewEngine(sim.Config{
		Root:     root,
		TickRate: tickRate,
		Scan: scantree.Options{
			MaxDepth:      cfg.Scanner.MaxDepth,
			MaxNodes:      cfg.Scanner.MaxNodes,
			IncludeHidden: cfg.Scanner.IncludeHidden,
		},
		Rules:       cfg.Layout,
		CacheMaxAge: cfg.Scanner.CacheMaxAge,
	}, pins, store, bus)

	if err := engine.Rebuild(ctx, true); err != nil {
		logging.Error("❌ Первичное сканирование не удалось: %v", err)
		log.Fatalf("❌ Первичное сканирование не удалось: %v", err)
	}
	engine.Start()

	// === Полётный журнал ===
	var stopRecorder func()
	if cfg.Replay.Enabled {
		rec := replay.NewRecorder(cfg.Replay.Path)
		defer rec.Close()
		stopRecorder = replay.Attach(engine, rec, tickRate, cfg.Replay.Every)
		logging.Info("🎞️ Полётный журнал: %s (каждый %d-й тик)", cfg.Replay.Path, cfg.Replay.Every)
	}

	// === REST + WebSocket ===
	restServer := api.NewRestServer(api.Config{
		Port:     restPort,
		Engine:   engine,
		UserRepo: userRepo,
		Pins:     pins,
	})
	streamer := stream.NewStreamer(engine, tickRate)
	streamer.Register(restServer.Router())

	go func() {
		if err := restServer.Run(); err != nil {
			logging.Error("❌ REST сервер завершился: %v", err)
			os.Exit(1)
		}
	}()

	logging.Info("✅ Все сервисы запущены")
	logging.Info("   🌐 REST API: http://localhost%s", restPort)
	logging.Info("   🔌 WebSocket: ws://localhost%s/ws/frames", restPort)
	logging.Info("   📈 Метрики: http://localhost%s/metrics", metricsPort)
	logging.Info("   ❤️  Health check: http://localhost%s/health", restPort)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logging.Info("📡 Получен сигнал %v, завершение работы...", sig)

	if stopRecorder != nil {
		stopRecorder()
	}
	engine.Stop()
	busMetrics.Stop()
	if err := shutdownTelemetry(ctx); err != nil {
		logging.Warn("Ошибка остановки телеметрии: %v", err)
	}
	logging.Info("✅ Сервер остановлен")
}

// buildEventBus выбирает реализацию шины по конфигурации
func buildEventBus(cfg *config.Config) eventbus.EventBus {
	if cfg.EventBus.Backend == "jetstream" {
		retention := time.Duration(cfg.EventBus.Retention) * time.Hour
		if retention <= 0 {
			retention = 24 * time.Hour
		}
		bus, err := eventbus.NewJetStreamBus(cfg.EventBus.URL, cfg.EventBus.Stream, retention)
		if err == nil {
			logging.Info("📨 Шина событий: JetStream (%s)", cfg.EventBus.URL)
			return bus
		}
		logging.Warn("JetStream недоступен (%v), откат на in-memory", err)
	}
	cap := cfg.EventBus.BufferCap
	if cap <= 0 {
		cap = 1024
	}
	logging.Info("📨 Шина событий: in-memory (буфер %d)", cap)
	return eventbus.NewMemoryBus(cap)
}

// buildPinsRepo выбирает хранилище закреплений по конфигурации
func buildPinsRepo(cfg *config.Config) storage.PinsRepo {
	switch cfg.Storage.Backend {
	case "redis":
		rc := storage.DefaultRedisConfig()
		if cfg.Storage.RedisURL != "" {
			rc.Addr = cfg.Storage.RedisURL
		}
		repo, err := storage.NewRedisPinsRepo(rc)
		if err == nil {
			return repo
		}
		logging.Warn("Redis недоступен (%v), откат на память", err)
	case "maria":
		repo, err := storage.NewMariaPinsRepo(cfg.Storage.MariaDSN)
		if err == nil {
			return repo
		}
		logging.Warn("MariaDB недоступна (%v), откат на память", err)
	}
	return storage.NewMemoryPinsRepo()
}

// buildUserRepo выбирает хранилище учётных записей по конфигурации
func buildUserRepo(cfg *config.Config) auth.UserRepository {
	if cfg.Storage.Backend == "maria" && cfg.Storage.MariaDSN != "" {
		repo, err := auth.NewMariaUserRepo(cfg.Storage.MariaDSN)
		if err == nil {
			return repo
		}
		logging.Warn("MariaDB для пользователей недоступна (%v), откат на память", err)
	}
	repo, err := auth.NewMemoryUserRepo()
	if err != nil {
		log.Fatalf("❌ Не удалось создать репозиторий пользователей: %v", err)
	}
	if cfg.Auth.AdminUser != "" && cfg.Auth.AdminPassBcr != "" {
		if _, err := repo.CreateUser(cfg.Auth.AdminUser, cfg.Auth.AdminPassBcr, true); err != nil && err != auth.ErrUserExists {
			logging.Warn("Не удалось создать администратора из конфига: %v", err)
		}
	}
	return repo
}
