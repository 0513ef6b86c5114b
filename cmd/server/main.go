package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/frozen-forest/internal/api"
	"github.com/annel0/frozen-forest/internal/config"
	"github.com/annel0/frozen-forest/internal/eventbus"
	"github.com/annel0/frozen-forest/internal/game"
	"github.com/annel0/frozen-forest/internal/logging"
	"github.com/annel0/frozen-forest/internal/network"
	"github.com/annel0/frozen-forest/internal/observability"
	"github.com/annel0/frozen-forest/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (или ENV GAME_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	// Инициализируем систему логирования
	if err := logging.InitDefaultLogger("server"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()
	defer logging.GetLoggerManager().CloseAll()
	logging.SetDefaultLevel(logging.ParseLevel(cfg.Server.LogLevel))

	logging.Info("🌲 Запуск Frozen Forest...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.Error("❌ Сервер остановлен с ошибкой: %v", err)
		os.Exit(1)
	}
	logging.Info("👋 Сервер успешно остановлен")
}

func run(ctx context.Context, cfg *config.Config) error {
	// === ТЕЛЕМЕТРИЯ ===
	shutdownTelemetry, err := observability.InitTelemetry(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("телеметрия: %w", err)
	}
	defer shutdownTelemetry(context.Background())

	// === ШИНА СОБЫТИЙ ===
	bus, err := newEventBus(cfg.EventBus)
	if err != nil {
		return err
	}
	defer bus.Close()

	if _, err := eventbus.StartLoggingListener(bus); err != nil {
		logging.Warn("⚠️ Логгер событий не запущен: %v", err)
	}

	// === МЕТРИКИ ===
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	busMetrics := eventbus.NewMetricsExporter(bus, reg)
	gameMetrics := game.NewMetrics(reg)

	// === ХРАНИЛИЩЕ ===
	worldStorage, err := storage.NewWorldStorage(cfg.Storage.DataPath)
	if err != nil {
		return fmt.Errorf("хранилище мира: %w", err)
	}
	defer worldStorage.Close()

	players, err := storage.NewPlayerStateRepo(cfg.Storage)
	if err != nil {
		return fmt.Errorf("репозиторий игроков: %w", err)
	}
	defer players.Close()
	persister := storage.NewPersister(worldStorage, players)

	// === ИГРА ===
	g := game.New(cfg, game.Options{Bus: bus, Metrics: gameMetrics})
	if snap, ok, err := persister.Load(ctx); err != nil {
		logging.Warn("⚠️ Снимок не прочитан, начинаем новый мир: %v", err)
	} else if ok {
		if err := g.Restore(snap); err != nil {
			if !errors.Is(err, game.ErrSeedMismatch) {
				return fmt.Errorf("восстановление мира: %w", err)
			}
			logging.Warn("⚠️ Снимок от другого сида, начинаем новый мир: %v", err)
		}
	}

	runner := game.NewRunner(g, game.RunnerOptions{
		TickRate:      cfg.Server.TickRate,
		SaveInterval:  time.Duration(cfg.Storage.SnapshotEverySeconds) * time.Second,
		Persister:     persister,
		SnapshotEvery: cfg.Server.SnapshotEveryFrames,
	})

	hub := network.NewHub(runner)
	runner.OnSnapshot(hub.Broadcast)
	defer hub.Close()

	rest := api.NewRestServer(api.Config{
		Addr:        fmt.Sprintf(":%d", cfg.Server.GetRESTPort()),
		Runner:      runner,
		Hub:         hub,
		WSPath:      cfg.Server.WSPath,
		ServiceName: cfg.Telemetry.ServiceName,
		Registry:    reg,
	})

	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.GetMetricsPort()),
		Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// === ЗАПУСК ===
	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error { return runner.Run(gctx) })
	group.Go(func() error {
		busMetrics.Run(gctx)
		return nil
	})
	group.Go(rest.Start)
	group.Go(func() error {
		logging.Info("📊 Prometheus метрики на %s/metrics", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	logging.Info("✅ Все сервисы запущены")
	logging.Info("   🌐 REST API: http://localhost:%d", cfg.Server.GetRESTPort())
	logging.Info("   🔌 WebSocket: ws://localhost:%d%s", cfg.Server.GetRESTPort(), cfg.Server.WSPath)

	// === GRACEFUL SHUTDOWN ===
	group.Go(func() error {
		<-gctx.Done()
		logging.Info("📡 Завершение работы...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rest.Shutdown(shutdownCtx); err != nil {
			logging.Error("❌ Ошибка остановки REST API: %v", err)
		}
		return metricsServer.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

// newEventBus JetStream, если задан адрес NATS, иначе шина в памяти
func newEventBus(cfg config.EventBusConfig) (eventbus.EventBus, error) {
	url := cfg.GetNATSURL()
	if url == "" {
		logging.Info("🚌 Шина событий в памяти (ёмкость %d)", cfg.Capacity)
		return eventbus.NewMemoryBus(cfg.Capacity), nil
	}

	bus, err := eventbus.NewJetStreamBus(url, cfg.Stream, time.Duration(cfg.Retention)*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("JetStream %s: %w", url, err)
	}
	logging.Info("🚌 Шина событий JetStream: %s, поток %s", url, cfg.Stream)
	return bus, nil
}
