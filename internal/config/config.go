package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации сервера.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	World     WorldConfig     `yaml:"world"`
	Gameplay  GameplayConfig  `yaml:"gameplay"`
	Storage   StorageConfig   `yaml:"storage"`
	EventBus  EventBusConfig  `yaml:"eventbus"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type ServerConfig struct {
	RESTPort    int    `yaml:"rest_port"`
	MetricsPort int    `yaml:"metrics_port"`
	WSPath      string `yaml:"ws_path"`
	TickRate    int    `yaml:"tick_rate"`
	// SnapshotEveryFrames как часто WebSocket клиенты получают снапшот
	SnapshotEveryFrames int    `yaml:"snapshot_every_frames"`
	LogLevel            string `yaml:"log_level"`
}

// WorldConfig параметры тайлового мира
type WorldConfig struct {
	Seed              int64   `yaml:"seed"`
	TileSize          float64 `yaml:"tile_size"`
	SubTiles          int     `yaml:"sub_tiles"`
	GroundTileCount   int     `yaml:"ground_tile_count"`
	InitialHalfExtent int     `yaml:"initial_half_extent"`
	InitialOpenRadius float64 `yaml:"initial_open_radius"`
	// Размер видимой области, нужен спавнеру мобов
	ViewportWidth  float64 `yaml:"viewport_width"`
	ViewportHeight float64 `yaml:"viewport_height"`
}

// GameplayConfig игровые константы. Длительности в секундах.
type GameplayConfig struct {
	PlayerSpeed          float64 `yaml:"player_speed"`
	PlayerRadius         float64 `yaml:"player_radius"`
	MaxPlayerHealth      int     `yaml:"max_player_health"`
	PlayerDamage         int     `yaml:"player_damage"`
	PlayerAttackCooldown float64 `yaml:"player_attack_cooldown"`
	MobSpeed             float64 `yaml:"mob_speed"`
	MobWidth             float64 `yaml:"mob_width"`
	MobHeight            float64 `yaml:"mob_height"`
	MobHealth            int     `yaml:"mob_health"`
	MobDamage            int     `yaml:"mob_damage"`
	MobAttackCooldown    float64 `yaml:"mob_attack_cooldown"`
	MobSpawnInterval     float64 `yaml:"mob_spawn_interval"`
	MobsPerWave          int     `yaml:"mobs_per_wave"`
	DamageCooldown       float64 `yaml:"damage_cooldown"`
	MeleeLifetime        float64 `yaml:"melee_lifetime"`
	FireballSpeed        float64 `yaml:"fireball_speed"`
	FireballRadius       float64 `yaml:"fireball_radius"`
	FireballDamage       int     `yaml:"fireball_damage"`
	ExplosionLifetime    float64 `yaml:"explosion_lifetime"`
	LinearDamping        float64 `yaml:"linear_damping"`
}

type StorageConfig struct {
	DataPath             string      `yaml:"data_path"`
	SnapshotEverySeconds int         `yaml:"snapshot_every_seconds"`
	PlayerRepo           string      `yaml:"player_repo"` // memory | redis | maria
	Redis                RedisConfig `yaml:"redis"`
	Maria                MariaConfig `yaml:"maria"`
}

type RedisConfig struct {
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	Prefix     string `yaml:"prefix"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

type MariaConfig struct {
	DSN string `yaml:"dsn"`
}

type EventBusConfig struct {
	URL       string `yaml:"url"`
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
	Capacity  int    `yaml:"capacity"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

var (
	ErrInvalidTileSize = errors.New("tile_size must be positive")
	ErrInvalidTickRate = errors.New("tick_rate must be positive")
	ErrInvalidSubTiles = errors.New("sub_tiles must be positive")
	ErrUnknownRepo     = errors.New("unknown player_repo")
)

// Default возвращает полностью заполненную конфигурацию
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			RESTPort:            8088,
			MetricsPort:         2112,
			WSPath:              "/ws",
			TickRate:            60,
			SnapshotEveryFrames: 6,
			LogLevel:            "info",
		},
		World: WorldConfig{
			Seed:              42,
			TileSize:          240,
			SubTiles:          5,
			GroundTileCount:   5,
			InitialHalfExtent: 5,
			InitialOpenRadius: 4,
			ViewportWidth:     1280,
			ViewportHeight:    720,
		},
		Gameplay: GameplayConfig{
			PlayerSpeed:          500,
			PlayerRadius:         25,
			MaxPlayerHealth:      10,
			PlayerDamage:         1,
			PlayerAttackCooldown: 0.5,
			MobSpeed:             200,
			MobWidth:             25,
			MobHeight:            50,
			MobHealth:            10,
			MobDamage:            1,
			MobAttackCooldown:    1,
			MobSpawnInterval:     5,
			MobsPerWave:          2,
			DamageCooldown:       0.3,
			MeleeLifetime:        0.2,
			FireballSpeed:        600,
			FireballRadius:       10,
			FireballDamage:       5,
			ExplosionLifetime:    0.2,
			LinearDamping:        20,
		},
		Storage: StorageConfig{
			DataPath:             "data/world",
			SnapshotEverySeconds: 30,
			PlayerRepo:           "memory",
			Redis: RedisConfig{
				Addr:       "localhost:6379",
				Prefix:     "ff:player:",
				TTLSeconds: 3600,
			},
		},
		EventBus: EventBusConfig{
			Stream:    "GAME_EVENTS",
			Retention: 24,
			Capacity:  1024,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "frozen-forest",
		},
	}
}

// Load читает YAML файл конфигурации поверх Default().
// Если path == "", пытается прочитать путь из ENV GAME_CONFIG, иначе возвращает дефолты.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("GAME_CONFIG")
		if path == "" {
			return cfg, nil // конфиг не задан, используем дефолты
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет значения, без которых мир не может работать
func (c *Config) Validate() error {
	if c.World.TileSize <= 0 {
		return ErrInvalidTileSize
	}
	if c.Server.TickRate <= 0 {
		return ErrInvalidTickRate
	}
	if c.World.SubTiles <= 0 {
		return ErrInvalidSubTiles
	}
	switch c.Storage.PlayerRepo {
	case "", "memory", "redis", "maria":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownRepo, c.Storage.PlayerRepo)
	}
	return nil
}

// GetRESTPort возвращает REST API порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "GAME_REST_PORT", 8088)
}

// GetMetricsPort возвращает Prometheus метрики порт с поддержкой fallback значений
func (s *ServerConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(s.MetricsPort, "GAME_METRICS_PORT", 2112)
}

// FrameDuration длительность одного кадра
func (s *ServerConfig) FrameDuration() time.Duration {
	rate := s.TickRate
	if rate <= 0 {
		rate = 60
	}
	return time.Second / time.Duration(rate)
}

// GetNATSURL адрес NATS: config -> GAME_NATS_URL. Пустая строка = in-memory шина.
func (e *EventBusConfig) GetNATSURL() string {
	if e.URL != "" {
		return e.URL
	}
	return os.Getenv("GAME_NATS_URL")
}

// GetRedisAddr адрес redis: config -> GAME_REDIS_ADDR -> localhost:6379
func (r *RedisConfig) GetRedisAddr() string {
	return getStringWithEnvFallback(r.Addr, "GAME_REDIS_ADDR", "localhost:6379")
}

// GetDSN строка подключения MariaDB: config -> GAME_MARIA_DSN
func (m *MariaConfig) GetDSN() string {
	return getStringWithEnvFallback(m.DSN, "GAME_MARIA_DSN", "frozen:frozen@tcp(localhost:3306)/frozen_forest?parseTime=true")
}

// TTL время жизни записей в redis
func (r *RedisConfig) TTL() time.Duration {
	return time.Duration(r.TTLSeconds) * time.Second
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	// Если порт задан в конфиге и больше 0, используем его
	if configPort > 0 {
		return configPort
	}

	// Пробуем прочитать из environment variable
	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

func getStringWithEnvFallback(configVal, envVar, defaultVal string) string {
	if configVal != "" {
		return configVal
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		return envVal
	}
	return defaultVal
}
