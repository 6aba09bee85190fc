package ratelimit

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Стандартные ошибки
var (
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrLimiterClosed     = errors.New("limiter is closed")
)

// Limiter интерфейс ограничителя запросов
type Limiter interface {
	// Allow проверяет, разрешён ли запрос
	Allow(ctx context.Context, key string) (bool, error)

	// AllowN проверяет, разрешены ли n запросов
	AllowN(ctx context.Context, key string, n int) (bool, error)

	// Wait блокирует до получения разрешения
	Wait(ctx context.Context, key string) error

	// Reset сбрасывает лимит для ключа
	Reset(ctx context.Context, key string) error

	// GetInfo возвращает информацию о текущем состоянии
	GetInfo(ctx context.Context, key string) (*LimitInfo, error)

	// Close закрывает лимитер
	Close() error
}

// LimitInfo информация о состоянии лимита
type LimitInfo struct {
	Limit      int           `json:"limit"`
	Remaining  int           `json:"remaining"`
	ResetAt    time.Time     `json:"reset_at"`
	RetryAfter time.Duration `json:"retry_after,omitempty"`
}

// Config конфигурация rate limiter
type Config struct {
	// Requests количество запросов
	Requests int `koanf:"requests"`

	// Window временное окно
	Window time.Duration `koanf:"window"`

	// Strategy стратегия (sliding_window, token_bucket, fixed_window)
	Strategy string `koanf:"strategy"`

	// KeyFunc функция извлечения ключа (ip, user, route)
	KeyFunc string `koanf:"key_func"`

	// Backend хранилище (memory, redis)
	Backend string `koanf:"backend"`

	// BurstSize размер burst для token bucket
	BurstSize int `koanf:"burst_size"`

	// CleanupInterval интервал очистки для in-memory
	CleanupInterval time.Duration `koanf:"cleanup_interval"`

	// Redis настройки Redis
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		Requests:        100,
		Window:          time.Minute,
		Strategy:        "sliding_window",
		KeyFunc:         "ip",
		Backend:         "memory",
		BurstSize:       10,
		CleanupInterval: 5 * time.Minute,
	}
}

// New создаёт лимитер на основе конфигурации
func New(cfg *Config) (Limiter, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	switch cfg.Backend {
	case "redis":
		return NewRedisLimiter(cfg)
	case "memory", "":
		return NewMemoryLimiter(cfg), nil
	default:
		return NewMemoryLimiter(cfg), nil
	}
}

// KeyExtractor функция извлечения ключа из HTTP-запроса
type KeyExtractor func(r *http.Request) string

// IPKeyExtractor извлекает ключ по IP клиента
func IPKeyExtractor(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// Берём первый адрес из цепочки
		if idx := strings.Index(xff, ","); idx > 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if ip := r.Header.Get("X-Real-Ip"); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}

// RouteKeyExtractor извлекает ключ по методу и пути
func RouteKeyExtractor(r *http.Request) string {
	return r.Method + " " + r.URL.Path
}

// UserKeyExtractor извлекает ключ по пользователю, иначе по IP
func UserKeyExtractor(r *http.Request) string {
	if userID := r.Header.Get("X-User-Id"); userID != "" {
		return userID
	}
	return IPKeyExtractor(r)
}

// CompositeKeyExtractor комбинирует несколько ключей
func CompositeKeyExtractor(extractors ...KeyExtractor) KeyExtractor {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(extractors))
		for _, ext := range extractors {
			parts = append(parts, ext(r))
		}
		return strings.Join(parts, ":")
	}
}

// ExtractorByName возвращает экстрактор по имени из конфигурации
func ExtractorByName(name string) KeyExtractor {
	switch name {
	case "user":
		return UserKeyExtractor
	case "route":
		return RouteKeyExtractor
	case "ip", "":
		return IPKeyExtractor
	default:
		return IPKeyExtractor
	}
}

// RateLimitedRoutes лимиты по маршрутам
type RateLimitedRoutes struct {
	mu            sync.RWMutex
	routes        map[string]*Config
	defaultConfig *Config
}

// NewRateLimitedRoutes создаёт конфигурацию маршрутов
func NewRateLimitedRoutes(defaultCfg *Config) *RateLimitedRoutes {
	if defaultCfg == nil {
		defaultCfg = DefaultConfig()
	}
	return &RateLimitedRoutes{
		routes:        make(map[string]*Config),
		defaultConfig: defaultCfg,
	}
}

// Set устанавливает лимит для маршрута
func (r *RateLimitedRoutes) Set(route string, cfg *Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[route] = cfg
}

// Get возвращает конфигурацию для маршрута
func (r *RateLimitedRoutes) Get(route string) *Config {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if cfg, ok := r.routes[route]; ok {
		return cfg
	}
	return r.defaultConfig
}
