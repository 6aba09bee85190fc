// Package audit records who did what to the planner: network uploads and
// deletions, planning queries, passenger directory changes and operator
// logins. Entries are structured JSON lines written to stdout or a file.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Action классифицирует событие аудита
type Action string

const (
	// ActionCreate загрузка ресурса (сеть, пассажир)
	ActionCreate Action = "CREATE"
	// ActionDelete удаление ресурса
	ActionDelete Action = "DELETE"
	// ActionSolve расчёт максимального потока
	ActionSolve Action = "SOLVE"
	// ActionSelect выбор оптимальной сети
	ActionSelect Action = "SELECT"
	// ActionSchedule планирование смен контролёров
	ActionSchedule Action = "SCHEDULE"
	// ActionLogin выдача токена оператору
	ActionLogin Action = "LOGIN"
)

// Outcome результат действия
type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomeFailure Outcome = "FAILURE"
	OutcomeDenied  Outcome = "DENIED"
)

// Entry одна запись журнала аудита
type Entry struct {
	ID         string         `json:"id"`
	Timestamp  time.Time      `json:"timestamp"`
	Service    string         `json:"service"`
	Method     string         `json:"method"`
	Action     Action         `json:"action"`
	Outcome    Outcome        `json:"outcome"`
	Username   string         `json:"username,omitempty"`
	ClientIP   string         `json:"client_ip,omitempty"`
	Resource   string         `json:"resource,omitempty"`
	ResourceID string         `json:"resource_id,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	DurationMs int64          `json:"duration_ms"`
	ErrorCode  string         `json:"error_code,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Logger приёмник записей аудита
type Logger interface {
	// Log записывает событие аудита.
	Log(ctx context.Context, entry *Entry) error

	// Close останавливает логгер и освобождает ресурсы.
	Close() error
}

// Config конфигурация журнала аудита
type Config struct {
	Enabled     bool          `koanf:"enabled"`
	Backend     string        `koanf:"backend"` // stdout, file
	FilePath    string        `koanf:"file_path"`
	BufferSize  int           `koanf:"buffer_size"`
	FlushPeriod time.Duration `koanf:"flush_period"`
}

// DefaultConfig значения по умолчанию
func DefaultConfig() *Config {
	return &Config{
		Enabled:     true,
		Backend:     "stdout",
		BufferSize:  1000,
		FlushPeriod: 5 * time.Second,
	}
}

// Builder собирает Entry по частям
type Builder struct {
	entry *Entry
}

// NewEntry создаёт билдер с проставленной меткой времени
func NewEntry() *Builder {
	return &Builder{
		entry: &Entry{
			Timestamp: time.Now(),
		},
	}
}

// Service задаёт имя сервиса
func (b *Builder) Service(s string) *Builder {
	b.entry.Service = s
	return b
}

// Method задаёт метод или маршрут
func (b *Builder) Method(m string) *Builder {
	b.entry.Method = m
	return b
}

// Action задаёт тип действия
func (b *Builder) Action(a Action) *Builder {
	b.entry.Action = a
	return b
}

// Outcome задаёт исход действия
func (b *Builder) Outcome(o Outcome) *Builder {
	b.entry.Outcome = o
	return b
}

// User задаёт имя пользователя
func (b *Builder) User(username string) *Builder {
	b.entry.Username = username
	return b
}

// Client задаёт IP клиента
func (b *Builder) Client(ip string) *Builder {
	b.entry.ClientIP = ip
	return b
}

// Resource задаёт тип и идентификатор ресурса
func (b *Builder) Resource(resource, resourceID string) *Builder {
	b.entry.Resource = resource
	b.entry.ResourceID = resourceID
	return b
}

// RequestID задаёт идентификатор запроса
func (b *Builder) RequestID(id string) *Builder {
	b.entry.RequestID = id
	return b
}

// Duration задаёт длительность операции
func (b *Builder) Duration(d time.Duration) *Builder {
	b.entry.DurationMs = d.Milliseconds()
	return b
}

// Error задаёт код ошибки при неуспешном исходе
func (b *Builder) Error(code string) *Builder {
	b.entry.ErrorCode = code
	return b
}

// Meta добавляет произвольную пару ключ-значение
func (b *Builder) Meta(key string, value any) *Builder {
	if b.entry.Metadata == nil {
		b.entry.Metadata = make(map[string]any)
	}
	b.entry.Metadata[key] = value
	return b
}

// Build завершает сборку записи и присваивает ей идентификатор
func (b *Builder) Build() *Entry {
	if b.entry.ID == "" {
		b.entry.ID = uuid.NewString()
	}
	return b.entry
}
