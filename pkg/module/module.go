// Package module provides the public SDK types for StudyHall modules.
// Every feature area of the platform (roster, schedule, reports, chat, ...)
// implements these interfaces and is wired together by the registry.
package module

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// API version constants for module compatibility checking.
// The registry rejects modules outside the supported range.
const (
	APIVersionMin     = 1 // Oldest module API version this server supports
	APIVersionCurrent = 1 // Current module API version
)

// Module defines the interface that all StudyHall feature modules must implement.
type Module interface {
	// Info returns the module's metadata and dependency declarations.
	Info() ModuleInfo

	// Init initializes the module with its dependencies.
	Init(ctx context.Context, deps Dependencies) error

	// Start begins the module's background operations.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the module.
	Stop(ctx context.Context) error
}

// ModuleInfo contains module metadata and dependency declarations.
type ModuleInfo struct {
	Name         string   // Unique identifier: "roster", "schedule", "reports", etc.
	Version      string   // Semantic version string
	Description  string   // Human-readable summary
	Dependencies []string // Module names that must initialize first
	Required     bool     // If true, server refuses to start without this module
	Roles        []string // Roles this module fills: "directory", "notifier"
	APIVersion   int      // Module API version targeted (currently 1)
}

// Dependencies provides controlled access to shared services.
// Injected by the registry during Init.
type Dependencies struct {
	Config  Config      // Scoped to this module's config section
	Logger  *zap.Logger // Named logger for this module
	Store   Store       // Shared database access with per-module migrations
	Bus     EventBus    // Event publish/subscribe for inter-module communication
	Modules ModuleResolver
}

// Route represents an HTTP route exposed by a module.
type Route struct {
	Method  string
	Path    string
	Handler http.HandlerFunc
}

// HTTPProvider is implemented by modules that expose HTTP routes.
// Routes are mounted under /api/v1/<module-name>/.
type HTTPProvider interface {
	Routes() []Route
}

// Validator is implemented by modules that want config validation after Init.
type Validator interface {
	ValidateConfig() error
}

// HealthStatus represents a module's health report.
type HealthStatus struct {
	Status  string            `json:"status"` // "healthy", "degraded", "unhealthy"
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// Config abstracts configuration access. Wraps Viper today, replaceable later.
type Config interface {
	Unmarshal(target any) error
	Get(key string) any
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	GetDuration(key string) time.Duration
	IsSet(key string) bool
	Sub(key string) Config
}

// Store provides shared SQLite access. Modules own their tables and
// register schema changes through Migrate during Init.
type Store interface {
	// DB returns the underlying database handle.
	DB() *sql.DB

	// Tx runs fn inside a transaction, committing on nil and rolling back on error.
	Tx(ctx context.Context, fn func(*sql.Tx) error) error

	// Migrate applies the module's pending migrations in version order.
	// Applied versions are tracked per module and never rerun.
	Migrate(ctx context.Context, module string, migrations []Migration) error
}

// Migration is a single versioned schema change owned by one module.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// Publisher sends events to the bus. Use this thin interface in code
// that only needs to emit events (follows io.Writer pattern).
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Subscriber receives events from the bus. Use this thin interface in
// code that only needs to listen for events (follows io.Reader pattern).
type Subscriber interface {
	Subscribe(topic string, handler EventHandler) (unsubscribe func())
}

// EventBus provides typed publish/subscribe for inter-module communication.
// Composes Publisher and Subscriber with async and wildcard extensions.
type EventBus interface {
	Publisher
	Subscriber
	PublishAsync(ctx context.Context, event Event)
	SubscribeAll(handler EventHandler) (unsubscribe func())
}

// Event represents a typed message on the event bus.
type Event struct {
	Topic     string
	Source    string // Module name that emitted the event
	Timestamp time.Time
	Payload   any // Type depends on topic
}

// EventHandler processes events from the bus.
type EventHandler func(ctx context.Context, event Event)

// Subscription declares a topic subscription for EventSubscriber modules.
type Subscription struct {
	Topic   string
	Handler EventHandler
}

// EventSubscriber is implemented by modules that declare bus subscriptions
// up front; the registry wires them after Init and tears them down on Stop.
type EventSubscriber interface {
	Subscriptions() []Subscription
}

// ModuleResolver allows modules to locate other modules by name or role.
type ModuleResolver interface {
	Resolve(name string) (Module, bool)
	ResolveByRole(role string) []Module
}
