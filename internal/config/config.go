package config

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Tasks    TasksConfig    `mapstructure:"tasks" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port                   int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel               string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	LogFormat              string `mapstructure:"log_format" validate:"required,oneof=json text"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds" validate:"gte=1"`
}

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	// Driver selects the SQL dialect: sqlite, postgres or mysql.
	Driver string `mapstructure:"driver" validate:"required,oneof=sqlite postgres mysql"`
	// URL is a file path for sqlite, a connection URL for postgres and a
	// go-sql-driver DSN for mysql.
	URL          string `mapstructure:"url" validate:"required"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" validate:"gte=0"`
	// AutoMigrate applies the bundled schema on startup.
	AutoMigrate bool `mapstructure:"auto_migrate"`
}

// Consistency levels for batch admission.
const (
	// ConsistencyWeak runs count, evict and insert as separate statements.
	// Concurrent batches for one user may over-evict or briefly exceed the ceiling.
	ConsistencyWeak = "weak"
	// ConsistencySerialized holds a per-user lock for the whole batch and runs
	// each item's count, evict and insert in one transaction.
	ConsistencySerialized = "serialized"
)

// TasksConfig contains the task admission policy settings.
type TasksConfig struct {
	MaxOpen      int    `mapstructure:"max_open" validate:"gte=1"`
	MaxBatchSize int    `mapstructure:"max_batch_size" validate:"gte=1"`
	Consistency  string `mapstructure:"consistency" validate:"required,oneof=weak serialized"`
	// StrictClose makes closing an unknown task a not-found error instead of
	// reporting success.
	StrictClose bool `mapstructure:"strict_close"`
}
