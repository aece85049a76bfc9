// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Model() ModelConfig
	Training() TrainingConfig
	Engine() EngineConfig
	Store() StoreConfig
	Data() DataConfig

	// Model setters
	SetModelDir(string)

	// Training setters
	SetTrainingEpochs(int)
	SetTrainingLearningRate(float64)

	// Engine setters
	SetEngineConfidencePasses(int)

	// Store setters
	SetStoreEnabled(bool)

	// Data setters
	SetDataDir(string)
}

// Config holds the entire application configuration. It uses private fields
// to enforce access through the Interface's getter methods.
type Config struct {
	logger   LoggerConfig
	model    ModelConfig
	training TrainingConfig
	engine   EngineConfig
	store    StoreConfig
	data     DataConfig
}

// Compile-time check that *Config satisfies Interface.
var _ Interface = (*Config)(nil)

func (c *Config) Logger() LoggerConfig     { return c.logger }
func (c *Config) Model() ModelConfig       { return c.model }
func (c *Config) Training() TrainingConfig { return c.training }
func (c *Config) Engine() EngineConfig     { return c.engine }
func (c *Config) Store() StoreConfig       { return c.store }
func (c *Config) Data() DataConfig         { return c.data }

func (c *Config) SetModelDir(dir string)              { c.model.Dir = dir }
func (c *Config) SetTrainingEpochs(n int)             { c.training.Epochs = n }
func (c *Config) SetTrainingLearningRate(lr float64)  { c.training.LearningRate = lr }
func (c *Config) SetEngineConfidencePasses(n int)     { c.engine.ConfidencePasses = n }
func (c *Config) SetStoreEnabled(b bool)              { c.store.Enabled = b }
func (c *Config) SetDataDir(dir string)               { c.data.Dir = dir }

// LoggerConfig controls log output, formatting and rotation.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"` // "console" or "json".
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`

	// File output; rotation handled by lumberjack. Empty LogFile disables
	// file logging.
	LogFile    string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size"` // Megabytes.
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"` // Days.
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// ModelConfig describes the network architecture and artifact location.
type ModelConfig struct {
	// Dir is where model snapshots are saved and loaded. Supports ~
	// expansion.
	Dir string `mapstructure:"dir" yaml:"dir"`

	// HiddenLayers are the widths of the hidden layers, input to output.
	HiddenLayers []int `mapstructure:"hidden_layers" yaml:"hidden_layers"`

	// DropoutRate is the per-unit drop probability used for stochastic
	// confidence passes. Must be in [0, 1).
	DropoutRate float64 `mapstructure:"dropout_rate" yaml:"dropout_rate"`

	// Seed fixes weight initialization and stochastic passes for
	// reproducible runs. Zero means seed from entropy.
	Seed int64 `mapstructure:"seed" yaml:"seed"`
}

// TrainingConfig holds the knobs for the SGD training loop.
type TrainingConfig struct {
	LearningRate float64 `mapstructure:"learning_rate" yaml:"learning_rate"`
	Epochs       int     `mapstructure:"epochs" yaml:"epochs"`
	BatchSize    int     `mapstructure:"batch_size" yaml:"batch_size"`
}

// EngineConfig holds the prediction engine knobs.
type EngineConfig struct {
	// ConfidencePasses is the number of stochastic passes used to estimate
	// prediction confidence.
	ConfidencePasses int `mapstructure:"confidence_passes" yaml:"confidence_passes"`

	// TopFeatures is how many ranked features an explanation returns.
	TopFeatures int `mapstructure:"top_features" yaml:"top_features"`

	// BatchConcurrency bounds the goroutines used by batch prediction.
	BatchConcurrency int `mapstructure:"batch_concurrency" yaml:"batch_concurrency"`
}

// PostgresConfig holds connection settings for the sample archive.
type PostgresConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	User     string `mapstructure:"user" yaml:"user"`
	Password string `mapstructure:"password" yaml:"password"`
	DBName   string `mapstructure:"dbname" yaml:"dbname"`
	SSLMode  string `mapstructure:"sslmode" yaml:"sslmode"`
}

// DSN renders the connection string pgx expects.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DBName, p.SSLMode)
}

// StoreConfig controls the optional training-sample archive.
type StoreConfig struct {
	Enabled  bool           `mapstructure:"enabled" yaml:"enabled"`
	Postgres PostgresConfig `mapstructure:"postgres" yaml:"postgres"`
}

// DataConfig controls usage-data ingestion.
type DataConfig struct {
	// Dir is the default location for usage and training data files.
	// Supports ~ expansion.
	Dir string `mapstructure:"dir" yaml:"dir"`

	// FollowFlushInterval is how often follow mode flushes buffered feed
	// records to its consumer: store writes for collect, incremental
	// training passes for train.
	FollowFlushInterval time.Duration `mapstructure:"follow_flush_interval" yaml:"follow_flush_interval"`
}

// fileConfig mirrors Config with exported fields so viper can unmarshal it.
type fileConfig struct {
	Logger   LoggerConfig   `mapstructure:"logger"`
	Model    ModelConfig    `mapstructure:"model"`
	Training TrainingConfig `mapstructure:"training"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Store    StoreConfig    `mapstructure:"store"`
	Data     DataConfig     `mapstructure:"data"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	cfg, err := NewConfigFromViper(v)
	if err != nil {
		// Unreachable with defaults; fail loudly if the defaults ever rot.
		panic(fmt.Sprintf("failed to build default config: %v", err))
	}
	return cfg
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "scaletuner")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Model --
	v.SetDefault("model.dir", "~/.scaletuner/models")
	v.SetDefault("model.hidden_layers", []int{64, 32})
	v.SetDefault("model.dropout_rate", 0.2)
	v.SetDefault("model.seed", 0)

	// -- Training --
	v.SetDefault("training.learning_rate", 0.01)
	v.SetDefault("training.epochs", 50)
	v.SetDefault("training.batch_size", 16)

	// -- Engine --
	v.SetDefault("engine.confidence_passes", 20)
	v.SetDefault("engine.top_features", 10)
	v.SetDefault("engine.batch_concurrency", 4)

	// -- Store --
	v.SetDefault("store.enabled", false)
	v.SetDefault("store.postgres.host", "localhost")
	v.SetDefault("store.postgres.port", 5432)
	v.SetDefault("store.postgres.user", "postgres")
	v.SetDefault("store.postgres.password", "") // Should be set via env var.
	v.SetDefault("store.postgres.dbname", "scaletuner")
	v.SetDefault("store.postgres.sslmode", "disable")

	// -- Data --
	v.SetDefault("data.dir", "~/.scaletuner/data")
	v.SetDefault("data.follow_flush_interval", "5s")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	// Bind environment variables for sensitive data.
	v.BindEnv("store.postgres.password", "SCALETUNER_STORE_PASSWORD")

	var raw fileConfig
	if err := v.Unmarshal(&raw); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Manually load the password if Unmarshal didn't pick it up.
	if raw.Store.Enabled && raw.Store.Postgres.Password == "" {
		raw.Store.Postgres.Password = os.Getenv("SCALETUNER_STORE_PASSWORD")
	}

	for _, p := range []*string{&raw.Model.Dir, &raw.Data.Dir} {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return nil, fmt.Errorf("error expanding path %q: %w", *p, err)
		}
		*p = expanded
	}

	cfg := &Config{
		logger:   raw.Logger,
		model:    raw.Model,
		training: raw.Training,
		engine:   raw.Engine,
		store:    raw.Store,
		data:     raw.Data,
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if len(c.model.HiddenLayers) == 0 {
		return fmt.Errorf("model.hidden_layers must declare at least one layer")
	}
	for i, w := range c.model.HiddenLayers {
		if w <= 0 {
			return fmt.Errorf("model.hidden_layers[%d] must be a positive width, got %d", i, w)
		}
	}
	if c.model.DropoutRate < 0 || c.model.DropoutRate >= 1 {
		return fmt.Errorf("model.dropout_rate must be in [0, 1), got %g", c.model.DropoutRate)
	}
	if c.training.LearningRate <= 0 {
		return fmt.Errorf("training.learning_rate must be positive")
	}
	if c.training.Epochs <= 0 {
		return fmt.Errorf("training.epochs must be a positive integer")
	}
	if c.training.BatchSize <= 0 {
		return fmt.Errorf("training.batch_size must be a positive integer")
	}
	if c.engine.ConfidencePasses <= 1 {
		return fmt.Errorf("engine.confidence_passes must be at least 2 to estimate variance")
	}
	if c.engine.TopFeatures <= 0 {
		return fmt.Errorf("engine.top_features must be a positive integer")
	}
	if c.engine.BatchConcurrency <= 0 {
		return fmt.Errorf("engine.batch_concurrency must be a positive integer")
	}
	if c.store.Enabled {
		if c.store.Postgres.Host == "" || c.store.Postgres.DBName == "" {
			return fmt.Errorf("store.postgres.host and store.postgres.dbname are required when the store is enabled")
		}
	}
	if c.data.FollowFlushInterval <= 0 {
		return fmt.Errorf("data.follow_flush_interval must be a positive duration")
	}
	return nil
}
