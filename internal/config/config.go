package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// MinPort is the minimum valid port number
	MinPort = 1
	// MaxPort is the maximum valid port number
	MaxPort = 65535
)

// Config represents the complete application configuration
type Config struct {
	App      AppConfig      `yaml:"app"`
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
	JobStore JobStoreConfig `yaml:"job_store"`
	Database DatabaseConfig `yaml:"database"`
	Queue    QueueConfig    `yaml:"queue"`
	Storage  StorageConfig  `yaml:"storage"`
	Worker   WorkerConfig   `yaml:"worker"`
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level        string `yaml:"level"`
	Format       string `yaml:"format"`
	Output       string `yaml:"output"`
	EnableCaller bool   `yaml:"enable_caller"`
}

// JobStoreConfig selects the job record store backend
type JobStoreConfig struct {
	Driver string `yaml:"driver"` // postgres, memory
}

// DatabaseConfig holds PostgreSQL connection configuration
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

// QueueConfig selects and configures the dispatch queue backend
type QueueConfig struct {
	Driver   string         `yaml:"driver"` // sqs, rabbitmq, memory
	SQS      SQSConfig      `yaml:"sqs"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
}

// SQSConfig holds SQS queue configuration
type SQSConfig struct {
	Region            string        `yaml:"region"`
	Endpoint          string        `yaml:"endpoint"`
	QueueURL          string        `yaml:"queue_url"`
	AccessKeyID       string        `yaml:"access_key_id"`
	SecretAccessKey   string        `yaml:"secret_access_key"`
	VisibilityTimeout time.Duration `yaml:"visibility_timeout"`
}

// RabbitMQConfig holds RabbitMQ connection and queue configuration
type RabbitMQConfig struct {
	Host       string           `yaml:"host"`
	Port       int              `yaml:"port"`
	User       string           `yaml:"user"`
	Password   string           `yaml:"password"`
	VHost      string           `yaml:"vhost"`
	QueueName  string           `yaml:"queue_name"`
	Durable    bool             `yaml:"durable"`
	Connection ConnectionConfig `yaml:"connection"`
}

// ConnectionConfig holds RabbitMQ connection retry settings
type ConnectionConfig struct {
	RetryAttempts int           `yaml:"retry_attempts"`
	RetryInterval time.Duration `yaml:"retry_interval"`
	Heartbeat     time.Duration `yaml:"heartbeat"`
	DialTimeout   time.Duration `yaml:"dial_timeout"`
}

// StorageConfig selects and configures the artifact store backend
type StorageConfig struct {
	Driver string        `yaml:"driver"` // s3, local
	Bucket string        `yaml:"bucket"`
	S3     S3Config      `yaml:"s3"`
	Local  LocalFSConfig `yaml:"local"`
}

// S3Config holds S3 artifact store configuration
type S3Config struct {
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	UsePathStyle    bool   `yaml:"use_path_style"`
	PublicURL       string `yaml:"public_url"`
}

// LocalFSConfig holds local filesystem artifact store configuration
type LocalFSConfig struct {
	Root string `yaml:"root"`
}

// WorkerConfig holds worker service configuration
type WorkerConfig struct {
	PollWait      time.Duration `yaml:"poll_wait"`
	IdleDelay     time.Duration `yaml:"idle_delay"`
	ErrorBackoff  time.Duration `yaml:"error_backoff"`
	WorkspaceRoot string        `yaml:"workspace_root"`
	ZipCommand    string        `yaml:"zip_command"`
}

// Load reads and parses the configuration file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// ValidateAPIConfig checks the fields the API service depends on
func (c *Config) ValidateAPIConfig() error {
	if c.Server.Port < MinPort || c.Server.Port > MaxPort {
		return fmt.Errorf("invalid server port: %d (must be between %d and %d)", c.Server.Port, MinPort, MaxPort)
	}

	return c.validateShared()
}

// ValidateWorkerConfig checks the fields the worker service depends on
func (c *Config) ValidateWorkerConfig() error {
	if c.Worker.PollWait <= 0 {
		return fmt.Errorf("worker poll_wait must be greater than 0")
	}

	if c.Worker.IdleDelay < 0 {
		return fmt.Errorf("worker idle_delay must not be negative")
	}

	if c.Worker.WorkspaceRoot == "" {
		return fmt.Errorf("worker workspace_root is required")
	}

	return c.validateShared()
}

// validateShared checks the sections both services depend on
func (c *Config) validateShared() error {
	switch c.JobStore.Driver {
	case "memory":
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.Port < MinPort || c.Database.Port > MaxPort {
			return fmt.Errorf("invalid database port: %d (must be between %d and %d)", c.Database.Port, MinPort, MaxPort)
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
	default:
		return fmt.Errorf("unknown job_store driver: %q", c.JobStore.Driver)
	}

	switch c.Queue.Driver {
	case "memory":
	case "sqs":
		if c.Queue.SQS.QueueURL == "" {
			return fmt.Errorf("sqs queue_url is required")
		}
		if c.Queue.SQS.Region == "" {
			return fmt.Errorf("sqs region is required")
		}
	case "rabbitmq":
		if c.Queue.RabbitMQ.Host == "" {
			return fmt.Errorf("rabbitmq host is required")
		}
		if c.Queue.RabbitMQ.Port < MinPort || c.Queue.RabbitMQ.Port > MaxPort {
			return fmt.Errorf("invalid rabbitmq port: %d (must be between %d and %d)", c.Queue.RabbitMQ.Port, MinPort, MaxPort)
		}
		if c.Queue.RabbitMQ.QueueName == "" {
			return fmt.Errorf("rabbitmq queue_name is required")
		}
	default:
		return fmt.Errorf("unknown queue driver: %q", c.Queue.Driver)
	}

	if c.Storage.Bucket == "" {
		return fmt.Errorf("storage bucket is required")
	}

	switch c.Storage.Driver {
	case "s3":
		if c.Storage.S3.Region == "" {
			return fmt.Errorf("s3 region is required")
		}
	case "local":
		if c.Storage.Local.Root == "" {
			return fmt.Errorf("local storage root is required")
		}
	default:
		return fmt.Errorf("unknown storage driver: %q", c.Storage.Driver)
	}

	return nil
}
