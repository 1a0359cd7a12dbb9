package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		filePath  string
		wantErr   bool
		errString string
	}{
		{
			name:     "valid config file",
			filePath: "testdata/valid_config.yaml",
			wantErr:  false,
		},
		{
			name:      "non-existent file",
			filePath:  "testdata/nonexistent.yaml",
			wantErr:   true,
			errString: "failed to read config file",
		},
		{
			name:      "malformed yaml",
			filePath:  "testdata/malformed.yaml",
			wantErr:   true,
			errString: "failed to parse config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(tt.filePath)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
				assert.Nil(t, cfg)
			} else {
				require.NoError(t, err)
				require.NotNil(t, cfg)

				// Verify some key fields are populated
				assert.Equal(t, "render-api-service", cfg.App.Name)
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, "postgres", cfg.JobStore.Driver)
				assert.Equal(t, "render_jobs", cfg.Database.Database)
				assert.Equal(t, "sqs", cfg.Queue.Driver)
				assert.Equal(t, 5*time.Minute, cfg.Queue.SQS.VisibilityTimeout)
				assert.Equal(t, "render_jobs", cfg.Queue.RabbitMQ.QueueName)
				assert.Equal(t, "render-artifacts", cfg.Storage.Bucket)
				assert.Equal(t, 20*time.Second, cfg.Worker.PollWait)
				assert.Equal(t, "/tmp/render-workspaces", cfg.Worker.WorkspaceRoot)
			}
		})
	}
}

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		JobStore: JobStoreConfig{Driver: "postgres"},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			Database: "render_jobs",
		},
		Queue: QueueConfig{
			Driver: "sqs",
			SQS: SQSConfig{
				Region:   "us-east-1",
				QueueURL: "https://sqs.us-east-1.amazonaws.com/000000000000/render-jobs",
			},
		},
		Storage: StorageConfig{
			Driver: "s3",
			Bucket: "render-artifacts",
			S3:     S3Config{Region: "us-east-1"},
		},
		Worker: WorkerConfig{
			PollWait:      20 * time.Second,
			IdleDelay:     time.Second,
			ErrorBackoff:  5 * time.Second,
			WorkspaceRoot: "/tmp/render-workspaces",
		},
	}
}

func TestValidateAPIConfig(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantErr   bool
		errString string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:      "invalid server port",
			mutate:    func(c *Config) { c.Server.Port = 0 },
			wantErr:   true,
			errString: "invalid server port",
		},
		{
			name:      "unknown job store driver",
			mutate:    func(c *Config) { c.JobStore.Driver = "sqlite" },
			wantErr:   true,
			errString: "unknown job_store driver",
		},
		{
			name:      "postgres without host",
			mutate:    func(c *Config) { c.Database.Host = "" },
			wantErr:   true,
			errString: "database host is required",
		},
		{
			name:      "sqs without queue url",
			mutate:    func(c *Config) { c.Queue.SQS.QueueURL = "" },
			wantErr:   true,
			errString: "sqs queue_url is required",
		},
		{
			name: "rabbitmq without queue name",
			mutate: func(c *Config) {
				c.Queue.Driver = "rabbitmq"
				c.Queue.RabbitMQ.Host = "localhost"
				c.Queue.RabbitMQ.Port = 5672
			},
			wantErr:   true,
			errString: "rabbitmq queue_name is required",
		},
		{
			name:      "missing storage bucket",
			mutate:    func(c *Config) { c.Storage.Bucket = "" },
			wantErr:   true,
			errString: "storage bucket is required",
		},
		{
			name:      "local storage without root",
			mutate:    func(c *Config) { c.Storage.Driver = "local"; c.Storage.Local.Root = "" },
			wantErr:   true,
			errString: "local storage root is required",
		},
		{
			name:      "unknown queue driver",
			mutate:    func(c *Config) { c.Queue.Driver = "kafka" },
			wantErr:   true,
			errString: "unknown queue driver",
		},
		{
			name:   "memory drivers need no extra fields",
			mutate: func(c *Config) {
				c.JobStore.Driver = "memory"
				c.Queue.Driver = "memory"
				c.Database = DatabaseConfig{}
				c.Queue.SQS = SQSConfig{}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.ValidateAPIConfig()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateWorkerConfig(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantErr   bool
		errString string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:      "zero poll wait",
			mutate:    func(c *Config) { c.Worker.PollWait = 0 },
			wantErr:   true,
			errString: "poll_wait must be greater than 0",
		},
		{
			name:      "negative idle delay",
			mutate:    func(c *Config) { c.Worker.IdleDelay = -time.Second },
			wantErr:   true,
			errString: "idle_delay must not be negative",
		},
		{
			name:      "missing workspace root",
			mutate:    func(c *Config) { c.Worker.WorkspaceRoot = "" },
			wantErr:   true,
			errString: "workspace_root is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.ValidateWorkerConfig()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
