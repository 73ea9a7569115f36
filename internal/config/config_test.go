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
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, "localhost", cfg.Database.Host)
				assert.Equal(t, "content_ingest", cfg.Database.Database)
				assert.Equal(t, "ingest_exchange", cfg.RabbitMQ.Exchange.Name)
				assert.Equal(t, "ingest_jobs", cfg.RabbitMQ.Queue.Name)
				assert.Equal(t, "content-ingest", cfg.App.Name)
				assert.Equal(t, 3, cfg.Resilience.Retry.MaxAttempts)
				assert.Equal(t, 2*time.Second, cfg.Resilience.Retry.InitialDelay)
				assert.Equal(t, 5, cfg.Resilience.Breaker.FailureThreshold)
				assert.Equal(t, 60*time.Second, cfg.Resilience.Breaker.ResetWindow)
				assert.Equal(t, "*/5 * * * *", cfg.Scheduler.CronSpec)
				assert.Equal(t, 40, cfg.Pipeline.MinContentLength)
			}
		})
	}
}

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			Database: "content_ingest",
		},
		RabbitMQ: RabbitMQConfig{
			Host: "localhost",
			Port: 5672,
			Exchange: ExchangeConfig{
				Name: "ingest_exchange",
			},
			Queue: QueueConfig{
				Name: "ingest_jobs",
			},
		},
		Worker: WorkerConfig{
			Concurrency:     5,
			JobTimeout:      5 * time.Minute,
			ShutdownTimeout: 30 * time.Second,
		},
		Resilience: ResilienceConfig{
			Retry:   RetryConfig{MaxAttempts: 3, InitialDelay: 2 * time.Second, BackoffMultiplier: 2, MaxDelay: 30 * time.Second},
			Breaker: BreakerConfig{FailureThreshold: 5, ResetWindow: time.Minute},
		},
		Scheduler: SchedulerConfig{
			CronSpec:            "*/5 * * * *",
			MaxPendingPerSource: 3,
			SourceInterval:      time.Minute,
			SourceBurst:         2,
		},
	}
}

func TestValidateAPIConfig(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantErr   bool
		errString string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:      "invalid server port - too low",
			mutate:    func(c *Config) { c.Server.Port = 0 },
			wantErr:   true,
			errString: "invalid server port",
		},
		{
			name:      "invalid server port - too high",
			mutate:    func(c *Config) { c.Server.Port = 70000 },
			wantErr:   true,
			errString: "invalid server port",
		},
		{
			name:      "empty database host",
			mutate:    func(c *Config) { c.Database.Host = "" },
			wantErr:   true,
			errString: "database host is required",
		},
		{
			name:      "empty database name",
			mutate:    func(c *Config) { c.Database.Database = "" },
			wantErr:   true,
			errString: "database name is required",
		},
		{
			name:      "empty rabbitmq host",
			mutate:    func(c *Config) { c.RabbitMQ.Host = "" },
			wantErr:   true,
			errString: "rabbitmq host is required",
		},
		{
			name:      "empty exchange name",
			mutate:    func(c *Config) { c.RabbitMQ.Exchange.Name = "" },
			wantErr:   true,
			errString: "rabbitmq exchange name is required",
		},
		{
			name:      "empty queue name",
			mutate:    func(c *Config) { c.RabbitMQ.Queue.Name = "" },
			wantErr:   true,
			errString: "rabbitmq queue name is required",
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
				require.NoError(t, err)
			}
		})
	}
}

func TestValidateWorkerConfig(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantErr   bool
		errString string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:      "zero concurrency",
			mutate:    func(c *Config) { c.Worker.Concurrency = 0 },
			wantErr:   true,
			errString: "worker concurrency",
		},
		{
			name:      "zero job timeout",
			mutate:    func(c *Config) { c.Worker.JobTimeout = 0 },
			wantErr:   true,
			errString: "worker job_timeout",
		},
		{
			name:      "zero retry attempts",
			mutate:    func(c *Config) { c.Resilience.Retry.MaxAttempts = 0 },
			wantErr:   true,
			errString: "retry max_attempts",
		},
		{
			name:      "zero breaker threshold",
			mutate:    func(c *Config) { c.Resilience.Breaker.FailureThreshold = 0 },
			wantErr:   true,
			errString: "failure_threshold",
		},
		{
			name:      "missing cron spec",
			mutate:    func(c *Config) { c.Scheduler.CronSpec = "" },
			wantErr:   true,
			errString: "cron_spec is required",
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
				require.NoError(t, err)
			}
		})
	}
}

func TestLoad_ValidateIntegration(t *testing.T) {
	cfg, err := Load("testdata/valid_config.yaml")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.NoError(t, cfg.ValidateAPIConfig())
	assert.NoError(t, cfg.ValidateWorkerConfig())
}
