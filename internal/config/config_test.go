package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
[server]
http_port = 9090

[database]
host = "localhost"
port = 5433
user = "booking"
password = "secret"
dbname = "beauty"
sslmode = "require"

[logs]
file = "./logs/app.log"
level = "debug"

[catalog_service]
url = "http://catalog:8081"
timeout = 2

[engine]
timezone = "Europe/Moscow"
request_timeout_ms = 1500

[kafka]
enabled = true
brokers = "kafka-1:9092,kafka-2:9092"

[rate_limit]
enabled = true
requests = 10
window_seconds = 30
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.HTTPPort)
	assert.Equal(t, "host=localhost port=5433 user=booking password=secret dbname=beauty sslmode=require", cfg.Database.DSN())
	assert.Equal(t, "debug", cfg.Logs.Level)
	assert.Equal(t, 1500*time.Millisecond, cfg.Engine.RequestTimeout())
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window())

	loc, err := cfg.Engine.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Moscow", loc.String())
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
[storage]
driver = "memory"

[catalog_service]
url = "http://catalog:8081"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, 15, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "UTC", cfg.Engine.Timezone)
	assert.Equal(t, 3*time.Second, cfg.Engine.RequestTimeout())
	assert.Equal(t, "booking.lifecycle", cfg.Kafka.Topic)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, cfg.Metrics.ServiceName, cfg.Tracing.ServiceName)
	assert.Equal(t, 1.0, cfg.Tracing.SampleRatio)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "postgres without database settings",
			body: `
[catalog_service]
url = "http://catalog"
`,
		},
		{
			name: "unknown storage driver",
			body: `
[storage]
driver = "mongo"
[catalog_service]
url = "http://catalog"
`,
		},
		{
			name: "unknown timezone",
			body: `
[storage]
driver = "memory"
[catalog_service]
url = "http://catalog"
[engine]
timezone = "Mars/Olympus"
`,
		},
		{
			name: "kafka without brokers",
			body: `
[storage]
driver = "memory"
[catalog_service]
url = "http://catalog"
[kafka]
enabled = true
`,
		},
		{
			name: "missing catalog url",
			body: `
[storage]
driver = "memory"
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
}
