package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		env     map[string]string
		want    Config
		wantErr bool
	}{
		{
			name: "defaults when file is missing",
			want: Default(),
		},
		{
			name: "file values",
			body: `
[server]
debug_mode = true
log_level = "debug"

[storage]
sqlite_file = "data.sqlite"

[queue]
backend = "redis"
redis_address = "redis:6379"
redis_db = 2

[rescore]
flush_concurrency = 8
`,
			want: Config{
				Server:  Server{Debug: true, LogLevel: "debug"},
				Storage: Storage{SqliteFile: "data.sqlite"},
				Queue:   Queue{Backend: "redis", RedisAddress: "redis:6379", RedisDB: 2, KeyPrefix: "rankings"},
				Rescore: Rescore{FlushConcurrency: 8},
			},
		},
		{
			name: "env overrides file",
			body: `
[queue]
backend = "sqlite"
`,
			env: map[string]string{
				"RANKINGS_QUEUE_BACKEND":  "redis",
				"RANKINGS_REDIS_ADDRESS":  "cache:6380",
				"RANKINGS_REDIS_PASSWORD": "secret",
				"RANKINGS_SQLITE_FILE":    "env.sqlite",
			},
			want: func() Config {
				c := Default()
				c.Queue.Backend = "redis"
				c.Queue.RedisAddress = "cache:6380"
				c.Queue.RedisPassword = "secret"
				c.Storage.SqliteFile = "env.sqlite"
				return c
			}(),
		},
		{
			name:    "unknown backend",
			body:    "[queue]\nbackend = \"kafka\"\n",
			wantErr: true,
		},
		{
			name:    "bad redis db",
			env:     map[string]string{"RANKINGS_REDIS_DB": "two"},
			wantErr: true,
		},
		{
			name:    "broken toml",
			body:    "[server\n",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{"RANKINGS_SQLITE_FILE", "RANKINGS_QUEUE_BACKEND", "RANKINGS_REDIS_ADDRESS", "RANKINGS_REDIS_PASSWORD", "RANKINGS_REDIS_DB", "RANKINGS_DEBUG"} {
				t.Setenv(k, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := filepath.Join(t.TempDir(), "missing.toml")
			if tt.body != "" {
				path = writeConfig(t, tt.body)
			}

			got, err := New(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
