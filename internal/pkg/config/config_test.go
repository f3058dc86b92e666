package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullYAML = `
server:
  host: "127.0.0.1"
  port: 8081
  shutdown_timeout: 20s
discord:
  token: "test-token"
  rate_limit_preference: "respect-bot"
export:
  format: "json"
  output_path: "exports/"
  partition_limit: "10mb"
  after: "2024-01-01"
  message_filter: "from:alice"
  download_assets: true
  assets_dir: "exports/media"
  locale: "ru-RU"
  utc_normalization: true
  parallelism: 4
storage:
  endpoint: "minio.local:9000"
  access_key: "ak"
  secret_key: "sk"
  bucket: "exports"
logging:
  level: "debug"
  format: "text"
`

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	err := os.WriteFile(path, []byte(content), 0644)
	require.NoError(t, err)
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("загрузка полного YAML", func(t *testing.T) {
		cfg, err := loadConfig(createTempConfigFile(t, fullYAML))
		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, "127.0.0.1", cfg.Server.Host)
		assert.Equal(t, 8081, cfg.Server.Port)
		assert.Equal(t, 20*time.Second, cfg.Server.ShutdownTimeout)
		assert.Equal(t, "127.0.0.1:8081", cfg.Address())

		assert.Equal(t, "test-token", cfg.Discord.Token)
		assert.Equal(t, "respect-bot", cfg.Discord.RateLimitPreference)

		assert.Equal(t, "json", cfg.Export.Format)
		assert.Equal(t, "10mb", cfg.Export.PartitionLimit)
		assert.Equal(t, "from:alice", cfg.Export.MessageFilter)
		assert.True(t, cfg.Export.ShouldDownloadAssets)
		assert.True(t, cfg.Export.UTCNormalization)
		assert.Equal(t, 4, cfg.Export.Parallelism)

		assert.True(t, cfg.Storage.Enabled())
		assert.Equal(t, "minio.local:9000", cfg.Storage.Endpoint)

		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.Equal(t, "text", cfg.Logging.Format)
	})

	t.Run("отсутствие файла оставляет значения по умолчанию", func(t *testing.T) {
		cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.yml"))
		require.NoError(t, err)

		assert.Equal(t, DefaultServerPort, cfg.Server.Port)
		assert.Equal(t, DefaultExportFormat, cfg.Export.Format)
		assert.Equal(t, DefaultRateLimitPreference, cfg.Discord.RateLimitPreference)
		assert.True(t, cfg.Export.ShouldFormatMarkdown)
		assert.False(t, cfg.Storage.Enabled())
	})

	t.Run("переменные окружения перекрывают YAML", func(t *testing.T) {
		t.Setenv("DISCORD_TOKEN", "env-token")
		t.Setenv("EXPORT_FORMAT", "csv")

		cfg, err := loadConfig(createTempConfigFile(t, fullYAML))
		require.NoError(t, err)

		assert.Equal(t, "env-token", cfg.Discord.Token)
		assert.Equal(t, "csv", cfg.Export.Format)
		// Не перекрытые переменными значения остаются из YAML.
		assert.Equal(t, 8081, cfg.Server.Port)
	})

	t.Run("битый YAML отклоняется", func(t *testing.T) {
		_, err := loadConfig(createTempConfigFile(t, "invalid yaml: {"))
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	validConfig := func(t *testing.T) *Config {
		cfg, err := loadConfig(createTempConfigFile(t, fullYAML))
		require.NoError(t, err)
		return cfg
	}

	testCases := []struct {
		name    string
		mutator func(*Config)
		wantErr bool
	}{
		{"валидная конфигурация", func(c *Config) {}, false},
		{"недопустимый порт", func(c *Config) { c.Server.Port = 0 }, true},
		{"нулевой таймаут остановки", func(c *Config) { c.Server.ShutdownTimeout = 0 }, true},
		{"неизвестный режим лимитов", func(c *Config) { c.Discord.RateLimitPreference = "never" }, true},
		{"неизвестный формат выгрузки", func(c *Config) { c.Export.Format = "docx" }, true},
		{"нулевой параллелизм", func(c *Config) { c.Export.Parallelism = 0 }, true},
		{"S3 без ключей", func(c *Config) { c.Storage.AccessKey = "" }, true},
		{"недопустимый уровень логирования", func(c *Config) { c.Logging.Level = "wrong" }, true},
		{"недопустимый формат логов", func(c *Config) { c.Logging.Format = "xml" }, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig(t)
			tc.mutator(cfg)
			err := cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
