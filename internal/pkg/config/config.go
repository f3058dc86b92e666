// Package config предоставляет управление конфигурацией приложения
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Server содержит конфигурацию HTTP-сервера выгрузок
type Server struct {
	Host            string        `env:"SERVER_HOST" yaml:"host"`
	Port            int           `env:"SERVER_PORT" yaml:"port"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" yaml:"shutdown_timeout"`
}

// Discord содержит конфигурацию доступа к API Discord
type Discord struct {
	Token string `env:"DISCORD_TOKEN" yaml:"token"`
	// RateLimitPreference — режим ожидания лимитов API:
	// respect-all, respect-user, respect-bot или ignore-all.
	RateLimitPreference string `env:"DISCORD_RATE_LIMIT" yaml:"rate_limit_preference"`
}

// Export содержит параметры выгрузки по умолчанию
type Export struct {
	Format         string `env:"EXPORT_FORMAT" yaml:"format"`
	OutputPath     string `env:"EXPORT_OUTPUT" yaml:"output_path"`
	PartitionLimit string `env:"EXPORT_PARTITION" yaml:"partition_limit"`
	After          string `env:"EXPORT_AFTER" yaml:"after"`
	Before         string `env:"EXPORT_BEFORE" yaml:"before"`
	MessageFilter  string `env:"EXPORT_FILTER" yaml:"message_filter"`

	ShouldFormatMarkdown bool   `env:"EXPORT_MARKDOWN" yaml:"format_markdown"`
	ShouldDownloadAssets bool   `env:"EXPORT_MEDIA" yaml:"download_assets"`
	ShouldReuseAssets    bool   `env:"EXPORT_REUSE_MEDIA" yaml:"reuse_assets"`
	AssetsDirPath        string `env:"EXPORT_MEDIA_DIR" yaml:"assets_dir"`

	Locale           string `env:"EXPORT_LOCALE" yaml:"locale"`
	UTCNormalization bool   `env:"EXPORT_UTC" yaml:"utc_normalization"`

	// Parallelism — число каналов, выгружаемых одновременно.
	Parallelism int `env:"EXPORT_PARALLEL" yaml:"parallelism"`
}

// Storage содержит конфигурацию S3-хранилища готовых выгрузок
type Storage struct {
	Endpoint  string `env:"S3_ENDPOINT" yaml:"endpoint"`
	AccessKey string `env:"S3_ACCESS_KEY" yaml:"access_key"`
	SecretKey string `env:"S3_SECRET_KEY" yaml:"secret_key"`
	Bucket    string `env:"S3_BUCKET" yaml:"bucket"`
	UseSSL    bool   `env:"S3_USE_SSL" yaml:"use_ssl"`
}

// Enabled сообщает, настроена ли выгрузка в S3.
func (s Storage) Enabled() bool {
	return s.Endpoint != "" && s.Bucket != ""
}

// Logging содержит конфигурацию логирования
type Logging struct {
	Level  string `env:"LOG_LEVEL" yaml:"level"`   // debug, info, warn, error
	Format string `env:"LOG_FORMAT" yaml:"format"` // json, text
}

// Config содержит конфигурацию приложения
type Config struct {
	Server  Server  `yaml:"server"`
	Discord Discord `yaml:"discord"`
	Export  Export  `yaml:"export"`
	Storage Storage `yaml:"storage"`
	Logging Logging `yaml:"logging"`
}

// defaultConfig возвращает конфигурацию со значениями по умолчанию.
func defaultConfig() *Config {
	return &Config{
		Server: Server{
			Host:            DefaultServerHost,
			Port:            DefaultServerPort,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Discord: Discord{
			RateLimitPreference: DefaultRateLimitPreference,
		},
		Export: Export{
			Format:               DefaultExportFormat,
			ShouldFormatMarkdown: true,
			Locale:               DefaultLocale,
			Parallelism:          DefaultParallelism,
		},
		Logging: Logging{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// LoadConfig загружает конфигурацию из config.yml, .env файла и
// переменных окружения. Переменные окружения имеют высший приоритет.
func LoadConfig() (*Config, error) {
	// .env может отсутствовать, тогда полагаемся на окружение.
	_ = godotenv.Load()
	return loadConfig("config.yml")
}

func loadConfig(yamlPath string) (*Config, error) {
	cfg := defaultConfig()

	if data, err := os.ReadFile(yamlPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("не удалось разобрать YAML конфигурацию: %w", err)
		}
	}

	// env.Parse не заходит во вложенные структуры без env-тегов на
	// полях корня, поэтому секции разбираются по отдельности.
	for _, section := range []any{&cfg.Server, &cfg.Discord, &cfg.Export, &cfg.Storage, &cfg.Logging} {
		if err := env.Parse(section); err != nil {
			return nil, fmt.Errorf("не удалось прочитать переменные окружения: %w", err)
		}
	}

	return cfg, nil
}

// Address возвращает адрес сервера в формате "host:port"
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Validate проверяет, являются ли значения конфигурации допустимыми
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port должен быть действительным номером порта (1-65535)")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout должно быть положительным")
	}

	switch c.Discord.RateLimitPreference {
	case "respect-all", "respect-user", "respect-bot", "ignore-all":
	default:
		return fmt.Errorf("discord.rate_limit_preference должен быть одним из: respect-all, respect-user, respect-bot, ignore-all")
	}

	switch c.Export.Format {
	case "plaintext", "txt", "htmldark", "htmllight", "csv", "json":
	default:
		return fmt.Errorf("export.format должен быть одним из: plaintext, htmldark, htmllight, csv, json")
	}

	if c.Export.Parallelism <= 0 {
		return fmt.Errorf("export.parallelism должно быть положительным")
	}

	if c.Storage.Enabled() && (c.Storage.AccessKey == "" || c.Storage.SecretKey == "") {
		return fmt.Errorf("storage.access_key и storage.secret_key обязательны при настроенном S3")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level должен быть одним из: debug, info, warn, error")
	}

	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format должен быть одним из: json, text")
	}

	return nil
}
