package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenAddr      string        `yaml:"listen_addr" json:"listen_addr" envconfig:"LISTEN_ADDR"`
	UploadDir       string        `yaml:"upload_dir" json:"upload_dir" envconfig:"UPLOAD_DIR"`
	JournalPath     string        `yaml:"journal_path" json:"journal_path" envconfig:"JOURNAL_PATH"`
	MaxChunkBytes   int64         `yaml:"max_chunk_bytes" json:"max_chunk_bytes" envconfig:"MAX_CHUNK_BYTES"`
	MergeWorkers    int           `yaml:"merge_workers" json:"merge_workers" envconfig:"MERGE_WORKERS"`
	StrictChunkSize bool          `yaml:"strict_chunk_size" json:"strict_chunk_size" envconfig:"STRICT_CHUNK_SIZE"`
	GCTTL           time.Duration `yaml:"gc_ttl" json:"gc_ttl" envconfig:"GC_TTL"`
	GCInterval      time.Duration `yaml:"gc_interval" json:"gc_interval" envconfig:"GC_INTERVAL"`
	LogLevel        string        `yaml:"log_level" json:"log_level" envconfig:"LOG_LEVEL"`
	LogFile         string        `yaml:"log_file" json:"log_file" envconfig:"LOG_FILE"`
}

// Default возвращает конфигурацию, которая используется при отсутствии файла.
func Default() *Config {
	return &Config{
		ListenAddr:    ":3000",
		UploadDir:     "./uploads",
		MaxChunkBytes: 64 << 20,
		MergeWorkers:  8,
		GCTTL:         24 * time.Hour,
		GCInterval:    30 * time.Minute,
		LogLevel:      "info",
	}
}

// Load читает YAML-конфигурацию поверх значений по умолчанию, применяет ENV-переопределения
// и возвращает актуальную структуру. Отсутствующий файл не ошибка.
func Load() (*Config, error) {
	return LoadFile(getenv("CONFIG_PATH", "./config.yaml"))
}

// LoadFile делает то же, что Load, но с явным путём к файлу.
func LoadFile(path string) (*Config, error) {
	c := Default()

	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err = yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, err
	}

	// ENV override
	if err = envconfig.Process("", c); err != nil {
		return nil, fmt.Errorf("env override: %w", err)
	}

	if err = c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// Validate проверяет значения, без которых сервер не стартует.
func (c *Config) Validate() error {
	switch {
	case c.ListenAddr == "":
		return fmt.Errorf("listen_addr is not configured")
	case c.UploadDir == "":
		return fmt.Errorf("upload_dir is not configured")
	case c.MaxChunkBytes < 0:
		return fmt.Errorf("max_chunk_bytes must be >= 0")
	case c.MergeWorkers < 0:
		return fmt.Errorf("merge_workers must be >= 0")
	}
	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}

	return def
}
