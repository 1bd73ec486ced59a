package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/sir_venger/chunkd/internal/logging"
)

const defaultConfigPath = "./config.yaml"

// Политики обработки части с неверным хешем.
const (
	HashMismatchDiscard = "discard"
	HashMismatchKeep    = "keep"
)

type Config struct {
	ListenAddr    string `yaml:"listen_addr" json:"listen_addr" envconfig:"LISTEN_ADDR"`
	ChunkDir      string `yaml:"chunk_dir" json:"chunk_dir" envconfig:"CHUNK_DIR"`
	UploadDir     string `yaml:"upload_dir" json:"upload_dir" envconfig:"UPLOAD_DIR"`
	PublicBaseURL string `yaml:"public_base_url" json:"public_base_url" envconfig:"PUBLIC_BASE_URL"`
	Token         string `yaml:"token" json:"-" envconfig:"UPLOAD_TOKEN"`

	MaxBodyBytes int64         `yaml:"max_body_bytes" json:"max_body_bytes" envconfig:"MAX_BODY_BYTES"`
	MaxChunks    int           `yaml:"max_chunks" json:"max_chunks" envconfig:"MAX_CHUNKS"`
	Heartbeat    time.Duration `yaml:"heartbeat" json:"heartbeat" envconfig:"HEARTBEAT"`
	HashMismatch string        `yaml:"hash_mismatch" json:"hash_mismatch" envconfig:"HASH_MISMATCH"`
	ServeFiles   bool          `yaml:"serve_files" json:"serve_files" envconfig:"SERVE_FILES"`

	GCTTL      time.Duration `yaml:"gc_ttl" json:"gc_ttl" envconfig:"GC_TTL"`
	GCInterval time.Duration `yaml:"gc_interval" json:"gc_interval" envconfig:"GC_INTERVAL"`

	MetaDSN   string `yaml:"meta_dsn" json:"meta_dsn" envconfig:"META_DSN"`
	MirrorURL string `yaml:"mirror_url" json:"mirror_url" envconfig:"MIRROR_URL"`

	Log         logging.Config `yaml:"log" json:"log" envconfig:"LOG"`
	CORSOrigins []string       `yaml:"cors_origins" json:"cors_origins" envconfig:"CORS_ORIGINS"`
}

// Load читает YAML-конфигурацию, применяет ENV-переопределения и возвращает актуальную структуру.
// Файла по умолчанию может не быть — тогда всё берётся из окружения.
func Load() (*Config, error) {
	path := getenv("CONFIG_PATH", defaultConfigPath)

	var c Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err = yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && os.Getenv("CONFIG_PATH") == "":
	default:
		return nil, err
	}

	// ENV override
	if err = envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("env override: %w", err)
	}

	c.applyDefaults()
	if err = c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}
	if c.ChunkDir == "" {
		c.ChunkDir = filepath.Join(os.TempDir(), "chunkd")
	}
	if c.UploadDir == "" {
		c.UploadDir = "./uploads"
	}
	if c.PublicBaseURL == "" {
		c.PublicBaseURL = "http://localhost:8080/files"
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = 15_000_000
	}
	if c.MaxChunks == 0 {
		c.MaxChunks = 100_000
	}
	if c.Heartbeat == 0 {
		c.Heartbeat = 15 * time.Second
	}
	if c.HashMismatch == "" {
		c.HashMismatch = HashMismatchDiscard
	}
	if c.GCTTL == 0 {
		c.GCTTL = 24 * time.Hour
	}
	if c.GCInterval == 0 {
		c.GCInterval = 30 * time.Minute
	}
	if c.MetaDSN == "" {
		c.MetaDSN = "memory://"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	c.CORSOrigins = trimAll(c.CORSOrigins)
}

// Validate проверяет то, без чего сервер запускать нельзя.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Token) == "" {
		errs = append(errs, errors.New("token is required (UPLOAD_TOKEN)"))
	}
	if c.MaxBodyBytes < 0 {
		errs = append(errs, fmt.Errorf("max_body_bytes must be > 0, got %d", c.MaxBodyBytes))
	}
	if c.MaxChunks < 0 {
		errs = append(errs, fmt.Errorf("max_chunks must be > 0, got %d", c.MaxChunks))
	}
	if c.HashMismatch != HashMismatchDiscard && c.HashMismatch != HashMismatchKeep {
		errs = append(errs, fmt.Errorf("hash_mismatch must be %q or %q, got %q", HashMismatchDiscard, HashMismatchKeep, c.HashMismatch))
	}
	if filepath.Clean(c.ChunkDir) == filepath.Clean(c.UploadDir) {
		errs = append(errs, errors.New("chunk_dir and upload_dir must differ"))
	}

	return errors.Join(errs...)
}

// KeepMismatched сообщает, оставлять ли части с неверным хешем.
func (c *Config) KeepMismatched() bool {
	return c.HashMismatch == HashMismatchKeep
}

func trimAll(in []string) []string {
	var out []string
	for _, p := range in {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}

	return out
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}

	return def
}
