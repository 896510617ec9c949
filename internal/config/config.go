package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Catalog sources
const (
	CatalogEmbedded = "embedded"
	CatalogFiles    = "files"
	CatalogMySQL    = "mysql"
)

// Image backends
const (
	ImageBackendComfyUI = "comfyui"
	ImageBackendOpenAI  = "openai"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	AI       AIConfig       `yaml:"ai"`
	Queue    QueueConfig    `yaml:"queue"`
	Cache    CacheConfig    `yaml:"cache"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Addr is the listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	MySQL MySQLConfig `yaml:"mysql"`
	Redis RedisConfig `yaml:"redis"`
}

type MySQLConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Username        string        `yaml:"username"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// DSN builds the go-sql-driver connection string
func (m MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		m.Username, m.Password, m.Host, m.Port, m.Database)
}

// RedisConfig configures ending statistics. Statistics are off unless Enabled.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// Addr is host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// CatalogConfig selects where questions and trait profiles come from
type CatalogConfig struct {
	Source        string `yaml:"source"`
	QuestionsFile string `yaml:"questions_file"`
	TraitsFile    string `yaml:"traits_file"`
}

type AIConfig struct {
	Dialogue DialogueConfig `yaml:"dialogue"`
	Image    ImageConfig    `yaml:"image"`
}

type DialogueConfig struct {
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxRetries  int           `yaml:"max_retries"`
}

type ImageConfig struct {
	Backend string             `yaml:"backend"`
	Width   int                `yaml:"width"`
	Height  int                `yaml:"height"`
	ComfyUI ComfyUIConfig      `yaml:"comfyui"`
	OpenAI  OpenAIImagesConfig `yaml:"openai"`
}

type ComfyUIConfig struct {
	BaseURL      string        `yaml:"base_url"`
	Checkpoint   string        `yaml:"checkpoint"`
	Steps        int           `yaml:"steps"`
	CFGScale     float64       `yaml:"cfg_scale"`
	Sampler      string        `yaml:"sampler"`
	Scheduler    string        `yaml:"scheduler"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

type OpenAIImagesConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

type QueueConfig struct {
	MaxWorkers   int `yaml:"max_workers"`
	MaxQueueSize int `yaml:"max_queue_size"`
}

// CacheConfig configures the on-disk portrait cache. An empty Directory disables it.
type CacheConfig struct {
	Directory  string        `yaml:"directory"`
	MaxEntries int           `yaml:"max_entries"`
	TTL        time.Duration `yaml:"ttl"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Default returns the configuration used for keys missing from the file
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			MySQL: MySQLConfig{
				Host:            "localhost",
				Port:            3306,
				Username:        "matchplay",
				Database:        "matchplay",
				MaxOpenConns:    10,
				MaxIdleConns:    5,
				ConnMaxLifetime: time.Hour,
			},
			Redis: RedisConfig{
				Host:     "localhost",
				Port:     6379,
				PoolSize: 10,
			},
		},
		Catalog: CatalogConfig{Source: CatalogEmbedded},
		AI: AIConfig{
			Dialogue: DialogueConfig{
				Model:       "gpt-4o-mini",
				MaxTokens:   200,
				Temperature: 0.8,
				Timeout:     30 * time.Second,
				MaxRetries:  3,
			},
			Image: ImageConfig{
				Backend: ImageBackendComfyUI,
				Width:   1024,
				Height:  1024,
				ComfyUI: ComfyUIConfig{
					BaseURL:      "http://localhost:8188",
					Checkpoint:   "sd_xl_turbo_1.0_fp16.safetensors",
					Steps:        8,
					CFGScale:     7,
					Sampler:      "euler",
					Scheduler:    "normal",
					PollInterval: time.Second,
				},
			},
		},
		Queue: QueueConfig{MaxWorkers: 2, MaxQueueSize: 100},
		Cache: CacheConfig{Directory: "data/portraits", MaxEntries: 500, TTL: 7 * 24 * time.Hour},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from a YAML file on top of the defaults.
// An empty path yields the defaults with environment overrides applied.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// Apply environment variable overrides
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		cfg.AI.Dialogue.APIKey = apiKey
	}
	if apiKey := os.Getenv("IMAGE_API_KEY"); apiKey != "" {
		cfg.AI.Image.OpenAI.APIKey = apiKey
	}
	if cfg.AI.Image.OpenAI.APIKey == "" {
		cfg.AI.Image.OpenAI.APIKey = cfg.AI.Dialogue.APIKey
	}
	if pw := os.Getenv("MYSQL_PASSWORD"); pw != "" {
		cfg.Database.MySQL.Password = pw
	}
	if pw := os.Getenv("REDIS_PASSWORD"); pw != "" {
		cfg.Database.Redis.Password = pw
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with
func (c *Config) Validate() error {
	switch c.Catalog.Source {
	case CatalogEmbedded, CatalogMySQL:
	case CatalogFiles:
		if c.Catalog.QuestionsFile == "" || c.Catalog.TraitsFile == "" {
			return fmt.Errorf("catalog source %q needs questions_file and traits_file", c.Catalog.Source)
		}
	default:
		return fmt.Errorf("unknown catalog source %q", c.Catalog.Source)
	}

	switch c.AI.Image.Backend {
	case ImageBackendComfyUI, ImageBackendOpenAI:
	default:
		return fmt.Errorf("unknown image backend %q", c.AI.Image.Backend)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	return nil
}
