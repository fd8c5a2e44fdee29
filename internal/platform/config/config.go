package config

import (
	"time"
)

type Config struct {
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
	OpenAI      OpenAIConfig      `yaml:"openai" mapstructure:"openai"`
	ObjectStore ObjectStoreConfig `yaml:"object_store" mapstructure:"object_store"`
	Relational  RelationalConfig  `yaml:"relational" mapstructure:"relational"`
	Document    DocumentConfig    `yaml:"document" mapstructure:"document"`
	Redis       RedisConfig       `yaml:"redis" mapstructure:"redis"`
	Pipeline    PipelineConfig    `yaml:"pipeline" mapstructure:"pipeline"`
}

type ServerConfig struct {
	IP   string `yaml:"ip" mapstructure:"ip"`
	Port int    `yaml:"port" mapstructure:"port"`
}

type LogConfig struct {
	Level string `yaml:"log_level" mapstructure:"log_level"`
	Dir   string `yaml:"log_dir" mapstructure:"log_dir"`
	File  string `yaml:"log_file" mapstructure:"log_file"`
}

// OpenAIConfig covers both the chat evaluator and the transcription model.
type OpenAIConfig struct {
	APIKey      string  `yaml:"api_key" mapstructure:"api_key"`
	BaseURL     string  `yaml:"url" mapstructure:"url"`
	ChatModel   string  `yaml:"chat_model" mapstructure:"chat_model"`
	SttModel    string  `yaml:"stt_model" mapstructure:"stt_model"`
	Temperature float32 `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens   int     `yaml:"max_tokens" mapstructure:"max_tokens"`
}

type ObjectStoreConfig struct {
	Endpoint  string `yaml:"endpoint" mapstructure:"endpoint"`
	AccessKey string `yaml:"access_key" mapstructure:"access_key"`
	SecretKey string `yaml:"secret_key" mapstructure:"secret_key"`
	Bucket    string `yaml:"bucket" mapstructure:"bucket"`
	UseSSL    bool   `yaml:"use_ssl" mapstructure:"use_ssl"`
	Region    string `yaml:"region" mapstructure:"region"`
}

// RelationalConfig selects the gorm driver. Driver is "mysql" in
// deployments and "sqlite" for local runs and tests.
type RelationalConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"`
	DSN    string `yaml:"dsn" mapstructure:"dsn"`
}

type DocumentConfig struct {
	Enabled    bool   `yaml:"enabled" mapstructure:"enabled"`
	URI        string `yaml:"uri" mapstructure:"uri"`
	Database   string `yaml:"database" mapstructure:"database"`
	Collection string `yaml:"collection" mapstructure:"collection"`
}

type RedisConfig struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled"`
	Addr     string        `yaml:"addr" mapstructure:"addr"`
	Username string        `yaml:"username,omitempty" mapstructure:"username"`
	Password string        `yaml:"password,omitempty" mapstructure:"password"`
	DB       int           `yaml:"db,omitempty" mapstructure:"db"`
	Prefix   string        `yaml:"prefix,omitempty" mapstructure:"prefix"`
	LockTTL  time.Duration `yaml:"lock_ttl" mapstructure:"lock_ttl"`
}

type PipelineConfig struct {
	RubricDir     string        `yaml:"rubric_dir" mapstructure:"rubric_dir"`
	TempDir       string        `yaml:"temp_dir" mapstructure:"temp_dir"`
	FanoutWidth   int           `yaml:"fanout_width" mapstructure:"fanout_width"`
	RetryAttempts int           `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	RetryBackoff  time.Duration `yaml:"retry_backoff" mapstructure:"retry_backoff"`
	CallTimeout   time.Duration `yaml:"call_timeout" mapstructure:"call_timeout"`
}
