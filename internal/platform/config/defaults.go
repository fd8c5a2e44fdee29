package config

import "time"

// DefaultConfig returns the baseline configuration. Secrets stay empty
// and are expected from the environment.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			IP:   "0.0.0.0",
			Port: 8000,
		},
		Log: LogConfig{
			Level: "INFO",
			Dir:   "data/logs",
			File:  "server.log",
		},
		OpenAI: OpenAIConfig{
			BaseURL:     "https://api.openai.com/v1",
			ChatModel:   "gpt-4o",
			SttModel:    "whisper-1",
			Temperature: 0.2,
			MaxTokens:   1024,
		},
		ObjectStore: ObjectStoreConfig{
			Endpoint: "127.0.0.1:9000",
			Bucket:   "interview-audio",
			UseSSL:   false,
		},
		Relational: RelationalConfig{
			Driver: "sqlite",
			DSN:    "data/interview.db",
		},
		Document: DocumentConfig{
			Enabled:    true,
			URI:        "mongodb://127.0.0.1:27017",
			Database:   "interview",
			Collection: "answer_reports",
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "127.0.0.1:6379",
			Prefix:  "interview:run:",
			LockTTL: 10 * time.Minute,
		},
		Pipeline: PipelineConfig{
			RubricDir:     "configs/rubrics",
			TempDir:       "data/tmp",
			FanoutWidth:   4,
			RetryAttempts: 3,
			RetryBackoff:  500 * time.Millisecond,
			CallTimeout:   60 * time.Second,
		},
	}
}
