package config

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
)

// Engine names accepted in engine.name.
const (
	EngineWhisperCLI    = "whisper-cli"
	EngineWhisperServer = "whisper-server"
	EngineOpenAI        = "openai"
	EngineGemini        = "gemini"
)

type Config struct {
	Engine  EngineConfig  `yaml:"engine" envPrefix:"ENGINE_"`
	FFmpeg  FFmpegConfig  `yaml:"ffmpeg" envPrefix:"FFMPEG_"`
	Paths   PathsConfig   `yaml:"paths" envPrefix:"PATHS_"`
	Server  ServerConfig  `yaml:"server" envPrefix:"SERVER_"`
	Watch   WatchConfig   `yaml:"watch" envPrefix:"WATCH_"`
	Queue   QueueConfig   `yaml:"queue" envPrefix:"QUEUE_"`
	Output  OutputConfig  `yaml:"output" envPrefix:"OUTPUT_"`
	Logging LoggingConfig `yaml:"logging" envPrefix:"LOG_"`
}

type EngineConfig struct {
	Name     string `yaml:"name" env:"NAME"`
	Language string `yaml:"language" env:"LANGUAGE"`
	Prompt   string `yaml:"prompt" env:"PROMPT"`

	WhisperCLI    WhisperCLIConfig    `yaml:"whisper_cli" envPrefix:"WHISPER_CLI_"`
	WhisperServer WhisperServerConfig `yaml:"whisper_server" envPrefix:"WHISPER_SERVER_"`
	OpenAI        OpenAIConfig        `yaml:"openai" envPrefix:"OPENAI_"`
	Gemini        GeminiConfig        `yaml:"gemini" envPrefix:"GEMINI_"`
}

type WhisperCLIConfig struct {
	BinaryPath string `yaml:"binary_path" env:"BINARY_PATH"`
	ModelPath  string `yaml:"model_path" env:"MODEL_PATH"`
	Threads    int    `yaml:"threads" env:"THREADS"`
}

type WhisperServerConfig struct {
	URL     string        `yaml:"url" env:"URL"`
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

type OpenAIConfig struct {
	APIKey  string `yaml:"api_key" env:"API_KEY"`
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	Model   string `yaml:"model" env:"MODEL"`
}

type GeminiConfig struct {
	APIKeys []string `yaml:"api_keys" env:"API_KEYS" envSeparator:","`
	Model   string   `yaml:"model" env:"MODEL"`
}

type FFmpegConfig struct {
	BinaryPath string `yaml:"binary_path" env:"BINARY_PATH"`
	SampleRate int    `yaml:"sample_rate" env:"SAMPLE_RATE"`
	Channels   int    `yaml:"channels" env:"CHANNELS"`
}

type PathsConfig struct {
	Watch  string `yaml:"watch" env:"WATCH"`
	Upload string `yaml:"upload" env:"UPLOAD"`
}

type ServerConfig struct {
	Enabled        bool     `yaml:"enabled" env:"ENABLED"`
	Addr           string   `yaml:"addr" env:"ADDR"`
	MaxUploadBytes int64    `yaml:"max_upload_bytes" env:"MAX_UPLOAD_BYTES"`
	CORSOrigins    []string `yaml:"cors_origins" env:"CORS_ORIGINS" envSeparator:","`
}

type WatchConfig struct {
	Enabled     bool          `yaml:"enabled" env:"ENABLED"`
	InitialScan bool          `yaml:"initial_scan" env:"INITIAL_SCAN"`
	Settle      time.Duration `yaml:"settle" env:"SETTLE"`
}

type QueueConfig struct {
	Workers  int `yaml:"workers" env:"WORKERS"`
	Capacity int `yaml:"capacity" env:"CAPACITY"`
}

type OutputConfig struct {
	Docx bool `yaml:"docx" env:"DOCX"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// Validate fills defaults and reports every invalid field at once.
func (c *Config) Validate() error {
	var result error

	if !c.Server.Enabled && !c.Watch.Enabled {
		result = multierror.Append(result, fmt.Errorf("at least one of server.enabled or watch.enabled must be true"))
	}
	if c.Watch.Enabled && c.Paths.Watch == "" {
		result = multierror.Append(result, fmt.Errorf("paths.watch is required when watch is enabled"))
	}

	switch c.Engine.Name {
	case EngineWhisperCLI:
		if c.Engine.WhisperCLI.BinaryPath == "" {
			result = multierror.Append(result, fmt.Errorf("engine.whisper_cli.binary_path is required"))
		}
		if c.Engine.WhisperCLI.ModelPath == "" {
			result = multierror.Append(result, fmt.Errorf("engine.whisper_cli.model_path is required"))
		}
	case EngineWhisperServer:
		if c.Engine.WhisperServer.URL == "" {
			result = multierror.Append(result, fmt.Errorf("engine.whisper_server.url is required"))
		}
	case EngineOpenAI:
		// OpenAI-compatible servers may run without a key.
		if c.Engine.OpenAI.APIKey == "" && c.Engine.OpenAI.BaseURL == "" {
			result = multierror.Append(result, fmt.Errorf("engine.openai.api_key or engine.openai.base_url is required"))
		}
	case EngineGemini:
		if len(c.Engine.Gemini.APIKeys) == 0 {
			result = multierror.Append(result, fmt.Errorf("engine.gemini.api_keys requires at least one key"))
		}
	case "":
		result = multierror.Append(result, fmt.Errorf("engine.name is required"))
	default:
		result = multierror.Append(result, fmt.Errorf("unknown engine.name %q (supported: %s, %s, %s, %s)",
			c.Engine.Name, EngineWhisperCLI, EngineWhisperServer, EngineOpenAI, EngineGemini))
	}

	switch c.Logging.Format {
	case "":
		c.Logging.Format = "text"
	case "text", "json":
	default:
		result = multierror.Append(result, fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format))
	}

	if result != nil {
		return result
	}

	if c.Paths.Upload == "" {
		c.Paths.Upload = "uploads"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":5000"
	}
	if c.Server.MaxUploadBytes == 0 {
		c.Server.MaxUploadBytes = 512 << 20
	}
	if c.Watch.Settle == 0 {
		c.Watch.Settle = 500 * time.Millisecond
	}
	if c.Queue.Workers <= 0 {
		c.Queue.Workers = 1
	}
	if c.Queue.Capacity <= 0 {
		c.Queue.Capacity = 64
	}
	if c.FFmpeg.BinaryPath == "" {
		c.FFmpeg.BinaryPath = "ffmpeg"
	}
	if c.FFmpeg.SampleRate == 0 {
		c.FFmpeg.SampleRate = 16000
	}
	if c.FFmpeg.Channels == 0 {
		c.FFmpeg.Channels = 1
	}
	if c.Engine.WhisperCLI.Threads == 0 {
		c.Engine.WhisperCLI.Threads = 4
	}
	if c.Engine.WhisperServer.Timeout == 0 {
		c.Engine.WhisperServer.Timeout = 30 * time.Minute
	}
	if c.Engine.OpenAI.Model == "" {
		c.Engine.OpenAI.Model = "whisper-1"
	}
	if c.Engine.Gemini.Model == "" {
		c.Engine.Gemini.Model = "gemini-2.5-flash"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	return nil
}
