package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Download  DownloadConfig  `yaml:"download" mapstructure:"download"`
	Extract   ExtractConfig   `yaml:"extract" mapstructure:"extract"`
	Taxonomy  TaxonomyConfig  `yaml:"taxonomy" mapstructure:"taxonomy"`
	Classify  ClassifyConfig  `yaml:"classify" mapstructure:"classify"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// AnthropicConfig holds Anthropic API settings for the fallback tagger.
type AnthropicConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	Model       string `yaml:"model" mapstructure:"model"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// DownloadConfig configures the paper PDF downloader.
type DownloadConfig struct {
	OutputDir      string  `yaml:"output_dir" mapstructure:"output_dir"`
	UserAgent      string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries     int     `yaml:"max_retries" mapstructure:"max_retries"`
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
}

// ExtractConfig configures PDF text extraction.
type ExtractConfig struct {
	PdfToTextPath string `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
	OutputDir     string `yaml:"output_dir" mapstructure:"output_dir"`
}

// TaxonomyConfig points at the keyword taxonomy document.
type TaxonomyConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ClassifyConfig configures the hybrid tagger.
type ClassifyConfig struct {
	MinScore        int    `yaml:"min_score" mapstructure:"min_score"`
	UseFallback     bool   `yaml:"use_fallback" mapstructure:"use_fallback"`
	Override        bool   `yaml:"override" mapstructure:"override"`
	DefaultSubject  string `yaml:"default_subject" mapstructure:"default_subject"`
	DefaultTopic    string `yaml:"default_topic" mapstructure:"default_topic"`
	DefaultSubtopic string `yaml:"default_subtopic" mapstructure:"default_subtopic"`
}

// PipelineConfig configures the ingest pipeline.
type PipelineConfig struct {
	TextDir            string `yaml:"text_dir" mapstructure:"text_dir"`
	MaxConcurrentFiles int    `yaml:"max_concurrent_files" mapstructure:"max_concurrent_files"`
}

// ServerConfig configures the query API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PAPERS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "papers.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.timeout_secs", 30)
	v.SetDefault("download.output_dir", "papers")
	v.SetDefault("download.user_agent", "papers-cli/1.0")
	v.SetDefault("download.timeout_secs", 60)
	v.SetDefault("download.max_retries", 3)
	v.SetDefault("download.requests_per_sec", 2)
	v.SetDefault("extract.pdftotext_path", "pdftotext")
	v.SetDefault("extract.output_dir", "extracted_text")
	v.SetDefault("taxonomy.path", "taxonomy.yaml")
	v.SetDefault("classify.min_score", 2)
	v.SetDefault("classify.use_fallback", false)
	v.SetDefault("classify.override", false)
	v.SetDefault("pipeline.text_dir", "extracted_text")
	v.SetDefault("pipeline.max_concurrent_files", 4)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
