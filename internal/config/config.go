package config

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8081"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// Watched drop directory and the directory receiving the QA artifacts.
	DropDir   string `envconfig:"DROP_DIR" default:"./data-brute"`
	OutputDir string `envconfig:"OUTPUT_DIR" default:"./resultat_extraction"`

	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`
	CaptionModel string `envconfig:"CAPTION_MODEL" default:"gpt-4o"`
	QAModel      string `envconfig:"QA_MODEL" default:"gpt-4o-mini"`
	EmbedModel   string `envconfig:"EMBED_MODEL" default:"text-embedding-3-small"`

	OCRLanguage string `envconfig:"OCR_LANG" default:"fra"`

	// Chunker parameters. Deliberately configuration, not constants.
	ChunkMinTokens       int     `envconfig:"CHUNK_MIN_TOKENS" default:"400"`
	ChunkMaxTokens       int     `envconfig:"CHUNK_MAX_TOKENS" default:"600"`
	ChunkWindowSize      int     `envconfig:"CHUNK_WINDOW_SIZE" default:"80"`
	ChunkThresholdAdjust float64 `envconfig:"CHUNK_THRESHOLD_ADJUSTMENT" default:"0.02"`

	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// Optional S3-compatible mirror for the JSON artifacts.
	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"botsupport-artifacts"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("BOTSUPPORT", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}
