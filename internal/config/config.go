package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	AWS         AWSConfig         `yaml:"aws"`
	Transcriber CollaboratorConfig `yaml:"transcriber"`
	QuizGen     CollaboratorConfig `yaml:"quiz_gen"`
	JWT         JWTConfig         `yaml:"jwt"`
	Quiz        QuizConfig        `yaml:"quiz"`
	Log         LogConfig         `yaml:"log"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// AWSConfig holds AWS configuration for the audio artifact bucket
type AWSConfig struct {
	Region    string `yaml:"region"`
	S3Bucket  string `yaml:"s3_bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Endpoint  string `yaml:"endpoint"`
}

// CollaboratorConfig holds the endpoint of an external processing service
// (transcription, quiz generation)
type CollaboratorConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// QuizConfig holds quiz policy knobs
type QuizConfig struct {
	MinSharedEvents int        `yaml:"min_shared_events"`
	AnswerPolicy    string     `yaml:"answer_policy"` // "auto_advance" or "explicit_submit"
	Bands           BandConfig `yaml:"bands"`
}

// BandConfig holds the percentage thresholds for result messaging
type BandConfig struct {
	Excellent int `yaml:"excellent"`
	Great     int `yaml:"great"`
	Good      int `yaml:"good"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Transcriber.Timeout == 0 {
		c.Transcriber.Timeout = 30 * time.Second
	}
	if c.QuizGen.Timeout == 0 {
		c.QuizGen.Timeout = 30 * time.Second
	}
	if c.Quiz.MinSharedEvents == 0 {
		c.Quiz.MinSharedEvents = 2
	}
	if c.Quiz.AnswerPolicy == "" {
		c.Quiz.AnswerPolicy = "explicit_submit"
	}
	if c.Quiz.Bands == (BandConfig{}) {
		c.Quiz.Bands = BandConfig{Excellent: 90, Great: 70, Good: 50}
	}
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
