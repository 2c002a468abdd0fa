package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Log        LogConfig
	Gemini     GeminiConfig
	Extraction ExtractionConfig
	Scoring    ScoringConfig
	Qdrant     QdrantConfig
	Storage    StorageConfig
	Worker     WorkerConfig
	AMQP       AMQPConfig
	S3         S3Config
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type LogConfig struct {
	JSON  bool
	Debug bool
}

type GeminiConfig struct {
	APIKey            string
	Model             string
	EmbedModel        string
	VisionEnabled     bool
	VisionMinInterval time.Duration
	// CategorizeEnabled files every screened CV under a job category.
	CategorizeEnabled bool
}

type ExtractionConfig struct {
	MinTextLength int
	MinAlnumRatio float64
	NameScanLines int
	// SkillsFile replaces the embedded skills dictionary when set.
	SkillsFile string
}

type ScoringConfig struct {
	AcceptThreshold float64
}

type QdrantConfig struct {
	Enabled    bool
	URL        string
	APIKey     string
	Collection string
}

type StorageConfig struct {
	UploadPath  string
	MaxFileSize int64
}

type WorkerConfig struct {
	Concurrency  int
	PollInterval time.Duration
}

type AMQPConfig struct {
	URL      string
	Exchange string
}

type S3Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using default values.")
	}

	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "3000"),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "cv_screener"),
		},
		Log: LogConfig{
			JSON:  getEnvAsBool("LOG_JSON", false),
			Debug: getEnvAsBool("LOG_DEBUG", false),
		},
		Gemini: GeminiConfig{
			APIKey:            getEnv("GEMINI_API_KEY", ""),
			Model:             getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			EmbedModel:        getEnv("GEMINI_EMBED_MODEL", "text-embedding-004"),
			VisionEnabled:     getEnvAsBool("VISION_ENABLED", false),
			VisionMinInterval: getEnvAsDuration("VISION_MIN_INTERVAL", "500ms"),
			CategorizeEnabled: getEnvAsBool("CATEGORIZE_ENABLED", false),
		},
		Extraction: ExtractionConfig{
			MinTextLength: getEnvAsInt("MIN_TEXT_LENGTH", 50),
			MinAlnumRatio: getEnvAsFloat("MIN_ALNUM_RATIO", 0.3),
			NameScanLines: getEnvAsInt("NAME_SCAN_LINES", 15),
			SkillsFile:    getEnv("SKILLS_FILE", ""),
		},
		Scoring: ScoringConfig{
			AcceptThreshold: getEnvAsFloat("ACCEPT_THRESHOLD", 60),
		},
		Qdrant: QdrantConfig{
			Enabled:    getEnvAsBool("QDRANT_ENABLED", false),
			URL:        getEnv("QDRANT_URL", "http://localhost:6334"),
			APIKey:     getEnv("QDRANT_API_KEY", ""),
			Collection: getEnv("QDRANT_COLLECTION", "cv_screener_candidates"),
		},
		Storage: StorageConfig{
			UploadPath:  getEnv("UPLOAD_PATH", "./uploads"),
			MaxFileSize: getEnvAsInt64("MAX_FILE_SIZE", 10485760),
		},
		Worker: WorkerConfig{
			Concurrency:  getEnvAsInt("WORKER_CONCURRENCY", 3),
			PollInterval: getEnvAsDuration("WORKER_POLL_INTERVAL", "10s"),
		},
		AMQP: AMQPConfig{
			URL:      getEnv("AMQP_URL", ""),
			Exchange: getEnv("AMQP_EXCHANGE", "cv_screening"),
		},
		S3: S3Config{
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			Region:          getEnv("S3_REGION", "auto"),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
		},
	}
}

// Validate reports settings that would make the screener misbehave at runtime.
func (c *Config) Validate() error {
	var errs []error

	if c.Extraction.MinAlnumRatio < 0 || c.Extraction.MinAlnumRatio > 1 {
		errs = append(errs, fmt.Errorf("MIN_ALNUM_RATIO must be within [0,1], got %v", c.Extraction.MinAlnumRatio))
	}
	if c.Extraction.MinTextLength < 0 {
		errs = append(errs, fmt.Errorf("MIN_TEXT_LENGTH must not be negative, got %d", c.Extraction.MinTextLength))
	}
	if c.Extraction.NameScanLines <= 0 {
		errs = append(errs, fmt.Errorf("NAME_SCAN_LINES must be positive, got %d", c.Extraction.NameScanLines))
	}
	if c.Scoring.AcceptThreshold < 0 || c.Scoring.AcceptThreshold > 100 {
		errs = append(errs, fmt.Errorf("ACCEPT_THRESHOLD must be within [0,100], got %v", c.Scoring.AcceptThreshold))
	}
	if c.Worker.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("WORKER_CONCURRENCY must be positive, got %d", c.Worker.Concurrency))
	}
	if c.Gemini.VisionEnabled && strings.TrimSpace(c.Gemini.APIKey) == "" {
		errs = append(errs, errors.New("VISION_ENABLED requires GEMINI_API_KEY"))
	}
	if c.Gemini.CategorizeEnabled && strings.TrimSpace(c.Gemini.APIKey) == "" {
		errs = append(errs, errors.New("CATEGORIZE_ENABLED requires GEMINI_API_KEY"))
	}
	if c.Qdrant.Enabled && strings.TrimSpace(c.Gemini.APIKey) == "" {
		errs = append(errs, errors.New("QDRANT_ENABLED requires GEMINI_API_KEY for embeddings"))
	}

	return errors.Join(errs...)
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
