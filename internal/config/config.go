package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config - настройки приложения
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Storage    StorageConfig    `mapstructure:"storage"`
	AI         AIConfig         `mapstructure:"ai"`
	Moderation ModerationConfig `mapstructure:"moderation"`
	Feed       FeedConfig       `mapstructure:"feed"`
	Cache      CacheConfig      `mapstructure:"cache"`
	RateLimit  RateLimitConfig  `mapstructure:"ratelimit"`
}

// ServerConfig - настройки HTTP-сервера
type ServerConfig struct {
	Host    string `mapstructure:"host"`
	Port    string `mapstructure:"port" validate:"required"`
	BaseURL string `mapstructure:"base_url" validate:"required,url"`
}

// StorageConfig выбирает и настраивает хранилище постов
type StorageConfig struct {
	Type          string `mapstructure:"type" validate:"oneof=file memory postgres mongo"`
	Path          string `mapstructure:"path" validate:"required_if=Type file"`
	DSN           string `mapstructure:"dsn" validate:"required_if=Type postgres"`
	MigrationsDir string `mapstructure:"migrations_dir"`
	MongoURI      string `mapstructure:"mongo_uri" validate:"required_if=Type mongo"`
	MongoDatabase string `mapstructure:"mongo_database"`
}

// AIConfig - настройки модели. Пустой APIKey отключает все AI-функции.
type AIConfig struct {
	Model     string        `mapstructure:"model" validate:"required"`
	APIKey    string        `mapstructure:"api_key"`
	BaseURL   string        `mapstructure:"base_url" validate:"omitempty,url"`
	Timeout   time.Duration `mapstructure:"timeout" validate:"gt=0"`
	ImageMode string        `mapstructure:"image_mode" validate:"oneof=vision ocr none"`
}

// ModerationConfig - политика модерации
type ModerationConfig struct {
	Denylist  []string `mapstructure:"denylist"`
	Threshold float64  `mapstructure:"threshold" validate:"gt=0,lte=1"`
	OnError   string   `mapstructure:"on_error" validate:"oneof=allow reject"`
}

// FeedConfig - переключатели поведения ленты
type FeedConfig struct {
	NewestFirst      bool `mapstructure:"newest_first"`
	SuggestQuestions bool `mapstructure:"suggest_questions"`
	InlineMediaText  bool `mapstructure:"inline_media_text"`
	IDAttempts       int  `mapstructure:"id_attempts" validate:"gte=1"`
}

// CacheConfig - настройки Redis; пустой адрес отключает кэш
type CacheConfig struct {
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	TTL           time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig - лимит запросов к AI-маршрутам на один IP
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps" validate:"gt=0"`
	Burst int     `mapstructure:"burst" validate:"gte=1"`
}

// Addr возвращает host:port для HTTP-сервера
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// LoadConfig загружает настройки из .env, config.yaml и переменных окружения
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	SetDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.BindEnv("ai.api_key", "GENAI_API_KEY")
	v.BindEnv("ai.model", "AI_MODEL")
	v.BindEnv("storage.type", "STORAGE_TYPE")
	v.BindEnv("storage.dsn", "DATABASE_URL")
	v.BindEnv("storage.mongo_uri", "MONGODB_URI")
	v.BindEnv("cache.redis_addr", "REDIS_ADDR")
	v.BindEnv("cache.redis_password", "REDIS_PASSWORD")
	v.BindEnv("server.port", "PORT")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		log.Println("No config file found, using defaults and environment variables")
	}

	return decode(v)
}

// SetDefaults задаёт значения по умолчанию для всех ключей
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.base_url", "http://localhost:8080/")
	v.SetDefault("storage.type", "file")
	v.SetDefault("storage.path", "posts.json")
	v.SetDefault("storage.migrations_dir", "migrations")
	v.SetDefault("storage.mongo_database", "smartfeed")
	v.SetDefault("ai.model", "gemini-2.5-flash")
	v.SetDefault("ai.timeout", "30s")
	v.SetDefault("ai.image_mode", "vision")
	v.SetDefault("moderation.denylist", []string{"fuck", "shit", "bitch", "bastard", "asshole"})
	v.SetDefault("moderation.threshold", 0.7)
	v.SetDefault("moderation.on_error", "allow")
	v.SetDefault("feed.newest_first", true)
	v.SetDefault("feed.suggest_questions", true)
	v.SetDefault("feed.inline_media_text", true)
	v.SetDefault("feed.id_attempts", 10)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("ratelimit.rps", 2)
	v.SetDefault("ratelimit.burst", 5)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
