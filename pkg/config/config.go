package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	CORS      CORSConfig
	Log       LogConfig
	Generator GeneratorConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// GeneratorConfig holds the evolutionary search defaults plus the async
// worker tuning. Rates are whole percentages.
type GeneratorConfig struct {
	PopulationSize int
	Generations    int
	MutationRate   int
	CrossoverRate  int
	EliteSize      int
	TournamentSize int
	RetryBudget    int
	WorkingDays    int
	DayStart       string
	DayEnd         string
	Workers        int
	QueueSize      int
	ProgressTTL    time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Generator = GeneratorConfig{
		PopulationSize: v.GetInt("GENERATOR_POPULATION_SIZE"),
		Generations:    v.GetInt("GENERATOR_GENERATIONS"),
		MutationRate:   v.GetInt("GENERATOR_MUTATION_RATE"),
		CrossoverRate:  v.GetInt("GENERATOR_CROSSOVER_RATE"),
		EliteSize:      v.GetInt("GENERATOR_ELITE_SIZE"),
		TournamentSize: v.GetInt("GENERATOR_TOURNAMENT_SIZE"),
		RetryBudget:    v.GetInt("GENERATOR_RETRY_BUDGET"),
		WorkingDays:    v.GetInt("GENERATOR_WORKING_DAYS"),
		DayStart:       v.GetString("GENERATOR_DAY_START"),
		DayEnd:         v.GetString("GENERATOR_DAY_END"),
		Workers:        v.GetInt("GENERATOR_WORKERS"),
		QueueSize:      v.GetInt("GENERATOR_QUEUE_SIZE"),
		ProgressTTL:    parseDuration(v.GetString("GENERATOR_PROGRESS_TTL"), time.Hour),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "timetables")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("GENERATOR_POPULATION_SIZE", 50)
	v.SetDefault("GENERATOR_GENERATIONS", 100)
	v.SetDefault("GENERATOR_MUTATION_RATE", 15)
	v.SetDefault("GENERATOR_CROSSOVER_RATE", 80)
	v.SetDefault("GENERATOR_ELITE_SIZE", 5)
	v.SetDefault("GENERATOR_TOURNAMENT_SIZE", 5)
	v.SetDefault("GENERATOR_RETRY_BUDGET", 50)
	v.SetDefault("GENERATOR_WORKING_DAYS", 6)
	v.SetDefault("GENERATOR_DAY_START", "07:00")
	v.SetDefault("GENERATOR_DAY_END", "19:00")
	v.SetDefault("GENERATOR_WORKERS", 1)
	v.SetDefault("GENERATOR_QUEUE_SIZE", 8)
	v.SetDefault("GENERATOR_PROGRESS_TTL", "1h")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
