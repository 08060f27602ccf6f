package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type TokenConfig struct {
	AccessTokenSecret  string
	RefreshTokenSecret string
	Issuer             string
	AccessExpiryMin    int
	RefreshExpiryMin   int
}

type HasherConfig struct {
	Time          int
	MemoryKiB     int
	Threads       int
	MaxConcurrent int
}

type RateLimitConfig struct {
	Driver             string
	WindowSeconds      int
	CooldownSeconds    int
	DefaultLimit       int
	LoginLimit         int
	RegisterLimit      int
	PasswordResetLimit int
	ResetCompleteLimit int
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
}

type BlacklistConfig struct {
	Driver        string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

type Config struct {
	Env               string
	Port              string
	DBURL             string
	MaxActiveSessions int
	Token             TokenConfig
	Hasher            HasherConfig
	RateLimit         RateLimitConfig
	Blacklist         BlacklistConfig
}

// Load reads configuration from the environment, with a .env file as
// fallback. Secrets have no defaults; missing ones abort startup.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Env:               getEnv("ENV", "development"),
		Port:              getEnv("PORT", "8080"),
		DBURL:             mustGetEnv("DB_URL"),
		MaxActiveSessions: getEnvAsInt("MAX_ACTIVE_SESSIONS", 5),
		Token: TokenConfig{
			AccessTokenSecret:  mustGetEnv("ACCESS_TOKEN_SECRET"),
			RefreshTokenSecret: mustGetEnv("REFRESH_TOKEN_SECRET"),
			Issuer:             getEnv("TOKEN_ISSUER", "enterprise-auth"),
			AccessExpiryMin:    getEnvAsInt("ACCESS_TOKEN_EXPIRY", 15),
			RefreshExpiryMin:   getEnvAsInt("REFRESH_TOKEN_EXPIRY", 10080),
		},
		Hasher: HasherConfig{
			Time:          getEnvAsInt("HASH_TIME", 3),
			MemoryKiB:     getEnvAsInt("HASH_MEMORY_KIB", 64*1024),
			Threads:       getEnvAsInt("HASH_THREADS", 1),
			MaxConcurrent: getEnvAsInt("HASH_MAX_CONCURRENT", 4),
		},
		RateLimit: RateLimitConfig{
			Driver:             getEnv("RATE_LIMIT_DRIVER", "memory"),
			WindowSeconds:      getEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", 60),
			CooldownSeconds:    getEnvAsInt("RATE_LIMIT_COOLDOWN_SECONDS", 60),
			DefaultLimit:       getEnvAsInt("RATE_LIMIT_DEFAULT", 60),
			LoginLimit:         getEnvAsInt("RATE_LIMIT_LOGIN", 5),
			RegisterLimit:      getEnvAsInt("RATE_LIMIT_REGISTER", 3),
			PasswordResetLimit: getEnvAsInt("RATE_LIMIT_PASSWORD_RESET", 3),
			ResetCompleteLimit: getEnvAsInt("RATE_LIMIT_RESET_COMPLETE", 5),
			RedisAddr:          getEnv("RATE_LIMIT_REDIS_ADDR", ""),
			RedisPassword:      getEnv("RATE_LIMIT_REDIS_PASSWORD", ""),
			RedisDB:            getEnvAsInt("RATE_LIMIT_REDIS_DB", 0),
		},
		Blacklist: BlacklistConfig{
			Driver:        getEnv("BLACKLIST_DRIVER", "postgres"),
			RedisAddr:     getEnv("BLACKLIST_REDIS_ADDR", ""),
			RedisPassword: getEnv("BLACKLIST_REDIS_PASSWORD", ""),
			RedisDB:       getEnvAsInt("BLACKLIST_REDIS_DB", 0),
		},
	}
}

func getEnv(key string, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func mustGetEnv(key string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	log.Fatalf("Missing required environment variable: %s", key)
	return ""
}

func getEnvAsInt(key string, defaultVal int) int {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		log.Printf("Invalid value for %s, using default %d", key, defaultVal)
		return defaultVal
	}
	return val
}
