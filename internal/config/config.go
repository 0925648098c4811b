package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
// If FOO_FILE is set, reads the file content and sets FOO.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	filePath := os.Getenv(envKey + "_FILE")
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	os.Setenv(envKey, strings.TrimSpace(string(data)))
}

type Config struct {
	Server      ServerConfig
	Redis       RedisConfig
	JWT         JWTConfig
	RateLimit   RateLimitConfig
	Storage     StorageConfig
	Translation TranslationConfig
	Gateway     GatewayConfig
}

type ServerConfig struct {
	Port     string
	Env      string
	LogLevel string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
}

type RateLimitConfig struct {
	BioPerHour         int
	RetranslatePerHour int
}

type StorageConfig struct {
	Backend string // redis | memory
}

type TranslationConfig struct {
	Providers     []string
	APIKey        string
	FallbackURL   string
	FallbackEmail string
	Targets       []string
	Timeout       time.Duration
	CacheBackend  string // memory | redis
	CacheCapacity int
	CacheTTL      time.Duration
	MaxAttempts   int

	// UnavailableBonus is added to MaxAttempts while a target keeps failing
	// because every provider is down.
	UnavailableBonus int
	TargetDelay      time.Duration
	SweepCron        string
}

type GatewayConfig struct {
	Enabled bool
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

func Load() (*Config, error) {
	// Read Docker Swarm secrets from _FILE env vars before Viper binds
	readSecret("REDIS_PASSWORD")
	readSecret("JWT_SECRET")
	readSecret("TRANSLATION_API_KEY")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variables
	viper.AutomaticEnv()

	// Bind environment variables with underscores to nested config keys
	_ = viper.BindEnv("server.port", "SERVER_PORT")
	_ = viper.BindEnv("server.env", "SERVER_ENV")
	_ = viper.BindEnv("server.log_level", "LOG_LEVEL")
	_ = viper.BindEnv("redis.addr", "REDIS_ADDR")
	_ = viper.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = viper.BindEnv("redis.db", "REDIS_DB")
	_ = viper.BindEnv("jwt.secret", "JWT_SECRET")
	_ = viper.BindEnv("gateway.enabled", "GATEWAY_ENABLED")
	_ = viper.BindEnv("ratelimit.bio_per_hour", "RATELIMIT_BIO_PER_HOUR")
	_ = viper.BindEnv("ratelimit.retranslate_per_hour", "RATELIMIT_RETRANSLATE_PER_HOUR")
	_ = viper.BindEnv("storage.backend", "STORAGE_BACKEND")
	_ = viper.BindEnv("translation.providers", "TRANSLATION_PROVIDERS")
	_ = viper.BindEnv("translation.api_key", "TRANSLATION_API_KEY")
	_ = viper.BindEnv("translation.fallback_url", "TRANSLATION_FALLBACK_URL")
	_ = viper.BindEnv("translation.fallback_email", "TRANSLATION_FALLBACK_EMAIL")
	_ = viper.BindEnv("translation.targets", "TRANSLATION_TARGETS")
	_ = viper.BindEnv("translation.timeout", "TRANSLATION_TIMEOUT")
	_ = viper.BindEnv("translation.cache_backend", "TRANSLATION_CACHE_BACKEND")
	_ = viper.BindEnv("translation.cache_capacity", "TRANSLATION_CACHE_CAPACITY")
	_ = viper.BindEnv("translation.cache_ttl", "TRANSLATION_CACHE_TTL")
	_ = viper.BindEnv("translation.max_attempts", "TRANSLATION_MAX_ATTEMPTS")
	_ = viper.BindEnv("translation.unavailable_bonus", "TRANSLATION_UNAVAILABLE_BONUS")
	_ = viper.BindEnv("translation.target_delay", "TRANSLATION_TARGET_DELAY")
	_ = viper.BindEnv("translation.sweep_cron", "TRANSLATION_SWEEP_CRON")

	// Defaults
	viper.SetDefault("server.port", "8000")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("server.log_level", "info")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("jwt.secret", "change-me-in-production")
	viper.SetDefault("gateway.enabled", false)
	viper.SetDefault("ratelimit.bio_per_hour", 20)
	viper.SetDefault("ratelimit.retranslate_per_hour", 30)
	viper.SetDefault("storage.backend", "redis")

	// Translation defaults
	viper.SetDefault("translation.providers", "https://libretranslate.de,https://translate.argosopentech.com")
	viper.SetDefault("translation.fallback_url", "https://api.mymemory.translated.net")
	viper.SetDefault("translation.targets", "en,pt,es,fr,de,it")
	viper.SetDefault("translation.timeout", 8) // seconds
	viper.SetDefault("translation.cache_backend", "memory")
	viper.SetDefault("translation.cache_capacity", 500)
	viper.SetDefault("translation.cache_ttl", 24) // hours
	viper.SetDefault("translation.max_attempts", 3)
	viper.SetDefault("translation.unavailable_bonus", 2)
	viper.SetDefault("translation.target_delay", 150) // milliseconds
	viper.SetDefault("translation.sweep_cron", "@every 15m")

	// Try to read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:     viper.GetString("server.port"),
			Env:      viper.GetString("server.env"),
			LogLevel: viper.GetString("server.log_level"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret: viper.GetString("jwt.secret"),
		},
		RateLimit: RateLimitConfig{
			BioPerHour:         viper.GetInt("ratelimit.bio_per_hour"),
			RetranslatePerHour: viper.GetInt("ratelimit.retranslate_per_hour"),
		},
		Storage: StorageConfig{
			Backend: viper.GetString("storage.backend"),
		},
		Translation: TranslationConfig{
			Providers:        getList("translation.providers"),
			APIKey:           viper.GetString("translation.api_key"),
			FallbackURL:      viper.GetString("translation.fallback_url"),
			FallbackEmail:    viper.GetString("translation.fallback_email"),
			Targets:          getList("translation.targets"),
			Timeout:          time.Duration(viper.GetInt("translation.timeout")) * time.Second,
			CacheBackend:     viper.GetString("translation.cache_backend"),
			CacheCapacity:    viper.GetInt("translation.cache_capacity"),
			CacheTTL:         time.Duration(viper.GetInt("translation.cache_ttl")) * time.Hour,
			MaxAttempts:      viper.GetInt("translation.max_attempts"),
			UnavailableBonus: viper.GetInt("translation.unavailable_bonus"),
			TargetDelay:      time.Duration(viper.GetInt("translation.target_delay")) * time.Millisecond,
			SweepCron:        viper.GetString("translation.sweep_cron"),
		},
		Gateway: GatewayConfig{
			Enabled: viper.GetBool("gateway.enabled"),
		},
	}

	return cfg, nil
}

// splitList parses a comma separated env value. Viper returns the raw string
// for env overrides, so lists are kept as strings in config.
// getList reads key either as a comma separated string (env vars, defaults)
// or as a YAML list.
func getList(key string) []string {
	if raw, ok := viper.Get(key).(string); ok {
		return splitList(raw)
	}
	return splitList(strings.Join(viper.GetStringSlice(key), ","))
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
