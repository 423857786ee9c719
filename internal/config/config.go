package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Cache        CacheConfig
	Stats        StatsConfig
	SafeBrowsing SafeBrowsingConfig
	RateLimit    RateLimitConfig
}

type AppConfig struct {
	Port      string
	BaseURL   string
	SecretKey string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type RedisConfig struct {
	Host string
	Port string
}

type CacheConfig struct {
	URLTTL time.Duration // TTL записи кэша url:{code}
}

type StatsConfig struct {
	BatchSize    int           // Максимум событий за один проход воркера
	PollInterval time.Duration // Пауза при пустой очереди
	ErrorBackoff time.Duration // Пауза после ошибки выборки батча
	WindowDays   int           // Окно дневной статистики (включая сегодня)
	ExpiresDays  int           // Срок жизни короткой ссылки в днях
}

type SafeBrowsingConfig struct {
	APIKey   string
	Endpoint string
	Timeout  time.Duration
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// .env опционален, достаточно переменных окружения
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	cfg.App.Port = viper.GetString("APP_PORT")
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	cfg.App.BaseURL = viper.GetString("BASE_URL")
	if cfg.App.BaseURL == "" {
		cfg.App.BaseURL = "http://localhost:" + cfg.App.Port
	}
	cfg.App.SecretKey = viper.GetString("SECRET_KEY")

	cfg.DB.Host = viper.GetString("DB_HOST")
	cfg.DB.Port = viper.GetString("DB_PORT")
	cfg.DB.User = viper.GetString("DB_USER")
	cfg.DB.Password = viper.GetString("DB_PASSWORD")
	cfg.DB.Name = viper.GetString("DB_NAME")
	cfg.Redis.Host = viper.GetString("REDIS_HOST")
	cfg.Redis.Port = viper.GetString("REDIS_PORT")

	// Cache config
	cfg.Cache.URLTTL = time.Duration(viper.GetInt("URL_TTL")) * time.Second
	if cfg.Cache.URLTTL == 0 {
		cfg.Cache.URLTTL = time.Hour
	}

	// Stats worker config
	cfg.Stats.BatchSize = viper.GetInt("STATS_BATCH_SIZE")
	if cfg.Stats.BatchSize == 0 {
		cfg.Stats.BatchSize = 100
	}
	cfg.Stats.PollInterval = viper.GetDuration("STATS_POLL_INTERVAL")
	if cfg.Stats.PollInterval == 0 {
		cfg.Stats.PollInterval = time.Second
	}
	cfg.Stats.ErrorBackoff = viper.GetDuration("STATS_ERROR_BACKOFF")
	if cfg.Stats.ErrorBackoff == 0 {
		cfg.Stats.ErrorBackoff = 5 * time.Second
	}
	cfg.Stats.WindowDays = viper.GetInt("STATS_WINDOW_DAYS")
	if cfg.Stats.WindowDays == 0 {
		cfg.Stats.WindowDays = 7
	}
	cfg.Stats.ExpiresDays = viper.GetInt("URL_EXPIRES_DAYS")
	if cfg.Stats.ExpiresDays == 0 {
		cfg.Stats.ExpiresDays = 30
	}

	// Safe Browsing config
	cfg.SafeBrowsing.APIKey = viper.GetString("SAFE_BROWSING_API_KEY")
	cfg.SafeBrowsing.Endpoint = viper.GetString("SAFE_BROWSING_ENDPOINT")
	if cfg.SafeBrowsing.Endpoint == "" {
		cfg.SafeBrowsing.Endpoint = "https://safebrowsing.googleapis.com/v4/threatMatches:find"
	}
	cfg.SafeBrowsing.Timeout = viper.GetDuration("SAFE_BROWSING_TIMEOUT")
	if cfg.SafeBrowsing.Timeout == 0 {
		cfg.SafeBrowsing.Timeout = 5 * time.Second
	}

	// Rate limit config
	cfg.RateLimit.RequestsPerSecond = viper.GetFloat64("RATE_LIMIT_RPS")
	if cfg.RateLimit.RequestsPerSecond == 0 {
		cfg.RateLimit.RequestsPerSecond = 10
	}
	cfg.RateLimit.BurstSize = viper.GetInt("RATE_LIMIT_BURST")
	if cfg.RateLimit.BurstSize == 0 {
		cfg.RateLimit.BurstSize = 20
	}

	return &cfg, nil
}
