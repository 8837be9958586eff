package config

import (
	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port   int    `env:"PORT" envDefault:"8080"`
		Origin string `env:"ORIGIN" envDefault:"http://localhost:3000"`
	}

	Redis struct {
		Host     string `env:"REDIS_HOST" envDefault:""`
		Port     int    `env:"REDIS_PORT" envDefault:"6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	Telegram struct {
		BotToken string `env:"BOT_TOKEN" envDefault:""`
		// BotUsername builds the entry deep links on announcement buttons. The
		// bot binary discovers it from the API; the http server needs it set.
		BotUsername string `env:"BOT_USERNAME" envDefault:""`
		// Usernames never eligible to win, comma separated.
		ExcludedUsernames  []string `env:"EXCLUDE_USERNAMES" envSeparator:","`
		EnablePostGiveaway bool     `env:"ENABLE_POST_GIVEAWAY" envDefault:"true"`
	}

	MProxy struct {
		BaseURL string `env:"MPROXY_BASE_URL" envDefault:""`
		Token   string `env:"MPROXY_TOKEN" envDefault:""`
	}
}

// HasRedis reports whether a redis-backed history log is configured; without
// it history falls back to process memory.
func (c *Config) HasRedis() bool {
	return c.Redis.Host != ""
}

func Load() *Config {
	// Missing .env is fine: in production the variables are set directly.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		panic(err)
	}
	return cfg
}
