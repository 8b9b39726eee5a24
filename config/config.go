package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type AppConfig struct {
	App struct {
		Name string `mapstructure:"NAME"`
		Port string `mapstructure:"PORT"`
		Env  string `mapstructure:"ENV"`
	}

	DATABASE struct {
		Postgres struct {
			DSN string `mapstructure:"URL"`
		}
		Redis struct {
			// comma separated host:port list, more than one address means cluster mode
			Addrs    string `mapstructure:"ADDRS"`
			Password string `mapstructure:"PASSWORD"`
			DB       int    `mapstructure:"DB"`
		}
		Mongo struct {
			Url      string `mapstructure:"URL"`
			Database string `mapstructure:"DATABASE"`
		}
	}

	CACHE struct {
		TTLSeconds int `mapstructure:"TTL_SECONDS"`
	}

	RATELIMIT struct {
		Requests      int      `mapstructure:"REQUESTS"`
		WindowSeconds int      `mapstructure:"WINDOW_SECONDS"`
		Whitelist     []string `mapstructure:"WHITELIST"`
	}

	AUTH struct {
		PublicKeyPath string `mapstructure:"PUBLIC_KEY_PATH"`
	}

	WORKER struct {
		Count int `mapstructure:"COUNT"`
	}

	WS struct {
		MaxConnections int `mapstructure:"MAX_CONNECTIONS"`
	}

	CORS struct {
		AllowedOrigins []string `mapstructure:"ALLOWED_ORIGINS"`
	}
}

var Conf *AppConfig

func setDefaults() {
	viper.SetDefault("APP.NAME", "chat-rooms")
	viper.SetDefault("APP.PORT", ":8080")
	viper.SetDefault("APP.ENV", "production")
	viper.SetDefault("DATABASE.REDIS.ADDRS", "localhost:6379")
	viper.SetDefault("DATABASE.REDIS.DB", 0)
	viper.SetDefault("DATABASE.MONGO.DATABASE", "chat_collection")
	viper.SetDefault("CACHE.TTL_SECONDS", 300)
	viper.SetDefault("RATELIMIT.REQUESTS", 60)
	viper.SetDefault("RATELIMIT.WINDOW_SECONDS", 60)
	viper.SetDefault("AUTH.PUBLIC_KEY_PATH", "public.pem")
	viper.SetDefault("WORKER.COUNT", 5)
	viper.SetDefault("WS.MAX_CONNECTIONS", 10000)
	viper.SetDefault("CORS.ALLOWED_ORIGINS", []string{"*"})
}

func LoadConfig() error {
	// .env is optional, real environment always wins
	_ = godotenv.Load()

	viper.SetConfigName("application")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("CHATAPP")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		log.Warn().Msg("application.yaml not found, using environment and defaults")
	}

	var config AppConfig
	if err := viper.Unmarshal(&config); err != nil {
		return fmt.Errorf("error unmarshalling config: %w", err)
	}

	Conf = &config
	log.Info().Msg("configuration loaded...")
	return nil
}

// RedisAddrs splits the configured redis node list.
func (c *AppConfig) RedisAddrs() []string {
	var addrs []string
	for _, a := range strings.Split(c.DATABASE.Redis.Addrs, ",") {
		if a = strings.TrimSpace(a); a != "" {
			addrs = append(addrs, a)
		}
	}
	return addrs
}

func (c *AppConfig) IsDevelopment() bool {
	return c.App.Env == "development"
}

// IsDevelopment reports whether the loaded configuration runs in development mode.
// It is false until LoadConfig has run.
func IsDevelopment() bool {
	return Conf != nil && Conf.IsDevelopment()
}
