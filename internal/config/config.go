package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the bootstrap configuration for the service. Values are read
// by viper from a config file or environment variables. Runtime-mutable
// settings (Telegram credentials, storage mode) live in the store instead;
// the token and chat id here only seed the store on first boot.
type Config struct {
	ListenAddr   string `mapstructure:"LISTEN_ADDR"`
	BadgerDBPath string `mapstructure:"BADGERDB_PATH"`
	PublicDir    string `mapstructure:"PUBLIC_DIR"`
	BaseURL      string `mapstructure:"BASE_URL"`
	LogLevel     string `mapstructure:"LOG_LEVEL"`

	TelegramBotToken string `mapstructure:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   string `mapstructure:"TELEGRAM_CHAT_ID"`

	// EnableBot starts the interactive Telegram control bot alongside the
	// HTTP server. Requires TELEGRAM_BOT_TOKEN.
	EnableBot bool `mapstructure:"ENABLE_BOT"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("LISTEN_ADDR", ":8080")
	viper.SetDefault("BADGERDB_PATH", "./badger_data")
	viper.SetDefault("PUBLIC_DIR", "./websites")
	viper.SetDefault("BASE_URL", "http://localhost:8080")
	viper.SetDefault("LOG_LEVEL", "info")

	err = viper.ReadInConfig()
	if err != nil {
		// A missing config file is fine, env vars may carry everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		return Config{}, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if config.EnableBot && config.TelegramBotToken == "" {
		return Config{}, fmt.Errorf("ENABLE_BOT requires TELEGRAM_BOT_TOKEN to be set")
	}

	return config, nil
}
