package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment variables overriding config keys, e.g.
// CRASHGRAM_NOTIFIER_BOT_TOKEN for notifier.bot_token.
const EnvPrefix = "CRASHGRAM"

// Load reads configuration from cfgFile, or from config.yaml in the current
// directory when cfgFile is empty. A missing default config file is not an
// error; environment variables alone can configure the notifier.
func Load(cfgFile string) (Config, string, error) {
	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return Config{}, "", fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, "", fmt.Errorf("unable to decode config: %w", err)
	}
	return cfg, v.ConfigFileUsed(), nil
}

// bindEnv registers every key so AutomaticEnv applies during Unmarshal even
// when the key is absent from the config file.
func bindEnv(v *viper.Viper) {
	for _, key := range []string{
		"notifier.bot_token",
		"notifier.chat_id",
		"notifier.base_url",
		"notifier.timeout_seconds",
		"notifier.message_limit",
		"notifier.ignored_classifications",
		"notifier.templates_file",
		"notifier.template_id",
		"notifier.locale",
		"notifier.actor_keys",
		"log.level",
		"log.format",
		"server.addr",
		"server.shutdown_timeout",
	} {
		_ = v.BindEnv(key)
	}
}

// LoadDotEnv loads environment variables from a .env file.
// If path is empty, it loads from ".env" in the current directory.
// If the file does not exist, it silently returns nil (not an error).
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}
