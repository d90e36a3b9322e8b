package cmd

import (
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "collab-matcher"
)

type Config struct {
	Server   *ServerConfig   `mapstructure:"server"`
	Auth     *AuthConfig     `mapstructure:"auth"`
	AI       *AIConfig       `mapstructure:"ai"`
	Store    *StoreConfig    `mapstructure:"store"`
	Redis    *RedisConfig    `mapstructure:"redis"`
	Snapshot *SnapshotConfig `mapstructure:"snapshot"`
	Client   *ClientConfig   `mapstructure:"client"`
}

type ServerConfig struct {
	Addr        string   `mapstructure:"addr"`
	CORSOrigins []string `mapstructure:"cors-origins"`
}

type AuthConfig struct {
	Secret         string        `mapstructure:"secret"`
	SecretFile     string        `mapstructure:"secret-file"`
	Issuer         string        `mapstructure:"issuer"`
	Audience       string        `mapstructure:"audience"`
	AllowedDomains []string      `mapstructure:"allowed-domains"`
	TestEmails     []string      `mapstructure:"test-emails"`
	TokenTTL       time.Duration `mapstructure:"token-ttl"`
}

type AIConfig struct {
	Provider     string        `mapstructure:"provider"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxLogLength int           `mapstructure:"max-log-length"`
	Gemini       *GeminiConfig `mapstructure:"gemini"`
	OpenAI       *OpenAIConfig `mapstructure:"openai"`
}

type GeminiConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
	MaxRetries int    `mapstructure:"max-retries"`
}

type OpenAIConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
	BaseURL    string `mapstructure:"base-url"`
}

type StoreConfig struct {
	Driver      string `mapstructure:"driver"`
	SeedFile    string `mapstructure:"seed-file"`
	DatabaseURL string `mapstructure:"database-url"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
	Key string `mapstructure:"key"`
}

type SnapshotConfig struct {
	Schedule string `mapstructure:"schedule"`
}

type ClientConfig struct {
	APIURL    string `mapstructure:"api-url"`
	TokenFile string `mapstructure:"token-file"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "collab-matcher matches students with collaboration projects",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is collab-matcher.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	setDefaults()
}

func setDefaults() {
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("server.cors-origins", []string{})

	viper.SetDefault("auth.secret", "")
	viper.SetDefault("auth.secret-file", "")
	viper.SetDefault("auth.issuer", "")
	viper.SetDefault("auth.audience", "")
	viper.SetDefault("auth.allowed-domains", []string{})
	viper.SetDefault("auth.test-emails", []string{})
	viper.SetDefault("auth.token-ttl", "24h")

	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("ai.timeout", "10s")
	viper.SetDefault("ai.max-log-length", 200)
	viper.SetDefault("ai.gemini.api-key", "")
	viper.SetDefault("ai.gemini.api-key-file", "")
	viper.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	viper.SetDefault("ai.gemini.max-retries", 2)
	viper.SetDefault("ai.openai.api-key", "")
	viper.SetDefault("ai.openai.api-key-file", "")
	viper.SetDefault("ai.openai.model", "gpt-4o-mini")
	viper.SetDefault("ai.openai.base-url", "")

	viper.SetDefault("store.driver", "memory")
	viper.SetDefault("store.seed-file", "")
	viper.SetDefault("store.database-url", "")

	viper.SetDefault("redis.url", "")
	viper.SetDefault("redis.key", "")

	viper.SetDefault("snapshot.schedule", "@every 5m")

	viper.SetDefault("client.api-url", "http://localhost:8080")
	viper.SetDefault("client.token-file", "")
}

func initConfig() {
	// A missing .env is fine; it only exists on development machines.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	viper.SetEnvPrefix("COLLAB")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// Without an explicit --config everything can come from env and defaults.
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
