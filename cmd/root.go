package cmd

import (
	"errors"
	"io/fs"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/matchcv/internal/logger"
)

const (
	app = "matchcv"
)

type Config struct {
	Providers    *ProvidersConfig `mapstructure:"providers"`
	Embedding    *EmbeddingConfig `mapstructure:"embedding"`
	Server       *ServerConfig    `mapstructure:"server"`
	MaxLogLength int              `mapstructure:"max-log-length"`
}

type ProvidersConfig struct {
	Groq    *HostedConfig `mapstructure:"groq"`
	Mistral *HostedConfig `mapstructure:"mistral"`
	Ollama  *OllamaConfig `mapstructure:"ollama"`
	Gemini  *GeminiConfig `mapstructure:"gemini"`
}

// HostedConfig configures an OpenAI-compatible hosted provider.
type HostedConfig struct {
	APIKey     string        `mapstructure:"api-key" json:"-"`
	APIKeyFile string        `mapstructure:"api-key-file"`
	BaseURL    string        `mapstructure:"base-url"`
	Model      string        `mapstructure:"model"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Disabled   bool          `mapstructure:"disabled"`
}

type OllamaConfig struct {
	BaseURL  string        `mapstructure:"base-url"`
	Model    string        `mapstructure:"model"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Disabled bool          `mapstructure:"disabled"`
}

type GeminiConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	APIKey     string        `mapstructure:"api-key" json:"-"`
	APIKeyFile string        `mapstructure:"api-key-file"`
	Model      string        `mapstructure:"model"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type EmbeddingConfig struct {
	// Provider is one of none, ollama or gemini.
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`
}

type ServerConfig struct {
	Address                  string        `mapstructure:"address"`
	AllowedOrigins           []string      `mapstructure:"allowed-origins"`
	MaxConcurrentAdaptations int64         `mapstructure:"max-concurrent-adaptations"`
	ShutdownTimeout          time.Duration `mapstructure:"shutdown-timeout"`
}

var (
	// Used for flags.
	cfgFile string
	envFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "matchcv scores a résumé against a job offer and adapts it with LLM providers",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

var envBindings = map[string][]string{
	"providers.groq.api-key":         {"GROQ_API_KEY"},
	"providers.groq.api-key-file":    {"GROQ_API_KEY_FILE"},
	"providers.mistral.api-key":      {"MISTRAL_API_KEY"},
	"providers.mistral.api-key-file": {"MISTRAL_API_KEY_FILE"},
	"providers.ollama.base-url":      {"OLLAMA_BASE_URL"},
	"providers.gemini.api-key":       {"GEMINI_API_KEY"},
	"providers.gemini.api-key-file":  {"GEMINI_API_KEY_FILE"},
	"embedding.provider":             {"MATCHCV_EMBEDDING_PROVIDER"},
	"server.address":                 {"MATCHCV_ADDRESS"},
}

func init() {
	for key, envs := range envBindings {
		if err := viper.BindEnv(append([]string{key}, envs...)...); err != nil {
			log.Fatalf("binding %v environment variables: %v", envs, err)
		}
	}

	viper.SetDefault("max-log-length", 200)
	viper.SetDefault("embedding.provider", "none")
	viper.SetDefault("server.address", ":8000")
	viper.SetDefault("server.max-concurrent-adaptations", 4)

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is matchcv.yaml in current directory)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "a dotenv file with provider keys")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Variables already present in the environment win over the dotenv file.
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading %s: %v", envFile, err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The config file is optional unless it was asked for explicitly.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
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

	if config == nil {
		config = &Config{}
	}
	if config.Providers == nil {
		config.Providers = &ProvidersConfig{}
	}
	if config.Embedding == nil {
		config.Embedding = &EmbeddingConfig{}
	}
	if config.Server == nil {
		config.Server = &ServerConfig{}
	}

	return config, nil
}

// setup builds the logger and reads the config. Failures are fatal.
func setup() (*zap.Logger, *Config) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	return logger, config
}
