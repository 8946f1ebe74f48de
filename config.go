package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	TwitterBearerToken string `yaml:"twitter_bearer_token"`
	TargetHandle       string `yaml:"target_handle"`
	MaxPostsPerFetch   int    `yaml:"max_posts_per_fetch"`

	ClassifierProvider     string  `yaml:"classifier_provider"` // "anthropic", "huggingface", or "keyword"
	ClassifierModel        string  `yaml:"classifier_model"`
	AnthropicAPIKey        string  `yaml:"anthropic_api_key"`
	HuggingFaceAPIKey      string  `yaml:"huggingface_api_key"`
	ConfidenceThreshold    float64 `yaml:"confidence_threshold"`
	ClassifyTimeoutSeconds int     `yaml:"classify_timeout_seconds"`
	ClassifyWorkers        int     `yaml:"classify_workers"`

	ExternalHTTPTimeoutSeconds int `yaml:"external_http_timeout_seconds"`

	DBPath        string `yaml:"db_path"`
	CSVExportPath string `yaml:"csv_export_path"`
	TicketPrefix  string `yaml:"ticket_prefix"`
	LanguageCode  string `yaml:"language_code"`
	SourceChannel string `yaml:"source_channel"`

	PollSchedule   string `yaml:"poll_schedule"` // 5-field cron; empty = single run
	SlackBotToken  string `yaml:"slack_bot_token"`
	SlackChannelID string `yaml:"slack_channel_id"`
}

func LoadConfig() Config {
	var cfg Config

	// .env first, so a local dotenv behaves like real env vars.
	_ = godotenv.Load()

	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	// Env vars override YAML values.
	envOverride(&cfg.TwitterBearerToken, "TWITTER_BEARER_TOKEN")
	envOverride(&cfg.TargetHandle, "TARGET_HANDLE")
	envOverrideInt(&cfg.MaxPostsPerFetch, "MAX_POSTS_PER_FETCH")
	envOverride(&cfg.ClassifierProvider, "CLASSIFIER_PROVIDER")
	envOverride(&cfg.ClassifierModel, "CLASSIFIER_MODEL")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.HuggingFaceAPIKey, "HUGGINGFACE_API_KEY")
	envOverrideFloat(&cfg.ConfidenceThreshold, "CONFIDENCE_THRESHOLD")
	envOverrideInt(&cfg.ClassifyTimeoutSeconds, "CLASSIFY_TIMEOUT_SECONDS")
	envOverrideInt(&cfg.ClassifyWorkers, "CLASSIFY_WORKERS")
	envOverrideInt(&cfg.ExternalHTTPTimeoutSeconds, "EXTERNAL_HTTP_TIMEOUT_SECONDS")
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverride(&cfg.CSVExportPath, "CSV_EXPORT_PATH")
	envOverride(&cfg.TicketPrefix, "TICKET_PREFIX")
	envOverride(&cfg.LanguageCode, "LANGUAGE_CODE")
	envOverride(&cfg.SourceChannel, "SOURCE_CHANNEL")
	envOverride(&cfg.PollSchedule, "POLL_SCHEDULE")
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.SlackChannelID, "SLACK_CHANNEL_ID")

	// Defaults
	if cfg.TargetHandle == "" {
		cfg.TargetHandle = "YourBankSupport"
	}
	if cfg.MaxPostsPerFetch == 0 {
		cfg.MaxPostsPerFetch = 20
	}
	if cfg.ConfidenceThreshold == 0 {
		cfg.ConfidenceThreshold = 0.6
	}
	if cfg.ClassifyTimeoutSeconds == 0 {
		cfg.ClassifyTimeoutSeconds = 30
	}
	if cfg.ClassifyWorkers == 0 {
		cfg.ClassifyWorkers = 1
	}
	if cfg.ExternalHTTPTimeoutSeconds == 0 {
		cfg.ExternalHTTPTimeoutSeconds = int(defaultExternalHTTPTimeout / time.Second)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "./tickets.db"
	}
	if cfg.TicketPrefix == "" {
		cfg.TicketPrefix = "TKT"
	}
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = "en"
	}
	if cfg.SourceChannel == "" {
		cfg.SourceChannel = "twitter"
	}
	if cfg.ClassifierProvider == "" {
		switch {
		case cfg.AnthropicAPIKey != "":
			cfg.ClassifierProvider = "anthropic"
		case cfg.HuggingFaceAPIKey != "":
			cfg.ClassifierProvider = "huggingface"
		default:
			cfg.ClassifierProvider = "keyword"
		}
	}

	// Validate
	switch cfg.ClassifierProvider {
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			log.Fatalf("anthropic_api_key is required when classifier_provider=anthropic")
		}
	case "huggingface", "keyword":
		// HuggingFace works unauthenticated at a reduced rate limit.
	default:
		log.Fatalf("classifier_provider must be 'anthropic', 'huggingface' or 'keyword', got '%s'", cfg.ClassifierProvider)
	}

	if cfg.ConfidenceThreshold < 0 || cfg.ConfidenceThreshold > 1 {
		log.Fatalf("invalid confidence_threshold '%f': must be between 0 and 1", cfg.ConfidenceThreshold)
	}
	if cfg.MaxPostsPerFetch < 1 {
		log.Fatalf("invalid max_posts_per_fetch '%d': must be >= 1", cfg.MaxPostsPerFetch)
	}
	if cfg.ClassifyTimeoutSeconds < 1 {
		log.Fatalf("invalid classify_timeout_seconds '%d': must be >= 1", cfg.ClassifyTimeoutSeconds)
	}
	if cfg.ClassifyWorkers < 1 {
		log.Fatalf("invalid classify_workers '%d': must be >= 1", cfg.ClassifyWorkers)
	}
	if cfg.ExternalHTTPTimeoutSeconds < 1 {
		log.Fatalf("invalid external_http_timeout_seconds '%d': must be >= 1", cfg.ExternalHTTPTimeoutSeconds)
	}
	if cfg.SlackBotToken != "" && cfg.SlackChannelID == "" {
		log.Fatalf("slack_channel_id is required when slack_bot_token is set")
	}

	return cfg
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}

func envOverrideFloat(field *float64, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}
