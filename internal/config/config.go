package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	Port    int    `yaml:"port"`
	GinMode string `yaml:"gin_mode"`
	BaseURL string `yaml:"base_url"`
}

type StoreConfig struct {
	Backend string `yaml:"backend"`
	DSN     string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type DiscordConfig struct {
	BotToken string `yaml:"bot_token"`
	AppID    string `yaml:"app_id"`
	GuildID  string `yaml:"guild_id"`
}

type RecaptchaConfig struct {
	SiteKey string `yaml:"site_key"`
	Secret  string `yaml:"secret"`
}

type TwilioConfig struct {
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	FromNumber string `yaml:"from_number"`
}

type VerificationConfig struct {
	CodeTTL      string `yaml:"code_ttl"`
	ResendWindow string `yaml:"resend_window"`
	PhoneSecret  string `yaml:"phone_secret"`
}

type ConfigFile struct {
	App          AppConfig          `yaml:"app"`
	Store        StoreConfig        `yaml:"store"`
	Redis        RedisConfig        `yaml:"redis"`
	Discord      DiscordConfig      `yaml:"discord"`
	Recaptcha    RecaptchaConfig    `yaml:"recaptcha"`
	Twilio       TwilioConfig       `yaml:"twilio"`
	Verification VerificationConfig `yaml:"verification"`
}

// Config is the resolved runtime configuration
type Config struct {
	Port             string
	GinMode          string
	BaseURL          string
	StoreBackend     string
	DSN              string
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	DiscordToken     string
	DiscordAppID     string
	DiscordGuildID   string
	RecaptchaSiteKey string
	RecaptchaSecret  string
	TwilioSID        string
	TwilioToken      string
	TwilioFrom       string
	CodeTTL          time.Duration
	ResendWindow     time.Duration
	PhoneSecret      string
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// Load reads config/config.yml and applies environment overrides for
// secrets and deployment-specific values.
func Load() (*Config, error) {
	return LoadFile("config/config.yml")
}

// LoadFile reads configuration from the given path
func LoadFile(path string) (*Config, error) {
	configFile, err := loadConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	codeTTL, err := parseDuration(configFile.Verification.CodeTTL, 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid sms code TTL: %w", err)
	}
	resendWindow, err := parseDuration(configFile.Verification.ResendWindow, 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid sms resend window: %w", err)
	}

	port := env("PORT", fmt.Sprintf("%d", configFile.App.Port))
	if port == "" || port == "0" {
		port = "3000"
	}

	backend := env("STORE_BACKEND", configFile.Store.Backend)
	if backend == "" {
		backend = "postgres"
	}
	if backend != "postgres" && backend != "memory" {
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}

	return &Config{
		Port:             port,
		GinMode:          configFile.App.GinMode,
		BaseURL:          env("BASE_URL", configFile.App.BaseURL),
		StoreBackend:     backend,
		DSN:              env("DATABASE_DSN", configFile.Store.DSN),
		RedisAddr:        env("REDIS_ADDR", configFile.Redis.Addr),
		RedisPassword:    env("REDIS_PASSWORD", configFile.Redis.Password),
		RedisDB:          configFile.Redis.DB,
		DiscordToken:     env("DISCORD_BOT_TOKEN", configFile.Discord.BotToken),
		DiscordAppID:     env("DISCORD_APP_ID", configFile.Discord.AppID),
		DiscordGuildID:   env("DISCORD_GUILD_ID", configFile.Discord.GuildID),
		RecaptchaSiteKey: env("RECAPTCHA_SITE_KEY", configFile.Recaptcha.SiteKey),
		RecaptchaSecret:  env("RECAPTCHA_SECRET", configFile.Recaptcha.Secret),
		TwilioSID:        env("TWILIO_ACCOUNT_SID", configFile.Twilio.AccountSID),
		TwilioToken:      env("TWILIO_AUTH_TOKEN", configFile.Twilio.AuthToken),
		TwilioFrom:       env("TWILIO_PHONE_NUMBER", configFile.Twilio.FromNumber),
		CodeTTL:          codeTTL,
		ResendWindow:     resendWindow,
		PhoneSecret:      env("PHONE_HASH_SECRET", configFile.Verification.PhoneSecret),
	}, nil
}

func loadConfigFile(path string) (*ConfigFile, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config file at %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(bytes, &config); err != nil {
		return nil, fmt.Errorf("could not parse config yaml: %w", err)
	}

	return &config, nil
}

func parseDuration(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	return time.ParseDuration(s)
}
