// Package config loads settings from defaults, an optional lumi.yaml file, a
// .env file and the process environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var envReplacer = strings.NewReplacer(".", "_")

type Config struct {
	Environment string         `mapstructure:"environment"`
	Server      ServerConfig   `mapstructure:"server"`
	Database    DatabaseConfig `mapstructure:"database"`
	AI          AIConfig       `mapstructure:"ai"`
	Log         LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port" validate:"min=1,max=65535"`
	Token       string `mapstructure:"token"`
	CORSOrigins string `mapstructure:"cors_origins"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

type AIConfig struct {
	Token    string        `mapstructure:"token"`
	Endpoint string        `mapstructure:"endpoint" validate:"required,url"`
	Model    string        `mapstructure:"model" validate:"required"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=trace debug info warn error"`
	Pretty bool   `mapstructure:"pretty"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Load reads the configuration. When file is empty, lumi.yaml is looked up in
// the working directory and ./config and skipped if absent.
func Load(file string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("LUMI")
	v.SetEnvKeyReplacer(envReplacer)
	v.AutomaticEnv()
	if err := bindLegacyEnv(v); err != nil {
		return nil, err
	}

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("lumi")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5001)
	v.SetDefault("server.token", "")
	v.SetDefault("server.cors_origins", "*")
	v.SetDefault("database.url", "sqlite://./database/app.db")
	v.SetDefault("ai.token", "")
	v.SetDefault("ai.endpoint", "https://models.inference.ai.azure.com")
	v.SetDefault("ai.model", "gpt-4o-mini")
	v.SetDefault("ai.timeout", 30*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}

// bindLegacyEnv keeps the unprefixed variable names deployments already set.
// The LUMI_ form wins when both are present.
func bindLegacyEnv(v *viper.Viper) error {
	legacy := map[string][]string{
		"server.host":  {"LUMI_SERVER_HOST", "HOST"},
		"server.port":  {"LUMI_SERVER_PORT", "LUMI_PORT", "PORT"},
		"server.token": {"LUMI_SERVER_TOKEN", "LUMI_PASSWORD"},
		"database.url": {"LUMI_DATABASE_URL", "DATABASE_URL"},
		"ai.token":     {"LUMI_AI_TOKEN", "GITHUB_TOKEN"},
	}
	for key, names := range legacy {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return fmt.Errorf("binding %s: %w", key, err)
		}
	}
	return nil
}
