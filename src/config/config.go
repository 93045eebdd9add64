package config

import (
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Service         ServiceConfig        `mapstructure:"service"`
	Databases       DatabasesConfig      `mapstructure:"databases"`
	ExternalClients ExternalClientConfig `mapstructure:"externalClients"`
	Auth            AuthConfig           `mapstructure:"auth"`
	AWS             AWSConfig            `mapstructure:"aws"`
}

type ServiceConfig struct {
	Port string `mapstructure:"port"`
}

type DatabasesConfig struct {
	SQL   SQLConfig   `mapstructure:"sql"`
	Redis RedisConfig `mapstructure:"redis"`
}

type SQLConfig struct {
	Host             string `mapstructure:"host"`
	Port             string `mapstructure:"port"`
	Username         string `mapstructure:"username"`
	Password         string `mapstructure:"password"`
	Driver           string `mapstructure:"driver"`
	Database         string `mapstructure:"database"`
	ConnectionString string `mapstructure:"connection_string"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database int    `mapstructure:"database"`
}

type ExternalClientConfig struct {
	Quotes QuotesConfig `mapstructure:"quotes"`
}

type QuotesConfig struct {
	BaseURL string `mapstructure:"baseUrl"`
	// Token is the API key sent on every quote request. When empty,
	// TokenSecretID is resolved through AWS Secrets Manager instead.
	Token         string `mapstructure:"token"`
	TokenSecretID string `mapstructure:"tokenSecretId"`
}

type AuthConfig struct {
	JWTSecret       string `mapstructure:"jwtSecret"`
	TokenTTLMinutes int    `mapstructure:"tokenTTLMinutes"`
}

type AWSConfig struct {
	Region string `mapstructure:"region"`
}

// LoadConfig reads appsettings.yaml from path, overlaying
// appsettings.<ENV>.yaml on top when env is set.
func LoadConfig(path string, env string) (*Config, error) {
	var cfg Config

	viper.AddConfigPath(path)
	viper.SetConfigName("appsettings")
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	if env != "" {
		viper.SetConfigName("appsettings." + strings.ToUpper(env))
		if err := viper.MergeInConfig(); err != nil {
			return nil, err
		}
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
