package configs

import (
	"sync"

	"github.com/spf13/viper"
)

// EnvConfig holds all runtime configuration, loaded from .env and the
// process environment.
type EnvConfig struct {
	Server struct {
		Port    string
		AppName string
		LogDir  string
	}
	Database struct {
		Path string
	}
	Auth struct {
		JWTSecret       string
		DefaultUser     string
		DefaultPassword string
	}
	SMTP struct {
		Host       string
		Port       int
		Username   string
		Password   string
		From       string
		AdminEmail string
	}
	AWS struct {
		Region          string
		AccessKeyID     string
		SecretAccessKey string
		Bucket          string
		Endpoint        string
	}
	Weather struct {
		APIURL string
	}
	LLM struct {
		APIURL string
		APIKey string
	}
	Notify struct {
		Endpoint string
	}
}

var (
	configInstance *EnvConfig
	once           sync.Once
)

func loadConfig() *EnvConfig {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()
	viper.AutomaticEnv()

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("APP_NAME", "weather-console")
	viper.SetDefault("LOG_DIR", "./logs")
	viper.SetDefault("DB_PATH", "weather-console.db")
	viper.SetDefault("JWT_SECRET", "super-secret-key-change-me")
	viper.SetDefault("DEFAULT_ADMIN_USER", "admin")
	viper.SetDefault("DEFAULT_ADMIN_PASSWORD", "admin123!")
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("WEATHER_API_URL", "https://api.weather.example.com/v1")

	config := &EnvConfig{}
	config.Server.Port = viper.GetString("PORT")
	config.Server.AppName = viper.GetString("APP_NAME")
	config.Server.LogDir = viper.GetString("LOG_DIR")
	config.Database.Path = viper.GetString("DB_PATH")
	config.Auth.JWTSecret = viper.GetString("JWT_SECRET")
	config.Auth.DefaultUser = viper.GetString("DEFAULT_ADMIN_USER")
	config.Auth.DefaultPassword = viper.GetString("DEFAULT_ADMIN_PASSWORD")
	config.SMTP.Host = viper.GetString("SMTP_HOST")
	config.SMTP.Port = viper.GetInt("SMTP_PORT")
	config.SMTP.Username = viper.GetString("SMTP_USER")
	config.SMTP.Password = viper.GetString("SMTP_PASS")
	config.SMTP.From = viper.GetString("SMTP_FROM")
	config.SMTP.AdminEmail = viper.GetString("ADMIN_EMAIL")
	config.AWS.Region = viper.GetString("AWS_REGION")
	config.AWS.AccessKeyID = viper.GetString("AWS_ACCESS_KEY_ID")
	config.AWS.SecretAccessKey = viper.GetString("AWS_SECRET_ACCESS_KEY")
	config.AWS.Bucket = viper.GetString("AWS_S3_BUCKET")
	config.AWS.Endpoint = viper.GetString("AWS_S3_ENDPOINT")
	config.Weather.APIURL = viper.GetString("WEATHER_API_URL")
	config.LLM.APIURL = viper.GetString("LLM_API_URL")
	config.LLM.APIKey = viper.GetString("LLM_API_KEY")
	config.Notify.Endpoint = viper.GetString("NOTIFICATION_ENDPOINT")

	return config
}

// GetConfig returns the singleton EnvConfig, loading it on first use.
func GetConfig() *EnvConfig {
	once.Do(func() {
		configInstance = loadConfig()
	})
	return configInstance
}
