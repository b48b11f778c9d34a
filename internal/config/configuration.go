package config

import (
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type ApplicationConfiguration struct {
	ServerPort          string
	DatabaseURL         string
	EmailSenderAddress  string
	EmailSenderPassword string
}

func LoadApplicationConfiguration() ApplicationConfiguration {
	if dotenvError := godotenv.Load(); dotenvError != nil {
		log.Debug("No .env file found, relying on process environment")
	}

	environment := viper.New()
	environment.AutomaticEnv()

	environment.BindEnv("port", "PORT")
	environment.BindEnv("database_url", "DATABASE_URL")
	environment.BindEnv("email_sender_address", "EMAIL_SENDER_ADDRESS")
	environment.BindEnv("email_sender_password", "EMAIL_SENDER_PASSWORD")
	environment.BindEnv("db_user", "DB_USER")
	environment.BindEnv("db_password", "DB_PASSWORD")
	environment.BindEnv("db_name", "DB_NAME")
	environment.BindEnv("db_host", "DB_HOST")
	environment.BindEnv("db_port", "DB_PORT")

	environment.SetDefault("port", "8000")
	environment.SetDefault("db_user", "postgres")
	environment.SetDefault("db_password", "postgres")
	environment.SetDefault("db_name", "price_alerts")
	environment.SetDefault("db_host", "localhost")
	environment.SetDefault("db_port", "5432")

	configuration := ApplicationConfiguration{
		ServerPort:          environment.GetString("port"),
		DatabaseURL:         resolveDatabaseURL(environment),
		EmailSenderAddress:  environment.GetString("email_sender_address"),
		EmailSenderPassword: environment.GetString("email_sender_password"),
	}

	if configuration.EmailSenderAddress == "" || configuration.EmailSenderPassword == "" {
		log.Warn("Email credentials are not configured, notifications will be skipped")
	}

	return configuration
}

func resolveDatabaseURL(environment *viper.Viper) string {
	configuredURL := environment.GetString("database_url")
	if configuredURL != "" {
		return configuredURL
	}

	return buildDatabaseURL(environment)
}

func buildDatabaseURL(environment *viper.Viper) string {
	databaseUser := environment.GetString("db_user")
	databasePassword := environment.GetString("db_password")
	databaseName := environment.GetString("db_name")
	databaseHost := environment.GetString("db_host")
	databasePort := environment.GetString("db_port")

	return "postgres://" + databaseUser + ":" + databasePassword + "@" + databaseHost + ":" + databasePort + "/" + databaseName + "?sslmode=disable"
}
