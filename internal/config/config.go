package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Supported repository drivers
const (
	DriverMongo    = "mongo"
	DriverDynamoDB = "dynamodb"
	DriverBadger   = "badger"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	S3       S3Config       `mapstructure:"s3"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Events   EventsConfig   `mapstructure:"events"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
	Mode    string `mapstructure:"mode"` // gin mode: debug, release or test
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// DatabaseConfig selects and configures the item repository driver.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`

	// mongo
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`

	// dynamodb
	Table           string `mapstructure:"table"`
	CreatedAtIndex  string `mapstructure:"created_at_index"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	CreateTable     bool   `mapstructure:"create_table"`

	// badger; empty path means in-memory
	Path string `mapstructure:"path"`
}

type S3Config struct {
	Endpoint            string        `mapstructure:"endpoint"`
	Region              string        `mapstructure:"region"`
	AccessKeyID         string        `mapstructure:"access_key_id"`
	SecretAccessKey     string        `mapstructure:"secret_access_key"`
	BucketName          string        `mapstructure:"bucket_name"`
	PublicBaseURL       string        `mapstructure:"public_base_url"`
	UploadURLExpiration time.Duration `mapstructure:"upload_url_expiration"`
}

// JWTConfig defines how caller tokens are verified.
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"` // Optional; checked when set
}

// EventsConfig guards the storage notification endpoint.
type EventsConfig struct {
	AuthToken string `mapstructure:"auth_token"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Nested keys map to env vars: s3.bucket_name -> S3_BUCKET_NAME
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	setDefaults(v)

	var config Config
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config, fmt.Errorf("read config: %w", err)
		}
		// No config file; defaults and env vars only
	}

	if err := v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("database.driver", DriverMongo)
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "todo_app")
	v.SetDefault("database.table", "Todos")
	v.SetDefault("database.created_at_index", "CreatedAtIndex")
	v.SetDefault("database.region", "us-east-1")
	v.SetDefault("database.endpoint", "")
	v.SetDefault("database.access_key_id", "")
	v.SetDefault("database.secret_access_key", "")
	v.SetDefault("database.create_table", false)
	v.SetDefault("database.path", "")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
	v.SetDefault("s3.bucket_name", "")
	v.SetDefault("s3.public_base_url", "")
	v.SetDefault("s3.upload_url_expiration", "5m")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "")
	v.SetDefault("events.auth_token", "")
}

// Validate checks the settings the server cannot start without.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case DriverMongo, DriverDynamoDB, DriverBadger:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.S3.BucketName == "" {
		return errors.New("s3.bucket_name is required")
	}
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}
	return nil
}

// Warnings lists settings that are valid but unsafe for a public deployment.
func (c Config) Warnings() []string {
	var warnings []string
	if c.Events.AuthToken == "" {
		warnings = append(warnings, "events.auth_token is not set; POST /events/storage accepts unauthenticated requests")
	}
	return warnings
}
