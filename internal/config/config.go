// Package config loads deployment settings for the ttcsv service and
// commands from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// LoadEnv loads variables from .env files when GO_ENV is unset or
// "development". Missing files are ignored; variables already set in the
// environment win.
func LoadEnv(files ...string) error {
	goEnv := os.Getenv("GO_ENV")
	if goEnv != "" && goEnv != "development" {
		return nil
	}
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// Config holds the service settings.
type Config struct {
	ServerAddr string `validate:"required"`

	// DatabaseURL enables storing converted rows. Empty disables it.
	DatabaseURL string

	// BodyLimitMB caps the size of uploaded PDFs.
	BodyLimitMB int `validate:"gte=1,lte=512"`

	Spaces Spaces
}

// Spaces configures publishing to an S3 compatible bucket. Publishing is
// enabled when Bucket is set.
type Spaces struct {
	AccessKey string `validate:"required_with=Bucket"`
	SecretKey string `validate:"required_with=Bucket"`
	Bucket    string
	Region    string `validate:"required_with=Bucket"`
	Endpoint  string
	CDNURL    string
}

// StoreEnabled reports whether a database is configured.
func (c *Config) StoreEnabled() bool {
	return c.DatabaseURL != ""
}

// PublishEnabled reports whether a bucket is configured.
func (c *Config) PublishEnabled() bool {
	return c.Spaces.Bucket != ""
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	limit, err := strconv.Atoi(getenv("BODY_LIMIT_MB", "32"))
	if err != nil {
		return nil, fmt.Errorf("invalid BODY_LIMIT_MB: %w", err)
	}

	cfg := &Config{
		ServerAddr:  getenv("SERVER_ADDR", ":8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		BodyLimitMB: limit,
		Spaces: Spaces{
			AccessKey: os.Getenv("DO_SPACES_ACCESS_KEY"),
			SecretKey: os.Getenv("DO_SPACES_SECRET_KEY"),
			Bucket:    os.Getenv("DO_SPACES_BUCKET"),
			Region:    os.Getenv("DO_SPACES_REGION"),
			Endpoint:  os.Getenv("DO_SPACES_ENDPOINT"),
			CDNURL:    os.Getenv("DO_SPACES_CDN_ENDPOINT"),
		},
	}

	// default endpoint, without scheme, for URL construction
	if cfg.Spaces.Endpoint == "" && cfg.Spaces.Region != "" {
		cfg.Spaces.Endpoint = cfg.Spaces.Region + ".digitaloceanspaces.com"
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks cfg against its struct tags and returns one error naming
// every invalid field.
func Validate(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		switch e.Tag() {
		case "required", "required_with":
			msgs = append(msgs, fmt.Sprintf("%s is required", e.Namespace()))
		case "gte", "lte":
			msgs = append(msgs, fmt.Sprintf("%s must be %s %s", e.Namespace(), e.Tag(), e.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", e.Namespace()))
		}
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
