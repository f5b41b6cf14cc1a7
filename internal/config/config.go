// Package config assembles the application settings from defaults, a .env
// file, environment variables, and command line flags. Flags take
// precedence over the environment, which takes precedence over defaults.
package config

import (
	"flag"
	"os"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds every runtime setting of the service.
type Config struct {
	RunAddr                    string        `env:"SERVER_ADDRESS" validate:"hostname_port"`
	ShortURLBase               string        `env:"BASE_URL" validate:"url"`
	LogLevel                   string        `env:"LOG_LEVEL" validate:"loglevel"`
	DBFileName                 string        `env:"FILE_STORAGE_PATH" validate:"filepath"`
	AuthCookieName             string        `env:"AUTH_COOKIE_NAME" validate:"required"`
	AuthCookieSigningSecretKey string        `env:"AUTH_COOKIE_SIGNING_SECRET_KEY" validate:"required,base64url"`
	SessionTTL                 time.Duration `env:"SESSION_TTL"`
	CodeLength                 int           `env:"CODE_LENGTH" validate:"gte=1"`
	CodeGenerationMaxAttempts  int           `env:"CODE_GENERATION_MAX_ATTEMPTS" validate:"gte=1"`
	TrustedSubnet              string        `env:"TRUSTED_SUBNET" validate:"omitempty,cidr"`
}

var defaultConfig = Config{
	RunAddr:        ":8080",
	ShortURLBase:   "http://localhost:8080",
	LogLevel:       "info",
	DBFileName:     "",
	AuthCookieName: "tinylink_session",
	// base64url of a development-only signing key; override in production.
	AuthCookieSigningSecretKey: "dGlueWxpbmstZGV2ZWxvcG1lbnQtc2lnbmluZy1rZXk=",
	SessionTTL:                 24 * time.Hour,
	CodeLength:                 6,
	CodeGenerationMaxAttempts:  10,
	TrustedSubnet:              "",
}

func validateFilePath(fieldLevel validator.FieldLevel) bool {
	path := fieldLevel.Field().String()
	_, err := os.Stat(path)

	return err == nil || os.IsNotExist(err)
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	allowedLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}

	return allowedLogLevels[fieldLevel.Field().String()]
}

func validate(values *Config) error {
	validate := validator.New()

	if err := validate.RegisterValidation("loglevel", validateLogLevel); err != nil {
		return err
	}

	if err := validate.RegisterValidation("filepath", validateFilePath); err != nil {
		return err
	}

	return validate.Struct(values)
}

// InitOption customizes New.
type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
}

// WithDisableFlagsParsing prevents New from touching the process flag set,
// which tests need when they construct configs repeatedly.
func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

// New builds and validates the configuration.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	// A missing .env file is fine; the environment may be set directly.
	_ = godotenv.Load()

	values := defaultConfig

	if err := env.Parse(&values); err != nil {
		return nil, err
	}

	if !options.disableFlagsParsing {
		flag.StringVar(&values.RunAddr, "a", values.RunAddr, "address and port to run server")
		flag.StringVar(&values.ShortURLBase, "b", values.ShortURLBase, "base address of the resulting shortened URL")
		flag.StringVar(&values.LogLevel, "l", values.LogLevel, "logger level")
		flag.StringVar(&values.DBFileName, "f", values.DBFileName, "JSON file name with database")
		flag.StringVar(&values.TrustedSubnet, "t", values.TrustedSubnet, "CIDR of the subnet allowed to query internal stats")
		flag.IntVar(&values.CodeLength, "c", values.CodeLength, "length of generated short codes and user IDs")
		flag.Parse()
	}

	if err := validate(&values); err != nil {
		return nil, err
	}

	return &values, nil
}
