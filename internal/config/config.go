// Package config handles application configuration loading from a YAML file,
// an optional .env file and environment variables.
package config

import (
	"errors"
	"io/fs"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	contextutils "issuereport/internal/utils"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ConfigFileEnv names the environment variable pointing at an alternative config file.
const ConfigFileEnv = "ISSUES_CONFIG_FILE"

// Mail providers understood by the email factory.
const (
	EmailProviderSMTP     = "smtp"
	EmailProviderSendGrid = "sendgrid"
	EmailProviderLog      = "log"
)

// Name validation modes for the reporter's name field.
const (
	NameRuleStrict  = "strict"
	NameRuleRelaxed = "relaxed"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig `json:"server" yaml:"server"`

	// Email Configuration
	Email EmailConfig `json:"email" yaml:"email"`

	// Issue form behaviour
	Form FormConfig `json:"form" yaml:"form"`

	// OpenTelemetry Configuration
	OpenTelemetry OpenTelemetryConfig `json:"open_telemetry" yaml:"open_telemetry"`

	// Internal fields
	IsTest bool `json:"is_test" yaml:"is_test"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Port        string   `json:"port" yaml:"port"`
	Debug       bool     `json:"debug" yaml:"debug"`
	LogLevel    string   `json:"log_level" yaml:"log_level"`
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins"`
	// BaseURL is the externally visible address of the server. Used by the admin CLI
	// smoke command when no --url flag is given.
	BaseURL string `json:"base_url" yaml:"base_url"`
}

// EmailConfig represents the outbound mail configuration. The flat field names keep
// the EMAIL_HOST / EMAIL_PORT / ... environment variables working unchanged.
type EmailConfig struct {
	Provider       string `json:"provider" yaml:"provider"` // smtp, sendgrid or log
	Host           string `json:"host" yaml:"host"`
	Port           int    `json:"port" yaml:"port"`
	Secure         bool   `json:"secure" yaml:"secure"` // implicit TLS (port 465 style)
	User           string `json:"user" yaml:"user"`
	Password       string `json:"password" yaml:"password"`
	From           string `json:"from" yaml:"from"`
	FromName       string `json:"from_name" yaml:"from_name"`
	To             string `json:"to" yaml:"to"`
	SendGridAPIKey string `json:"sendgrid_api_key" yaml:"sendgrid_api_key"`
	// TimeoutSeconds bounds the SMTP dial and send.
	TimeoutSeconds int `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// Timeout returns the configured send timeout as a duration.
func (e EmailConfig) Timeout() time.Duration {
	if e.TimeoutSeconds <= 0 {
		return DefaultEmailTimeout
	}
	return time.Duration(e.TimeoutSeconds) * time.Second
}

// FormConfig controls validation and navigation details of the issue form.
type FormConfig struct {
	NameRule           string `json:"name_rule" yaml:"name_rule"` // strict or relaxed
	MaxUploadMB        int    `json:"max_upload_mb" yaml:"max_upload_mb"`
	DefaultRedirectURL string `json:"default_redirect_url" yaml:"default_redirect_url"`
	// Timezone decides what "today" means for the date-of-issue check.
	Timezone string `json:"timezone" yaml:"timezone"`
}

// MaxUploadBytes returns the request body limit for submissions.
func (f FormConfig) MaxUploadBytes() int64 {
	if f.MaxUploadMB <= 0 {
		return int64(DefaultMaxUploadMB) << 20
	}
	return int64(f.MaxUploadMB) << 20
}

// OpenTelemetryConfig holds all OpenTelemetry-related configuration
type OpenTelemetryConfig struct {
	Endpoint       string            `json:"endpoint" yaml:"endpoint"`               // Default: "localhost:4317"
	Protocol       string            `json:"protocol" yaml:"protocol"`               // "grpc" or "http", default: "grpc"
	Insecure       bool              `json:"insecure" yaml:"insecure"`               // Default: true (for localhost)
	Headers        map[string]string `json:"headers" yaml:"headers"`                 // For authenticated endpoints
	ServiceName    string            `json:"service_name" yaml:"service_name"`       // Default: "issue-report"
	ServiceVersion string            `json:"service_version" yaml:"service_version"` // From version package
	EnableTracing  bool              `json:"enable_tracing" yaml:"enable_tracing"`
	EnableMetrics  bool              `json:"enable_metrics" yaml:"enable_metrics"`
	EnableLogging  bool              `json:"enable_logging" yaml:"enable_logging"`
	SamplingRate   float64           `json:"sampling_rate" yaml:"sampling_rate"` // Default: 1.0 (100%)
	// UseAutoSDK routes spans through go.opentelemetry.io/auto/sdk so an eBPF
	// auto-instrumentation agent can pick them up instead of the OTLP exporter.
	UseAutoSDK bool `json:"use_auto_sdk" yaml:"use_auto_sdk"`
	// LogLevel is copied from server.log_level before observability is set up.
	LogLevel string `json:"-" yaml:"-"`
}

// NewConfig loads configuration from .env and the YAML file, fills defaults, then
// overrides with environment variables
func NewConfig() (result0 *Config, err error) {
	// A missing .env is normal outside local development
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to load .env: %w", err)
	}

	config, err := loadConfigWithOverrides()
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to load config: %w", err)
	}

	config.applyDefaults()

	// Override with environment variables
	config.overrideFromEnv()

	return config, nil
}

// applyDefaults fills zero values with the documented fallbacks
func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = DefaultServerPort
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = "http://localhost:" + DefaultServerPort
	}

	if c.Email.Provider == "" {
		c.Email.Provider = EmailProviderSMTP
	}
	if c.Email.Host == "" {
		c.Email.Host = DefaultEmailHost
	}
	if c.Email.Port == 0 {
		c.Email.Port = DefaultEmailPort
	}
	if c.Email.User == "" {
		c.Email.User = DefaultEmailUser
	}
	if c.Email.Password == "" {
		c.Email.Password = DefaultEmailPassword
	}
	if c.Email.From == "" {
		c.Email.From = DefaultEmailFrom
	}
	if c.Email.To == "" {
		c.Email.To = DefaultEmailTo
	}
	if c.Email.TimeoutSeconds == 0 {
		c.Email.TimeoutSeconds = int(DefaultEmailTimeout / time.Second)
	}

	if c.Form.NameRule == "" {
		c.Form.NameRule = NameRuleStrict
	}
	if c.Form.MaxUploadMB == 0 {
		c.Form.MaxUploadMB = DefaultMaxUploadMB
	}
	if c.Form.DefaultRedirectURL == "" {
		c.Form.DefaultRedirectURL = DefaultRedirectURL
	}
	if c.Form.Timezone == "" {
		c.Form.Timezone = DefaultFormTimezone
	}

	if c.OpenTelemetry.Endpoint == "" {
		c.OpenTelemetry.Endpoint = "localhost:4317"
	}
	if c.OpenTelemetry.Protocol == "" {
		c.OpenTelemetry.Protocol = "grpc"
	}
	if c.OpenTelemetry.ServiceName == "" {
		c.OpenTelemetry.ServiceName = DefaultServiceName
	}
	if c.OpenTelemetry.SamplingRate == 0 {
		c.OpenTelemetry.SamplingRate = 1.0
	}
}

// Validate checks the settings that would otherwise only fail at send time
func (c *Config) Validate() error {
	switch c.Email.Provider {
	case EmailProviderSMTP:
		if c.Email.Host == "" || c.Email.Port <= 0 {
			return contextutils.WrapError(contextutils.ErrEmailNotConfigured, "smtp provider needs email.host and email.port")
		}
	case EmailProviderSendGrid:
		if c.Email.SendGridAPIKey == "" {
			return contextutils.WrapError(contextutils.ErrEmailNotConfigured, "sendgrid provider needs email.sendgrid_api_key")
		}
	case EmailProviderLog:
	default:
		return contextutils.WrapErrorf(contextutils.ErrInvalidInput, "unknown email provider %q", c.Email.Provider)
	}

	if !contextutils.IsValidMailbox(c.Email.From) {
		return contextutils.WrapErrorf(contextutils.ErrInvalidInput, "invalid email.from address %q", c.Email.From)
	}
	if !contextutils.IsValidMailbox(c.Email.To) {
		return contextutils.WrapErrorf(contextutils.ErrInvalidInput, "invalid email.to address %q", c.Email.To)
	}

	switch c.Form.NameRule {
	case NameRuleStrict, NameRuleRelaxed:
	default:
		return contextutils.WrapErrorf(contextutils.ErrInvalidInput, "unknown form.name_rule %q", c.Form.NameRule)
	}

	return nil
}

// overrideFromEnv overrides config values with environment variables using reflection
func (c *Config) overrideFromEnv() {
	overrideStructFromEnv(c)
}

// overrideStructFromEnv recursively overrides struct fields with environment variables
func overrideStructFromEnv(v interface{}) {
	overrideStructFromEnvWithPrefix(v, "")
}

// overrideStructFromEnvWithPrefix recursively overrides struct fields with environment variables
func overrideStructFromEnvWithPrefix(v interface{}, prefix string) {
	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	if val.Kind() != reflect.Struct {
		return
	}

	typ := val.Type()
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)

		// Skip unexported fields
		if !field.CanSet() {
			continue
		}

		yamlTag := strings.Split(fieldType.Tag.Get("yaml"), ",")[0]
		if yamlTag == "" || yamlTag == "-" {
			continue
		}

		envKey := strings.ToUpper(strings.ReplaceAll(yamlTag, "-", "_"))
		if prefix != "" {
			envKey = prefix + "_" + envKey
		}

		switch field.Kind() {
		case reflect.String:
			if envVal := os.Getenv(envKey); envVal != "" {
				field.SetString(envVal)
			}
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if envVal := os.Getenv(envKey); envVal != "" {
				if intVal, err := strconv.ParseInt(envVal, 10, 64); err == nil {
					field.SetInt(intVal)
				}
			}
		case reflect.Float32, reflect.Float64:
			if envVal := os.Getenv(envKey); envVal != "" {
				if floatVal, err := strconv.ParseFloat(envVal, 64); err == nil {
					field.SetFloat(floatVal)
				}
			}
		case reflect.Bool:
			if envVal := os.Getenv(envKey); envVal != "" {
				if boolVal, err := strconv.ParseBool(envVal); err == nil {
					field.SetBool(boolVal)
				}
			}
		case reflect.Slice:
			if envVal := os.Getenv(envKey); envVal != "" {
				// Handle string slices (like CORS_ORIGINS)
				if field.Type().Elem().Kind() == reflect.String {
					parts := strings.Split(envVal, ",")
					for i := range parts {
						parts[i] = strings.TrimSpace(parts[i])
					}
					field.Set(reflect.ValueOf(parts))
				}
			}
		case reflect.Map:
			// KEY=value pairs separated by commas (like OPEN_TELEMETRY_HEADERS)
			if envVal := os.Getenv(envKey); envVal != "" && field.Type().Key().Kind() == reflect.String && field.Type().Elem().Kind() == reflect.String {
				m := make(map[string]string)
				for _, pair := range strings.Split(envVal, ",") {
					k, v, ok := strings.Cut(pair, "=")
					if ok && strings.TrimSpace(k) != "" {
						m[strings.TrimSpace(k)] = strings.TrimSpace(v)
					}
				}
				field.Set(reflect.ValueOf(m))
			}
		case reflect.Struct:
			// Recursively process nested structs with the field name as prefix
			if field.CanAddr() {
				overrideStructFromEnvWithPrefix(field.Addr().Interface(), envKey)
			}
		case reflect.Ptr:
			if !field.IsNil() && field.Elem().Kind() == reflect.Struct {
				overrideStructFromEnvWithPrefix(field.Interface(), envKey)
			}
		}
	}
}

// loadConfigWithOverrides loads the config file named by ISSUES_CONFIG_FILE, or
// config.yaml when present. Running without any file is supported.
func loadConfigWithOverrides() (result0 *Config, err error) {
	if envPath := os.Getenv(ConfigFileEnv); envPath != "" {
		config, err := loadConfigFromFile(envPath)
		if err != nil {
			return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to load config from %s: %w", envPath, err)
		}
		return config, nil
	}

	config, err := loadConfigFromFile("config.yaml")
	if errors.Is(err, fs.ErrNotExist) {
		return &Config{}, nil
	}
	return config, err
}

// loadConfigFromFile loads configuration from a specific file
func loadConfigFromFile(path string) (result0 *Config, err error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := yaml.Unmarshal(yamlFile, &config); err != nil {
		return nil, err
	}

	return &config, nil
}
