package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearConfigEnv blanks every variable NewConfig reads so host settings cannot leak in.
// Empty values are ignored by the override pass.
func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		ConfigFileEnv,
		"SERVER_PORT", "SERVER_DEBUG", "SERVER_LOG_LEVEL", "SERVER_CORS_ORIGINS", "SERVER_BASE_URL",
		"EMAIL_PROVIDER", "EMAIL_HOST", "EMAIL_PORT", "EMAIL_SECURE", "EMAIL_USER", "EMAIL_PASSWORD",
		"EMAIL_FROM", "EMAIL_FROM_NAME", "EMAIL_TO", "EMAIL_SENDGRID_API_KEY", "EMAIL_TIMEOUT_SECONDS",
		"FORM_NAME_RULE", "FORM_MAX_UPLOAD_MB", "FORM_DEFAULT_REDIRECT_URL", "FORM_TIMEZONE",
		"OPEN_TELEMETRY_ENDPOINT", "OPEN_TELEMETRY_PROTOCOL", "OPEN_TELEMETRY_INSECURE",
		"OPEN_TELEMETRY_HEADERS", "OPEN_TELEMETRY_SERVICE_NAME", "OPEN_TELEMETRY_SERVICE_VERSION",
		"OPEN_TELEMETRY_ENABLE_TRACING", "OPEN_TELEMETRY_ENABLE_METRICS", "OPEN_TELEMETRY_ENABLE_LOGGING",
		"OPEN_TELEMETRY_SAMPLING_RATE", "OPEN_TELEMETRY_USE_AUTO_SDK", "IS_TEST",
	} {
		t.Setenv(key, "")
	}
}

func TestNewConfig_Defaults(t *testing.T) {
	clearConfigEnv(t)
	t.Chdir(t.TempDir())

	config, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "3000", config.Server.Port)
	assert.Equal(t, EmailProviderSMTP, config.Email.Provider)
	assert.Equal(t, "smtp.example.com", config.Email.Host)
	assert.Equal(t, 587, config.Email.Port)
	assert.False(t, config.Email.Secure)
	assert.Equal(t, "your-email@example.com", config.Email.User)
	assert.Equal(t, "your-password", config.Email.Password)
	assert.Equal(t, "noreply@example.com", config.Email.From)
	assert.Equal(t, "support@eldrive.eu", config.Email.To)
	assert.Equal(t, NameRuleStrict, config.Form.NameRule)
	assert.Equal(t, "eldrive://home", config.Form.DefaultRedirectURL)
	assert.Equal(t, int64(25<<20), config.Form.MaxUploadBytes())
	assert.Equal(t, 20*time.Second, config.Email.Timeout())
	assert.Equal(t, "issue-report", config.OpenTelemetry.ServiceName)
	assert.Equal(t, 1.0, config.OpenTelemetry.SamplingRate)
}

func TestNewConfig_LoadsFromYAML(t *testing.T) {
	clearConfigEnv(t)
	tempFile := createTempConfigFile(t, `
server:
  port: "9090"
  debug: true
  log_level: "debug"
  cors_origins:
    - "http://test:3000"
    - "http://test:3001"

email:
  provider: sendgrid
  host: "smtp.test.com"
  port: 465
  secure: true
  user: "mailer@test.com"
  password: "testpass"
  from: "noreply@test.com"
  from_name: "Eldrive Support Form"
  to: "support@test.com"
  sendgrid_api_key: "SG.test"
  timeout_seconds: 5

form:
  name_rule: relaxed
  max_upload_mb: 10
  default_redirect_url: "eldrive://charging"
  timezone: "Europe/Vilnius"

open_telemetry:
  endpoint: "test:4317"
  protocol: "http"
  insecure: false
  service_name: "test-service"
  enable_tracing: false
  sampling_rate: 0.5
  use_auto_sdk: true
`)
	t.Setenv(ConfigFileEnv, tempFile)

	config, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", config.Server.Port)
	assert.True(t, config.Server.Debug)
	assert.Equal(t, "debug", config.Server.LogLevel)
	assert.Equal(t, []string{"http://test:3000", "http://test:3001"}, config.Server.CORSOrigins)

	assert.Equal(t, EmailProviderSendGrid, config.Email.Provider)
	assert.Equal(t, "smtp.test.com", config.Email.Host)
	assert.Equal(t, 465, config.Email.Port)
	assert.True(t, config.Email.Secure)
	assert.Equal(t, "mailer@test.com", config.Email.User)
	assert.Equal(t, "testpass", config.Email.Password)
	assert.Equal(t, "noreply@test.com", config.Email.From)
	assert.Equal(t, "Eldrive Support Form", config.Email.FromName)
	assert.Equal(t, "support@test.com", config.Email.To)
	assert.Equal(t, "SG.test", config.Email.SendGridAPIKey)
	assert.Equal(t, 5*time.Second, config.Email.Timeout())

	assert.Equal(t, NameRuleRelaxed, config.Form.NameRule)
	assert.Equal(t, int64(10<<20), config.Form.MaxUploadBytes())
	assert.Equal(t, "eldrive://charging", config.Form.DefaultRedirectURL)
	assert.Equal(t, "Europe/Vilnius", config.Form.Timezone)

	assert.Equal(t, "test:4317", config.OpenTelemetry.Endpoint)
	assert.Equal(t, "http", config.OpenTelemetry.Protocol)
	assert.Equal(t, "test-service", config.OpenTelemetry.ServiceName)
	assert.False(t, config.OpenTelemetry.EnableTracing)
	assert.Equal(t, 0.5, config.OpenTelemetry.SamplingRate)
	assert.True(t, config.OpenTelemetry.UseAutoSDK)
}

func TestNewConfig_EnvironmentVariableOverrides(t *testing.T) {
	clearConfigEnv(t)
	tempFile := createTempConfigFile(t, `
server:
  port: "8080"
  debug: false
email:
  host: "smtp.yaml.com"
  port: 25
`)
	t.Setenv(ConfigFileEnv, tempFile)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SERVER_DEBUG", "true")
	t.Setenv("EMAIL_HOST", "smtp.env.com")
	t.Setenv("EMAIL_PORT", "465")
	t.Setenv("EMAIL_SECURE", "true")
	t.Setenv("EMAIL_TO", "ops@eldrive.eu")
	t.Setenv("FORM_NAME_RULE", "relaxed")

	config, err := NewConfig()
	require.NoError(t, err)

	// Environment variables should override YAML values
	assert.Equal(t, "9090", config.Server.Port)
	assert.True(t, config.Server.Debug)
	assert.Equal(t, "smtp.env.com", config.Email.Host)
	assert.Equal(t, 465, config.Email.Port)
	assert.True(t, config.Email.Secure)
	assert.Equal(t, "ops@eldrive.eu", config.Email.To)
	assert.Equal(t, NameRuleRelaxed, config.Form.NameRule)
}

func TestNewConfig_LoadsDotEnv(t *testing.T) {
	clearConfigEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("EMAIL_FROM=dotenv@example.com\n"), 0o600))
	t.Chdir(dir)
	// godotenv never overwrites variables that are already set, including empty ones
	require.NoError(t, os.Unsetenv("EMAIL_FROM"))
	t.Cleanup(func() { _ = os.Unsetenv("EMAIL_FROM") })

	config, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "dotenv@example.com", config.Email.From)
}

func TestNewConfig_StringSliceOverride(t *testing.T) {
	clearConfigEnv(t)
	tempFile := createTempConfigFile(t, `
server:
  cors_origins:
    - "http://default:3000"
`)
	t.Setenv(ConfigFileEnv, tempFile)
	t.Setenv("SERVER_CORS_ORIGINS", "http://env:3000, http://env:3001,http://env:3002")

	config, err := NewConfig()
	require.NoError(t, err)

	expected := []string{"http://env:3000", "http://env:3001", "http://env:3002"}
	assert.Equal(t, expected, config.Server.CORSOrigins)
}

func TestNewConfig_HeadersMapOverride(t *testing.T) {
	clearConfigEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("OPEN_TELEMETRY_HEADERS", "authorization=Bearer abc, x-team=support")

	config, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"authorization": "Bearer abc", "x-team": "support"}, config.OpenTelemetry.Headers)
}

func TestNewConfig_InvalidEnvironmentVariable(t *testing.T) {
	clearConfigEnv(t)
	tempFile := createTempConfigFile(t, `
email:
  port: 2525
`)
	t.Setenv(ConfigFileEnv, tempFile)
	t.Setenv("EMAIL_PORT", "invalid")

	config, err := NewConfig()
	require.NoError(t, err)

	// Should keep the original YAML value when environment variable is invalid
	assert.Equal(t, 2525, config.Email.Port)
}

func TestNewConfig_ConfigFileNotFound(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv(ConfigFileEnv, "/nonexistent/file.yaml")

	_, err := NewConfig()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config from /nonexistent/file.yaml")
}

func TestNewConfig_InvalidYAML(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv(ConfigFileEnv, createTempConfigFile(t, "server: [unclosed"))

	_, err := NewConfig()
	assert.Error(t, err)
}

func TestOverrideStructFromEnv_InvalidValues(t *testing.T) {
	config := &Config{
		Email: EmailConfig{Port: 587, Secure: true},
		OpenTelemetry: OpenTelemetryConfig{
			SamplingRate:  1.0,
			EnableTracing: true,
		},
	}

	t.Setenv("EMAIL_PORT", "not-a-number")
	t.Setenv("EMAIL_SECURE", "not-a-bool")
	t.Setenv("OPEN_TELEMETRY_SAMPLING_RATE", "not-a-float")
	t.Setenv("OPEN_TELEMETRY_ENABLE_TRACING", "not-a-bool")

	overrideStructFromEnv(config)

	// Should keep original values when environment variables are invalid
	assert.Equal(t, 587, config.Email.Port)
	assert.True(t, config.Email.Secure)
	assert.Equal(t, 1.0, config.OpenTelemetry.SamplingRate)
	assert.True(t, config.OpenTelemetry.EnableTracing)
}

func TestOverrideStructFromEnv_EmptyValues(t *testing.T) {
	config := &Config{
		Server: ServerConfig{
			Port:  "8080",
			Debug: false,
		},
	}

	t.Setenv("SERVER_PORT", "")
	t.Setenv("SERVER_DEBUG", "")

	overrideStructFromEnv(config)

	// Should keep original values when environment variables are empty
	assert.Equal(t, "8080", config.Server.Port)
	assert.False(t, config.Server.Debug)
}

func TestConfig_OpenTelemetryEnvironmentOverrides_OTEL_Prefix_ShouldNotWork(t *testing.T) {
	clearConfigEnv(t)
	tempFile := createTempConfigFile(t, `
open_telemetry:
  endpoint: "localhost:4317"
  protocol: "grpc"
  service_name: "test-service"
`)
	t.Setenv(ConfigFileEnv, tempFile)
	t.Setenv("OTEL_ENDPOINT", "otel-collector:4317")
	t.Setenv("OTEL_PROTOCOL", "http")

	config, err := NewConfig()
	require.NoError(t, err)

	// OTEL_ prefixed environment variables should NOT override YAML values
	assert.Equal(t, "localhost:4317", config.OpenTelemetry.Endpoint)
	assert.Equal(t, "grpc", config.OpenTelemetry.Protocol)
	assert.Equal(t, "test-service", config.OpenTelemetry.ServiceName)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		c := &Config{}
		c.applyDefaults()
		return c
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "log provider needs no credentials", mutate: func(c *Config) { c.Email.Provider = EmailProviderLog }},
		{
			name:    "sendgrid without key",
			mutate:  func(c *Config) { c.Email.Provider = EmailProviderSendGrid },
			wantErr: "sendgrid_api_key",
		},
		{
			name:   "sendgrid with key",
			mutate: func(c *Config) {
				c.Email.Provider = EmailProviderSendGrid
				c.Email.SendGridAPIKey = "SG.key"
			},
		},
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.Email.Provider = "pigeon" },
			wantErr: "unknown email provider",
		},
		{
			name:    "bad recipient",
			mutate:  func(c *Config) { c.Email.To = "support" },
			wantErr: "invalid email.to",
		},
		{
			name:    "bad sender",
			mutate:  func(c *Config) { c.Email.From = "" },
			wantErr: "invalid email.from",
		},
		{
			name:    "unknown name rule",
			mutate:  func(c *Config) { c.Form.NameRule = "lenient" },
			wantErr: "form.name_rule",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// Helper function to create a temporary config file
func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
