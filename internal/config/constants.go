package config

import "time"

// Timeout constants
const (
	// HTTP timeouts
	DefaultHTTPTimeout    = 60 * time.Second
	ServerShutdownTimeout = 30 * time.Second
	ReadHeaderTimeout     = 10 * time.Second

	// Mail timeouts
	DefaultEmailTimeout = 20 * time.Second

	// Client-side fallback delay on the deep-link redirect page
	RedirectFallbackDelay = 2 * time.Second
)

// Fallback values used when neither the config file nor the environment sets them
const (
	DefaultServerPort    = "3000"
	DefaultServiceName   = "issue-report"
	DefaultEmailHost     = "smtp.example.com"
	DefaultEmailPort     = 587
	DefaultEmailUser     = "your-email@example.com"
	DefaultEmailPassword = "your-password"
	DefaultEmailFrom     = "noreply@example.com"
	DefaultEmailTo       = "support@eldrive.eu"
	DefaultMaxUploadMB   = 25
	DefaultRedirectURL   = "eldrive://home"
	DefaultFormTimezone  = "Europe/Sofia"
)

// Security configuration constants
const (
	// Content Security Policy for the server-rendered pages
	DefaultCSP = "default-src 'self'; style-src 'self' 'unsafe-inline'; script-src 'self' 'unsafe-inline'; img-src 'self' data: blob:; form-action 'self'"
)
