// Package config defines the environment-driven configuration of the
// application, loaded with github.com/caarlos0/env.
package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files:
//   - database.go: PostgreSQL and Redis configuration
//   - http.go: HTTP server configuration
//   - mail.go: SMTP delivery configuration
//   - sms.go: SMS gateway configuration
//   - contacts.go: contact directory configuration
//   - notify.go: notification fan-out and supplier routing configuration
//   - services.go: service mode selection
type AppConfig struct {
	// IsDev controls development mode behavior (verbose logging, etc.)
	IsDev bool `env:"DEV" envDefault:"false"`

	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	HTTP HTTPConfig

	Mail     MailConfig     `envPrefix:"MAIL_"`
	SMS      SMSConfig      `envPrefix:"SMS_"`
	Contacts ContactsConfig `envPrefix:"CONTACTS_"`
	Notify   NotifyConfig   `envPrefix:"NOTIFY_"`

	// Services selects which service modes this process runs,
	// comma-delimited, e.g. "http" or "http,notify-runner".
	Services string `env:"SERVICES" envDefault:"http,notify-runner"`
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.Mail.Sanitize()
	c.SMS.Sanitize()
	c.Notify.Sanitize()
	c.detectDevMode()
}

// detectDevMode checks both DEV and APP_ENV environment variables.
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		appEnv := strings.ToLower(os.Getenv("APP_ENV"))
		c.IsDev = appEnv == "development" || appEnv == "dev"
	}
}

// GetEnabledServices returns the enabled services based on the Services field.
func (c *AppConfig) GetEnabledServices() (map[ServiceMode]bool, error) {
	return ParseServices(c.Services)
}

// IsHTTPServerEnabled returns true if the HTTP server service is enabled.
func (c *AppConfig) IsHTTPServerEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeHTTP]
}

// IsNotifyRunnerEnabled returns true if the notification runner is enabled.
func (c *AppConfig) IsNotifyRunnerEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeNotifyRunner]
}
