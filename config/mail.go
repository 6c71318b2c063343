package config

// MailConfig contains SMTP delivery configuration.
type MailConfig struct {
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"587"`
	Username string `env:"USERNAME" envDefault:""`
	Password string `env:"PASSWORD" envDefault:""`
	From     string `env:"FROM"     envDefault:"no-reply@fieldservice.local"`
	SSL      bool   `env:"SSL"      envDefault:"false"`
	// InsecureSkipVerify disables server certificate verification. Only
	// meant for lab SMTP servers with self-signed certificates.
	InsecureSkipVerify bool `env:"INSECURE_SKIP_VERIFY" envDefault:"false"`

	// MaxAttempts is the per-configuration retry budget.
	MaxAttempts int `env:"MAX_ATTEMPTS" envDefault:"3"`
	// AttemptTimeoutSeconds bounds a single SMTP attempt.
	AttemptTimeoutSeconds int `env:"ATTEMPT_TIMEOUT_SECONDS" envDefault:"20"`
}

const (
	mailMinAttempts       = 1
	mailMaxAttempts       = 10
	mailDefaultTimeoutSec = 20
)

// Sanitize applies guardrails to mail configuration values.
func (m *MailConfig) Sanitize() {
	if m.MaxAttempts < mailMinAttempts {
		m.MaxAttempts = mailMinAttempts
	}
	if m.MaxAttempts > mailMaxAttempts {
		m.MaxAttempts = mailMaxAttempts
	}
	if m.AttemptTimeoutSeconds <= 0 {
		m.AttemptTimeoutSeconds = mailDefaultTimeoutSec
	}
}
