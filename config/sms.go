package config

// SMSConfig contains SMS gateway configuration.
type SMSConfig struct {
	// GatewayURL is the base URL of the HTTP SMS gateway.
	GatewayURL string `env:"GATEWAY_URL" envDefault:"http://localhost:9090"`
	// Token authenticates against the gateway.
	Token string `env:"TOKEN" envDefault:""`
	// DefaultRegion is the region used to normalize national phone numbers.
	DefaultRegion string `env:"DEFAULT_REGION" envDefault:"US"`
	// MaxSegmentLength is the per-segment character budget.
	MaxSegmentLength int `env:"MAX_SEGMENT_LENGTH" envDefault:"160"`
	// AttemptTimeoutSeconds bounds a single gateway call.
	AttemptTimeoutSeconds int `env:"ATTEMPT_TIMEOUT_SECONDS" envDefault:"20"`
}

const (
	smsMinSegmentLength   = 40
	smsDefaultSegment     = 160
	smsDefaultTimeoutSec  = 20
	smsDefaultRegionValue = "US"
)

// Sanitize applies guardrails to SMS configuration values.
func (s *SMSConfig) Sanitize() {
	if s.MaxSegmentLength < smsMinSegmentLength {
		s.MaxSegmentLength = smsDefaultSegment
	}
	if s.AttemptTimeoutSeconds <= 0 {
		s.AttemptTimeoutSeconds = smsDefaultTimeoutSec
	}
	if s.DefaultRegion == "" {
		s.DefaultRegion = smsDefaultRegionValue
	}
}
