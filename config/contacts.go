package config

// ContactsConfig contains contact directory configuration.
type ContactsConfig struct {
	// BaseURL is the base URL of the contact directory service.
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:9091"`

	// AdminName, AdminEmail and AdminPhone short-circuit directory lookups
	// for the back-office role, which has a single shared mailbox.
	AdminName  string `env:"ADMIN_NAME"  envDefault:"Back Office"`
	AdminEmail string `env:"ADMIN_EMAIL" envDefault:""`
	AdminPhone string `env:"ADMIN_PHONE" envDefault:""`

	// CacheTTLSeconds is how long resolved contacts stay cached.
	CacheTTLSeconds int `env:"CACHE_TTL_SECONDS" envDefault:"300"`
}
