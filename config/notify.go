package config

// NotifyConfig contains notification fan-out and supplier routing
// configuration.
type NotifyConfig struct {
	// QueueSize is the capacity of the delivery queue. A full queue drops
	// the task and records the drop in the report.
	QueueSize int `env:"QUEUE_SIZE" envDefault:"256"`
	// Workers is the number of concurrent delivery workers.
	Workers int `env:"WORKERS" envDefault:"4"`
	// SyncPrimary delivers the client email inline so the transition
	// response carries a real outcome.
	SyncPrimary bool `env:"SYNC_PRIMARY" envDefault:"true"`

	// BrandGroupManufacturers always route part orders to BrandGroupSupplier,
	// regardless of the supplier name on the order.
	BrandGroupManufacturers []string `env:"BRAND_GROUP_MANUFACTURERS" envDefault:""`
	BrandGroupSupplier      string   `env:"BRAND_GROUP_SUPPLIER"      envDefault:""`
}

const (
	notifyDefaultQueueSize = 256
	notifyDefaultWorkers   = 4
	notifyMaxWorkers       = 64
)

// Sanitize applies guardrails to notification configuration values.
func (n *NotifyConfig) Sanitize() {
	if n.QueueSize <= 0 {
		n.QueueSize = notifyDefaultQueueSize
	}
	if n.Workers <= 0 {
		n.Workers = notifyDefaultWorkers
	}
	if n.Workers > notifyMaxWorkers {
		n.Workers = notifyMaxWorkers
	}
}
