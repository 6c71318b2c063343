package bootstrap

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/repairhq/fieldservice/config"
	"github.com/repairhq/fieldservice/internal/adapters/contacts"
	"github.com/repairhq/fieldservice/internal/adapters/notifyrunner"
	"github.com/repairhq/fieldservice/internal/composer"
	"github.com/repairhq/fieldservice/internal/core"
	"github.com/repairhq/fieldservice/internal/data"
	"github.com/repairhq/fieldservice/internal/delivery/mail"
	"github.com/repairhq/fieldservice/internal/delivery/sms"
	"github.com/repairhq/fieldservice/internal/domain/model"
	"github.com/repairhq/fieldservice/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Jobs       *service.JobService
	Parts      *service.PartOrderService
	Suppliers  *service.SupplierService
	Audit      core.AuditRepository
	Dispatcher *service.Dispatcher
	Runner     *notifyrunner.Runner
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// serviceRepositories groups data adapters backing service ports.
type serviceRepositories struct {
	Jobs      *data.JobRepo
	Parts     *data.PartOrderRepo
	Suppliers *data.SupplierRepo
	Audit     *data.AuditRepo
}

func buildRepositories(db *sql.DB) *serviceRepositories {
	return &serviceRepositories{
		Jobs:      data.NewJobRepo(db),
		Parts:     data.NewPartOrderRepo(db),
		Suppliers: data.NewSupplierRepo(db),
		Audit:     data.NewAuditRepo(db),
	}
}

// buildDirectory configures the contact directory, optionally wrapped with
// the Redis cache.
func buildDirectory(deps ServiceDeps) core.ContactDirectory {
	cfg := deps.Config.Contacts

	var adminContact *model.Contact
	if cfg.AdminEmail != "" || cfg.AdminPhone != "" {
		adminContact = &model.Contact{
			Name:  cfg.AdminName,
			Email: cfg.AdminEmail,
			Phone: cfg.AdminPhone,
		}
	}

	var directory core.ContactDirectory = contacts.NewHTTPDirectory(contacts.HTTPDirectoryOptions{
		BaseURL:      cfg.BaseURL,
		AdminContact: adminContact,
	})

	if deps.RedisClient != nil {
		directory = contacts.NewCachedDirectory(contacts.CachedDirectoryOptions{
			Inner:      directory,
			Cache:      data.NewRedisCacheRepo(deps.RedisClient),
			TTLSeconds: cfg.CacheTTLSeconds,
			Logger:     deps.Logger,
		})
	}

	return directory
}

func buildMailEngine(cfg config.MailConfig, logger *slog.Logger) *mail.Engine {
	return mail.NewEngine(mail.EngineOptions{
		Transport: mail.SMTPTransport{},
		Config: mail.Config{
			Host:               cfg.Host,
			Port:               cfg.Port,
			Username:           cfg.Username,
			Password:           cfg.Password,
			From:               cfg.From,
			SSL:                cfg.SSL,
			InsecureSkipVerify: cfg.InsecureSkipVerify,
		},
		MaxAttempts:    cfg.MaxAttempts,
		AttemptTimeout: time.Duration(cfg.AttemptTimeoutSeconds) * time.Second,
		Logger:         logger,
	})
}

func buildSMSEngine(cfg config.SMSConfig, logger *slog.Logger) *sms.Engine {
	provider := sms.NewHTTPProvider(sms.HTTPProviderOptions{
		BaseURL: cfg.GatewayURL,
		APIKey:  cfg.Token,
	})
	return sms.NewEngine(sms.EngineOptions{
		Provider:         provider,
		DefaultRegion:    cfg.DefaultRegion,
		MaxSegmentLength: cfg.MaxSegmentLength,
		AttemptTimeout:   time.Duration(cfg.AttemptTimeoutSeconds) * time.Second,
		Logger:           logger,
	})
}

// InitServices constructs repositories, delivery engines, the notification
// pipeline and the domain services.
func InitServices(deps ServiceDeps) (*ServiceContainer, error) {
	if deps.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	repos := buildRepositories(deps.DB)

	comp, err := composer.New()
	if err != nil {
		return nil, fmt.Errorf("load message templates: %w", err)
	}

	router := service.NewSupplierRouter(service.SupplierRouterOptions{
		Suppliers:               repos.Suppliers,
		BrandGroupManufacturers: deps.Config.Notify.BrandGroupManufacturers,
		BrandGroupSupplier:      deps.Config.Notify.BrandGroupSupplier,
		Logger:                  logger,
	})

	runner := notifyrunner.NewRunner(notifyrunner.RunnerOptions{
		QueueSize: deps.Config.Notify.QueueSize,
		Workers:   deps.Config.Notify.Workers,
		Logger:    logger,
	})

	dispatcher := service.NewDispatcher(service.DispatcherOptions{
		Contacts:    buildDirectory(deps),
		Router:      router,
		Composer:    comp,
		Mail:        buildMailEngine(deps.Config.Mail, logger),
		SMS:         buildSMSEngine(deps.Config.SMS, logger),
		Audit:       repos.Audit,
		Queue:       runner,
		SyncPrimary: deps.Config.Notify.SyncPrimary,
		Logger:      logger,
	})

	jobSvc := service.NewJobService(service.JobServiceOptions{
		Jobs:       repos.Jobs,
		Audit:      repos.Audit,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	partSvc := service.NewPartOrderService(service.PartOrderServiceOptions{
		Parts:      repos.Parts,
		Jobs:       repos.Jobs,
		JobService: jobSvc,
		Audit:      repos.Audit,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	supplierSvc := service.NewSupplierService(service.SupplierServiceOptions{
		Suppliers: repos.Suppliers,
		Logger:    logger,
	})

	return &ServiceContainer{
		Jobs:       jobSvc,
		Parts:      partSvc,
		Suppliers:  supplierSvc,
		Audit:      repos.Audit,
		Dispatcher: dispatcher,
		Runner:     runner,
	}, nil
}
