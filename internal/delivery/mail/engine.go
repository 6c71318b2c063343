// Package mail implements the email delivery engine: per-send retry with
// exponential backoff and a connectivity fallback ladder over SMTP settings.
package mail

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	apperrors "github.com/repairhq/fieldservice/internal/errors"
)

const (
	defaultMaxAttempts    = 3
	defaultAttemptTimeout = 20 * time.Second
	maxBackoff            = 30 * time.Second
)

// Config holds the SMTP settings for one connection strategy.
type Config struct {
	Host               string
	Port               int
	Username           string
	Password           string
	From               string
	SSL                bool
	InsecureSkipVerify bool
}

// Envelope is one logical message to a single recipient.
type Envelope struct {
	To      string
	Subject string
	Body    string
}

// Transport performs the actual SMTP I/O. Implementations must honor the
// context deadline on every call.
type Transport interface {
	Send(ctx context.Context, cfg Config, env Envelope) error
	Verify(ctx context.Context, cfg Config) error
}

// Engine sends messages through a Transport, retrying with backoff and
// falling back through alternative connection strategies when the active
// configuration stops working. The active configuration is swapped
// atomically so in-flight sends keep the configuration they started with.
type Engine struct {
	transport      Transport
	base           Config
	active         atomic.Pointer[Config]
	maxAttempts    int
	attemptTimeout time.Duration
	backoff        func(attempt int) time.Duration
	logger         *slog.Logger
}

// EngineOptions configures a mail Engine.
type EngineOptions struct {
	Transport      Transport
	Config         Config
	MaxAttempts    int                               // defaults to 3
	AttemptTimeout time.Duration                     // defaults to 20s
	Backoff        func(attempt int) time.Duration   // defaults to exponential backoff
	Logger         *slog.Logger
}

// NewEngine creates a mail delivery engine.
func NewEngine(opts EngineOptions) *Engine {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = defaultAttemptTimeout
	}
	if opts.Backoff == nil {
		opts.Backoff = backoffDelay
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	e := &Engine{
		transport:      opts.Transport,
		base:           opts.Config,
		maxAttempts:    opts.MaxAttempts,
		attemptTimeout: opts.AttemptTimeout,
		backoff:        opts.Backoff,
		logger:         opts.Logger.With("component", "mail_engine"),
	}
	cfg := opts.Config
	e.active.Store(&cfg)
	return e
}

// backoffDelay returns min(1000 * 2^(attempt-1), 30000) milliseconds.
func backoffDelay(attempt int) time.Duration {
	d := time.Duration(1000*(1<<(attempt-1))) * time.Millisecond
	if d > maxBackoff {
		d = maxBackoff
	}
	return d
}

// FallbackLadder returns the connection strategies tried in order when the
// active configuration stops working: the base settings as-is, the same host
// with relaxed certificate validation, port 587 without implicit TLS, and
// port 465 with implicit TLS.
func FallbackLadder(base Config) []Config {
	relaxed := base
	relaxed.InsecureSkipVerify = true

	submission := base
	submission.Port = 587
	submission.SSL = false

	smtps := base
	smtps.Port = 465
	smtps.SSL = true

	return []Config{base, relaxed, submission, smtps}
}

// ActiveConfig returns the configuration currently used for sends.
func (e *Engine) ActiveConfig() Config {
	return *e.active.Load()
}

// Reconfigure replaces both the base and the active configuration.
func (e *Engine) Reconfigure(cfg Config) {
	e.base = cfg
	e.active.Store(&cfg)
}

// Send delivers env, retrying on the active configuration and then walking
// the fallback ladder. It returns the number of transport send attempts made
// and a delivery error if every strategy failed. Classification of the error
// never shortcuts the retry budget.
func (e *Engine) Send(ctx context.Context, env Envelope) (int, error) {
	attempts := 0
	lastErr := e.sendWithRetry(ctx, e.ActiveConfig(), env, &attempts)
	if lastErr == nil {
		return attempts, nil
	}

	for _, candidate := range FallbackLadder(e.base) {
		if ctx.Err() != nil {
			break
		}
		if err := e.verify(ctx, candidate); err != nil {
			lastErr = err
			continue
		}
		cfg := candidate
		e.active.Store(&cfg)
		e.logger.InfoContext(ctx, "adopted fallback smtp configuration",
			"host", cfg.Host, "port", cfg.Port, "ssl", cfg.SSL, "insecure", cfg.InsecureSkipVerify)
		if err := e.sendWithRetry(ctx, cfg, env, &attempts); err != nil {
			lastErr = err
			continue
		}
		return attempts, nil
	}

	diag := Classify(lastErr)
	return attempts, apperrors.Wrapf(lastErr, apperrors.ErrCodeDelivery,
		"mail delivery to %s failed (%s) after %d attempts", env.To, diag, attempts)
}

func (e *Engine) sendWithRetry(ctx context.Context, cfg Config, env Envelope, attempts *int) error {
	var lastErr error
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		*attempts++
		actx, cancel := context.WithTimeout(ctx, e.attemptTimeout)
		err := e.transport.Send(actx, cfg, env)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		e.logger.WarnContext(ctx, "mail send attempt failed",
			"attempt", attempt, "host", cfg.Host, "port", cfg.Port, "diagnostic", Classify(err), "err", err)
		if attempt == e.maxAttempts {
			break
		}
		if sleepErr := sleepCtx(ctx, e.backoff(attempt)); sleepErr != nil {
			break
		}
	}
	return lastErr
}

func (e *Engine) verify(ctx context.Context, cfg Config) error {
	vctx, cancel := context.WithTimeout(ctx, e.attemptTimeout)
	defer cancel()
	return e.transport.Verify(vctx, cfg)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
