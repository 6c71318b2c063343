package mail

import (
	"context"
	"crypto/tls"
	"fmt"

	gomail "github.com/wneessen/go-mail"
)

// SMTPTransport is the production Transport backed by an SMTP client.
// A fresh client is built per call so each send uses exactly the
// configuration it was handed.
type SMTPTransport struct{}

func newClient(cfg Config) (*gomail.Client, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}
	if cfg.SSL {
		opts = append(opts, gomail.WithSSL())
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSOpportunistic))
	}
	if cfg.InsecureSkipVerify {
		opts = append(opts, gomail.WithTLSConfig(&tls.Config{
			InsecureSkipVerify: true, //nolint:gosec // relaxed validation is an explicit fallback strategy
			ServerName:         cfg.Host,
		}))
	}
	return gomail.NewClient(cfg.Host, opts...)
}

// Send builds the message and delivers it over a single SMTP session.
func (SMTPTransport) Send(ctx context.Context, cfg Config, env Envelope) error {
	msg := gomail.NewMsg()
	if err := msg.From(cfg.From); err != nil {
		return fmt.Errorf("invalid sender address %q: %w", cfg.From, err)
	}
	if err := msg.To(env.To); err != nil {
		return fmt.Errorf("invalid recipient address %q: %w", env.To, err)
	}
	msg.Subject(env.Subject)
	msg.SetBodyString(gomail.TypeTextPlain, env.Body)

	client, err := newClient(cfg)
	if err != nil {
		return fmt.Errorf("build smtp client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, msg)
}

// Verify probes connectivity by dialing and closing an SMTP session.
func (SMTPTransport) Verify(ctx context.Context, cfg Config) error {
	client, err := newClient(cfg)
	if err != nil {
		return fmt.Errorf("build smtp client: %w", err)
	}
	if err := client.DialWithContext(ctx); err != nil {
		return err
	}
	return client.Close()
}
