package mail

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"strings"
	"syscall"
)

// Diagnostic is an operator-facing classification of a delivery failure.
// It is reporting-only and never influences retry behavior.
type Diagnostic string

const (
	DiagAuthFailure        Diagnostic = "auth_failure"
	DiagConnectionRefused  Diagnostic = "connection_refused"
	DiagTimeout            Diagnostic = "timeout"
	DiagTLSError           Diagnostic = "tls_error"
	DiagDNSFailure         Diagnostic = "dns_failure"
	DiagEnvelopeError      Diagnostic = "envelope_error"
	DiagMessageFormatError Diagnostic = "message_format_error"
	DiagUnknown            Diagnostic = "unknown"
)

// Classify maps a transport error onto the closed diagnostic set.
func Classify(err error) Diagnostic {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return DiagTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return DiagTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return DiagDNSFailure
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return DiagConnectionRefused
	}

	var (
		recordErr tls.RecordHeaderError
		certErr   x509.CertificateInvalidError
		authErr   x509.UnknownAuthorityError
		hostErr   x509.HostnameError
	)
	if errors.As(err, &recordErr) || errors.As(err, &certErr) ||
		errors.As(err, &authErr) || errors.As(err, &hostErr) {
		return DiagTLSError
	}

	// SMTP-level failures reach us as textual reply errors.
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "535") || strings.Contains(msg, "authentication") || strings.Contains(msg, "auth failed"):
		return DiagAuthFailure
	case strings.Contains(msg, "connection refused"):
		return DiagConnectionRefused
	case strings.Contains(msg, "tls") || strings.Contains(msg, "certificate"):
		return DiagTLSError
	case strings.Contains(msg, "no such host"):
		return DiagDNSFailure
	case strings.Contains(msg, "recipient") || strings.Contains(msg, "sender") ||
		strings.Contains(msg, "mail from") || strings.Contains(msg, "rcpt to") ||
		strings.Contains(msg, "550") || strings.Contains(msg, "553"):
		return DiagEnvelopeError
	case strings.Contains(msg, "invalid address") || strings.Contains(msg, "malformed") ||
		strings.Contains(msg, "message validation"):
		return DiagMessageFormatError
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out"):
		return DiagTimeout
	}
	return DiagUnknown
}
