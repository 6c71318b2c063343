// Package sms implements the text-message delivery engine: phone number
// normalization, segmentation of long messages, and per-segment provider
// calls with aggregate outcome reporting.
package sms

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nyaruka/phonenumbers"

	apperrors "github.com/repairhq/fieldservice/internal/errors"
)

const (
	defaultMaxSegmentLength = 160
	defaultAttemptTimeout   = 20 * time.Second
)

// Provider submits one message segment to the upstream SMS gateway.
type Provider interface {
	Send(ctx context.Context, phone, text string) (providerMessageID string, err error)
}

// Result reports the aggregate outcome of one logical send.
type Result struct {
	Phone          string
	Segments       int
	FailedSegments []int // 1-based indices of segments the provider rejected
}

// Engine delivers text messages through a Provider.
type Engine struct {
	provider       Provider
	defaultRegion  string
	maxSegmentLen  int
	attemptTimeout time.Duration
	logger         *slog.Logger
}

// EngineOptions configures an SMS engine.
type EngineOptions struct {
	Provider         Provider
	DefaultRegion    string        // ISO 3166-1 region for numbers without a country code
	MaxSegmentLength int           // defaults to 160
	AttemptTimeout   time.Duration // defaults to 20s
	Logger           *slog.Logger
}

// NewEngine creates an SMS delivery engine.
func NewEngine(opts EngineOptions) *Engine {
	if opts.MaxSegmentLength <= 0 {
		opts.MaxSegmentLength = defaultMaxSegmentLength
	}
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = defaultAttemptTimeout
	}
	if opts.DefaultRegion == "" {
		opts.DefaultRegion = "US"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Engine{
		provider:       opts.Provider,
		defaultRegion:  opts.DefaultRegion,
		maxSegmentLen:  opts.MaxSegmentLength,
		attemptTimeout: opts.AttemptTimeout,
		logger:         opts.Logger.With("component", "sms_engine"),
	}
}

// Normalize parses raw into canonical E.164 form, applying the default
// region when the number carries no country code.
func (e *Engine) Normalize(raw string) (string, error) {
	num, err := phonenumbers.Parse(raw, e.defaultRegion)
	if err != nil {
		return "", apperrors.Validationf("invalid phone number %q: %v", raw, err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", apperrors.Validationf("invalid phone number %q", raw)
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// Send normalizes phone, splits text into segments and submits each segment
// as an independent provider call. The aggregate succeeds only if every
// segment succeeds; on partial failure the returned error names the failed
// segment indices even though some segments were delivered.
func (e *Engine) Send(ctx context.Context, phone, text string) (Result, error) {
	canonical, err := e.Normalize(phone)
	if err != nil {
		return Result{Phone: phone}, err
	}

	segments := SplitSegments(text, e.maxSegmentLen)
	res := Result{Phone: canonical, Segments: len(segments)}

	var lastErr error
	for i, segment := range segments {
		sctx, cancel := context.WithTimeout(ctx, e.attemptTimeout)
		msgID, sendErr := e.provider.Send(sctx, canonical, segment)
		cancel()
		if sendErr != nil {
			res.FailedSegments = append(res.FailedSegments, i+1)
			lastErr = sendErr
			e.logger.WarnContext(ctx, "sms segment failed",
				"phone", canonical, "segment", i+1, "of", len(segments), "err", sendErr)
			continue
		}
		e.logger.DebugContext(ctx, "sms segment sent",
			"phone", canonical, "segment", i+1, "of", len(segments), "provider_message_id", msgID)
	}

	if len(res.FailedSegments) > 0 {
		return res, apperrors.Wrapf(lastErr, apperrors.ErrCodeDelivery,
			"sms to %s failed for segments %s of %d", canonical, joinInts(res.FailedSegments), len(segments))
	}
	return res, nil
}

// SplitSegments breaks text into provider-sized pieces. A text that fits one
// segment is returned unchanged. Longer texts are split on word boundaries,
// the boundary space staying with the preceding piece, and each piece carries
// an " (i/n)" marker; concatenating the pieces minus the markers reconstructs
// the original text byte for byte.
func SplitSegments(text string, maxLen int) []string {
	if len(text) <= maxLen {
		return []string{text}
	}

	// The marker reserve depends on how many segments come out, which in
	// turn depends on the reserve. Start at two digits per index and widen
	// until the split fits its own markers.
	for digits := 2; ; digits++ {
		// " (" + index + "/" + count + ")"
		reserve := 4 + 2*digits
		budget := maxLen - reserve
		if budget < 1 {
			budget = 1
		}

		parts := splitAt(text, budget)
		n := len(parts)
		if len(fmt.Sprintf("%d", n)) > digits {
			continue
		}

		segments := make([]string, n)
		for i, part := range parts {
			segments[i] = fmt.Sprintf("%s (%d/%d)", part, i+1, n)
		}
		return segments
	}
}

// splitAt cuts text into pieces of at most budget bytes, preferring the last
// word boundary inside the window and hard-splitting words longer than the
// budget. No byte is dropped.
func splitAt(text string, budget int) []string {
	var parts []string
	rest := text
	for len(rest) > budget {
		cut := strings.LastIndexByte(rest[:budget], ' ')
		if cut < 0 {
			parts = append(parts, rest[:budget])
			rest = rest[budget:]
			continue
		}
		parts = append(parts, rest[:cut+1])
		rest = rest[cut+1:]
	}
	return append(parts, rest)
}

// StripMarker removes the trailing " (i/n)" marker from a segment, if present.
func StripMarker(segment string) string {
	open := strings.LastIndex(segment, " (")
	if open < 0 || !strings.HasSuffix(segment, ")") {
		return segment
	}
	inner := segment[open+2 : len(segment)-1]
	var i, n int
	if _, err := fmt.Sscanf(inner, "%d/%d", &i, &n); err != nil {
		return segment
	}
	return segment[:open]
}

func joinInts(vals []int) string {
	strs := make([]string, len(vals))
	for i, v := range vals {
		strs[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(strs, ",")
}
