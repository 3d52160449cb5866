package activitylog

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// RedactFunc defines a function used to sanitize or mask values before they reach the sink.
type RedactFunc func(key string, v any) any

// RedactMap maps attribute keys to specific redaction functions.
type RedactMap map[string]RedactFunc

// Mask replaces any value with a fixed placeholder.
func Mask(string, any) any { return "[REDACTED]" }

// Config defines the main configuration options shared by every tracked record type.
type Config struct {
	LogName string           // default log name for entries, "default" when empty
	Sink    Sink             // receives entries; discarded when nil
	Logger  *zap.Logger      // diagnostics; zap.NewNop() when nil
	Redact  RedactMap        // optional key-based redaction
	Clock   func() time.Time // entry timestamps; time.Now when nil
}

// Handler is the main entry point that manages activity logging behavior.
type Handler struct {
	cfg Config
}

// New creates a new Handler instance with sensible defaults.
func New(cfg Config) *Handler {
	if cfg.LogName == "" {
		cfg.LogName = "default"
	}
	if cfg.Sink == nil {
		cfg.Sink = SinkFunc(func(context.Context, Entry) error { return nil })
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Redact == nil {
		cfg.Redact = RedactMap{}
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Handler{cfg: cfg}
}

// Logger returns the diagnostics logger.
func (h *Handler) Logger() *zap.Logger {
	return h.cfg.Logger
}

// Track compiles opts for the record type named by subject. The subject is
// either a type name or a value of the record type.
func (h *Handler) Track(subject any, opts Options) (*Detector, error) {
	subjectType, err := resolveSubjectType(subject)
	if err != nil {
		return nil, err
	}
	return newDetector(h, subjectType, opts)
}

// applyRedact returns a redacted copy of the given snapshot using cfg.Redact.
func (h *Handler) applyRedact(s *Snapshot) *Snapshot {
	if s == nil || len(h.cfg.Redact) == 0 {
		return s
	}
	out := NewSnapshot()
	for _, k := range s.keys {
		v := s.values[k]
		if fn, ok := h.cfg.Redact[k]; ok && fn != nil {
			v = fn(k, v)
		}
		out.Set(k, v)
	}
	return out
}

// write hands e to the sink after redaction.
func (h *Handler) write(ctx context.Context, e Entry) error {
	e.Properties = Payload{
		Attributes: h.applyRedact(e.Properties.Attributes),
		Old:        h.applyRedact(e.Properties.Old),
	}
	if err := h.cfg.Sink.Write(ctx, e); err != nil {
		return fmt.Errorf("activitylog: failed to write %s entry for %s: %w", e.Event, e.SubjectType, err)
	}
	return nil
}
