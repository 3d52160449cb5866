package activitylog

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Detector computes and logs changes for one record type. It is immutable
// once built and safe for concurrent use.
type Detector struct {
	h           *Handler
	subjectType string
	opts        Options
	// parsed holds the configured references, parsed once.
	parsed map[string]Reference
}

func newDetector(h *Handler, subjectType string, opts Options) (*Detector, error) {
	refs, err := ParseReferences(opts.LogAttributes)
	if err != nil {
		return nil, fmt.Errorf("activitylog: invalid options for %s: %w", subjectType, err)
	}
	parsed := make(map[string]Reference, len(refs))
	for _, ref := range refs {
		parsed[ref.String()] = ref
	}
	opts.Events = slices.Clone(opts.events())
	return &Detector{h: h, subjectType: subjectType, opts: opts, parsed: parsed}, nil
}

// SubjectType is the record type name used on entries.
func (d *Detector) SubjectType() string { return d.subjectType }

// Options returns a copy of the compiled options.
func (d *Detector) Options() Options {
	o := d.opts
	o.Events = slices.Clone(o.Events)
	o.LogAttributes = slices.Clone(o.LogAttributes)
	o.LogExcept = slices.Clone(o.LogExcept)
	return o
}

// Records reports whether entries are produced for event.
func (d *Detector) Records(event Event) bool {
	return slices.Contains(d.opts.Events, event)
}

// Attributes returns the attribute references tracked for rec.
func (d *Detector) Attributes(rec Record) []string {
	return SelectAttributes(d.opts, rec)
}

// Snapshot resolves the tracked attributes of rec. Every reference is parsed
// before anything is resolved, so a malformed one yields no partial result.
func (d *Detector) Snapshot(ctx context.Context, rec Record) (*Snapshot, error) {
	return d.snapshot(ctx, rec, d.Attributes(rec))
}

func (d *Detector) snapshot(ctx context.Context, rec Record, names []string) (*Snapshot, error) {
	refs := make([]Reference, 0, len(names))
	for _, name := range names {
		ref, ok := d.parsed[name]
		if !ok {
			var err error
			if ref, err = ParseReference(name); err != nil {
				return nil, err
			}
		}
		refs = append(refs, ref)
	}
	return TakeSnapshot(ctx, rec, refs, d.h.cfg.Logger), nil
}

// Before captures the pre-mutation state of rec. It returns nil when event
// does not carry old values or is not recorded.
func (d *Detector) Before(ctx context.Context, event Event, rec Record) (*Staged, error) {
	if !event.UpdateFamily() || !d.Records(event) {
		return nil, nil
	}
	old, err := d.Snapshot(ctx, Original(rec))
	if err != nil {
		return nil, err
	}
	return NewStaged(event, old), nil
}

// After computes the payload for a finished mutation, consuming staged.
func (d *Detector) After(ctx context.Context, event Event, rec Record, staged *Staged) (Payload, error) {
	current := d.current(ctx, rec)
	names := d.Attributes(current)
	if len(names) == 0 {
		staged.take()
		return Payload{}, nil
	}
	attrs, err := d.snapshot(ctx, current, names)
	if err != nil {
		return Payload{}, err
	}
	withOld := event.UpdateFamily() && d.Records(EventUpdated)
	return Reduce(attrs, staged, d.opts.LogOnlyDirty, withOld), nil
}

// Changes computes the payload for an event without old values, such as created or deleted.
func (d *Detector) Changes(ctx context.Context, event Event, rec Record) (Payload, error) {
	return d.After(ctx, event, rec, nil)
}

// current reloads persisted records, falling back to rec when that fails.
func (d *Detector) current(ctx context.Context, rec Record) Record {
	if !rec.Exists() {
		return rec
	}
	fresh, err := rec.Fresh(ctx)
	if err != nil {
		d.h.cfg.Logger.Warn("activitylog: failed to refresh record",
			zap.String("subject_type", d.subjectType),
			zap.Error(err),
		)
		return rec
	}
	if fresh == nil {
		return rec
	}
	return fresh
}

// Log hands payload to the sink as an entry for event.
func (d *Detector) Log(ctx context.Context, event Event, rec Record, payload Payload) error {
	if LoggingDisabled(ctx) {
		return nil
	}
	if d.opts.SkipEmptyLogs && payload.IsEmpty() {
		return nil
	}
	logName := d.opts.LogName
	if logName == "" {
		logName = d.h.cfg.LogName
	}
	m := extractMeta(ctx)
	return d.h.write(ctx, Entry{
		ID:          uuid.NewString(),
		LogName:     logName,
		Event:       event,
		SubjectType: d.subjectType,
		SubjectID:   subjectKey(d.subjectType, rec),
		Causer:      m.causer,
		TraceID:     m.traceID,
		Reason:      m.reason,
		Properties:  payload,
		CreatedAt:   d.h.cfg.Clock(),
	})
}

// Register subscribes the detector to the lifecycle points of reg. Sink
// failures are logged and do not fail the mutation; snapshot errors do.
func (d *Detector) Register(reg HookRegistrar) {
	reg.BeforeUpdateFamily(func(ctx context.Context, event Event, rec Record) (*Staged, error) {
		if LoggingDisabled(ctx) {
			return nil, nil
		}
		return d.Before(ctx, event, rec)
	})
	reg.AfterUpdateFamily(func(ctx context.Context, event Event, rec Record, staged *Staged) error {
		if LoggingDisabled(ctx) || !d.Records(event) {
			return nil
		}
		payload, err := d.After(ctx, event, rec, staged)
		if err != nil {
			return err
		}
		if err := d.Log(ctx, event, rec, payload); err != nil {
			d.h.cfg.Logger.Warn("activitylog: dropped entry",
				zap.String("event", string(event)),
				zap.String("subject_type", d.subjectType),
				zap.Error(err),
			)
		}
		return nil
	})
}
