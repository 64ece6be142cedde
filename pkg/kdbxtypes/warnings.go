package kdbxtypes

import "fmt"

// WarnKind classifies a non-fatal condition surfaced during load or save.
// Unlike ErrKind, a warning never aborts the operation that produced it.
type WarnKind int

const (
	WarnVersionUpgraded  WarnKind = iota // file was opened at a lower minor version and will be saved at a higher one
	WarnUnknownHeader                    // a header field outside the known set was preserved opaquely
	WarnDuplicateUUID                    // two objects shared a UUID; the first occurrence was kept
	WarnUnknownCustomData                // custom-data entry carried fields this library doesn't interpret
	WarnImplicitRootDropped               // the synthetic root group was recognized and removed on save
	WarnLossyHistory                      // history truncation discarded entries to satisfy a size/count limit
)

func (k WarnKind) String() string {
	switch k {
	case WarnVersionUpgraded:
		return "version_upgraded"
	case WarnUnknownHeader:
		return "unknown_header"
	case WarnDuplicateUUID:
		return "duplicate_uuid"
	case WarnUnknownCustomData:
		return "unknown_custom_data"
	case WarnImplicitRootDropped:
		return "implicit_root_dropped"
	case WarnLossyHistory:
		return "lossy_history"
	default:
		return "unknown"
	}
}

// Warning is one entry in a WarnReport. Err is optional context, not a
// failure: a Warning never implements the error interface because it is
// never returned as one.
type Warning struct {
	Kind    WarnKind
	Message string
	Err     error
}

func (w Warning) String() string {
	if w.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", w.Kind, w.Message, w.Err)
	}
	return fmt.Sprintf("%s: %s", w.Kind, w.Message)
}

// WarnReport accumulates warnings produced over the course of one load or
// save call. The zero value is ready to use.
type WarnReport struct {
	items []Warning
}

// Add appends a warning to the report.
func (r *WarnReport) Add(kind WarnKind, message string, err error) {
	r.items = append(r.items, Warning{Kind: kind, Message: message, Err: err})
}

// Items returns the accumulated warnings in the order they were added. The
// returned slice is owned by the caller and safe to retain.
func (r *WarnReport) Items() []Warning {
	if r == nil {
		return nil
	}
	out := make([]Warning, len(r.items))
	copy(out, r.items)
	return out
}

// Empty reports whether no warnings were recorded.
func (r *WarnReport) Empty() bool {
	return r == nil || len(r.items) == 0
}

// Has reports whether any recorded warning matches kind.
func (r *WarnReport) Has(kind WarnKind) bool {
	if r == nil {
		return false
	}
	for _, w := range r.items {
		if w.Kind == kind {
			return true
		}
	}
	return false
}
