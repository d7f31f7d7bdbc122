package render

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"

	"github.com/mxplusb/epsilon/src/native"
)

// ErrWindowClosed is returned by chain recreation when the window asks to
// close while its drawable area is empty.
var ErrWindowClosed = errors.New("render: window closed while waiting for a drawable area")

// Kind classifies failures crossing the render core boundary.
type Kind int

const (
	// KindConstruction is a native creation call returning a failure status.
	KindConstruction Kind = iota + 1
	// KindConfiguration is caller configuration rejected before any native call.
	KindConfiguration
	// KindStaleSurface is the swapchain no longer matching its surface. It is
	// the only kind the frame loop recovers from on its own.
	KindStaleSurface
	// KindLookup is a failed search, e.g. no device with the required capabilities.
	KindLookup
	// KindFatal is any other native failure.
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindConstruction:
		return "construction failure"
	case KindConfiguration:
		return "configuration error"
	case KindStaleSurface:
		return "stale surface"
	case KindLookup:
		return "lookup failure"
	case KindFatal:
		return "fatal"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the error type of the render core. Values are never mutated after
// construction.
type Error struct {
	Kind      Kind
	Op        string
	Msg       string
	Status    native.Status
	HasStatus bool
}

func (e *Error) Error() string {
	switch {
	case e.HasStatus && e.Msg != "":
		return fmt.Sprintf("%s: %s: %s (%s, %d)", e.Kind, e.Op, e.Msg, e.Status, int32(e.Status))
	case e.HasStatus:
		return fmt.Sprintf("%s: %s: %s (%d)", e.Kind, e.Op, e.Status, int32(e.Status))
	default:
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Op, e.Msg)
	}
}

// NewError wraps a native status returned by op. It returns nil for any
// non-failure status. Out-of-date maps to KindStaleSurface, everything else
// to KindFatal.
func NewError(op string, status native.Status) error {
	if !IsError(status) {
		return nil
	}
	kind := KindFatal
	if status == native.ErrorOutOfDate {
		kind = KindStaleSurface
	}
	return pkgerrors.WithStack(&Error{Kind: kind, Op: op, Status: status, HasStatus: true})
}

// IsError reports whether a native status is a failure.
func IsError(status native.Status) bool {
	return status.IsError()
}

func constructionError(op string, status native.Status) error {
	return pkgerrors.WithStack(&Error{Kind: KindConstruction, Op: op, Status: status, HasStatus: true})
}

// fatalError wraps a non-failure status that still ends the operation, such
// as a fence wait timing out.
func fatalError(op string, status native.Status) error {
	return pkgerrors.WithStack(&Error{Kind: KindFatal, Op: op, Status: status, HasStatus: true})
}

func configError(op, format string, args ...interface{}) error {
	return pkgerrors.WithStack(&Error{Kind: KindConfiguration, Op: op, Msg: fmt.Sprintf(format, args...)})
}

func lookupError(op, format string, args ...interface{}) error {
	return pkgerrors.WithStack(&Error{Kind: KindLookup, Op: op, Msg: fmt.Sprintf(format, args...)})
}

// KindOf returns the Kind of the first *Error in err's chain, or zero.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsStale reports whether err signals a stale presentation surface.
func IsStale(err error) bool {
	return KindOf(err) == KindStaleSurface
}

// StatusOf returns the native status carried by err, if any.
func StatusOf(err error) (native.Status, bool) {
	var e *Error
	if errors.As(err, &e) && e.HasStatus {
		return e.Status, true
	}
	return native.Success, false
}
