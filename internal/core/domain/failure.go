package domain

import (
	"context"
	"errors"
	"net"
	"os"
	"strings"
	"syscall"
)

// FailureCategory tags a failure raised at the database boundary.
type FailureCategory string

const (
	FailureCategoryOther       FailureCategory = "other"
	FailureCategoryTimeout     FailureCategory = "timeout"
	FailureCategoryUnavailable FailureCategory = "unavailable"
)

// DriverUnknown names the driver of failures recognised only by their message.
const DriverUnknown = "unknown"

// DriverError is a database-layer failure tagged with its category.
type DriverError struct {
	Driver   string
	Category FailureCategory
	Err      error
}

func (e *DriverError) Error() string {
	if e.Err == nil {
		return e.Driver + ": " + string(e.Category)
	}
	return e.Err.Error()
}

func (e *DriverError) Unwrap() error {
	return e.Err
}

// NewDriverError tags err for driver. A nil err stays nil.
func NewDriverError(driver string, category FailureCategory, err error) error {
	if err == nil {
		return nil
	}
	return &DriverError{Driver: driver, Category: category, Err: err}
}

// TagByMessage tags an untagged err whose message carries a known failure
// marker. Other errors are returned unchanged.
func TagByMessage(err error) error {
	if _, ok := AsDriverError(err); ok {
		return err
	}
	if cat, ok := MessageCategory(err); ok {
		return &DriverError{Driver: DriverUnknown, Category: cat, Err: err}
	}
	return err
}

// AsDriverError returns the first DriverError in err's chain.
func AsDriverError(err error) (*DriverError, bool) {
	var de *DriverError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// NetworkCategory inspects the transport layer of err. It reports false when
// nothing in the chain looks like a network failure.
func NetworkCategory(err error) (FailureCategory, bool) {
	if err == nil {
		return "", false
	}

	// Refused connections and unresolvable hosts mean the backend is not there.
	if errors.Is(err, syscall.ECONNREFUSED) {
		return FailureCategoryUnavailable, true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
		return FailureCategoryUnavailable, true
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return FailureCategoryTimeout, true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailureCategoryTimeout, true
	}

	return MessageCategory(err)
}

// failureMarkers are driver-agnostic fragments of failure messages, checked
// only when nothing typed in the chain matched.
var failureMarkers = []struct {
	text     string
	category FailureCategory
}{
	{"ECONNREFUSED", FailureCategoryUnavailable},
	{"ENOTFOUND", FailureCategoryUnavailable},
	{"buffering timed out", FailureCategoryTimeout},
}

// MessageCategory looks for a known failure marker in err's message.
func MessageCategory(err error) (FailureCategory, bool) {
	if err == nil {
		return "", false
	}
	msg := err.Error()
	for _, m := range failureMarkers {
		if strings.Contains(msg, m.text) {
			return m.category, true
		}
	}
	return "", false
}
