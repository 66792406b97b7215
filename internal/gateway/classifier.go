package gateway

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/vietddude/lazygate/internal/core/domain"
	"github.com/vietddude/lazygate/internal/metrics"
)

// Messages returned to clients for database failures.
const (
	MessageTimeout     = "Database connection timeout. Please try again."
	MessageUnavailable = "Database service unavailable. Please try again later."
)

// FailureKind names the branch of the classification policy that matched.
type FailureKind string

const (
	KindDatabaseTimeout     FailureKind = "database_timeout"
	KindDatabaseUnavailable FailureKind = "database_unavailable"
	KindRouteNotFound       FailureKind = "route_not_found"
	KindUnclassified        FailureKind = "unclassified"
	KindConnectionGate      FailureKind = "connection_gate"
)

// ClassifiedError is the per-request outcome of classification.
type ClassifiedError struct {
	StatusCode int
	Message    string
	Kind       FailureKind
	Cause      error
	Production bool
}

// FailureClassifier turns any error reaching the end of the pipeline into a
// JSON response. In production only the safe message is returned and a
// diagnostic record is logged; otherwise the stack is included in the body.
type FailureClassifier struct {
	production bool
	log        *slog.Logger
	now        func() time.Time
	tag        func(error) error
}

// NewFailureClassifier creates a classifier.
func NewFailureClassifier(production bool, log *slog.Logger) *FailureClassifier {
	if log == nil {
		log = slog.Default()
	}
	return &FailureClassifier{
		production: production,
		log:        log,
		now:        time.Now,
		tag:        domain.TagByMessage,
	}
}

// WithTagger replaces the function that tags untagged database errors before
// the policy runs, domain.TagByMessage by default. It returns c.
func (c *FailureClassifier) WithTagger(tag func(error) error) *FailureClassifier {
	c.tag = tag
	return c
}

// Classify applies the policy to err. The first matching rule wins:
// database-layer failures other than unavailability map to a 503 timeout,
// unreachable backends to a 503 unavailable, and everything else keeps its
// pending status and message.
func (c *FailureClassifier) Classify(err error) ClassifiedError {
	if err == nil {
		err = pkgerrors.New("unknown error")
	}

	ce := ClassifiedError{
		StatusCode: pendingStatus(err),
		Message:    err.Error(),
		Kind:       KindUnclassified,
		Cause:      err,
		Production: c.production,
	}

	tagged := err
	if c.tag != nil {
		tagged = c.tag(err)
	}

	de, isDriver := domain.AsDriverError(tagged)
	switch {
	case isDriver && de.Category != domain.FailureCategoryUnavailable:
		ce.StatusCode = http.StatusServiceUnavailable
		ce.Message = MessageTimeout
		ce.Kind = KindDatabaseTimeout
		c.log.Error("Database driver error", "driver", de.Driver, "category", de.Category, "error", err.Error())

	case isUnavailable(tagged):
		ce.StatusCode = http.StatusServiceUnavailable
		ce.Message = MessageUnavailable
		ce.Kind = KindDatabaseUnavailable
		c.log.Error("Connection error", "error", err.Error())

	default:
		var miss *domain.RouteMissError
		if errors.As(err, &miss) {
			ce.Kind = KindRouteNotFound
		}
	}

	return ce
}

// Respond classifies err and writes the failure response for r.
func (c *FailureClassifier) Respond(w http.ResponseWriter, r *http.Request, err error) {
	ce := c.Classify(err)

	body := errorBody{Message: ce.Message}
	if c.production {
		c.log.Error("Request failed",
			"timestamp", c.now().UTC().Format(time.RFC3339Nano),
			"status", ce.StatusCode,
			"message", ce.Cause.Error(),
			"path", r.URL.RequestURI(),
			"method", r.Method,
			"request_id", RequestIDFrom(r.Context()),
		)
	} else {
		body.Stack = Stack(ce.Cause)
	}

	metrics.FailuresTotal.WithLabelValues(strconv.Itoa(ce.StatusCode), string(ce.Kind)).Inc()

	if werr := writeJSON(w, ce.StatusCode, body); werr != nil {
		c.log.Error("Failed to write error response", "error", werr)
	}
}

// Stack renders err with a stack trace. Errors created through
// github.com/pkg/errors keep their origin; others get the caller's stack.
func Stack(err error) string {
	if err == nil {
		return ""
	}
	var st domain.StackTracer
	if !errors.As(err, &st) {
		st = pkgerrors.WithStack(err).(domain.StackTracer)
	}
	return fmt.Sprintf("%s%+v", err.Error(), st.StackTrace())
}

// pendingStatus is the error status a previous stage asked for. Anything
// outside 4xx-5xx, including 200, becomes 500.
func pendingStatus(err error) int {
	var sc domain.StatusCoder
	if errors.As(err, &sc) {
		if code := sc.StatusCode(); code >= 400 && code <= 599 {
			return code
		}
	}
	return http.StatusInternalServerError
}

func isUnavailable(err error) bool {
	if de, ok := domain.AsDriverError(err); ok {
		return de.Category == domain.FailureCategoryUnavailable
	}
	cat, ok := domain.NetworkCategory(err)
	return ok && cat == domain.FailureCategoryUnavailable
}
