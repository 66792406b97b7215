// Package gateway implements the request pipeline: request ids, the lazy
// connection gate, routing with a not-found fallback, and the terminal
// failure classifier.
package gateway

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/pkg/errors"

	"github.com/vietddude/lazygate/internal/metrics"
)

// HandlerFunc serves a request and reports failure by returning it.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Stage wraps the rest of the chain. A stage short-circuits by not calling next.
type Stage func(next HandlerFunc) HandlerFunc

// Pipeline is an ordered chain of stages ending in a FailureClassifier.
type Pipeline struct {
	stages     []Stage
	classifier *FailureClassifier
	log        *slog.Logger
}

// NewPipeline creates a pipeline; stages run in the order given.
func NewPipeline(classifier *FailureClassifier, log *slog.Logger, stages ...Stage) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		stages:     stages,
		classifier: classifier,
		log:        log,
	}
}

// Then terminates the chain with h and returns the resulting http.Handler.
func (p *Pipeline) Then(h HandlerFunc) http.Handler {
	chain := h
	for i := len(p.stages) - 1; i >= 0; i-- {
		chain = p.stages[i](chain)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w}

		if err := p.run(chain, sw, r); err != nil {
			if sw.wroteHeader {
				// Too late to change the response; keep the failure visible.
				p.log.Error("Handler failed after writing response",
					"path", r.URL.RequestURI(),
					"status", sw.Status(),
					"error", err)
			} else {
				p.classifier.Respond(sw, r, err)
			}
		}

		metrics.RequestsTotal.WithLabelValues(strconv.Itoa(sw.Status())).Inc()
	})
}

func (p *Pipeline) run(h HandlerFunc, w http.ResponseWriter, r *http.Request) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			err = errors.Errorf("panic: %v", rec)
		}
	}()
	return h(w, r)
}
