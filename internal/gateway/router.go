package gateway

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/vietddude/lazygate/internal/core/domain"
)

type errSlotKey struct{}

// Router dispatches to error-returning handlers registered on a ServeMux.
// Requests matching no pattern, including method mismatches, produce a
// *domain.RouteMissError.
type Router struct {
	mux *http.ServeMux
	log *slog.Logger
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{mux: http.NewServeMux(), log: slog.Default()}
}

// Handle registers h for a ServeMux pattern such as "GET /users/{id}".
func (rt *Router) Handle(pattern string, h HandlerFunc) {
	rt.mux.Handle(pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if slot, ok := r.Context().Value(errSlotKey{}).(*error); ok {
			*slot = h(w, r)
			return
		}
		// Reached without Serve: nothing upstream can classify the error.
		if err := h(w, r); err != nil {
			rt.log.Error("Handler error outside pipeline", "path", r.URL.RequestURI(), "error", err)
		}
	}))
}

// Serve is the terminal HandlerFunc of a pipeline.
func (rt *Router) Serve(w http.ResponseWriter, r *http.Request) error {
	if _, pattern := rt.mux.Handler(r); pattern == "" {
		return NotFound(r)
	}

	var err error
	rt.mux.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), errSlotKey{}, &err)))
	return err
}

// NotFound builds the 404 precursor for a request no route matched.
func NotFound(r *http.Request) error {
	return domain.NewRouteMiss(r)
}
