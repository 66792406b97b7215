package control

import (
	"encoding/json"
	"net/http"
)

// SystemStatus represents the health state reported by the health routes.
type SystemStatus string

const StatusHealthy SystemStatus = "healthy"

// HealthReport is the body of GET /health/detailed.
type HealthReport struct {
	Status    SystemStatus `json:"status"`
	Driver    string       `json:"driver"`
	Connected bool         `json:"connected"`
}

func (g *Gateway) registerHealthRoutes() {
	g.router.Handle("GET /health", g.handleHealth)
	g.router.Handle("GET /health/detailed", g.handleDetailed)
}

// handleHealth only runs behind the connection gate, so reaching it means the
// database has been connected at least once.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) error {
	return writeJSON(w, http.StatusOK, map[string]string{"status": string(StatusHealthy)})
}

// handleDetailed pings the backend; a failed ping goes to the classifier.
func (g *Gateway) handleDetailed(w http.ResponseWriter, r *http.Request) error {
	if err := g.connector.Ping(r.Context()); err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, HealthReport{
		Status:    StatusHealthy,
		Driver:    g.connector.Driver(),
		Connected: g.conns.Connected(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}
