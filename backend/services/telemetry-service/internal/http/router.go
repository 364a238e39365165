package httpserver

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Routes defines HTTP endpoints.
type Routes struct {
	Ingest  http.HandlerFunc
	Latest  http.HandlerFunc
	Health  http.HandlerFunc
	Ready   http.HandlerFunc
	Metrics http.Handler
}

// NewRouter sets up HTTP routing. Unknown methods on a known path get 405.
func NewRouter(routes Routes) *mux.Router {
	r := mux.NewRouter()
	if routes.Ingest != nil {
		r.HandleFunc("/telemetry", routes.Ingest).Methods(http.MethodPost)
	}
	if routes.Latest != nil {
		r.HandleFunc("/latest", routes.Latest).Methods(http.MethodGet)
	}
	if routes.Health != nil {
		r.HandleFunc("/health", routes.Health).Methods(http.MethodGet)
	}
	if routes.Ready != nil {
		r.HandleFunc("/ready", routes.Ready).Methods(http.MethodGet)
	}
	if routes.Metrics != nil {
		r.Handle("/metrics", routes.Metrics).Methods(http.MethodGet)
	}
	return r
}
