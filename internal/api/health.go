package api

import (
	"net/http"

	"github.com/adjutantlabs/adjutant/internal/log"
)

// health is a simple liveness endpoint for container probes.
func health(logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, logger)
	}
}
