package api

import (
	"net/http"

	"github.com/adjutantlabs/adjutant/internal/log"
	"github.com/adjutantlabs/adjutant/internal/model"
)

// modelsHandler serves the model allow-list.
type modelsHandler struct {
	catalog *model.Catalog
	logger  log.Logger
}

// list handles GET /api/models. The response is a plain array of
// {id, name} objects; provider routing stays server-side.
func (h *modelsHandler) list(w http.ResponseWriter, _ *http.Request) {
	models := h.catalog.List()
	if models == nil {
		models = []model.Model{}
	}
	writeJSON(w, http.StatusOK, models, h.logger)
}
